package domain

import "errors"

var (
	// ErrRoomNotFound is returned when a room id does not resolve to a live room.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomClosed is returned when a room was retired while a caller still held it.
	ErrRoomClosed = errors.New("room closed")
	// ErrAdminExists is returned when a second connection asks for an occupied admin slot.
	ErrAdminExists = errors.New("room already has an admin")
	// ErrNotAdmin is returned when a non-admin connection issues an admin command.
	ErrNotAdmin = errors.New("not the room admin")
	// ErrNotParticipant is returned when a connection acts in a room it has not joined.
	ErrNotParticipant = errors.New("participant not found in room")
	// ErrUnauthorized indicates an admin join presented a missing or invalid token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoQuestionsFound indicates the question bank is empty.
	ErrNoQuestionsFound = errors.New("no questions found")
	// ErrInvalidState indicates the room is not in a state that accepts the command.
	ErrInvalidState = errors.New("invalid room state")
	// ErrAlreadyAnswered is returned on a second submission for the same question.
	ErrAlreadyAnswered = errors.New("already answered")
	// ErrInvalidOption indicates an option index outside the current question or not selectable.
	ErrInvalidOption = errors.New("invalid option")
	// ErrEliminationDenied is returned when an elimination cannot be granted.
	ErrEliminationDenied = errors.New("elimination denied")
	// ErrInvalidQuestion indicates a question document failed validation.
	ErrInvalidQuestion = errors.New("invalid question")
)
