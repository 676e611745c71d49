package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"quizhub-server/internal/domain"
)

var (
	errMalformed   = errors.New("malformed payload")
	errUnsupported = errors.New("unsupported message type")
)

type joinPayload struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
	IsAdmin    bool   `json:"isAdmin"`
	Token      string `json:"token"`
}

// roomPayload covers commands that carry only a room id. A client-supplied
// question list on start_quiz is decoded and ignored.
type roomPayload struct {
	RoomID    string          `json:"roomId"`
	Questions json.RawMessage `json:"questions,omitempty"`
}

type answerPayload struct {
	RoomID string `json:"roomId"`
	Answer *int   `json:"answer"`
}

type optionPayload struct {
	RoomID         string `json:"roomId"`
	TargetPlayerID string `json:"targetPlayerId"`
	OptionIndex    *int   `json:"optionIndex"`
}

type targetPayload struct {
	RoomID         string `json:"roomId"`
	TargetPlayerID string `json:"targetPlayerId"`
}

type requestPayload struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

// RoomRef names the room a rejection refers to.
type RoomRef struct {
	RoomID string `json:"roomId"`
}

// Dispatch decodes one inbound message, runs the matching operation and reports
// any rejection to the issuing connection only. The returned error is for logging.
func (s *GameService) Dispatch(ctx context.Context, connID, msgType string, raw json.RawMessage) error {
	roomID, err := s.dispatch(ctx, connID, msgType, raw)
	if err != nil {
		s.reject(connID, msgType, roomID, err)
	}
	return err
}

func (s *GameService) dispatch(ctx context.Context, connID, msgType string, raw json.RawMessage) (string, error) {
	switch msgType {
	case EventJoinGame:
		var p joinPayload
		if err := decode(raw, &p); err != nil {
			return "", err
		}
		return p.RoomID, s.Join(ctx, connID, p.RoomID, p.PlayerName, p.IsAdmin, p.Token)

	case EventStartQuiz:
		var p roomPayload
		if err := decode(raw, &p); err != nil {
			return "", err
		}
		if len(p.Questions) > 0 {
			log.Printf("room %s: ignoring client-supplied questions from %s", p.RoomID, connID)
		}
		return p.RoomID, s.StartQuiz(ctx, connID, p.RoomID)

	case EventNextQuestion, EventAdminExit, EventRequestState:
		var p roomPayload
		if err := decode(raw, &p); err != nil {
			return "", err
		}
		switch msgType {
		case EventNextQuestion:
			return p.RoomID, s.NextQuestion(connID, p.RoomID)
		case EventAdminExit:
			return p.RoomID, s.AdminExit(connID, p.RoomID)
		default:
			return p.RoomID, s.RequestState(connID, p.RoomID)
		}

	case EventSubmitAnswer:
		var p answerPayload
		if err := decode(raw, &p); err != nil {
			return "", err
		}
		if p.Answer == nil {
			return p.RoomID, fmt.Errorf("%w: answer is required", domain.ErrInvalidOption)
		}
		return p.RoomID, s.SubmitAnswer(connID, p.RoomID, *p.Answer)

	case EventEliminateOption, EventRestoreOption:
		var p optionPayload
		if err := decode(raw, &p); err != nil {
			return "", err
		}
		if p.OptionIndex == nil {
			return p.RoomID, fmt.Errorf("%w: optionIndex is required", domain.ErrInvalidOption)
		}
		if msgType == EventEliminateOption {
			return p.RoomID, s.EliminateOption(connID, p.RoomID, p.TargetPlayerID, *p.OptionIndex)
		}
		return p.RoomID, s.RestoreOption(connID, p.RoomID, p.TargetPlayerID, *p.OptionIndex)

	case EventEliminateOneWrong, EventEliminateTwoWrong:
		var p targetPayload
		if err := decode(raw, &p); err != nil {
			return "", err
		}
		count := 1
		if msgType == EventEliminateTwoWrong {
			count = 2
		}
		return p.RoomID, s.GrantElimination(connID, p.RoomID, p.TargetPlayerID, count)

	case EventRequestElimination:
		var p requestPayload
		if err := decode(raw, &p); err != nil {
			return "", err
		}
		return p.RoomID, s.RequestElimination(connID, p.RoomID)

	default:
		return "", fmt.Errorf("%w: %q", errUnsupported, msgType)
	}
}

// reject converts an operation error into the event the requester sees.
// Authorization failures are logged but never answered.
func (s *GameService) reject(connID, msgType, roomID string, err error) {
	log.Printf("%s from %s (room %q) rejected: %v", msgType, connID, roomID, err)

	var ev Event
	switch {
	case errors.Is(err, domain.ErrNotAdmin):
		return
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrRoomClosed):
		ev = Event{Type: EventRoomNotFound, Payload: RoomRef{RoomID: roomID}}
	case errors.Is(err, domain.ErrAdminExists):
		ev = Event{Type: EventAdminExists, Payload: RoomRef{RoomID: roomID}}
	case errors.Is(err, domain.ErrNoQuestionsFound):
		ev = Event{Type: EventNoQuestionsFound, Payload: RoomRef{RoomID: roomID}}
	case errors.Is(err, domain.ErrEliminationDenied):
		ev = Event{Type: EventEliminationDenied, Payload: MessagePayload{Message: err.Error()}}
	case errors.Is(err, domain.ErrAlreadyAnswered):
		ev = Event{Type: EventAlreadyAnswered, Payload: MessagePayload{Message: err.Error()}}
	case errors.Is(err, domain.ErrUnauthorized):
		ev = Event{Type: EventUnauthorized, Payload: MessagePayload{Message: "admin token required"}}
	default:
		ev = Event{Type: EventError, Payload: MessagePayload{Message: err.Error()}}
	}
	s.registry.Send(connID, ev)
}

func decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing payload", errMalformed)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	return nil
}

// RejectMalformed reports an inbound frame that could not be decoded at all.
func (s *GameService) RejectMalformed(connID string, err error) {
	s.reject(connID, "", "", fmt.Errorf("%w: %v", errMalformed, err))
}
