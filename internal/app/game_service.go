package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"quizhub-server/internal/domain"
)

// RoomStore abstracts where live rooms are kept (in-memory, Redis-marked, etc).
type RoomStore interface {
	GetOrCreate(roomID string) (*Room, bool)
	Get(roomID string) (*Room, bool)
	// DeleteIdle drops rooms that RetireIfIdle accepts and returns their ids.
	DeleteIdle(cutoff time.Time) []string
	Len() int
}

// QuestionSource supplies the question list for a room when its quiz starts.
type QuestionSource interface {
	FetchQuestionsForRoom(ctx context.Context, roomID string) ([]domain.Question, error)
}

// AdminAuthorizer verifies the bearer token an admin join presents.
type AdminAuthorizer interface {
	AuthorizeAdmin(token string) error
}

// GameService resolves rooms and connections for every protocol operation.
type GameService struct {
	rooms     RoomStore
	registry  *Registry
	questions QuestionSource
	admins    AdminAuthorizer
}

type Option func(*GameService)

// WithAdminAuthorizer requires admin joins to carry a valid token.
func WithAdminAuthorizer(a AdminAuthorizer) Option {
	return func(s *GameService) { s.admins = a }
}

func NewGameService(rooms RoomStore, registry *Registry, questions QuestionSource, opts ...Option) *GameService {
	s := &GameService{rooms: rooms, registry: registry, questions: questions}
	for _, opt := range opts {
		opt(s)
	}
	registry.OnLeave(s.handleLeave)
	return s
}

// Connect registers a new connection and tells it its id.
func (s *GameService) Connect(p *Peer) {
	s.registry.Register(p)
	p.deliver(Event{Type: EventConnected, Payload: ConnectedPayload{ConnectionID: p.ID()}})
}

// Disconnect runs the same leave path as an explicit exit.
func (s *GameService) Disconnect(connID string) {
	s.registry.Unregister(connID)
}

// Join admits a connection to a room. Only admin joins create rooms.
func (s *GameService) Join(_ context.Context, connID, roomID, name string, asAdmin bool, token string) error {
	roomID = strings.TrimSpace(roomID)
	name = strings.TrimSpace(name)
	if roomID == "" {
		return domain.ErrRoomNotFound
	}
	if name == "" {
		return errors.New("player name required")
	}
	if asAdmin && s.admins != nil {
		if err := s.admins.AuthorizeAdmin(token); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
		}
	}

	prev, hadPrev := s.registry.LookupRoom(connID)

	// A room retired by the janitor between lookup and join is retried once.
	for attempt := 0; attempt < 2; attempt++ {
		var room *Room
		if asAdmin {
			room, _ = s.rooms.GetOrCreate(roomID)
		} else {
			var ok bool
			if room, ok = s.rooms.Get(roomID); !ok {
				return domain.ErrRoomNotFound
			}
		}

		err := room.join(connID, name, asAdmin)
		if errors.Is(err, domain.ErrRoomClosed) {
			continue
		}
		if err != nil {
			return err
		}
		if !s.registry.Bind(connID, roomID) {
			// The connection went away while joining; Unregister already left prev.
			room.leave(connID)
			return nil
		}
		// A connection sits in one room at a time. Bind replaced the old binding.
		if hadPrev && prev != roomID {
			if old, found := s.rooms.Get(prev); found {
				old.leave(connID)
			}
		}
		return nil
	}
	return domain.ErrRoomNotFound
}

// StartQuiz fetches the question bank without holding the room lock; the room sits
// in StateStarting meanwhile so a second start is rejected.
func (s *GameService) StartQuiz(ctx context.Context, connID, roomID string) error {
	room, err := s.room(roomID)
	if err != nil {
		return err
	}
	if err := room.beginStart(connID); err != nil {
		return err
	}

	questions, err := s.questions.FetchQuestionsForRoom(ctx, roomID)
	if err != nil {
		if !errors.Is(err, domain.ErrNoQuestionsFound) {
			err = fmt.Errorf("fetch questions: %w", err)
		}
	} else {
		valid, invalid := domain.ValidQuestions(questions)
		for _, e := range invalid {
			log.Printf("room %s: skipping %v", roomID, e)
		}
		questions = valid
	}
	return room.finishStart(questions, err)
}

func (s *GameService) SubmitAnswer(connID, roomID string, option int) error {
	room, err := s.room(roomID)
	if err != nil {
		return err
	}
	return room.submitAnswer(connID, option)
}

func (s *GameService) NextQuestion(connID, roomID string) error {
	room, err := s.room(roomID)
	if err != nil {
		return err
	}
	return room.nextQuestion(connID)
}

func (s *GameService) EliminateOption(connID, roomID, target string, option int) error {
	room, err := s.room(roomID)
	if err != nil {
		return err
	}
	return room.setOption(connID, target, option, true)
}

func (s *GameService) RestoreOption(connID, roomID, target string, option int) error {
	room, err := s.room(roomID)
	if err != nil {
		return err
	}
	return room.setOption(connID, target, option, false)
}

// GrantElimination removes count incorrect options for target (1 or 2).
func (s *GameService) GrantElimination(connID, roomID, target string, count int) error {
	room, err := s.room(roomID)
	if err != nil {
		return err
	}
	return room.grantElimination(connID, target, count)
}

func (s *GameService) RequestElimination(connID, roomID string) error {
	room, err := s.room(roomID)
	if err != nil {
		return err
	}
	return room.requestElimination(connID)
}

func (s *GameService) AdminExit(connID, roomID string) error {
	room, err := s.room(roomID)
	if err != nil {
		return err
	}
	if err := room.adminExit(connID); err != nil {
		return err
	}
	s.registry.Unbind(connID, roomID)
	return nil
}

func (s *GameService) RequestState(connID, roomID string) error {
	room, err := s.room(roomID)
	if err != nil {
		return err
	}
	return room.sendSnapshot(connID)
}

// Summary returns room metadata for the HTTP surface.
func (s *GameService) Summary(roomID string) (RoomSummary, bool) {
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return RoomSummary{}, false
	}
	return room.Summary(), true
}

// Reap removes rooms that have been empty and idle since before cutoff.
func (s *GameService) Reap(cutoff time.Time) []string {
	return s.rooms.DeleteIdle(cutoff)
}

// RunJanitor reaps idle rooms until ctx is done.
func (s *GameService) RunJanitor(ctx context.Context, idle time.Duration) {
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := s.Reap(now.Add(-idle)); len(removed) > 0 {
				log.Printf("reaped %d idle rooms: %v", len(removed), removed)
			}
		}
	}
}

func (s *GameService) handleLeave(connID, roomID string) {
	if room, ok := s.rooms.Get(roomID); ok {
		room.leave(connID)
	}
}

func (s *GameService) room(roomID string) (*Room, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, domain.ErrRoomNotFound
	}
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}
