package app_test

import (
	"context"
	"testing"

	"quizhub-server/internal/app"
	"quizhub-server/internal/domain"
	"quizhub-server/internal/infra/memory"
)

type staticSource struct {
	questions []domain.Question
	err       error
}

func (s staticSource) FetchQuestionsForRoom(context.Context, string) ([]domain.Question, error) {
	return s.questions, s.err
}

// blockingSource holds every fetch until release is closed.
type blockingSource struct {
	entered chan struct{}
	release chan struct{}
	bank    []domain.Question
}

func (b *blockingSource) FetchQuestionsForRoom(ctx context.Context, _ string) ([]domain.Question, error) {
	b.entered <- struct{}{}
	select {
	case <-b.release:
		return b.bank, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Type: domain.QuestionText, Prompt: "2+2?", Options: []string{"3", "5", "4", "22"}, CorrectAnswer: 2},
		{ID: "q2", Type: domain.QuestionText, Prompt: "Capital of France?", Options: []string{"Paris", "Rome", "Oslo", "Bern"}, CorrectAnswer: 0},
		{ID: "q3", Type: domain.QuestionImage, Prompt: "Which animal?", Options: []string{"Cat", "Dog"}, CorrectAnswer: 1, MediaURL: "https://cdn.example.com/dog.png"},
	}
}

type harness struct {
	t        *testing.T
	registry *app.Registry
	store    *memory.RoomStore
	service  *app.GameService
	peers    map[string]*app.Peer
}

func newHarness(t *testing.T, source app.QuestionSource, settings app.Settings, opts ...app.Option) *harness {
	t.Helper()
	registry := app.NewRegistry()
	store := memory.NewRoomStore(app.NewRoomFactory(settings, registry))
	return &harness{
		t:        t,
		registry: registry,
		store:    store,
		service:  app.NewGameService(store, registry, source, opts...),
		peers:    make(map[string]*app.Peer),
	}
}

func (h *harness) connect(id string) *app.Peer {
	h.t.Helper()
	p := app.NewPeer(id, 256)
	h.service.Connect(p)
	h.peers[id] = p
	return p
}

func (h *harness) send(connID, msgType, payload string) error {
	h.t.Helper()
	return h.service.Dispatch(context.Background(), connID, msgType, []byte(payload))
}

func (h *harness) mustSend(connID, msgType, payload string) {
	h.t.Helper()
	if err := h.send(connID, msgType, payload); err != nil {
		h.t.Fatalf("%s from %s failed: %v", msgType, connID, err)
	}
}

// drain returns everything queued for connID without blocking.
func (h *harness) drain(connID string) []app.Event {
	p := h.peers[connID]
	var out []app.Event
	for {
		select {
		case ev := <-p.Outbound():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func (h *harness) drainAll() {
	for id := range h.peers {
		h.drain(id)
	}
}

// lobby builds room R1 with admin "admin" and the given players.
func (h *harness) lobby(players ...string) {
	h.t.Helper()
	h.connect("admin")
	h.mustSend("admin", app.EventJoinGame, `{"roomId":"R1","playerName":"Alice","isAdmin":true}`)
	for _, id := range players {
		h.connect(id)
		h.mustSend(id, app.EventJoinGame, `{"roomId":"R1","playerName":"`+id+`"}`)
	}
	h.drainAll()
}

func (h *harness) started(players ...string) {
	h.t.Helper()
	h.lobby(players...)
	h.mustSend("admin", app.EventStartQuiz, `{"roomId":"R1"}`)
	h.drainAll()
}

func lastOf(events []app.Event, typ string) (app.Event, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == typ {
			return events[i], true
		}
	}
	return app.Event{}, false
}

func countOf(events []app.Event, typ string) int {
	n := 0
	for _, ev := range events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}
