package app

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"quizhub-server/internal/domain"
)

// State is the room's position in the quiz lifecycle.
type State string

const (
	StateLobby          State = "lobby"
	StateStarting       State = "starting"
	StateQuestionActive State = "question_active"
	StateQuestionClosed State = "question_closed"
	StateEnded          State = "ended"
)

// DefaultPointsPerCorrect is awarded for a correct answer when Settings leaves it unset.
const DefaultPointsPerCorrect = 10

// Notifier delivers an event to a single connection without blocking.
type Notifier interface {
	Send(connID string, ev Event) bool
}

// Settings configures the rooms a factory creates.
type Settings struct {
	EliminationsPerPlayer int
	PointsPerCorrect      int
}

func (s Settings) points() int {
	if s.PointsPerCorrect <= 0 {
		return DefaultPointsPerCorrect
	}
	return s.PointsPerCorrect
}

// RoomFactory builds a fresh room for an unseen id.
type RoomFactory func(id string) *Room

// NewRoomFactory returns a factory producing rooms that share settings and notifier.
func NewRoomFactory(settings Settings, notify Notifier) RoomFactory {
	return func(id string) *Room {
		return NewRoom(id, settings, notify)
	}
}

// Room is the authoritative state of one game room. Every mutation, and every
// enqueue of the events it produces, happens under mu, so members observe the
// room's transitions in the order they happened.
type Room struct {
	id       string
	settings Settings
	notify   Notifier
	now      func() time.Time

	mu         sync.Mutex
	rnd        *rand.Rand
	state      State
	closed     bool
	adminID    string
	roster     []string          // present connections, join order
	joined     []string          // every connection ever admitted, join order
	names      map[string]string // retained after leave
	scores     map[string]int    // retained after leave
	questions  []domain.Question
	current    int
	answered   map[string]bool
	eliminated map[string]map[int]struct{}
	used       map[string]int
	pending    map[string]int
	lastActive time.Time
}

func NewRoom(id string, settings Settings, notify Notifier) *Room {
	return NewRoomWithClock(id, settings, notify, time.Now)
}

// NewRoomWithClock allows deterministic idle timestamps in tests.
func NewRoomWithClock(id string, settings Settings, notify Notifier, now func() time.Time) *Room {
	return &Room{
		id:         id,
		settings:   settings,
		notify:     notify,
		now:        now,
		rnd:        rand.New(rand.NewSource(now().UnixNano())),
		state:      StateLobby,
		names:      make(map[string]string),
		scores:     make(map[string]int),
		answered:   make(map[string]bool),
		eliminated: make(map[string]map[int]struct{}),
		used:       make(map[string]int),
		pending:    make(map[string]int),
		lastActive: now(),
	}
}

func (r *Room) ID() string { return r.id }

// join admits connID. An admin request takes the admin slot when it is free.
func (r *Room) join(connID, displayName string, asAdmin bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return domain.ErrRoomClosed
	}
	if asAdmin && r.adminID != "" && r.adminID != connID {
		return domain.ErrAdminExists
	}

	r.touchLocked()
	if !r.isPresentLocked(connID) {
		r.roster = append(r.roster, connID)
	}
	if _, seen := r.names[connID]; !seen {
		r.joined = append(r.joined, connID)
	}
	r.names[connID] = displayName

	if asAdmin {
		r.adminID = connID
	} else if connID != r.adminID {
		if _, ok := r.scores[connID]; !ok {
			r.scores[connID] = 0
		}
	}

	r.broadcastSnapshotsLocked()

	switch r.state {
	case StateQuestionActive, StateQuestionClosed:
		r.sendLocked(connID, r.showQuestionLocked(connID))
	case StateEnded:
		r.sendLocked(connID, Event{Type: EventQuizEnded, Payload: r.scoresLocked()})
	}
	return nil
}

// beginStart reserves the room for a quiz start. The caller fetches questions
// without holding the room lock and then calls finishStart.
func (r *Room) beginStart(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return domain.ErrRoomClosed
	}
	if connID != r.adminID {
		return domain.ErrNotAdmin
	}
	if r.state != StateLobby {
		return fmt.Errorf("%w: quiz is %s", domain.ErrInvalidState, r.state)
	}
	r.state = StateStarting
	r.touchLocked()
	return nil
}

// finishStart completes or rolls back a start reserved by beginStart.
func (r *Room) finishStart(questions []domain.Question, fetchErr error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateStarting {
		return fmt.Errorf("%w: quiz is %s", domain.ErrInvalidState, r.state)
	}
	if fetchErr != nil {
		r.state = StateLobby
		return fetchErr
	}
	if len(questions) == 0 {
		r.state = StateLobby
		return domain.ErrNoQuestionsFound
	}

	r.questions = append([]domain.Question(nil), questions...)
	r.current = 0
	r.resetQuestionLocked()
	r.state = StateQuestionActive
	r.touchLocked()
	r.broadcastQuestionLocked()
	return nil
}

func (r *Room) submitAnswer(connID string, option int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isPresentLocked(connID) {
		return domain.ErrNotParticipant
	}
	if connID == r.adminID {
		return fmt.Errorf("%w: the admin does not answer", domain.ErrNotParticipant)
	}
	if (r.state == StateQuestionActive || r.state == StateQuestionClosed) && r.answered[connID] {
		return fmt.Errorf("%w: question %d", domain.ErrAlreadyAnswered, r.current)
	}
	if r.state != StateQuestionActive {
		return fmt.Errorf("%w: quiz is %s", domain.ErrInvalidState, r.state)
	}

	q := r.questions[r.current]
	if option < 0 || option >= len(q.Options) {
		return fmt.Errorf("%w: %d", domain.ErrInvalidOption, option)
	}
	if _, gone := r.eliminated[connID][option]; gone {
		return fmt.Errorf("%w: option %d was eliminated", domain.ErrInvalidOption, option)
	}

	r.touchLocked()
	r.answered[connID] = true
	correct := option == q.CorrectAnswer
	awarded := 0
	if correct {
		awarded = r.settings.points()
		r.scores[connID] += awarded
	}

	r.sendLocked(connID, Event{Type: EventAnswerResult, Payload: AnswerResult{
		Index:         r.current,
		CorrectAnswer: q.CorrectAnswer,
		Correct:       correct,
		Awarded:       awarded,
		TotalScore:    r.scores[connID],
	}})
	r.broadcastLocked(Event{Type: EventScoreUpdate, Payload: r.scoresLocked()})
	r.broadcastLocked(Event{Type: EventPlayerAnswered, Payload: PlayerAnswered{PlayerID: connID}})
	r.closeIfAllAnsweredLocked()
	return nil
}

func (r *Room) nextQuestion(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if connID != r.adminID {
		return domain.ErrNotAdmin
	}
	if r.state != StateQuestionActive && r.state != StateQuestionClosed {
		return fmt.Errorf("%w: quiz is %s", domain.ErrInvalidState, r.state)
	}

	r.touchLocked()
	if r.current+1 < len(r.questions) {
		r.current++
		r.resetQuestionLocked()
		r.state = StateQuestionActive
		r.broadcastQuestionLocked()
		return nil
	}

	r.state = StateEnded
	r.broadcastLocked(Event{Type: EventQuizEnded, Payload: r.scoresLocked()})
	return nil
}

// setOption eliminates or restores one option for a target player. Repeating an
// operation that is already in effect changes nothing and emits nothing.
func (r *Room) setOption(connID, target string, option int, eliminate bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if connID != r.adminID {
		return domain.ErrNotAdmin
	}
	if r.state != StateQuestionActive {
		return fmt.Errorf("%w: quiz is %s", domain.ErrInvalidState, r.state)
	}
	if !r.isPlayerLocked(target) {
		return fmt.Errorf("%w: target %s", domain.ErrNotParticipant, target)
	}
	if option < 0 || option >= len(r.questions[r.current].Options) {
		return fmt.Errorf("%w: %d", domain.ErrInvalidOption, option)
	}

	mask := r.eliminated[target]
	_, isOut := mask[option]
	switch {
	case eliminate && !isOut:
		if mask == nil {
			mask = make(map[int]struct{})
			r.eliminated[target] = mask
		}
		mask[option] = struct{}{}
		r.touchLocked()
		r.broadcastLocked(Event{Type: EventOptionEliminated, Payload: OptionChange{OptionIndex: option, TargetPlayerID: target}})
	case !eliminate && isOut:
		delete(mask, option)
		r.touchLocked()
		r.broadcastLocked(Event{Type: EventOptionRestored, Payload: OptionChange{OptionIndex: option, TargetPlayerID: target}})
	}
	return nil
}

// requestElimination spends one unit of the player's budget and asks the admin
// to grant an elimination.
func (r *Room) requestElimination(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isPlayerLocked(connID) {
		return domain.ErrNotParticipant
	}
	if r.state != StateQuestionActive {
		return fmt.Errorf("%w: no question is open", domain.ErrEliminationDenied)
	}
	if r.answered[connID] {
		return fmt.Errorf("%w: already answered this question", domain.ErrEliminationDenied)
	}
	if len(r.eliminationCandidatesLocked(connID)) == 0 {
		return fmt.Errorf("%w: no incorrect options left", domain.ErrEliminationDenied)
	}
	if r.used[connID] >= r.settings.EliminationsPerPlayer {
		return fmt.Errorf("%w: %d of %d eliminations used", domain.ErrEliminationDenied, r.used[connID], r.settings.EliminationsPerPlayer)
	}

	r.touchLocked()
	r.used[connID]++
	r.pending[connID]++

	ev := Event{Type: EventEliminationRequested, Payload: EliminationRequested{
		PlayerID: connID,
		Used:     r.used[connID],
		Allowed:  r.settings.EliminationsPerPlayer,
	}}
	r.sendLocked(connID, ev)
	if r.adminID != "" {
		r.sendLocked(r.adminID, ev)
	}
	return nil
}

// grantElimination removes count server-chosen incorrect options for target.
// A pending player request is fulfilled first; otherwise the grant costs one
// unit of the target's budget.
func (r *Room) grantElimination(connID, target string, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if connID != r.adminID {
		return domain.ErrNotAdmin
	}
	if r.state != StateQuestionActive {
		return fmt.Errorf("%w: quiz is %s", domain.ErrInvalidState, r.state)
	}
	if !r.isPlayerLocked(target) {
		return fmt.Errorf("%w: target %s", domain.ErrNotParticipant, target)
	}

	candidates := r.eliminationCandidatesLocked(target)
	if len(candidates) < count {
		return fmt.Errorf("%w: only %d incorrect options left", domain.ErrEliminationDenied, len(candidates))
	}
	switch {
	case r.pending[target] > 0:
		r.pending[target]--
	case r.used[target] >= r.settings.EliminationsPerPlayer:
		return fmt.Errorf("%w: %d of %d eliminations used", domain.ErrEliminationDenied, r.used[target], r.settings.EliminationsPerPlayer)
	default:
		r.used[target]++
	}

	picked := make([]int, 0, count)
	for _, i := range r.rnd.Perm(len(candidates))[:count] {
		picked = append(picked, candidates[i])
	}
	sort.Ints(picked)

	mask := r.eliminated[target]
	if mask == nil {
		mask = make(map[int]struct{})
		r.eliminated[target] = mask
	}
	r.touchLocked()
	for _, option := range picked {
		mask[option] = struct{}{}
		r.broadcastLocked(Event{Type: EventOptionEliminated, Payload: OptionChange{OptionIndex: option, TargetPlayerID: target}})
	}
	return nil
}

// adminExit removes the admin from the room, promoting a successor.
func (r *Room) adminExit(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if connID == "" || connID != r.adminID {
		return domain.ErrNotAdmin
	}
	r.leaveLocked(connID)
	return nil
}

// leave runs on disconnect. Scores and names are kept for the final scoreboard.
func (r *Room) leave(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connID)
}

func (r *Room) leaveLocked(connID string) {
	idx := -1
	for i, id := range r.roster {
		if id == connID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	r.roster = append(r.roster[:idx], r.roster[idx+1:]...)
	r.touchLocked()

	if connID == r.adminID {
		r.adminID = ""
		r.promoteLocked()
	}
	r.broadcastSnapshotsLocked()
	r.closeIfAllAnsweredLocked()
}

// promoteLocked hands the admin slot to the earliest-joined present connection.
func (r *Room) promoteLocked() {
	if len(r.roster) == 0 {
		return
	}
	r.adminID = r.roster[0]
	r.broadcastLocked(Event{Type: EventNewAdmin, Payload: NewAdmin{ConnectionID: r.adminID}})
}

// sendSnapshot unicasts the room state to a member.
func (r *Room) sendSnapshot(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.isPresentLocked(connID) {
		return domain.ErrNotParticipant
	}
	r.sendLocked(connID, Event{Type: EventGameState, Payload: r.snapshotLocked(connID)})
	return nil
}

// RetireIfIdle marks an empty room that has been idle since before cutoff as
// closed. Closed rooms reject joins, so the store can drop them safely.
func (r *Room) RetireIfIdle(cutoff time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return true
	}
	if len(r.roster) > 0 || r.state == StateStarting || r.lastActive.After(cutoff) {
		return false
	}
	r.closed = true
	return true
}

func (r *Room) isPresentLocked(connID string) bool {
	for _, id := range r.roster {
		if id == connID {
			return true
		}
	}
	return false
}

func (r *Room) isPlayerLocked(connID string) bool {
	return connID != "" && connID != r.adminID && r.isPresentLocked(connID)
}

func (r *Room) touchLocked() {
	r.lastActive = r.now()
}

func (r *Room) resetQuestionLocked() {
	r.answered = make(map[string]bool)
	r.eliminated = make(map[string]map[int]struct{})
	r.pending = make(map[string]int)
}

// eliminationCandidatesLocked lists incorrect options still visible to target, ascending.
func (r *Room) eliminationCandidatesLocked(target string) []int {
	q := r.questions[r.current]
	mask := r.eliminated[target]
	out := make([]int, 0, len(q.Options))
	for i := range q.Options {
		if i == q.CorrectAnswer {
			continue
		}
		if _, gone := mask[i]; gone {
			continue
		}
		out = append(out, i)
	}
	return out
}

func (r *Room) closeIfAllAnsweredLocked() {
	if r.state != StateQuestionActive {
		return
	}
	players := 0
	for _, id := range r.roster {
		if id == r.adminID {
			continue
		}
		players++
		if !r.answered[id] {
			return
		}
	}
	if players == 0 {
		return
	}
	r.state = StateQuestionClosed
	r.broadcastLocked(Event{Type: EventQuestionClosed, Payload: QuestionIndex{Index: r.current}})
}

func (r *Room) sendLocked(connID string, ev Event) {
	if r.notify == nil {
		return
	}
	r.notify.Send(connID, ev)
}

func (r *Room) broadcastLocked(ev Event) {
	for _, id := range r.roster {
		r.sendLocked(id, ev)
	}
}

func (r *Room) broadcastSnapshotsLocked() {
	for _, id := range r.roster {
		r.sendLocked(id, Event{Type: EventGameState, Payload: r.snapshotLocked(id)})
	}
}

func (r *Room) broadcastQuestionLocked() {
	for _, id := range r.roster {
		r.sendLocked(id, r.showQuestionLocked(id))
	}
}
