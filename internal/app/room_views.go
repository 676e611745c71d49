package app

import (
	"sort"

	"quizhub-server/internal/domain"
)

// RoomSummary is a lightweight, lock-free copy of room metadata.
type RoomSummary struct {
	RoomID         string `json:"roomId"`
	State          State  `json:"state"`
	Players        int    `json:"players"`
	HasAdmin       bool   `json:"hasAdmin"`
	QuestionIndex  int    `json:"currentQuestionIndex"`
	TotalQuestions int    `json:"totalQuestions"`
}

func (r *Room) Summary() RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	players := 0
	for _, id := range r.roster {
		if id != r.adminID {
			players++
		}
	}
	return RoomSummary{
		RoomID:         r.id,
		State:          r.state,
		Players:        players,
		HasAdmin:       r.adminID != "",
		QuestionIndex:  r.current,
		TotalQuestions: len(r.questions),
	}
}

func (r *Room) quizActiveLocked() bool {
	return r.state == StateQuestionActive || r.state == StateQuestionClosed
}

// snapshotLocked builds the game_state payload as seen by viewer. Only the admin's
// copy carries the current question with its answer.
func (r *Room) snapshotLocked(viewer string) GameState {
	players := make(map[string]string, len(r.roster))
	for _, id := range r.roster {
		players[id] = r.names[id]
	}
	eliminated := make(map[string][]int, len(r.eliminated))
	for target, mask := range r.eliminated {
		if len(mask) > 0 {
			eliminated[target] = sortedOptions(mask)
		}
	}
	used := make(map[string]int, len(r.used))
	for id, n := range r.used {
		used[id] = n
	}

	state := GameState{
		RoomID:                r.id,
		State:                 r.state,
		Players:               players,
		PlayerOrder:           append([]string{}, r.roster...),
		Scores:                r.scoresLocked(),
		Leaderboard:           r.leaderboardLocked(),
		AdminID:               r.adminID,
		CurrentQuestionIndex:  r.current,
		TotalQuestions:        len(r.questions),
		IsQuizActive:          r.quizActiveLocked(),
		EliminatedOptions:     eliminated,
		EliminationsPerPlayer: r.settings.EliminationsPerPlayer,
		EliminationsUsed:      used,
	}
	if viewer != "" && viewer == r.adminID && r.quizActiveLocked() {
		state.Questions = map[string]domain.Question{viewer: r.questions[r.current]}
	}
	return state
}

func (r *Room) showQuestionLocked(viewer string) Event {
	q := r.questions[r.current]
	payload := ShowQuestion{
		Index:                 r.current,
		Total:                 len(r.questions),
		EliminationsPerPlayer: r.settings.EliminationsPerPlayer,
	}
	if viewer == r.adminID {
		payload.Question = q
		payload.EliminationsUsedByPlayer = make(map[string]int, len(r.used))
		for id, n := range r.used {
			payload.EliminationsUsedByPlayer[id] = n
		}
	} else {
		payload.Question = q.Public()
		payload.EliminationsUsed = r.used[viewer]
		if mask := r.eliminated[viewer]; len(mask) > 0 {
			payload.EliminatedOptions = sortedOptions(mask)
		}
	}
	return Event{Type: EventShowQuestion, Payload: payload}
}

// scoresLocked copies the scoreboard. The current admin is not a competitor and is
// left out; a score it earned as a player is kept for if it steps down.
func (r *Room) scoresLocked() map[string]int {
	out := make(map[string]int, len(r.scores))
	for id, score := range r.scores {
		if id == r.adminID {
			continue
		}
		out[id] = score
	}
	return out
}

// leaderboardLocked orders every scored non-admin participant by score desc, then join order.
func (r *Room) leaderboardLocked() []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(r.scores))
	for _, id := range r.joined {
		score, ok := r.scores[id]
		if !ok || id == r.adminID {
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{
			ConnectionID: id,
			DisplayName:  r.names[id],
			Score:        score,
			Present:      r.isPresentLocked(id),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}

func sortedOptions(mask map[int]struct{}) []int {
	out := make([]int, 0, len(mask))
	for i := range mask {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
