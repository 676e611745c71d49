package app

import "quizhub-server/internal/domain"

// Inbound event types.
const (
	EventJoinGame           = "join_game"
	EventStartQuiz          = "start_quiz"
	EventNextQuestion       = "next_question"
	EventSubmitAnswer       = "submit_answer"
	EventEliminateOption    = "eliminate_option"
	EventRestoreOption      = "restore_option"
	EventEliminateOneWrong  = "eliminate_one_wrong"
	EventEliminateTwoWrong  = "eliminate_two_wrong"
	EventRequestElimination = "request_elimination"
	EventAdminExit          = "admin_exit"
	EventRequestState       = "request_state"
)

// Outbound event types.
const (
	EventConnected            = "connected"
	EventGameState            = "game_state"
	EventShowQuestion         = "show_question"
	EventScoreUpdate          = "score_update"
	EventQuizEnded            = "quiz_ended"
	EventOptionEliminated     = "option_eliminated"
	EventOptionRestored       = "option_restored"
	EventAnswerResult         = "answer_result"
	EventAlreadyAnswered      = "already_answered"
	EventQuestionClosed       = "question_closed"
	EventEliminationRequested = "elimination_requested"
	EventEliminationDenied    = "elimination_denied"
	EventPlayerAnswered       = "player_answered"
	EventRoomNotFound         = "room_not_found"
	EventAdminExists          = "admin_exists"
	EventNoQuestionsFound     = "no_questions_found"
	EventNewAdmin             = "new_admin"
	EventUnauthorized         = "unauthorized"
	EventError                = "error"
)

// Event is one outbound frame. Payload is serialized as-is by the transport.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// ConnectedPayload tells a client which connection id the server assigned it.
type ConnectedPayload struct {
	ConnectionID string `json:"connectionId"`
}

// GameState is the full room snapshot.
type GameState struct {
	RoomID                string                     `json:"roomId"`
	State                 State                      `json:"state"`
	Players               map[string]string          `json:"players"`
	PlayerOrder           []string                   `json:"playerOrder"`
	Scores                map[string]int             `json:"scores"`
	Leaderboard           []domain.LeaderboardEntry  `json:"leaderboard"`
	AdminID               string                     `json:"adminId"`
	Questions             map[string]domain.Question `json:"questions,omitempty"`
	CurrentQuestionIndex  int                        `json:"currentQuestionIndex"`
	TotalQuestions        int                        `json:"totalQuestions"`
	IsQuizActive          bool                       `json:"isQuizActive"`
	EliminatedOptions     map[string][]int           `json:"eliminatedOptions"`
	EliminationsPerPlayer int                        `json:"eliminationsPerPlayer"`
	EliminationsUsed      map[string]int             `json:"eliminationsUsed"`
}

// ShowQuestion announces the current question. Question is a domain.Question for the
// admin and a domain.PublicQuestion for everyone else.
type ShowQuestion struct {
	Question                 any            `json:"question"`
	Index                    int            `json:"index"`
	Total                    int            `json:"total"`
	EliminationsUsed         int            `json:"eliminationsUsed"`
	EliminationsPerPlayer    int            `json:"eliminationsPerPlayer"`
	EliminatedOptions        []int          `json:"eliminatedOptions,omitempty"`
	EliminationsUsedByPlayer map[string]int `json:"eliminationsUsedByPlayer,omitempty"`
}

// AnswerResult is sent only to the submitter once their answer is recorded.
type AnswerResult struct {
	Index         int  `json:"index"`
	CorrectAnswer int  `json:"correctAnswer"`
	Correct       bool `json:"correct"`
	Awarded       int  `json:"awarded"`
	TotalScore    int  `json:"totalScore"`
}

type OptionChange struct {
	OptionIndex    int    `json:"optionIndex"`
	TargetPlayerID string `json:"targetPlayerId"`
}

type EliminationRequested struct {
	PlayerID string `json:"playerId"`
	Used     int    `json:"used"`
	Allowed  int    `json:"allowed"`
}

type PlayerAnswered struct {
	PlayerID string `json:"playerId"`
}

type QuestionIndex struct {
	Index int `json:"index"`
}

type NewAdmin struct {
	ConnectionID string `json:"connectionId"`
}

type MessagePayload struct {
	Message string `json:"message"`
}
