package domain

import "fmt"

// QuestionType selects how a question's media is rendered.
type QuestionType string

const (
	QuestionText  QuestionType = "text"
	QuestionImage QuestionType = "image"
	QuestionAudio QuestionType = "audio"
	QuestionVideo QuestionType = "video"
)

// Question is a multiple choice question as stored in the question bank.
type Question struct {
	ID            string       `json:"id,omitempty" yaml:"id"`
	Type          QuestionType `json:"type" yaml:"type"`
	Prompt        string       `json:"question" yaml:"question"`
	Options       []string     `json:"options" yaml:"options"`
	CorrectAnswer int          `json:"correctAnswer" yaml:"correctAnswer"`
	MediaURL      string       `json:"mediaUrl,omitempty" yaml:"mediaUrl"`
}

// PublicQuestion is the player-facing view of a question; it never carries the answer.
type PublicQuestion struct {
	ID       string       `json:"id,omitempty"`
	Type     QuestionType `json:"type"`
	Prompt   string       `json:"question"`
	Options  []string     `json:"options"`
	MediaURL string       `json:"mediaUrl,omitempty"`
}

// Public strips the correct answer.
func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:       q.ID,
		Type:     q.Type,
		Prompt:   q.Prompt,
		Options:  append([]string(nil), q.Options...),
		MediaURL: q.MediaURL,
	}
}

// Validate checks the structural rules every question in a room must satisfy.
func (q Question) Validate() error {
	switch q.Type {
	case QuestionText:
		if q.MediaURL != "" {
			return fmt.Errorf("%w: text question with media url", ErrInvalidQuestion)
		}
	case QuestionImage, QuestionAudio, QuestionVideo:
		if q.MediaURL == "" {
			return fmt.Errorf("%w: %s question without media url", ErrInvalidQuestion, q.Type)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidQuestion, q.Type)
	}
	if q.Prompt == "" {
		return fmt.Errorf("%w: empty prompt", ErrInvalidQuestion)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: need at least 2 options, got %d", ErrInvalidQuestion, len(q.Options))
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return fmt.Errorf("%w: correct answer %d out of range", ErrInvalidQuestion, q.CorrectAnswer)
	}
	return nil
}

// ValidQuestions returns the questions that pass Validate, plus the rejected ones' errors.
func ValidQuestions(questions []Question) ([]Question, []error) {
	valid := make([]Question, 0, len(questions))
	var errs []error
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("question %d (%s): %w", i, q.ID, err))
			continue
		}
		valid = append(valid, q)
	}
	return valid, errs
}

// LeaderboardEntry is a snapshot-friendly view of a participant's score.
type LeaderboardEntry struct {
	ConnectionID string `json:"connectionId"`
	DisplayName  string `json:"displayName"`
	Score        int    `json:"score"`
	Present      bool   `json:"present"`
}
