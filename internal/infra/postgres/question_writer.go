package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"quizhub-server/internal/domain"
)

// QuestionRow is the bun model of the questions table.
type QuestionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID            int64     `bun:"id,pk,autoincrement"`
	Type          string    `bun:"type,notnull"`
	Question      string    `bun:"question,notnull"`
	Options       []string  `bun:"options,type:jsonb,notnull"`
	CorrectAnswer int       `bun:"correct_answer,notnull"`
	MediaURL      string    `bun:"media_url,nullzero"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// InsertQuestions validates and bulk-inserts questions, returning how many were written.
func InsertQuestions(ctx context.Context, db bun.IDB, questions []domain.Question) (int, error) {
	rows := make([]QuestionRow, 0, len(questions))
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return 0, fmt.Errorf("question %d: %w", i, err)
		}
		rows = append(rows, QuestionRow{
			Type:          string(q.Type),
			Question:      q.Prompt,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			MediaURL:      q.MediaURL,
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if _, err := db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return 0, fmt.Errorf("insert questions: %w", err)
	}
	return len(rows), nil
}
