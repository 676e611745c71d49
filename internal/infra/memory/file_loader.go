package memory

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"quizhub-server/internal/domain"
)

// QuestionFile is the on-disk YAML layout of a question bank.
type QuestionFile struct {
	Questions []domain.Question `yaml:"questions"`
}

// FileQuestionLoader reads the question bank from a YAML file on every load.
type FileQuestionLoader struct {
	path string
}

func NewFileQuestionLoader(path string) *FileQuestionLoader {
	return &FileQuestionLoader{path: path}
}

func (l *FileQuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	return ReadQuestionFile(l.path)
}

// ReadQuestionFile parses a YAML question bank.
func ReadQuestionFile(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question file: %w", err)
	}
	var file QuestionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse question file %s: %w", path, err)
	}
	return file.Questions, nil
}
