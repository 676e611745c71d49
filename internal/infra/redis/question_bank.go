package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizhub-server/internal/domain"
)

// QuestionLoader fetches the question bank from a backing store (e.g., Postgres).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

const bankKey = "quizhub:questions"

// QuestionBank caches the serialized question bank in Redis and falls back to a
// loader on cache miss. The whole bank is stored as one JSON value:
//
//	SET quizhub:questions [{"type":"text","question":...}, ...] EX ttl
type QuestionBank struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionBank(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *QuestionBank) FetchQuestionsForRoom(ctx context.Context, _ string) ([]domain.Question, error) {
	if qs, ok := b.cached(ctx); ok {
		return qs, nil
	}

	result, err, _ := b.sf.Do(bankKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if qs, ok := b.cached(ctx); ok {
			return qs, nil
		}

		questions, err := b.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}
		if len(questions) == 0 {
			return nil, domain.ErrNoQuestionsFound
		}

		raw, err := json.Marshal(questions)
		if err != nil {
			return nil, fmt.Errorf("encode question bank: %w", err)
		}
		if err := b.client.Set(ctx, bankKey, raw, b.ttlWithJitter()).Err(); err != nil {
			// Serve the loaded bank even if the cache write fails.
			log.Printf("cache question bank: %v", err)
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate removes the cached bank so the next start reloads it.
func (b *QuestionBank) Invalidate(ctx context.Context) error {
	return b.client.Del(ctx, bankKey).Err()
}

func (b *QuestionBank) cached(ctx context.Context) ([]domain.Question, bool) {
	raw, err := b.client.Get(ctx, bankKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("read cached question bank: %v", err)
		}
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil || len(questions) == 0 {
		return nil, false
	}
	return questions, true
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}
