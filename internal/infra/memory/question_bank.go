package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quizhub-server/internal/domain"
)

// QuestionLoader fetches the whole question bank from a backing store.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

const bankKey = "bank"

// QuestionBank caches the global question bank with a TTL to avoid a database
// round trip on every quiz start. Every room receives the same list.
type QuestionBank struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu        sync.RWMutex
	rnd       *rand.Rand
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionBank(loader QuestionLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *QuestionBank) FetchQuestionsForRoom(ctx context.Context, _ string) ([]domain.Question, error) {
	if qs, ok := b.cached(b.clock()); ok {
		return qs, nil
	}

	result, err, _ := b.sf.Do(bankKey, func() (interface{}, error) {
		now := b.clock()
		if qs, ok := b.cached(now); ok {
			return qs, nil
		}

		questions, err := b.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}
		if len(questions) == 0 {
			// Not cached, so questions added to an empty bank show up on the next start.
			return nil, domain.ErrNoQuestionsFound
		}

		b.mu.Lock()
		b.questions = questions
		b.expiresAt = now.Add(b.ttlWithJitterLocked())
		b.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.Question(nil), result.([]domain.Question)...), nil
}

// Invalidate drops the cached bank.
func (b *QuestionBank) Invalidate() {
	b.mu.Lock()
	b.questions = nil
	b.expiresAt = time.Time{}
	b.mu.Unlock()
}

func (b *QuestionBank) cached(now time.Time) ([]domain.Question, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.questions != nil && b.expiresAt.After(now) {
		return b.questions, true
	}
	return nil, false
}

func (b *QuestionBank) ttlWithJitterLocked() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}

// StaticQuestionLoader is a loader backed by a fixed list (useful for tests/demos).
type StaticQuestionLoader struct {
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	return append([]domain.Question(nil), l.questions...), nil
}
