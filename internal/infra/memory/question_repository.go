package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"cerdas-quiz-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// QuestionSource fetches the question bank for a tier from a backing store
// (Postgres in production). Implementations apply the tier's count limit and
// id-ascending order.
type QuestionSource interface {
	LoadByLevel(ctx context.Context, level domain.Level, limit int) ([]domain.Question, error)
}

// QuestionRepository caches per-level question sets with TTL to avoid
// repeated store hits while players start sessions back to back.
type QuestionRepository struct {
	source QuestionSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[domain.Level]cachedQuestions
}

type cachedQuestions struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(source QuestionSource, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[domain.Level]cachedQuestions),
	}
}

func (r *QuestionRepository) QuestionsByLevel(ctx context.Context, level domain.Level) ([]domain.Question, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[level]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.questions, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(string(level), func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[level]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.questions, nil
		}
		r.mu.RUnlock()

		questions, err := r.source.LoadByLevel(ctx, level, level.QuestionLimit())
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[level] = cachedQuestions{
			questions: questions,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuestionSource is a simple source backed by an in-memory bank
// (useful for tests/demos).
type StaticQuestionSource struct {
	bank map[domain.Level][]domain.Question
}

func NewStaticQuestionSource(bank map[domain.Level][]domain.Question) *StaticQuestionSource {
	return &StaticQuestionSource{bank: bank}
}

func (s *StaticQuestionSource) LoadByLevel(_ context.Context, level domain.Level, limit int) ([]domain.Question, error) {
	questions := s.bank[level]
	if len(questions) > limit {
		questions = questions[:limit]
	}
	return questions, nil
}
