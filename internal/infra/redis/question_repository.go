package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"cerdas-quiz-service/internal/domain"
	"cerdas-quiz-service/internal/infra/memory"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionRepository caches per-level question sets in Redis and falls back
// to a source on cache miss. The set is stored as one JSON blob:
// SET quiz:questions:{level} [...questions...]
type QuestionRepository struct {
	client *redis.Client
	source memory.QuestionSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionRepository(client *redis.Client, source memory.QuestionSource, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) QuestionsByLevel(ctx context.Context, level domain.Level) ([]domain.Question, error) {
	key := r.key(level)

	raw, err := r.client.Get(ctx, key).Result()
	if err == nil {
		if questions, ok := decodeQuestions(raw); ok {
			return questions, nil
		}
	}

	result, err, _ := r.sf.Do(string(level), func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		raw, err := r.client.Get(ctx, key).Result()
		if err == nil {
			if questions, ok := decodeQuestions(raw); ok {
				return questions, nil
			}
		}

		questions, err := r.source.LoadByLevel(ctx, level, level.QuestionLimit())
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(questions); err == nil {
			// cache fill is best-effort
			_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) key(level domain.Level) string {
	return "quiz:questions:" + string(level)
}

func decodeQuestions(raw string) ([]domain.Question, bool) {
	var questions []domain.Question
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return nil, false
	}
	if len(questions) == 0 {
		return nil, false
	}
	return questions, true
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
