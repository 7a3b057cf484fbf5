package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"cerdas-quiz-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// HandoffStore keeps the finished result payload and the "saved" marker in
// Redis, mirroring the web client's localStorage keys (quizResults,
// resultsSaved). Keys expire so abandoned results don't pile up:
//
//	SET quiz:handoff:{key}:result {json}
//	SET quiz:handoff:{key}:saved  true
type HandoffStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewHandoffStore(client *redis.Client, ttl time.Duration) *HandoffStore {
	return &HandoffStore{client: client, ttl: ttl}
}

func (s *HandoffStore) SaveResult(ctx context.Context, key string, result domain.QuizResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.resultKey(key), data, s.ttl).Err()
}

func (s *HandoffStore) Result(ctx context.Context, key string) (domain.QuizResult, error) {
	raw, err := s.client.Get(ctx, s.resultKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.QuizResult{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.QuizResult{}, err
	}
	var result domain.QuizResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return domain.QuizResult{}, err
	}
	return result, nil
}

func (s *HandoffStore) MarkSaved(ctx context.Context, key string) error {
	return s.client.Set(ctx, s.savedKey(key), "true", s.ttl).Err()
}

func (s *HandoffStore) Saved(ctx context.Context, key string) (bool, error) {
	raw, err := s.client.Get(ctx, s.savedKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return raw == "true", nil
}

func (s *HandoffStore) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.resultKey(key), s.savedKey(key)).Err()
}

func (s *HandoffStore) resultKey(key string) string {
	return "quiz:handoff:" + key + ":result"
}

func (s *HandoffStore) savedKey(key string) string {
	return "quiz:handoff:" + key + ":saved"
}
