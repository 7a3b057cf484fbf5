package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"cerdas-quiz-service/internal/domain"
)

// LeaderboardRepository is an in-memory implementation of
// app.LeaderboardRepository (useful for tests/demos).
type LeaderboardRepository struct {
	clock func() time.Time

	mu      sync.RWMutex
	nextID  int64
	entries []domain.LeaderboardEntry
}

func NewLeaderboardRepository() *LeaderboardRepository {
	return &LeaderboardRepository{clock: time.Now, nextID: 1}
}

// NewLeaderboardRepositoryWithClock is test-only for deterministic timestamps.
func NewLeaderboardRepositoryWithClock(now func() time.Time) *LeaderboardRepository {
	return &LeaderboardRepository{clock: now, nextID: 1}
}

func (r *LeaderboardRepository) Insert(_ context.Context, entry domain.LeaderboardEntry) (domain.LeaderboardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = r.nextID
	r.nextID++
	entry.SubmittedAt = r.clock()
	r.entries = append(r.entries, entry)
	return entry, nil
}

func (r *LeaderboardRepository) TopByLevel(_ context.Context, level domain.Level, limit int) ([]domain.LeaderboardEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	top := make([]domain.LeaderboardEntry, 0, limit)
	for _, entry := range r.entries {
		if entry.Level == level {
			top = append(top, entry)
		}
	}
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].Score != top[j].Score {
			return top[i].Score > top[j].Score
		}
		return top[i].TimeTakenSeconds < top[j].TimeTakenSeconds
	})
	if len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}
