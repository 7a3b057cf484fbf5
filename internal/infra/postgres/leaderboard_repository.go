package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"cerdas-quiz-service/internal/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// LeaderboardRepository persists result rows and serves the top-N query.
type LeaderboardRepository struct {
	pool *pgxpool.Pool
}

func NewLeaderboardRepository(pool *pgxpool.Pool) *LeaderboardRepository {
	return &LeaderboardRepository{pool: pool}
}

func (r *LeaderboardRepository) Insert(ctx context.Context, entry domain.LeaderboardEntry) (domain.LeaderboardEntry, error) {
	detail, err := json.Marshal(entry.AnswersDetail)
	if err != nil {
		return domain.LeaderboardEntry{}, fmt.Errorf("marshal answers detail: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO leaderboard (player_name, level, score, time_taken_seconds, answers_detail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, submitted_at`,
		entry.PlayerName, string(entry.Level), entry.Score, entry.TimeTakenSeconds, detail,
	).Scan(&entry.ID, &entry.SubmittedAt)
	if err != nil {
		return domain.LeaderboardEntry{}, fmt.Errorf("insert leaderboard entry: %w", err)
	}
	return entry, nil
}

func (r *LeaderboardRepository) TopByLevel(ctx context.Context, level domain.Level, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, player_name, level, score, time_taken_seconds, submitted_at, answers_detail
		FROM leaderboard
		WHERE level = $1
		ORDER BY score DESC, time_taken_seconds ASC
		LIMIT $2`, string(level), limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var entry domain.LeaderboardEntry
		var lvl string
		var detail []byte
		if err := rows.Scan(&entry.ID, &entry.PlayerName, &lvl, &entry.Score, &entry.TimeTakenSeconds, &entry.SubmittedAt, &detail); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entry.Level = domain.Level(lvl)
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &entry.AnswersDetail); err != nil {
				return nil, fmt.Errorf("unmarshal answers detail: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	return entries, nil
}
