package postgres

import (
	"context"
	"fmt"

	"cerdas-quiz-service/internal/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionLoader reads the question bank from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

// LoadByLevel returns up to limit questions for a tier, id ascending.
func (l *QuestionLoader) LoadByLevel(ctx context.Context, level domain.Level, limit int) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, question_text, subject, level, option_a, option_b, option_c, option_d, correct_answer, created_at
		FROM questions
		WHERE level = $1
		ORDER BY id ASC
		LIMIT $2`, string(level), limit)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		var lvl, correct string
		if err := rows.Scan(&q.ID, &q.Text, &q.Subject, &lvl, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &correct, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Level = domain.Level(lvl)
		q.CorrectOption = domain.OptionKey(correct)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return questions, nil
}
