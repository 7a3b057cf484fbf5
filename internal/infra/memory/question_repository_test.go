package memory

import (
	"context"
	"testing"
	"time"

	"cerdas-quiz-service/internal/domain"
)

func TestQuestionRepositoryCachesPerLevel(t *testing.T) {
	source := &countingSource{QuestionSource: NewStaticQuestionSource(sampleBank())}
	repo := NewQuestionRepository(source, time.Minute)

	questions, err := repo.QuestionsByLevel(context.Background(), domain.LevelTest)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if source.calls != 1 {
		t.Fatalf("expected source called once, got %d", source.calls)
	}

	// Second call should hit cache, source not incremented.
	_, _ = repo.QuestionsByLevel(context.Background(), domain.LevelTest)
	if source.calls != 1 {
		t.Fatalf("expected cache hit, source calls=%d", source.calls)
	}

	// A different level is its own cache entry.
	_, _ = repo.QuestionsByLevel(context.Background(), domain.LevelSulit)
	if source.calls != 2 {
		t.Fatalf("expected separate load per level, got %d", source.calls)
	}
}

func TestStaticSourceAppliesLimit(t *testing.T) {
	bank := map[domain.Level][]domain.Question{}
	for i := 1; i <= 15; i++ {
		bank[domain.LevelTest] = append(bank[domain.LevelTest], domain.Question{ID: int64(i), Level: domain.LevelTest})
	}
	source := NewStaticQuestionSource(bank)

	questions, err := source.LoadByLevel(context.Background(), domain.LevelTest, domain.LevelTest.QuestionLimit())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 10 {
		t.Fatalf("expected limit of 10, got %d", len(questions))
	}
}

type countingSource struct {
	QuestionSource
	calls int
}

func (s *countingSource) LoadByLevel(ctx context.Context, level domain.Level, limit int) ([]domain.Question, error) {
	s.calls++
	return s.QuestionSource.LoadByLevel(ctx, level, limit)
}

func sampleBank() map[domain.Level][]domain.Question {
	return map[domain.Level][]domain.Question{
		domain.LevelTest: {
			{ID: 1, Text: "Berapa 2 + 2?", Level: domain.LevelTest, OptionA: "3", OptionB: "4", CorrectOption: domain.OptionB},
			{ID: 2, Text: "Ibu kota Indonesia?", Level: domain.LevelTest, OptionA: "Jakarta", OptionB: "Bandung", CorrectOption: domain.OptionA},
		},
		domain.LevelSulit: {
			{ID: 3, Text: "Soal sulit", Level: domain.LevelSulit, OptionA: "a", OptionB: "b", CorrectOption: domain.OptionA},
		},
	}
}
