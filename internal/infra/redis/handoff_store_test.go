package redis

import (
	"context"
	"testing"
	"time"

	"cerdas-quiz-service/internal/domain"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHandoffStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewHandoffStore(newClient(mr), time.Minute)

	if _, err := store.Result(ctx, "missing"); err != domain.ErrResultNotFound {
		t.Fatalf("expected ErrResultNotFound, got %v", err)
	}

	result := domain.QuizResult{
		PlayerName:     "Alice",
		Level:          domain.LevelSedang,
		Score:          20,
		TotalQuestions: 25,
		TimeElapsed:    480,
		Answers: []domain.DetailedPlayerAnswer{
			{QuestionID: 7, Selected: domain.OptionC, SelectedText: "tiga", Correct: false, CorrectOption: domain.OptionB},
		},
	}
	if err := store.SaveResult(ctx, "s1", result); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("quiz:handoff:s1:result") {
		t.Fatalf("expected result key in redis")
	}

	readBack, err := store.Result(ctx, "s1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if readBack.Score != 20 || readBack.Level != domain.LevelSedang || readBack.Answers[0].CorrectOption != domain.OptionB {
		t.Fatalf("round-trip mismatch: %+v", readBack)
	}

	if saved, _ := store.Saved(ctx, "s1"); saved {
		t.Fatalf("expected unsaved before mark")
	}
	if err := store.MarkSaved(ctx, "s1"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if saved, _ := store.Saved(ctx, "s1"); !saved {
		t.Fatalf("expected saved after mark")
	}

	if err := store.Clear(ctx, "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if mr.Exists("quiz:handoff:s1:result") || mr.Exists("quiz:handoff:s1:saved") {
		t.Fatalf("expected keys removed")
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
