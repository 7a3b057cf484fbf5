package app

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"cerdas-quiz-service/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeAdvanceTimer records schedules and fires on demand.
type fakeAdvanceTimer struct {
	mu      sync.Mutex
	delays  []time.Duration
	fn      func()
	stopped int
}

func (t *fakeAdvanceTimer) Schedule(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.delays = append(t.delays, d)
	t.fn = fn
}

func (t *fakeAdvanceTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped++
	t.fn = nil
}

func (t *fakeAdvanceTimer) Fire() {
	t.mu.Lock()
	fn := t.fn
	t.fn = nil
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (t *fakeAdvanceTimer) LastDelay() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.delays) == 0 {
		return 0
	}
	return t.delays[len(t.delays)-1]
}

func (t *fakeAdvanceTimer) Scheduled() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.delays)
}

func makeQuestions(n int, level domain.Level) []domain.Question {
	questions := make([]domain.Question, 0, n)
	for i := 1; i <= n; i++ {
		questions = append(questions, domain.Question{
			ID:            int64(i),
			Text:          fmt.Sprintf("Pertanyaan %d", i),
			Subject:       "Matematika",
			Level:         level,
			OptionA:       "jawaban a",
			OptionB:       "jawaban b",
			OptionC:       "jawaban c",
			OptionD:       "jawaban d",
			CorrectOption: domain.OptionA,
		})
	}
	return questions
}

func testSession(t *testing.T, n int, instantCorrection bool) (*Session, *fakeClock, *fakeAdvanceTimer) {
	t.Helper()
	clock := newFakeClock()
	session := newSession("s1", SessionConfig{
		PlayerName:        "Alice",
		Level:             domain.LevelTest,
		InstantCorrection: instantCorrection,
		Clock:             clock.Now,
	}, makeQuestions(n, domain.LevelTest))
	timer := &fakeAdvanceTimer{}
	session.advance = timer
	return session, clock, timer
}

func TestSessionStartsActive(t *testing.T) {
	session, _, _ := testSession(t, 3, false)
	if session.State() != StateActive {
		t.Fatalf("expected active state, got %s", session.State())
	}
	snap := session.Snapshot()
	if snap.Index != 0 || snap.Total != 3 || snap.Answered != 0 {
		t.Fatalf("unexpected initial snapshot: %+v", snap)
	}
}

func TestEmptyQuestionSetIsUnplayable(t *testing.T) {
	session := newSession("s1", SessionConfig{PlayerName: "Alice", Level: domain.LevelTest}, nil)
	if session.State() != StateEmpty {
		t.Fatalf("expected empty state, got %s", session.State())
	}
	if _, err := session.SelectAnswer(domain.OptionA); err != domain.ErrSessionNotActive {
		t.Fatalf("expected ErrSessionNotActive, got %v", err)
	}
}

func TestSelectAnswerRecordsAndSchedulesAdvance(t *testing.T) {
	session, clock, timer := testSession(t, 3, false)

	clock.Advance(4 * time.Second)
	outcome, err := session.SelectAnswer(domain.OptionA)
	if err != nil {
		t.Fatalf("select answer: %v", err)
	}
	if !outcome.Correct || outcome.QuestionID != 1 || outcome.TimeSpent != 4 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if !outcome.WillAdvance {
		t.Fatalf("expected auto-advance to be armed")
	}
	if timer.LastDelay() != defaultAdvanceDelay {
		t.Fatalf("expected %v delay, got %v", defaultAdvanceDelay, timer.LastDelay())
	}

	var advanced Snapshot
	session.OnAdvance(func(snap Snapshot) { advanced = snap })
	timer.Fire()
	if advanced.Index != 1 {
		t.Fatalf("expected advance to index 1, got %+v", advanced)
	}
	if snap := session.Snapshot(); snap.Index != 1 || snap.Answered != 1 {
		t.Fatalf("unexpected snapshot after advance: %+v", snap)
	}
}

func TestInstantCorrectionLocksFirstAnswer(t *testing.T) {
	session, _, timer := testSession(t, 3, true)

	first, err := session.SelectAnswer(domain.OptionB)
	if err != nil {
		t.Fatalf("select answer: %v", err)
	}
	if first.Correct || first.Locked {
		t.Fatalf("unexpected first outcome: %+v", first)
	}
	if first.CorrectOption != domain.OptionA || first.CorrectText == "" {
		t.Fatalf("expected correction info, got %+v", first)
	}
	if timer.LastDelay() != defaultCorrectionAdvanceDelay {
		t.Fatalf("expected %v delay, got %v", defaultCorrectionAdvanceDelay, timer.LastDelay())
	}

	// A repeat pick is a no-op: the first answer stays recorded.
	second, err := session.SelectAnswer(domain.OptionA)
	if err != nil {
		t.Fatalf("repeat select: %v", err)
	}
	if !second.Locked || second.Selected != domain.OptionB {
		t.Fatalf("expected locked outcome keeping B, got %+v", second)
	}
	answer, ok := session.Answer(1)
	if !ok || answer.Selected != domain.OptionB || answer.Correct {
		t.Fatalf("answer record changed: %+v", answer)
	}
	if timer.Scheduled() != 1 {
		t.Fatalf("locked repeat must not re-arm advance, scheduled=%d", timer.Scheduled())
	}
}

func TestRevisitCanChangeAnswerWithoutInstantCorrection(t *testing.T) {
	session, _, timer := testSession(t, 2, false)

	if _, err := session.SelectAnswer(domain.OptionB); err != nil {
		t.Fatalf("first answer: %v", err)
	}
	timer.Fire()
	if _, err := session.SelectAnswer(domain.OptionA); err != nil {
		t.Fatalf("second question answer: %v", err)
	}

	// All answered now; go back and change the first pick.
	if _, err := session.Navigate(0); err != nil {
		t.Fatalf("navigate back: %v", err)
	}
	outcome, err := session.SelectAnswer(domain.OptionA)
	if err != nil {
		t.Fatalf("re-answer: %v", err)
	}
	if !outcome.Correct || outcome.WillAdvance {
		t.Fatalf("unexpected re-answer outcome: %+v", outcome)
	}
	answer, _ := session.Answer(1)
	if answer.Selected != domain.OptionA || !answer.Correct {
		t.Fatalf("expected replaced answer, got %+v", answer)
	}
}

func TestLastAnswerDoesNotAutoAdvance(t *testing.T) {
	session, _, timer := testSession(t, 2, false)

	if _, err := session.SelectAnswer(domain.OptionA); err != nil {
		t.Fatalf("answer 1: %v", err)
	}
	timer.Fire()
	outcome, err := session.SelectAnswer(domain.OptionA)
	if err != nil {
		t.Fatalf("answer 2: %v", err)
	}
	if !outcome.AllAnswered || outcome.WillAdvance {
		t.Fatalf("expected finish affordance, got %+v", outcome)
	}
	if timer.Scheduled() != 1 {
		t.Fatalf("expected no advance armed for last answer, scheduled=%d", timer.Scheduled())
	}
}

func TestNavigateCancelsPendingAdvance(t *testing.T) {
	session, _, timer := testSession(t, 3, false)

	if _, err := session.SelectAnswer(domain.OptionA); err != nil {
		t.Fatalf("answer: %v", err)
	}
	snap, err := session.Navigate(2)
	if err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if snap.Index != 2 {
		t.Fatalf("expected index 2, got %d", snap.Index)
	}
	if timer.stopped == 0 {
		t.Fatalf("expected pending advance to be stopped")
	}
	if _, err := session.Navigate(5); err != domain.ErrIndexOutOfRange {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestFinishRequiresAllAnswered(t *testing.T) {
	session, _, _ := testSession(t, 3, false)
	if _, err := session.SelectAnswer(domain.OptionA); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if _, err := session.BeginFinish(); err != domain.ErrQuizIncomplete {
		t.Fatalf("expected ErrQuizIncomplete, got %v", err)
	}
	if session.State() != StateActive {
		t.Fatalf("rejected finish must not change state, got %s", session.State())
	}
}

func TestFinishBuildsOrderedResult(t *testing.T) {
	session, clock, timer := testSession(t, 10, false)

	// 7 right, 3 wrong, 6 seconds each.
	for i := 0; i < 10; i++ {
		clock.Advance(6 * time.Second)
		pick := domain.OptionA
		if i >= 7 {
			pick = domain.OptionC
		}
		if _, err := session.SelectAnswer(pick); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		timer.Fire()
	}

	result, err := session.BeginFinish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if result.Score != 7 || result.TotalQuestions != 10 {
		t.Fatalf("expected 7/10, got %d/%d", result.Score, result.TotalQuestions)
	}
	if result.TimeElapsed != 60 {
		t.Fatalf("expected 60s elapsed, got %d", result.TimeElapsed)
	}
	if len(result.Answers) != 10 {
		t.Fatalf("expected 10 detailed answers, got %d", len(result.Answers))
	}
	for i, answer := range result.Answers {
		if answer.QuestionID != int64(i+1) {
			t.Fatalf("answers out of question order: %+v", answer)
		}
		if answer.OptionA == "" || answer.CorrectText != "jawaban a" {
			t.Fatalf("missing option texts: %+v", answer)
		}
		if answer.TimeSpent != 6 {
			t.Fatalf("expected 6s on question %d, got %d", i+1, answer.TimeSpent)
		}
	}
	if got := domain.ScoreMessage(result.Score, result.TotalQuestions); got != "Baik! 👍" {
		t.Fatalf("expected Baik label for 70%%, got %q", got)
	}

	if session.State() != StateSubmitting {
		t.Fatalf("expected submitting, got %s", session.State())
	}
	session.CompleteFinish()
	if session.State() != StateDone {
		t.Fatalf("expected done, got %s", session.State())
	}

	// The session is terminal: answers and a second finish are rejected.
	if _, err := session.SelectAnswer(domain.OptionA); err != domain.ErrSessionNotActive {
		t.Fatalf("expected ErrSessionNotActive, got %v", err)
	}
	if _, err := session.BeginFinish(); err != domain.ErrSessionNotActive {
		t.Fatalf("expected ErrSessionNotActive on second finish, got %v", err)
	}
}

func TestVisibilityPausesElapsedTime(t *testing.T) {
	session, clock, _ := testSession(t, 2, false)

	clock.Advance(10 * time.Second)
	session.SetVisible(false)
	clock.Advance(30 * time.Second) // hidden tab: not attended
	session.SetVisible(true)
	clock.Advance(5 * time.Second)

	if got := session.Elapsed(); got != 15 {
		t.Fatalf("expected 15s attended, got %d", got)
	}

	// The question clock pauses too.
	outcome, err := session.SelectAnswer(domain.OptionA)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if outcome.TimeSpent != 15 {
		t.Fatalf("expected 15s on question, got %d", outcome.TimeSpent)
	}
}
