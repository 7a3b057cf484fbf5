package app

import (
	"log"
	"sync"
	"time"

	"cerdas-quiz-service/internal/domain"
)

// SessionState is the lifecycle phase of a quiz session.
type SessionState string

const (
	// StateLoading is the initial phase before questions arrive.
	StateLoading SessionState = "loading"
	// StateEmpty is the unplayable terminal phase: the load returned no
	// questions (or failed). Not retried automatically.
	StateEmpty SessionState = "empty"
	// StateActive means the player is answering questions.
	StateActive SessionState = "active"
	// StateSubmitting means the result is being persisted.
	StateSubmitting SessionState = "submitting"
	// StateDone is the terminal phase after finish, regardless of whether
	// the leaderboard insert succeeded.
	StateDone SessionState = "done"
)

// SessionConfig carries everything a session needs at construction.
// The hand-off flags of the web client (stored name, correction toggle)
// arrive here explicitly instead of through ambient key-value lookups.
type SessionConfig struct {
	PlayerName        string
	Level             domain.Level
	InstantCorrection bool

	// AdvanceDelay is the auto-advance delay after an answer; the longer
	// CorrectionAdvanceDelay applies with instant correction on, so the
	// correctness indicator stays visible before moving on.
	AdvanceDelay           time.Duration
	CorrectionAdvanceDelay time.Duration

	// Clock is test-only; defaults to time.Now.
	Clock func() time.Time
}

const (
	defaultAdvanceDelay           = 500 * time.Millisecond
	defaultCorrectionAdvanceDelay = 1500 * time.Millisecond
)

func (c *SessionConfig) applyDefaults() {
	if c.AdvanceDelay <= 0 {
		c.AdvanceDelay = defaultAdvanceDelay
	}
	if c.CorrectionAdvanceDelay <= 0 {
		c.CorrectionAdvanceDelay = defaultCorrectionAdvanceDelay
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
}

// advanceTimer schedules the delayed auto-advance after an answer. It is an
// explicit, cancellable alarm rather than a fire-and-forget callback, so
// navigation can stop a pending advance.
type advanceTimer interface {
	Schedule(d time.Duration, fn func())
	Stop()
}

type realAdvanceTimer struct {
	mu sync.Mutex
	t  *time.Timer
}

func (a *realAdvanceTimer) Schedule(d time.Duration, fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.t != nil {
		a.t.Stop()
	}
	a.t = time.AfterFunc(d, fn)
}

func (a *realAdvanceTimer) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.t != nil {
		a.t.Stop()
		a.t = nil
	}
}

// Session is the in-memory quiz run for a single player. It owns the loaded
// question list, the current question pointer, the recorded answers, the
// per-question and global attended-time clocks, and the auto-advance alarm.
// A session is owned by one connection; the mutex covers timer callbacks.
type Session struct {
	id  string
	cfg SessionConfig
	now func() time.Time

	mu                 sync.Mutex
	state              SessionState
	questions          []domain.Question
	index              int
	answers            map[int64]domain.PlayerAnswer
	timeSpent          map[int64]int
	previouslyAnswered map[int64]bool

	// Attended-time accounting: elapsedAcc and questionAcc hold time already
	// banked; segmentStart marks the running visible segment. Hidden
	// intervals are excluded from both clocks.
	visible      bool
	segmentStart time.Time
	elapsedAcc   time.Duration
	questionAcc  time.Duration

	advance   advanceTimer
	onAdvance func(Snapshot)
}

// newSession builds a session over an already-loaded question list. An empty
// list yields the unplayable Empty state.
func newSession(id string, cfg SessionConfig, questions []domain.Question) *Session {
	cfg.applyDefaults()
	s := &Session{
		id:                 id,
		cfg:                cfg,
		now:                cfg.Clock,
		questions:          questions,
		answers:            make(map[int64]domain.PlayerAnswer),
		timeSpent:          make(map[int64]int),
		previouslyAnswered: make(map[int64]bool),
		advance:            &realAdvanceTimer{},
	}
	if len(questions) == 0 {
		s.state = StateEmpty
		return s
	}
	s.state = StateActive
	s.visible = true
	s.segmentStart = s.now()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Config returns the session configuration.
func (s *Session) Config() SessionConfig { return s.cfg }

// Questions returns the loaded question list.
func (s *Session) Questions() []domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questions
}

// State returns the current lifecycle phase.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnAdvance registers the listener notified when the auto-advance alarm
// moves the session to the next question.
func (s *Session) OnAdvance(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAdvance = fn
}

// Snapshot is a point-in-time view of the session for transports.
type Snapshot struct {
	ID                string                        `json:"sessionId"`
	State             SessionState                  `json:"state"`
	Level             domain.Level                  `json:"level"`
	PlayerName        string                        `json:"playerName"`
	InstantCorrection bool                          `json:"instantCorrection"`
	Index             int                           `json:"index"`
	Total             int                           `json:"total"`
	Answered          int                           `json:"answered"`
	Elapsed           int                           `json:"elapsed"`
	AllAnswered       bool                          `json:"allAnswered"`
	CurrentQuestionID int64                         `json:"currentQuestionId,omitempty"`
	RecordedAnswers   map[int64]domain.PlayerAnswer `json:"-"`
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:                s.id,
		State:             s.state,
		Level:             s.cfg.Level,
		PlayerName:        s.cfg.PlayerName,
		InstantCorrection: s.cfg.InstantCorrection,
		Index:             s.index,
		Total:             len(s.questions),
		Answered:          len(s.answers),
		Elapsed:           s.elapsedLocked(),
		AllAnswered:       len(s.answers) == len(s.questions) && len(s.questions) > 0,
	}
	if s.index >= 0 && s.index < len(s.questions) {
		snap.CurrentQuestionID = s.questions[s.index].ID
	}
	answers := make(map[int64]domain.PlayerAnswer, len(s.answers))
	for id, a := range s.answers {
		answers[id] = a
	}
	snap.RecordedAnswers = answers
	return snap
}

// CurrentQuestion returns the question under the pointer.
func (s *Session) CurrentQuestion() (domain.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index < 0 || s.index >= len(s.questions) {
		return domain.Question{}, false
	}
	return s.questions[s.index], true
}

// Answer returns the recorded answer for a question, if any.
func (s *Session) Answer(questionID int64) (domain.PlayerAnswer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[questionID]
	return a, ok
}

// Elapsed returns attended seconds since the session started.
func (s *Session) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedLocked()
}

func (s *Session) elapsedLocked() int {
	total := s.elapsedAcc
	if s.ticking() {
		total += s.now().Sub(s.segmentStart)
	}
	return int(total / time.Second)
}

func (s *Session) ticking() bool {
	return s.visible && (s.state == StateActive)
}

// bankSegment folds the running visible segment into both accumulators and
// restarts it. No-op while hidden or out of Active.
func (s *Session) bankSegment() {
	if !s.ticking() {
		return
	}
	now := s.now()
	d := now.Sub(s.segmentStart)
	s.elapsedAcc += d
	s.questionAcc += d
	s.segmentStart = now
}

// SetVisible pauses or resumes both clocks. The web client reports tab
// visibility over the session channel so elapsed time only counts attended
// time.
func (s *Session) SetVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive || visible == s.visible {
		return
	}
	if visible {
		s.visible = true
		s.segmentStart = s.now()
		return
	}
	s.bankSegment()
	s.visible = false
}

// AnswerOutcome summarizes one SelectAnswer call for the transport.
type AnswerOutcome struct {
	QuestionID    int64
	Selected      domain.OptionKey
	Correct       bool
	CorrectOption domain.OptionKey
	CorrectText   string
	TimeSpent     int
	AllAnswered   bool
	WillAdvance   bool
	Locked        bool
}

// SelectAnswer records the player's pick for the current question.
// With instant correction on, a question locks after its first answer and a
// repeat call is a no-op (Locked outcome, state unchanged). Otherwise the
// pick replaces any previous answer. When unanswered questions remain and
// the advance rule allows it, a cancellable auto-advance alarm is armed.
func (s *Session) SelectAnswer(option domain.OptionKey) (AnswerOutcome, error) {
	if !option.Valid() {
		return AnswerOutcome{}, domain.ErrInvalidOption
	}

	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return AnswerOutcome{}, domain.ErrSessionNotActive
	}
	q := s.questions[s.index]

	if s.cfg.InstantCorrection {
		if prev, ok := s.answers[q.ID]; ok {
			out := AnswerOutcome{
				QuestionID:    q.ID,
				Selected:      prev.Selected,
				Correct:       prev.Correct,
				CorrectOption: q.CorrectOption,
				CorrectText:   q.CorrectText(),
				TimeSpent:     prev.TimeSpent,
				AllAnswered:   len(s.answers) == len(s.questions),
				Locked:        true,
			}
			s.mu.Unlock()
			return out, nil
		}
	}

	s.bankSegment()
	spent := int(s.questionAcc / time.Second)
	s.questionAcc = 0

	firstTime := !s.previouslyAnswered[q.ID]
	correct := q.CorrectOption == option
	s.answers[q.ID] = domain.PlayerAnswer{
		QuestionID:    q.ID,
		Selected:      option,
		Correct:       correct,
		TimeSpent:     spent,
		QuestionText:  q.Text,
		CorrectOption: q.CorrectOption,
	}
	// Answering resets the question clock, so a later revisit adds on top.
	s.timeSpent[q.ID] = spent
	s.previouslyAnswered[q.ID] = true

	allAnswered := len(s.answers) == len(s.questions)
	willAdvance := !allAnswered && (!s.cfg.InstantCorrection || firstTime)
	out := AnswerOutcome{
		QuestionID:    q.ID,
		Selected:      option,
		Correct:       correct,
		CorrectOption: q.CorrectOption,
		CorrectText:   q.CorrectText(),
		TimeSpent:     spent,
		AllAnswered:   allAnswered,
		WillAdvance:   willAdvance,
	}
	s.mu.Unlock()

	if willAdvance {
		delay := s.cfg.AdvanceDelay
		if s.cfg.InstantCorrection {
			delay = s.cfg.CorrectionAdvanceDelay
		}
		s.advance.Schedule(delay, s.autoAdvance)
	}
	return out, nil
}

// autoAdvance is the alarm callback: move to the next question unless the
// player finished (or navigated) in the meantime.
func (s *Session) autoAdvance() {
	s.mu.Lock()
	if s.state != StateActive || len(s.answers) == len(s.questions) || s.index >= len(s.questions)-1 {
		s.mu.Unlock()
		return
	}
	s.moveToLocked(s.index + 1)
	snap := s.snapshotLocked()
	fn := s.onAdvance
	s.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}

// Navigate jumps to an arbitrary question index. Free navigation is always
// permitted while active; moving away flushes the outgoing question's time
// and cancels any pending auto-advance.
func (s *Session) Navigate(index int) (Snapshot, error) {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return Snapshot{}, domain.ErrSessionNotActive
	}
	if index < 0 || index >= len(s.questions) {
		s.mu.Unlock()
		return Snapshot{}, domain.ErrIndexOutOfRange
	}
	s.moveToLocked(index)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.advance.Stop()
	return snap, nil
}

// Next moves forward one question if possible.
func (s *Session) Next() (Snapshot, error) {
	s.mu.Lock()
	index := s.index + 1
	s.mu.Unlock()
	return s.Navigate(index)
}

// Prev moves back one question if possible.
func (s *Session) Prev() (Snapshot, error) {
	s.mu.Lock()
	index := s.index - 1
	s.mu.Unlock()
	return s.Navigate(index)
}

func (s *Session) moveToLocked(index int) {
	s.flushQuestionTimeLocked()
	s.index = index
}

// flushQuestionTimeLocked accumulates the outgoing question's attended time
// into the per-question map and resets the question clock.
func (s *Session) flushQuestionTimeLocked() {
	s.bankSegment()
	if s.index >= 0 && s.index < len(s.questions) {
		q := s.questions[s.index]
		s.timeSpent[q.ID] += int(s.questionAcc / time.Second)
	}
	s.questionAcc = 0
}

// BeginFinish validates completeness, stops the clocks, and builds the
// result payload. The caller persists it and then calls CompleteFinish;
// the session sits in Submitting in between so a duplicate finish is
// rejected.
func (s *Session) BeginFinish() (domain.QuizResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return domain.QuizResult{}, domain.ErrSessionNotActive
	}
	if len(s.answers) != len(s.questions) {
		return domain.QuizResult{}, domain.ErrQuizIncomplete
	}

	s.flushQuestionTimeLocked()
	finalElapsed := s.elapsedLocked()
	s.state = StateSubmitting

	detailed := make([]domain.DetailedPlayerAnswer, 0, len(s.questions))
	score := 0
	for _, q := range s.questions {
		answer, ok := s.answers[q.ID]
		if !ok {
			// Unreachable given the completeness check above; the old client
			// fabricated an "A" pick here, which we keep but log loudly so a
			// broken invariant cannot hide.
			log.Printf("quiz session %s: question %d unanswered at finish, defaulting to A", s.id, q.ID)
			answer = domain.PlayerAnswer{QuestionID: q.ID, Selected: domain.OptionA}
		}
		if answer.Correct {
			score++
		}
		selectedText := ""
		if ok {
			selectedText = q.OptionText(answer.Selected)
		}
		detailed = append(detailed, domain.DetailedPlayerAnswer{
			QuestionID:    q.ID,
			QuestionText:  q.Text,
			Selected:      answer.Selected,
			SelectedText:  selectedText,
			CorrectOption: q.CorrectOption,
			CorrectText:   q.CorrectText(),
			Correct:       answer.Correct,
			TimeSpent:     s.timeSpent[q.ID],
			OptionA:       q.OptionA,
			OptionB:       q.OptionB,
			OptionC:       q.OptionC,
			OptionD:       q.OptionD,
		})
	}

	return domain.QuizResult{
		PlayerName:        s.cfg.PlayerName,
		Level:             s.cfg.Level,
		Score:             score,
		TotalQuestions:    len(s.questions),
		TimeElapsed:       finalElapsed,
		Answers:           detailed,
		InstantCorrection: s.cfg.InstantCorrection,
		CompletedAt:       s.now(),
	}, nil
}

// CompleteFinish moves the session to its terminal state. It is called after
// the persistence attempt regardless of its outcome; a remote failure never
// blocks completion.
func (s *Session) CompleteFinish() {
	s.mu.Lock()
	if s.state == StateSubmitting {
		s.state = StateDone
	}
	s.visible = false
	s.mu.Unlock()
	s.advance.Stop()
}
