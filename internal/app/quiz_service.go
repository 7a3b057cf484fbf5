package app

import (
	"context"
	"log"
	"strings"
	"time"

	"cerdas-quiz-service/internal/domain"

	"github.com/google/uuid"
)

// SessionRepository abstracts how live sessions are tracked (in-memory, Redis-marked, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
}

// QuestionRepository serves the level-filtered, id-ordered, count-limited
// question set (from cache/backing store).
type QuestionRepository interface {
	QuestionsByLevel(ctx context.Context, level domain.Level) ([]domain.Question, error)
}

// LeaderboardRepository is the shared leaderboard: insert-one and
// query-sorted-top-N.
type LeaderboardRepository interface {
	Insert(ctx context.Context, entry domain.LeaderboardEntry) (domain.LeaderboardEntry, error)
	TopByLevel(ctx context.Context, level domain.Level, limit int) ([]domain.LeaderboardEntry, error)
}

// HandoffStore carries the finished result payload and the "saved" marker
// between the quiz screen and the results screen. It replaces the web
// client's localStorage keys.
type HandoffStore interface {
	SaveResult(ctx context.Context, key string, result domain.QuizResult) error
	Result(ctx context.Context, key string) (domain.QuizResult, error)
	MarkSaved(ctx context.Context, key string) error
	Saved(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context, key string) error
}

// LeaderboardLimit caps leaderboard queries.
const LeaderboardLimit = 50

// QuizService contains the quiz use cases: starting sessions, finishing them
// with the single primary leaderboard write, the fallback/retry write, and
// the leaderboard query.
type QuizService struct {
	sessions    SessionRepository
	questions   QuestionRepository
	leaderboard LeaderboardRepository
	handoff     HandoffStore

	advanceDelay           time.Duration
	correctionAdvanceDelay time.Duration
}

func NewQuizService(sessions SessionRepository, questions QuestionRepository, leaderboard LeaderboardRepository, handoff HandoffStore) *QuizService {
	return &QuizService{
		sessions:    sessions,
		questions:   questions,
		leaderboard: leaderboard,
		handoff:     handoff,
	}
}

// SetAdvanceDelays overrides the auto-advance delays for new sessions. Zero
// values keep the built-in defaults.
func (s *QuizService) SetAdvanceDelays(advance, correction time.Duration) {
	s.advanceDelay = advance
	s.correctionAdvanceDelay = correction
}

// StartSession validates the entry parameters and loads the question set.
// An invalid level or missing player name creates no session (the caller
// redirects to the entry screen). A fetch failure or empty set yields a
// session in the unplayable Empty state rather than a hard error.
func (s *QuizService) StartSession(ctx context.Context, cfg SessionConfig) (*Session, error) {
	cfg.PlayerName = strings.TrimSpace(cfg.PlayerName)
	if !cfg.Level.Valid() {
		return nil, domain.ErrInvalidLevel
	}
	if cfg.PlayerName == "" {
		return nil, domain.ErrPlayerNameRequired
	}
	if cfg.AdvanceDelay == 0 {
		cfg.AdvanceDelay = s.advanceDelay
	}
	if cfg.CorrectionAdvanceDelay == 0 {
		cfg.CorrectionAdvanceDelay = s.correctionAdvanceDelay
	}

	id := uuid.NewString()

	questions, err := s.questions.QuestionsByLevel(ctx, cfg.Level)
	if err != nil {
		log.Printf("load questions for level %s: %v", cfg.Level, err)
		questions = nil
	}
	questions = filterLevel(questions, cfg.Level)

	session := newSession(id, cfg, questions)
	s.sessions.Put(session)
	return session, nil
}

// filterLevel defensively re-checks every record against the requested level
// and truncates to the tier's limit, guarding against a misbehaving data
// source returning mixed rows.
func filterLevel(questions []domain.Question, level domain.Level) []domain.Question {
	limit := level.QuestionLimit()
	filtered := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		if q.Level != level {
			continue
		}
		filtered = append(filtered, q)
		if len(filtered) == limit {
			break
		}
	}
	return filtered
}

// Session looks up a live session by ID.
func (s *QuizService) Session(id string) (*Session, bool) {
	return s.sessions.Get(id)
}

// CloseSession drops a session from the repository. An in-flight quiz is
// simply abandoned; nothing is persisted.
func (s *QuizService) CloseSession(id string) {
	s.sessions.Delete(id)
}

// Finish completes a session: the result payload is written to the hand-off
// store, then exactly one leaderboard insert is attempted. The saved marker
// is written only after a successful insert acknowledgment, so the fallback
// path fires only when the primary write did not happen. The session reaches
// Done regardless of the insert's outcome.
func (s *QuizService) Finish(ctx context.Context, id string) (domain.QuizResult, bool, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return domain.QuizResult{}, false, domain.ErrSessionNotFound
	}

	result, err := session.BeginFinish()
	if err != nil {
		return domain.QuizResult{}, false, err
	}
	defer session.CompleteFinish()

	if err := s.handoff.SaveResult(ctx, id, result); err != nil {
		log.Printf("save result hand-off for session %s: %v", id, err)
	}

	saved := false
	if _, err := s.leaderboard.Insert(ctx, entryFromResult(result)); err != nil {
		log.Printf("save to leaderboard for session %s: %v", id, err)
	} else {
		saved = true
		if err := s.handoff.MarkSaved(ctx, id); err != nil {
			log.Printf("mark result saved for session %s: %v", id, err)
		}
	}

	return result, saved, nil
}

// Result reads back the hand-off payload for the results screen, along with
// whether the primary leaderboard write already happened.
func (s *QuizService) Result(ctx context.Context, key string) (domain.QuizResult, bool, error) {
	result, err := s.handoff.Result(ctx, key)
	if err != nil {
		return domain.QuizResult{}, false, err
	}
	saved, err := s.handoff.Saved(ctx, key)
	if err != nil {
		log.Printf("read saved marker for %s: %v", key, err)
		saved = false
	}
	return result, saved, nil
}

// SubmitResult performs one leaderboard insert from the hand-off payload and
// sets the saved marker on success. The results screen calls it when the
// marker is absent, and again on each manual retry.
func (s *QuizService) SubmitResult(ctx context.Context, key string) error {
	result, err := s.handoff.Result(ctx, key)
	if err != nil {
		return err
	}
	if _, err := s.leaderboard.Insert(ctx, entryFromResult(result)); err != nil {
		return err
	}
	if err := s.handoff.MarkSaved(ctx, key); err != nil {
		log.Printf("mark result saved for %s: %v", key, err)
	}
	return nil
}

// Leaderboard returns the top entries for a tier, sorted by score descending
// then time ascending. An empty level defaults to Test, matching the
// leaderboard screen's default filter.
func (s *QuizService) Leaderboard(ctx context.Context, level domain.Level) ([]domain.LeaderboardEntry, error) {
	if level == "" {
		level = domain.LevelTest
	}
	if !level.Valid() {
		return nil, domain.ErrInvalidLevel
	}
	return s.leaderboard.TopByLevel(ctx, level, LeaderboardLimit)
}

func entryFromResult(result domain.QuizResult) domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		PlayerName:       result.PlayerName,
		Level:            result.Level,
		Score:            result.Score,
		TimeTakenSeconds: result.TimeElapsed,
		AnswersDetail:    result.Answers,
	}
}
