package domain

import "time"

// Level is a quiz difficulty tier. Each tier has its own question-count limit.
type Level string

const (
	LevelTest   Level = "Test"
	LevelMudah  Level = "Mudah"
	LevelSedang Level = "Sedang"
	LevelSulit  Level = "Sulit"
)

// Levels returns all tiers in display order.
func Levels() []Level {
	return []Level{LevelTest, LevelMudah, LevelSedang, LevelSulit}
}

// Valid reports whether l is one of the four known tiers.
func (l Level) Valid() bool {
	switch l {
	case LevelTest, LevelMudah, LevelSedang, LevelSulit:
		return true
	}
	return false
}

// QuestionLimit is the maximum number of questions served for a tier.
func (l Level) QuestionLimit() int {
	switch l {
	case LevelTest:
		return 10
	case LevelMudah:
		return 30
	case LevelSedang:
		return 25
	case LevelSulit:
		return 20
	}
	return 20
}

// OptionKey identifies one of the four answer options of a question.
type OptionKey string

const (
	OptionA OptionKey = "A"
	OptionB OptionKey = "B"
	OptionC OptionKey = "C"
	OptionD OptionKey = "D"
)

// OptionKeys returns the four keys in display order.
func OptionKeys() []OptionKey {
	return []OptionKey{OptionA, OptionB, OptionC, OptionD}
}

// Valid reports whether k is one of A, B, C, D.
func (k OptionKey) Valid() bool {
	switch k {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// Question is a multiple-choice question record. Immutable once loaded.
type Question struct {
	ID            int64     `json:"id"`
	Text          string    `json:"question_text"`
	Subject       string    `json:"subject"`
	Level         Level     `json:"level"`
	OptionA       string    `json:"option_a"`
	OptionB       string    `json:"option_b"`
	OptionC       string    `json:"option_c"`
	OptionD       string    `json:"option_d"`
	CorrectOption OptionKey `json:"correct_answer"`
	CreatedAt     time.Time `json:"created_at"`
}

// OptionText maps an option key to its display text.
func (q Question) OptionText(k OptionKey) string {
	switch k {
	case OptionA:
		return q.OptionA
	case OptionB:
		return q.OptionB
	case OptionC:
		return q.OptionC
	case OptionD:
		return q.OptionD
	}
	return ""
}

// CorrectText is the display text of the correct option.
func (q Question) CorrectText() string {
	return q.OptionText(q.CorrectOption)
}

// PlayerAnswer records the player's pick for one question.
type PlayerAnswer struct {
	QuestionID    int64     `json:"questionId"`
	Selected      OptionKey `json:"selectedAnswer"`
	Correct       bool      `json:"isCorrect"`
	TimeSpent     int       `json:"timeSpent"`
	QuestionText  string    `json:"questionText,omitempty"`
	CorrectOption OptionKey `json:"correctAnswer,omitempty"`
}

// DetailedPlayerAnswer is the per-question record retained for post-hoc
// review, including all four option texts so results can be redisplayed
// without re-fetching the question bank.
type DetailedPlayerAnswer struct {
	QuestionID    int64     `json:"questionId"`
	QuestionText  string    `json:"questionText"`
	Selected      OptionKey `json:"selectedAnswer"`
	SelectedText  string    `json:"selectedAnswerText"`
	CorrectOption OptionKey `json:"correctAnswer"`
	CorrectText   string    `json:"correctAnswerText"`
	Correct       bool      `json:"isCorrect"`
	TimeSpent     int       `json:"timeSpent"`
	OptionA       string    `json:"optionA"`
	OptionB       string    `json:"optionB"`
	OptionC       string    `json:"optionC"`
	OptionD       string    `json:"optionD"`
}

// QuizResult is the payload handed off from a finished session to the
// results screen. Created once at completion, read-only afterward.
type QuizResult struct {
	PlayerName        string                 `json:"playerName"`
	Level             Level                  `json:"level"`
	Score             int                    `json:"score"`
	TotalQuestions    int                    `json:"totalQuestions"`
	TimeElapsed       int                    `json:"timeElapsed"`
	Answers           []DetailedPlayerAnswer `json:"answers"`
	InstantCorrection bool                   `json:"instantCorrection"`
	CompletedAt       time.Time              `json:"completedAt"`
}

// Percentage is the score as a 0-100 percentage.
func (r QuizResult) Percentage() float64 {
	if r.TotalQuestions == 0 {
		return 0
	}
	return float64(r.Score) / float64(r.TotalQuestions) * 100
}

// ScoreMessage returns the encouragement label for a score.
func ScoreMessage(score, total int) string {
	if total == 0 {
		return "Tetap semangat! 💪"
	}
	percentage := float64(score) / float64(total) * 100
	switch {
	case percentage >= 90:
		return "Luar biasa! 🎉"
	case percentage >= 80:
		return "Sangat baik! 👏"
	case percentage >= 70:
		return "Baik! 👍"
	case percentage >= 60:
		return "Cukup baik 😊"
	default:
		return "Tetap semangat! 💪"
	}
}

// LeaderboardEntry is one row of the shared leaderboard. Created by insert,
// never mutated; queried sorted by score descending then time ascending.
type LeaderboardEntry struct {
	ID               int64                  `json:"id"`
	PlayerName       string                 `json:"player_name"`
	Level            Level                  `json:"level"`
	Score            int                    `json:"score"`
	TimeTakenSeconds int                    `json:"time_taken_seconds"`
	SubmittedAt      time.Time              `json:"submitted_at"`
	AnswersDetail    []DetailedPlayerAnswer `json:"answers_detail,omitempty"`
}
