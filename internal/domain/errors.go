package domain

import "errors"

var (
	// ErrInvalidLevel is returned when a level parameter is not one of the four tiers.
	ErrInvalidLevel = errors.New("invalid difficulty level")
	// ErrPlayerNameRequired is returned when a session is started without a stored player name.
	ErrPlayerNameRequired = errors.New("player name required")
	// ErrSessionNotFound is returned when no session exists for the given ID.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionNotActive is returned when an operation needs an active session.
	ErrSessionNotActive = errors.New("quiz session not active")
	// ErrInvalidOption indicates a submitted option key is not A, B, C or D.
	ErrInvalidOption = errors.New("invalid option key")
	// ErrIndexOutOfRange indicates a navigation target outside the loaded questions.
	ErrIndexOutOfRange = errors.New("question index out of range")
	// ErrQuizIncomplete is returned when finish is attempted before every question is answered.
	ErrQuizIncomplete = errors.New("not all questions answered")
	// ErrResultNotFound is returned when no hand-off result exists for the given key.
	ErrResultNotFound = errors.New("quiz result not found")
)
