package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"cerdas-quiz-service/internal/app"
	"cerdas-quiz-service/internal/domain"
)

// ResultsHandler serves the results screen's data and owns the fallback
// submission path: when the primary leaderboard write from the quiz session
// did not happen, the first results read performs exactly one insert
// attempt, and the retry endpoint lets the user repeat it on demand.
type ResultsHandler struct {
	service *app.QuizService
}

func NewResultsHandler(service *app.QuizService) *ResultsHandler {
	return &ResultsHandler{service: service}
}

type resultsResponse struct {
	Result    domain.QuizResult `json:"result"`
	Saved     bool              `json:"saved"`
	Label     string            `json:"label"`
	SaveError string            `json:"saveError,omitempty"`
}

// ServeResult handles GET /results?session=ID.
func (h *ResultsHandler) ServeResult(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("session")
	if key == "" {
		http.Error(w, "missing session", http.StatusBadRequest)
		return
	}

	result, saved, err := h.service.Result(r.Context(), key)
	if errors.Is(err, domain.ErrResultNotFound) {
		http.Error(w, "quiz result not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := resultsResponse{
		Result: result,
		Saved:  saved,
		Label:  domain.ScoreMessage(result.Score, result.TotalQuestions),
	}
	if !saved {
		// Fallback: the primary write from the quiz session did not happen.
		if err := h.service.SubmitResult(r.Context(), key); err != nil {
			log.Printf("fallback leaderboard save for %s: %v", key, err)
			resp.SaveError = "Gagal menyimpan ke leaderboard. Silakan coba lagi."
		} else {
			resp.Saved = true
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

type retryResponse struct {
	Saved     bool   `json:"saved"`
	SaveError string `json:"saveError,omitempty"`
}

// ServeRetry handles POST /results/retry?session=ID. Retries are manual and
// unbounded; each call is a single insert attempt.
func (h *ResultsHandler) ServeRetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	key := r.URL.Query().Get("session")
	if key == "" {
		http.Error(w, "missing session", http.StatusBadRequest)
		return
	}

	if err := h.service.SubmitResult(r.Context(), key); err != nil {
		if errors.Is(err, domain.ErrResultNotFound) {
			http.Error(w, "quiz result not found", http.StatusNotFound)
			return
		}
		log.Printf("retry leaderboard save for %s: %v", key, err)
		writeJSON(w, http.StatusOK, retryResponse{Saved: false, SaveError: "Gagal menyimpan ke leaderboard. Silakan coba lagi."})
		return
	}
	writeJSON(w, http.StatusOK, retryResponse{Saved: true})
}

// ServeLeaderboard handles GET /leaderboard?level=Mudah. The level defaults
// to Test when absent, matching the leaderboard screen's default filter.
func (h *ResultsHandler) ServeLeaderboard(w http.ResponseWriter, r *http.Request) {
	level := domain.Level(r.URL.Query().Get("level"))

	entries, err := h.service.Leaderboard(r.Context(), level)
	if errors.Is(err, domain.ErrInvalidLevel) {
		http.Error(w, "invalid level", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
