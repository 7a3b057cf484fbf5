package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cerdas-quiz-service/internal/app"
	"cerdas-quiz-service/internal/config"
	"cerdas-quiz-service/internal/domain"
	"cerdas-quiz-service/internal/infra/memory"
	pginfra "cerdas-quiz-service/internal/infra/postgres"
	redisinfra "cerdas-quiz-service/internal/infra/redis"
	transport "cerdas-quiz-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var source memory.QuestionSource = memory.NewStaticQuestionSource(sampleQuestions())
	var leaderboard app.LeaderboardRepository = memory.NewLeaderboardRepository()
	if pool != nil {
		source = pginfra.NewQuestionLoader(pool)
		leaderboard = pginfra.NewLeaderboardRepository(pool)
	}

	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	handoffTTL := config.TTLDuration(cfg.Quiz.HandoffTTL, 24*time.Hour)

	var questions app.QuestionRepository
	var handoff app.HandoffStore
	var sessions app.SessionRepository
	if redisClient != nil {
		questions = redisinfra.NewQuestionRepository(redisClient, source, cacheTTL)
		handoff = redisinfra.NewHandoffStore(redisClient, handoffTTL)
		sessions = redisinfra.NewSessionStore(redisClient, redisTTL)
	} else {
		questions = memory.NewQuestionRepository(source, cacheTTL)
		handoff = memory.NewHandoffStore()
		sessions = memory.NewSessionStore()
	}

	service := app.NewQuizService(sessions, questions, leaderboard, handoff)
	service.SetAdvanceDelays(
		config.TTLDuration(cfg.Quiz.AdvanceDelay, 0),
		config.TTLDuration(cfg.Quiz.CorrectionAdvanceDelay, 0),
	)
	wsHandler := transport.NewWSHandler(service)
	resultsHandler := transport.NewResultsHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/results", resultsHandler.ServeResult)
	mux.HandleFunc("/results/retry", resultsHandler.ServeRetry)
	mux.HandleFunc("/leaderboard", resultsHandler.ServeLeaderboard)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestions provides a tiny question bank so the server runs without
// Postgres; production deployments seed the questions table instead.
func sampleQuestions() map[domain.Level][]domain.Question {
	return map[domain.Level][]domain.Question{
		domain.LevelTest: {
			{
				ID:            1,
				Text:          "Berapa hasil dari 2 + 2?",
				Subject:       "Matematika",
				Level:         domain.LevelTest,
				OptionA:       "3",
				OptionB:       "4",
				OptionC:       "5",
				OptionD:       "6",
				CorrectOption: domain.OptionB,
			},
			{
				ID:            2,
				Text:          "Siapa proklamator kemerdekaan Indonesia?",
				Subject:       "Sejarah",
				Level:         domain.LevelTest,
				OptionA:       "Soekarno dan Hatta",
				OptionB:       "Sudirman",
				OptionC:       "Diponegoro",
				OptionD:       "Kartini",
				CorrectOption: domain.OptionA,
			},
		},
	}
}
