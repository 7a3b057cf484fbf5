package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"cerdas-quiz-service/internal/config"
	"cerdas-quiz-service/internal/domain"

	"github.com/spf13/cobra"
)

// NewSeedCmd loads a question bank from a JSON file into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the questions table from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "questions.json", "path to a JSON array of questions")
	return cmd
}

func runSeed(ctx context.Context, configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}

	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	db := openBunDB(cfg.Postgres.URL)
	defer db.Close()

	inserted := 0
	for _, q := range questions {
		if !q.Level.Valid() || !q.CorrectOption.Valid() {
			log.Printf("skipping question %q: bad level or correct answer", q.Text)
			continue
		}
		_, err := db.ExecContext(ctx, `
			INSERT INTO questions (question_text, subject, level, option_a, option_b, option_c, option_d, correct_answer)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			q.Text, q.Subject, string(q.Level), q.OptionA, q.OptionB, q.OptionC, q.OptionD, string(q.CorrectOption))
		if err != nil {
			return fmt.Errorf("insert question %q: %w", q.Text, err)
		}
		inserted++
	}
	log.Printf("seeded %d questions from %s", inserted, file)
	return nil
}
