package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/firewise/fireedu-api/internal/config"
	pgRepo "github.com/firewise/fireedu-api/internal/repository/postgres"
	"github.com/firewise/fireedu-api/internal/seed"
	"github.com/firewise/fireedu-api/pkg/database"
	"github.com/firewise/fireedu-api/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	questionsPath := flag.String("questions", "config/questions.yaml", "path to questions file")
	force := flag.Bool("force", false, "insert even if active questions already exist")
	flag.Parse()

	appLogger, err := logger.New(gin.Mode())
	if err != nil {
		panic(err)
	}
	defer appLogger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.Fatal("failed to load config", "error", err)
	}

	f, err := os.Open(*questionsPath)
	if err != nil {
		appLogger.Fatal("failed to open questions file", "path", *questionsPath, "error", err)
	}
	defer f.Close()

	questions, err := seed.ParseQuestions(f)
	if err != nil {
		appLogger.Fatal("invalid questions file", "error", err)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), true)
	if err != nil {
		appLogger.Fatal("failed to connect to database", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := pgRepo.NewQuestionRepo(db)
	existing, err := repo.CountActive(ctx)
	if err != nil {
		appLogger.Fatal("failed to count questions", "error", err)
	}
	if existing > 0 && !*force {
		appLogger.Info("questions already seeded, skipping", "active", existing)
		return
	}

	if err := repo.CreateBatch(ctx, questions); err != nil {
		appLogger.Fatal("failed to insert questions", "error", err)
	}
	appLogger.Info("questions seeded", "count", len(questions))
}
