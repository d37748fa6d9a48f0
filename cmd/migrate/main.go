package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/flexprice/recurring/internal/config"
	"github.com/flexprice/recurring/internal/logger"
	"github.com/flexprice/recurring/internal/postgres"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	// Parse command line flags
	down := flag.Bool("down", false, "Roll back the most recent migration")
	status := flag.Bool("status", false, "Print applied and pending migrations")
	flag.Parse()

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	logger.Infow("Connecting to database", "host", cfg.Postgres.Host)

	db, err := sqlx.Connect("postgres", cfg.Postgres.GetDSN())
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch {
	case *status:
		err = postgres.Status(ctx, db.DB)
	case *down:
		logger.Info("Rolling back latest migration...")
		err = postgres.Rollback(ctx, db.DB)
	default:
		logger.Info("Running database migrations...")
		err = postgres.Migrate(ctx, db.DB, logger)
	}
	if err != nil {
		logger.Fatalw("Migration failed", "error", err)
	}

	fmt.Println("Migration process completed")
}
