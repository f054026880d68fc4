package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"member-auth/internal/db"
)

const usage = "usage: migrate [up|down|version]"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	migrator, err := db.NewMigrator(databaseURL)
	if err != nil {
		logger.Fatal("migrator init", zap.Error(err))
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			logger.Warn("migrator close", zap.Error(err))
		}
	}()

	switch os.Args[1] {
	case "up":
		err = migrator.Up()
	case "down":
		err = migrator.Down()
	case "version":
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal("migrate "+os.Args[1], zap.Error(err))
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		logger.Fatal("migration version", zap.Error(err))
	}
	logger.Info("migration state", zap.Uint("version", version), zap.Bool("dirty", dirty))
}
