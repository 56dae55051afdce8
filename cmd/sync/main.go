package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/hnstar/hnstar/internal/migrations"
	"github.com/hnstar/hnstar/internal/story"
	"github.com/hnstar/hnstar/pkg/database"
	"github.com/hnstar/hnstar/pkg/utilities"
)

// One-shot ingestion job: fetch the current top stories and upsert them.
// Scheduling is left to cron or whatever runs this binary.
func main() {
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting hnstar sync")

	sqlDB, err := database.Connect(database.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer sqlDB.Close()

	ctx := context.Background()
	if err := migrations.Up(ctx, sqlDB); err != nil {
		sugar.Fatalf("migrations: %v", err)
	}

	client := story.NewClient(os.Getenv("HN_API_BASE_URL"))
	syncer := story.NewSyncer(sqlx.NewDb(sqlDB, "postgres"), client, sugar)
	if err := syncer.Run(ctx); err != nil {
		sugar.Fatalf("sync: %v", err)
	}

	sugar.Info("done")
}
