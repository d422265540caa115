package main

import (
	"context"
	"log"
	"os"

	"infohub/internal/config"
	"infohub/internal/db"
	"infohub/internal/repository/centroid"
	"infohub/internal/seed"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	count, err := seed.Apply(ctx, centroid.NewPostgres(pool, logger))
	if err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Printf("seed applied centroids=%d", count)
}
