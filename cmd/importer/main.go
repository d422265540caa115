package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"infohub/internal/config"
	"infohub/internal/db"
	"infohub/internal/importer"
	"infohub/internal/repository/centroid"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to city centroid CSV (city,state,latitude,longitude)")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatalf("open file: %v", err)
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, centroid.NewPostgres(pool, logger))

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatalf("import failed after %d rows: %v", count, err)
	}

	fmt.Printf("Imported %d city centroids in %s\n", count, time.Since(start).Truncate(time.Millisecond))
}
