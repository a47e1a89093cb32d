package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/qqewq/harmonized-mind/adapters/postgres"
	"github.com/qqewq/harmonized-mind/domain/core"
	hre "github.com/qqewq/harmonized-mind/domain/resonance"
	"github.com/qqewq/harmonized-mind/internal/config"
	"github.com/qqewq/harmonized-mind/internal/container"
	"github.com/qqewq/harmonized-mind/internal/migration"
)

// migrate applies the history schema to the configured database and, given a directory,
// imports every JSON analysis export found under it.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	db, err := container.OpenDatabase(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Schema version %s applied (%s)", runner.Version(), cfg.Database.Driver)

	if len(os.Args) < 2 {
		return
	}

	exportDir := os.Args[1]
	files, err := findExportFiles(exportDir)
	if err != nil {
		log.Fatalf("Failed to find export files: %v", err)
	}
	log.Printf("Found %d export files to import from %s", len(files), exportDir)

	repo := postgres.NewAnalysisRepository(db)
	imported, skipped := 0, 0
	for _, file := range files {
		run, err := loadRun(file)
		if err != nil {
			log.Printf("Skipping %s: %v", file, err)
			skipped++
			continue
		}
		if err := repo.SaveAnalysis(ctx, run); err != nil {
			log.Printf("Failed to save %s: %v", file, err)
			skipped++
			continue
		}
		imported++
	}

	log.Printf("Import complete: %d imported, %d skipped", imported, skipped)
}

func findExportFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".json") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func loadRun(path string) (*hre.AnalysisRun, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var run hre.AnalysisRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, err
	}
	if _, err := core.ParseRunID(run.ID.String()); err != nil {
		return nil, err
	}
	if run.Gate.Decision == "" {
		return nil, fmt.Errorf("missing gate decision")
	}
	return &run, nil
}
