package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"sleepreport/adapters/excel"
	"sleepreport/adapters/jsonl"
	"sleepreport/adapters/postgres"
	"sleepreport/app"
	"sleepreport/internal/migration"
	"sleepreport/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: migrate <database_url> <export_dir>")
	}

	databaseURL := os.Args[1]
	exportDir := os.Args[2]

	log.Printf("Starting migration from %s", exportDir)

	// Connect to database
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	store := postgres.NewSleepRepository(db)

	sources, err := findSources(exportDir)
	if err != nil {
		log.Fatalf("Failed to scan export dir: %v", err)
	}
	log.Printf("Found %d sources to migrate", len(sources))

	migrated, skipped := 0, 0
	for path, source := range sources {
		result, err := app.NewImportService(source, store).ImportAll(ctx)
		if err != nil {
			log.Printf("Failed to import %s: %v", path, err)
			skipped++
			continue
		}
		migrated++
		log.Printf("Migrated %d summaries and %d samples from %s", result.Aggregates, result.Samples, path)
	}

	log.Printf("Migration complete: %d migrated, %d skipped", migrated, skipped)
}

// findSources returns one source per directory holding JSONL exports and one
// per xlsx workbook
func findSources(dir string) (map[string]ports.SleepDataSource, error) {
	sources := make(map[string]ports.SleepDataSource)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		switch {
		case info.Name() == jsonl.SummaryFile:
			parent := filepath.Dir(path)
			sources[parent] = jsonl.NewFileSource(parent)
		case strings.HasSuffix(strings.ToLower(path), ".xlsx"):
			sources[path] = excel.NewWorkbookSource(excel.DefaultExcelConfig(path))
		}
		return nil
	})

	return sources, err
}
