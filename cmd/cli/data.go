package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sleepreport/adapters/excel"
	"sleepreport/adapters/jsonl"
	"sleepreport/adapters/postgres"
	"sleepreport/app"
	"sleepreport/domain/sleep"
	"sleepreport/internal/config"
	"sleepreport/internal/errors"
	"sleepreport/internal/migration"
	"sleepreport/internal/testkit"
	"sleepreport/ports"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "import [path]",
		Short: "Load JSONL exports or an xlsx workbook into PostgreSQL",
		Long: `Load sleep data into the database named by DATABASE_URL.

--from jsonl reads SleepSummary.jsonl and SleepIntraday.jsonl from the directory.
--from excel reads the SleepSummary and SleepIntraday sheets of the workbook.

Example: sleepreport import ./data --from jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var source ports.SleepDataSource
			switch from {
			case config.SourceJSONL:
				source = jsonl.NewFileSource(args[0])
			case config.SourceExcel:
				source = excel.NewWorkbookSource(excel.DefaultExcelConfig(args[0]))
			default:
				return errors.InvalidInput("--from must be jsonl or excel")
			}

			appConfig, err := config.Load()
			if err != nil {
				return err
			}
			db, err := openDatabase(ctx, appConfig)
			if err != nil {
				return err
			}
			defer db.Close()

			result, err := app.NewImportService(source, postgres.NewSleepRepository(db)).ImportAll(ctx)
			if err != nil {
				return err
			}
			fmt.Println(color.GreenString("Imported %d summaries and %d samples in %s",
				result.Aggregates, result.Samples, result.Took.Round(time.Millisecond)))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", config.SourceJSONL, "Source format: jsonl|excel")
	return cmd
}

func newDemoCmd() *cobra.Command {
	var out string
	var nights int
	var seed int64

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Write synthetic nights to a workbook usable with SLEEP_SOURCE=excel",
		RunE: func(cmd *cobra.Command, args []string) error {
			genConfig := testkit.DefaultNightConfig()
			genConfig.Nights = nights
			genConfig.Seed = seed
			now := time.Now().UTC()
			genConfig.LastWake = time.Date(now.Year(), now.Month(), now.Day(), 7, 0, 0, 0, time.UTC)
			if genConfig.LastWake.After(now) {
				genConfig.LastWake = genConfig.LastWake.AddDate(0, 0, -1)
			}

			ds, err := testkit.NewNightGenerator(genConfig).Generate()
			if err != nil {
				return err
			}

			exporter, err := excel.NewExporter(excel.WorkbookExport{
				Summaries: ds.Aggregates,
				Samples:   ds.Samples,
				Catalog:   sleep.DefaultMetricCatalog(),
			})
			if err != nil {
				return err
			}
			defer exporter.Close()
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			if err := exporter.SaveAs(out); err != nil {
				return err
			}
			fmt.Println(color.GreenString("Wrote %d nights to %s", len(ds.Aggregates), out))
			fmt.Printf("Try: SLEEP_SOURCE=excel SLEEP_WORKBOOK=%s sleepreport report\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "./data/sleep_export.xlsx", "Workbook path")
	cmd.Flags().IntVar(&nights, "nights", 30, "Number of nights to generate")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic output")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the PostgreSQL schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			appConfig, err := config.Load()
			if err != nil {
				return err
			}
			db, err := openDatabase(ctx, appConfig)
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Println(color.GreenString("Schema at version %s", migration.NewRunner().Version()))
			return nil
		},
	}
}
