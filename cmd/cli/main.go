package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"sleepreport/domain/stats"
	"sleepreport/internal/config"
	"sleepreport/internal/container"
	"sleepreport/internal/errors"
	"sleepreport/internal/migration"

	"github.com/fatih/color"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sleepreport",
		Short: "Nightly sleep report: render, summarize, deliver and manage sleep data",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(); err != nil {
				log.Println("No .env file found, using system environment variables")
			}
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newReportCmd(),
		newSummaryCmd(),
		newScheduleCmd(),
		newListenCmd(),
		newJournalCmd(),
		newExportCmd(),
		newImportCmd(),
		newDemoCmd(),
		newMigrateCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}

// bootstrap loads configuration and wires the container the same way the server does
func bootstrap(ctx context.Context) (*container.Container, error) {
	appConfig, err := config.Load()
	if err != nil {
		return nil, err
	}

	c, err := container.New(appConfig)
	if err != nil {
		return nil, err
	}

	if appConfig.Source.Kind == config.SourcePostgres {
		db, err := openDatabase(ctx, appConfig)
		if err != nil {
			return nil, err
		}
		if err := c.InitWithDatabase(db); err != nil {
			db.Close()
			return nil, err
		}
	} else if err := c.InitSource(); err != nil {
		return nil, err
	}

	if err := c.InitServices(ctx); err != nil {
		c.Shutdown(ctx)
		return nil, err
	}
	return c, nil
}

func openDatabase(ctx context.Context, appConfig *config.Config) (*sqlx.DB, error) {
	if appConfig.Database.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}
	return db, nil
}

// printCards writes one colored line per card
func printCards(w io.Writer, day string, cards []stats.DeviationCard) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintf(w, "\n%s\n\n", cyan(fmt.Sprintf("=== Sleep Summary (%s) ===", day)))
	for _, card := range cards {
		paint := gray
		switch card.Verdict {
		case stats.VerdictBetter:
			paint = green
		case stats.VerdictWorse:
			paint = red
		}
		fmt.Fprintf(w, "  %-18s %10s  %s\n", card.Label, formatCurrent(card), paint(describe(card)))
	}
	fmt.Fprintln(w)
}

func formatCurrent(card stats.DeviationCard) string {
	v, ok := card.CurrentValue.Get()
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", v)
}

// describe is the verdict with the z-score when the baseline has spread
func describe(card stats.DeviationCard) string {
	switch card.Verdict {
	case stats.VerdictMissing:
		return "missing"
	case stats.VerdictNoBaseline:
		return fmt.Sprintf("no baseline (n=%d)", card.BaselineCount)
	}
	if card.StdDev == 0 {
		return fmt.Sprintf("%s vs μ %.1f", card.Verdict, card.Mean)
	}
	return fmt.Sprintf("%s vs μ %.1f (%+.1fσ)", card.Verdict, card.Mean, card.ZScore)
}
