package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"sleepreport/internal/config"
	"sleepreport/internal/container"
	"sleepreport/internal/errors"
	"sleepreport/internal/migration"
	"sleepreport/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"
)

// initDatabase connects to PostgreSQL and applies migrations
func initDatabase(ctx context.Context, appConfig *config.Config) (*sqlx.DB, error) {
	if appConfig.Database.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}
	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	if appConfig.Source.Kind == config.SourcePostgres {
		db, err := initDatabase(ctx, appConfig)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		if err := appContainer.InitWithDatabase(db); err != nil {
			log.Fatalf("Failed to initialize container: %v", err)
		}
	} else if err := appContainer.InitSource(); err != nil {
		log.Fatalf("Failed to open data source: %v", err)
	}

	if err := appContainer.InitServices(ctx); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	server, err := ui.NewServer(appContainer.Reports, appContainer.Summaries, appContainer.Hub, ui.Config{GinMode: appConfig.Server.GinMode})
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}
	httpServer := server.HTTPServer(":" + appConfig.Server.Port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return appContainer.Scheduler(false).Run(gctx)
	})
	if appConfig.Journal.Listen && appConfig.Telegram.Enabled() {
		g.Go(func() error {
			return appContainer.Listener(false).Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("Stopped with error: %v", err)
	}
	log.Println("Shut down cleanly")
}
