package container

import (
	"context"
	"fmt"
	"time"

	"sleepreport/adapters/excel"
	"sleepreport/adapters/filestate"
	"sleepreport/adapters/jsonl"
	"sleepreport/adapters/postgres"
	"sleepreport/adapters/render"
	"sleepreport/adapters/render/canvas"
	"sleepreport/adapters/render/text"
	"sleepreport/adapters/stats/baseline"
	"sleepreport/adapters/stats/deviation"
	"sleepreport/adapters/stats/session"
	"sleepreport/adapters/telegram"
	"sleepreport/app"
	"sleepreport/internal"
	"sleepreport/internal/api"
	"sleepreport/internal/config"
	"sleepreport/internal/errors"
	"sleepreport/internal/report"
	"sleepreport/internal/testkit"
	"sleepreport/ports"

	"github.com/jmoiron/sqlx"
)

// Delivery state channels, one dedupe key each
const (
	ChannelImage = "image"
	ChannelText  = "text"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Data access
	Source ports.SleepDataSource
	Sink   ports.SleepDataSink // nil when the source is read-only

	// Delivery
	Deliverer     ports.Deliverer // nil when Telegram is not configured
	ImageSentKeys ports.SentKeyStore
	TextSentKeys  ports.SentKeyStore

	// Check-in replies
	Updates      ports.UpdateSource // nil when Telegram is not configured
	JournalStore ports.JournalStore

	// Report components
	Scale     config.Scale
	Pipeline  *app.Pipeline
	Reports   *app.ReportService
	Summaries *app.SummaryService
	Journal   *app.JournalService
	Hub       *api.RunHub
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return &Container{Config: cfg, Logger: internal.DefaultLogger.With("Container")}, nil
}

// InitWithDatabase uses db for sleep data and delivery state
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db

	// Test database connection
	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	repo := postgres.NewSleepRepository(db)
	c.Source, c.Sink = repo, repo
	c.ImageSentKeys = postgres.NewDeliveryStateRepository(db, ChannelImage)
	c.TextSentKeys = postgres.NewDeliveryStateRepository(db, ChannelText)
	c.JournalStore = postgres.NewSleepJournalRepository(db)

	c.Logger.Info("Container initialized with database connection")
	return nil
}

// InitSource opens the configured non-database source. Delivery state falls
// back to local files.
func (c *Container) InitSource() error {
	src := c.Config.Source
	switch src.Kind {
	case config.SourceJSONL:
		c.Source = jsonl.NewFileSource(src.JSONLDir)
		c.Logger.Info("Using JSONL data source: %s", src.JSONLDir)
	case config.SourceExcel:
		c.Source = excel.NewWorkbookSource(excel.DefaultExcelConfig(src.WorkbookPath))
		c.Logger.Info("Using workbook data source: %s", src.WorkbookPath)
	case config.SourceDemo:
		store, err := c.demoStore(time.Now())
		if err != nil {
			return err
		}
		c.Source, c.Sink = store, store
		c.Logger.Warn("No data source configured, using synthetic nights")
	case config.SourcePostgres:
		return errors.ConfigInvalid("the postgres source is opened with InitWithDatabase")
	default:
		return errors.ConfigInvalid("unknown source " + src.Kind)
	}

	if c.ImageSentKeys == nil {
		c.ImageSentKeys = filestate.NewSentKeyFile(c.Config.State.ImageSentKeyPath)
	}
	if c.TextSentKeys == nil {
		c.TextSentKeys = filestate.NewSentKeyFile(c.Config.State.TextSentKeyPath)
	}
	if c.JournalStore == nil {
		c.JournalStore = jsonl.NewJournalStore(c.Config.Journal.FilePath)
	}
	return nil
}

// demoStore generates two weeks of nights ending with this morning's wake-up
func (c *Container) demoStore(now time.Time) (*testkit.MemoryStore, error) {
	loc, err := report.LoadDisplayLocation(c.Config.Report.DisplayTimezone)
	if err != nil {
		return nil, err
	}
	local := now.In(loc)
	wake := time.Date(local.Year(), local.Month(), local.Day(), 7, 0, 0, 0, loc)
	if wake.After(now) {
		wake = wake.AddDate(0, 0, -1)
	}

	genConfig := testkit.DefaultNightConfig()
	genConfig.LastWake = wake.UTC()
	genConfig.Location = loc
	genConfig.Seed = now.Unix()
	ds, err := testkit.NewNightGenerator(genConfig).Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate demo data: %w", err)
	}
	return testkit.NewMemoryStoreWith(ds), nil
}

// InitServices builds the report pipeline and both delivery services.
// ctx bounds the run-event hub.
func (c *Container) InitServices(ctx context.Context) error {
	if c.Source == nil {
		return fmt.Errorf("data source not initialized")
	}
	cfg := c.Config.Report

	scale, err := config.LoadScale(cfg.MetricsFile)
	if err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	c.Scale = scale

	encoder, err := deviation.NewEncoder(scale.Encoder)
	if err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}

	builder := session.BuilderConfig{GapThreshold: cfg.GapThreshold, DefaultDuration: cfg.SampleDuration}
	calc := baseline.DefaultCalculatorConfig()
	calc.MinCount = cfg.MinBaselineCount
	c.Pipeline = app.NewPipeline(c.Source, scale.Catalog, encoder, app.PipelineConfig{
		DisplayTimezone: cfg.DisplayTimezone,
		SummaryDays:     cfg.SummaryDays,
		Builder:         builder,
		Window:          session.DefaultWindowConfig(),
		Baseline:        calc,
	})
	if _, err := c.Pipeline.Location(); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}

	if c.Config.Telegram.Enabled() {
		client, err := telegram.NewClient(telegram.Config{
			BotToken: c.Config.Telegram.BotToken,
			ChatID:   c.Config.Telegram.ChatID,
		})
		if err != nil {
			return errors.WithCode(errors.CodeConfigInvalid, err)
		}
		c.Deliverer, c.Updates = client, client
	} else {
		c.Logger.Warn("TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID missing; delivery disabled")
	}

	factory, err := canvas.NewGGFactory()
	if err != nil {
		return fmt.Errorf("failed to load fonts: %w", err)
	}
	painterConfig := render.DefaultPainterConfig()
	painterConfig.HideMean = cfg.HideMean
	painterConfig.HideSigma = cfg.HideSigma
	painter := render.NewPainter(factory, scale.Palette, painterConfig)

	assembler := report.NewAssembler(report.DefaultLayoutConfig(), cfg.SampleDuration)
	c.Reports = app.NewReportService(c.Pipeline, assembler, painter, cfg.OutputDir, c.Deliverer, c.ImageSentKeys)
	c.Summaries = app.NewSummaryService(c.Pipeline, text.NewFormatter(nil), c.Deliverer, c.TextSentKeys)
	c.Journal = app.NewJournalService(c.Updates, c.JournalStore,
		filestate.NewOffsetFile(c.Config.Journal.OffsetPath), c.Deliverer, app.JournalConfig{
			ChatID:      c.Config.Telegram.ChatID,
			PollTimeout: c.Config.Telegram.LongPollTimeout,
		})
	c.Hub = api.NewRunHub(ctx)

	c.Logger.Info("Report services initialized: %d metrics, %d-day baseline, tz=%s",
		scale.Catalog.Len(), cfg.SummaryDays, cfg.DisplayTimezone)
	return nil
}

// Scheduler polls for new nights and delivers the configured output
func (c *Container) Scheduler(once bool) *app.Scheduler {
	deliver := c.Deliverer != nil
	schedConfig := app.SchedulerConfig{
		Interval: c.Config.Scheduler.Interval,
		Jitter:   c.Config.Scheduler.Jitter,
		Once:     once,
	}

	var task app.Task
	if c.Config.Scheduler.Output == config.OutputImage {
		task = app.ImageTask(c.Reports, deliver)
	} else {
		task = app.TextTask(c.Summaries, deliver)
	}

	s := app.NewScheduler(c.Config.Scheduler.Output, task, schedConfig)
	if c.Hub != nil {
		s.WithObserver(api.NewRunEventBroadcaster(c.Hub))
	}
	return s
}

// journalErrorBackoff is the extra pause after a failed long poll
const journalErrorBackoff = 5 * time.Second

// Listener long-polls for check-in replies
func (c *Container) Listener(once bool) *app.Scheduler {
	s := app.NewScheduler("journal", app.JournalTask(c.Journal), app.SchedulerConfig{
		Interval:     c.Config.Telegram.PollSleep,
		ErrorBackoff: journalErrorBackoff,
		Once:         once,
	})
	if c.Hub != nil {
		s.WithObserver(api.NewRunEventBroadcaster(c.Hub))
	}
	return s
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
