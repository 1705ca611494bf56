package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"sleepreport/internal/errors"
)

// Data source kinds
const (
	SourcePostgres = "postgres"
	SourceJSONL    = "jsonl"
	SourceExcel    = "excel"
	SourceDemo     = "demo"
)

// Scheduler output targets
const (
	OutputText  = "text"
	OutputImage = "image"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Source    SourceConfig
	Report    ReportConfig
	Telegram  TelegramConfig
	Scheduler SchedulerConfig
	State     StateConfig
	Journal   JournalConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// SourceConfig selects where sleep data is read from
type SourceConfig struct {
	Kind         string
	JSONLDir     string
	WorkbookPath string
}

// ReportConfig holds report generation settings
type ReportConfig struct {
	DisplayTimezone  string
	OutputDir        string
	SummaryDays      int
	MinBaselineCount int
	GapThreshold     time.Duration
	SampleDuration   time.Duration
	MetricsFile      string
	HideMean         bool
	HideSigma        bool
}

// TelegramConfig holds bot credentials; delivery is off when either is empty
type TelegramConfig struct {
	BotToken        string
	ChatID          string
	LongPollTimeout time.Duration
	PollSleep       time.Duration
}

// Enabled reports whether both credentials are present
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// SchedulerConfig holds the polling loop settings
type SchedulerConfig struct {
	Interval time.Duration
	Jitter   time.Duration
	Output   string
}

// StateConfig locates the dedupe state files. Text and image deliveries keep
// separate keys so one never blocks the other.
type StateConfig struct {
	ImageSentKeyPath string
	TextSentKeyPath  string
}

// JournalConfig controls capture of replies to the check-in prompt
type JournalConfig struct {
	Listen     bool   // run the listener alongside the server
	FilePath   string // journal file when no database is configured
	OffsetPath string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database:  *loadDatabaseConfig(),
		Server:    *loadServerConfig(),
		Source:    *loadSourceConfig(),
		Report:    *loadReportConfig(),
		Telegram:  *loadTelegramConfig(),
		Scheduler: *loadSchedulerConfig(),
		State:     *loadStateConfig(),
		Journal:   *loadJournalConfig(),
	}

	// Validate required fields
	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URL:     getEnvOrDefault("DATABASE_URL", ""),
		SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadSourceConfig() *SourceConfig {
	kind := strings.ToLower(getEnvOrDefault("SLEEP_SOURCE", ""))
	if kind == "" {
		// a configured database wins over the bundled demo data
		if os.Getenv("DATABASE_URL") != "" {
			kind = SourcePostgres
		} else {
			kind = SourceDemo
		}
	}
	return &SourceConfig{
		Kind:         kind,
		JSONLDir:     getEnvOrDefault("SLEEP_JSONL_DIR", "./data"),
		WorkbookPath: getEnvOrDefault("SLEEP_WORKBOOK", "./data/sleep_export.xlsx"),
	}
}

func loadReportConfig() *ReportConfig {
	return &ReportConfig{
		DisplayTimezone:  getEnvOrDefault("DISPLAY_TZ", "America/Toronto"),
		OutputDir:        getEnvOrDefault("REPORT_OUTPUT_DIR", "./exports/summary_screenshots"),
		SummaryDays:      getEnvIntOrDefault("SUMMARY_DAYS", 30),
		MinBaselineCount: getEnvIntOrDefault("MIN_BASELINE_COUNT", 5),
		GapThreshold:     getEnvDurationOrDefault("SESSION_GAP", 6*time.Hour),
		SampleDuration:   getEnvDurationOrDefault("SAMPLE_DURATION", 240*time.Second),
		MetricsFile:      getEnvOrDefault("METRICS_FILE", ""),
		HideMean:         getEnvBoolOrDefault("HIDE_MEAN", false),
		HideSigma:        getEnvBoolOrDefault("HIDE_SIGMA", false),
	}
}

func loadTelegramConfig() *TelegramConfig {
	return &TelegramConfig{
		BotToken:        strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		ChatID:          strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")),
		LongPollTimeout: time.Duration(getEnvIntOrDefault("TELEGRAM_LONGPOLL_TIMEOUT_SECONDS", 50)) * time.Second,
		PollSleep:       getEnvSecondsOrDefault("TELEGRAM_POLL_SLEEP_SECONDS", time.Second),
	}
}

func loadSchedulerConfig() *SchedulerConfig {
	output := strings.ToLower(getEnvOrDefault("SUMMARY_OUTPUT", OutputText))
	return &SchedulerConfig{
		Interval: time.Duration(getEnvIntOrDefault("CHECK_INTERVAL_SECONDS", 600)) * time.Second,
		Jitter:   time.Duration(getEnvIntOrDefault("JITTER_SECONDS", 30)) * time.Second,
		Output:   output,
	}
}

func loadStateConfig() *StateConfig {
	return &StateConfig{
		ImageSentKeyPath: getEnvOrDefault("IMAGE_STATE_PATH", "./data/last_sleep_image_sent_key.json"),
		TextSentKeyPath:  getEnvOrDefault("TEXT_STATE_PATH", "./data/last_sleep_text_sent_key.json"),
	}
}

func loadJournalConfig() *JournalConfig {
	return &JournalConfig{
		Listen:     getEnvBoolOrDefault("JOURNAL_LISTEN", false),
		FilePath:   getEnvOrDefault("JOURNAL_PATH", "./data/SleepJournal.jsonl"),
		OffsetPath: getEnvOrDefault("TELEGRAM_LISTENER_STATE_PATH", "./data/telegram_listener_state.json"),
	}
}

func validateConfig(config *Config) error {
	switch config.Source.Kind {
	case SourcePostgres:
		if config.Database.URL == "" {
			return errors.ConfigInvalid("DATABASE_URL is required for the postgres source")
		}
	case SourceJSONL, SourceExcel, SourceDemo:
	default:
		return errors.ConfigInvalid("unknown SLEEP_SOURCE " + strconv.Quote(config.Source.Kind))
	}
	if config.Scheduler.Output != OutputText && config.Scheduler.Output != OutputImage {
		return errors.ConfigInvalid("SUMMARY_OUTPUT must be text or image")
	}
	if config.Report.SummaryDays < 1 {
		return errors.ConfigInvalid("SUMMARY_DAYS must be positive")
	}
	if config.Scheduler.Interval <= 0 {
		return errors.ConfigInvalid("CHECK_INTERVAL_SECONDS must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault ignores unparsable and non-positive values
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvSecondsOrDefault reads fractional seconds such as "0.5"
func getEnvSecondsOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil && seconds > 0 {
			return time.Duration(seconds * float64(time.Second))
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}
