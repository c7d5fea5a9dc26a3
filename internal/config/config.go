package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	ErrMissingEnvironmentVariables = errors.New("missing required environment variables")
	ErrUnsupportedStorage          = errors.New("unsupported storage driver")
	ErrUnsupportedBankSource       = errors.New("unsupported bank source")
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageMemory   = "memory"
)

// Bank sources.
const (
	BankSourceDir  = "dir"
	BankSourceHTTP = "http"
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env              string  `mapstructure:"env"` // current application environment (local, dev, production etc)
	TelegramAPIToken string  `mapstructure:"-"`   // Telegram API token loaded from environment
	Storage          Storage `mapstructure:"storage"`
	DB               DB      `mapstructure:"database"`
	SQLite           SQLite  `mapstructure:"sqlite"`
	Bank             Bank    `mapstructure:"bank"`
	HTTP             HTTP    `mapstructure:"http"`
	Session          Session `mapstructure:"session"`
	History          History `mapstructure:"history"`
}

// Storage selects where sessions and exam results are kept.
type Storage struct {
	Driver string `mapstructure:"driver"` // postgres, sqlite or memory
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// SQLite configures the embedded store.
type SQLite struct {
	DSN string `mapstructure:"dsn"`
}

// Bank configures where question banks and exam templates are read from.
type Bank struct {
	Source  string `mapstructure:"source"`  // dir or http
	Base    string `mapstructure:"base"`    // directory or base URL
	Default string `mapstructure:"default"` // bank loaded for new users
}

// HTTP configures the status API.
type HTTP struct {
	Addr string `mapstructure:"addr"` // loopback by default; empty disables the API
}

// Session holds the pacing of session controllers.
type Session struct {
	CorrectAdvanceDelay time.Duration `mapstructure:"correct_advance_delay"`
	AutoNextDelay       time.Duration `mapstructure:"auto_next_delay"`
	StudyAutoNextDelay  time.Duration `mapstructure:"study_auto_next_delay"`
	ExamAdvanceDelay    time.Duration `mapstructure:"exam_advance_delay"`
	AutoSubmitDelay     time.Duration `mapstructure:"auto_submit_delay"`
	ClockSpec           string        `mapstructure:"clock_spec"`
}

// History configures the exam history.
type History struct {
	Keep int `mapstructure:"keep"` // results kept per user
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	// Load .env for local runs; a missing file is not an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	// Set default values for configuration keys.
	v.SetDefault("env", "local")
	v.SetDefault("storage.driver", StoragePostgres)
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")
	v.SetDefault("sqlite.dsn", "file:certitester.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)")
	v.SetDefault("bank.source", BankSourceDir)
	v.SetDefault("bank.base", "assets/static")
	v.SetDefault("bank.default", "general")
	v.SetDefault("http.addr", "127.0.0.1:8080")
	v.SetDefault("session.correct_advance_delay", "50ms")
	v.SetDefault("session.auto_next_delay", "3s")
	v.SetDefault("session.study_auto_next_delay", "1500ms")
	v.SetDefault("session.exam_advance_delay", "400ms")
	v.SetDefault("session.auto_submit_delay", "0s")
	v.SetDefault("session.clock_spec", "@every 1s")
	v.SetDefault("history.keep", 50)

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("env", "APP_ENV")
	_ = v.BindEnv("storage.driver", "STORAGE_DRIVER")
	_ = v.BindEnv("bank.source", "BANK_SOURCE")
	_ = v.BindEnv("bank.base", "BANK_BASE")
	_ = v.BindEnv("http.addr", "HTTP_ADDR")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.TelegramAPIToken = v.GetString("telegram_api_token")
	if cfg.TelegramAPIToken == "" {
		return nil, fmt.Errorf("%w: TELEGRAM_API_TOKEN", ErrMissingEnvironmentVariables)
	}

	cfg.DB.URL = v.GetString("database_url")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StoragePostgres:
		if c.DB.URL == "" {
			return fmt.Errorf("%w: DATABASE_URL", ErrMissingEnvironmentVariables)
		}
	case StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedStorage, c.Storage.Driver)
	}

	switch c.Bank.Source {
	case BankSourceDir, BankSourceHTTP:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedBankSource, c.Bank.Source)
	}

	return nil
}
