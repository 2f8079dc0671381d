package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config represents application configuration
type Config struct {
	Database   DatabaseConfig   `envconfig:"DATABASE"`
	ClickHouse ClickHouseConfig `envconfig:"CLICKHOUSE"`
	Redis      RedisConfig      `envconfig:"REDIS"`
	Labeling   LabelingConfig   `envconfig:"LABELING"`
	Prediction PredictionConfig `envconfig:"PREDICTION"`
	Prices     PricesConfig     `envconfig:"PRICES"`
	Telegram   TelegramConfig   `envconfig:"TELEGRAM"`
	API        APIConfig        `envconfig:"API"`
	Logging    LoggingConfig    `envconfig:"LOGGING"`
}

// DatabaseConfig represents Postgres connection parameters
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"cryptosense"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
}

// GetDSN returns Postgres connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Name, c.User, c.Password, c.SSLMode)
}

// ClickHouseConfig represents the optional ClickHouse read path for price
// snapshots
type ClickHouseConfig struct {
	Enabled  bool   `envconfig:"CLICKHOUSE_ENABLED" default:"false"`
	Host     string `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	Database string `envconfig:"CLICKHOUSE_DATABASE" default:"cryptosense"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD" required:"false"`
}

// GetDSN returns ClickHouse connection string
func (c *ClickHouseConfig) GetDSN() string {
	return fmt.Sprintf("clickhouse://%s:%s@%s:%d/%s",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// RedisConfig represents Redis connection for distributed job locks
type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" required:"false"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// LabelingConfig represents sentiment labeling parameters
type LabelingConfig struct {
	Cohere LLMProviderConfig `envconfig:"COHERE"`
	OpenAI LLMProviderConfig `envconfig:"OPENAI"`

	// DefaultProvider seeds an llm_providers row at startup when the table
	// is empty; leave blank when providers are managed directly in the
	// database
	DefaultProvider string `envconfig:"LABELING_DEFAULT_PROVIDER" required:"false"`
	DefaultModel    string `envconfig:"LABELING_DEFAULT_MODEL" required:"false"`

	BatchSize      int           `envconfig:"LABELING_BATCH_SIZE" default:"20"`
	LookbackHours  int           `envconfig:"LABELING_LOOKBACK_HOURS" default:"24"`
	Interval       time.Duration `envconfig:"LABELING_INTERVAL" default:"1h"`
	WorkerEnabled  bool          `envconfig:"LABELING_WORKER_ENABLED" default:"true"`
	MinRowRatio    float64       `envconfig:"LABELING_MIN_ROW_RATIO" default:"0.9"`
	MaxRowRatio    float64       `envconfig:"LABELING_MAX_ROW_RATIO" default:"1.2"`
	RequestTimeout time.Duration `envconfig:"LABELING_REQUEST_TIMEOUT" default:"120s"`
}

// LLMProviderConfig represents credentials for one text-generation provider.
// The provider row in the database decides which provider is active.
type LLMProviderConfig struct {
	APIKey string `envconfig:"API_KEY" required:"false"`
}

// PredictionConfig represents prediction cycle parameters
type PredictionConfig struct {
	Currencies      []string      `envconfig:"PREDICTION_CURRENCIES" default:"btc,eth"`
	MainCurrency    string        `envconfig:"PREDICTION_MAIN_CURRENCY" default:"usd"`
	HorizonHours    int           `envconfig:"PREDICTION_HORIZON_HOURS" default:"12"`
	TrainWindowDays int           `envconfig:"PREDICTION_TRAIN_WINDOW_DAYS" default:"90"`
	Interval        time.Duration `envconfig:"PREDICTION_INTERVAL" default:"1h"`
	WorkerEnabled   bool          `envconfig:"PREDICTION_WORKER_ENABLED" default:"true"`
}

// PricesConfig represents price snapshot ingestion parameters
type PricesConfig struct {
	CoinGeckoAPIKey string        `envconfig:"PRICES_COINGECKO_API_KEY" required:"false"`
	BinanceEnabled  bool          `envconfig:"PRICES_BINANCE_ENABLED" default:"false"`
	Interval        time.Duration `envconfig:"PRICES_INTERVAL" default:"1h"`
	WorkerEnabled   bool          `envconfig:"PRICES_WORKER_ENABLED" default:"true"`
}

// TelegramConfig represents prediction alert delivery
type TelegramConfig struct {
	BotToken           string `envconfig:"TELEGRAM_BOT_TOKEN" required:"false"`
	ChatID             int64  `envconfig:"TELEGRAM_CHAT_ID" required:"false"`
	AlertOnPredictions bool   `envconfig:"TELEGRAM_ALERT_ON_PREDICTIONS" default:"true"`
}

// APIConfig represents HTTP server parameters
type APIConfig struct {
	Port            int           `envconfig:"API_PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	File  string `envconfig:"LOG_FILE" required:"false"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if len(c.Prediction.Currencies) == 0 {
		return fmt.Errorf("at least one prediction currency must be configured")
	}
	if c.Prediction.HorizonHours <= 0 {
		return fmt.Errorf("prediction horizon must be positive")
	}
	if c.Labeling.BatchSize <= 0 {
		return fmt.Errorf("labeling batch size must be positive")
	}
	if c.Labeling.MinRowRatio <= 0 || c.Labeling.MinRowRatio > 1 {
		return fmt.Errorf("labeling min row ratio must be in (0, 1]")
	}
	if c.Labeling.MaxRowRatio < 1 {
		return fmt.Errorf("labeling max row ratio must be at least 1")
	}
	return nil
}
