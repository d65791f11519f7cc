package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Vision    VisionConfig    `yaml:"vision" envconfig:"VISION"`
	Pricing   PricingConfig   `yaml:"pricing" envconfig:"PRICING"`
	Store     StoreConfig     `yaml:"store" envconfig:"STORE"`
	Monitor   MonitorConfig   `yaml:"monitor" envconfig:"MONITOR"`
	Extract   ExtractConfig   `yaml:"extract" envconfig:"EXTRACT"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/stockwatch.log"`
}

// VisionConfig configures the Google Cloud Vision collaborator.
type VisionConfig struct {
	APIKey string `yaml:"api_key" envconfig:"API_KEY"`
	// MonthlyQuota caps detection calls per process lifetime so a runaway
	// client cannot burn through the provider's free tier. Zero disables
	// the cap.
	MonthlyQuota int64 `yaml:"monthly_quota" envconfig:"MONTHLY_QUOTA" default:"1000"`
}

// PricingConfig configures the market-data provider.
type PricingConfig struct {
	BaseURL  string        `yaml:"base_url" envconfig:"BASE_URL" default:"https://api.finmindtrade.com/api/v4/data"`
	Token    string        `yaml:"token" envconfig:"TOKEN"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"20s"`
	CacheTTL time.Duration `yaml:"cache_ttl" envconfig:"CACHE_TTL" default:"5m"`
	// RPS bounds requests to the provider so the hourly quota survives a
	// long watchlist.
	RPS   float64 `yaml:"rps" envconfig:"RPS" default:"2"`
	Burst int     `yaml:"burst" envconfig:"BURST" default:"5"`
}

// StoreConfig configures the local SQLite store.
type StoreConfig struct {
	Path string `yaml:"path" envconfig:"PATH" default:"data/stockwatch.db"`
}

// MonitorConfig configures the price-watch loop.
type MonitorConfig struct {
	Interval     time.Duration `yaml:"interval" envconfig:"INTERVAL" default:"5m"`
	AllowOutside bool          `yaml:"allow_outside" envconfig:"ALLOW_OUTSIDE" default:"false"`
}

// ExtractConfig carries the tunable constants of the table-reconstruction
// pipeline. They are configuration rather than hidden globals so
// deployments can calibrate per brokerage app.
type ExtractConfig struct {
	RowTolerance        float64 `yaml:"row_tolerance" envconfig:"ROW_TOLERANCE" default:"18"`
	HeaderScanLimit     int     `yaml:"header_scan_limit" envconfig:"HEADER_SCAN_LIMIT" default:"6"`
	ColorPixelThreshold int     `yaml:"color_pixel_threshold" envconfig:"COLOR_PIXEL_THRESHOLD" default:"5"`
}

// SecurityConfig contains transport security configuration.
type SecurityConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS" default:"50"`
	RateLimitBurst int      `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST" default:"25"`
}

// WebSocketConfig contains WebSocket configuration.
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// Load loads configuration from a .env file if present, then environment
// variables, then an optional YAML file. Environment values win over file
// values; defaults fill the rest.
func Load() (*Config, error) {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if path := configFilePath(); path != "" {
		if _, err := os.Stat(path); err == nil {
			fileCfg, err := loadFromFile(path)
			if err != nil {
				return nil, fmt.Errorf("load config from file: %w", err)
			}
			cfg = merge(*fileCfg, cfg)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

func configFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG_FILE"); p != "" {
		return p
	}
	return DefaultConfigFile
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// merge overlays file values onto the env-derived config. envconfig fills
// defaulted fields even when their variable is unset, so the winner is
// decided by variable presence, not by a zero check: an explicitly set
// variable beats the file, the file beats the built-in default.
func merge(fileCfg, envCfg Config) Config {
	if fileCfg.Server.Port != 0 && !envSet("SERVER_PORT") {
		envCfg.Server.Port = fileCfg.Server.Port
	}
	if fileCfg.Vision.APIKey != "" && !envSet("VISION_API_KEY") {
		envCfg.Vision.APIKey = fileCfg.Vision.APIKey
	}
	if fileCfg.Vision.MonthlyQuota != 0 && !envSet("VISION_MONTHLY_QUOTA") {
		envCfg.Vision.MonthlyQuota = fileCfg.Vision.MonthlyQuota
	}
	if fileCfg.Pricing.Token != "" && !envSet("PRICING_TOKEN") {
		envCfg.Pricing.Token = fileCfg.Pricing.Token
	}
	if fileCfg.Pricing.BaseURL != "" && !envSet("PRICING_BASE_URL") {
		envCfg.Pricing.BaseURL = fileCfg.Pricing.BaseURL
	}
	if fileCfg.Store.Path != "" && !envSet("STORE_PATH") {
		envCfg.Store.Path = fileCfg.Store.Path
	}
	if fileCfg.Monitor.Interval != 0 && !envSet("MONITOR_INTERVAL") {
		envCfg.Monitor.Interval = fileCfg.Monitor.Interval
	}
	return envCfg
}

// envSet reports whether the prefixed variable is present in the
// environment, set-but-empty included.
func envSet(name string) bool {
	_, ok := os.LookupEnv(EnvPrefix + "_" + name)
	return ok
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Extract.RowTolerance <= 0 {
		return fmt.Errorf("row tolerance must be positive, got %v", c.Extract.RowTolerance)
	}
	if c.Extract.HeaderScanLimit < 0 {
		return fmt.Errorf("header scan limit must not be negative, got %d", c.Extract.HeaderScanLimit)
	}
	if c.Monitor.Interval < time.Minute {
		return fmt.Errorf("monitor interval below 1m risks provider bans, got %v", c.Monitor.Interval)
	}
	return nil
}
