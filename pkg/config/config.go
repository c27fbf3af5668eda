package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional, screen run history)
	Database DatabaseConfig

	// Redis (optional, kline cache + shared rate limit)
	Redis RedisConfig

	// Outbound HTTP
	HTTP HTTPConfig

	// Upstream market data
	Sina    SinaConfig
	Tencent TencentConfig

	// Pipelines
	Screen ScreenConfig
	Report ReportConfig

	// Websocket quote stream
	Stream StreamConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database URL is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// HTTPConfig controls timeouts, retries and pacing of upstream calls
type HTTPConfig struct {
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration // linear: RetryDelay × attempt
	MinInterval time.Duration // 0 = no pacing
	UserAgent   string
}

// SinaConfig holds Sina Finance endpoints
type SinaConfig struct {
	ListURL  string // Market_Center JSON API
	HQURL    string // realtime quotes (hq.sinajs.cn)
	KlineURL string // JSONP kline API
	NewsURL  string // per-stock news list page
	Referer  string
}

// TencentConfig holds Tencent quote endpoint
type TencentConfig struct {
	QuoteURL string
}

// ScreenConfig holds full-market screen defaults
type ScreenConfig struct {
	TopN         int
	Output       string
	MaxPages     int
	Workers      int
	EnrichTopK   int
	KlineDays    int
	StrategyFile string
	Cron         string
}

// ReportConfig holds research report defaults
type ReportConfig struct {
	Output    string
	Symbols   []string // tracked symbols (holdings + candidates)
	NewsLimit int
	Cron      string
}

// StreamConfig controls the quote poller behind /ws/quotes
type StreamConfig struct {
	PollInterval time.Duration
	StaleAfter   time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	return fromEnv()
}

// LoadFile reads an explicit .env file before the environment.
// Variables already set in the environment win.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	return fromEnv()
}

func fromEnv() (*Config, error) {
	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		HTTP: HTTPConfig{
			Timeout:     getEnvAsDuration("HTTP_TIMEOUT", "10s"),
			MaxRetries:  getEnvAsInt("HTTP_MAX_RETRIES", 2),
			RetryDelay:  getEnvAsDuration("HTTP_RETRY_DELAY", "500ms"),
			MinInterval: getEnvAsDuration("HTTP_MIN_INTERVAL", "0s"),
			UserAgent:   getEnv("HTTP_USER_AGENT", "Mozilla/5.0 (compatible; CNStock/1.0)"),
		},

		Sina: SinaConfig{
			ListURL:  getEnv("SINA_LIST_URL", "http://vip.stock.finance.sina.com.cn/quotes_service/api/json_v2.php"),
			HQURL:    getEnv("SINA_HQ_URL", "http://hq.sinajs.cn"),
			KlineURL: getEnv("SINA_KLINE_URL", "https://quotes.sina.cn/cn/api/jsonp_v2.php"),
			NewsURL:  getEnv("SINA_NEWS_URL", "https://vip.stock.finance.sina.com.cn/corp/go.php/vCB_AllNewsStock/symbol"),
			Referer:  getEnv("SINA_REFERER", "https://finance.sina.com.cn"),
		},

		Tencent: TencentConfig{
			QuoteURL: getEnv("TENCENT_QUOTE_URL", "http://qt.gtimg.cn"),
		},

		Screen: ScreenConfig{
			TopN:         getEnvAsInt("SCREEN_TOP_N", 50),
			Output:       getEnv("SCREEN_OUTPUT", "/tmp/cn_screen_full.json"),
			MaxPages:     getEnvAsInt("SCREEN_MAX_PAGES", 80),
			Workers:      getEnvAsInt("SCREEN_WORKERS", 6),
			EnrichTopK:   getEnvAsInt("SCREEN_ENRICH_TOP_K", 200),
			KlineDays:    getEnvAsInt("SCREEN_KLINE_DAYS", 120),
			StrategyFile: getEnv("SCREEN_STRATEGY_FILE", ""),
			Cron:         getEnv("SCREEN_CRON", "0 40 15 * * 1-5"),
		},

		Report: ReportConfig{
			Output:    getEnv("REPORT_OUTPUT", "/tmp/report_data_cn.json"),
			Symbols:   getEnvAsList("REPORT_SYMBOLS"),
			NewsLimit: getEnvAsInt("REPORT_NEWS_LIMIT", 3),
			Cron:      getEnv("REPORT_CRON", "0 0 16 * * 1-5"),
		},

		Stream: StreamConfig{
			PollInterval: getEnvAsDuration("STREAM_POLL_INTERVAL", "5s"),
			StaleAfter:   getEnvAsDuration("STREAM_STALE_AFTER", "2m"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Screen.TopN <= 0 {
		return fmt.Errorf("SCREEN_TOP_N must be positive")
	}
	if c.Screen.Workers <= 0 {
		return fmt.Errorf("SCREEN_WORKERS must be positive")
	}
	if c.Screen.MaxPages <= 0 {
		return fmt.Errorf("SCREEN_MAX_PAGES must be positive")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("HTTP_MAX_RETRIES must not be negative")
	}
	if c.Stream.PollInterval <= 0 {
		return fmt.Errorf("STREAM_POLL_INTERVAL must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping blanks and duplicates
func getEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out
}
