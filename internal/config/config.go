package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Scraper  ScraperConfig
	Browser  BrowserConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Logging  LoggingConfig
}

// ScraperConfig carries the per-product extraction knobs. MinCanonicalSize is
// the floor enforced on CanonicalSize regardless of what the caller asks for.
type ScraperConfig struct {
	MarketplaceURL   string
	CanonicalSize    int
	ProbeTargetPx    int
	AllowHover       bool
	Thorough         bool
	SaveImages       bool
	ImagesDir        string
	InterProductWait time.Duration
	Retries          int
	PageLoadTimeout  time.Duration
	ReadyWaitTimeout time.Duration
}

const MinCanonicalSize = 200

type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Enabled reports whether Postgres persistence is configured at all.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	SeenTTL  time.Duration
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Scraper: ScraperConfig{
			MarketplaceURL:   getEnvOrDefault("SCRAPER_MARKETPLACE_URL", "https://www.amazon.in"),
			CanonicalSize:    getIntOrDefault("SCRAPER_CANONICAL_SIZE", 1200),
			ProbeTargetPx:    getIntOrDefault("SCRAPER_PROBE_TARGET_PX", 0),
			AllowHover:       getBoolOrDefault("SCRAPER_ALLOW_HOVER", false),
			Thorough:         getBoolOrDefault("SCRAPER_THOROUGH", false),
			SaveImages:       getBoolOrDefault("SCRAPER_SAVE_IMAGES", false),
			ImagesDir:        getEnvOrDefault("SCRAPER_IMAGES_DIR", "images"),
			InterProductWait: getDurationOrDefault("SCRAPER_INTER_PRODUCT_WAIT", 400*time.Millisecond),
			Retries:          getIntOrDefault("SCRAPER_RETRIES", 1),
			PageLoadTimeout:  getDurationOrDefault("SCRAPER_PAGE_LOAD_TIMEOUT", 45*time.Second),
			ReadyWaitTimeout: getDurationOrDefault("SCRAPER_READY_WAIT_TIMEOUT", 20*time.Second),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 45*time.Second),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "en-IN,en;q=0.9"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "Asia/Kolkata"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "en-IN"),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", ""),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			DBName:   getEnvOrDefault("DB_NAME", "pdp_scraper"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", ""),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
			SeenTTL:  getDurationOrDefault("REDIS_SEEN_TTL", 24*time.Hour),
		},
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Scraper.CanonicalSize < MinCanonicalSize {
		c.Scraper.CanonicalSize = MinCanonicalSize
	}
	if c.Scraper.ProbeTargetPx < 0 {
		c.Scraper.ProbeTargetPx = 0
	}
	if c.Scraper.Retries < 0 {
		return fmt.Errorf("SCRAPER_RETRIES cannot be negative")
	}
	if c.Scraper.InterProductWait < 0 {
		return fmt.Errorf("SCRAPER_INTER_PRODUCT_WAIT cannot be negative")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
