package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures process-level configuration. Values come from the
// environment so main stays lean; the trace core itself never reads env
// vars (depth and thresholds are call parameters).
type Config struct {
	Addr          string
	Environment   string
	JWTSigningKey string

	Registry  Registry
	Trace     Trace
	RateLimit RateLimit
	Redis     Redis
	Postgres  Postgres
	Export    Export
}

// Registry configures the outbound Sunbiz client and crawl pacing.
type Registry struct {
	BaseURL          string
	RequestDelay     time.Duration
	RequestTimeout   time.Duration
	ThrottlePause    time.Duration
	MaxResponseBytes int64
}

// Trace holds crawl defaults; callers may override both thresholds per
// request.
type Trace struct {
	DefaultMaxDepth  int
	NameThreshold    float64
	AddressThreshold float64
}

// RateLimit holds per-route request budgets for the public API surface.
// Production budgets are deliberately tighter than development ones.
type RateLimit struct {
	Window          time.Duration
	AnalyzePerMin   int
	OwnershipPerMin int
	ExportPerMin    int
	DefaultPerMin   int
}

// Redis configures the optional Redis-backed rate limit store.
type Redis struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Postgres configures the optional report archive store.
type Postgres struct {
	URL string
}

// Export configures where generated report files land.
type Export struct {
	Dir string
}

// FromEnv builds a Config from environment variables with development
// defaults.
func FromEnv() Config {
	env := getenv("ENVIRONMENT", "development")

	cfg := Config{
		Addr:          getenv("LEDGERTRACE_ADDR", ":8080"),
		Environment:   env,
		JWTSigningKey: getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Registry: Registry{
			BaseURL:          getenv("SUNBIZ_BASE_URL", "https://search.sunbiz.org"),
			RequestDelay:     duration("SUNBIZ_REQUEST_DELAY", 2*time.Second),
			RequestTimeout:   duration("SUNBIZ_REQUEST_TIMEOUT", 15*time.Second),
			ThrottlePause:    duration("SUNBIZ_THROTTLE_PAUSE", 10*time.Second),
			MaxResponseBytes: 1 << 20,
		},
		Trace: Trace{
			DefaultMaxDepth:  integer("TRACE_DEFAULT_MAX_DEPTH", 5),
			NameThreshold:    0.85,
			AddressThreshold: 0.80,
		},
		RateLimit: RateLimit{
			Window:          time.Minute,
			AnalyzePerMin:   10,
			OwnershipPerMin: 3,
			ExportPerMin:    5,
			DefaultPerMin:   20,
		},
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Postgres: Postgres{
			URL: os.Getenv("DATABASE_URL"),
		},
		Export: Export{
			Dir: getenv("EXPORT_DIR", "exports"),
		},
	}

	// Stricter budgets in production; the crawl endpoint is the most
	// expensive operation in the system.
	if env == "production" {
		cfg.RateLimit.AnalyzePerMin = 3
		cfg.RateLimit.OwnershipPerMin = 1
		cfg.RateLimit.ExportPerMin = 2
		cfg.RateLimit.DefaultPerMin = 5
	}

	return cfg
}

// IsProduction reports whether the process runs with production settings.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func integer(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
