// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

type Config struct {
	AppEnv    string
	Port      string
	LogLevel  string
	LogFormat string

	DatabaseURL string
	// MemoryUsers seeds the user directory when DatabaseURL is empty.
	MemoryUsers string
	RabbitMQURL string
	RedisURL    string

	MailHost string
	MailPort int
	MailUser string
	MailPass string
	MailFrom string

	ClassifierURL    string
	ClassifierAPIKey string
	ClassifierModel  string
	AnalysisTimeout  time.Duration

	PublicBaseURL      string
	CORSAllowedOrigins []string
	IntakeRateLimit    int
	TrustProxyHeaders  bool

	FanoutConcurrency int
	FanoutTimeout     time.Duration
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads an optional .env file and then the process environment.
// Every invalid value is reported, not just the first.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from any environment lookup function.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	r := reader{lookup: lookup}

	cfg := &Config{
		AppEnv:    r.str("APP_ENV", "development"),
		Port:      r.str("PORT", "8080"),
		LogLevel:  r.str("LOG_LEVEL", "info"),
		LogFormat: r.str("LOG_FORMAT", "json"),

		DatabaseURL: r.str("DATABASE_URL", ""),
		MemoryUsers: r.str("MEMORY_USERS", ""),
		RabbitMQURL: r.str("RABBITMQ_URL", ""),
		RedisURL:    r.str("REDIS_URL", ""),

		MailHost: r.str("MAIL_HOST", ""),
		MailPort: r.integer("MAIL_PORT", 587),
		MailUser: r.str("MAIL_USER", ""),
		MailPass: r.str("MAIL_PASS", ""),
		MailFrom: r.str("MAIL_FROM", "no-reply@localhost"),

		ClassifierURL:    r.str("CLASSIFIER_URL", "https://api.openai.com/v1"),
		ClassifierAPIKey: r.str("CLASSIFIER_API_KEY", ""),
		ClassifierModel:  r.str("CLASSIFIER_MODEL", ""),
		AnalysisTimeout:  r.duration("ANALYSIS_TIMEOUT", 30*time.Second),

		PublicBaseURL:      r.str("PUBLIC_BASE_URL", "http://localhost:8080"),
		CORSAllowedOrigins: r.list("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		IntakeRateLimit:    r.integer("INTAKE_RATE_LIMIT", 10),
		TrustProxyHeaders:  r.boolean("TRUST_PROXY_HEADERS", false),

		FanoutConcurrency: r.integer("FANOUT_CONCURRENCY", 8),
		FanoutTimeout:     r.duration("FANOUT_TIMEOUT", 60*time.Second),
	}

	if cfg.IntakeRateLimit < 0 {
		r.fail("INTAKE_RATE_LIMIT", "must not be negative")
	}
	if cfg.FanoutConcurrency < 1 {
		r.fail("FANOUT_CONCURRENCY", "must be at least 1")
	}
	if cfg.AnalysisTimeout <= 0 {
		r.fail("ANALYSIS_TIMEOUT", "must be positive")
	}
	if cfg.FanoutTimeout <= 0 {
		r.fail("FANOUT_TIMEOUT", "must be positive")
	}

	if r.errs != nil {
		return nil, fmt.Errorf("invalid configuration: %w", r.errs)
	}
	return cfg, nil
}

type reader struct {
	lookup func(string) (string, bool)
	errs   error
}

func (r *reader) fail(key, msg string) {
	r.errs = multierr.Append(r.errs, fmt.Errorf("%s %s", key, msg))
}

func (r *reader) str(key, def string) string {
	if v, ok := r.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *reader) integer(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, fmt.Sprintf("must be an integer, got %q", v))
		return def
	}
	return n
}

func (r *reader) boolean(key string, def bool) bool {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, fmt.Sprintf("must be true or false, got %q", v))
		return def
	}
	return b
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, fmt.Sprintf("must be a duration like 30s, got %q", v))
		return def
	}
	return d
}

func (r *reader) list(key string, def []string) []string {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
