package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(nil))

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.AnalysisTimeout)
	assert.Equal(t, 60*time.Second, cfg.FanoutTimeout)
	assert.Equal(t, 8, cfg.FanoutConcurrency)
	assert.Equal(t, 10, cfg.IntakeRateLimit)
	assert.Empty(t, cfg.DatabaseURL)
	assert.False(t, cfg.TrustProxyHeaders)
	assert.False(t, cfg.IsProduction())
}

func TestOverrides(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"APP_ENV":              "production",
		"ANALYSIS_TIMEOUT":     "5s",
		"FANOUT_CONCURRENCY":   "3",
		"CORS_ALLOWED_ORIGINS": "https://a.example.com, ,https://b.example.com",
		"MAIL_PORT":            "2525",
		"MEMORY_USERS":         "b1:buyer:b1@example.com",
		"TRUST_PROXY_HEADERS":  "true",
	}))

	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 5*time.Second, cfg.AnalysisTimeout)
	assert.Equal(t, 3, cfg.FanoutConcurrency)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 2525, cfg.MailPort)
	assert.Equal(t, "b1:buyer:b1@example.com", cfg.MemoryUsers)
	assert.True(t, cfg.TrustProxyHeaders)
}

func TestInvalidValuesAreAllReported(t *testing.T) {
	_, err := FromLookup(lookupFrom(map[string]string{
		"ANALYSIS_TIMEOUT":   "thirty",
		"FANOUT_CONCURRENCY": "0",
		"INTAKE_RATE_LIMIT":  "ten",
	}))

	require.Error(t, err)
	assert.Len(t, multierr.Errors(errorsOf(err)), 3)
	assert.ErrorContains(t, err, "ANALYSIS_TIMEOUT")
	assert.ErrorContains(t, err, "FANOUT_CONCURRENCY")
	assert.ErrorContains(t, err, "INTAKE_RATE_LIMIT")
}

// errorsOf unwraps the "invalid configuration" prefix.
func errorsOf(err error) error {
	if u, ok := err.(interface{ Unwrap() error }); ok {
		return u.Unwrap()
	}
	return err
}
