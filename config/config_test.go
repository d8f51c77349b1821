package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "EGP", cfg.Pricing.Currency)
	assert.Equal(t, 48*time.Hour, cfg.Pricing.QuoteTTL)
	assert.Equal(t, int64(1000), cfg.Loyalty.MinorUnitsPerPoint)
	assert.Equal(t, "*/15 * * * *", cfg.Cron.QuoteExpiry)
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	yml := []byte(`
database:
  host: db.internal
  port: 6543
pricing:
  currency: USD
  quote_ttl: 24h
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), yml, 0o600))
	t.Setenv("CLEANING_DATABASE_HOST", "override.internal")
	t.Setenv("CLEANING_PRICING_QUOTE_TTL", "12h")
	t.Setenv("CLEANING_RATE_LIMIT_BURST", "5")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "override.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "USD", cfg.Pricing.Currency)
	assert.Equal(t, 12*time.Hour, cfg.Pricing.QuoteTTL)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Contains(t, cfg.Database.DSN(), "host=override.internal port=6543")
}

func TestValidate(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	cfg.Pricing.MaxAdvanceBooking = cfg.Pricing.MinAdvanceBooking
	assert.Error(t, cfg.Validate())

	cfg, _ = LoadConfig(t.TempDir())
	cfg.Loyalty.MinorUnitsPerPoint = 0
	assert.Error(t, cfg.Validate())
}
