package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_NAME", "vendas")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("LUCRO_PERCENTUAL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultJWTSecret, cfg.Token.Secret)
	assert.Equal(t, 8*time.Hour, cfg.Token.TTL)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, DefaultProfitMargin, cfg.ProfitMargin)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func margin(t *testing.T) float64 {
	t.Helper()
	cfg, err := Load()
	require.NoError(t, err)
	return cfg.ProfitMargin
}

func TestLoadMarginOutOfRangeFallsBack(t *testing.T) {
	setRequired(t)

	t.Setenv("LUCRO_PERCENTUAL", "1.5")
	assert.Equal(t, DefaultProfitMargin, margin(t))

	t.Setenv("LUCRO_PERCENTUAL", "-0.1")
	assert.Equal(t, DefaultProfitMargin, margin(t))

	t.Setenv("LUCRO_PERCENTUAL", "0.4")
	assert.Equal(t, 0.4, margin(t))
}

func TestLoadReportsEveryMissingVar(t *testing.T) {
	t.Setenv("DB_USER", "")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_NAME", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_USER")
	assert.Contains(t, err.Error(), "DB_NAME")
	assert.NotContains(t, err.Error(), "DB_HOST")
}

func TestClampMarginBounds(t *testing.T) {
	assert.Equal(t, 0.0, ClampMargin(0))
	assert.Equal(t, 1.0, ClampMargin(1))
	assert.Equal(t, DefaultProfitMargin, ClampMargin(1.0001))
}

func TestLoadRateLimitConfigNormalises(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	rl := LoadRateLimitConfig()

	assert.Equal(t, 1, rl.Capacity)
	assert.Equal(t, 10*time.Second, rl.TTL)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, splitList(" http://a , ,http://b"))
	assert.Nil(t, splitList(""))
}

func TestRateLimitByAddressDropsUser(t *testing.T) {
	cases := map[string]string{
		"user":          "ip",
		"ip":            "ip",
		"user_route":    "ip_route",
		"ip_user":       "ip_route",
		"ip_user_route": "ip_route",
	}
	for in, want := range cases {
		rl := RateLimitConfig{KeyStrategy: in, Capacity: 5}
		got := rl.ByAddress()
		assert.Equal(t, want, got.KeyStrategy, in)
		assert.Equal(t, 5, got.Capacity)
		assert.Equal(t, in, rl.KeyStrategy)
	}
}
