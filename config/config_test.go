package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func base() map[string]string {
	return map[string]string{
		"DATABASE_URL":   "postgres://localhost/draw",
		"JWT_SECRET_KEY": "secret",
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(env(base()))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 5.0, cfg.RateLimitRPS)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.Equal(t, time.UTC, cfg.ScheduleLocation)
	assert.Empty(t, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.R2BucketName)
	assert.False(t, cfg.AutoMigrate)
}

func TestFromEnv_Overrides(t *testing.T) {
	values := base()
	values["SERVER_PORT"] = "9090"
	values["CORS_ALLOWED_ORIGINS"] = "https://tab.example.org, ,http://localhost:3000"
	values["RATE_LIMIT_RPS"] = "0.5"
	values["RATE_LIMIT_BURST"] = "3"
	values["SCHEDULE_TIMEZONE"] = "Europe/London"
	values["R2_BUCKET_NAME"] = "draws"
	values["R2_ENDPOINT"] = "http://localhost:9000"
	values["AUTO_MIGRATE"] = "true"

	cfg, err := FromEnv(env(values))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, []string{"https://tab.example.org", "http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 0.5, cfg.RateLimitRPS)
	assert.Equal(t, 3, cfg.RateLimitBurst)
	assert.Equal(t, "Europe/London", cfg.ScheduleLocation.String())
	assert.Equal(t, "draws", cfg.R2BucketName)
	assert.Equal(t, "http://localhost:9000", cfg.R2Endpoint)
	assert.True(t, cfg.AutoMigrate)
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "no database", key: "DATABASE_URL", val: ""},
		{name: "no secret", key: "JWT_SECRET_KEY", val: ""},
		{name: "port not a number", key: "SERVER_PORT", val: "http"},
		{name: "port out of range", key: "SERVER_PORT", val: "70000"},
		{name: "bad rps", key: "RATE_LIMIT_RPS", val: "fast"},
		{name: "negative burst", key: "RATE_LIMIT_BURST", val: "-1"},
		{name: "unknown zone", key: "SCHEDULE_TIMEZONE", val: "Mars/Olympus"},
		{name: "bad bool", key: "AUTO_MIGRATE", val: "sometimes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := base()
			values[tt.key] = tt.val
			_, err := FromEnv(env(values))
			assert.Error(t, err)
		})
	}
}
