package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadObservabilitySettings(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "HTTP")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.5")
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://shop.example.com, ,https://admin.example.com")

	cfg := Load()

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.OTelEnabled)
	assert.Equal(t, "collector:4318", cfg.OTLPEndpoint)
	assert.Equal(t, "http", cfg.OTLPProtocol)
	assert.Equal(t, 0.5, cfg.OTelSamplingRatio)
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.Debug())
}

func TestLoadOTelDisabledOutsideProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTLP_ENDPOINT", "otel:4317")

	cfg := Load()

	assert.False(t, cfg.OTelEnabled)
	assert.Equal(t, "otel:4317", cfg.OTLPEndpoint)
	assert.True(t, cfg.Debug())

	t.Setenv("OTEL_ENABLED", "true")
	assert.True(t, Load().OTelEnabled)
}

func TestDebugFollowsLogLevel(t *testing.T) {
	assert.True(t, Config{Environment: "production", LogLevel: "debug"}.Debug())
	assert.False(t, Config{Environment: "staging", LogLevel: "info"}.Debug())
}
