package bootstrap

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eternal-ai/api/internal/config"
	"github.com/eternal-ai/api/internal/database"
)

func testConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverSQLite, DSN: ":memory:"},
		LLM:      config.LLMConfig{Provider: config.LLMOpenAI, Timeout: time.Second},
		Providers: config.ProvidersConfig{
			Timeout:           time.Second,
			RequestsPerSecond: 5,
			Burst:             1,
		},
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}

func TestNeedsFirebase(t *testing.T) {
	cfg := testConfig()
	assert.False(t, NeedsFirebase(cfg))

	cfg.Firebase.VerifyIDTokens = true
	assert.True(t, NeedsFirebase(cfg))

	cfg = testConfig()
	cfg.Database.Driver = config.DriverFirestore
	assert.True(t, NeedsFirebase(cfg))
}

func TestOpenStore_SQLiteIsMigrated(t *testing.T) {
	ctx := context.Background()
	store, err := OpenStore(ctx, testConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Set(ctx, "users", "u1", database.Document{"email": "a@example.com"}))
	doc, err := store.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", doc["email"])
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.Database.Driver = "mongodb"

	_, err := OpenStore(context.Background(), cfg, nil)

	assert.ErrorContains(t, err, "unknown database driver")
}

func TestOpenBlobs_Unconfigured(t *testing.T) {
	blobs, closeBlobs, err := OpenBlobs(context.Background(), testConfig())

	require.NoError(t, err)
	assert.Nil(t, blobs)
	closeBlobs()
}

func TestNewProviders_GeminiFallsBackWithoutKey(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.Provider = config.LLMGemini

	p := NewProviders(context.Background(), cfg)

	assert.Same(t, p.OpenAI, p.LLM)
}

func TestProviders_Status(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.OpenAIKey = "sk-test"
	p := NewProviders(context.Background(), cfg)

	status := p.Status(cfg, nil)

	assert.Equal(t, map[string]bool{
		"llm":        true,
		"llmProxy":   true,
		"geocoder":   false,
		"numerology": false,
		"storage":    false,
	}, status)
}
