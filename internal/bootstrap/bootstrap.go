// Package bootstrap builds the infrastructure shared by the server and the
// operator CLI from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/eternal-ai/api/internal/config"
	"github.com/eternal-ai/api/internal/database"
	"github.com/eternal-ai/api/internal/provider"
	"github.com/eternal-ai/api/internal/service"
	"github.com/eternal-ai/api/internal/storage"
)

// ParseLogLevel maps LOG_LEVEL to a slog level, defaulting to info
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func googleOptions(cfg config.FirebaseConfig) []option.ClientOption {
	if cfg.CredentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}
}

// NeedsFirebase reports whether any component talks to the Firebase project
func NeedsFirebase(cfg *config.Config) bool {
	return cfg.Database.Driver == config.DriverFirestore || cfg.Firebase.VerifyIDTokens
}

// NewFirebaseApp creates the Firebase app for the configured project
func NewFirebaseApp(ctx context.Context, cfg config.FirebaseConfig) (*firebase.App, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, googleOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	return app, nil
}

// OpenStore connects the document store selected by DB_DRIVER. SQL stores
// are migrated before use.
func OpenStore(ctx context.Context, cfg *config.Config, app *firebase.App) (database.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverFirestore:
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: firestore: %v", database.ErrConnection, err)
		}
		return database.NewFirestoreStore(client), nil

	case config.DriverSurrealDB:
		store := database.NewSurrealDB(database.Config{
			Host:      cfg.Database.Host,
			Port:      cfg.Database.Port,
			User:      cfg.Database.User,
			Password:  cfg.Database.Password,
			Namespace: cfg.Database.Namespace,
			Database:  cfg.Database.Database,
		})
		if err := store.Connect(ctx); err != nil {
			return nil, err
		}
		return store, nil

	case config.DriverPostgres, config.DriverSQLite:
		dialect := database.DialectPostgres
		if cfg.Database.Driver == config.DriverSQLite {
			dialect = database.DialectSQLite
		}
		store, err := database.OpenSQL(dialect, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}

// OpenBlobs returns a nil store when no bucket is configured, which makes image
// uploads fail with a not configured error
func OpenBlobs(ctx context.Context, cfg *config.Config) (service.BlobStore, func(), error) {
	if !cfg.Storage.IsConfigured() {
		return nil, func() {}, nil
	}

	if cfg.Storage.Driver == config.StorageS3 {
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.S3Region,
			Endpoint:  cfg.Storage.S3Endpoint,
			AccessKey: cfg.Storage.S3AccessKey,
			SecretKey: cfg.Storage.S3SecretKey,
			URLTTL:    cfg.Storage.URLTTL,
			PublicURL: cfg.Storage.S3PublicURL,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}

	client, err := gcs.NewClient(ctx, googleOptions(cfg.Firebase)...)
	if err != nil {
		return nil, nil, fmt.Errorf("gcs client: %w", err)
	}
	return storage.NewGCSStore(client, cfg.Storage.Bucket), func() { _ = client.Close() }, nil
}

// Providers holds the upstream API clients
type Providers struct {
	// LLM is the model selected by LLM_PROVIDER
	LLM        service.LLM
	OpenAI     *provider.OpenAI
	Geocoder   *provider.Geocoder
	Astrology  *provider.Astrology
	Numerology *provider.Numerology
}

// NewProviders builds every upstream client. Each has its own limiter so a
// slow API cannot starve the others.
func NewProviders(ctx context.Context, cfg *config.Config) *Providers {
	limiter := func() *provider.RateLimiter {
		return provider.NewRateLimiter(cfg.Providers.RequestsPerSecond, cfg.Providers.Burst)
	}

	p := &Providers{
		OpenAI: provider.NewOpenAI(provider.OpenAIConfig{
			BaseURL: cfg.LLM.OpenAIBaseURL,
			APIKey:  cfg.LLM.OpenAIKey,
			Model:   cfg.LLM.OpenAIModel,
			Timeout: cfg.LLM.Timeout,
			Limiter: limiter(),
		}),
		Geocoder: provider.NewGeocoder(provider.GeocoderConfig{
			Endpoint: cfg.Providers.GeocodeBaseURL,
			APIKey:   cfg.Providers.GeocodeKey,
			Timeout:  cfg.Providers.Timeout,
			Limiter:  limiter(),
		}),
		Astrology: provider.NewAstrology(provider.AstrologyConfig{
			BaseURL: cfg.Providers.VedastroBaseURL,
			Timeout: cfg.Providers.Timeout,
			Limiter: limiter(),
		}),
		Numerology: provider.NewNumerology(provider.NumerologyConfig{
			BaseURL: cfg.Providers.NumerologyBaseURL,
			Host:    cfg.Providers.NumerologyHost,
			APIKey:  cfg.Providers.NumerologyKey,
			Timeout: cfg.Providers.Timeout,
			Limiter: limiter(),
		}),
	}
	p.LLM = p.OpenAI

	if cfg.LLM.Provider == config.LLMGemini {
		gemini, err := provider.NewGemini(ctx, provider.GeminiConfig{
			APIKey:  cfg.LLM.GeminiKey,
			Model:   cfg.LLM.GeminiModel,
			Timeout: cfg.LLM.Timeout,
			Limiter: limiter(),
		})
		if err != nil {
			slog.Warn("gemini unavailable, falling back to openai", slog.String("error", err.Error()))
		} else {
			p.LLM = gemini
		}
	}
	return p
}

// Status reports which optional integrations are usable
func (p *Providers) Status(cfg *config.Config, blobs service.BlobStore) map[string]bool {
	return map[string]bool{
		"llm":        p.LLM.Configured(),
		"llmProxy":   p.OpenAI.Configured(),
		"geocoder":   cfg.Providers.GeocodeKey != "",
		"numerology": p.Numerology.Configured(),
		"storage":    blobs != nil,
	}
}
