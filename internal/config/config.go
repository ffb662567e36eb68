package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Firebase  FirebaseConfig
	Storage   StorageConfig
	LLM       LLMConfig
	Providers ProvidersConfig
	RateLimit RateLimitConfig
	Jobs      JobsConfig
	Wallet    WalletConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// Supported document store drivers
const (
	DriverFirestore = "firestore"
	DriverSurrealDB = "surrealdb"
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite"
)

// DatabaseConfig holds document store connection settings
type DatabaseConfig struct {
	Driver string

	// SurrealDB
	Host      string
	Port      string
	Namespace string
	Database  string
	User      string
	Password  string

	// postgres / sqlite
	DSN string
}

// JWTConfig holds JWT signing settings
type JWTConfig struct {
	PrivateKeyPath     string
	PublicKeyPath      string
	ExpirationMins     int
	Issuer             string
	Audience           string
	RefreshTokenExpiry time.Duration
}

// FirebaseConfig holds Firebase project settings shared by Firestore,
// Storage and ID token verification
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
	VerifyIDTokens  bool
}

// Supported blob storage drivers
const (
	StorageGCS = "gcs"
	StorageS3  = "s3"
)

// StorageConfig holds blob storage settings
type StorageConfig struct {
	Driver        string
	Bucket        string
	MaxImageBytes int
	URLTTL        time.Duration

	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string
}

// Supported language model providers
const (
	LLMOpenAI = "openai"
	LLMGemini = "gemini"
)

// LLMConfig holds language model settings
type LLMConfig struct {
	Provider      string
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	GeminiKey     string
	GeminiModel   string
	Timeout       time.Duration
}

// ProvidersConfig holds external data API settings
type ProvidersConfig struct {
	GeocodeKey        string
	GeocodeBaseURL    string
	VedastroBaseURL   string
	NumerologyKey     string
	NumerologyHost    string
	NumerologyBaseURL string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// RateLimitConfig holds inbound request limits
type RateLimitConfig struct {
	Rate              int
	Window            time.Duration
	Burst             int
	TrustForwardedFor bool
}

// JobsConfig holds background job schedules
type JobsConfig struct {
	TokenCleanupInterval time.Duration
	KarmicRetryInterval  time.Duration
	KarmicRetryBatch     int
}

// WalletConfig holds in-app currency rules
type WalletConfig struct {
	DailyChatCost int
	UnlockCost    int
	MaxPurchase   int
}

// Load reads configuration from environment variables with sensible defaults.
// When CONFIG_FILE names a YAML or TOML file its values replace the defaults
// and environment variables still take precedence.
func Load() (*Config, error) {
	src, err := newSource()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Port:           src.getEnv("SERVER_PORT", "8080"),
			Env:            src.getEnv("SERVER_ENV", "development"),
			LogLevel:       src.getEnv("LOG_LEVEL", "info"),
			ReadTimeout:    src.getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   src.getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),
			AllowedOrigins: src.getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Driver:    src.getEnv("DB_DRIVER", DriverFirestore),
			Host:      src.getEnv("DB_HOST", "localhost"),
			Port:      src.getEnv("DB_PORT", "8000"),
			Namespace: src.getEnv("DB_NAMESPACE", "eternal"),
			Database:  src.getEnv("DB_DATABASE", "main"),
			User:      src.getEnv("DB_USER", "root"),
			Password:  src.getEnv("DB_PASSWORD", "root"),
			DSN:       src.getEnv("DB_DSN", ""),
		},
		JWT: JWTConfig{
			PrivateKeyPath:     src.getEnv("JWT_PRIVATE_KEY_PATH", "./keys/private.pem"),
			PublicKeyPath:      src.getEnv("JWT_PUBLIC_KEY_PATH", "./keys/public.pem"),
			ExpirationMins:     src.getIntEnv("JWT_EXPIRATION_MINS", 15),
			Issuer:             src.getEnv("JWT_ISSUER", "api.eternal-ai.app"),
			Audience:           src.getEnv("JWT_AUDIENCE", "eternal-ai-api"),
			RefreshTokenExpiry: src.getDurationEnv("JWT_REFRESH_EXPIRY", 30*24*time.Hour),
		},
		Firebase: FirebaseConfig{
			ProjectID:       src.getEnv("FIREBASE_PROJECT_ID", ""),
			CredentialsFile: src.getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			VerifyIDTokens:  src.getBoolEnv("FIREBASE_VERIFY_ID_TOKENS", false),
		},
		Storage: StorageConfig{
			Driver:        src.getEnv("STORAGE_DRIVER", StorageGCS),
			Bucket:        src.getEnv("STORAGE_BUCKET", ""),
			MaxImageBytes: src.getIntEnv("MAX_IMAGE_BYTES", 1<<20),
			URLTTL:        src.getDurationEnv("STORAGE_URL_TTL", 7*24*time.Hour),
			S3Endpoint:    src.getEnv("S3_ENDPOINT", ""),
			S3Region:      src.getEnv("S3_REGION", "us-east-1"),
			S3AccessKey:   src.getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey:   src.getEnv("S3_SECRET_KEY", ""),
			S3PublicURL:   src.getEnv("S3_PUBLIC_URL", ""),
		},
		LLM: LLMConfig{
			Provider:      src.getEnv("LLM_PROVIDER", LLMOpenAI),
			OpenAIKey:     src.getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: src.getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OpenAIModel:   src.getEnv("OPENAI_MODEL", "gpt-4o"),
			GeminiKey:     src.getEnv("GEMINI_API_KEY", ""),
			GeminiModel:   src.getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			Timeout:       src.getDurationEnv("LLM_TIMEOUT", 90*time.Second),
		},
		Providers: ProvidersConfig{
			GeocodeKey:        src.getEnv("GEOCODE_API_KEY", ""),
			GeocodeBaseURL:    src.getEnv("GEOCODE_BASE_URL", "https://maps.googleapis.com/maps/api/geocode/json"),
			VedastroBaseURL:   src.getEnv("VEDASTRO_BASE_URL", "https://api.vedastro.org/api/Calculate"),
			NumerologyKey:     src.getEnv("NUMEROLOGY_API_KEY", ""),
			NumerologyHost:    src.getEnv("NUMEROLOGY_API_HOST", "the-numerology-api.p.rapidapi.com"),
			NumerologyBaseURL: src.getEnv("NUMEROLOGY_BASE_URL", "https://the-numerology-api.p.rapidapi.com"),
			Timeout:           src.getDurationEnv("PROVIDER_TIMEOUT", 30*time.Second),
			RequestsPerSecond: src.getFloatEnv("PROVIDER_RPS", 5),
			Burst:             src.getIntEnv("PROVIDER_BURST", 10),
		},
		RateLimit: RateLimitConfig{
			Rate:   src.getIntEnv("RATE_LIMIT_RATE", 100),
			Window: src.getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
			Burst:  src.getIntEnv("RATE_LIMIT_BURST", 20),

			TrustForwardedFor: src.getBoolEnv("RATE_LIMIT_TRUST_FORWARDED", false),
		},
		Jobs: JobsConfig{
			TokenCleanupInterval: src.getDurationEnv("JOB_TOKEN_CLEANUP_INTERVAL", 6*time.Hour),
			KarmicRetryInterval:  src.getDurationEnv("JOB_KARMIC_RETRY_INTERVAL", 30*time.Minute),
			KarmicRetryBatch:     src.getIntEnv("JOB_KARMIC_RETRY_BATCH", 10),
		},
		Wallet: WalletConfig{
			DailyChatCost: src.getIntEnv("WALLET_DAILY_CHAT_COST", 10),
			UnlockCost:    src.getIntEnv("WALLET_UNLOCK_COST", 20),
			MaxPurchase:   src.getIntEnv("WALLET_MAX_PURCHASE", 10000),
		},
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}

	if err := c.Database.Validate(c.Firebase); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}

	// JWT validation - critical for production
	if c.IsProduction() {
		if c.JWT.PrivateKeyPath == "" {
			errs = append(errs, errors.New("JWT_PRIVATE_KEY_PATH is required in production"))
		}
		if c.JWT.PublicKeyPath == "" {
			errs = append(errs, errors.New("JWT_PUBLIC_KEY_PATH is required in production"))
		}
	}
	if c.JWT.ExpirationMins <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_MINS must be positive"))
	}

	if c.Firebase.VerifyIDTokens && c.Firebase.ProjectID == "" {
		errs = append(errs, errors.New("FIREBASE_PROJECT_ID is required when FIREBASE_VERIFY_ID_TOKENS is true"))
	}

	if c.Storage.IsConfigured() {
		if err := c.Storage.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c.Storage.MaxImageBytes <= 0 {
		errs = append(errs, errors.New("MAX_IMAGE_BYTES must be positive"))
	}

	switch c.LLM.Provider {
	case LLMOpenAI, LLMGemini:
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER must be '%s' or '%s', got '%s'", LLMOpenAI, LLMGemini, c.LLM.Provider))
	}
	if c.IsProduction() && !c.LLM.IsConfigured() {
		errs = append(errs, fmt.Errorf("LLM: %w", c.LLM.Validate()))
	}

	if c.Providers.RequestsPerSecond <= 0 {
		errs = append(errs, errors.New("PROVIDER_RPS must be positive"))
	}
	if c.RateLimit.Rate <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RATE must be positive"))
	}

	if c.Wallet.DailyChatCost < 0 || c.Wallet.UnlockCost < 0 {
		errs = append(errs, errors.New("wallet costs must not be negative"))
	}
	if c.Wallet.MaxPurchase <= 0 {
		errs = append(errs, errors.New("WALLET_MAX_PURCHASE must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the settings required by the selected driver
func (d DatabaseConfig) Validate(fb FirebaseConfig) error {
	var missing []string
	switch d.Driver {
	case DriverFirestore:
		if fb.ProjectID == "" {
			missing = append(missing, "FIREBASE_PROJECT_ID")
		}
	case DriverSurrealDB:
		if d.Host == "" {
			missing = append(missing, "DB_HOST")
		}
		if d.Port == "" {
			missing = append(missing, "DB_PORT")
		}
		if d.Namespace == "" {
			missing = append(missing, "DB_NAMESPACE")
		}
		if d.Database == "" {
			missing = append(missing, "DB_DATABASE")
		}
	case DriverPostgres, DriverSQLite:
		if d.DSN == "" {
			missing = append(missing, "DB_DSN")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be one of %s, %s, %s, %s, got '%s'",
			DriverFirestore, DriverSurrealDB, DriverPostgres, DriverSQLite, d.Driver)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// IsConfigured returns true if a bucket is set
func (s StorageConfig) IsConfigured() bool {
	return s.Bucket != ""
}

// Validate checks that all required storage fields are present
func (s StorageConfig) Validate() error {
	var missing []string
	switch s.Driver {
	case StorageGCS:
	case StorageS3:
		if s.S3AccessKey == "" {
			missing = append(missing, "S3_ACCESS_KEY")
		}
		if s.S3SecretKey == "" {
			missing = append(missing, "S3_SECRET_KEY")
		}
		if s.S3Region == "" {
			missing = append(missing, "S3_REGION")
		}
		if s.S3PublicURL == "" && s.URLTTL > 7*24*time.Hour {
			return fmt.Errorf("STORAGE_URL_TTL must not exceed 168h for presigned S3 URLs, got %s", s.URLTTL)
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be '%s' or '%s', got '%s'", StorageGCS, StorageS3, s.Driver)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// IsConfigured returns true if the selected provider has a key
func (l LLMConfig) IsConfigured() bool {
	if l.Provider == LLMGemini {
		return l.GeminiKey != ""
	}
	return l.OpenAIKey != ""
}

// Validate checks that the selected provider has its key
func (l LLMConfig) Validate() error {
	if l.IsConfigured() {
		return nil
	}
	if l.Provider == LLMGemini {
		return errors.New("missing required fields: GEMINI_API_KEY")
	}
	return errors.New("missing required fields: OPENAI_API_KEY")
}

// NumerologyConfigured returns true if the numerology API key is set
func (p ProvidersConfig) NumerologyConfigured() bool {
	return p.NumerologyKey != ""
}
