// Package config manages application configuration for the Eternal AI API.
//
// Configuration is read from environment variables. When CONFIG_FILE points
// at a YAML or TOML file, its values act as defaults underneath the
// environment:
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// # Configuration Groups
//
//   - ServerConfig: HTTP server settings (port, timeouts, CORS)
//   - DatabaseConfig: document store driver and connection
//   - JWTConfig: access token signing
//   - FirebaseConfig: project shared by Firestore, Storage and ID tokens
//   - StorageConfig: blob storage for uploaded images
//   - LLMConfig: language model provider
//   - ProvidersConfig: geocoding, astrology and numerology APIs
//   - RateLimitConfig, JobsConfig, WalletConfig
//
// # Environment Variables
//
// Key environment variables:
//
//	DB_DRIVER          - firestore, surrealdb, postgres or sqlite
//	DB_DSN             - connection string for postgres and sqlite
//	STORAGE_DRIVER     - gcs or s3
//	LLM_PROVIDER       - openai or gemini
//	OPENAI_API_KEY     - key for the OpenAI-compatible endpoint
//	NUMEROLOGY_API_KEY - RapidAPI key for the numerology API
//	GEOCODE_API_KEY    - maps geocoding key
package config
