package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// source resolves a setting from the environment first and then from the
// optional config file. File keys are flattened so that
//
//	database:
//	  driver: sqlite
//
// satisfies the DB_DRIVER lookup through the flattened DATABASE_DRIVER key.
// A file may also use the environment names directly (DB_DRIVER: sqlite).
type source struct {
	file map[string]string
}

func newSource() (*source, error) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		return &source{file: map[string]string{}}, nil
	}
	values, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	return &source{file: values}, nil
}

// loadFile parses a YAML or TOML config file into flattened upper-case keys
func loadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	raw := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse yaml config: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse toml config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}

	out := map[string]string{}
	flatten("", raw, out)
	return out, nil
}

func flatten(prefix string, in map[string]any, out map[string]string) {
	for k, v := range in {
		key := strings.ToUpper(k)
		if prefix != "" {
			key = prefix + "_" + key
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case []any:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				parts = append(parts, fmt.Sprint(item))
			}
			out[key] = strings.Join(parts, ",")
		case nil:
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// fileAliases maps section prefixes used in config files onto the
// environment variable prefixes.
var fileAliases = map[string]string{
	"DB_":       "DATABASE_",
	"S3_":       "STORAGE_S3_",
	"OPENAI_":   "LLM_OPENAI_",
	"GEMINI_":   "LLM_GEMINI_",
	"JOB_":      "JOBS_",
	"PROVIDER_": "PROVIDERS_",
}

func (s *source) lookup(key string) (string, bool) {
	if value := os.Getenv(key); value != "" {
		return value, true
	}
	if value, ok := s.file[key]; ok && value != "" {
		return value, true
	}
	for envPrefix, filePrefix := range fileAliases {
		if strings.HasPrefix(key, envPrefix) {
			if value, ok := s.file[filePrefix+strings.TrimPrefix(key, envPrefix)]; ok && value != "" {
				return value, true
			}
		}
	}
	return "", false
}

// Helper functions for reading settings

func (s *source) getEnv(key, defaultValue string) string {
	if value, ok := s.lookup(key); ok {
		return value
	}
	return defaultValue
}

func (s *source) getIntEnv(key string, defaultValue int) int {
	if value, ok := s.lookup(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func (s *source) getFloatEnv(key string, defaultValue float64) float64 {
	if value, ok := s.lookup(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func (s *source) getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value, ok := s.lookup(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func (s *source) getSliceEnv(key string, defaultValue []string) []string {
	if value, ok := s.lookup(key); ok {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func (s *source) getBoolEnv(key string, defaultValue bool) bool {
	if value, ok := s.lookup(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
