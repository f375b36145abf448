package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var modelsYAML []byte

// DefaultModel is the recognition model assumed when EMBEDDING_MODEL is unset.
// Centroids and incoming embeddings must come from the same model.
const DefaultModel = "buffalo_l"

type Config struct {
	Matcher  MatcherConfig
	Session  SessionConfig
	Database DatabaseConfig
	Web      WebConfig
	Models   ModelsConfig
}

type MatcherConfig struct {
	Model     string  // recognition model name, keys into Models
	Dim       int     // embedding dimension
	Threshold float64 // maximum cosine distance for an accepted match
}

type SessionConfig struct {
	RepeatCooldown time.Duration // minimum time between ledger hits per identity
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type WebConfig struct {
	APIToken string // bearer token required by the HTTP API (empty disables auth)
}

// ModelsConfig holds per-model embedding defaults loaded from the embedded
// models.yaml.
type ModelsConfig struct {
	Models map[string]ModelDefaults `yaml:"models"`
}

// ModelDefaults are the embedding dimension and match threshold known to
// work for a recognition model.
type ModelDefaults struct {
	Dim       int     `yaml:"dim"`
	Threshold float64 `yaml:"threshold"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func Load() *Config {
	var models ModelsConfig
	if err := yaml.Unmarshal(modelsYAML, &models); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded models.yaml: " + err.Error())
	}

	model := os.Getenv("EMBEDDING_MODEL")
	if model == "" {
		model = DefaultModel
	}
	defaults := models.Models[model]

	return &Config{
		Matcher: MatcherConfig{
			Model:     model,
			Dim:       envInt("EMBEDDING_DIM", defaults.Dim),
			Threshold: envFloat("MATCH_THRESHOLD", defaults.Threshold),
		},
		Session: SessionConfig{
			RepeatCooldown: time.Duration(envInt("CHECKIN_COOLDOWN_SECONDS", 600)) * time.Second,
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Web: WebConfig{
			APIToken: os.Getenv("WEB_API_TOKEN"),
		},
		Models: models,
	}
}

// ModelDefaults returns the embedded defaults for a model name, with zero
// values when the model is unknown.
func (c *Config) ModelDefaults(model string) ModelDefaults {
	if defaults, ok := c.Models.Models[model]; ok {
		return defaults
	}
	return ModelDefaults{}
}
