package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds global settings for the ScamWatch gateway.
// All settings can be configured via environment variables or programmatically.
type Config struct {
	// === Core Settings ===
	AppName string
	Port    string // HTTP listen port for "serve" mode

	// === Model Artifacts ===
	ModelVersion     string // Version id used for artifact keys (default: "v1")
	LocalArtifactDir string // Local artifact directory, preferred over remote store when present

	// === Artifact Object Store ===
	ArtifactBucket string // Bucket holding model_<version>/ artifact objects
	S3EndpointURL  string // Custom endpoint (minio etc.); empty = AWS default
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string

	// === Artifact Cache ===
	RedisAddr string // Optional redis address for caching fetched artifact bytes ("" = disabled)

	// === Rule Engine ===
	RulesPath string // Optional YAML rule-set file; empty = built-in rules

	// === Load Shedding ===
	MaxInFlight int // Cap on concurrent detection requests (default: 64)

	// === Detection Thresholds ===
	// Decision table bands for verdict fusion. Defaults implement the
	// precision-first policy; raise MLLikelyThreshold to cut false positives.
	MLLikelyThreshold    float64 // ML score at or above this (with rule corroboration) = Likely Scam (default: 0.80)
	MLUnclearThreshold   float64 // ML score at or above this = at least Unclear (default: 0.55)
	RuleLikelyThreshold  int     // Rule score at or above this corroborates Likely Scam (default: 3)
	RuleUnclearThreshold int     // Rule score at or above this = at least Unclear (default: 2)
}

// NewDefaultConfig creates a Config with sensible defaults.
// All settings can be overridden via environment variables.
func NewDefaultConfig() *Config {
	// Best effort, matches the original deployment workflow. Missing .env is fine.
	_ = godotenv.Load()

	version := GetEnv("SCAMWATCH_MODEL_VERSION", "v1")

	cfg := &Config{
		AppName: "ScamWatch Backend",
		Port:    GetEnv("SCAMWATCH_PORT", "8080"),

		ModelVersion:     version,
		LocalArtifactDir: GetEnv("SCAMWATCH_LOCAL_ART_DIR", "artifacts_local/model_"+version),

		ArtifactBucket: GetEnv("SCAMWATCH_STORAGE_BUCKET", "artifacts"),
		S3EndpointURL:  GetEnv("SCAMWATCH_S3_ENDPOINT", ""),
		S3Region:       GetEnv("SCAMWATCH_S3_REGION", "us-east-1"),
		S3AccessKey:    GetEnv("SCAMWATCH_S3_ACCESS_KEY", ""),
		S3SecretKey:    GetEnv("SCAMWATCH_S3_SECRET_KEY", ""),

		RedisAddr: GetEnv("SCAMWATCH_REDIS_ADDR", ""),

		RulesPath: GetEnv("SCAMWATCH_RULES_PATH", ""),

		MaxInFlight: GetEnvInt("SCAMWATCH_MAX_INFLIGHT", 64),

		MLLikelyThreshold:    GetEnvFloat("SCAMWATCH_ML_LIKELY_THRESHOLD", 0.80),
		MLUnclearThreshold:   GetEnvFloat("SCAMWATCH_ML_UNCLEAR_THRESHOLD", 0.55),
		RuleLikelyThreshold:  GetEnvInt("SCAMWATCH_RULE_LIKELY_THRESHOLD", 3),
		RuleUnclearThreshold: GetEnvInt("SCAMWATCH_RULE_UNCLEAR_THRESHOLD", 2),
	}

	return cfg
}

// Validate checks that the configuration can actually serve detection requests.
// The gateway needs at least one artifact source: a local directory or a
// reachable object store.
func (c *Config) Validate() error {
	if c.ModelVersion == "" {
		return fmt.Errorf("model version must not be empty")
	}

	if c.MLUnclearThreshold > c.MLLikelyThreshold {
		return fmt.Errorf("ML thresholds inverted: unclear %.2f > likely %.2f",
			c.MLUnclearThreshold, c.MLLikelyThreshold)
	}
	if c.RuleUnclearThreshold > c.RuleLikelyThreshold {
		return fmt.Errorf("rule thresholds inverted: unclear %d > likely %d",
			c.RuleUnclearThreshold, c.RuleLikelyThreshold)
	}

	if _, err := os.Stat(c.LocalArtifactDir); err == nil {
		return nil // local artifacts win, no store needed
	}
	if c.S3AccessKey == "" || c.S3SecretKey == "" {
		return fmt.Errorf("no artifact source: local dir %q missing and S3 credentials unset", c.LocalArtifactDir)
	}
	return nil
}

// MustValidate calls Validate and fatally exits if validation fails.
// Call this at startup before loading artifacts.
func (c *Config) MustValidate() {
	if err := c.Validate(); err != nil {
		log.Fatalf("[STARTUP] FATAL: Configuration validation failed: %v", err)
	}
	log.Println("[STARTUP] Configuration validated successfully")
}

// Helper functions for environment variable parsing

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvFloat returns the float64 value of an environment variable or a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvSlice returns a comma-separated list from an environment variable or a default value.
func GetEnvSlice(key string, defaultValue []string) []string {
	if v := os.Getenv(key); v != "" {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}
