// Package config loads application configuration from environment variables.
// All variables use the PILOT_ prefix. A .env file in the working directory
// is read first when present; real environment variables take precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Providers lists the accepted values of PILOT_AI_PROVIDER.
var Providers = []string{"openai", "deepseek", "openrouter", "anthropic", "google", "ollama"}

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	AI       AIConfig
	Submit   SubmitConfig
	Pipeline PipelineConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL keeps
// run history in memory.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings. An empty URL disables the
// duplicate-submission guard.
type CacheConfig struct {
	URL string
}

// AIConfig selects the completion provider and its deployment-wide settings.
type AIConfig struct {
	Provider    string
	Model       string
	Temperature float64
	MaxTokens   int
	// Fallback lists providers tried in order after Provider fails with a
	// transient or authentication error.
	Fallback []string
	// TokenBudget caps tokens spent per process. Zero means unlimited.
	TokenBudget int64

	OpenAI     OpenAIConfig
	DeepSeek   KeyConfig
	OpenRouter KeyConfig
	Anthropic  KeyConfig
	Google     KeyConfig
	Ollama     OllamaConfig
}

// OpenAIConfig holds OpenAI provider settings.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
}

// KeyConfig holds a provider that only needs an API key.
type KeyConfig struct {
	APIKey string
}

// OllamaConfig holds self-hosted Ollama settings.
type OllamaConfig struct {
	URL string
}

// SubmitConfig controls how answers reach the LMS.
type SubmitConfig struct {
	DryRun        bool
	SkyvernURL    string
	SkyvernAPIKey string
	TargetURL     string
	PollInterval  time.Duration
	GuardTTL      time.Duration
}

// PipelineConfig holds resolution settings.
type PipelineConfig struct {
	MaxAttempts    int
	RetryBackoff   time.Duration
	UnitTimeout    time.Duration
	HonorTimeGates bool
	StrictAnswers  bool
	Concurrency    int
}

// LogConfig holds logging settings. Output is stdout, stderr or a file path.
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// Load reads configuration from the optional .env files and PILOT_
// environment variables. With no files given, ./.env is tried.
func Load(files ...string) (*Config, error) {
	_ = godotenv.Load(files...)

	temperature, err := envFloat("PILOT_AI_TEMPERATURE", 0.7)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("PILOT_SERVER_PORT", 8080),
			Host: envStr("PILOT_SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL:      envStr("PILOT_DATABASE_URL", ""),
			MaxConns: envInt("PILOT_DATABASE_MAX_CONNS", 10),
			MinConns: envInt("PILOT_DATABASE_MIN_CONNS", 1),
		},
		Cache: CacheConfig{
			URL: envStr("PILOT_CACHE_URL", ""),
		},
		AI: AIConfig{
			Provider:    strings.ToLower(envStr("PILOT_AI_PROVIDER", "openai")),
			Model:       envStr("PILOT_AI_MODEL", "gpt-4"),
			Temperature: temperature,
			MaxTokens:   envInt("PILOT_AI_MAX_TOKENS", 2048),
			Fallback:    envList("PILOT_AI_FALLBACK"),
			TokenBudget: int64(envInt("PILOT_AI_TOKEN_BUDGET", 0)),
			OpenAI: OpenAIConfig{
				APIKey:  envStr("PILOT_AI_OPENAI_API_KEY", ""),
				BaseURL: envStr("PILOT_AI_OPENAI_BASE_URL", ""),
			},
			DeepSeek: KeyConfig{
				APIKey: envStr("PILOT_AI_DEEPSEEK_API_KEY", ""),
			},
			OpenRouter: KeyConfig{
				APIKey: envStr("PILOT_AI_OPENROUTER_API_KEY", ""),
			},
			Anthropic: KeyConfig{
				APIKey: envStr("PILOT_AI_ANTHROPIC_API_KEY", ""),
			},
			Google: KeyConfig{
				APIKey: envStr("PILOT_AI_GOOGLE_API_KEY", ""),
			},
			Ollama: OllamaConfig{
				URL: envStr("PILOT_AI_OLLAMA_URL", "http://localhost:11434"),
			},
		},
		Submit: SubmitConfig{
			DryRun:        envBool("PILOT_SUBMIT_DRY_RUN", true),
			SkyvernURL:    envStr("PILOT_SUBMIT_SKYVERN_URL", "http://localhost:8000"),
			SkyvernAPIKey: envStr("PILOT_SUBMIT_SKYVERN_API_KEY", ""),
			TargetURL:     envStr("PILOT_SUBMIT_TARGET_URL", ""),
			PollInterval:  envDuration("PILOT_SUBMIT_POLL_INTERVAL", 0),
			GuardTTL:      envDuration("PILOT_SUBMIT_GUARD_TTL", 24*time.Hour),
		},
		Pipeline: PipelineConfig{
			MaxAttempts:    envInt("PILOT_PIPELINE_MAX_ATTEMPTS", 1),
			RetryBackoff:   envDuration("PILOT_PIPELINE_RETRY_BACKOFF", 2*time.Second),
			UnitTimeout:    envDuration("PILOT_PIPELINE_UNIT_TIMEOUT", 2*time.Minute),
			HonorTimeGates: envBool("PILOT_PIPELINE_HONOR_TIME_GATES", false),
			StrictAnswers:  envBool("PILOT_PIPELINE_STRICT_ANSWERS", false),
			Concurrency:    envInt("PILOT_PIPELINE_CONCURRENCY", 4),
		},
		Log: LogConfig{
			Level:  envStr("PILOT_LOG_LEVEL", "info"),
			Format: envStr("PILOT_LOG_FORMAT", "json"),
			Output: envStr("PILOT_LOG_OUTPUT", "stdout"),
		},
	}

	return cfg, nil
}

// Validate checks that configuration values are usable. A missing provider
// credential is not an error; see MissingCredential.
func (c *Config) Validate() error {
	if !knownProvider(c.AI.Provider) {
		return fmt.Errorf("PILOT_AI_PROVIDER must be one of %s, got %q", strings.Join(Providers, ", "), c.AI.Provider)
	}
	for _, name := range c.AI.Fallback {
		if !knownProvider(name) {
			return fmt.Errorf("PILOT_AI_FALLBACK: unknown provider %q", name)
		}
	}

	if c.AI.TokenBudget < 0 {
		return fmt.Errorf("PILOT_AI_TOKEN_BUDGET must not be negative, got %d", c.AI.TokenBudget)
	}

	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("PILOT_AI_TEMPERATURE must be within [0, 2], got %g", c.AI.Temperature)
	}

	if c.Pipeline.Concurrency < 1 {
		return fmt.Errorf("PILOT_PIPELINE_CONCURRENCY must be positive, got %d", c.Pipeline.Concurrency)
	}

	if c.Pipeline.MaxAttempts < 1 {
		return fmt.Errorf("PILOT_PIPELINE_MAX_ATTEMPTS must be at least 1, got %d", c.Pipeline.MaxAttempts)
	}

	if !c.Submit.DryRun && c.Submit.TargetURL == "" {
		return fmt.Errorf("PILOT_SUBMIT_TARGET_URL is required when PILOT_SUBMIT_DRY_RUN is false")
	}

	return nil
}

// APIKey returns the credential of the selected provider.
func (c *Config) APIKey() string {
	return c.KeyFor(c.AI.Provider)
}

// KeyFor returns the credential configured for the named provider.
func (c *Config) KeyFor(provider string) string {
	switch provider {
	case "openai":
		return c.AI.OpenAI.APIKey
	case "deepseek":
		return c.AI.DeepSeek.APIKey
	case "openrouter":
		return c.AI.OpenRouter.APIKey
	case "anthropic":
		return c.AI.Anthropic.APIKey
	case "google":
		return c.AI.Google.APIKey
	default:
		return ""
	}
}

// MissingCredential reports whether the selected provider needs a key that
// is not set. Ollama needs none.
func (c *Config) MissingCredential() bool {
	return c.AI.Provider != "ollama" && c.APIKey() == ""
}

func knownProvider(name string) bool {
	for _, p := range Providers {
		if name == p {
			return true
		}
	}
	return false
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

// envList splits a comma separated value, dropping blanks.
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// envFloat reports malformed values instead of falling back.
func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", key, v)
	}
	return f, nil
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
