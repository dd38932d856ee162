// Package config loads the application configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// MissingEnvError reports a required environment variable that is not set.
type MissingEnvError struct {
	Key string
}

func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("required environment variable %s is not set", e.Key)
}

// Config carries every knob the application reads at startup.
type Config struct {
	// HTTPPort is the port the events endpoint and health check listen on.
	HTTPPort string

	// SlackBotToken authenticates Web API calls (xoxb-...).
	SlackBotToken string
	// SlackSigningSecret verifies incoming Events API requests.
	SlackSigningSecret string
	// SlackBotUserID is the bot's own user id, used to drop self-messages.
	SlackBotUserID string

	// OpenAIAPIKey authenticates chat completion calls.
	OpenAIAPIKey string
	// OpenAIModel is the chat model name.
	OpenAIModel string
	// OpenAITemperature is the sampling temperature for completions.
	OpenAITemperature float32

	// GoogleSearchAPIKey and GoogleSearchEngineID configure the Custom
	// Search JSON API.
	GoogleSearchAPIKey   string
	GoogleSearchEngineID string

	// MaxConcurrentWorkflows caps how many answer turns run at once.
	MaxConcurrentWorkflows int64
}

// Load reads the configuration from the environment. A .env file at envPath
// is loaded first when present; missing files are not an error so container
// deployments can rely on real environment variables.
func Load(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", envPath, "error", err)
	} else {
		slog.Info("Loaded environment", "path", envPath)
	}

	cfg := &Config{
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		SlackBotToken:        os.Getenv("SLACK_BOT_TOKEN"),
		SlackSigningSecret:   os.Getenv("SLACK_SIGNING_SECRET"),
		SlackBotUserID:       os.Getenv("SLACK_BOT_USER_ID"),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:          getEnv("OPENAI_MODEL", "gpt-4.1"),
		GoogleSearchAPIKey:   os.Getenv("GOOGLE_SEARCH_API_KEY"),
		GoogleSearchEngineID: os.Getenv("GOOGLE_SEARCH_ENGINE_ID"),
	}

	temperature, err := parseFloat32("OPENAI_TEMPERATURE", 0.2)
	if err != nil {
		return nil, err
	}
	cfg.OpenAITemperature = temperature

	maxWorkflows, err := parseInt64("MAX_CONCURRENT_WORKFLOWS", 60)
	if err != nil {
		return nil, err
	}
	cfg.MaxConcurrentWorkflows = maxWorkflows

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"SLACK_BOT_TOKEN", c.SlackBotToken},
		{"SLACK_SIGNING_SECRET", c.SlackSigningSecret},
		{"OPENAI_API_KEY", c.OpenAIAPIKey},
		{"GOOGLE_SEARCH_API_KEY", c.GoogleSearchAPIKey},
		{"GOOGLE_SEARCH_ENGINE_ID", c.GoogleSearchEngineID},
	}
	for _, r := range required {
		if r.value == "" {
			return &MissingEnvError{Key: r.key}
		}
	}
	if c.MaxConcurrentWorkflows <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_WORKFLOWS must be positive, got %d", c.MaxConcurrentWorkflows)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt64(key string, defaultValue int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return value, nil
}

func parseFloat32(key string, defaultValue float32) (float32, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return float32(value), nil
}
