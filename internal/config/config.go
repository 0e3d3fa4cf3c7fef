package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration. Values come from the environment
// and may be overridden by a YAML file named in CONFIG_FILE.
type Config struct {
	Port     string `yaml:"port" validate:"required"`
	BasePath string `yaml:"base_path"`
	BaseURL  string `yaml:"base_url" validate:"required,url"`

	LogLevel         string `yaml:"log_level"`
	LogFile          string `yaml:"log_file"`
	LogRetentionDays int    `yaml:"log_retention_days" validate:"gte=1"`

	LLM     LLMConfig     `yaml:"llm"`
	Pacing  PacingConfig  `yaml:"pacing"`
	Scraper ScraperConfig `yaml:"scraper"`
	Storage StorageConfig `yaml:"storage"`
}

// LLMConfig lists the remote backends tried in order, as "provider/model" ids
type LLMConfig struct {
	IdeaBackends       []string      `yaml:"idea_backends" validate:"min=1,dive,required"`
	GenerationBackends []string      `yaml:"generation_backends" validate:"min=1,dive,required"`
	RequestTimeout     time.Duration `yaml:"request_timeout" validate:"gt=0"`

	// Secrets are read from the environment only
	OpenAIAPIKey  string `yaml:"-"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	GeminiAPIKey  string `yaml:"-"`
	HTTPEndpoint  string `yaml:"http_endpoint"`
	HTTPAPIKey    string `yaml:"-"`
}

// PacingConfig controls the delay between generation units
type PacingConfig struct {
	TextDelay  time.Duration `yaml:"text_delay" validate:"gte=0"`
	VideoDelay time.Duration `yaml:"video_delay" validate:"gte=0"`
	MaxDelay   time.Duration `yaml:"max_delay" validate:"gte=0"`
}

// ScraperConfig controls documentation crawling
type ScraperConfig struct {
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
	UserAgent   string        `yaml:"user_agent" validate:"required"`
	MaxSnippets int           `yaml:"max_snippets" validate:"gt=0"`
	MaxLinks    int           `yaml:"max_links" validate:"gt=0"`
}

// StorageConfig controls where bundle archives are written
type StorageConfig struct {
	Dir       string `yaml:"dir" validate:"required"`
	JWTSecret string `yaml:"-"`
}

// Load builds the configuration from the environment and the optional YAML overlay
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		BasePath:         getEnv("BASE_PATH", "/"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFile:          getEnv("LOG_FILE", ""),
		LogRetentionDays: getEnvAsInt("LOG_RETENTION_DAYS", 7),
		LLM: LLMConfig{
			IdeaBackends:       getEnvAsList("IDEA_BACKENDS", []string{"openai/openai/gpt-oss-20b", "openai/llama-3.3-70b-versatile", "gemini/gemini-2.0-flash"}),
			GenerationBackends: getEnvAsList("GENERATION_BACKENDS", []string{"openai/gpt-3.5-turbo", "gemini/gemini-2.0-flash"}),
			RequestTimeout:     getEnvAsDuration("LLM_REQUEST_TIMEOUT", 2*time.Minute),
			OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),
			GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
			HTTPEndpoint:       getEnv("LLM_HTTP_ENDPOINT", ""),
			HTTPAPIKey:         getEnv("LLM_HTTP_API_KEY", ""),
		},
		Pacing: PacingConfig{
			TextDelay:  getEnvAsDuration("PACING_TEXT_DELAY", 10*time.Second),
			VideoDelay: getEnvAsDuration("PACING_VIDEO_DELAY", 7*time.Second),
			MaxDelay:   getEnvAsDuration("PACING_MAX_DELAY", 2*time.Minute),
		},
		Scraper: ScraperConfig{
			Timeout:     getEnvAsDuration("SCRAPER_TIMEOUT", 10*time.Second),
			UserAgent:   getEnv("SCRAPER_USER_AGENT", "TutorialGenerator/1.0"),
			MaxSnippets: getEnvAsInt("SCRAPER_MAX_SNIPPETS", 50),
			MaxLinks:    getEnvAsInt("SCRAPER_MAX_LINKS", 100),
		},
		Storage: StorageConfig{
			Dir:       getEnv("FILE_STORAGE_DIR", "./storage/files"),
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
	}

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.overlay(path); err != nil {
			return nil, err
		}
		logrus.Infof("Configuration overlay loaded from %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		logrus.Warnf("Invalid duration for %s (%q), using %v", key, raw, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvAsList reads a comma separated list
func getEnvAsList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
