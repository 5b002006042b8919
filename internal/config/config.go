package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names accepted in LLM_PROVIDERS.
const (
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Store backends accepted in STORE_BACKEND.
const (
	StoreNone      = "none"
	StorePathstore = "pathstore"
	StorePostgres  = "postgres"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// LLM providers, tried in order
	Providers       []string
	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	OpenAIModel     string
	OllamaHost      string
	OllamaModel     string

	// Review
	Conference       string
	FirstPassEnabled bool
	SkippedSections  string // show or omit
	MaxSectionTokens int

	// Worker pool
	WorkerCount         int
	MaxQueueSize        int
	MaxConcurrentReview int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// Result store
	StoreBackend    string
	PathstoreURL    string
	PathstoreAPIKey string
	DatabaseURL     string
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:                 "8090",
		Providers:            []string{ProviderClaude},
		AnthropicModel:       "claude-sonnet-4-5-20250929",
		OpenAIModel:          "gpt-5-mini",
		OllamaModel:          "llama3.1",
		Conference:           "General Conference",
		FirstPassEnabled:     true,
		SkippedSections:      "show",
		MaxSectionTokens:     4000,
		WorkerCount:          4,
		MaxQueueSize:         100,
		MaxConcurrentReview:  5,
		MaxUploadBytes:       52428800, // 50MB
		JobTTL:               1 * time.Hour,
		PDFFallbackPdftotext: true,
		StoreBackend:         StoreNone,
		PathstoreURL:         "http://localhost:8080",
	}
}

// Load builds the config from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = envOr("PORT", c.Port)
	c.APIKey = envOr("PAPERREVIEW_API_KEY", c.APIKey)

	c.Providers = envList("LLM_PROVIDERS", c.Providers)
	c.AnthropicAPIKey = envOr("ANTHROPIC_API_KEY", c.AnthropicAPIKey)
	c.AnthropicModel = envOr("ANTHROPIC_MODEL", c.AnthropicModel)
	c.OpenAIAPIKey = envOr("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.OpenAIModel = envOr("OPENAI_MODEL", c.OpenAIModel)
	c.OllamaHost = envOr("OLLAMA_HOST", c.OllamaHost)
	c.OllamaModel = envOr("OLLAMA_MODEL", c.OllamaModel)

	c.Conference = envOr("CONFERENCE_NAME", c.Conference)
	c.FirstPassEnabled = envBool("FIRST_PASS_ENABLED", c.FirstPassEnabled)
	c.SkippedSections = envOr("SKIPPED_SECTIONS", c.SkippedSections)
	c.MaxSectionTokens = envInt("MAX_SECTION_TOKENS", c.MaxSectionTokens)

	c.WorkerCount = envInt("WORKER_COUNT", c.WorkerCount)
	c.MaxQueueSize = envInt("MAX_QUEUE_SIZE", c.MaxQueueSize)
	c.MaxConcurrentReview = envInt("MAX_CONCURRENT_REVIEW", c.MaxConcurrentReview)
	c.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", c.MaxUploadBytes)
	c.JobTTL = envDuration("JOB_TTL", c.JobTTL)
	c.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", c.PDFFallbackPdftotext)

	c.StoreBackend = envOr("STORE_BACKEND", c.StoreBackend)
	c.PathstoreURL = envOr("PATHSTORE_URL", c.PathstoreURL)
	c.PathstoreAPIKey = envOr("PATHSTORE_API_KEY", c.PathstoreAPIKey)
	c.DatabaseURL = envOr("DATABASE_URL", c.DatabaseURL)
}

// normalize replaces out-of-range values with defaults.
func (c *Config) normalize() {
	d := Defaults()
	if c.WorkerCount <= 0 {
		c.WorkerCount = d.WorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = d.MaxQueueSize
	}
	if c.MaxConcurrentReview <= 0 {
		c.MaxConcurrentReview = d.MaxConcurrentReview
	}
	if c.MaxSectionTokens <= 0 {
		c.MaxSectionTokens = d.MaxSectionTokens
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.JobTTL <= 0 {
		c.JobTTL = d.JobTTL
	}
	if len(c.Providers) == 0 {
		c.Providers = d.Providers
	}
	c.SkippedSections = strings.ToLower(strings.TrimSpace(c.SkippedSections))
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	if c.StoreBackend == "" {
		c.StoreBackend = StoreNone
	}
}

// OmitSkippedSections reports whether reports leave out unreviewed sections.
func (c Config) OmitSkippedSections() bool {
	return c.SkippedSections == "omit"
}

// Validate checks everything the HTTP service needs.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("PAPERREVIEW_API_KEY is required")
	}
	if err := c.ValidateReview(); err != nil {
		return err
	}
	switch c.StoreBackend {
	case StoreNone:
	case StorePathstore:
		if c.PathstoreAPIKey == "" {
			return fmt.Errorf("PATHSTORE_API_KEY is required for STORE_BACKEND=pathstore")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for STORE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

// ValidateReview checks the provider and review settings; the CLI needs
// only these.
func (c Config) ValidateReview() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("LLM_PROVIDERS is empty")
	}
	for _, p := range c.Providers {
		switch p {
		case ProviderClaude:
			if c.AnthropicAPIKey == "" {
				return fmt.Errorf("ANTHROPIC_API_KEY is required for provider %q", p)
			}
		case ProviderOpenAI:
			if c.OpenAIAPIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY is required for provider %q", p)
			}
		case ProviderOllama:
		default:
			return fmt.Errorf("unknown llm provider %q", p)
		}
	}
	if c.SkippedSections != "show" && c.SkippedSections != "omit" {
		return fmt.Errorf("SKIPPED_SECTIONS must be show or omit, got %q", c.SkippedSections)
	}
	return nil
}

// fileConfig is the CONFIG_FILE layout. API keys are read from the
// environment only.
type fileConfig struct {
	Server struct {
		Port           string `yaml:"port"`
		MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	} `yaml:"server"`
	LLM struct {
		Providers      []string `yaml:"providers"`
		AnthropicModel string   `yaml:"anthropic_model"`
		OpenAIModel    string   `yaml:"openai_model"`
		OllamaHost     string   `yaml:"ollama_host"`
		OllamaModel    string   `yaml:"ollama_model"`
	} `yaml:"llm"`
	Review struct {
		Conference       string `yaml:"conference"`
		FirstPass        *bool  `yaml:"first_pass"`
		SkippedSections  string `yaml:"skipped_sections"`
		MaxSectionTokens int    `yaml:"max_section_tokens"`
	} `yaml:"review"`
	Workers struct {
		Count               int    `yaml:"count"`
		QueueSize           int    `yaml:"queue_size"`
		MaxConcurrentReview int    `yaml:"max_concurrent_review"`
		JobTTL              string `yaml:"job_ttl"`
	} `yaml:"workers"`
	PDF struct {
		FallbackPdftotext *bool `yaml:"fallback_pdftotext"`
	} `yaml:"pdf"`
	Store struct {
		Backend      string `yaml:"backend"`
		PathstoreURL string `yaml:"pathstore_url"`
		DatabaseURL  string `yaml:"database_url"`
	} `yaml:"store"`
}

func (c *Config) applyFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var f fileConfig
	if err := yaml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setStr(&c.Port, f.Server.Port)
	if f.Server.MaxUploadBytes > 0 {
		c.MaxUploadBytes = f.Server.MaxUploadBytes
	}

	if len(f.LLM.Providers) > 0 {
		c.Providers = cleanList(f.LLM.Providers)
	}
	setStr(&c.AnthropicModel, f.LLM.AnthropicModel)
	setStr(&c.OpenAIModel, f.LLM.OpenAIModel)
	setStr(&c.OllamaHost, f.LLM.OllamaHost)
	setStr(&c.OllamaModel, f.LLM.OllamaModel)

	setStr(&c.Conference, f.Review.Conference)
	if f.Review.FirstPass != nil {
		c.FirstPassEnabled = *f.Review.FirstPass
	}
	setStr(&c.SkippedSections, f.Review.SkippedSections)
	setInt(&c.MaxSectionTokens, f.Review.MaxSectionTokens)

	setInt(&c.WorkerCount, f.Workers.Count)
	setInt(&c.MaxQueueSize, f.Workers.QueueSize)
	setInt(&c.MaxConcurrentReview, f.Workers.MaxConcurrentReview)
	if f.Workers.JobTTL != "" {
		d, err := time.ParseDuration(f.Workers.JobTTL)
		if err != nil {
			return fmt.Errorf("config file job_ttl: %w", err)
		}
		c.JobTTL = d
	}

	if f.PDF.FallbackPdftotext != nil {
		c.PDFFallbackPdftotext = *f.PDF.FallbackPdftotext
	}

	setStr(&c.StoreBackend, f.Store.Backend)
	setStr(&c.PathstoreURL, f.Store.PathstoreURL)
	setStr(&c.DatabaseURL, f.Store.DatabaseURL)
	return nil
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList reads a comma-separated list, lower-cased.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return cleanList(strings.Split(v, ","))
}

func cleanList(items []string) []string {
	var out []string
	for _, it := range items {
		if it = strings.ToLower(strings.TrimSpace(it)); it != "" {
			out = append(out, it)
		}
	}
	return out
}
