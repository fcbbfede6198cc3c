package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Debug       bool   `envconfig:"DEBUG" default:"false"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`

	// Optional bearer token required by the tool server
	APIToken string `envconfig:"API_TOKEN"`

	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL       string `envconfig:"OPENAI_BASE_URL"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`
	VisionModel         string `envconfig:"VISION_MODEL" default:"gpt-4o-mini"`

	WeatherAPIKey string `envconfig:"WEATHER_API_KEY"`
	WeatherAPIURL string `envconfig:"WEATHER_API_URL" default:"http://api.weatherapi.com"`

	SearchURL        string        `envconfig:"SEARCH_URL" default:"https://html.duckduckgo.com/html/"`
	SearchMaxResults int           `envconfig:"SEARCH_MAX_RESULTS" default:"3"`
	SearchInterval   time.Duration `envconfig:"SEARCH_INTERVAL" default:"1s"`

	ChunkTokens       int    `envconfig:"CHUNK_TOKENS" default:"512"`
	ChunkOverlap      int    `envconfig:"CHUNK_OVERLAP" default:"64"`
	TokenizerEncoding string `envconfig:"TOKENIZER_ENCODING" default:"cl100k_base"`
	RetrieverK        int    `envconfig:"RETRIEVER_K" default:"4"`

	PipelineTimeout  time.Duration `envconfig:"PIPELINE_TIMEOUT" default:"60s"`
	FetchTimeout     time.Duration `envconfig:"FETCH_TIMEOUT" default:"15s"`
	FetchMaxBytes    int64         `envconfig:"FETCH_MAX_BYTES" default:"2097152"`
	FetchConcurrency int           `envconfig:"FETCH_CONCURRENCY" default:"3"`

	// Opt-in embedding cache; requires DATABASE_URL
	DatabaseURL       string        `envconfig:"DATABASE_URL"`
	EmbeddingCacheTTL time.Duration `envconfig:"EMBEDDING_CACHE_TTL" default:"24h"`

	ScratchDir string        `envconfig:"SCRATCH_DIR"`
	ScratchTTL time.Duration `envconfig:"SCRATCH_TTL" default:"1h"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"groot-scratch"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	MaintenanceInterval time.Duration `envconfig:"MAINTENANCE_INTERVAL" default:"10m"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("GROOT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.ScratchDir == "" {
		cfg.ScratchDir = filepath.Join(os.TempDir(), "groot-scratch")
	}
	if cfg.ChunkOverlap >= cfg.ChunkTokens {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_TOKENS (%d)", cfg.ChunkOverlap, cfg.ChunkTokens)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasWeather() bool {
	return c.WeatherAPIKey != ""
}

func (c *Config) HasEmbeddingCache() bool {
	return c.DatabaseURL != "" && c.EmbeddingCacheTTL > 0
}

// TracesSampleRate samples everything in development and 10% elsewhere.
func (c *Config) TracesSampleRate() float64 {
	if c.Environment == "development" {
		return 1.0
	}
	return 0.1
}
