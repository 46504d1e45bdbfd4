package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var (
	ErrMissingRequired = errors.New("missing required configuration")

	// ErrConfiguration covers invalid values that must stop the process at
	// startup rather than surface per-request.
	ErrConfiguration = errors.New("configuration error")
)

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"aira"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"aira"`

	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`

	NSQLookupd string `envconfig:"NSQ_LOOKUPD" default:"nsqlookupd:4161"`
	NSQDHost   string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP   string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`

	GeminiAPIKey    string `envconfig:"GEMINI_API_KEY"`
	EmbeddingModel  string `envconfig:"EMBEDDING_MODEL" default:"gemini-embedding-001"`
	GenerationModel string `envconfig:"GENERATION_MODEL" default:"gemini-1.5-flash"`

	// Chunking
	ChunkSizeWords    int `envconfig:"CHUNK_SIZE_WORDS" default:"500"`
	ChunkOverlapWords int `envconfig:"CHUNK_OVERLAP_WORDS" default:"50"`
	MinContentWords   int `envconfig:"MIN_CONTENT_WORDS" default:"5"`

	// Query
	QueryTopK       int `envconfig:"QUERY_TOP_K" default:"5"`
	MaxContextChars int `envconfig:"MAX_CONTEXT_CHARS" default:"16000"`

	// Worker
	EnableWorker        bool `envconfig:"ENABLE_WORKER" default:"true"`
	WorkerConcurrency   int  `envconfig:"WORKER_CONCURRENCY" default:"4"`
	FetchTimeoutSeconds int  `envconfig:"FETCH_TIMEOUT_SECONDS" default:"30"`
	EmbedTimeoutSeconds int  `envconfig:"EMBED_TIMEOUT_SECONDS" default:"60"`

	// Server
	ServerPort    int    `envconfig:"SERVER_PORT" default:"8081"`
	QueryLogPath  string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// .env is optional; env vars set in the shell take precedence anyway.
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	_ = godotenv.Load(filepath.Join(cwd, "../.env"))

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.DBUser == "" {
		return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
	}
	if c.ChunkSizeWords <= 0 {
		return fmt.Errorf("%w: CHUNK_SIZE_WORDS must be positive, got %d", ErrConfiguration, c.ChunkSizeWords)
	}
	if c.ChunkOverlapWords < 0 {
		return fmt.Errorf("%w: CHUNK_OVERLAP_WORDS must be non-negative, got %d", ErrConfiguration, c.ChunkOverlapWords)
	}
	// Overlap >= size means the window start never advances.
	if c.ChunkOverlapWords >= c.ChunkSizeWords {
		return fmt.Errorf("%w: CHUNK_OVERLAP_WORDS (%d) must be smaller than CHUNK_SIZE_WORDS (%d)",
			ErrConfiguration, c.ChunkOverlapWords, c.ChunkSizeWords)
	}
	if c.QueryTopK < 1 {
		return fmt.Errorf("%w: QUERY_TOP_K must be at least 1, got %d", ErrConfiguration, c.QueryTopK)
	}
	if c.MaxContextChars <= 0 {
		return fmt.Errorf("%w: MAX_CONTEXT_CHARS must be positive, got %d", ErrConfiguration, c.MaxContextChars)
	}
	if c.WorkerConcurrency < 1 {
		return fmt.Errorf("%w: WORKER_CONCURRENCY must be at least 1, got %d", ErrConfiguration, c.WorkerConcurrency)
	}
	return nil
}
