package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		DBHost:            "localhost",
		DBUser:            "aira",
		DBName:            "aira",
		ChunkSizeWords:    500,
		ChunkOverlapWords: 50,
		QueryTopK:         5,
		MaxContextChars:   16000,
		WorkerConcurrency: 4,
	}
}

func TestValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("MissingDBHost", func(t *testing.T) {
		cfg := validConfig()
		cfg.DBHost = ""
		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrMissingRequired)
	})

	t.Run("OverlapEqualsSize", func(t *testing.T) {
		cfg := validConfig()
		cfg.ChunkSizeWords = 50
		cfg.ChunkOverlapWords = 50
		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("OverlapLargerThanSize", func(t *testing.T) {
		cfg := validConfig()
		cfg.ChunkSizeWords = 100
		cfg.ChunkOverlapWords = 200
		assert.ErrorIs(t, cfg.Validate(), ErrConfiguration)
	})

	t.Run("ZeroChunkSize", func(t *testing.T) {
		cfg := validConfig()
		cfg.ChunkSizeWords = 0
		cfg.ChunkOverlapWords = 0
		assert.ErrorIs(t, cfg.Validate(), ErrConfiguration)
	})

	t.Run("NegativeOverlap", func(t *testing.T) {
		cfg := validConfig()
		cfg.ChunkOverlapWords = -1
		assert.ErrorIs(t, cfg.Validate(), ErrConfiguration)
	})

	t.Run("TopKBelowOne", func(t *testing.T) {
		cfg := validConfig()
		cfg.QueryTopK = 0
		assert.ErrorIs(t, cfg.Validate(), ErrConfiguration)
	})

	t.Run("ZeroWorkerConcurrency", func(t *testing.T) {
		cfg := validConfig()
		cfg.WorkerConcurrency = 0
		assert.ErrorIs(t, cfg.Validate(), ErrConfiguration)
	})
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 500, cfg.ChunkSizeWords)
	assert.Equal(t, 50, cfg.ChunkOverlapWords)
	assert.Equal(t, 5, cfg.QueryTopK)
	assert.Equal(t, "ingest.task", TopicIngestTask)
}
