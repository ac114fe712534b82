// Package config materializes the application configuration from viper.
package config

import (
	"fmt"
	"time"

	"github.com/ledgermap/ledgermap/internal/common"
	"github.com/ledgermap/ledgermap/internal/model"
	"github.com/spf13/viper"
)

// Config is the validated configuration surface consumed by the core.
type Config struct {
	Domain             model.DomainContext
	LLMProvider        string
	LLMAPIKey          string
	LLMModel           string
	EmbeddingModel     string
	LexiconPath        string
	FuzzyThreshold     float64
	SemanticThreshold  float64
	EmbeddingThreshold float64
	ReviewThreshold    float64
	LLMMaxRetries      int
	LLMRetryDelay      time.Duration
	LLMTimeout         time.Duration
	CheckpointInterval int
}

// Defaults mirrors the documented threshold defaults.
func Defaults() Config {
	return Config{
		Domain:             model.DomainGeneral,
		LLMProvider:        "openai",
		FuzzyThreshold:     0.85,
		SemanticThreshold:  0.80,
		EmbeddingThreshold: 0.80,
		ReviewThreshold:    0.70,
		LLMMaxRetries:      3,
		LLMRetryDelay:      time.Second,
		LLMTimeout:         30 * time.Second,
		CheckpointInterval: 10,
	}
}

// Load reads the configuration from viper and validates it.
func Load() (Config, error) {
	cfg := Defaults()

	if v := viper.GetString("domain"); v != "" {
		domain, err := model.ParseDomainContext(v)
		if err != nil {
			return Config{}, err
		}
		cfg.Domain = domain
	}

	if viper.IsSet("thresholds.fuzzy") {
		cfg.FuzzyThreshold = viper.GetFloat64("thresholds.fuzzy")
	}
	if viper.IsSet("thresholds.semantic") {
		cfg.SemanticThreshold = viper.GetFloat64("thresholds.semantic")
	}
	if viper.IsSet("thresholds.embedding") {
		cfg.EmbeddingThreshold = viper.GetFloat64("thresholds.embedding")
	}
	if viper.IsSet("thresholds.review") {
		cfg.ReviewThreshold = viper.GetFloat64("thresholds.review")
	}

	if v := viper.GetString("llm.provider"); v != "" {
		cfg.LLMProvider = v
	}
	cfg.LLMAPIKey = viper.GetString("llm.api_key")
	cfg.LLMModel = viper.GetString("llm.model")
	cfg.EmbeddingModel = viper.GetString("llm.embedding_model")
	if viper.IsSet("llm.max_retries") {
		cfg.LLMMaxRetries = viper.GetInt("llm.max_retries")
	}
	if viper.IsSet("llm.retry_delay") {
		cfg.LLMRetryDelay = viper.GetDuration("llm.retry_delay")
	}
	if viper.IsSet("llm.timeout") {
		cfg.LLMTimeout = viper.GetDuration("llm.timeout")
	}

	cfg.LexiconPath = viper.GetString("semantic.lexicon")

	if viper.IsSet("batch.checkpoint_interval") {
		cfg.CheckpointInterval = viper.GetInt("batch.checkpoint_interval")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every threshold is a valid confidence.
func (c Config) Validate() error {
	thresholds := map[string]float64{
		"fuzzy":     c.FuzzyThreshold,
		"semantic":  c.SemanticThreshold,
		"embedding": c.EmbeddingThreshold,
		"review":    c.ReviewThreshold,
	}
	for name, value := range thresholds {
		if value < 0 || value > 1 {
			return fmt.Errorf("%w: threshold %s must be in [0,1], got %v", common.ErrInvalidConfig, name, value)
		}
	}
	if c.LLMMaxRetries < 0 {
		return fmt.Errorf("%w: llm.max_retries must not be negative, got %d", common.ErrInvalidConfig, c.LLMMaxRetries)
	}
	if c.CheckpointInterval < 1 {
		return fmt.Errorf("%w: batch.checkpoint_interval must be at least 1, got %d", common.ErrInvalidConfig, c.CheckpointInterval)
	}
	return nil
}
