package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ledgermap/ledgermap/internal/common"
	"github.com/ledgermap/ledgermap/internal/config"
	"github.com/ledgermap/ledgermap/internal/engine"
	"github.com/ledgermap/ledgermap/internal/llm"
	"github.com/ledgermap/ledgermap/internal/match"
	"github.com/ledgermap/ledgermap/internal/service"
	"github.com/ledgermap/ledgermap/internal/storage"
	"github.com/spf13/viper"
)

// trainingSource picks the configured training source: a CSV file or a
// SQLite staging database.
func trainingSource() (service.TrainingSource, error) {
	if path := viper.GetString("training.file"); path != "" {
		return storage.NewCSVSource(path), nil
	}
	if path := viper.GetString("training.database"); path != "" {
		return storage.NewSQLiteSource(path, viper.GetString("training.table")), nil
	}
	return nil, fmt.Errorf("%w: no training source (use --training or --training-db)", common.ErrMissingConfig)
}

// loadStore creates the training store and loads the configured source.
func loadStore(ctx context.Context) (*storage.TrainingStore, error) {
	source, err := trainingSource()
	if err != nil {
		return nil, err
	}

	store := storage.NewTrainingStore()
	if err := store.Load(ctx, source); err != nil {
		return nil, err
	}
	if store.Len() == 0 {
		return nil, fmt.Errorf("%w from %s", common.ErrNoTrainingData, source.Name())
	}
	return store, nil
}

// buildEngine assembles the full cascade. Strategies whose external
// dependencies are unconfigured stay in the cascade and degrade to "could
// not run" at attempt time, so the decision trail keeps its fixed shape.
func buildEngine(cfg config.Config, store *storage.TrainingStore) (*engine.Engine, *llm.Matcher, error) {
	var lexicon *match.Lexicon
	if cfg.LexiconPath != "" {
		loaded, err := match.LoadLexicon(cfg.LexiconPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load lexicon: %w", err)
		}
		lexicon = loaded
		slog.Info("Lexicon loaded", "path", cfg.LexiconPath, "words", lexicon.Size())
	}

	var embedder match.Embedder
	if cfg.LLMAPIKey != "" {
		e, err := llm.NewOpenAIEmbedder(cfg.LLMAPIKey, cfg.EmbeddingModel)
		if err != nil {
			return nil, nil, err
		}
		embedder = e
	}

	var llmMatcher *llm.Matcher
	if cfg.LLMAPIKey != "" {
		client, err := llm.NewClient(llm.Config{
			Provider:   cfg.LLMProvider,
			APIKey:     cfg.LLMAPIKey,
			Model:      cfg.LLMModel,
			MaxRetries: cfg.LLMMaxRetries,
			RetryDelay: cfg.LLMRetryDelay,
			Timeout:    cfg.LLMTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		llmMatcher = llm.NewMatcher(client, llm.Config{
			MaxRetries: cfg.LLMMaxRetries,
			RetryDelay: cfg.LLMRetryDelay,
		})
	} else {
		slog.Warn("No LLM API key configured; embedding and LLM strategies will degrade")
		llmMatcher = llm.NewMatcher(nil, llm.Config{})
	}

	matchers := []match.Matcher{
		match.NewExactMatcher(),
		match.NewFuzzyMatcher(cfg.FuzzyThreshold),
		match.NewSemanticMatcher(lexicon, cfg.SemanticThreshold),
		match.NewEmbeddingMatcher(embedder, cfg.EmbeddingThreshold),
		llmMatcher,
	}

	return engine.New(store, matchers, cfg.ReviewThreshold), llmMatcher, nil
}
