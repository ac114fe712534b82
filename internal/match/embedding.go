package match

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/ledgermap/ledgermap/internal/model"
	"github.com/ledgermap/ledgermap/internal/storage"
	chromem "github.com/philippgille/chromem-go"
)

// DefaultEmbeddingThreshold is the minimum cosine similarity for an embedding pass.
const DefaultEmbeddingThreshold = 0.80

// Embedder computes a dense sentence embedding for a text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbedderFunc adapts a plain function to the Embedder interface.
type EmbedderFunc func(ctx context.Context, text string) ([]float32, error)

// Embed calls the wrapped function.
func (f EmbedderFunc) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

// EmbeddingMatcher compares a dense query embedding against precomputed
// embeddings for every training example, held in a chromem-go collection.
//
// The collection is tagged with the store revision it was built under. On
// first use after a revision bump the whole index is recomputed, not
// incrementally patched: refreshes are infrequent and a full rebuild keeps
// the cache trivially correct. The rebuilt collection replaces the old one
// atomically under the matcher's mutex so concurrent readers never observe
// a half-built index.
type EmbeddingMatcher struct {
	db         *chromem.DB
	embedder   Embedder
	collection *chromem.Collection
	threshold  float64
	revision   uint64
	mu         sync.Mutex
}

// NewEmbeddingMatcher creates the embedding strategy.
func NewEmbeddingMatcher(embedder Embedder, threshold float64) *EmbeddingMatcher {
	if threshold <= 0 {
		threshold = DefaultEmbeddingThreshold
	}
	return &EmbeddingMatcher{
		db:        chromem.NewDB(),
		embedder:  embedder,
		threshold: threshold,
	}
}

// Method identifies the strategy.
func (m *EmbeddingMatcher) Method() model.Method {
	return model.MethodEmbedding
}

// Attempt embeds the normalized query and picks the most similar example.
// Any embedder failure degrades to "could not run"; it never aborts the
// cascade.
func (m *EmbeddingMatcher) Attempt(ctx context.Context, query model.Query, store *storage.TrainingStore) model.MatchOutcome {
	outcome := model.MatchOutcome{Method: model.MethodEmbedding, Attempted: true}

	if m.embedder == nil {
		outcome.Detail = "no embedder configured"
		return outcome
	}

	examples := store.Examples()
	if len(examples) == 0 {
		outcome.Detail = "no training examples"
		return outcome
	}

	collection, err := m.indexFor(ctx, store.Revision(), examples)
	if err != nil {
		outcome.Detail = fmt.Sprintf("embedding index unavailable: %v", err)
		return outcome
	}

	queryVec, err := m.embedder.Embed(ctx, query.Normalized)
	if err != nil {
		outcome.Detail = fmt.Sprintf("query embedding failed: %v", err)
		return outcome
	}

	results, err := collection.QueryEmbedding(ctx, normalizeVector(queryVec), collection.Count(), nil, nil)
	if err != nil {
		outcome.Detail = fmt.Sprintf("embedding query failed: %v", err)
		return outcome
	}
	if len(results) == 0 {
		return outcome
	}

	// chromem returns results by descending similarity but leaves tie order
	// unspecified; pick the smallest row index among the equal top scores.
	bestRow := -1
	topSim := results[0].Similarity
	for _, result := range results {
		if result.Similarity != topSim {
			break
		}
		rowID, convErr := strconv.Atoi(result.Metadata["row_id"])
		if convErr != nil || rowID < 0 || rowID >= len(examples) {
			continue
		}
		if bestRow < 0 || rowID < bestRow {
			bestRow = rowID
		}
	}
	if bestRow < 0 {
		outcome.Detail = "embedding index returned unknown rows"
		return outcome
	}

	score := clampScore(float64(topSim))
	outcome.Score = score
	outcome.HasScore = true
	outcome.Passed = score >= m.threshold
	outcome.Candidate = examples[bestRow].Label
	outcome.MatchedRow = &examples[bestRow]
	return outcome
}

// indexFor returns the collection for the given revision, rebuilding it
// lazily when the store has moved on.
func (m *EmbeddingMatcher) indexFor(ctx context.Context, revision uint64, examples []model.TrainingExample) (*chromem.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.collection != nil && m.revision == revision {
		return m.collection, nil
	}

	name := fmt.Sprintf("training-rev-%d", revision)
	collection, err := m.db.CreateCollection(name, nil, chromem.EmbeddingFunc(m.embedder.Embed))
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	docs := make([]chromem.Document, 0, len(examples))
	for _, example := range examples {
		vec, embedErr := m.embedder.Embed(ctx, example.NormalizedText)
		if embedErr != nil {
			_ = m.db.DeleteCollection(name)
			return nil, fmt.Errorf("failed to embed row %d: %w", example.RowID, embedErr)
		}
		docs = append(docs, chromem.Document{
			ID:        strconv.Itoa(example.RowID),
			Content:   example.NormalizedText,
			Metadata:  map[string]string{"row_id": strconv.Itoa(example.RowID)},
			Embedding: normalizeVector(vec),
		})
	}
	if err := collection.AddDocuments(ctx, docs, 1); err != nil {
		_ = m.db.DeleteCollection(name)
		return nil, fmt.Errorf("failed to index embeddings: %w", err)
	}

	if m.collection != nil {
		_ = m.db.DeleteCollection(fmt.Sprintf("training-rev-%d", m.revision))
	}
	m.collection = collection
	m.revision = revision
	return collection, nil
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
