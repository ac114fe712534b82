package match

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Lexicon maps words to dense vectors for the lexical-semantic strategy.
// Vector files use the common text format: one word per line followed by its
// space-separated components, optionally gzip-compressed.
type Lexicon struct {
	vectors map[string][]float32
	dim     int
}

// NewLexicon builds a lexicon from an in-memory vocabulary. All vectors must
// share one dimensionality.
func NewLexicon(vectors map[string][]float32) (*Lexicon, error) {
	dim := 0
	for word, vec := range vectors {
		if dim == 0 {
			dim = len(vec)
		}
		if len(vec) == 0 || len(vec) != dim {
			return nil, fmt.Errorf("vector for %q has dimension %d, want %d", word, len(vec), dim)
		}
	}
	return &Lexicon{vectors: vectors, dim: dim}, nil
}

// LoadLexicon reads a word-vector file from disk.
func LoadLexicon(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lexicon: %w", err)
	}
	defer func() { _ = f.Close() }()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, gzErr := gzip.NewReader(f)
		if gzErr != nil {
			return nil, fmt.Errorf("failed to open gzip lexicon: %w", gzErr)
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	}

	vectors := make(map[string][]float32)
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		vec := make([]float32, len(fields)-1)
		for i, field := range fields[1:] {
			v, parseErr := strconv.ParseFloat(field, 32)
			if parseErr != nil {
				return nil, fmt.Errorf("lexicon line %d: bad component %q: %w", line, field, parseErr)
			}
			vec[i] = float32(v)
		}
		vectors[strings.ToLower(fields[0])] = vec
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lexicon: %w", err)
	}

	return NewLexicon(vectors)
}

// Vector returns the vector for a word, if the word is in vocabulary.
func (l *Lexicon) Vector(word string) ([]float32, bool) {
	vec, ok := l.vectors[word]
	return vec, ok
}

// Size returns the vocabulary size.
func (l *Lexicon) Size() int {
	return len(l.vectors)
}

// Average returns the mean vector of the in-vocabulary tokens. The second
// return is false when every token is out of vocabulary.
func (l *Lexicon) Average(tokens []string) ([]float32, bool) {
	if l.dim == 0 {
		return nil, false
	}
	sum := make([]float32, l.dim)
	known := 0
	for _, token := range tokens {
		vec, ok := l.vectors[token]
		if !ok {
			continue
		}
		for i, v := range vec {
			sum[i] += v
		}
		known++
	}
	if known == 0 {
		return nil, false
	}
	for i := range sum {
		sum[i] /= float32(known)
	}
	return sum, true
}

// cosine computes cosine similarity clamped to [0,1]. Vector pairs from the
// same model are non-antipodal in practice; clamping keeps the invariant
// that every strategy score is a valid confidence.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// normalizeVector scales a vector to unit length, the form chromem-go
// expects for cosine queries.
func normalizeVector(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}
