// Package embedding provides deterministic text embedding and caching.
package embedding

import (
	"strings"
	"unicode"

	"github.com/hyperjump/kioku/pkg/utils"
)

// DefaultDimensions is the embedding dimension used when none is configured.
const DefaultDimensions = 4096

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(text string) []float32
	Dimensions() int
}

// HashEmbedder maps text to a fixed-dimension bag-of-tokens vector: each token
// is hashed to a bucket, bucket counts are accumulated, and the result is
// L2-normalized. Distinct tokens may collide in a bucket; the representation is
// lossy on purpose. The same text always produces the same vector, in this
// process and across runs.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns an embedder producing vectors of the given dimension.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns the normalized bag-of-tokens vector for text. Text with no
// tokens (empty or purely non-alphanumeric) yields the all-zero vector.
func (e *HashEmbedder) Embed(text string) []float32 {
	emb := make([]float32, e.dimensions)
	for _, token := range Tokenize(text) {
		emb[bucket(token, e.dimensions)]++
	}
	utils.NormalizeL2(emb)
	return emb
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Tokenize splits text into lower-cased runs of letters and digits.
func Tokenize(text string) []string {
	var tokens []string
	var b strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}

// bucket maps a token to an index in [0, dim) using FNV-1a. The hash is fixed
// rather than seeded per process, so bucket assignment is reproducible across
// restarts.
func bucket(token string, dim int) int {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	h := uint32(offset32)
	for i := 0; i < len(token); i++ {
		h ^= uint32(token[i])
		h *= prime32
	}
	return int(h % uint32(dim))
}
