package embeddings

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/streed/ml-todos/internal/config"
	"github.com/streed/ml-todos/internal/constants"
	interrors "github.com/streed/ml-todos/internal/errors"
	"github.com/streed/ml-todos/internal/logger"
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	ModelInfo() string
}

// New builds the embedder selected by the configuration, wrapped in a query
// cache when one is configured.
func New(cfg *config.Config) (Embedder, error) {
	var base Embedder
	switch cfg.EmbeddingProvider {
	case constants.EmbeddingProviderOpenAI, "":
		base = NewOpenAIEmbedder(cfg)
	case constants.EmbeddingProviderHash:
		base = NewHashEmbedder(cfg.VectorDimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
	logger.Debug("Using embedder %s (%d dimensions)", base.ModelInfo(), base.Dimension())

	if cfg.QueryCacheSize > 0 {
		return NewCachedEmbedder(base, cfg.QueryCacheSize)
	}
	return base, nil
}

// HashEmbedder derives a deterministic vector from the words of the text.
// It needs no network and is meant for development and tests.
type HashEmbedder struct {
	dim int
}

func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = constants.DefaultVectorDimensions
	}
	return &HashEmbedder{dim: dimensions}
}

func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, &interrors.EmbeddingProviderError{Err: err}
	}

	// Each word lands in its own slot with a signed unit weight, so texts
	// sharing words point the same way and unrelated texts stay near orthogonal.
	embedding := make([]float32, e.dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := xxhash.Sum64String(word)
		idx := h % uint64(e.dim)
		if h>>63 == 1 {
			embedding[idx]--
		} else {
			embedding[idx]++
		}
	}
	normalize(embedding)
	return embedding, nil
}

func (e *HashEmbedder) Dimension() int { return e.dim }

func (e *HashEmbedder) ModelInfo() string { return "hash-words" }

// normalize scales v to unit length in place.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}

// EmbeddingToBytes encodes a vector as little-endian float32 values.
func EmbeddingToBytes(embedding []float32) []byte {
	buf := make([]byte, len(embedding)*constants.BytesPerFloat32)
	for i, v := range embedding {
		binary.LittleEndian.PutUint32(buf[i*constants.BytesPerFloat32:], math.Float32bits(v))
	}
	return buf
}

func BytesToEmbedding(data []byte) ([]float32, error) {
	if len(data)%constants.BytesPerFloat32 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", interrors.ErrInvalidEmbeddingLength, len(data))
	}

	embedding := make([]float32, len(data)/constants.BytesPerFloat32)
	for i := range embedding {
		embedding[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*constants.BytesPerFloat32:]))
	}
	return embedding, nil
}
