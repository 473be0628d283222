package embeddings

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/streed/ml-todos/internal/config"
	interrors "github.com/streed/ml-todos/internal/errors"
	"github.com/streed/ml-todos/internal/logger"
)

var errMissingAPIKey = errors.New(config.EnvOpenAIKey + " is not set")

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	client  *openai.Client
	model   string
	dim     int
	timeout time.Duration
	hasKey  bool
}

func NewOpenAIEmbedder(cfg *config.Config) *OpenAIEmbedder {
	timeout := cfg.EmbeddingTimeout()

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.EmbeddingBaseURL != "" {
		clientCfg.BaseURL = cfg.EmbeddingBaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	if cfg.APIKey == "" {
		logger.Warn("%s is not set; semantic search and embedding will fail", config.EnvOpenAIKey)
	}

	return &OpenAIEmbedder{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.EmbeddingModel,
		dim:     cfg.VectorDimensions,
		timeout: timeout,
		hasKey:  cfg.APIKey != "",
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if !e.hasKey {
		return nil, &interrors.EmbeddingProviderError{Err: errMissingAPIKey}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, providerError(err)
	}
	logger.Debug("Embedding from %s took %v", e.model, time.Since(start))

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, &interrors.EmbeddingProviderError{Err: interrors.ErrMissingVector}
	}

	vec := resp.Data[0].Embedding
	if e.dim > 0 && len(vec) != e.dim {
		return nil, &interrors.EmbeddingProviderError{
			Err: fmt.Errorf("%w: model returned %d, expected %d", interrors.ErrDimensionMismatch, len(vec), e.dim),
		}
	}
	return vec, nil
}

func providerError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &interrors.EmbeddingProviderError{Status: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &interrors.EmbeddingProviderError{Status: reqErr.HTTPStatusCode, Err: err}
	}
	return &interrors.EmbeddingProviderError{Err: err}
}

func (e *OpenAIEmbedder) Dimension() int { return e.dim }

func (e *OpenAIEmbedder) ModelInfo() string { return "openai-" + e.model }
