package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/johnquangdev/meeting-rag/pkg/config"
)

const defaultEmbedTimeout = 30 * time.Second

// Embedder converts text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// EmbeddingClient is a minimal client for OpenAI-compatible embedding APIs
type EmbeddingClient struct {
	apiKey     string
	baseURL    string
	model      string
	dimensions int
	client     *http.Client
}

// NewEmbeddingClient creates an embedding client using values from the
// provided config. Pass a nil config to fall back to environment variables.
func NewEmbeddingClient(cfg *config.EmbeddingConfig) *EmbeddingClient {
	var apiKey string
	if cfg != nil {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		apiKey = os.Getenv("EMBEDDING_API_KEY")
	}

	var base string
	if cfg != nil && cfg.BaseURL != "" {
		base = cfg.BaseURL
	} else {
		base = os.Getenv("EMBEDDING_API_URL")
		if base == "" {
			base = "https://api.openai.com"
		}
	}

	model := "text-embedding-3-small"
	dims := 1536
	timeout := defaultEmbedTimeout
	if cfg != nil {
		if cfg.Model != "" {
			model = cfg.Model
		}
		if cfg.Dimensions > 0 {
			dims = cfg.Dimensions
		}
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
	}

	return &EmbeddingClient{
		apiKey:     apiKey,
		baseURL:    base,
		model:      model,
		dimensions: dims,
		client:     &http.Client{Timeout: timeout},
	}
}

// EmbeddingRequest is the shape for embedding requests
type EmbeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// EmbeddingResponse is a minimal response shape
type EmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed sends text to the embedding service and returns the vector
func (e *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	reqBody := EmbeddingRequest{
		Model: e.model,
		Input: text,
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	endpoint := e.baseURL + "/v1/embeddings"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("embedding service returned status %d", resp.StatusCode)
	}

	var er EmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, err
	}
	if len(er.Data) == 0 {
		return nil, fmt.Errorf("empty response from embedding service")
	}

	vec := er.Data[0].Embedding
	if len(vec) != e.dimensions {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d got %d", e.dimensions, len(vec))
	}
	return vec, nil
}

// Dimensions returns the configured vector dimensionality
func (e *EmbeddingClient) Dimensions() int {
	return e.dimensions
}
