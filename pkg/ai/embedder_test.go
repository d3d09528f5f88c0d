package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/johnquangdev/meeting-rag/pkg/config"
)

func TestEmbed_Success(t *testing.T) {
	// Mock embedding server
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST got %s", r.Method)
		}
		var payload EmbeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if payload.Input != "hello world" {
			t.Fatalf("unexpected input %q", payload.Input)
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": []float32{0.1, 0.2, 0.3}},
			},
		})
	}))
	defer ts.Close()

	client := NewEmbeddingClient(&config.EmbeddingConfig{
		APIKey:     "test-key",
		BaseURL:    ts.URL,
		Dimensions: 3,
	})

	vec, err := client.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("expected 3 dims got %d", len(vec))
	}
}

func TestEmbed_DimensionMismatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": []float32{0.1, 0.2}},
			},
		})
	}))
	defer ts.Close()

	client := NewEmbeddingClient(&config.EmbeddingConfig{APIKey: "test-key", BaseURL: ts.URL, Dimensions: 3})
	if _, err := client.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestEmbed_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	client := NewEmbeddingClient(&config.EmbeddingConfig{APIKey: "test-key", BaseURL: ts.URL, Dimensions: 3})
	if _, err := client.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestEmbed_EmptyText(t *testing.T) {
	client := NewEmbeddingClient(&config.EmbeddingConfig{APIKey: "test-key", BaseURL: "http://localhost:0", Dimensions: 3})
	if _, err := client.Embed(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty text")
	}
}
