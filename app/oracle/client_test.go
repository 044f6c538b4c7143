package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Options{
		APIKey:  "test-key",
		BaseURL: server.URL + "/v1",
		Model:   "test-model",
		Timeout: 5 * time.Second,
	}, server.Client())
}

func TestClient_Complete(t *testing.T) {
	var received map[string]interface{}

	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected bearer auth, got '%s'", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "test-model",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"향\":\"남향\"}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	})

	content, err := client.Complete(context.Background(), "analyze this")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if content != `{"향":"남향"}` {
		t.Errorf("Unexpected content: %s", content)
	}

	if received["model"] != "test-model" {
		t.Errorf("Expected model 'test-model', got %v", received["model"])
	}

	temperature, ok := received["temperature"].(float64)
	if !ok {
		t.Fatalf("Expected temperature to be sent, got %v", received["temperature"])
	}
	if temperature > 0.001 {
		t.Errorf("Expected near-zero temperature, got %v", temperature)
	}
}

func TestClient_Complete_NoChoices(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "chatcmpl-2", "object": "chat.completion", "choices": []}`))
	})

	_, err := client.Complete(context.Background(), "prompt")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Expected ErrEmptyResponse, got: %v", err)
	}
}

func TestClient_Complete_ServerError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limited", "type": "requests"}}`))
	})

	_, err := client.Complete(context.Background(), "prompt")
	if err == nil {
		t.Error("Expected error for rate limited response")
	}
}
