package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*OpenAICompatibleClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewOpenAICompatibleClient(ChatConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "test-model",
	})
	return client, srv
}

func TestComplete_SendsBoundedRequest(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hi"}}]}`))
	})

	if _, err := client.Complete(context.Background(), "be brief", "hello", 200, 0.7); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if gotPath != "/chat/completions" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if gotBody["model"] != "test-model" {
		t.Fatalf("unexpected model: %v", gotBody["model"])
	}
	if gotBody["max_tokens"] != float64(200) {
		t.Fatalf("unexpected max_tokens: %v", gotBody["max_tokens"])
	}
	if gotBody["temperature"] != 0.7 {
		t.Fatalf("unexpected temperature: %v", gotBody["temperature"])
	}

	messages, ok := gotBody["messages"].([]interface{})
	if !ok || len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %v", gotBody["messages"])
	}
	first := messages[0].(map[string]interface{})
	second := messages[1].(map[string]interface{})
	if first["role"] != "system" || first["content"] != "be brief" {
		t.Fatalf("unexpected system message: %v", first)
	}
	if second["role"] != "user" || second["content"] != "hello" {
		t.Fatalf("unexpected user message: %v", second)
	}
}

func TestComplete_ParsesUsage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"choices":[{"message":{"content":"answer"}}],
			"usage":{"prompt_tokens":12,"completion_tokens":34}
		}`))
	})

	result, err := client.Complete(context.Background(), "s", "u", 100, 0.7)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if result.Text != "answer" {
		t.Fatalf("unexpected text: %q", result.Text)
	}
	if result.Usage == nil || result.Usage.TokensIn != 12 || result.Usage.TokensOut != 34 {
		t.Fatalf("unexpected usage: %+v", result.Usage)
	}
}

func TestComplete_NoUsageReported(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"answer"}}]}`))
	})

	result, err := client.Complete(context.Background(), "s", "u", 100, 0.7)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if result.Usage != nil {
		t.Fatalf("expected nil usage, got %+v", result.Usage)
	}
}

func TestComplete_EmptyChoicesIsNotAnError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	result, err := client.Complete(context.Background(), "s", "u", 100, 0.7)
	if err != nil {
		t.Fatalf("empty choices must not error, got %v", err)
	}
	if result.Text != "" {
		t.Fatalf("expected empty text, got %q", result.Text)
	}
}

func TestComplete_ErrorStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	})

	if _, err := client.Complete(context.Background(), "s", "u", 100, 0.7); err == nil {
		t.Fatal("expected error on non-2xx status")
	}
}

func TestComplete_MalformedBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	if _, err := client.Complete(context.Background(), "s", "u", 100, 0.7); err == nil {
		t.Fatal("expected error on malformed body")
	}
}
