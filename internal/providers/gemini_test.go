package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func geminiBody(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":` + jsonString(text) + `}]},"finishReason":"STOP"}]}`
}

func jsonString(s string) string {
	out := `"`
	for _, r := range s {
		switch r {
		case '"':
			out += `\"`
		case '\\':
			out += `\\`
		case '\n':
			out += `\n`
		default:
			out += string(r)
		}
	}
	return out + `"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*GeminiClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewGeminiClient(GeminiConfig{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		RetryDelay: time.Millisecond,
		RateLimit:  100000,
	})
	return client, srv
}

func TestGeminiGenerate(t *testing.T) {
	t.Run("returns model text", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("x-goog-api-key") != "test-key" {
				t.Errorf("missing api key header")
			}
			w.Write([]byte(geminiBody(`{"chapters": []}`)))
		})

		got, err := client.Generate(context.Background(), "plan chapters")
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if got != `{"chapters": []}` {
			t.Errorf("Generate() = %q", got)
		}
	})

	t.Run("fails without api key before any call", func(t *testing.T) {
		calls := int32(0)
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
		})
		client.apiKey = ""

		_, err := client.Generate(context.Background(), "anything")
		if !errors.Is(err, ErrNoAPIKey) {
			t.Fatalf("error = %v, want ErrNoAPIKey", err)
		}
		if atomic.LoadInt32(&calls) != 0 {
			t.Errorf("made %d upstream calls, want 0", calls)
		}
	})

	t.Run("retries rate limits then succeeds", func(t *testing.T) {
		calls := int32(0)
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) <= 2 {
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":{"status":"RESOURCE_EXHAUSTED"}}`))
				return
			}
			w.Write([]byte(geminiBody("ok")))
		})

		got, err := client.Generate(context.Background(), "prompt")
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if got != "ok" {
			t.Errorf("Generate() = %q, want ok", got)
		}
		if n := atomic.LoadInt32(&calls); n != 3 {
			t.Errorf("made %d calls, want 3", n)
		}
	})

	t.Run("exhausts rate limit retries", func(t *testing.T) {
		calls := int32(0)
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := client.Generate(context.Background(), "prompt")
		var ge *GenerationError
		if !errors.As(err, &ge) {
			t.Fatalf("error = %v, want *GenerationError", err)
		}
		var rle *RateLimitError
		if !errors.As(err, &rle) {
			t.Errorf("exhaustion error should wrap the rate-limit cause, got %v", err)
		}
		if n := atomic.LoadInt32(&calls); n != 4 {
			t.Errorf("made %d calls, want 4 (default attempt budget)", n)
		}
	})

	t.Run("does not retry other failures", func(t *testing.T) {
		calls := int32(0)
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"message":"backend exploded","status":"INTERNAL"}}`))
		})

		_, err := client.Generate(context.Background(), "prompt")
		var ge *GenerationError
		if !errors.As(err, &ge) {
			t.Fatalf("error = %v, want *GenerationError", err)
		}
		if n := atomic.LoadInt32(&calls); n != 1 {
			t.Errorf("made %d calls, want 1", n)
		}
	})

	t.Run("empty candidate list is an error", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"candidates":[]}`))
		})

		_, err := client.Generate(context.Background(), "prompt")
		var ge *GenerationError
		if !errors.As(err, &ge) {
			t.Fatalf("error = %v, want *GenerationError", err)
		}
	})
}
