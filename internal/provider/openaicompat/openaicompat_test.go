package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"memorymate/internal/provider"
)

func newTestProvider(baseURL string) *Provider {
	return &Provider{
		config: Config{
			BaseURL: baseURL,
			APIKey:  "test-key",
			Model:   "test-model",
			Timeout: 5 * time.Second,
		},
		client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: 5 * time.Second,
			},
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:    "missing base_url",
			config:  Config{APIKey: "k", Model: "m"},
			wantErr: "base_url",
		},
		{
			name:    "bad scheme",
			config:  Config{BaseURL: "ftp://x", APIKey: "k", Model: "m"},
			wantErr: "scheme",
		},
		{
			name:    "missing api_key",
			config:  Config{BaseURL: "https://api.example.com/v1", Model: "m"},
			wantErr: "api_key",
		},
		{
			name:    "missing model",
			config:  Config{BaseURL: "https://api.example.com/v1", APIKey: "k"},
			wantErr: "model",
		},
		{
			name:   "valid",
			config: Config{BaseURL: "https://api.example.com/v1", APIKey: "k", Model: "m"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.defaults()
			err := tt.config.validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("validate error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestBuildRequestTemperature(t *testing.T) {
	cfgTemp := 0.4
	reqTemp := 1.2

	tests := []struct {
		name string
		cfg  *float64
		req  *float64
		want *float64
	}{
		{name: "neither set", cfg: nil, req: nil, want: nil},
		{name: "config default applies", cfg: &cfgTemp, req: nil, want: &cfgTemp},
		{name: "request overrides config", cfg: &cfgTemp, req: &reqTemp, want: &reqTemp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Model: "m", MaxTokens: 100, Temperature: tt.cfg}
			oai := buildRequest(cfg, provider.CompletionRequest{Temperature: tt.req}, false)

			if tt.want == nil {
				if oai.Temperature != nil {
					t.Fatalf("temperature = %g, want unset", *oai.Temperature)
				}
				return
			}
			if oai.Temperature == nil || *oai.Temperature != *tt.want {
				t.Fatalf("temperature = %v, want %g", oai.Temperature, *tt.want)
			}
		})
	}
}

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var req oaiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("complete request must not set stream")
		}

		writeJSON(w, oaiResponse{
			Choices: []oaiChoice{{
				Message:      oaiMessage{Role: "assistant", Content: "hello there"},
				FinishReason: "stop",
			}},
			Usage: oaiUsage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5},
		})
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	resp, err := p.Complete(context.Background(), provider.CompletionRequest{
		Messages: []provider.Message{{Role: provider.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if resp.Content != "hello there" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.FinishReason != provider.FinishReasonStop {
		t.Errorf("FinishReason = %q", resp.FinishReason)
	}
	if resp.Usage.TotalTokens != 5 {
		t.Errorf("TotalTokens = %d, want 5", resp.Usage.TotalTokens)
	}
}

func TestCompleteErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"rate limit", http.StatusTooManyRequests, "slow down", provider.ErrRateLimit},
		{"server error", http.StatusInternalServerError, "boom", provider.ErrProviderDown},
		{"auth", http.StatusUnauthorized, "bad key", provider.ErrAuthentication},
		{"context length", http.StatusBadRequest, `{"error":{"code":"context_length_exceeded"}}`, provider.ErrContextLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := newTestProvider(srv.URL)
			_, err := p.Complete(context.Background(), provider.CompletionRequest{})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req oaiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if !req.Stream {
			t.Error("stream request must set stream")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, delta := range []string{"Hel", "lo", "!"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q},\"finish_reason\":null}]}\n\n", delta)
		}
		fmt.Fprint(w, `data: {"choices":[{"delta":{},"finish_reason":"stop"}]}`+"\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	ch, err := p.Stream(context.Background(), provider.CompletionRequest{
		Messages: []provider.Message{{Role: provider.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var content strings.Builder
	var finish provider.FinishReason
	for chunk := range ch {
		if chunk.Err != nil {
			t.Fatalf("chunk error: %v", chunk.Err)
		}
		content.WriteString(chunk.Content)
		if chunk.FinishReason != "" {
			finish = chunk.FinishReason
		}
	}

	if content.String() != "Hello!" {
		t.Errorf("content = %q, want %q", content.String(), "Hello!")
	}
	if finish != provider.FinishReasonStop {
		t.Errorf("finish = %q, want stop", finish)
	}
}

func TestStreamNoSpaceAfterColon(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, `data:{"choices":[{"delta":{"content":"x"},"finish_reason":null}]}`+"\n\n")
		fmt.Fprint(w, "data:[DONE]\n\n")
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	ch, err := p.Stream(context.Background(), provider.CompletionRequest{})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var got string
	for chunk := range ch {
		got += chunk.Content
	}
	if got != "x" {
		t.Errorf("content = %q, want %q", got, "x")
	}
}

func TestStreamInitialError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	_, err := p.Stream(context.Background(), provider.CompletionRequest{})
	if !errors.Is(err, provider.ErrProviderDown) {
		t.Fatalf("err = %v, want ErrProviderDown", err)
	}
}

func TestMapFinishReason(t *testing.T) {
	tests := []struct {
		in   string
		want provider.FinishReason
	}{
		{"stop", provider.FinishReasonStop},
		{"length", provider.FinishReasonLength},
		{"content_filter", provider.FinishReasonFiltering},
		{"weird", provider.FinishReason("weird")},
	}
	for _, tt := range tests {
		if got := mapFinishReason(tt.in); got != tt.want {
			t.Errorf("mapFinishReason(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
