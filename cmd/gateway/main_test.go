package main

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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"smart-qa/internal/app"
	"smart-qa/internal/assistant"
	"smart-qa/internal/cache"
	"smart-qa/internal/config"
	"smart-qa/internal/llm"
	"smart-qa/internal/retry"
	"smart-qa/internal/structured"
)

func newTestDeps(svc assistant.Service) app.Deps {
	return app.Deps{
		Assistant: svc,
		Config: config.Config{
			MaxRequestSize: 1024,
			MaxRetries:     3,
			BackoffBase:    time.Millisecond,
			LLMTimeout:     time.Second,
		},
		Log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func do(t *testing.T, deps app.Deps, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	newRouter(deps).ServeHTTP(w, req)
	return w
}

func TestSummarizeHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(*assistant.MockService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "success",
			body: `{"text":"Long text"}`,
			setup: func(s *assistant.MockService) {
				s.On("Summarize", mock.Anything, "Long text").Return("Short.", nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"summary":"Short."}`,
		},
		{
			name:       "missing text",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       `{"text":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "body too large",
			body:       `{"text":"` + strings.Repeat("x", 2048) + `"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "retries exhausted",
			body: `{"text":"Long text"}`,
			setup: func(s *assistant.MockService) {
				s.On("Summarize", mock.Anything, "Long text").
					Return("", fmt.Errorf("summarize: %w after 3 attempts: %w", retry.ErrMaxRetriesExceeded, errors.New("503"))).Once()
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"error":"summary failed"}`,
		},
		{
			name: "permanent failure",
			body: `{"text":"Long text"}`,
			setup: func(s *assistant.MockService) {
				s.On("Summarize", mock.Anything, "Long text").
					Return("", fmt.Errorf("summarize: %w: %w", retry.ErrPermanent, errors.New("400"))).Once()
			},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(assistant.MockService)
			if tt.setup != nil {
				tt.setup(svc)
			}

			w := do(t, newTestDeps(svc), http.MethodPost, "/api/summarize", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestExtractHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := new(assistant.MockService)
		svc.On("Extract", mock.Anything, "Alice is 30.").
			Return(map[string]any{"name": "Alice", "age": float64(30)}, nil).Once()

		w := do(t, newTestDeps(svc), http.MethodPost, "/api/extract", `{"text":"Alice is 30."}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"facts":{"name":"Alice","age":30}}`, w.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("unparseable reply", func(t *testing.T) {
		svc := new(assistant.MockService)
		svc.On("Extract", mock.Anything, "x").
			Return(nil, fmt.Errorf("%w: trailing content", structured.ErrJSONParse)).Once()

		w := do(t, newTestDeps(svc), http.MethodPost, "/api/extract", `{"text":"x"}`)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		svc.AssertExpectations(t)
	})
}

func TestAskHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		chat := new(llm.MockSession)
		svc := new(assistant.MockService)
		svc.On("NewChat", mock.Anything, "Doc").Return(chat, nil).Once()
		svc.On("Ask", mock.Anything, "Who?", chat).Return("Alice.", nil).Once()

		w := do(t, newTestDeps(svc), http.MethodPost, "/api/ask", `{"document":"Doc","question":"Who?"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"answer":"Alice."}`, w.Body.String())
		svc.AssertNotCalled(t, "CreateChat", mock.Anything, mock.Anything)
		svc.AssertExpectations(t)
	})

	t.Run("missing question", func(t *testing.T) {
		svc := new(assistant.MockService)

		w := do(t, newTestDeps(svc), http.MethodPost, "/api/ask", `{"document":"Doc"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "question (required)")
		svc.AssertNotCalled(t, "NewChat", mock.Anything, mock.Anything)
	})

	t.Run("conversation fails", func(t *testing.T) {
		svc := new(assistant.MockService)
		svc.On("NewChat", mock.Anything, "Doc").
			Return(nil, fmt.Errorf("chat: %w", retry.ErrMaxRetriesExceeded)).Once()

		w := do(t, newTestDeps(svc), http.MethodPost, "/api/ask", `{"document":"Doc","question":"Who?"}`)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		svc.AssertExpectations(t)
	})
}

// chatRecorder is a chat completions endpoint that records the message
// contents of every request.
type chatRecorder struct {
	mu       sync.Mutex
	requests [][]string
}

func (c *chatRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	var turns []string
	for _, m := range body.Messages {
		turns = append(turns, m.Role+":"+m.Content)
	}
	c.mu.Lock()
	c.requests = append(c.requests, turns)
	c.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 0,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": "ans"},
		}},
	})
}

func TestAskHandlerKeepsCallersApart(t *testing.T) {
	rec := &chatRecorder{}
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)
	provider, err := llm.NewOpenAIProvider("test-key", "", srv.URL+"/", 5*time.Second)
	require.NoError(t, err)
	deps := newTestDeps(nil)
	deps.Assistant = assistant.New(provider, cache.NewMemoryStore(), deps.Log, assistant.Options{})

	w := do(t, deps, http.MethodPost, "/api/ask", `{"document":"shared doc","question":"alice question"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, deps, http.MethodPost, "/api/ask", `{"document":"shared doc","question":"bob question"}`)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, rec.requests, 2)
	assert.Len(t, rec.requests[1], 2, "second caller must start from the system prompt alone")
	assert.Equal(t, "user:bob question", rec.requests[1][1])
	for _, turn := range rec.requests[1] {
		assert.NotContains(t, turn, "alice question")
	}
}

func TestClearCacheHandler(t *testing.T) {
	svc := new(assistant.MockService)
	svc.On("ClearCache", mock.Anything).Return(nil).Once()
	svc.On("ClearCache", mock.Anything).Return(errors.New("redis down")).Once()
	deps := newTestDeps(svc)

	assert.Equal(t, http.StatusNoContent, do(t, deps, http.MethodDelete, "/api/cache", "").Code)
	assert.Equal(t, http.StatusInternalServerError, do(t, deps, http.MethodDelete, "/api/cache", "").Code)
	svc.AssertExpectations(t)
}

func TestHealthz(t *testing.T) {
	w := do(t, newTestDeps(new(assistant.MockService)), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(fmt.Errorf("x: %w", retry.ErrMaxRetriesExceeded)))
	assert.Equal(t, http.StatusBadGateway, statusFor(structured.ErrJSONParse))
	assert.Equal(t, http.StatusBadGateway, statusFor(retry.ErrPermanent))
	assert.Equal(t, http.StatusInternalServerError, statusFor(context.Canceled))
}

func TestRequestTimeout(t *testing.T) {
	cfg := config.Config{MaxRetries: 3, BackoffBase: 2 * time.Second, LLMTimeout: 30 * time.Second}

	// 3*30s + 2s + 4s per cycle, two cycles, plus headroom
	assert.Equal(t, 2*96*time.Second+10*time.Second, requestTimeout(cfg))
}
