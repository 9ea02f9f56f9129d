package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"smart-qa/internal/app"
	"smart-qa/internal/config"
	"smart-qa/internal/httputil"
	"smart-qa/internal/retry"
	"smart-qa/internal/structured"
)

type textRequest struct {
	Text string `json:"text" validate:"required"`
}

type askRequest struct {
	Document string `json:"document" validate:"required"`
	Question string `json:"question" validate:"required"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Close()

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	deps.Log.Info("gateway listening", "addr", addr)
	if err := http.ListenAndServe(addr, newRouter(deps)); err != nil {
		deps.Log.Error("server failed", "err", err)
	}
}

func newRouter(deps app.Deps) chi.Router {
	r := httputil.NewRouter(deps.Log, requestTimeout(deps.Config))

	r.Post("/api/summarize", summarizeHandler(deps))
	r.Post("/api/extract", extractHandler(deps))
	r.Post("/api/ask", askHandler(deps))
	r.Delete("/api/cache", clearCacheHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))
	return r
}

func summarizeHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req textRequest
		if err := httputil.DecodeJSON(w, r, deps.Config.MaxRequestSize, &req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		summary, err := deps.Assistant.Summarize(r.Context(), req.Text)
		if err != nil {
			fail(deps.Log, w, "summary failed", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"summary": summary})
	}
}

func extractHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req textRequest
		if err := httputil.DecodeJSON(w, r, deps.Config.MaxRequestSize, &req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		facts, err := deps.Assistant.Extract(r.Context(), req.Text)
		if err != nil {
			fail(deps.Log, w, "extraction failed", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"facts": facts})
	}
}

func askHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req askRequest
		if err := httputil.DecodeJSON(w, r, deps.Config.MaxRequestSize, &req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		// a fresh conversation per request keeps callers' turns apart
		chat, err := deps.Assistant.NewChat(r.Context(), req.Document)
		if err != nil {
			fail(deps.Log, w, "failed to start conversation", err)
			return
		}
		answer, err := deps.Assistant.Ask(r.Context(), req.Question, chat)
		if err != nil {
			fail(deps.Log.With("session", chat.ID()), w, "question failed", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"answer": answer})
	}
}

func clearCacheHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Assistant.ClearCache(r.Context()); err != nil {
			httputil.Fail(deps.Log, w, "failed to clear cache", err, http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// requestTimeout covers two full retry cycles, since ask may open a
// conversation before sending the question.
func requestTimeout(cfg config.Config) time.Duration {
	policy := retry.Policy{Base: cfg.BackoffBase}
	attempts := cfg.MaxRetries
	if attempts <= 0 {
		attempts = retry.DefaultMaxAttempts
	}
	cycle := time.Duration(attempts) * cfg.LLMTimeout
	for i := 0; i < attempts-1; i++ {
		cycle += policy.Delay(i)
	}
	return 2*cycle + 10*time.Second
}

// fail maps assistant errors onto gateway statuses.
func fail(log *slog.Logger, w http.ResponseWriter, message string, err error) {
	httputil.Fail(log, w, message, err, statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, retry.ErrMaxRetriesExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, structured.ErrJSONParse), errors.Is(err, retry.ErrPermanent):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
