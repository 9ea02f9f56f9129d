package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"smart-qa/internal/app"
	"smart-qa/internal/assistant"
	"smart-qa/internal/httputil"
	"smart-qa/internal/queue"
)

type textPayload struct {
	Text string `json:"text" validate:"required"`
}

type askPayload struct {
	Document string `json:"document" validate:"required"`
	Question string `json:"question" validate:"required"`
}

func main() {
	deps, err := app.BuildWorker()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Close()
	deps.Log.Info("worker starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	for taskType, handler := range handlers(deps.Assistant) {
		g.Go(func() error {
			return deps.Queue.Serve(ctx, taskType, handler)
		})
	}

	g.Go(func() error {
		return httputil.ServeHealth(ctx, deps.Log, deps.Config.Port, "worker")
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("worker stopped", "err", err)
	}
}

func handlers(svc assistant.Service) map[queue.TaskType]queue.Handler {
	return map[queue.TaskType]queue.Handler{
		queue.TaskTypeSummarize: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p textPayload
			if err := decode(raw, &p); err != nil {
				return nil, err
			}
			summary, err := svc.Summarize(ctx, p.Text)
			if err != nil {
				return nil, err
			}
			return map[string]string{"summary": summary}, nil
		},
		queue.TaskTypeExtract: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p textPayload
			if err := decode(raw, &p); err != nil {
				return nil, err
			}
			facts, err := svc.Extract(ctx, p.Text)
			if err != nil {
				return nil, err
			}
			return map[string]any{"facts": facts}, nil
		},
		queue.TaskTypeAsk: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p askPayload
			if err := decode(raw, &p); err != nil {
				return nil, err
			}
			chat, err := svc.NewChat(ctx, p.Document)
			if err != nil {
				return nil, err
			}
			answer, err := svc.Ask(ctx, p.Question, chat)
			if err != nil {
				return nil, err
			}
			return map[string]string{"answer": answer}, nil
		},
	}
}

func decode(raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	if err := httputil.Validator.Struct(dst); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}
