package queue

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// TaskType enumerates supported request categories.
type TaskType string

const (
	TaskTypeSummarize TaskType = "summarize"
	TaskTypeExtract   TaskType = "extract"
	TaskTypeAsk       TaskType = "ask"
)

const subjectPrefix = "smartqa."

var ErrEmptyPayload = errors.New("empty payload")

// Subject is the NATS subject a task type is served on.
func (t TaskType) Subject() string { return subjectPrefix + string(t) }

// Request is the envelope a caller sends.
type Request struct {
	ID      uuid.UUID       `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// Reply is the envelope sent back. Exactly one of Result and Error is set.
type Reply struct {
	ID     uuid.UUID       `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Handler computes the result for one request payload.
type Handler func(ctx context.Context, payload json.RawMessage) (any, error)

// Queue exposes a minimal contract to serve request/reply traffic.
type Queue interface {
	// Serve handles requests for taskType until ctx is done.
	Serve(ctx context.Context, taskType TaskType, handler Handler) error
	Close() error
}

// Process decodes one raw request, runs handler and builds the reply.
func Process(ctx context.Context, data []byte, handler Handler) Reply {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Reply{Error: "invalid request: " + err.Error()}
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if len(req.Payload) == 0 {
		return Reply{ID: req.ID, Error: ErrEmptyPayload.Error()}
	}
	result, err := handler(ctx, req.Payload)
	if err != nil {
		return Reply{ID: req.ID, Error: err.Error()}
	}
	body, err := json.Marshal(result)
	if err != nil {
		return Reply{ID: req.ID, Error: "encode result: " + err.Error()}
	}
	return Reply{ID: req.ID, Result: body}
}
