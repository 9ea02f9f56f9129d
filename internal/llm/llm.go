// Package llm is the boundary to the remote text-generation service.
//
// Provider responses are decoded into plain strings here and SDK failures
// are converted into *APIError, so callers never touch SDK types.
package llm

import (
	"context"
	"errors"
)

var ErrEmptyResponse = errors.New("llm: empty response")

// Request is a single generation call.
type Request struct {
	System  string
	Content string
}

// Provider is a minimal LLM interface to allow pluggable transports.
type Provider interface {
	// Generate runs one model call and returns its text.
	Generate(ctx context.Context, req Request) (string, error)

	// NewSession opens a conversation governed by system.
	NewSession(ctx context.Context, system string) (Session, error)
}

// Session is a stateful question/answer conversation.
type Session interface {
	ID() string
	// Send submits one user message and returns the reply. A failed send
	// leaves the conversation history untouched.
	Send(ctx context.Context, message string) (string, error)
}
