package assistant

import (
	"context"

	"github.com/stretchr/testify/mock"

	"smart-qa/internal/llm"
)

// MockService is a mock implementation of Service using testify/mock.
type MockService struct {
	mock.Mock
}

func (m *MockService) Summarize(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

func (m *MockService) Extract(ctx context.Context, text string) (map[string]any, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *MockService) CreateChat(ctx context.Context, document string) (llm.Session, error) {
	args := m.Called(ctx, document)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(llm.Session), args.Error(1)
}

func (m *MockService) NewChat(ctx context.Context, document string) (llm.Session, error) {
	args := m.Called(ctx, document)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(llm.Session), args.Error(1)
}

func (m *MockService) Ask(ctx context.Context, question string, chat llm.Session) (string, error) {
	args := m.Called(ctx, question, chat)
	return args.String(0), args.Error(1)
}

func (m *MockService) ClearCache(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
