// Package assistant composes the response cache, the retrying request
// executor and the structured-output parser into the three user operations.
package assistant

import (
	"context"
	"errors"
	"log/slog"

	"smart-qa/internal/cache"
	"smart-qa/internal/llm"
	"smart-qa/internal/retry"
	"smart-qa/internal/structured"
)

// Operation names one of the supported actions.
type Operation string

const (
	OpSummarize Operation = "summarize"
	OpAsk       Operation = "ask"
	OpExtract   Operation = "extract"

	// opChat keys conversation handles, which are memoized on the seed text.
	opChat = "chat"
)

var ErrNoConversation = errors.New("no conversation")

var _ Service = (*Client)(nil)

// Service is the contract exposed to the CLI, the HTTP gateway and the worker.
type Service interface {
	Summarize(ctx context.Context, text string) (string, error)
	Extract(ctx context.Context, text string) (map[string]any, error)
	CreateChat(ctx context.Context, document string) (llm.Session, error)
	NewChat(ctx context.Context, document string) (llm.Session, error)
	Ask(ctx context.Context, question string, chat llm.Session) (string, error)
	ClearCache(ctx context.Context) error
}

// Options tunes a Client. Zero values fall back to the defaults.
type Options struct {
	Retry retry.Policy
	// StripCodeFences lets extraction accept a reply wrapped in a ``` fence.
	StripCodeFences bool
}

// Client owns its cache; nothing is shared between clients.
type Client struct {
	provider llm.Provider
	memo     *cache.Memo
	chats    cache.Handles[llm.Session]
	policy   retry.Policy
	parse    func(string) (map[string]any, error)
	log      *slog.Logger
}

func New(provider llm.Provider, store cache.Store, log *slog.Logger, opts Options) *Client {
	if log == nil {
		log = slog.Default()
	}
	policy := opts.Retry
	if policy.Retryable == nil {
		policy.Retryable = llm.IsTransient
	}
	if policy.Log == nil {
		policy.Log = log
	}
	parse := structured.Parse
	if opts.StripCodeFences {
		parse = structured.ParseFenced
	}
	return &Client{
		provider: provider,
		memo:     cache.NewMemo(store, log),
		policy:   policy,
		parse:    parse,
		log:      log,
	}
}

// Summarize returns a summary of text, calling the model at most once per distinct text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	key := cache.Key{Op: string(OpSummarize), Input: text}
	return cache.Remember(ctx, c.memo, key, func(ctx context.Context) (string, error) {
		return c.generate(ctx, OpSummarize, llm.SummarizeInstruction, text)
	})
}

// Extract returns the explicit facts in text as a key/value mapping.
// A reply that is not a JSON object fails with structured.ErrJSONParse and
// is not cached.
func (c *Client) Extract(ctx context.Context, text string) (map[string]any, error) {
	key := cache.Key{Op: string(OpExtract), Input: text}
	return cache.Remember(ctx, c.memo, key, func(ctx context.Context) (map[string]any, error) {
		raw, err := c.generate(ctx, OpExtract, llm.ExtractInstruction, text)
		if err != nil {
			return nil, err
		}
		facts, err := c.parse(raw)
		if err != nil {
			c.log.Error("extraction reply rejected", "err", err)
			return nil, err
		}
		return facts, nil
	})
}

// CreateChat returns the conversation seeded with document, opening a remote
// session only the first time a given document is seen. Every caller asking
// about that document shares its history, which suits a single user.
func (c *Client) CreateChat(ctx context.Context, document string) (llm.Session, error) {
	return c.chats.Get(ctx, cache.Key{Op: opChat, Input: document}, func(ctx context.Context) (llm.Session, error) {
		return c.NewChat(ctx, document)
	})
}

// NewChat opens a fresh conversation seeded with document. It is not
// memoized; servers use it so concurrent callers never see each other's turns.
func (c *Client) NewChat(ctx context.Context, document string) (llm.Session, error) {
	return retry.Do(ctx, c.policy, opChat, func(ctx context.Context) (llm.Session, error) {
		return c.provider.NewSession(ctx, llm.ChatInstruction(document))
	})
}

// Ask sends question to chat. Answers are not cached.
func (c *Client) Ask(ctx context.Context, question string, chat llm.Session) (string, error) {
	if chat == nil {
		return "", ErrNoConversation
	}
	log := c.policy.Log.With("session", chat.ID())
	policy := c.policy
	policy.Log = log
	return retry.Do(ctx, policy, string(OpAsk), func(ctx context.Context) (string, error) {
		return chat.Send(ctx, question)
	})
}

// ClearCache forgets every memoized result and conversation.
func (c *Client) ClearCache(ctx context.Context) error {
	c.chats.Reset()
	return c.memo.Clear(ctx)
}

func (c *Client) generate(ctx context.Context, op Operation, system, content string) (string, error) {
	return retry.Do(ctx, c.policy, string(op), func(ctx context.Context) (string, error) {
		return c.provider.Generate(ctx, llm.Request{System: system, Content: content})
	})
}
