package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"smart-qa/internal/assistant"
	"smart-qa/internal/document"
	"smart-qa/internal/output"
)

const (
	menuPrompt     = "What would you like to do? [summarize | ask | extract] or [quit]: "
	questionPrompt = "Ask your question? /[quit]: "
	quitCommand    = "quit"

	// pasted documents can be long
	maxLineSize = 1 << 20
)

// errEndOfInput ends the session when stdin closes.
var errEndOfInput = errors.New("end of input")

type shellOptions struct {
	file string
	save string
}

type shell struct {
	svc  assistant.Service
	log  *slog.Logger
	opts shellOptions
	in   *bufio.Scanner
	out  io.Writer
}

func newShell(svc assistant.Service, log *slog.Logger, opts shellOptions, in io.Reader, out io.Writer) *shell {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &shell{svc: svc, log: log, opts: opts, in: scanner, out: out}
}

// run drives the menu until quit, end of input or cancellation. A failed
// operation is reported and the menu is shown again.
func (s *shell) run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		choice, err := s.prompt(menuPrompt)
		if errors.Is(err, errEndOfInput) {
			return nil
		}
		if err != nil {
			return err
		}

		switch strings.ToLower(choice) {
		case quitCommand:
			return nil
		case string(assistant.OpSummarize):
			err = s.summarize(ctx)
		case string(assistant.OpAsk):
			err = s.ask(ctx)
		case string(assistant.OpExtract):
			err = s.extract(ctx)
		case "":
			continue
		default:
			s.println("Unknown option: " + choice)
			continue
		}

		if errors.Is(err, errEndOfInput) {
			return nil
		}
		if err != nil {
			s.log.Error("operation failed", "op", choice, "err", err)
			s.println("Error: " + err.Error())
		}
	}
}

func (s *shell) summarize(ctx context.Context) error {
	text, err := s.source("Text you would like to summarize? : ")
	if err != nil {
		return err
	}
	summary, err := s.svc.Summarize(ctx, text)
	if err != nil {
		return err
	}
	if s.opts.save != "" {
		path, err := output.Write(s.opts.save, summary, output.KindText)
		if err != nil {
			return err
		}
		s.println("Summary saved to " + path)
		return nil
	}
	s.println(summary)
	return nil
}

func (s *shell) extract(ctx context.Context) error {
	text, err := s.source("Text you would like to extract details from? : ")
	if err != nil {
		return err
	}
	facts, err := s.svc.Extract(ctx, text)
	if err != nil {
		return err
	}
	if s.opts.save != "" {
		path, err := output.Write(s.opts.save, facts, output.KindJSON)
		if err != nil {
			return err
		}
		s.println("Extracted details saved to " + path)
		return nil
	}
	body, err := json.MarshalIndent(facts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode facts: %w", err)
	}
	s.println(string(body))
	return nil
}

func (s *shell) ask(ctx context.Context) error {
	text, err := s.source("Text you would like to ask questions on? : ")
	if err != nil {
		return err
	}
	chat, err := s.svc.CreateChat(ctx, text)
	if err != nil {
		return err
	}
	for {
		question, err := s.prompt(questionPrompt)
		if err != nil {
			return err
		}
		if question == quitCommand {
			return nil
		}
		if question == "" {
			continue
		}
		answer, err := s.svc.Ask(ctx, question, chat)
		if err != nil {
			return err
		}
		s.println(answer)
	}
}

// source returns the --file document, or prompts for the text.
func (s *shell) source(prompt string) (string, error) {
	if s.opts.file != "" {
		return document.Read(s.opts.file)
	}
	return s.prompt(prompt)
}

func (s *shell) prompt(label string) (string, error) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		fmt.Fprintln(s.out)
		return "", errEndOfInput
	}
	return strings.TrimSpace(s.in.Text()), nil
}

func (s *shell) println(line string) {
	fmt.Fprintln(s.out, line)
}
