// Package structured turns model replies into key/value data.
package structured

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrJSONParse is returned when a reply is not a single well-formed JSON object.
var ErrJSONParse = errors.New("json parse error")

// Parse decodes raw as exactly one JSON object. Anything else, including
// null, arrays, scalars or trailing content, fails with ErrJSONParse.
func Parse(raw string) (map[string]any, error) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrJSONParse)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJSONParse, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing content after object", ErrJSONParse)
	}
	return out, nil
}

// ParseFenced strips one surrounding Markdown code fence, if any, then parses.
func ParseFenced(raw string) (map[string]any, error) {
	return Parse(StripFence(raw))
}

// StripFence removes a leading ``` line (with optional language tag) and the
// matching closing ``` from s. Text without a fence is returned unchanged.
func StripFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") || !strings.HasSuffix(t, "```") || len(t) < 6 {
		return s
	}
	t = strings.TrimSuffix(t, "```")
	nl := strings.IndexByte(t, '\n')
	if nl < 0 {
		return s
	}
	return strings.TrimSpace(t[nl+1:])
}
