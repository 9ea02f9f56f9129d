// Package output persists results into a caller-chosen directory.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrFolderNotFound = errors.New("folder not found")

// Kind selects the output format and file name.
type Kind string

const (
	KindText Kind = "text"
	KindJSON Kind = "json"
)

// FileName returns the fixed file name written for k.
func (k Kind) FileName() string {
	if k == KindJSON {
		return "output.json"
	}
	return "output.txt"
}

// Write stores content in dir and returns the written path. Text content
// must be a string; JSON content is encoded with two-space indentation.
// An existing file is overwritten.
func Write(dir string, content any, kind Kind) (string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrFolderNotFound, dir)
	}

	var data []byte
	switch kind {
	case KindText:
		s, ok := content.(string)
		if !ok {
			return "", fmt.Errorf("text output needs a string, got %T", content)
		}
		data = []byte(s)
	case KindJSON:
		data, err = json.MarshalIndent(content, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode json output: %w", err)
		}
		data = append(data, '\n')
	default:
		return "", fmt.Errorf("unknown output kind %q", kind)
	}

	path := filepath.Join(dir, kind.FileName())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
