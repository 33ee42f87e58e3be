// Package dataset resolves the shared benchmark input and injects its size
// into reference sources before they are compiled.
package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrInputMissing is returned when the configured input dataset does not exist.
// It is fatal for the whole run.
var ErrInputMissing = errors.New("input dataset not found")

// Dataset is the resolved, immutable stimulus shared by every benchmark in a run.
type Dataset struct {
	path    string
	content string
	size    int
}

// Load resolves path to an absolute path and reads it.
func Load(path string) (*Dataset, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve input %q: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputMissing, abs)
		}
		return nil, fmt.Errorf("stat input %q: %w", abs, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInputMissing, abs)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read input %q: %w", abs, err)
	}
	content := string(data)
	return &Dataset{path: abs, content: content, size: len(strings.Fields(content))}, nil
}

// Path is the absolute location of the dataset.
func (d *Dataset) Path() string { return d.path }

// Content is the raw dataset text.
func (d *Dataset) Content() string { return d.content }

// Size is the number of whitespace-delimited tokens in the dataset.
func (d *Dataset) Size() int { return d.size }

// Stdin returns a fresh reader over the dataset, one per launched process.
func (d *Dataset) Stdin() io.Reader { return strings.NewReader(d.content) }
