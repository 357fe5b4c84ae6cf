package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by Sink.Open when no object exists under a name.
var ErrNotFound = errors.New("export: not found")

// Sink stores rendered workbooks by name.
type Sink interface {
	// Put stores size bytes from r under name, replacing any previous
	// object.
	Put(ctx context.Context, name string, r io.Reader, size int64) error

	// Open returns a reader over the object stored under name.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Kind labels the sink in metrics and logs.
	Kind() string
}

// FileSink keeps exports in a local directory.
type FileSink struct {
	dir string
}

// NewFileSink creates dir if needed. An empty dir selects a paydesk
// subdirectory of os.TempDir().
func NewFileSink(dir string) (*FileSink, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "paydesk-exports")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("export: creating %s: %w", dir, err)
	}
	return &FileSink{dir: dir}, nil
}

// Kind implements Sink.
func (s *FileSink) Kind() string { return "file" }

// Put writes to a temporary file and renames it into place so readers
// never see a partial workbook.
func (s *FileSink) Put(_ context.Context, name string, r io.Reader, _ int64) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".export-*")
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("export: writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("export: writing %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("export: storing %s: %w", name, err)
	}
	return nil
}

// Open implements Sink.
func (s *FileSink) Open(_ context.Context, name string) (io.ReadCloser, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("export: opening %s: %w", name, err)
	}
	return f, nil
}

func (s *FileSink) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("export: invalid name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}
