// Package file implements local filesystem and stdin data sources.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/datasource"
)

// StdinPath selects standard input instead of a file.
const StdinPath = "-"

// New returns Stdin for StdinPath and a Local source otherwise.
func New(path string, stdin io.Reader) datasource.Source {
	if path == StdinPath {
		return Stdin{R: stdin}
	}
	return NewLocal(path)
}

// Local opens a file from the local disk.
type Local struct{ path string }

// NewLocal returns a Local source bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Name returns the base name of the file so the script header does not leak
// the operator's directory layout.
func (l *Local) Name() string { return filepath.Base(l.path) }

// Open opens the configured path for reading.
//
// A context that is already done short-circuits without touching the
// filesystem. Errors are wrapped with the path and keep errors.Is working
// (e.g. errors.Is(err, os.ErrNotExist)). Directories are rejected.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", l.path, err)
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("open %s: is a directory", l.path)
	}
	return f, nil
}

// Stdin reads the document from R, typically os.Stdin.
type Stdin struct{ R io.Reader }

func (Stdin) Name() string { return "stdin" }

// Open returns R without closing it on Close.
func (s Stdin) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.R == nil {
		return nil, fmt.Errorf("open stdin: no reader")
	}
	return io.NopCloser(s.R), nil
}
