// Package workspace provides ephemeral, uniquely named build directories.
//
// A workspace is owned by exactly one execution. It is created right before the
// source file is written and removed recursively once the execution is over,
// whatever the outcome. Use With rather than New/Remove pairs so the release
// cannot be forgotten on an early return.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/xid"
)

// Workspace is a directory holding one request's source file and artifacts.
type Workspace struct {
	dir string
}

// New creates a fresh directory under root with a random unique name.
// An empty root means the current working directory.
func New(root string) (*Workspace, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("workspace: resolving root %q: %w", root, err)
	}

	dir := filepath.Join(abs, xid.New().String())
	// Mkdir, not MkdirAll: an existing directory means a name collision.
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("workspace: creating %s: %w", dir, err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the absolute path of the workspace.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// NewFileName returns a random file name with the given extension (".java").
func (w *Workspace) NewFileName(ext string) string {
	return xid.New().String() + ext
}

// WriteFile writes content to name inside the workspace.
func (w *Workspace) WriteFile(name, content string) (string, error) {
	p := w.Path(name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("workspace: writing %s: %w", name, err)
	}
	return p, nil
}

// Remove deletes the workspace and everything in it.
func (w *Workspace) Remove() error {
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("workspace: removing %s: %w", w.dir, err)
	}
	return nil
}

// With creates a workspace under root, runs fn inside it and removes the
// workspace afterwards, also when fn fails or panics. A removal failure is
// reported only when fn itself succeeded.
func With(root string, fn func(*Workspace) error) (err error) {
	ws, err := New(root)
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := ws.Remove(); rmErr != nil && err == nil {
			err = rmErr
		}
	}()
	return fn(ws)
}
