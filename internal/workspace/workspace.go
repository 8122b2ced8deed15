// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workspace manages the temporary directory that holds every
// intermediate artifact of a pipeline run.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Prefix is the name prefix of run workspaces.
const Prefix = "printandscan-"

// Workspace is a temporary directory owned by one pipeline run. Acquire it
// with Create and release it with Close on every exit path.
type Workspace struct {
	dir       string
	closeOnce sync.Once
	closeErr  error
}

// Create makes a new workspace under parent. An empty parent uses the
// system temporary directory.
func Create(parent string) (*Workspace, error) {
	dir, err := os.MkdirTemp(parent, Prefix)
	if err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string { return w.dir }

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Close removes the workspace and everything in it. It is safe to call
// more than once.
func (w *Workspace) Close() error {
	w.closeOnce.Do(func() {
		if err := os.RemoveAll(w.dir); err != nil {
			w.closeErr = fmt.Errorf("removing workspace %s: %w", w.dir, err)
		}
	})
	return w.closeErr
}
