// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package toolchain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingTools is matched by errors.Is for a *MissingToolsError.
	ErrMissingTools = errors.New("missing required dependencies")

	// ErrToolFailed is matched by errors.Is for a *ToolError.
	ErrToolFailed = errors.New("external tool failed")
)

// MissingToolsError is the environment error raised when required tools are
// not resolvable on PATH. It lists every missing tool.
type MissingToolsError struct {
	Tools []string
}

func (e *MissingToolsError) Error() string {
	return fmt.Sprintf("%s: %s; install them and ensure they are in your PATH",
		ErrMissingTools, strings.Join(e.Tools, ", "))
}

func (e *MissingToolsError) Is(target error) bool { return target == ErrMissingTools }

// ToolError is the invocation error raised when a tool cannot be started or
// exits with a non-zero status.
type ToolError struct {
	Tool     string
	Args     []string
	ExitCode int // -1 when the process did not run to completion
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", e.Tool)
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, " exited with status %d", e.ExitCode)
	} else {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, ": %s", e.Stderr)
	}
	return b.String()
}

func (e *ToolError) Unwrap() error { return e.Err }

func (e *ToolError) Is(target error) bool { return target == ErrToolFailed }
