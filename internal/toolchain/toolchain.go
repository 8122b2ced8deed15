// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package toolchain locates and invokes the external command-line tools the
// pipeline stages delegate to (Ghostscript, pdftk, ImageMagick).
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"sort"
)

// Tool binaries used by the stage implementations.
const (
	Ghostscript = "gs"
	Pdftk       = "pdftk"
	Magick      = "magick"
)

// stderrLimit bounds how much of a failing tool's stderr is kept for the
// diagnostic message.
const stderrLimit = 4096

// Runner invokes external tools. Stage implementations depend on this
// interface so they can be exercised without the binaries installed.
type Runner interface {
	// Check verifies that every named tool resolves on PATH. It returns a
	// *MissingToolsError listing all missing tools at once.
	Check(tools ...string) error

	// Run executes tool with args and waits for it to exit. Standard output
	// is discarded.
	Run(ctx context.Context, tool string, args ...string) error

	// Output executes tool with args and returns its standard output.
	Output(ctx context.Context, tool string, args ...string) (string, error)
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Exec(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

// osExecutor is the production executor backed by os/exec. Processes are
// killed when ctx is cancelled.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Exec(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

var defaultExec = &osExecutor{}

// runner implements Runner on top of an executor.
type runner struct {
	exec executor
}

// NewRunner returns a Runner that executes tools found on PATH.
func NewRunner() Runner {
	return newRunner(defaultExec)
}

func newRunner(exec executor) *runner {
	return &runner{exec: exec}
}

func (r *runner) Check(tools ...string) error {
	var missing []string
	seen := make(map[string]bool, len(tools))
	for _, t := range tools {
		if seen[t] {
			continue
		}
		seen[t] = true
		if _, err := r.exec.LookPath(t); err != nil {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return &MissingToolsError{Tools: missing}
	}
	return nil
}

func (r *runner) Run(ctx context.Context, tool string, args ...string) error {
	return r.invoke(ctx, tool, args, io.Discard)
}

func (r *runner) Output(ctx context.Context, tool string, args ...string) (string, error) {
	var out bytes.Buffer
	if err := r.invoke(ctx, tool, args, &out); err != nil {
		return "", err
	}
	return out.String(), nil
}

func (r *runner) invoke(ctx context.Context, tool string, args []string, stdout io.Writer) error {
	stderr := &tailBuffer{limit: stderrLimit}
	err := r.exec.Exec(ctx, tool, args, stdout, stderr)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &ToolError{Tool: tool, Args: args, ExitCode: -1, Err: ctxErr}
	}
	te := &ToolError{Tool: tool, Args: args, ExitCode: -1, Stderr: stderr.String(), Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		te.ExitCode = exitErr.ExitCode()
	}
	return te
}

// ToolStatus reports where a tool resolved on PATH, if anywhere.
type ToolStatus struct {
	Name  string
	Path  string
	Found bool
}

// Locate resolves each named tool on PATH, returning results sorted by name.
func Locate(tools ...string) []ToolStatus {
	return locate(defaultExec, tools)
}

func locate(exec executor, tools []string) []ToolStatus {
	statuses := make([]ToolStatus, 0, len(tools))
	for _, t := range tools {
		path, err := exec.LookPath(t)
		statuses = append(statuses, ToolStatus{Name: t, Path: path, Found: err == nil})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(bytes.TrimSpace(t.buf))
}
