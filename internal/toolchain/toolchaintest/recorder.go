// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package toolchaintest provides a recording toolchain.Runner for tests of
// the stage implementations.
package toolchaintest

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/pdiddy/printandscan/internal/toolchain"
)

// Call is one recorded tool invocation.
type Call struct {
	Tool string
	Args []string
}

// String renders the call as a shell-like command line.
func (c Call) String() string {
	return c.Tool + " " + strings.Join(c.Args, " ")
}

// Handler simulates a tool. It returns the tool's stdout and an error.
type Handler func(ctx context.Context, args []string) (string, error)

// Recorder is a toolchain.Runner that records every call and dispatches to
// per-tool handlers. Tools without a handler succeed with empty output.
// It is safe for concurrent use.
type Recorder struct {
	// Missing lists tools Check reports as not on PATH.
	Missing map[string]bool

	// Handlers maps a tool name to its simulated behavior.
	Handlers map[string]Handler

	mu    sync.Mutex
	calls []Call
}

var _ toolchain.Runner = (*Recorder)(nil)

// Check reports every tool listed in Missing.
func (r *Recorder) Check(tools ...string) error {
	var missing []string
	for _, t := range tools {
		if r.Missing[t] {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return &toolchain.MissingToolsError{Tools: missing}
	}
	return nil
}

// Run records the call and invokes the tool's handler.
func (r *Recorder) Run(ctx context.Context, tool string, args ...string) error {
	_, err := r.Output(ctx, tool, args...)
	return err
}

// Output records the call and returns the handler's output.
func (r *Recorder) Output(ctx context.Context, tool string, args ...string) (string, error) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Tool: tool, Args: append([]string(nil), args...)})
	h := r.Handlers[tool]
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", &toolchain.ToolError{Tool: tool, Args: args, ExitCode: -1, Err: err}
	}
	if h == nil {
		return "", nil
	}
	return h(ctx, args)
}

// Calls returns a copy of the recorded calls in invocation order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsTo returns the recorded calls to tool.
func (r *Recorder) CallsTo(tool string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Tool == tool {
			out = append(out, c)
		}
	}
	return out
}

// Fail returns a handler that fails with a *toolchain.ToolError.
func Fail(tool string, exitCode int, stderr string) Handler {
	return func(_ context.Context, args []string) (string, error) {
		return "", &toolchain.ToolError{Tool: tool, Args: args, ExitCode: exitCode, Stderr: stderr}
	}
}

// TouchLast returns a handler that creates the file named by the last
// argument, as most tools take their output path last.
func TouchLast(content string) Handler {
	return func(_ context.Context, args []string) (string, error) {
		if len(args) == 0 {
			return "", nil
		}
		return "", os.WriteFile(args[len(args)-1], []byte(content), 0o644)
	}
}

// Flag returns the value of the first argument of the form prefix+value,
// or "" when absent. Flag(args, "-sOutputFile=") yields the output path of
// a Ghostscript call.
func Flag(args []string, prefix string) string {
	for _, a := range args {
		if strings.HasPrefix(a, prefix) {
			return strings.TrimPrefix(a, prefix)
		}
	}
	return ""
}
