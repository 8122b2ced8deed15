// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// OrdinalWidth is the zero-padded width of page ordinals in artifact names.
const OrdinalWidth = 4

// Ordinal formats a 1-based page index as a fixed-width, lexicographically
// sortable string (e.g. 7 -> "0007").
func Ordinal(index int) string {
	return fmt.Sprintf("%0*d", OrdinalWidth, index)
}

// PageUnit is one page extracted from the normalized document as its own
// single-page PDF.
type PageUnit struct {
	// Index is the 1-based position of the page in the source document.
	Index int `json:"index" yaml:"index"`

	// Path is the single-page PDF in the run workspace.
	Path string `json:"path" yaml:"path"`
}

// Ordinal returns the zero-padded form of the page index.
func (p PageUnit) Ordinal() string { return Ordinal(p.Index) }

// DegradedPage is the single-page PDF holding the distorted raster of a page.
type DegradedPage struct {
	Index int     `json:"index" yaml:"index"`
	Path  string  `json:"path" yaml:"path"`
	Angle float64 `json:"angle" yaml:"angle"`
}

// Ordinal returns the zero-padded form of the page index.
func (p DegradedPage) Ordinal() string { return Ordinal(p.Index) }

// RunStatus records how a pipeline run ended.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// PageRecord is the per-page portion of a RunReport.
type PageRecord struct {
	Index   int     `json:"index" yaml:"index"`
	Ordinal string  `json:"ordinal" yaml:"ordinal"`
	Angle   float64 `json:"angle" yaml:"angle"`
}

// RunReport summarizes one pipeline run. It is written as YAML on request
// and recorded in the run journal.
type RunReport struct {
	Input      string       `json:"input" yaml:"input"`
	Output     string       `json:"output" yaml:"output"`
	Backend    Backend      `json:"backend" yaml:"backend"`
	DPI        int          `json:"dpi" yaml:"dpi"`
	Seed       uint64       `json:"seed" yaml:"seed"`
	PageCount  int          `json:"page_count" yaml:"page_count"`
	Pages      []PageRecord `json:"pages" yaml:"pages"`
	Status     RunStatus    `json:"status" yaml:"status"`
	Error      string       `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt  time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time    `json:"finished_at" yaml:"finished_at"`
}

// Duration returns how long the run took.
func (r RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
