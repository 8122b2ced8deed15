// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the print-and-scan stages end to end: normalize,
// count and split, degrade every page, assemble, compress, and publish the
// result. All intermediates live in a workspace that is removed when the
// run ends, whether it succeeded or not.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/pdiddy/printandscan/internal/degrade"
	"github.com/pdiddy/printandscan/internal/toolchain"
	"github.com/pdiddy/printandscan/internal/workspace"
	"github.com/pdiddy/printandscan/pkg/types"
)

// Pipeline holds the collaborators of a run.
type Pipeline struct {
	Runner toolchain.Runner
	Tools  *Toolset

	// Out receives progress lines. Nil discards them.
	Out io.Writer

	// TempDir is the parent of the run workspace; empty means the system
	// temporary directory.
	TempDir string

	// Rand overrides the random source derived from the configured seed.
	Rand *rand.Rand

	// closeWorkspace releases the run workspace; nil means ws.Close.
	closeWorkspace func(ws *workspace.Workspace) error
}

// artifactStem names every workspace file. It is fixed rather than derived
// from the input name because pdftk, Ghostscript, and ImageMagick all
// expand % sequences in output file names.
const artifactStem = "document"

// NewRand returns the random source a run with seed uses.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d))
}

// Run executes every stage for cfg. It always returns a report describing
// the run; err is a *StageError naming the stage that failed.
func (p *Pipeline) Run(ctx context.Context, cfg types.ScanConfig) (*types.RunReport, error) {
	report := &types.RunReport{
		Input:     cfg.Document,
		Output:    cfg.Output,
		Backend:   cfg.Backend,
		DPI:       cfg.DPI,
		Seed:      cfg.Seed,
		StartedAt: time.Now().UTC(),
	}

	err := p.run(ctx, cfg, report)

	report.FinishedAt = time.Now().UTC()
	report.Status = types.RunSucceeded
	if err != nil {
		report.Status = types.RunFailed
		report.Error = err.Error()
	}
	return report, err
}

func (p *Pipeline) run(ctx context.Context, cfg types.ScanConfig, report *types.RunReport) error {
	if err := cfg.Validate(); err != nil {
		return &StageError{Stage: StageConfig, Err: err}
	}
	if _, err := os.Stat(cfg.Document); err != nil {
		return &StageError{Stage: StageConfig, Err: fmt.Errorf("input document: %w", err)}
	}
	if err := p.Runner.Check(p.Tools.Required...); err != nil {
		return &StageError{Stage: StageDependencies, Err: err}
	}

	ws, err := workspace.Create(p.TempDir)
	if err != nil {
		return &StageError{Stage: StageWorkspace, Err: err}
	}
	out := p.Out
	if out == nil {
		out = io.Discard
	}
	closeWorkspace := p.closeWorkspace
	if closeWorkspace == nil {
		closeWorkspace = (*workspace.Workspace).Close
	}
	// Cleanup failures are warnings; they never change the run's outcome.
	defer func() {
		if cerr := closeWorkspace(ws); cerr != nil {
			fmt.Fprintf(out, "warning: removing workspace %s: %v\n", ws.Dir(), cerr)
		}
	}()
	rng := p.Rand
	if rng == nil {
		rng = NewRand(cfg.Seed)
	}
	tools := p.Tools

	fmt.Fprintln(out, "Preprocessing PDF to RGB color space...")
	rgb := ws.Path(artifactStem + "_RGB.pdf")
	if err := tools.Normalizer.Normalize(ctx, cfg.Document, rgb); err != nil {
		return &StageError{Stage: StageNormalize, Err: err}
	}

	count, err := tools.Counter.PageCount(ctx, rgb)
	if err != nil {
		return &StageError{Stage: StageCount, Err: err}
	}
	if count == 0 {
		return &StageError{Stage: StageCount, Err: ErrNoPages}
	}
	report.PageCount = count

	fmt.Fprintln(out, "Extracting pages...")
	pages, err := tools.Splitter.Split(ctx, rgb, ws.Dir(), artifactStem)
	if err != nil {
		return &StageError{Stage: StageSplit, Err: err}
	}
	if err := checkPages(pages, count); err != nil {
		return &StageError{Stage: StageSplit, Err: err}
	}

	fmt.Fprintln(out, "Applying 'scanned' effect to pages...")
	d := &degrade.Degrader{
		Rasterizer: tools.Rasterizer,
		Distorter:  tools.Distorter,
		Wrapper:    tools.Wrapper,
		DPI:        cfg.DPI,
		Workers:    cfg.Workers,
		Progress:   out,
	}
	degraded, err := d.Degrade(ctx, pages, rng)
	if err != nil {
		return &StageError{Stage: StageDegrade, Err: err}
	}
	if err := checkDegraded(degraded, count); err != nil {
		return &StageError{Stage: StageDegrade, Err: err}
	}
	for _, dp := range degraded {
		report.Pages = append(report.Pages, types.PageRecord{Index: dp.Index, Ordinal: dp.Ordinal(), Angle: dp.Angle})
	}

	fmt.Fprintln(out, "Assembling final PDF...")
	large := ws.Path(artifactStem + "_large.pdf")
	if err := tools.Assembler.Assemble(ctx, degraded, cfg.DPI, large); err != nil {
		return &StageError{Stage: StageAssemble, Err: err}
	}

	fmt.Fprintf(out, "Compressing final PDF to %s...\n", cfg.Output)
	final := ws.Path(artifactStem + "_final.pdf")
	if err := tools.Compressor.Compress(ctx, large, final, cfg.DPI); err != nil {
		return &StageError{Stage: StageCompress, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return &StageError{Stage: StagePublish, Err: err}
	}
	if err := publish(final, cfg.Output); err != nil {
		return &StageError{Stage: StagePublish, Err: err}
	}
	return nil
}

// checkPages verifies that the split produced exactly the pages 1..count.
func checkPages(pages []types.PageUnit, count int) error {
	if len(pages) != count {
		return fmt.Errorf("%w: %d page files, %d pages", ErrPageCountMismatch, len(pages), count)
	}
	for i, p := range pages {
		if p.Index != i+1 {
			return fmt.Errorf("%w: position %d holds page %d", ErrPageSequence, i+1, p.Index)
		}
	}
	return nil
}

// checkDegraded verifies the fan-in: one degraded page per index, in order.
func checkDegraded(pages []types.DegradedPage, count int) error {
	if len(pages) != count {
		return fmt.Errorf("%w: %d degraded pages, %d pages", ErrPageCountMismatch, len(pages), count)
	}
	for i, p := range pages {
		if p.Index != i+1 || p.Path == "" {
			return fmt.Errorf("%w: position %d holds page %d", ErrPageSequence, i+1, p.Index)
		}
	}
	return nil
}
