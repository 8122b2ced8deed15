// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"
	"fmt"
)

// Stage names a pipeline step in diagnostics.
type Stage string

const (
	StageConfig       Stage = "config"
	StageDependencies Stage = "dependencies"
	StageWorkspace    Stage = "workspace"
	StageNormalize    Stage = "normalize"
	StageCount        Stage = "count"
	StageSplit        Stage = "split"
	StageDegrade      Stage = "degrade"
	StageAssemble     Stage = "assemble"
	StageCompress     Stage = "compress"
	StagePublish      Stage = "publish"
)

var (
	// ErrNoPages is returned for an input document with zero pages.
	ErrNoPages = errors.New("document has no pages")

	// ErrPageCountMismatch is returned when the number of split page files
	// differs from the document's page count.
	ErrPageCountMismatch = errors.New("split page count does not match document page count")

	// ErrPageSequence is returned when page indexes are not the contiguous
	// range 1..N in order.
	ErrPageSequence = errors.New("pages out of sequence")
)

// StageError records which stage of a run failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailedStage returns the stage recorded in err, or "" when err carries
// none.
func FailedStage(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
