package domain

import "context"

// RunnerPort is the external port for the scan engine
type RunnerPort interface {
	// Scan runs the full detection pipeline over in.Posts and returns the
	// report. Detector-stage failures surface as report warnings; only
	// cancellation and empty input fail the run.
	Scan(ctx context.Context, in Input) (*Report, error)
}
