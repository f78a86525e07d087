// Package domain defines the run archive contracts
package domain

import (
	"context"

	scandom "cibscope/internal/services/scan/domain"
)

// ArchivePort persists finished runs and serves them back
type ArchivePort interface {
	// Save archives a finished report; the full report body is stored as
	// JSON alongside the indexed summary columns
	Save(ctx context.Context, rep *scandom.Report) error

	// List returns recent run summaries, newest first
	List(ctx context.Context, limit int) ([]scandom.Summary, error)

	// Get returns one archived report by run id
	Get(ctx context.Context, runID string) (*scandom.Report, error)
}
