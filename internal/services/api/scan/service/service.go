// Package service contains the API-facing scan workflow
package service

import (
	"context"

	"cibscope/internal/platform/logger"
	"cibscope/internal/services/api/scan/domain"
	runsdom "cibscope/internal/services/runs/domain"
	scandom "cibscope/internal/services/scan/domain"
)

// Service defines the API scan contract
type Service interface {
	Scan(ctx context.Context, in domain.ScanInput) (*scandom.Report, error)
	Get(ctx context.Context, runID string) (*scandom.Report, error)
}

// Svc implements the API scan service
type Svc struct {
	Runner  scandom.RunnerPort
	Archive runsdom.ArchivePort // optional; nil disables archiving
	log     logger.Logger
}

// New constructs the API scan service
func New(runner scandom.RunnerPort, archive runsdom.ArchivePort) *Svc {
	if runner == nil {
		panic("api scan.Service requires a non nil RunnerPort")
	}
	return &Svc{Runner: runner, Archive: archive, log: *logger.Named("api.scan")}
}

// Scan resolves parameters, runs the engine, and archives the report.
// An archive failure is logged but never fails a finished scan.
func (s *Svc) Scan(ctx context.Context, in domain.ScanInput) (*scandom.Report, error) {
	p, err := in.Resolve()
	if err != nil {
		return nil, err
	}

	preset := 0
	if in.Params == nil {
		preset = in.Preset
	}
	rep, err := s.Runner.Scan(ctx, scandom.Input{
		Posts:  in.Posts,
		Links:  in.Links,
		Params: p,
		Preset: preset,
		Seed:   in.Seed,
	})
	if err != nil {
		return nil, err
	}

	archive := in.Archive == nil || *in.Archive
	if archive && s.Archive != nil {
		if err := s.Archive.Save(ctx, rep); err != nil {
			s.log.Warn().Str("run", rep.RunID).Err(err).Msg("report archive failed")
			rep.Warnings = append(rep.Warnings, "report archive failed")
		}
	}
	return rep, nil
}

// Get returns one archived report by run id
func (s *Svc) Get(ctx context.Context, runID string) (*scandom.Report, error) {
	return s.Archive.Get(ctx, runID)
}
