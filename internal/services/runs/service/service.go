// Package service contains run archive workflows
package service

import (
	"context"
	"encoding/json"

	"cibscope/internal/modkit/repokit"
	perr "cibscope/internal/platform/errors"
	"cibscope/internal/services/runs/domain"
	"cibscope/internal/services/runs/repo"
	scandom "cibscope/internal/services/scan/domain"
)

// Service defines the runs service contract
type Service interface {
	domain.ArchivePort
}

// Svc implements the runs service
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner
}

// New constructs a runs service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo]) *Svc {
	if db == nil {
		panic("runs.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("runs.Service requires a non nil Repo binder")
	}
	return &Svc{Repo: binder.Bind(db), binder: binder, db: db}
}

// Save archives a finished report
func (s *Svc) Save(ctx context.Context, rep *scandom.Report) error {
	if rep == nil || rep.RunID == "" {
		return perr.Newf(perr.ErrorCodeInvalidArgument, "runs: report missing run id")
	}
	raw, err := json.Marshal(rep)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "runs: report marshal failed")
	}
	return s.Repo.Insert(ctx, rep.Summarize(), raw)
}

// List returns recent run summaries, newest first
func (s *Svc) List(ctx context.Context, limit int) ([]scandom.Summary, error) {
	return s.Repo.List(ctx, limit)
}

// Get returns one archived report by run id
func (s *Svc) Get(ctx context.Context, runID string) (*scandom.Report, error) {
	raw, err := s.Repo.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	var rep scandom.Report
	if err := json.Unmarshal(raw, &rep); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "runs: archived report corrupt")
	}
	return &rep, nil
}
