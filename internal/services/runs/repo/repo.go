// Package repo provides postgres access for the run archive
package repo

import (
	"context"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"

	"cibscope/internal/modkit/repokit"
	perr "cibscope/internal/platform/errors"
	"cibscope/internal/platform/store"
	scandom "cibscope/internal/services/scan/domain"
)

// Repo is the minimal persistence surface for runs
type Repo interface {
	Insert(ctx context.Context, sum scandom.Summary, report []byte) error
	List(ctx context.Context, limit int) ([]scandom.Summary, error)
	Get(ctx context.Context, runID string) ([]byte, error)
}

type (
	// PG is a binder that can bind the repo to a Queryer or TxRunner
	PG struct{}
	// queries implements the Repo interface
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder that can bind the repo to a Queryer or TxRunner
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind wires a Queryer to the repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (r *queries) Insert(ctx context.Context, sum scandom.Summary, report []byte) error {
	sql, args, err := psql.
		Insert("runs").
		Columns(
			"run_id", "started_at", "finished_at", "fingerprint", "preset",
			"posts", "users", "findings", "suspicious", "communities", "top_score",
			"report",
		).
		Values(
			sum.RunID, sum.StartedAt, sum.FinishedAt, sum.Fingerprint, sum.Preset,
			sum.Posts, sum.Users, sum.Findings, sum.Suspicious, sum.Communities, sum.TopScore,
			report,
		).
		Suffix("ON CONFLICT (run_id) DO NOTHING").
		ToSql()
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "runs insert build failed")
	}
	_, err = store.Exec(ctx, r.q, sql, args...)
	return err
}

func (r *queries) List(ctx context.Context, limit int) ([]scandom.Summary, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	sql, args, err := psql.
		Select(
			"run_id", "started_at", "finished_at", "fingerprint", "preset",
			"posts", "users", "findings", "suspicious", "communities", "top_score",
		).
		From("runs").
		OrderBy("started_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "runs list build failed")
	}
	return store.Many(ctx, r.q, func(row store.Row) (scandom.Summary, error) {
		var s scandom.Summary
		var started, finished time.Time
		if err := row.Scan(
			&s.RunID, &started, &finished, &s.Fingerprint, &s.Preset,
			&s.Posts, &s.Users, &s.Findings, &s.Suspicious, &s.Communities, &s.TopScore,
		); err != nil {
			return s, err
		}
		s.StartedAt, s.FinishedAt = started.UTC(), finished.UTC()
		return s, nil
	}, sql, args...)
}

func (r *queries) Get(ctx context.Context, runID string) ([]byte, error) {
	sql, args, err := psql.
		Select("report").
		From("runs").
		Where(sq.Eq{"run_id": runID}).
		ToSql()
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "runs get build failed")
	}
	raw, err := store.Scalar[json.RawMessage](ctx, r.q, sql, args...)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
