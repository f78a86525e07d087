// Package domain defines the core types and contracts for the scan service
package domain

import (
	"time"

	"cibscope/internal/core/detect"
	"cibscope/internal/core/graph"
	"cibscope/internal/core/params"
	"cibscope/internal/core/post"
	"cibscope/internal/core/risk"
	"cibscope/internal/core/stats"
)

// Input carries one dataset plus the knobs for a single run
type Input struct {
	Posts []post.Post

	// Links, when present, replaces the built-in co-hashtag graph
	Links []graph.Link

	Params params.Params

	// Preset records which sensitivity preset produced Params; 0 means
	// custom or default parameters. Carried into the archive only.
	Preset int

	// Seed pins community detection ordering; 0 means clock-seeded
	Seed int64
}

// Report is the full result of one run. Self-contained: rendering and
// archiving consume it without reaching back into the engine.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Params params.Params `json:"params"`
	Preset int           `json:"preset,omitempty"`

	// Fingerprint identifies the filtered dataset this run scanned
	Fingerprint string `json:"fingerprint"`

	Posts   int `json:"posts"`
	Users   int `json:"users"`
	Skipped int `json:"skipped,omitempty"`

	Dataset stats.DatasetStats `json:"dataset"`

	Findings   []detect.Finding `json:"findings"`
	Suspicious []*risk.Record   `json:"suspicious"`

	Graph       *graph.Graph   `json:"graph,omitempty"`
	Metrics     *graph.Metrics `json:"metrics,omitempty"`
	Communities int            `json:"communities"`

	// Warnings records non-fatal stage failures; the run carries on
	Warnings []string `json:"warnings,omitempty"`
}

// Summary is the compact archival view of a Report
type Summary struct {
	RunID       string    `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Fingerprint string    `json:"fingerprint"`
	Preset      int       `json:"preset,omitempty"`
	Posts       int       `json:"posts"`
	Users       int       `json:"users"`
	Findings    int       `json:"findings"`
	Suspicious  int       `json:"suspicious"`
	Communities int       `json:"communities"`
	TopScore    int       `json:"top_score"`
}

// Summarize collapses a report for archival
func (r *Report) Summarize() Summary {
	top := 0
	if len(r.Suspicious) > 0 {
		top = r.Suspicious[0].Score
	}
	return Summary{
		RunID:       r.RunID,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		Fingerprint: r.Fingerprint,
		Preset:      r.Preset,
		Posts:       r.Posts,
		Users:       r.Users,
		Findings:    len(r.Findings),
		Suspicious:  len(r.Suspicious),
		Communities: r.Communities,
		TopScore:    top,
	}
}
