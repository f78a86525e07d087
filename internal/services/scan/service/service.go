// Package service implements the scan engine: detector fan-out, risk
// fusion, and graph analysis for one dataset.
package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"cibscope/internal/core/detect"
	"cibscope/internal/core/graph"
	"cibscope/internal/core/post"
	"cibscope/internal/core/risk"
	"cibscope/internal/core/stats"
	perr "cibscope/internal/platform/errors"
	"cibscope/internal/platform/logger"
	"cibscope/internal/services/scan/domain"
)

// Config for the scan service
type Config struct {
	// Workers bounds concurrently running detector stages; <=0 means 4
	Workers int

	// Semantic wires the embedding provider and cache; a nil Provider
	// disables the stage regardless of params
	Semantic detect.SemanticConfig
}

// Service implements domain.RunnerPort
type Service struct {
	cfg Config
	log logger.Logger
	now func() time.Time
}

// New constructs a scan service
func New(cfg Config) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Service{cfg: cfg, log: *logger.Named("scan"), now: time.Now}
}

// stage is one detector: pure except semantic, which owns the only
// blocking I/O in a run
type stage struct {
	name string
	run  func(ctx context.Context) ([]detect.Finding, error)
}

// Scan runs every enabled detector over the dataset, fuses findings into
// risk records, and analyzes the interaction graph. A panicking or failing
// stage is recorded as a warning and its findings are dropped; the rest of
// the run is unaffected.
func (s *Service) Scan(ctx context.Context, in domain.Input) (*domain.Report, error) {
	if len(in.Posts) == 0 {
		return nil, perr.Newf(perr.ErrorCodeInvalidArgument, "scan: empty dataset")
	}
	p := in.Params
	if err := p.Validate(); err != nil {
		return nil, err
	}

	started := s.now().UTC()
	runID := uuid.NewString()
	log := s.log.With().Str("run", runID).Logger()

	users := post.Aggregate(in.Posts)
	if len(users) == 0 {
		return nil, perr.Newf(perr.ErrorCodeInvalidArgument, "scan: no valid posts in dataset")
	}
	fingerprint := post.Fingerprint(in.Posts)

	postCounts := make([]int, 0, len(users))
	tagCounts := make([]int, 0, len(users))
	for _, u := range users {
		postCounts = append(postCounts, u.PostCount())
		tagCounts = append(tagCounts, len(u.HashtagCounts))
	}
	volumeDist := stats.DescribeInts(postCounts)
	dataset := stats.ForDataset(postCounts, tagCounts)

	log.Info().Int("posts", len(in.Posts)).Int("users", len(users)).Msg("scan started")

	stages := []stage{
		{"synchrony", func(context.Context) ([]detect.Finding, error) {
			return detect.Synchrony(users, p), nil
		}},
		{"rare_hashtags", func(context.Context) ([]detect.Finding, error) {
			return detect.RareHashtags(in.Posts, users, p), nil
		}},
		{"high_volume", func(context.Context) ([]detect.Finding, error) {
			return detect.HighVolume(users, volumeDist, p), nil
		}},
		{"usernames", func(context.Context) ([]detect.Finding, error) {
			return detect.Usernames(users, p), nil
		}},
		{"templates", func(context.Context) ([]detect.Finding, error) {
			return detect.Templates(users, p), nil
		}},
		{"rhythm", func(context.Context) ([]detect.Finding, error) {
			return detect.Rhythm(users, p), nil
		}},
		{"night", func(context.Context) ([]detect.Finding, error) {
			return detect.NightActivity(users, p), nil
		}},
		{"bursts", func(context.Context) ([]detect.Finding, error) {
			return detect.Bursts(users, p), nil
		}},
		{"creation", func(context.Context) ([]detect.Finding, error) {
			return detect.CreationClusters(users, p), nil
		}},
	}
	if p.SemanticEnabled && s.cfg.Semantic.Provider != nil {
		// rescope the cache to this run's dataset so a changed filter
		// never reads another dataset's vectors
		sem := s.cfg.Semantic
		if sem.Scope != nil {
			sem.CacheKey = sem.Scope(fingerprint)
		}
		stages = append(stages, stage{"semantic", func(ctx context.Context) ([]detect.Finding, error) {
			return detect.Semantic(ctx, users, sem, p)
		}})
	}

	var (
		mu       sync.Mutex
		findings []detect.Finding
		warnings []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for _, st := range stages {
		st := st
		g.Go(func() error {
			fs, err := runStage(gctx, st)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err() // cancellation is fatal, not a warning
				}
				warnings = append(warnings, fmt.Sprintf("%s stage failed: %v", st.name, err))
				log.Warn().Str("stage", st.name).Err(err).Msg("detector stage failed, continuing")
				return nil
			}
			findings = append(findings, fs...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sortFindings(findings)

	records := risk.Fuse(findings, p.CrossMultiplier)
	suspicious := risk.Suspicious(records)

	scores := make(map[string]int, len(records))
	for uid, r := range records {
		scores[uid] = r.Score
	}

	var gr *graph.Graph
	if len(in.Links) > 0 {
		gr = &graph.Graph{Links: in.Links}
		gr.Nodes = nodesFromLinks(in.Links, users)
	} else {
		gr = graph.FromPosts(in.Posts)
	}
	gr.AnnotateRisk(scores)
	metrics := graph.Measure(gr)

	var rng *rand.Rand
	if in.Seed != 0 {
		rng = rand.New(rand.NewSource(in.Seed))
	}
	assign := graph.Communities(gr, rng)
	communities := countCommunities(assign)

	finished := s.now().UTC()
	log.Info().
		Int("findings", len(findings)).
		Int("suspicious", len(suspicious)).
		Int("communities", communities).
		Dur("took", finished.Sub(started)).
		Msg("scan finished")

	return &domain.Report{
		RunID:       runID,
		StartedAt:   started,
		FinishedAt:  finished,
		Params:      p,
		Preset:      in.Preset,
		Fingerprint: fingerprint,
		Posts:       len(in.Posts),
		Users:       len(users),
		Dataset:     dataset,
		Findings:    findings,
		Suspicious:  suspicious,
		Graph:       gr,
		Metrics:     metrics,
		Communities: communities,
		Warnings:    warnings,
	}, nil
}

// runStage isolates one detector; a panic becomes an error so a single
// misbehaving stage cannot take down the run
func runStage(ctx context.Context, st stage) (fs []detect.Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			fs, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return st.run(ctx)
}

// sortFindings orders findings deterministically so reports and fusion
// reasons are stable regardless of stage completion order
func sortFindings(fs []detect.Finding) {
	sort.Slice(fs, func(i, j int) bool {
		if fs[i].Kind != fs[j].Kind {
			return fs[i].Kind < fs[j].Kind
		}
		a, b := fs[i].Users, fs[j].Users
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})
}

// nodesFromLinks derives the node set for a caller-supplied link list.
// Ids that match a known user become user nodes; "#" ids become hashtags.
func nodesFromLinks(links []graph.Link, users map[string]*post.UserAggregate) []graph.Node {
	seen := make(map[string]bool)
	var nodes []graph.Node
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		kind := graph.KindLocation
		if _, ok := users[id]; ok {
			kind = graph.KindUser
		} else if id[0] == '#' {
			kind = graph.KindHashtag
		}
		nodes = append(nodes, graph.Node{ID: id, Kind: kind})
	}
	for _, l := range links {
		add(l.A)
		add(l.B)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// countCommunities counts distinct non-noise community ids
func countCommunities(assign map[string]int) int {
	seen := make(map[int]bool)
	for _, c := range assign {
		if c != graph.NoiseID {
			seen[c] = true
		}
	}
	return len(seen)
}
