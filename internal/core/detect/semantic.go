package detect

import (
	"context"
	"math"
	"runtime"
	"sort"

	"cibscope/internal/core/params"
	"cibscope/internal/core/post"
	"cibscope/internal/platform/logger"
)

// EmbeddingProvider turns caption text into fixed-length vectors. Assumed
// idempotent and cacheable by input text; round-trips are the slow part of
// a run, hence the batching below.
type EmbeddingProvider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingCache stores vectors across runs, keyed by the caller (dataset
// fingerprint + text hash). A nil cache is valid and means recompute.
type EmbeddingCache interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Set(ctx context.Context, key string, vec []float32)
}

// SemanticConfig wires the comparator's collaborators
type SemanticConfig struct {
	Provider EmbeddingProvider
	Cache    EmbeddingCache

	// CacheKey prefixes cache entries; callers derive it from the dataset
	// fingerprint and relevant parameters so a changed dataset invalidates
	CacheKey func(text string) string

	// Scope derives a CacheKey for one run from that run's dataset
	// fingerprint. When set, the engine rebuilds CacheKey before every
	// scan so cached vectors are never shared across datasets.
	Scope func(dataset string) func(text string) string

	// BatchSize bounds one provider round-trip; <=0 means 16
	BatchSize int
}

// Semantic compares one embedding per user (the longest qualifying caption,
// first seen winning ties) and emits pairs at or above the cosine
// threshold. Work happens in bounded batches; between batches the
// comparator checks ctx and yields so a shared scheduler stays responsive.
// A provider failure for a single caption drops only that user.
func Semantic(ctx context.Context, users map[string]*post.UserAggregate, cfg SemanticConfig, p params.Params) ([]Finding, error) {
	if cfg.Provider == nil {
		return nil, nil
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 16
	}
	log := logger.Named("semantic")

	type entry struct {
		uid     string
		caption string
		vec     []float32
	}
	var entries []entry
	for uid, u := range users {
		c := representativeCaption(u.Captions)
		if c == "" {
			continue
		}
		entries = append(entries, entry{uid: uid, caption: c})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].uid < entries[j].uid })

	// resolve from cache first
	var misses []int
	for i := range entries {
		if cfg.Cache != nil && cfg.CacheKey != nil {
			if vec, ok := cfg.Cache.Get(ctx, cfg.CacheKey(entries[i].caption)); ok {
				entries[i].vec = vec
				continue
			}
		}
		misses = append(misses, i)
	}

	// fetch misses in bounded batches, yielding between them
	for start := 0; start < len(misses); start += batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + batch
		if end > len(misses) {
			end = len(misses)
		}
		idxs := misses[start:end]
		texts := make([]string, len(idxs))
		for k, i := range idxs {
			texts[k] = entries[i].caption
		}

		vecs, err := cfg.Provider.Embed(ctx, texts)
		if err != nil || len(vecs) != len(texts) {
			// batch failed; retry item by item so one bad caption does not
			// take down the rest
			for _, i := range idxs {
				one, oerr := cfg.Provider.Embed(ctx, []string{entries[i].caption})
				if oerr != nil || len(one) != 1 {
					log.Warn().Str("user", entries[i].uid).Err(oerr).Msg("embedding failed, user excluded from semantic stage")
					continue
				}
				entries[i].vec = one[0]
			}
		} else {
			for k, i := range idxs {
				entries[i].vec = vecs[k]
			}
		}

		if cfg.Cache != nil && cfg.CacheKey != nil {
			for _, i := range idxs {
				if entries[i].vec != nil {
					cfg.Cache.Set(ctx, cfg.CacheKey(entries[i].caption), entries[i].vec)
				}
			}
		}
		runtime.Gosched() // cooperative yield between batches
	}

	var out []Finding
	for i := 0; i < len(entries); i++ {
		if entries[i].vec == nil {
			continue
		}
		for j := i + 1; j < len(entries); j++ {
			if entries[j].vec == nil {
				continue
			}
			sim := Cosine(entries[i].vec, entries[j].vec)
			if sim >= p.SemanticThreshold {
				a, b := sortedPair(entries[i].uid, entries[j].uid)
				sa, sb := entries[i], entries[j]
				if a != sa.uid {
					sa, sb = sb, sa
				}
				out = append(out, Finding{
					Kind:     KindSemanticPair,
					Users:    []string{a, b},
					Value:    sim,
					Snippets: []string{snippet(sa.caption, 80), snippet(sb.caption, 80)},
				})
			}
		}
	}
	return out, nil
}

// representativeCaption picks the longest caption of at least captionMinLen
// characters; the first seen wins length ties
func representativeCaption(captions []string) string {
	best := ""
	for _, c := range captions {
		if len(c) >= captionMinLen && len(c) > len(best) {
			best = c
		}
	}
	return best
}

// Cosine is the cosine similarity of two vectors; 0 for mismatched or
// zero-magnitude inputs
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
