// Package risk folds detector findings into per-user risk records. This is
// the single-writer merge step: detectors run read-only and in any order,
// fusion owns the score map.
package risk

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"cibscope/internal/core/detect"
)

// Record is the fused risk verdict for one user
type Record struct {
	UserID string `json:"user_id"`

	// Score is 0..100 after all passes and clamps
	Score int `json:"score"`

	// Reasons is the ordered human-readable evidence, one per finding
	Reasons []string `json:"reasons"`

	// Kinds tracks contributing indicator kinds for combo bonuses
	Kinds map[detect.Kind]bool `json:"-"`
}

// Per-indicator base weights. The ordering of application does not matter
// within the base pass; cross-indicator boosts run strictly afterwards.
var weights = map[detect.Kind]int{
	detect.KindSynchronizedPair:  25,
	detect.KindRareHashtagGroup:  20,
	detect.KindUsernameGroup:     10,
	detect.KindHighVolumeOutlier: 15,
	detect.KindBurst:             15,
	detect.KindRegularRhythm:     20,
	detect.KindNightActive:       25,
	detect.KindSemanticPair:      25,
	detect.KindTemplatePair:      20,
	detect.KindCreationCluster:   30,
}

// combo bonuses applied after the multiplicative pass, each independently
// clamped to 100
type combo struct {
	a, b  detect.Kind
	bonus int
}

var combos = []combo{
	{detect.KindUsernameGroup, detect.KindCreationCluster, 20},
	{detect.KindSynchronizedPair, detect.KindRegularRhythm, 15},
}

// Fuse merges findings into risk records.
//
// Pass 1 sums fixed weights and appends one reason per contributing
// finding. Pass 2 multiplies users holding two or more distinct reasons by
// 1 + crossMultiplier*reasonCount, clamped to 100. Pass 3 adds combo
// bonuses on the already-multiplied score, each clamped again. Adding a
// qualifying finding never lowers a final score.
func Fuse(findings []detect.Finding, crossMultiplier float64) map[string]*Record {
	records := make(map[string]*Record)

	rec := func(uid string) *Record {
		r := records[uid]
		if r == nil {
			r = &Record{UserID: uid, Kinds: make(map[detect.Kind]bool)}
			records[uid] = r
		}
		return r
	}

	for _, f := range findings {
		w := weights[f.Kind]
		if w == 0 {
			continue
		}
		for _, uid := range f.Users {
			r := rec(uid)
			r.Score += w
			r.Kinds[f.Kind] = true
			r.Reasons = append(r.Reasons, reason(f, uid))
		}
	}

	for _, r := range records {
		if n := len(r.Reasons); n >= 2 {
			boosted := float64(r.Score) * (1 + crossMultiplier*float64(n))
			r.Score = clamp(int(math.Round(boosted)))
		} else {
			r.Score = clamp(r.Score)
		}
		for _, c := range combos {
			if r.Kinds[c.a] && r.Kinds[c.b] {
				r.Score = clamp(r.Score + c.bonus)
			}
		}
	}
	return records
}

// Suspicious returns records sorted by descending score, ties by user id.
// Users untouched by any finding are absent by construction.
func Suspicious(records map[string]*Record) []*Record {
	out := make([]*Record, 0, len(records))
	for _, r := range records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

func clamp(v int) int {
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}

// reason renders one human-readable evidence line for uid
func reason(f detect.Finding, uid string) string {
	switch f.Kind {
	case detect.KindSynchronizedPair:
		return fmt.Sprintf("synchronized posting with %s (%d co-timed posts)", other(f.Users, uid), f.Count)
	case detect.KindRareHashtagGroup:
		return fmt.Sprintf("pushed a rare hashtag combination with %d accounts (tf-idf %.2f)", f.Count-1, f.Value)
	case detect.KindUsernameGroup:
		return fmt.Sprintf("username nearly identical to %d other accounts (similarity %.2f)", f.Count-1, f.Value)
	case detect.KindHighVolumeOutlier:
		return fmt.Sprintf("posting volume outlier (%d posts, z-score %.1f)", f.Count, f.Value)
	case detect.KindBurst:
		return fmt.Sprintf("burst of %d posts in one window", f.Count)
	case detect.KindRegularRhythm:
		return fmt.Sprintf("mechanically regular posting rhythm (CV %.2f)", f.Value)
	case detect.KindNightActive:
		return fmt.Sprintf("active around the clock (max rest gap %.0f min)", f.Value/60)
	case detect.KindSemanticPair:
		return fmt.Sprintf("near-duplicate caption meaning with %s (similarity %.2f)", other(f.Users, uid), f.Value)
	case detect.KindTemplatePair:
		return fmt.Sprintf("shares caption templates with %s (overlap %.2f)", other(f.Users, uid), f.Value)
	case detect.KindCreationCluster:
		return fmt.Sprintf("account created alongside %d others in one window", f.Count-1)
	default:
		return string(f.Kind)
	}
}

// other names the counterpart(s) in a pair or small group
func other(users []string, uid string) string {
	var rest []string
	for _, u := range users {
		if u != uid {
			rest = append(rest, u)
		}
	}
	return strings.Join(rest, ", ")
}
