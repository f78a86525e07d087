// Package params holds the tunable thresholds for a detection run and the
// named sensitivity presets that bundle them.
package params

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	perr "cibscope/internal/platform/errors"
)

// Params are the recognized tunables for one detection run.
// Zero value is NOT usable; start from Default() or a preset.
type Params struct {
	// SemanticEnabled gates the embedding comparison stage entirely
	SemanticEnabled bool `json:"semantic_enabled" yaml:"semantic_enabled"`

	// SemanticThreshold is the cosine similarity cutoff for SemanticPair
	SemanticThreshold float64 `json:"semantic_threshold" yaml:"semantic_threshold" validate:"gte=0,lte=1"`

	// NgramThreshold is the caption shingle overlap cutoff for TemplatePair
	NgramThreshold float64 `json:"ngram_threshold" yaml:"ngram_threshold" validate:"gte=0,lte=1"`

	// UsernameThreshold is the Levenshtein similarity cutoff
	UsernameThreshold float64 `json:"username_threshold" yaml:"username_threshold" validate:"gte=0,lte=1"`

	// TfidfThreshold flags hashtag sets whose mean tf-idf exceeds it
	TfidfThreshold float64 `json:"tfidf_threshold" yaml:"tfidf_threshold" validate:"gte=0"`

	// ZscoreThreshold flags posting-volume outliers
	ZscoreThreshold float64 `json:"zscore_threshold" yaml:"zscore_threshold" validate:"gt=0"`

	// BurstPosts is the minimum post count inside BurstWindow
	BurstPosts int `json:"burst_posts" yaml:"burst_posts" validate:"gte=2"`

	// BurstWindow is the sliding window span in seconds
	BurstWindow int64 `json:"burst_window" yaml:"burst_window" validate:"gt=0"`

	// RhythmCV flags users whose interval CV falls below it
	RhythmCV float64 `json:"rhythm_cv" yaml:"rhythm_cv" validate:"gt=0"`

	// NightGap is the average max intra-day gap, in seconds, below which a
	// user is considered never-sleeping
	NightGap int64 `json:"night_gap" yaml:"night_gap" validate:"gt=0"`

	// ClusterSize is the minimum account-creation cluster size
	ClusterSize int `json:"cluster_size" yaml:"cluster_size" validate:"gte=2"`

	// CreationWindow groups accounts created within it, in seconds
	CreationWindow int64 `json:"creation_window" yaml:"creation_window" validate:"gt=0"`

	// CrossMultiplier scales the multi-indicator score boost
	CrossMultiplier float64 `json:"cross_multiplier" yaml:"cross_multiplier" validate:"gte=0"`

	// SyncWindow is the synchrony time window in seconds
	SyncWindow int64 `json:"sync_window" yaml:"sync_window" validate:"gt=0"`

	// MinSyncPosts is the minimum synchronized post pairs per user pair
	MinSyncPosts int `json:"min_sync_posts" yaml:"min_sync_posts" validate:"gte=1"`

	// MinHashtagGroupSize is the minimum rare-hashtag group membership
	MinHashtagGroupSize int `json:"min_hashtag_group_size" yaml:"min_hashtag_group_size" validate:"gte=2"`

	// MinUsernameGroupSize is the minimum username-similarity group size
	MinUsernameGroupSize int `json:"min_username_group_size" yaml:"min_username_group_size" validate:"gte=2"`

	// MinHighVolumePosts is the floor below which volume outliers are ignored
	MinHighVolumePosts int `json:"min_high_volume_posts" yaml:"min_high_volume_posts" validate:"gte=1"`
}

// Default returns the baseline parameter set (preset 5)
func Default() Params {
	return Params{
		SemanticEnabled:      true,
		SemanticThreshold:    0.85,
		NgramThreshold:       0.5,
		UsernameThreshold:    0.8,
		TfidfThreshold:       3.0,
		ZscoreThreshold:      2.5,
		BurstPosts:           5,
		BurstWindow:          600,
		RhythmCV:             0.2,
		NightGap:             7200,
		ClusterSize:          3,
		CreationWindow:       86400,
		CrossMultiplier:      0.15,
		SyncWindow:           300,
		MinSyncPosts:         3,
		MinHashtagGroupSize:  3,
		MinUsernameGroupSize: 3,
		MinHighVolumePosts:   10,
	}
}

// Validate checks the parameter set against its tags
func (p Params) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(p); err != nil {
		return perr.Wrap(err, perr.ErrorCodeValidation, "invalid detection params")
	}
	return nil
}

// Preset returns the named sensitivity level 1..10.
// 1 is the most permissive (few findings), 10 the most aggressive.
// Thresholds interpolate linearly around the level-5 baseline.
func Preset(level int) (Params, error) {
	if level < 1 || level > 10 {
		return Params{}, perr.InvalidArgf("preset level %d out of range 1..10", level)
	}
	p := Default()

	// t runs -1.0 (level 1) .. +1.25 (level 10), 0 at the baseline
	t := float64(level-5) / 4.0

	p.SemanticThreshold = clamp01(0.85 - 0.07*t)
	p.NgramThreshold = clamp01(0.5 - 0.15*t)
	p.UsernameThreshold = clamp01(0.8 - 0.08*t)
	p.TfidfThreshold = 3.0 - 1.2*t
	p.ZscoreThreshold = 2.5 - 0.6*t
	p.RhythmCV = 0.2 + 0.1*t
	p.NightGap = int64(7200 + 1800*t)
	p.CrossMultiplier = 0.15 + 0.05*t

	if t > 0 {
		p.MinSyncPosts = maxInt(1, 3-int(2*t))
		p.BurstPosts = maxInt(3, 5-int(2*t))
	} else {
		p.MinSyncPosts = 3 - int(2*t) // stricter when permissive
		p.BurstPosts = 5 - int(2*t)
	}
	return p, nil
}

// LoadPresetFile reads a YAML file of named parameter sets keyed by label,
// e.g. overrides shipped alongside a deployment
func LoadPresetFile(path string) (map[string]Params, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "read preset file %s", path)
	}
	var out map[string]Params
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeValidation, "parse preset file")
	}
	for name, p := range out {
		if err := p.Validate(); err != nil {
			return nil, perr.WithField(err, name)
		}
	}
	return out, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
