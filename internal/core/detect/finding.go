// Package detect implements the CIB detectors. Each detector is a pure
// function over the per-run snapshot (posts, user aggregates, dataset
// stats) and emits read-only findings; nothing here mutates shared state,
// so stages can run on independent workers.
package detect

// Kind discriminates finding variants
type Kind string

const (
	// KindSynchronizedPair is two users repeatedly posting within the sync window
	KindSynchronizedPair Kind = "synchronized_pair"
	// KindRareHashtagGroup is a group pushing the same rare hashtag combination
	KindRareHashtagGroup Kind = "rare_hashtag_group"
	// KindUsernameGroup is a group of near-identical usernames
	KindUsernameGroup Kind = "username_group"
	// KindHighVolumeOutlier is a posting-volume z-score outlier
	KindHighVolumeOutlier Kind = "high_volume_outlier"
	// KindBurst is a burst of posts inside a short window
	KindBurst Kind = "burst"
	// KindRegularRhythm is a suspiciously low interval coefficient of variation
	KindRegularRhythm Kind = "regular_rhythm"
	// KindNightActive is round-the-clock activity with no sleep gap
	KindNightActive Kind = "night_active"
	// KindSemanticPair is two users with near-duplicate caption embeddings
	KindSemanticPair Kind = "semantic_pair"
	// KindTemplatePair is two users sharing caption n-gram templates
	KindTemplatePair Kind = "template_pair"
	// KindCreationCluster is a batch of accounts created inside one window
	KindCreationCluster Kind = "creation_cluster"
)

// Finding is one detector-specific signal. Findings are facts: never
// mutated after creation, folded into risk records by the fusion engine.
type Finding struct {
	Kind Kind `json:"kind"`

	// Users lists every user the finding implicates (2 for pair kinds)
	Users []string `json:"users"`

	// Count carries the integer payload: synchronized posts for pairs,
	// posts in window for bursts, member count for clusters
	Count int `json:"count,omitempty"`

	// Value carries the float payload: similarity, tf-idf, z-score,
	// CV, overlap ratio, or average night gap seconds
	Value float64 `json:"value,omitempty"`

	// At is an epoch-second anchor where one applies (burst window start,
	// creation cluster window start)
	At int64 `json:"at,omitempty"`

	// Snippets are short caption excerpts attached to semantic pairs
	Snippets []string `json:"snippets,omitempty"`
}

// pairKey is the canonical (sorted) key for a user pair so a pair is
// scored exactly once regardless of discovery order
func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "\x00" + b
}

// sortedPair returns the pair in canonical order
func sortedPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
