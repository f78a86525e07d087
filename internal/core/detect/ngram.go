package detect

import (
	"sort"
	"strings"

	"cibscope/internal/core/params"
	"cibscope/internal/core/post"
)

// captionMinLen is the shortest caption worth shingling
const captionMinLen = 20

// shingleSize is the word n-gram width for template comparison
const shingleSize = 5

// Templates flags user pairs whose captions share word n-grams beyond the
// configured overlap ratio, catching copy-paste posting that embedding
// similarity would also find but without the provider round-trip.
// Overlap is |intersection| / max(|A|,|B|) over the users' shingle sets.
func Templates(users map[string]*post.UserAggregate, p params.Params) []Finding {
	type entry struct {
		uid      string
		shingles map[string]bool
	}
	var entries []entry
	for uid, u := range users {
		set := shingleSet(u.Captions)
		if len(set) == 0 {
			continue
		}
		entries = append(entries, entry{uid: uid, shingles: set})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].uid < entries[j].uid })

	var out []Finding
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			ov := overlap(entries[i].shingles, entries[j].shingles)
			if ov > p.NgramThreshold {
				a, b := sortedPair(entries[i].uid, entries[j].uid)
				out = append(out, Finding{
					Kind:  KindTemplatePair,
					Users: []string{a, b},
					Value: ov,
				})
			}
		}
	}
	return out
}

// shingleSet folds every qualifying caption into one set of word n-grams
func shingleSet(captions []string) map[string]bool {
	set := make(map[string]bool)
	for _, c := range captions {
		if len(c) < captionMinLen {
			continue
		}
		words := tokenize(c)
		if len(words) < shingleSize {
			continue
		}
		for i := 0; i+shingleSize <= len(words); i++ {
			set[strings.Join(words[i:i+shingleSize], " ")] = true
		}
	}
	return set
}

func overlap(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	inter := 0
	for s := range small {
		if large[s] {
			inter++
		}
	}
	return float64(inter) / float64(len(large))
}
