package detect

import (
	"sort"

	"cibscope/internal/core/params"
	"cibscope/internal/core/post"
)

// Usernames clusters users whose handles are within Levenshtein distance of
// each other. Similarity is 1 - dist/max(len), symmetric by construction;
// names shorter than 4 runes are skipped (too easy to collide). Pairs at or
// above the threshold merge into groups; a pair founds a new group only
// when neither member already belongs to one (first match wins), and
// groups reaching MinUsernameGroupSize flag every member.
func Usernames(users map[string]*post.UserAggregate, p params.Params) []Finding {
	type entry struct {
		uid    string
		folded []rune
	}
	var entries []entry
	for uid, u := range users {
		r := []rune(foldText(u.Username))
		if len(r) < 4 {
			continue
		}
		entries = append(entries, entry{uid: uid, folded: r})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].uid < entries[j].uid })

	memberOf := make(map[string]int) // uid -> group index
	var groups [][]string

	join := func(a, b string) {
		ga, okA := memberOf[a]
		gb, okB := memberOf[b]
		switch {
		case okA && okB:
			// both already grouped; leave as-is (first match won)
		case okA:
			memberOf[b] = ga
			groups[ga] = append(groups[ga], b)
		case okB:
			memberOf[a] = gb
			groups[gb] = append(groups[gb], a)
		default:
			memberOf[a] = len(groups)
			memberOf[b] = len(groups)
			groups = append(groups, []string{a, b})
		}
	}

	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			sim := NameSimilarity(a.folded, b.folded)
			if sim >= p.UsernameThreshold {
				join(a.uid, b.uid)
			}
		}
	}

	var out []Finding
	for _, g := range groups {
		if len(g) < p.MinUsernameGroupSize {
			continue
		}
		members := append([]string(nil), g...)
		sort.Strings(members)
		out = append(out, Finding{
			Kind:  KindUsernameGroup,
			Users: members,
			Count: len(members),
			Value: groupSimilarity(members, users, p),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Users[0] < out[j].Users[0] })
	return out
}

// groupSimilarity is the mean pairwise similarity inside a flagged group,
// reported as evidence
func groupSimilarity(members []string, users map[string]*post.UserAggregate, _ params.Params) float64 {
	var sum float64
	n := 0
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			a := []rune(foldText(users[members[i]].Username))
			b := []rune(foldText(users[members[j]].Username))
			sum += NameSimilarity(a, b)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// NameSimilarity is 1 - levenshtein/maxLen over rune slices.
// Identical inputs score 1; zero-length inputs score 0 (skip, not flag).
func NameSimilarity(a, b []rune) float64 {
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0
	}
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	d := levenshtein(a, b)
	return 1 - float64(d)/float64(maxLen)
}

// levenshtein computes edit distance with a rolling single-row buffer
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur := i
		diag := prev[0]
		prev[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			next := diag + cost
			if v := prev[j] + 1; v < next {
				next = v
			}
			if v := cur + 1; v < next {
				next = v
			}
			diag = prev[j]
			prev[j] = next
			cur = next
		}
	}
	return prev[len(b)]
}
