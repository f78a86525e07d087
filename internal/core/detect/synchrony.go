package detect

import (
	"sort"

	"cibscope/internal/core/params"
	"cibscope/internal/core/post"
)

// Synchrony finds user pairs with at least MinSyncPosts post pairs whose
// timestamps differ by less than SyncWindow seconds.
//
// Naive comparison is O(U^2 * P^2); instead every post is indexed into its
// time bucket of width SyncWindow plus the two adjacent buckets, so only
// users sharing a bucket are compared. Exact pairwise differences are then
// counted over the full timestamp lists, once per canonical pair.
func Synchrony(users map[string]*post.UserAggregate, p params.Params) []Finding {
	w := p.SyncWindow
	if w <= 0 || len(users) < 2 {
		return nil
	}

	// bucket -> user ids present near that bucket
	buckets := make(map[int64][]string)
	seen := make(map[int64]map[string]bool)
	add := func(b int64, uid string) {
		m := seen[b]
		if m == nil {
			m = make(map[string]bool)
			seen[b] = m
		}
		if !m[uid] {
			m[uid] = true
			buckets[b] = append(buckets[b], uid)
		}
	}
	for uid, u := range users {
		for _, ts := range u.Timestamps {
			b := ts / w
			// adjacent buckets catch pairs straddling a boundary
			add(b-1, uid)
			add(b, uid)
			add(b+1, uid)
		}
	}

	scored := make(map[string]bool)
	var out []Finding
	for _, uids := range buckets {
		if len(uids) < 2 {
			continue
		}
		for i := 0; i < len(uids); i++ {
			for j := i + 1; j < len(uids); j++ {
				key := pairKey(uids[i], uids[j])
				if scored[key] {
					continue
				}
				scored[key] = true
				n := countSyncedPairs(users[uids[i]].Timestamps, users[uids[j]].Timestamps, w)
				if n >= p.MinSyncPosts {
					a, b := sortedPair(uids[i], uids[j])
					out = append(out, Finding{
						Kind:  KindSynchronizedPair,
						Users: []string{a, b},
						Count: n,
					})
				}
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Users[0] != out[j].Users[0] {
			return out[i].Users[0] < out[j].Users[0]
		}
		return out[i].Users[1] < out[j].Users[1]
	})
	return out
}

// countSyncedPairs counts timestamp pairs with |a-b| < w. Both inputs are
// sorted, so a two-pointer sweep keeps this linear in the overlap.
func countSyncedPairs(a, b []int64, w int64) int {
	n := 0
	lo := 0
	for _, ta := range a {
		// advance past b entries too old to ever match again
		for lo < len(b) && b[lo] <= ta-w {
			lo++
		}
		for k := lo; k < len(b) && b[k] < ta+w; k++ {
			n++
		}
	}
	return n
}
