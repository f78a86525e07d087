package detect

import (
	"math"
	"sort"
	"strings"

	"cibscope/internal/core/params"
	"cibscope/internal/core/post"
	"cibscope/internal/core/stats"
)

// RareHashtags scores each post's hashtag set by mean tf-idf and groups
// high-scoring sets by their sorted hashtag combination. Groups reaching
// MinHashtagGroupSize distinct members flag all of them.
//
// tf is the hashtag's share of the author's own hashtag usage; idf is
// ln(totalUsers / (usersUsingHashtag + 1)), so tags everyone uses score
// near zero and single-group tags score high.
func RareHashtags(posts []post.Post, users map[string]*post.UserAggregate, p params.Params) []Finding {
	totalUsers := len(users)
	if totalUsers == 0 {
		return nil
	}

	// document frequency per hashtag, in users
	df := make(map[string]int)
	for _, u := range users {
		for h := range u.HashtagCounts {
			df[h]++
		}
	}

	type group struct {
		members map[string]bool
		sum     float64
		n       int
	}
	groups := make(map[string]*group)

	for _, pt := range posts {
		if len(pt.Hashtags) == 0 {
			continue
		}
		u := users[pt.AuthorID]
		if u == nil {
			continue
		}
		listLen := 0
		for _, n := range u.HashtagCounts {
			listLen += n
		}
		if listLen == 0 {
			continue
		}

		var sum float64
		for _, h := range pt.Hashtags {
			tf := float64(u.HashtagCounts[h]) / float64(listLen)
			idf := math.Log(float64(totalUsers) / float64(df[h]+1))
			sum += tf * idf
		}
		score := sum / float64(len(pt.Hashtags))
		if score <= p.TfidfThreshold {
			continue
		}

		combo := append([]string(nil), pt.Hashtags...)
		sort.Strings(combo)
		key := strings.Join(combo, ",")

		g := groups[key]
		if g == nil {
			g = &group{members: make(map[string]bool)}
			groups[key] = g
		}
		g.members[pt.AuthorID] = true
		g.sum += score
		g.n++
	}

	var out []Finding
	for _, g := range groups {
		if len(g.members) < p.MinHashtagGroupSize {
			continue
		}
		members := make([]string, 0, len(g.members))
		for m := range g.members {
			members = append(members, m)
		}
		sort.Strings(members)
		out = append(out, Finding{
			Kind:  KindRareHashtagGroup,
			Users: members,
			Count: len(members),
			Value: g.sum / float64(g.n),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Users[0] < out[j].Users[0] })
	return out
}

// HighVolume flags users whose post count is a z-score outlier against the
// dataset distribution. A zero standard deviation means the distribution is
// degenerate and the check is skipped entirely.
func HighVolume(users map[string]*post.UserAggregate, dist stats.Distribution, p params.Params) []Finding {
	var out []Finding
	for uid, u := range users {
		if u.PostCount() < p.MinHighVolumePosts {
			continue
		}
		z, ok := dist.ZScore(float64(u.PostCount()))
		if !ok {
			return nil // not computable for anyone
		}
		if z >= p.ZscoreThreshold {
			out = append(out, Finding{
				Kind:  KindHighVolumeOutlier,
				Users: []string{uid},
				Count: u.PostCount(),
				Value: z,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Users[0] < out[j].Users[0] })
	return out
}
