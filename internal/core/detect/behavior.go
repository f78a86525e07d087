package detect

import (
	"sort"

	"cibscope/internal/core/params"
	"cibscope/internal/core/post"
	"cibscope/internal/core/stats"
)

const (
	rhythmMinPosts = 5
	nightMinPosts  = 10
	secondsPerDay  = int64(86400)
)

// Rhythm flags users whose inter-post intervals are mechanically regular:
// coefficient of variation below RhythmCV. Humans are bursty; schedulers
// are not.
func Rhythm(users map[string]*post.UserAggregate, p params.Params) []Finding {
	var out []Finding
	for uid, u := range users {
		if u.PostCount() < rhythmMinPosts {
			continue
		}
		d := stats.Describe(u.Intervals())
		cv, ok := d.CoefficientOfVariation()
		if !ok {
			continue // zero mean interval, nothing to say
		}
		if cv < p.RhythmCV {
			out = append(out, Finding{
				Kind:  KindRegularRhythm,
				Users: []string{uid},
				Count: u.PostCount(),
				Value: cv,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Users[0] < out[j].Users[0] })
	return out
}

// NightActivity flags users who never show a sleep gap. Per calendar day
// the largest intra-day gap between posts is computed, wrapping across
// midnight via the first and last time-of-day; the per-day maxima are
// averaged and users under NightGap seconds are flagged.
func NightActivity(users map[string]*post.UserAggregate, p params.Params) []Finding {
	var out []Finding
	for uid, u := range users {
		if u.PostCount() < nightMinPosts {
			continue
		}
		byDay := make(map[int64][]int64)
		for _, ts := range u.Timestamps {
			byDay[ts/secondsPerDay] = append(byDay[ts/secondsPerDay], ts%secondsPerDay)
		}
		var sum float64
		for _, tods := range byDay {
			sort.Slice(tods, func(i, j int) bool { return tods[i] < tods[j] })
			maxGap := secondsPerDay - tods[len(tods)-1] + tods[0] // midnight wrap
			for i := 1; i < len(tods); i++ {
				if g := tods[i] - tods[i-1]; g > maxGap {
					maxGap = g
				}
			}
			sum += float64(maxGap)
		}
		avg := sum / float64(len(byDay))
		if avg < float64(p.NightGap) {
			out = append(out, Finding{
				Kind:  KindNightActive,
				Users: []string{uid},
				Value: avg,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Users[0] < out[j].Users[0] })
	return out
}

// Bursts slides a window over each user's sorted timestamps and reports the
// earliest window whose span is under BurstWindow with at least BurstPosts
// posts. One finding per user is enough; later bursts add no signal.
func Bursts(users map[string]*post.UserAggregate, p params.Params) []Finding {
	var out []Finding
	for uid, u := range users {
		ts := u.Timestamps
		if len(ts) < p.BurstPosts {
			continue
		}
		lo := 0
		for hi := 0; hi < len(ts); hi++ {
			for ts[hi]-ts[lo] >= p.BurstWindow {
				lo++
			}
			if n := hi - lo + 1; n >= p.BurstPosts {
				out = append(out, Finding{
					Kind:  KindBurst,
					Users: []string{uid},
					Count: n,
					At:    ts[lo],
				})
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Users[0] < out[j].Users[0] })
	return out
}

// CreationClusters groups users by account-creation time with a greedy
// single pass over creation-sorted users: each user joins the first
// existing cluster whose anchor is within CreationWindow, otherwise starts
// a new one. Not union-find: membership is anchored to the cluster's first
// account, so a long slow drip of creations does not chain into one blob.
func CreationClusters(users map[string]*post.UserAggregate, p params.Params) []Finding {
	type entry struct {
		uid string
		at  int64
	}
	var entries []entry
	for uid, u := range users {
		if u.AccountCreatedAt > 0 {
			entries = append(entries, entry{uid: uid, at: u.AccountCreatedAt})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].at != entries[j].at {
			return entries[i].at < entries[j].at
		}
		return entries[i].uid < entries[j].uid
	})

	type cluster struct {
		anchor  int64
		members []string
	}
	var clusters []*cluster
	for _, e := range entries {
		joined := false
		for _, c := range clusters {
			if e.at-c.anchor <= p.CreationWindow {
				c.members = append(c.members, e.uid)
				joined = true
				break
			}
		}
		if !joined {
			clusters = append(clusters, &cluster{anchor: e.at, members: []string{e.uid}})
		}
	}

	var out []Finding
	for _, c := range clusters {
		if len(c.members) < p.ClusterSize {
			continue
		}
		members := append([]string(nil), c.members...)
		sort.Strings(members)
		out = append(out, Finding{
			Kind:  KindCreationCluster,
			Users: members,
			Count: len(members),
			At:    c.anchor,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At < out[j].At })
	return out
}
