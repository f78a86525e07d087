// Package post defines the normalized post schema and per-user aggregates
// every detector consumes. Posts are validated at the ingestion boundary;
// detectors never see raw payloads.
package post

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"sort"
	"time"
)

// Post is one normalized social-media post. Immutable once ingested;
// the detection run borrows the slice read-only.
type Post struct {
	Platform string `json:"platform"`
	AuthorID string `json:"author_id"`
	Username string `json:"username,omitempty"`

	// CreatedAt is epoch seconds as supplied by the ingestion collaborator
	CreatedAt int64 `json:"created_at"`

	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Shares   int `json:"shares"`

	Caption  string   `json:"caption,omitempty"`
	Hashtags []string `json:"hashtags,omitempty"`
	Location string   `json:"location,omitempty"`

	// AccountCreatedAt is epoch seconds of the author account creation, 0 = unknown
	AccountCreatedAt int64 `json:"account_created_at,omitempty"`
	Followers        int   `json:"followers,omitempty"`
}

// Engagement is the summed interaction count for a post
func (p Post) Engagement() int { return p.Likes + p.Comments + p.Shares }

// Valid reports whether the post carries the minimum fields detectors need
func (p Post) Valid() bool { return p.AuthorID != "" && p.CreatedAt > 0 }

// Time converts the epoch-second timestamp
func (p Post) Time() time.Time { return time.Unix(p.CreatedAt, 0).UTC() }

// UserAggregate is the per-user view derived from a filtered dataset.
// Built fresh for every run and discarded with it.
type UserAggregate struct {
	UserID   string
	Username string

	// Timestamps are sorted ascending epoch seconds
	Timestamps []int64

	// HashtagCounts is the user's hashtag multiset
	HashtagCounts map[string]int

	Captions []string

	// AccountCreatedAt is 0 when the platform did not supply it
	AccountCreatedAt int64
	Followers        int
}

// PostCount is the number of posts folded into this aggregate
func (u *UserAggregate) PostCount() int { return len(u.Timestamps) }

// HashtagList flattens the multiset back into a repeated list, sorted for
// deterministic iteration
func (u *UserAggregate) HashtagList() []string {
	out := make([]string, 0, len(u.HashtagCounts))
	for h, n := range u.HashtagCounts {
		for i := 0; i < n; i++ {
			out = append(out, h)
		}
	}
	sort.Strings(out)
	return out
}

// Intervals returns consecutive post gaps in seconds; empty for <2 posts
func (u *UserAggregate) Intervals() []float64 {
	if len(u.Timestamps) < 2 {
		return nil
	}
	out := make([]float64, 0, len(u.Timestamps)-1)
	for i := 1; i < len(u.Timestamps); i++ {
		out = append(out, float64(u.Timestamps[i]-u.Timestamps[i-1]))
	}
	return out
}

// Fingerprint digests the dataset identity: every post's author,
// timestamp, and caption in input order. Any change to the filtered
// dataset produces a new fingerprint, so caches and archives keyed by it
// never serve stale results.
func Fingerprint(posts []Post) string {
	h := sha256.New()
	var ts [8]byte
	for i := range posts {
		_, _ = io.WriteString(h, posts[i].AuthorID)
		binary.LittleEndian.PutUint64(ts[:], uint64(posts[i].CreatedAt))
		_, _ = h.Write(ts[:])
		_, _ = io.WriteString(h, posts[i].Caption)
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)[:12])
}

// Aggregate folds posts into per-user aggregates. Input order does not
// matter; timestamps come out sorted. Invalid posts are ignored (the
// ingestion boundary already warned about them).
func Aggregate(posts []Post) map[string]*UserAggregate {
	users := make(map[string]*UserAggregate)
	for _, p := range posts {
		if !p.Valid() {
			continue
		}
		u := users[p.AuthorID]
		if u == nil {
			u = &UserAggregate{
				UserID:        p.AuthorID,
				HashtagCounts: make(map[string]int),
			}
			users[p.AuthorID] = u
		}
		u.Timestamps = append(u.Timestamps, p.CreatedAt)
		for _, h := range p.Hashtags {
			u.HashtagCounts[h]++
		}
		if p.Caption != "" {
			u.Captions = append(u.Captions, p.Caption)
		}
		if u.Username == "" && p.Username != "" {
			u.Username = p.Username
		}
		if u.AccountCreatedAt == 0 && p.AccountCreatedAt > 0 {
			u.AccountCreatedAt = p.AccountCreatedAt
		}
		if p.Followers > u.Followers {
			u.Followers = p.Followers
		}
	}
	for _, u := range users {
		sort.Slice(u.Timestamps, func(i, j int) bool { return u.Timestamps[i] < u.Timestamps[j] })
	}
	return users
}
