package detect

import (
	"reflect"
	"testing"

	"cibscope/internal/core/params"
	"cibscope/internal/core/post"
)

func usersOf(posts []post.Post) map[string]*post.UserAggregate {
	return post.Aggregate(posts)
}

func TestSynchrony_FlagsCoTimedPair(t *testing.T) {
	t.Parallel()

	p := params.Default() // SyncWindow 300, MinSyncPosts 3
	users := usersOf([]post.Post{
		{AuthorID: "a", CreatedAt: 1000},
		{AuthorID: "a", CreatedAt: 2000},
		{AuthorID: "a", CreatedAt: 3000},
		{AuthorID: "b", CreatedAt: 1100},
		{AuthorID: "b", CreatedAt: 2100},
		{AuthorID: "b", CreatedAt: 3100},
		// far away from everyone
		{AuthorID: "c", CreatedAt: 90000},
		{AuthorID: "c", CreatedAt: 95000},
		{AuthorID: "c", CreatedAt: 99000},
	})

	got := Synchrony(users, p)
	if len(got) != 1 {
		t.Fatalf("findings = %d, want 1: %+v", len(got), got)
	}
	f := got[0]
	if f.Kind != KindSynchronizedPair {
		t.Fatalf("kind = %q", f.Kind)
	}
	if !reflect.DeepEqual(f.Users, []string{"a", "b"}) {
		t.Fatalf("users = %v, want canonical [a b]", f.Users)
	}
	if f.Count != 3 {
		t.Fatalf("count = %d, want 3 co-timed posts", f.Count)
	}
}

func TestSynchrony_BelowMinPairsNotFlagged(t *testing.T) {
	t.Parallel()

	p := params.Default()
	users := usersOf([]post.Post{
		{AuthorID: "a", CreatedAt: 1000},
		{AuthorID: "a", CreatedAt: 9000},
		{AuthorID: "b", CreatedAt: 1100},
		{AuthorID: "b", CreatedAt: 20000},
	})
	if got := Synchrony(users, p); got != nil {
		t.Fatalf("two synced posts under MinSyncPosts=3 must not flag: %+v", got)
	}
}

func TestSynchrony_BucketBoundaryStraddle(t *testing.T) {
	t.Parallel()

	p := params.Default()
	p.MinSyncPosts = 1
	// 1499 and 1501 land in different w-wide buckets but are 2s apart
	users := usersOf([]post.Post{
		{AuthorID: "a", CreatedAt: 1499},
		{AuthorID: "b", CreatedAt: 1501},
	})
	got := Synchrony(users, p)
	if len(got) != 1 || got[0].Count != 1 {
		t.Fatalf("boundary-straddling pair missed: %+v", got)
	}
}

func TestSynchrony_SingleUserOrZeroWindow(t *testing.T) {
	t.Parallel()

	users := usersOf([]post.Post{{AuthorID: "a", CreatedAt: 1000}})
	if got := Synchrony(users, params.Default()); got != nil {
		t.Fatalf("single user must yield nothing: %+v", got)
	}

	p := params.Default()
	p.SyncWindow = 0
	two := usersOf([]post.Post{
		{AuthorID: "a", CreatedAt: 1000},
		{AuthorID: "b", CreatedAt: 1000},
	})
	if got := Synchrony(two, p); got != nil {
		t.Fatalf("zero window must disable the detector: %+v", got)
	}
}

func TestCountSyncedPairs_StrictWindow(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b []int64
		w    int64
		want int
	}{
		{"exact window excluded", []int64{1000}, []int64{1300}, 300, 0},
		{"just inside", []int64{1000}, []int64{1299}, 300, 1},
		{"both sides", []int64{1000}, []int64{701, 1299}, 300, 2},
		{"dense overlap", []int64{100, 110, 120}, []int64{105, 115}, 50, 6},
		{"empty", nil, []int64{1}, 300, 0},
	}
	for _, tc := range cases {
		if got := countSyncedPairs(tc.a, tc.b, tc.w); got != tc.want {
			t.Fatalf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}
