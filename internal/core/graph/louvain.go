package graph

import (
	"math/rand"
	"sort"
	"time"
)

// NoiseID is the reserved community id for nodes that fail the minimum
// size or internal-edge requirements. Stable within a run, not across runs.
const NoiseID = 0

// maxLevels caps aggregation depth; pathological graphs converge long
// before this but the cap keeps runaway iteration impossible
const maxLevels = 10

// Communities runs multi-level modularity optimization (Louvain) and
// stamps the resulting community id onto every node. Local-move order is
// randomized per pass through rng to avoid deterministic bias toward
// low-id nodes, so on graphs with tied optima the partition can differ
// between runs; pass a seeded rng to pin it. A nil rng seeds from the
// clock.
//
// Post-processing reassigns clusters of size <= 1, clusters below the
// adaptive minimum size, and clusters without internal edges to NoiseID,
// then renumbers the rest by descending size starting at 1.
func Communities(g *Graph, rng *rand.Rand) map[string]int {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	n := len(g.Nodes)
	assign := make(map[string]int, n)
	if n == 0 {
		return assign
	}

	adj := g.neighbors()

	// membership[i] is node i's community in the original graph
	membership := make([]int, n)
	for i := range membership {
		membership[i] = i
	}

	lv := newLevel(adj)
	for depth := 0; depth < maxLevels; depth++ {
		comm, _ := lv.localMove(rng)
		k := renumber(comm)

		// flatten this level's result onto original nodes
		for i := range membership {
			membership[i] = comm[membership[i]]
		}

		// stop when no merge happened or everything collapsed
		if k == lv.n || k <= 1 {
			break
		}
		lv = lv.aggregate(comm, k)
	}

	finalize(g, membership, assign)
	return assign
}

// level is one graph in the aggregation hierarchy
type level struct {
	n    int
	adj  []map[int]float64 // off-diagonal weights
	self []float64         // accumulated self-loop weight per node
	deg  []float64         // weighted degree incl. self-loops twice
	m2   float64           // 2m, total edge weight doubled
}

func newLevel(adj []map[int]float64) *level {
	n := len(adj)
	lv := &level{
		n:    n,
		adj:  adj,
		self: make([]float64, n),
		deg:  make([]float64, n),
	}
	for i := 0; i < n; i++ {
		for _, w := range adj[i] {
			lv.deg[i] += w
		}
		lv.m2 += lv.deg[i]
	}
	return lv
}

// localMove greedily reassigns each node to the neighboring community with
// the best modularity gain dQ = w(i->C) - sumDeg(C)*deg(i)/(2m), repeating
// passes until a full pass moves nothing.
func (lv *level) localMove(rng *rand.Rand) (comm []int, movedAny bool) {
	comm = make([]int, lv.n)
	commDeg := make([]float64, lv.n)
	for i := range comm {
		comm[i] = i
		commDeg[i] = lv.deg[i] + 2*lv.self[i]
	}
	if lv.m2 == 0 {
		return comm, false
	}

	order := make([]int, lv.n)
	for i := range order {
		order[i] = i
	}

	for {
		moved := false
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		for _, i := range order {
			cur := comm[i]
			di := lv.deg[i] + 2*lv.self[i]
			commDeg[cur] -= di

			// weight from i into each neighboring community
			wTo := make(map[int]float64)
			for j, w := range lv.adj[i] {
				wTo[comm[j]] += w
			}

			best := cur
			bestGain := wTo[cur] - commDeg[cur]*di/lv.m2
			for c, w := range wTo {
				if c == cur {
					continue
				}
				gain := w - commDeg[c]*di/lv.m2
				if gain > bestGain {
					best, bestGain = c, gain
				}
			}

			comm[i] = best
			commDeg[best] += di
			if best != cur {
				moved = true
			}
		}
		if !moved {
			break
		}
		movedAny = true
	}
	return comm, movedAny
}

// renumber rewrites community labels to dense 0..k-1 ids in first-seen
// order and returns k
func renumber(comm []int) int {
	renum := make(map[int]int)
	for _, c := range comm {
		if _, ok := renum[c]; !ok {
			renum[c] = len(renum)
		}
	}
	for i := range comm {
		comm[i] = renum[comm[i]]
	}
	return len(renum)
}

// aggregate collapses each community into a super-node, carrying forward
// accumulated inter-community edge weight; intra-community weight becomes
// the super-node's self-loop. comm must already be renumbered to 0..k-1.
func (lv *level) aggregate(comm []int, k int) *level {
	next := &level{
		n:    k,
		adj:  make([]map[int]float64, k),
		self: make([]float64, k),
		deg:  make([]float64, k),
	}
	for i := range next.adj {
		next.adj[i] = make(map[int]float64)
	}

	for i := 0; i < lv.n; i++ {
		ci := comm[i]
		next.self[ci] += lv.self[i]
		for j, w := range lv.adj[i] {
			if j < i {
				continue // each undirected edge once
			}
			cj := comm[j]
			if ci == cj {
				next.self[ci] += w
			} else {
				next.adj[ci][cj] += w
				next.adj[cj][ci] += w
			}
		}
	}
	for i := 0; i < k; i++ {
		for _, w := range next.adj[i] {
			next.deg[i] += w
		}
		next.m2 += next.deg[i] + 2*next.self[i]
	}
	return next
}

// finalize applies noise filtering and size-ordered renumbering, writing
// community ids onto the graph nodes and into assign
func finalize(g *Graph, membership []int, assign map[string]int) {
	members := make(map[int][]int)
	for i, c := range membership {
		members[c] = append(members[c], i)
	}

	// clusters need at least one internal edge to survive
	idx := g.index()
	internal := make(map[int]bool)
	for _, l := range g.Links {
		a, okA := idx[l.A]
		b, okB := idx[l.B]
		if okA && okB && a != b && membership[a] == membership[b] {
			internal[membership[a]] = true
		}
	}

	minSize := adaptiveMinSize(len(g.Nodes))

	type cl struct {
		id    int
		nodes []int
	}
	var kept []cl
	noise := make(map[int]bool)
	for c, ns := range members {
		if len(ns) <= 1 || len(ns) < minSize || !internal[c] {
			noise[c] = true
			continue
		}
		kept = append(kept, cl{id: c, nodes: ns})
	}

	// largest first; ties broken by lowest member position for stability
	sort.Slice(kept, func(i, j int) bool {
		if len(kept[i].nodes) != len(kept[j].nodes) {
			return len(kept[i].nodes) > len(kept[j].nodes)
		}
		return kept[i].nodes[0] < kept[j].nodes[0]
	})

	final := make(map[int]int)
	for rank, c := range kept {
		final[c.id] = rank + 1
	}

	for i, c := range membership {
		id := NoiseID
		if !noise[c] {
			id = final[c]
		}
		g.Nodes[i].Community = id
		assign[g.Nodes[i].ID] = id
	}
}

// adaptiveMinSize scales the minimum viable cluster with graph size:
// 2 for tiny graphs up to roughly 1% of node count for large ones
func adaptiveMinSize(n int) int {
	switch {
	case n <= 25:
		return 2
	case n <= 100:
		return 3
	case n <= 500:
		return 4
	case n <= 2000:
		return 5
	default:
		if s := n / 100; s > 5 {
			return s
		}
		return 5
	}
}
