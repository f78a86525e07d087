// Package graph holds the derived interaction graph: the node/link model
// the rendering collaborator consumes, network metrics, and community
// detection. Degree and community id are write-once per run; a fresh run
// produces a fresh graph.
package graph

import (
	"sort"

	"cibscope/internal/core/post"
)

// NodeKind tags what a node was derived from
type NodeKind string

const (
	// KindUser is a node derived from an author
	KindUser NodeKind = "user"
	// KindHashtag is a node derived from a hashtag
	KindHashtag NodeKind = "hashtag"
	// KindLocation is a node derived from a location
	KindLocation NodeKind = "location"
)

// Node is one graph vertex with its per-run annotations
type Node struct {
	ID   string   `json:"id"`
	Kind NodeKind `json:"kind"`

	// Degree is filled by Measure
	Degree int `json:"degree"`

	// Community is filled by Communities; 0 is the reserved noise id
	Community int `json:"community"`

	// Suspicious and Risk mirror the fused risk record when one exists
	Suspicious bool `json:"suspicious,omitempty"`
	Risk       int  `json:"risk,omitempty"`
}

// Link is an undirected weighted pair. A and B are node ids; a zero
// Weight counts as 1.
type Link struct {
	A      string  `json:"a"`
	B      string  `json:"b"`
	Weight float64 `json:"weight,omitempty"`
}

func (l Link) weight() float64 {
	if l.Weight == 0 {
		return 1
	}
	return l.Weight
}

// Graph bundles nodes and links for one run
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// index returns node id -> position in Nodes
func (g *Graph) index() map[string]int {
	idx := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		idx[n.ID] = i
	}
	return idx
}

// neighbors builds an undirected adjacency set keyed by node position.
// Self-loops and links to unknown nodes are dropped.
func (g *Graph) neighbors() []map[int]float64 {
	idx := g.index()
	adj := make([]map[int]float64, len(g.Nodes))
	for i := range adj {
		adj[i] = make(map[int]float64)
	}
	for _, l := range g.Links {
		a, okA := idx[l.A]
		b, okB := idx[l.B]
		if !okA || !okB || a == b {
			continue
		}
		adj[a][b] += l.weight()
		adj[b][a] += l.weight()
	}
	return adj
}

// AnnotateRisk stamps suspicious flags and risk scores onto user nodes.
// scores is user id -> fused score.
func (g *Graph) AnnotateRisk(scores map[string]int) {
	for i := range g.Nodes {
		if g.Nodes[i].Kind != KindUser {
			continue
		}
		if s, ok := scores[g.Nodes[i].ID]; ok {
			g.Nodes[i].Suspicious = true
			g.Nodes[i].Risk = s
		}
	}
}

// FromPosts derives a default user co-hashtag graph: a user node per
// author, a hashtag node per tag, and a weighted link per usage. Graph
// extraction proper belongs to the ingestion collaborator; this built-in
// keeps the CLI path self-contained.
func FromPosts(posts []post.Post) *Graph {
	type edge struct{ a, b string }
	users := make(map[string]bool)
	tags := make(map[string]bool)
	weightsByEdge := make(map[edge]float64)

	for _, p := range posts {
		if !p.Valid() {
			continue
		}
		users[p.AuthorID] = true
		for _, h := range p.Hashtags {
			tags[h] = true
			weightsByEdge[edge{p.AuthorID, "#" + h}]++
		}
	}

	g := &Graph{}
	for u := range users {
		g.Nodes = append(g.Nodes, Node{ID: u, Kind: KindUser})
	}
	for t := range tags {
		g.Nodes = append(g.Nodes, Node{ID: "#" + t, Kind: KindHashtag})
	}
	sort.Slice(g.Nodes, func(i, j int) bool { return g.Nodes[i].ID < g.Nodes[j].ID })

	for e, w := range weightsByEdge {
		g.Links = append(g.Links, Link{A: e.a, B: e.b, Weight: w})
	}
	sort.Slice(g.Links, func(i, j int) bool {
		if g.Links[i].A != g.Links[j].A {
			return g.Links[i].A < g.Links[j].A
		}
		return g.Links[i].B < g.Links[j].B
	})
	return g
}
