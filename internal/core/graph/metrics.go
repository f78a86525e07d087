package graph

// Metrics summarizes graph structure for the report surface
type Metrics struct {
	Nodes int `json:"nodes"`
	Links int `json:"links"`

	// Density is links / possible pairs
	Density float64 `json:"density"`

	AvgDegree float64 `json:"avg_degree"`
	MaxDegree int     `json:"max_degree"`

	// AvgClustering is the mean local clustering coefficient over nodes
	// with degree >= 2
	AvgClustering float64 `json:"avg_clustering"`
}

// Measure computes density, degrees, and the average local clustering
// coefficient, stamping Degree onto every node in one pass over the links.
// Returns nil for an empty node set.
func Measure(g *Graph) *Metrics {
	n := len(g.Nodes)
	if n == 0 {
		return nil
	}

	adj := g.neighbors()

	m := 0
	maxDeg := 0
	degSum := 0
	for i := range g.Nodes {
		deg := len(adj[i])
		g.Nodes[i].Degree = deg
		degSum += deg
		m += deg
		if deg > maxDeg {
			maxDeg = deg
		}
	}
	m /= 2 // every undirected link counted from both ends

	density := 0.0
	if n > 1 {
		density = float64(m) / (float64(n) * float64(n-1) / 2)
	}

	// local clustering: triangles among neighbors / possible neighbor pairs
	var ccSum float64
	ccN := 0
	for i := range g.Nodes {
		deg := len(adj[i])
		if deg < 2 {
			continue
		}
		tri := 0
		nbrs := make([]int, 0, deg)
		for j := range adj[i] {
			nbrs = append(nbrs, j)
		}
		for a := 0; a < len(nbrs); a++ {
			for b := a + 1; b < len(nbrs); b++ {
				if _, ok := adj[nbrs[a]][nbrs[b]]; ok {
					tri++
				}
			}
		}
		possible := deg * (deg - 1) / 2
		ccSum += float64(tri) / float64(possible)
		ccN++
	}
	avgCC := 0.0
	if ccN > 0 {
		avgCC = ccSum / float64(ccN)
	}

	return &Metrics{
		Nodes:         n,
		Links:         m,
		Density:       density,
		AvgDegree:     float64(degSum) / float64(n),
		MaxDegree:     maxDeg,
		AvgClustering: avgCC,
	}
}
