// Package hnsw provides the persistent approximate nearest-neighbour
// index Quarry retrieves from: an HNSW graph over unit-normalised
// vectors plus an append-only chunk metadata log, both written to disk
// after every insertion.
//
// The graph is a pure-Go implementation of Hierarchical Navigable Small
// World search (Malkov & Yashunin). Distances are squared Euclidean;
// with unit-normalised vectors the resulting order is the cosine
// similarity order.
package hnsw

import (
	"container/heap"
	"math"
	"math/rand"
)

// Build and query defaults, matching common HNSW practice for
// sentence-embedding workloads.
const (
	DefaultM              = 32
	DefaultEfConstruction = 200
	DefaultEfSearch       = 64
)

// levelSeed makes level assignment reproducible: rebuilding an index
// from the same insertion sequence yields the same graph.
const levelSeed = 0x5143

// node is a single element of the graph. Neighbour lists are per level,
// index 0 being the base layer that holds every node.
type node struct {
	Vector    []float32
	Neighbors [][]int32
}

// Graph is a hierarchical navigable small world graph. It is not safe
// for concurrent use; the enclosing Store serialises access.
type Graph struct {
	Dim            int
	M              int
	EfConstruction int

	Entry    int32
	MaxLevel int
	Nodes    []*node

	// levelMult is 1/ln(M), the standard level distribution factor.
	levelMult float64
	rng       *rand.Rand
}

// hit is a search result: a vector id with its distance to the query.
type hit struct {
	id   int32
	dist float32
}

// newGraph creates an empty graph of the given dimension.
func newGraph(dim, m, efConstruction int) *Graph {
	if m <= 0 {
		m = DefaultM
	}
	if efConstruction <= 0 {
		efConstruction = DefaultEfConstruction
	}
	g := &Graph{
		Dim:            dim,
		M:              m,
		EfConstruction: efConstruction,
		Entry:          -1,
	}
	g.init()
	return g
}

// init restores the unexported runtime fields. Called after construction
// and after decoding a persisted graph.
func (g *Graph) init() {
	g.levelMult = 1 / math.Log(float64(g.M))
	g.rng = rand.New(rand.NewSource(levelSeed + int64(len(g.Nodes))))
}

// Len returns the number of vectors in the graph.
func (g *Graph) Len() int {
	return len(g.Nodes)
}

// randomLevel draws a level from the exponentially decaying distribution.
func (g *Graph) randomLevel() int {
	return int(math.Floor(-math.Log(g.rng.Float64()+1e-12) * g.levelMult))
}

// squaredL2 returns the squared Euclidean distance between a and b.
func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// insert adds a vector and returns its id. Ids are assigned contiguously
// from the current cardinality and never reused.
func (g *Graph) insert(vec []float32) int32 {
	id := int32(len(g.Nodes))
	level := g.randomLevel()

	n := &node{Vector: vec, Neighbors: make([][]int32, level+1)}
	g.Nodes = append(g.Nodes, n)

	if g.Entry < 0 {
		g.Entry = id
		g.MaxLevel = level
		return id
	}

	ep := g.Entry
	// Greedy descent through the layers above the new node's level.
	for l := g.MaxLevel; l > level; l-- {
		ep = g.greedyClosest(vec, ep, l)
	}

	// Beam search and bidirectional linking from the top shared layer down.
	top := level
	if top > g.MaxLevel {
		top = g.MaxLevel
	}
	for l := top; l >= 0; l-- {
		candidates := g.searchLayer(vec, ep, g.EfConstruction, l)
		neighbors := g.selectNearest(candidates, g.M)
		n.Neighbors[l] = neighbors
		for _, nb := range neighbors {
			g.link(nb, id, l)
		}
		if len(candidates) > 0 {
			ep = candidates[0].id
		}
	}

	if level > g.MaxLevel {
		g.MaxLevel = level
		g.Entry = id
	}
	return id
}

// greedyClosest walks layer l greedily towards vec, returning the local
// minimum reached from ep.
func (g *Graph) greedyClosest(vec []float32, ep int32, l int) int32 {
	cur := ep
	curDist := squaredL2(vec, g.Nodes[cur].Vector)
	for {
		improved := false
		for _, nb := range g.neighborsAt(cur, l) {
			if d := squaredL2(vec, g.Nodes[nb].Vector); d < curDist {
				cur, curDist = nb, d
				improved = true
			}
		}
		if !improved {
			return cur
		}
	}
}

// searchLayer runs a beam search of width ef on layer l starting at ep.
// Results are sorted by ascending distance.
func (g *Graph) searchLayer(vec []float32, ep int32, ef, l int) []hit {
	entryDist := squaredL2(vec, g.Nodes[ep].Vector)
	visited := map[int32]struct{}{ep: {}}

	candidates := &minHeap{{ep, entryDist}}
	results := &maxHeap{{ep, entryDist}}

	for candidates.Len() > 0 {
		c := heap.Pop(candidates).(hit)
		if c.dist > (*results)[0].dist && results.Len() >= ef {
			break
		}
		for _, nb := range g.neighborsAt(c.id, l) {
			if _, seen := visited[nb]; seen {
				continue
			}
			visited[nb] = struct{}{}
			d := squaredL2(vec, g.Nodes[nb].Vector)
			if results.Len() < ef || d < (*results)[0].dist {
				heap.Push(candidates, hit{nb, d})
				heap.Push(results, hit{nb, d})
				if results.Len() > ef {
					heap.Pop(results)
				}
			}
		}
	}

	out := make([]hit, results.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(results).(hit)
	}
	return out
}

// selectNearest keeps the m closest candidate ids.
func (g *Graph) selectNearest(candidates []hit, m int) []int32 {
	if len(candidates) > m {
		candidates = candidates[:m]
	}
	ids := make([]int32, len(candidates))
	for i, c := range candidates {
		ids[i] = c.id
	}
	return ids
}

// link adds target to the neighbour list of id on layer l, pruning the
// list back to its capacity (2M on the base layer, M above it).
func (g *Graph) link(id, target int32, l int) {
	n := g.Nodes[id]
	for len(n.Neighbors) <= l {
		n.Neighbors = append(n.Neighbors, nil)
	}
	n.Neighbors[l] = append(n.Neighbors[l], target)

	capacity := g.M
	if l == 0 {
		capacity = 2 * g.M
	}
	if len(n.Neighbors[l]) <= capacity {
		return
	}

	// Drop the farthest neighbour.
	worst := 0
	var worstDist float32 = -1
	for i, nb := range n.Neighbors[l] {
		if d := squaredL2(n.Vector, g.Nodes[nb].Vector); d > worstDist {
			worst, worstDist = i, d
		}
	}
	n.Neighbors[l][worst] = n.Neighbors[l][len(n.Neighbors[l])-1]
	n.Neighbors[l] = n.Neighbors[l][:len(n.Neighbors[l])-1]
}

// neighborsAt returns the neighbour list of id on layer l.
func (g *Graph) neighborsAt(id int32, l int) []int32 {
	n := g.Nodes[id]
	if l >= len(n.Neighbors) {
		return nil
	}
	return n.Neighbors[l]
}

// search returns up to k nearest hits for vec, closest first, using a
// beam of width efSearch (never below k) on the base layer.
func (g *Graph) search(vec []float32, k, efSearch int) []hit {
	if g.Entry < 0 || k <= 0 {
		return nil
	}
	if efSearch < k {
		efSearch = k
	}

	ep := g.Entry
	for l := g.MaxLevel; l > 0; l-- {
		ep = g.greedyClosest(vec, ep, l)
	}
	hits := g.searchLayer(vec, ep, efSearch, 0)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// minHeap pops the closest hit first.
type minHeap []hit

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)         { *h = append(*h, x.(hit)) }
func (h *minHeap) Pop() any           { old := *h; n := len(old); x := old[n-1]; *h = old[:n-1]; return x }

// maxHeap pops the farthest hit first.
type maxHeap []hit

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[i].dist > h[j].dist }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x any)         { *h = append(*h, x.(hit)) }
func (h *maxHeap) Pop() any           { old := *h; n := len(old); x := old[n-1]; *h = old[:n-1]; return x }
