package topology

import (
	"math"

	"tsch-topology/internal/mesh"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

// Unreachable is the hop count of a node with no path to the anchor.
const Unreachable = -1

// Graph is the connectivity graph implied by a position table: two motes
// share a link when they are within link range of each other.
type Graph struct {
	table     mesh.PositionTable
	linkRange float64
	g         *simple.UndirectedGraph
}

// NewGraph links every pair of nodes at most linkRange apart.
func NewGraph(table mesh.PositionTable, linkRange float64) *Graph {
	g := simple.NewUndirectedGraph()
	for i := 0; i < table.Len(); i++ {
		g.AddNode(simple.Node(i))
	}
	for i := 0; i < table.Len(); i++ {
		for j := i + 1; j < table.Len(); j++ {
			if table.At(i).DistanceTo(table.At(j)) <= linkRange {
				g.SetEdge(g.NewEdge(simple.Node(i), simple.Node(j)))
			}
		}
	}
	return &Graph{table: table, linkRange: linkRange, g: g}
}

func (gr *Graph) Undirected() graph.Undirected {
	return gr.g
}

func (gr *Graph) Degree(i int) int {
	return gr.g.From(int64(i)).Len()
}

// Neighbours returns the indices linked to node i in ascending order.
func (gr *Graph) Neighbours(i int) []int {
	var out []int
	for j := 0; j < gr.table.Len(); j++ {
		if j != i && gr.g.HasEdgeBetween(int64(i), int64(j)) {
			out = append(out, j)
		}
	}
	return out
}

func (gr *Graph) EdgeCount() int {
	return gr.g.Edges().Len()
}

// HopCounts returns the breadth-first hop distance of each node from the
// anchor, with Unreachable for nodes in other components.
func (gr *Graph) HopCounts() []int {
	hops := make([]int, gr.table.Len())
	for i := range hops {
		hops[i] = Unreachable
	}
	if gr.table.Len() == 0 {
		return hops
	}
	var bf traverse.BreadthFirst
	bf.Walk(gr.g, simple.Node(mesh.AnchorIndex), func(n graph.Node, depth int) bool {
		hops[n.ID()] = depth
		return false
	})
	return hops
}

// Connected reports whether every node can reach every other node.
func (gr *Graph) Connected() bool {
	if gr.table.Len() == 0 {
		return true
	}
	return len(topo.ConnectedComponents(gr.g)) == 1
}

// Stats summarises the shape of a topology.
type Stats struct {
	Nodes      int     `json:"nodes" csv:"nodes"`
	Links      int     `json:"links" csv:"links"`
	MinDegree  int     `json:"min_degree" csv:"min_degree"`
	MaxDegree  int     `json:"max_degree" csv:"max_degree"`
	MeanDegree float64 `json:"mean_degree" csv:"mean_degree"`
	MaxHops    int     `json:"max_hops" csv:"max_hops"`
	Components int     `json:"components" csv:"components"`
	Connected  bool    `json:"connected" csv:"connected"`
	// Spread is the largest distance of any node from the anchor.
	Spread float64 `json:"spread" csv:"spread"`
}

// Analyze builds the link graph of table and summarises it.
func Analyze(table mesh.PositionTable, linkRange float64) Stats {
	return NewGraph(table, linkRange).Stats()
}

func (gr *Graph) Stats() Stats {
	table := gr.table
	st := Stats{Nodes: table.Len(), Links: gr.EdgeCount()}
	if table.Len() == 0 {
		st.Connected = true
		return st
	}

	st.MinDegree = math.MaxInt
	total := 0
	for i := 0; i < table.Len(); i++ {
		d := gr.Degree(i)
		total += d
		if d < st.MinDegree {
			st.MinDegree = d
		}
		if d > st.MaxDegree {
			st.MaxDegree = d
		}
		if far := table.At(i).DistanceTo(table.Anchor()); far > st.Spread {
			st.Spread = far
		}
	}
	st.MeanDegree = float64(total) / float64(table.Len())

	for _, h := range gr.HopCounts() {
		if h > st.MaxHops {
			st.MaxHops = h
		}
	}
	st.Components = len(topo.ConnectedComponents(gr.g))
	st.Connected = st.Components == 1
	return st
}
