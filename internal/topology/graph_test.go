package topology

import (
	"testing"

	"tsch-topology/internal/mesh"

	"github.com/stretchr/testify/assert"
)

func chain(n int, spacing float64) mesh.PositionTable {
	pos := make([]mesh.Coordinates, n)
	for i := range pos {
		pos[i] = mesh.CreateCoordinates(0, float64(i)*spacing)
	}
	return mesh.NewPositionTable(pos)
}

func TestChainHopCounts(t *testing.T) {
	gr := NewGraph(chain(5, 40), 50)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, gr.HopCounts())
	assert.Equal(t, 4, gr.EdgeCount())
	assert.Equal(t, 1, gr.Degree(0))
	assert.Equal(t, 2, gr.Degree(2))
	assert.Equal(t, []int{1, 3}, gr.Neighbours(2))
	assert.True(t, gr.Connected())
}

func TestDisconnectedNodesAreUnreachable(t *testing.T) {
	table := mesh.NewPositionTable([]mesh.Coordinates{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 500, Y: 500}})
	gr := NewGraph(table, 50)
	assert.Equal(t, []int{0, 1, Unreachable}, gr.HopCounts())
	assert.False(t, gr.Connected())

	st := Analyze(table, 50)
	assert.Equal(t, 2, st.Components)
	assert.False(t, st.Connected)
	assert.Equal(t, 0, st.MinDegree)
}

func TestAnalyzeStar(t *testing.T) {
	table := mesh.NewPositionTable([]mesh.Coordinates{
		{X: 0, Y: 0}, {X: 30, Y: 0}, {X: -30, Y: 0}, {X: 0, Y: 30}, {X: 0, Y: -30},
	})
	st := Analyze(table, 35)
	assert.Equal(t, 5, st.Nodes)
	assert.Equal(t, 4, st.Links)
	assert.Equal(t, 4, st.MaxDegree)
	assert.Equal(t, 1, st.MinDegree)
	assert.InDelta(t, 1.6, st.MeanDegree, 1e-9)
	assert.Equal(t, 1, st.MaxHops)
	assert.InDelta(t, 30, st.Spread, 1e-9)
	assert.True(t, st.Connected)
}

func TestAnalyzeEmpty(t *testing.T) {
	st := Analyze(mesh.PositionTable{}, 10)
	assert.Zero(t, st.Nodes)
	assert.True(t, st.Connected)
}
