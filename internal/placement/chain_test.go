package placement

import (
	"testing"

	"tsch-topology/internal/mesh"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceChainExample(t *testing.T) {
	table, err := PlaceChain(3, 40)
	require.NoError(t, err)
	assert.Equal(t, []mesh.Coordinates{{X: 0, Y: 0}, {X: 0, Y: 40}, {X: 0, Y: 80}}, table.Positions())
}

func TestPlaceChainIsDeterministic(t *testing.T) {
	a, err := PlaceChain(25, 12.5)
	require.NoError(t, err)
	b, err := PlaceChain(25, 12.5)
	require.NoError(t, err)
	assert.True(t, a.Equals(b))
	for i := 0; i < a.Len(); i++ {
		assert.Zero(t, a.At(i).X)
		assert.Equal(t, float64(i)*12.5, a.At(i).Y)
	}
}

func TestPlaceChainRejectsBadInput(t *testing.T) {
	_, err := PlaceChain(0, 40)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	_, err = PlaceChain(3, 0)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestPlacerChainParents(t *testing.T) {
	res, err := NewSeededPlacer(1).PlaceChain(4, 40)
	require.NoError(t, err)
	assert.Equal(t, []int{NoParent, 0, 1, 2}, res.Parents)
	assert.Zero(t, res.Attempts)
}
