package render

import (
	"os"
	"path/filepath"
	"testing"

	"tsch-topology/internal/mesh"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavePNG(t *testing.T) {
	table := mesh.NewPositionTable([]mesh.Coordinates{{}, {Y: 40}, {X: 30, Y: 40}})
	path := filepath.Join(t.TempDir(), "topo.png")

	require.NoError(t, SavePNG(path, table, Options{Title: "chain", LinkRange: 50}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestTopologyAnchorOnly(t *testing.T) {
	p, err := Topology(mesh.NewPositionTable([]mesh.Coordinates{{}}), Options{LinkRange: 10})
	require.NoError(t, err)
	assert.NotNil(t, p)
}
