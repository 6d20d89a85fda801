package placement

import (
	"context"
	"math/rand"
	"testing"
	"time"

	eb "tsch-topology/internal/eventBus"
	"tsch-topology/internal/mesh"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceReturnsRequestedNodeCount(t *testing.T) {
	for _, n := range []int{2, 5, 10, 25} {
		placer := NewSeededPlacer(int64(n))
		res, err := placer.Place(context.Background(), NewConfig(n, 100, 100, 50))
		require.NoError(t, err)
		assert.Equal(t, n, res.Table.Len())
		assert.Len(t, res.Parents, n)
	}
}

func TestEveryNodeHasEarlierNeighbour(t *testing.T) {
	cfg := NewConfig(30, 120, 80, 50)
	res, err := NewSeededPlacer(42).Place(context.Background(), cfg)
	require.NoError(t, err)

	for i := 1; i < res.Table.Len(); i++ {
		found := false
		for j := 0; j < i; j++ {
			if res.Table.At(i).DistanceTo(res.Table.At(j)) < cfg.TxRange-3 {
				found = true
				break
			}
		}
		assert.True(t, found, "node %d has no earlier neighbour", i)

		parent := res.Parents[i]
		require.True(t, parent >= 0 && parent < i)
		assert.Less(t, res.Table.At(i).DistanceTo(res.Table.At(parent)), cfg.Threshold())
	}
	assert.Equal(t, NoParent, res.Parents[0])
}

func TestPlaceIsReproducibleUnderSeed(t *testing.T) {
	cfg := NewConfig(12, 60, 60, 30)
	a, err := NewSeededPlacer(7).Place(context.Background(), cfg)
	require.NoError(t, err)
	b, err := NewSeededPlacer(7).Place(context.Background(), cfg)
	require.NoError(t, err)

	assert.True(t, a.Table.Equals(b.Table))
	assert.Equal(t, a.Attempts, b.Attempts)
}

func TestPlaceStaysInsideRectangle(t *testing.T) {
	cfg := NewConfig(20, 40, 25, 30)
	res, err := NewSeededPlacer(3).Place(context.Background(), cfg)
	require.NoError(t, err)
	for _, p := range res.Table.Positions() {
		assert.LessOrEqual(t, p.X, cfg.XRadius)
		assert.GreaterOrEqual(t, p.X, -cfg.XRadius)
		assert.LessOrEqual(t, p.Y, cfg.YRadius)
		assert.GreaterOrEqual(t, p.Y, -cfg.YRadius)
	}
}

func TestSingleNodeKeepsSentinel(t *testing.T) {
	res, err := NewSeededPlacer(1).Place(context.Background(), NewConfig(1, 100, 100, 50))
	require.NoError(t, err)
	require.Equal(t, 1, res.Table.Len())
	assert.Equal(t, mesh.Coordinates{}, res.Table.At(0))
	assert.Zero(t, res.Attempts)
	assert.Zero(t, res.Reseeds)
}

func TestAnchorReseeding(t *testing.T) {
	cfg := NewConfig(4, 100, 100, 50)
	res, err := NewSeededPlacer(11).Place(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Reseeds)
	assert.False(t, res.Table.Anchor().Equals(mesh.Coordinates{}))
	assert.Less(t, res.Table.Anchor().DistanceTo(mesh.Coordinates{}), cfg.Threshold())

	cfg.ReseedAnchor = false
	res, err = NewSeededPlacer(11).Place(context.Background(), cfg)
	require.NoError(t, err)
	assert.Zero(t, res.Reseeds)
	assert.Equal(t, mesh.Coordinates{}, res.Table.Anchor())
}

func TestInvalidConfigurations(t *testing.T) {
	cases := map[string]Config{
		"no nodes":          NewConfig(0, 100, 100, 50),
		"negative nodes":    NewConfig(-2, 100, 100, 50),
		"range at margin":   NewConfig(5, 100, 100, 3),
		"range below":       NewConfig(5, 100, 100, 1),
		"zero x radius":     NewConfig(5, 0, 100, 50),
		"zero y radius":     NewConfig(5, 100, 0, 50),
		"negative attempts": {NodesNum: 5, XRadius: 10, YRadius: 10, TxRange: 50, Margin: 3, MaxAttempts: -1},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewSeededPlacer(1).Place(context.Background(), cfg)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestAttemptBudgetExhausted(t *testing.T) {
	// a huge area against a short range makes acceptance vanishingly rare
	cfg := NewConfig(10, 1e6, 1e6, 4)
	cfg.MaxAttempts = 500
	_, err := NewSeededPlacer(5).Place(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrPlacementUnreachable)
}

func TestPlaceHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSeededPlacer(5).Place(ctx, NewConfig(10, 1e6, 1e6, 4))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNeighbourLimit(t *testing.T) {
	cfg := NewConfig(15, 150, 150, 50)
	cfg.MaxNeighbors = 3
	res, err := NewSeededPlacer(9).Place(context.Background(), cfg)
	require.NoError(t, err)

	for i := 0; i < res.Table.Len(); i++ {
		degree := 0
		for j := 0; j < res.Table.Len(); j++ {
			if i != j && res.Table.At(i).DistanceTo(res.Table.At(j)) < cfg.Threshold() {
				degree++
			}
		}
		assert.LessOrEqual(t, degree, cfg.MaxNeighbors, "node %d", i)
	}
}

func TestHopLimit(t *testing.T) {
	cfg := NewConfig(10, 200, 200, 50)
	cfg.MaxHops = 1
	res, err := NewSeededPlacer(2).Place(context.Background(), cfg)
	require.NoError(t, err)
	for i := 1; i < res.Table.Len(); i++ {
		assert.Less(t, res.Table.At(i).DistanceTo(res.Table.Anchor()), cfg.Threshold(), "node %d", i)
	}
}

func TestPlacePublishesEvents(t *testing.T) {
	bus := eb.NewEventBus()
	sub := bus.Subscribe()
	runID := uuid.New()
	placer := NewPlacer(rand.New(rand.NewSource(8))).WithEvents(bus, runID, 2)

	res, err := placer.Place(context.Background(), NewConfig(5, 80, 80, 40))
	require.NoError(t, err)

	placed := 0
	timeout := time.After(time.Second)
	for done := false; !done; {
		select {
		case ev := <-sub:
			assert.Equal(t, runID, ev.RunID)
			assert.Equal(t, 2, ev.Iteration)
			switch ev.Type {
			case eb.EventNodePlaced:
				placed++
				assert.Equal(t, res.Table.At(ev.NodeIndex).X, ev.X)
			case eb.EventPlacementFinished:
				assert.Equal(t, res.Attempts, ev.Attempts)
				done = true
			}
		case <-timeout:
			t.Fatal("no finish event")
		}
	}
	assert.Equal(t, 4, placed)
}
