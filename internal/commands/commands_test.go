package commands

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tsch-topology/internal/eventBus"
	"tsch-topology/internal/mesh"
	"tsch-topology/internal/placement"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteMesh(t *testing.T) {
	resp, err := Execute(context.Background(), PlaceRequest{NodesNum: 6, XRadius: 80, YRadius: 80, TxRange: 40, Seed: 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, "mesh", resp.Mode)
	assert.Equal(t, 6, resp.Positions.Len())
	assert.True(t, resp.Stats.Connected)

	again, err := Execute(context.Background(), PlaceRequest{NodesNum: 6, XRadius: 80, YRadius: 80, TxRange: 40, Seed: 3}, nil)
	require.NoError(t, err)
	assert.True(t, resp.Positions.Equals(again.Positions))
}

func TestExecuteUnknownMode(t *testing.T) {
	_, err := Execute(context.Background(), PlaceRequest{Mode: "ring", NodesNum: 3}, nil)
	assert.ErrorIs(t, err, placement.ErrInvalidConfiguration)
}

func TestPlaceHandler(t *testing.T) {
	bus := eventBus.NewEventBus()
	sub := bus.Subscribe()
	srv := httptest.NewServer(PlaceHandler(bus, time.Second))
	defer srv.Close()

	body := `{"nodes_num": 5, "x_radius": 100, "y_radius": 100, "tx_range": 50, "seed": 17}`
	res, err := http.Post(srv.URL, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var resp PlaceResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&resp))
	assert.Equal(t, 5, resp.Positions.Len())
	assert.Equal(t, int64(17), resp.Seed)
	assert.Len(t, resp.Parents, 5)

	ev := <-sub
	assert.Equal(t, eventBus.EventPlacementStarted, ev.Type)
	assert.Equal(t, resp.RunID, ev.RunID)
}

func TestPlaceHandlerErrors(t *testing.T) {
	srv := httptest.NewServer(PlaceHandler(nil, time.Second))
	defer srv.Close()

	res, err := http.Post(srv.URL, "application/json", strings.NewReader(`{"nodes_num": 5, "x_radius": 0, "y_radius": 10, "tx_range": 50}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, err = http.Post(srv.URL, "application/json",
		strings.NewReader(`{"nodes_num": 5, "x_radius": 1e6, "y_radius": 1e6, "tx_range": 4, "max_attempts": 100}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)

	res, err = http.Get(srv.URL)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}

func TestChainHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	ChainHandler()(rec, httptest.NewRequest(http.MethodGet, "/topologyAPI/chain?nodes=3&spacing=40", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var table mesh.PositionTable
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &table))
	assert.Equal(t, []mesh.Coordinates{{}, {Y: 40}, {Y: 80}}, table.Positions())

	rec = httptest.NewRecorder()
	ChainHandler()(rec, httptest.NewRequest(http.MethodGet, "/topologyAPI/chain?nodes=0", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
