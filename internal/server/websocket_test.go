package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tsch-topology/internal/eventBus"
	"tsch-topology/internal/metrics"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebsocketStreamsPlacementEvents(t *testing.T) {
	bus := eventBus.NewEventBus()
	srv := httptest.NewServer(NewHandler(bus, nil, time.Second))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	// the subscription is registered after the upgrade; keep asking until an event arrives
	body := `{"nodes_num": 3, "x_radius": 50, "y_radius": 50, "tx_range": 40, "seed": 1}`
	got := make(chan eventBus.Event, 1)
	go func() {
		var ev eventBus.Event
		if err := conn.ReadJSON(&ev); err == nil {
			got <- ev
		}
	}()

	deadline := time.After(3 * time.Second)
	for {
		res, err := http.Post(srv.URL+"/topologyAPI/place", "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)

		select {
		case ev := <-got:
			assert.NotEmpty(t, ev.Type)
			return
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal("no event streamed")
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	coll := metrics.NewCollector()
	coll.AddEvent(eventBus.Event{Type: eventBus.EventPlacementFinished, Attempts: 10})
	coll.AddEvent(eventBus.Event{Type: eventBus.EventNodePlaced})

	rec := httptest.NewRecorder()
	NewHandler(eventBus.NewEventBus(), coll, time.Second).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var view map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 1.0, view["runs_finished"])
	assert.InDelta(t, 0.1, view["acceptance_ratio"], 1e-9)
}
