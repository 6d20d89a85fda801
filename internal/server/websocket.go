package server

import (
	"net/http"
	"time"

	"tsch-topology/internal/commands"
	"tsch-topology/internal/eventBus"
	"tsch-topology/internal/metrics"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Define a WebSocket upgrader.
var upgrader = websocket.Upgrader{
	// Allow any origin; the viewer is served from elsewhere.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsHandler upgrades the connection to WebSocket and pushes events from the EventBus.
func wsHandler(eb *eventBus.EventBus, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	eventCh := eb.Subscribe()
	defer eb.Unsubscribe(eventCh)

	// The reader notices when the client goes away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				log.WithError(err).Debug("websocket write failed")
				return
			}
		case <-gone:
			return
		}
	}
}

// NewHandler builds the HTTP routes: the event stream on /ws, placement
// requests under /topologyAPI and collector counters on /metrics.
func NewHandler(eb *eventBus.EventBus, coll *metrics.Collector, placeTimeout time.Duration) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		wsHandler(eb, w, r)
	})
	mux.HandleFunc("/topologyAPI/place", commands.PlaceHandler(eb, placeTimeout))
	mux.HandleFunc("/topologyAPI/chain", commands.ChainHandler())
	mux.HandleFunc("/metrics", metricsHandler(coll))
	return mux
}

// NewServer returns an http.Server for addr serving NewHandler's routes.
func NewServer(addr string, eb *eventBus.EventBus, coll *metrics.Collector, placeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewHandler(eb, coll, placeTimeout),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
