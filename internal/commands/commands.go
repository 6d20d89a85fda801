package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"tsch-topology/internal/eventBus"
	"tsch-topology/internal/mesh"
	"tsch-topology/internal/placement"
	"tsch-topology/internal/topology"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// PlaceRequest defines the expected JSON payload for a placement. Unset
// optional fields take the placer defaults.
type PlaceRequest struct {
	Mode         string   `json:"mode"` // mesh | chain
	NodesNum     int      `json:"nodes_num"`
	XRadius      float64  `json:"x_radius"`
	YRadius      float64  `json:"y_radius"`
	TxRange      float64  `json:"tx_range"`
	Margin       *float64 `json:"margin,omitempty"`
	ReseedAnchor *bool    `json:"reseed_anchor,omitempty"`
	YSpacing     float64  `json:"y_spacing,omitempty"`
	MaxAttempts  int      `json:"max_attempts,omitempty"`
	MaxNeighbors int      `json:"max_neighbors,omitempty"`
	MaxHops      int      `json:"max_hops,omitempty"`
	Seed         int64    `json:"seed,omitempty"`
}

// PlaceResponse is returned for a successful placement.
type PlaceResponse struct {
	RunID     uuid.UUID          `json:"run_id"`
	Mode      string             `json:"mode"`
	Seed      int64              `json:"seed"`
	Positions mesh.PositionTable `json:"positions"`
	Parents   []int              `json:"parents"`
	Attempts  int                `json:"attempts"`
	Stats     topology.Stats     `json:"stats"`
}

func (req PlaceRequest) config() placement.Config {
	cfg := placement.NewConfig(req.NodesNum, req.XRadius, req.YRadius, req.TxRange)
	if req.Margin != nil {
		cfg.Margin = *req.Margin
	}
	if req.ReseedAnchor != nil {
		cfg.ReseedAnchor = *req.ReseedAnchor
	}
	cfg.MaxAttempts = req.MaxAttempts
	cfg.MaxNeighbors = req.MaxNeighbors
	cfg.MaxHops = req.MaxHops
	return cfg
}

// Execute runs one placement request and analyses the result. Progress is
// published on bus under a fresh run id.
func Execute(ctx context.Context, req PlaceRequest, bus *eventBus.EventBus) (*PlaceResponse, error) {
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	placer := placement.NewSeededPlacer(seed).WithEvents(bus, uuid.New(), 0)

	var (
		pl        *placement.Placement
		err       error
		linkRange = req.TxRange
	)
	switch req.Mode {
	case "", "mesh":
		req.Mode = "mesh"
		pl, err = placer.Place(ctx, req.config())
	case "chain":
		spacing := req.YSpacing
		if spacing == 0 {
			spacing = placement.DefaultChainSpacing
		}
		if linkRange == 0 {
			linkRange = spacing
		}
		pl, err = placer.PlaceChain(req.NodesNum, spacing)
	default:
		err = fmt.Errorf("%w: unknown mode %q", placement.ErrInvalidConfiguration, req.Mode)
	}
	if err != nil {
		return nil, err
	}

	return &PlaceResponse{
		RunID:     placer.RunID(),
		Mode:      req.Mode,
		Seed:      seed,
		Positions: pl.Table,
		Parents:   pl.Parents,
		Attempts:  pl.Attempts,
		Stats:     topology.Analyze(pl.Table, linkRange),
	}, nil
}

// StatusFor maps placement errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, placement.ErrInvalidConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, placement.ErrPlacementUnreachable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// PlaceHandler runs a placement per POST and replies with the positions.
// Each request gets at most timeout of wall-clock time.
func PlaceHandler(bus *eventBus.EventBus, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req PlaceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		resp, err := Execute(ctx, req, bus)
		if err != nil {
			log.WithError(err).WithField("nodes", req.NodesNum).Warn("placement request failed")
			http.Error(w, err.Error(), StatusFor(err))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.WithError(err).Warn("writing placement response")
		}
	}
}

// ChainHandler serves GET /topologyAPI/chain?nodes=N&spacing=S.
func ChainHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var nodes int
		spacing := placement.DefaultChainSpacing
		if _, err := fmt.Sscan(r.URL.Query().Get("nodes"), &nodes); err != nil {
			http.Error(w, "nodes must be an integer", http.StatusBadRequest)
			return
		}
		if s := r.URL.Query().Get("spacing"); s != "" {
			if _, err := fmt.Sscan(s, &spacing); err != nil {
				http.Error(w, "spacing must be a number", http.StatusBadRequest)
				return
			}
		}
		table, err := placement.PlaceChain(nodes, spacing)
		if err != nil {
			http.Error(w, err.Error(), StatusFor(err))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(table)
	}
}
