package placement

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	eb "tsch-topology/internal/eventBus"
	"tsch-topology/internal/mesh"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// how many draws pass between context checks
const ctxCheckInterval = 1024

// NoParent marks the anchor in Placement.Parents.
const NoParent = -1

// Placement is the outcome of one placer run.
type Placement struct {
	Table mesh.PositionTable `json:"positions"`
	// Parents[i] is the already placed node that made node i acceptable.
	Parents  []int `json:"parents"`
	Attempts int   `json:"attempts"`
	Reseeds  int   `json:"reseeds"`
}

// Placer draws mote positions from an injected generator. A Placer is not
// safe for concurrent use because *rand.Rand is not.
type Placer struct {
	prng      *rand.Rand
	bus       *eb.EventBus
	runID     uuid.UUID
	iteration int
}

func NewPlacer(prng *rand.Rand) *Placer {
	if prng == nil {
		prng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Placer{prng: prng, runID: uuid.New()}
}

func NewSeededPlacer(seed int64) *Placer {
	return NewPlacer(rand.New(rand.NewSource(seed)))
}

// WithEvents makes the placer publish its progress on bus, tagged with runID.
func (p *Placer) WithEvents(bus *eb.EventBus, runID uuid.UUID, iteration int) *Placer {
	p.bus = bus
	p.runID = runID
	p.iteration = iteration
	return p
}

func (p *Placer) RunID() uuid.UUID {
	return p.runID
}

// Place runs the rejection-sampling mesh placement described by cfg.
//
// Slot 0 starts as the origin sentinel. Each draw is a uniform point in the
// rectangle; it is accepted as soon as one already placed node lies closer
// than cfg.Threshold(). While the anchor is still the sentinel and
// cfg.ReseedAnchor is set, the first accepted draw replaces it instead of
// taking a new slot. The loop gives up with ErrPlacementUnreachable once
// the attempt budget is spent.
func (p *Placer) Place(ctx context.Context, cfg Config) (*Placement, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	positions := make([]mesh.Coordinates, cfg.NodesNum)
	parents := make([]int, cfg.NodesNum)
	for i := range parents {
		parents[i] = NoParent
	}
	shape := newShapeState(cfg)
	threshold := cfg.Threshold()
	budget := cfg.attemptBudget()
	seeded := !cfg.ReseedAnchor

	p.publish(eb.Event{Type: eb.EventPlacementStarted, NodeIndex: cfg.NodesNum, ParentIndex: NoParent})
	logger := log.WithFields(log.Fields{"run": p.runID, "nodes": cfg.NodesNum, "budget": budget})

	fill, attempts, reseeds := 1, 0, 0
	for fill < cfg.NodesNum {
		if attempts >= budget {
			err := fmt.Errorf("%w: placed %d of %d nodes after %d attempts",
				ErrPlacementUnreachable, fill, cfg.NodesNum, attempts)
			p.fail(err, attempts)
			return nil, err
		}
		if attempts%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				err = fmt.Errorf("placement interrupted after %d attempts: %w", attempts, err)
				p.fail(err, attempts)
				return nil, err
			}
		}
		attempts++

		candidate := mesh.CreateCoordinates(p.uniform(cfg.XRadius), p.uniform(cfg.YRadius))
		parent := firstNeighbour(positions[:fill], candidate, threshold)
		if parent == NoParent {
			continue
		}

		if !seeded {
			positions[fill-1] = candidate
			seeded = true
			reseeds++
			logger.WithField("attempts", attempts).Debug("anchor reseeded")
			p.publish(eb.Event{Type: eb.EventAnchorReseeded, NodeIndex: fill - 1, ParentIndex: NoParent,
				Attempts: attempts, X: candidate.X, Y: candidate.Y})
			continue
		}

		if !shape.admits(positions[:fill], candidate, threshold) {
			continue
		}
		shape.commit(fill)
		positions[fill] = candidate
		parents[fill] = parent
		p.publish(eb.Event{Type: eb.EventNodePlaced, NodeIndex: fill, ParentIndex: parent,
			Attempts: attempts, X: candidate.X, Y: candidate.Y})
		fill++
	}

	logger.WithFields(log.Fields{"attempts": attempts, "reseeds": reseeds}).Debug("mesh placement complete")
	p.publish(eb.Event{Type: eb.EventPlacementFinished, NodeIndex: cfg.NodesNum, ParentIndex: NoParent, Attempts: attempts})

	return &Placement{
		Table:    mesh.NewPositionTable(positions),
		Parents:  parents,
		Attempts: attempts,
		Reseeds:  reseeds,
	}, nil
}

// PlaceChain wraps the deterministic chain layout in a Placement and
// reports it on the placer's event bus.
func (p *Placer) PlaceChain(nodesNum int, ySpacing float64) (*Placement, error) {
	table, err := PlaceChain(nodesNum, ySpacing)
	if err != nil {
		return nil, err
	}
	parents := make([]int, nodesNum)
	p.publish(eb.Event{Type: eb.EventPlacementStarted, NodeIndex: nodesNum, ParentIndex: NoParent})
	for i := range parents {
		parents[i] = i - 1
		if i > 0 {
			at := table.At(i)
			p.publish(eb.Event{Type: eb.EventNodePlaced, NodeIndex: i, ParentIndex: i - 1, X: at.X, Y: at.Y})
		}
	}
	p.publish(eb.Event{Type: eb.EventPlacementFinished, NodeIndex: nodesNum, ParentIndex: NoParent})
	return &Placement{Table: table, Parents: parents}, nil
}

func (p *Placer) uniform(radius float64) float64 {
	return -radius + 2*radius*p.prng.Float64()
}

func (p *Placer) publish(ev eb.Event) {
	if p.bus == nil {
		return
	}
	ev.RunID = p.runID
	ev.Iteration = p.iteration
	p.bus.Publish(ev)
}

func (p *Placer) fail(err error, attempts int) {
	log.WithFields(log.Fields{"run": p.runID, "attempts": attempts}).WithError(err).Warn("mesh placement failed")
	p.publish(eb.Event{Type: eb.EventPlacementFailed, ParentIndex: NoParent, Attempts: attempts, Payload: err.Error()})
}

// firstNeighbour returns the lowest index in placed that lies strictly
// closer than threshold to candidate, or NoParent.
func firstNeighbour(placed []mesh.Coordinates, candidate mesh.Coordinates, threshold float64) int {
	for j, node := range placed {
		if candidate.DistanceTo(node) < threshold {
			return j
		}
	}
	return NoParent
}
