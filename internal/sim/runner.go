package sim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	eb "tsch-topology/internal/eventBus"
	"tsch-topology/internal/export"
	"tsch-topology/internal/metrics"
	"tsch-topology/internal/placement"
	"tsch-topology/internal/render"
	"tsch-topology/internal/topograph"
	"tsch-topology/internal/topology"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Publisher is the sink generated topologies are pushed to, typically MQTT.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) error
}

// IterationResult is the outcome of one iteration. Err is set when the
// placement failed; Placement is nil in that case.
type IterationResult struct {
	Iteration int
	Seed      int64
	RunID     uuid.UUID
	Placement *placement.Placement
	Hops      []int
	Stats     topology.Stats
	Err       error
}

type Runner struct {
	sc   *Scenario
	bus  *eb.EventBus
	coll *metrics.Collector
	pub  Publisher
}

func NewRunner(sc *Scenario, bus *eb.EventBus, coll *metrics.Collector) *Runner {
	return &Runner{sc: sc, bus: bus, coll: coll}
}

// SetPublisher routes every successful topology to pub as well.
func (r *Runner) SetPublisher(pub Publisher) {
	r.pub = pub
}

// Run generates all iterations concurrently, then writes the outputs in
// iteration order. Failed iterations do not stop the others; their errors
// are joined into the returned error.
func (r *Runner) Run(ctx context.Context) ([]IterationResult, error) {
	if err := r.sc.Validate(); err != nil {
		return nil, err
	}
	if r.sc.Output.Dir != "" {
		if err := os.MkdirAll(r.sc.Output.Dir, 0755); err != nil {
			return nil, err
		}
	}

	// ── metrics wire-up ────────────────────────────────────────────────────
	var consumed sync.WaitGroup
	if r.bus != nil && r.coll != nil {
		sub := r.bus.Subscribe()
		consumed.Add(1)
		go func() { defer consumed.Done(); r.coll.Consume(sub) }()
		defer func() {
			r.bus.Unsubscribe(sub)
			consumed.Wait()
		}()
	}

	baseSeed := r.sc.Seed
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
	}

	results := make([]IterationResult, r.sc.Iterations)
	var g errgroup.Group
	g.SetLimit(r.sc.Workers)
	for i := range results {
		itr := i + 1
		seed := baseSeed + int64(i)
		g.Go(func() error {
			results[itr-1] = r.runIteration(ctx, itr, seed)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for i := range results {
		res := &results[i]
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("iteration %d: %w", res.Iteration, res.Err))
			r.coll.AddRun(metrics.RunSummary{RunID: res.RunID.String(), Iteration: res.Iteration,
				Seed: res.Seed, Error: res.Err.Error()})
			continue
		}
		stats := res.Stats
		r.coll.AddRun(metrics.RunSummary{RunID: res.RunID.String(), Iteration: res.Iteration,
			Seed: res.Seed, Attempts: res.Placement.Attempts, Stats: &stats})
		if err := r.writeOutputs(res); err != nil {
			errs = append(errs, fmt.Errorf("iteration %d outputs: %w", res.Iteration, err))
		}
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return results, errors.Join(errs...)
}

func (r *Runner) runIteration(ctx context.Context, itr int, seed int64) IterationResult {
	res := IterationResult{Iteration: itr, Seed: seed, RunID: uuid.New()}
	if r.sc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.sc.Timeout)
		defer cancel()
	}
	logger := log.WithFields(log.Fields{"iteration": itr, "seed": seed, "nodes": r.sc.Nodes.Count, "mode": r.sc.Placement.Mode})

	placer := placement.NewSeededPlacer(seed).WithEvents(r.bus, res.RunID, itr)
	var pl *placement.Placement
	switch r.sc.Placement.Mode {
	case ModeChain:
		pl, res.Err = placer.PlaceChain(r.sc.Nodes.Count, r.sc.Placement.YSpacing)
	default:
		pl, res.Err = placer.Place(ctx, r.sc.PlacementConfig())
	}
	if res.Err != nil {
		logger.WithError(res.Err).Error("placement failed")
		return res
	}

	gr := topology.NewGraph(pl.Table, r.sc.Radio.TxRange)
	res.Placement = pl
	res.Hops = gr.HopCounts()
	res.Stats = gr.Stats()
	r.bus.Publish(eb.Event{Type: eb.EventTopologyAnalysed, RunID: res.RunID, Iteration: itr,
		NodeIndex: res.Stats.Nodes, ParentIndex: placement.NoParent, Attempts: pl.Attempts,
		Payload: fmt.Sprintf("links=%d max_hops=%d connected=%t", res.Stats.Links, res.Stats.MaxHops, res.Stats.Connected)})

	logger.WithFields(log.Fields{
		"attempts":  pl.Attempts,
		"links":     res.Stats.Links,
		"max_hops":  res.Stats.MaxHops,
		"connected": res.Stats.Connected,
	}).Info("topology generated")
	return res
}

// Snapshot assembles the exportable view of a successful iteration.
func (r *Runner) Snapshot(res *IterationResult) *export.Snapshot {
	return &export.Snapshot{
		RunID:     res.RunID.String(),
		Iteration: res.Iteration,
		Mode:      r.sc.Placement.Mode,
		Seed:      res.Seed,
		TxRange:   r.sc.Radio.TxRange,
		Attempts:  res.Placement.Attempts,
		Motes:     r.sc.Nodes.Motes(res.Placement, res.Hops),
		Stats:     res.Stats,
	}
}

func (r *Runner) recordKey(itr int) topograph.Key {
	return topograph.Key{Nodes: r.sc.Nodes.Count, LinkQuality: r.sc.Radio.RxSuccess, Iteration: itr}
}

func (r *Runner) writeOutputs(res *IterationResult) error {
	out := r.sc.Output
	snap := r.Snapshot(res)

	if path := r.sc.outputPath(out.TopoGraph, 0); path != "" {
		rec := topograph.Record{Key: r.recordKey(res.Iteration), Table: res.Placement.Table, Seed: res.Seed}
		if err := topograph.Append(path, rec); err != nil {
			return err
		}
	}
	if path := r.sc.outputPath(out.CSV, res.Iteration); path != "" {
		if err := export.WriteCSV(path, snap.Motes); err != nil {
			return err
		}
	}
	if path := r.sc.outputPath(out.JSON, res.Iteration); path != "" {
		if err := export.WriteJSON(path, snap); err != nil {
			return err
		}
	}
	if path := r.sc.outputPath(out.Msgpack, res.Iteration); path != "" {
		if err := export.WriteMsgpack(path, snap); err != nil {
			return err
		}
	}
	if path := r.sc.outputPath(out.Plot, res.Iteration); path != "" {
		opts := render.Options{
			Title:     fmt.Sprintf("%s %s", r.sc.Placement.Mode, r.recordKey(res.Iteration)),
			LinkRange: r.sc.Radio.TxRange,
		}
		if err := render.SavePNG(path, res.Placement.Table, opts); err != nil {
			return err
		}
	}
	if r.pub != nil {
		payload, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		if err := r.pub.Publish(r.sc.MQTT.Topic, r.sc.MQTT.QoS, false, payload); err != nil {
			return fmt.Errorf("publish topology: %w", err)
		}
	}
	return nil
}
