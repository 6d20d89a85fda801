package metrics

import (
	"encoding/json"
	"os"
	"sort"
	"sync"

	eb "tsch-topology/internal/eventBus"
	"tsch-topology/internal/topology"
)

// RunSummary is the per-iteration record kept by the collector.
type RunSummary struct {
	RunID     string          `json:"run_id"`
	Iteration int             `json:"iteration"`
	Seed      int64           `json:"seed"`
	Attempts  int             `json:"attempts"`
	Stats     *topology.Stats `json:"stats,omitempty"`
	Error     string          `json:"error,omitempty"`
}

type Counters struct {
	RunsStarted   uint64       `json:"runs_started"`
	RunsFinished  uint64       `json:"runs_finished"`
	RunsFailed    uint64       `json:"runs_failed"`
	NodesPlaced   uint64       `json:"nodes_placed"`
	AnchorReseeds uint64       `json:"anchor_reseeds"`
	Attempts      uint64       `json:"attempts"`
	Runs          []RunSummary `json:"runs"`
}

type Collector struct {
	mu sync.Mutex
	Counters
}

func NewCollector() *Collector {
	return &Collector{}
}

// Consume folds events from ch into the counters until ch is closed.
func (c *Collector) Consume(ch <-chan eb.Event) {
	for ev := range ch {
		c.AddEvent(ev)
	}
}

func (c *Collector) AddEvent(ev eb.Event) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch ev.Type {
	case eb.EventPlacementStarted:
		c.RunsStarted++
	case eb.EventNodePlaced:
		c.NodesPlaced++
	case eb.EventAnchorReseeded:
		c.AnchorReseeds++
	case eb.EventPlacementFinished:
		c.RunsFinished++
		c.Attempts += uint64(ev.Attempts)
	case eb.EventPlacementFailed:
		c.RunsFailed++
		c.Attempts += uint64(ev.Attempts)
	}
}

func (c *Collector) AddRun(run RunSummary) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.Runs = append(c.Runs, run)
	c.mu.Unlock()
}

// AcceptanceRatio is placed nodes over candidate draws across finished runs.
func (c *Collector) AcceptanceRatio() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Attempts == 0 {
		return 0
	}
	return float64(c.NodesPlaced+c.AnchorReseeds) / float64(c.Attempts)
}

// Snapshot returns a copy of the counters with runs ordered by iteration.
func (c *Collector) Snapshot() Counters {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.Counters
	out.Runs = append([]RunSummary(nil), c.Runs...)
	sort.SliceStable(out.Runs, func(i, j int) bool { return out.Runs[i].Iteration < out.Runs[j].Iteration })
	return out
}

func (c *Collector) Flush(file string) error {
	snap := c.Snapshot()
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
