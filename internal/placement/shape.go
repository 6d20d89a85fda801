package placement

import "tsch-topology/internal/mesh"

// shapeState tracks neighbour counts and hop distances of placed nodes so
// MaxNeighbors and MaxHops can be enforced while sampling.
type shapeState struct {
	maxNeighbors int
	maxHops      int
	degrees      []int
	hops         []int

	// scratch from the last admits call, consumed by commit
	pending    []int
	pendingHop int
}

func newShapeState(cfg Config) *shapeState {
	return &shapeState{
		maxNeighbors: cfg.MaxNeighbors,
		maxHops:      cfg.MaxHops,
		degrees:      make([]int, cfg.NodesNum),
		hops:         make([]int, cfg.NodesNum),
	}
}

func (s *shapeState) constrained() bool {
	return s.maxNeighbors > 0 || s.maxHops > 0
}

// admits reports whether candidate can join without breaking a limit.
func (s *shapeState) admits(placed []mesh.Coordinates, candidate mesh.Coordinates, threshold float64) bool {
	if !s.constrained() {
		return true
	}
	s.pending = s.pending[:0]
	hop := -1
	for j, node := range placed {
		if candidate.DistanceTo(node) >= threshold {
			continue
		}
		s.pending = append(s.pending, j)
		if hop < 0 || s.hops[j]+1 < hop {
			hop = s.hops[j] + 1
		}
	}
	if s.maxNeighbors > 0 {
		if len(s.pending) > s.maxNeighbors {
			return false
		}
		for _, j := range s.pending {
			if s.degrees[j]+1 > s.maxNeighbors {
				return false
			}
		}
	}
	if s.maxHops > 0 && hop > s.maxHops {
		return false
	}
	s.pendingHop = hop
	return true
}

// commit records the node admitted by the previous admits call at slot idx.
func (s *shapeState) commit(idx int) {
	if !s.constrained() {
		return
	}
	s.degrees[idx] = len(s.pending)
	s.hops[idx] = s.pendingHop
	for _, j := range s.pending {
		s.degrees[j]++
	}
}
