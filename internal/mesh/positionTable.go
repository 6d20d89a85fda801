package mesh

import "encoding/json"

// AnchorIndex is the slot reserved for the root mote.
const AnchorIndex = 0

// PositionTable is the ordered list of mote positions produced by a placer.
// It cannot be modified once built; every accessor hands out copies.
type PositionTable struct {
	positions []Coordinates
}

// NewPositionTable copies positions into a new table.
func NewPositionTable(positions []Coordinates) PositionTable {
	cp := make([]Coordinates, len(positions))
	copy(cp, positions)
	return PositionTable{positions: cp}
}

func (t PositionTable) Len() int {
	return len(t.positions)
}

// At returns the position of node i. It panics when i is out of range,
// the same way indexing a slice does.
func (t PositionTable) At(i int) Coordinates {
	return t.positions[i]
}

// Anchor returns the root position, or the origin for an empty table.
func (t PositionTable) Anchor() Coordinates {
	if len(t.positions) == 0 {
		return Coordinates{}
	}
	return t.positions[AnchorIndex]
}

func (t PositionTable) Positions() []Coordinates {
	cp := make([]Coordinates, len(t.positions))
	copy(cp, t.positions)
	return cp
}

// Equals reports whether both tables hold the same positions in the same order.
func (t PositionTable) Equals(other PositionTable) bool {
	if len(t.positions) != len(other.positions) {
		return false
	}
	for i := range t.positions {
		if !t.positions[i].Equals(other.positions[i]) {
			return false
		}
	}
	return true
}

func (t PositionTable) MarshalJSON() ([]byte, error) {
	if t.positions == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t.positions)
}

func (t *PositionTable) UnmarshalJSON(data []byte) error {
	var positions []Coordinates
	if err := json.Unmarshal(data, &positions); err != nil {
		return err
	}
	t.positions = positions
	return nil
}
