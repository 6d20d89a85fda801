package sim

import (
	"tsch-topology/internal/export"
	"tsch-topology/internal/placement"
)

type Role string

const (
	RoleServer Role = "server"
	RoleRelay  Role = "relay"
	RoleEnd    Role = "end"
)

// RoleOf returns the firmware role of the mote at table index i.
func (n NodeCfg) RoleOf(i int) Role {
	switch {
	case i < n.Servers:
		return RoleServer
	case i < n.Servers+n.Relays:
		return RoleRelay
	default:
		return RoleEnd
	}
}

// Motes lays out a placement as simulator motes with 1-based IDs.
// Parent is also a mote ID, 0 for the root.
func (n NodeCfg) Motes(pl *placement.Placement, hops []int) []export.Mote {
	motes := make([]export.Mote, pl.Table.Len())
	for i := range motes {
		at := pl.Table.At(i)
		m := export.Mote{
			ID:   i + 1,
			Role: string(n.RoleOf(i)),
			X:    at.X,
			Y:    at.Y,
		}
		if i < len(pl.Parents) && pl.Parents[i] != placement.NoParent {
			m.Parent = pl.Parents[i] + 1
		}
		if i < len(hops) {
			m.Hops = hops[i]
		}
		motes[i] = m
	}
	return motes
}
