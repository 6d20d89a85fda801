// Package topograph reads and writes the line-oriented topology log that the
// Cooja configuration scripts consume. Each placement is stored as two lines:
//
//	pos-net10-lqr0.7-it1=<pos00|12.5|p00|-3.25pos00><pos01|...pos01>...
//	seed-net10-lqr0.7-it1=[123456]
package topograph

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"tsch-topology/internal/mesh"
)

// DefaultSeed is the simulator seed used when a record carries none.
const DefaultSeed int64 = 123456

var (
	ErrMalformedRecord = errors.New("malformed topology record")
	ErrRecordNotFound  = errors.New("topology record not found")
)

var (
	keyPattern = regexp.MustCompile(`^(pos|seed)-net(\d+)-lqr([^-]+)-it(\d+)=(.*)$`)
	posPattern = regexp.MustCompile(`<pos(\d+)\|([^|]+)\|p(\d+)\|([-+0-9.eE]+)pos(\d+)>`)
)

// Key identifies one placement: network size, link quality and iteration.
type Key struct {
	Nodes       int
	LinkQuality float64
	Iteration   int
}

func (k Key) String() string {
	return fmt.Sprintf("net%d-lqr%s-it%d", k.Nodes, strconv.FormatFloat(k.LinkQuality, 'f', -1, 64), k.Iteration)
}

// Record is a stored placement and the simulator seed paired with it.
type Record struct {
	Key   Key
	Table mesh.PositionTable
	Seed  int64
}

// PositionLine encodes the table as a pos- line, without a trailing newline.
func (r Record) PositionLine() string {
	var sb strings.Builder
	sb.WriteString("pos-")
	sb.WriteString(r.Key.String())
	sb.WriteByte('=')
	for i, p := range r.Table.Positions() {
		id := fmt.Sprintf("%02d", i)
		fmt.Fprintf(&sb, "<pos%s|%s|p%s|%spos%s>", id, formatCoord(p.X), id, formatCoord(p.Y), id)
	}
	return sb.String()
}

// SeedLine encodes the seed as a seed- line, without a trailing newline.
func (r Record) SeedLine() string {
	return fmt.Sprintf("seed-%s=[%d]", r.Key, r.Seed)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type lineKind int

const (
	positionLine lineKind = iota
	seedLine
)

// parseLine splits a record line into its kind, key and payload.
func parseLine(line string) (lineKind, Key, string, error) {
	m := keyPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return 0, Key{}, "", fmt.Errorf("%w: unrecognised line %q", ErrMalformedRecord, line)
	}
	nodes, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, Key{}, "", fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	lqr, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, Key{}, "", fmt.Errorf("%w: link quality %q", ErrMalformedRecord, m[3])
	}
	itr, err := strconv.Atoi(m[4])
	if err != nil {
		return 0, Key{}, "", fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	kind := positionLine
	if m[1] == "seed" {
		kind = seedLine
	}
	return kind, Key{Nodes: nodes, LinkQuality: lqr, Iteration: itr}, m[5], nil
}

// decodePositions parses the <posNN|x|pNN|ypos NN> list of a pos- line.
// Exactly nodes entries with ids 0..nodes-1 are required.
func decodePositions(payload string, nodes int) (mesh.PositionTable, error) {
	matches := posPattern.FindAllStringSubmatch(payload, -1)
	if len(matches) != nodes {
		return mesh.PositionTable{}, fmt.Errorf("%w: want %d positions, found %d", ErrMalformedRecord, nodes, len(matches))
	}
	positions := make([]mesh.Coordinates, nodes)
	seen := make([]bool, nodes)
	for _, m := range matches {
		id, _ := strconv.Atoi(m[1])
		if m[1] != m[3] || m[1] != m[5] || id >= nodes || seen[id] {
			return mesh.PositionTable{}, fmt.Errorf("%w: bad position entry %q", ErrMalformedRecord, m[0])
		}
		x, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return mesh.PositionTable{}, fmt.Errorf("%w: x of node %d: %v", ErrMalformedRecord, id, err)
		}
		y, err := strconv.ParseFloat(m[4], 64)
		if err != nil {
			return mesh.PositionTable{}, fmt.Errorf("%w: y of node %d: %v", ErrMalformedRecord, id, err)
		}
		positions[id] = mesh.CreateCoordinates(x, y)
		seen[id] = true
	}
	return mesh.NewPositionTable(positions), nil
}

func decodeSeed(payload string) (int64, error) {
	s := strings.TrimSpace(payload)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return 0, fmt.Errorf("%w: seed %q", ErrMalformedRecord, payload)
	}
	seed, err := strconv.ParseInt(s[1:len(s)-1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: seed %q", ErrMalformedRecord, payload)
	}
	return seed, nil
}
