package placement

import (
	"fmt"
	"math"
)

const (
	// DefaultMargin is subtracted from the transmission range before the
	// proximity test, so accepted neighbours sit safely inside range.
	DefaultMargin = 3.0

	// DefaultAttemptsPerNode bounds the candidate draws when Config.MaxAttempts is zero.
	DefaultAttemptsPerNode = 30000

	// DefaultChainSpacing is the distance between consecutive chain motes in metres.
	DefaultChainSpacing = 40.0
)

// Config describes one mesh placement.
type Config struct {
	NodesNum int     `json:"nodes_num"`
	XRadius  float64 `json:"x_radius"`
	YRadius  float64 `json:"y_radius"`
	TxRange  float64 `json:"tx_range"`
	Margin   float64 `json:"margin"`

	// MaxAttempts caps candidate draws. Zero selects NodesNum*DefaultAttemptsPerNode.
	MaxAttempts int `json:"max_attempts,omitempty"`

	// ReseedAnchor lets the first accepted candidate replace the origin
	// sentinel in slot 0 instead of taking slot 1.
	ReseedAnchor bool `json:"reseed_anchor"`

	// MaxNeighbors and MaxHops are optional shape constraints; zero disables them.
	MaxNeighbors int `json:"max_neighbors,omitempty"`
	MaxHops      int `json:"max_hops,omitempty"`
}

// NewConfig returns a Config with the default margin and anchor reseeding on.
func NewConfig(nodesNum int, xRadius, yRadius, txRange float64) Config {
	return Config{
		NodesNum:     nodesNum,
		XRadius:      xRadius,
		YRadius:      yRadius,
		TxRange:      txRange,
		Margin:       DefaultMargin,
		ReseedAnchor: true,
	}
}

// Threshold is the strict upper bound on the distance to an accepted neighbour.
func (c Config) Threshold() float64 {
	return c.TxRange - c.Margin
}

func (c Config) attemptBudget() int {
	if c.MaxAttempts > 0 {
		return c.MaxAttempts
	}
	return c.NodesNum * DefaultAttemptsPerNode
}

// Validate rejects configurations that could never terminate or make no sense.
func (c Config) Validate() error {
	switch {
	case c.NodesNum <= 0:
		return invalid("nodes_num must be positive, got %d", c.NodesNum)
	case !finite(c.XRadius) || !finite(c.YRadius):
		return invalid("radii must be finite")
	case c.XRadius <= 0 || c.YRadius <= 0:
		return invalid("placement area is empty (x_radius=%g, y_radius=%g)", c.XRadius, c.YRadius)
	case !finite(c.TxRange) || !finite(c.Margin):
		return invalid("tx_range and margin must be finite")
	case c.Margin < 0:
		return invalid("margin must not be negative, got %g", c.Margin)
	case c.TxRange <= c.Margin:
		return invalid("tx_range %g must exceed margin %g", c.TxRange, c.Margin)
	case c.MaxAttempts < 0:
		return invalid("max_attempts must not be negative")
	case c.MaxNeighbors < 0 || c.MaxHops < 0:
		return invalid("neighbour and hop limits must not be negative")
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
