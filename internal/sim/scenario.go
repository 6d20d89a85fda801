package sim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"tsch-topology/internal/placement"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	ModeMesh  = "mesh"
	ModeChain = "chain"
)

// NodeCfg splits the network into the three firmware roles. Motes are
// ordered servers first, then relays, then end nodes.
type NodeCfg struct {
	Count   int `yaml:"count" json:"count" toml:"count"`
	Servers int `yaml:"server_num" json:"server_num" toml:"server_num"`
	Relays  int `yaml:"relay_node_num" json:"relay_node_num" toml:"relay_node_num"`
	Ends    int `yaml:"end_node_num" json:"end_node_num" toml:"end_node_num"`
}

type PlacementCfg struct {
	Mode         string   `yaml:"mode" json:"mode" toml:"mode"` // mesh | chain
	XRadius      float64  `yaml:"x_radius" json:"x_radius" toml:"x_radius"`
	YRadius      float64  `yaml:"y_radius" json:"y_radius" toml:"y_radius"`
	Margin       *float64 `yaml:"margin" json:"margin" toml:"margin"`
	ReseedAnchor *bool    `yaml:"reseed_anchor" json:"reseed_anchor" toml:"reseed_anchor"`
	YSpacing     float64  `yaml:"y_spacing" json:"y_spacing" toml:"y_spacing"`
	MaxAttempts  int      `yaml:"max_attempts" json:"max_attempts" toml:"max_attempts"`
	MaxNeighbors int      `yaml:"max_neighbors" json:"max_neighbors" toml:"max_neighbors"`
	MaxHops      int      `yaml:"max_hops" json:"max_hops" toml:"max_hops"`
}

// RadioCfg mirrors the unit disk graph medium parameters of the simulator.
type RadioCfg struct {
	TxRange   float64 `yaml:"tx_range" json:"tx_range" toml:"tx_range"`
	IntfRange float64 `yaml:"intf_range" json:"intf_range" toml:"intf_range"`
	TxSuccess float64 `yaml:"tx_success" json:"tx_success" toml:"tx_success"`
	RxSuccess float64 `yaml:"rx_success" json:"rx_success" toml:"rx_success"`
}

type OutputCfg struct {
	Dir         string `yaml:"dir" json:"dir" toml:"dir"`
	TopoGraph   string `yaml:"topo_graph" json:"topo_graph" toml:"topo_graph"`
	CSV         string `yaml:"csv" json:"csv" toml:"csv"`
	JSON        string `yaml:"json" json:"json" toml:"json"`
	Msgpack     string `yaml:"msgpack" json:"msgpack" toml:"msgpack"`
	Plot        string `yaml:"plot" json:"plot" toml:"plot"`
	MetricsFile string `yaml:"metrics_file" json:"metrics_file" toml:"metrics_file"`
}

type MQTTCfg struct {
	Broker   string `yaml:"broker" json:"broker" toml:"broker"`
	ClientID string `yaml:"client_id" json:"client_id" toml:"client_id"`
	Topic    string `yaml:"topic" json:"topic" toml:"topic"`
	QoS      byte   `yaml:"qos" json:"qos" toml:"qos"`
}

type Scenario struct {
	Seed       int64         `yaml:"seed" json:"seed" toml:"seed"`
	Iterations int           `yaml:"iterations" json:"iterations" toml:"iterations"`
	Workers    int           `yaml:"workers" json:"workers" toml:"workers"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout" toml:"timeout"`
	Nodes      NodeCfg       `yaml:"nodes" json:"nodes" toml:"nodes"`
	Placement  PlacementCfg  `yaml:"placement" json:"placement" toml:"placement"`
	Radio      RadioCfg      `yaml:"radio" json:"radio" toml:"radio"`
	Output     OutputCfg     `yaml:"output" json:"output" toml:"output"`
	MQTT       MQTTCfg       `yaml:"mqtt" json:"mqtt" toml:"mqtt"`
}

// LoadScenario reads a scenario file. Files ending in .toml are decoded as
// TOML; everything else is tried as YAML first and JSON second.
func LoadScenario(path string) (*Scenario, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc := &Scenario{}
	switch {
	case strings.EqualFold(filepath.Ext(path), ".toml"):
		if err := toml.Unmarshal(f, sc); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", path, err)
		}
	case yaml.Unmarshal(f, sc) == nil:
	default:
		// fallback JSON
		sc = &Scenario{}
		if err := json.Unmarshal(f, sc); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", path, err)
		}
	}
	sc.ApplyDefaults()
	return sc, nil
}

// DefaultScenario is a single ten-mote mesh, the size the original
// experiments started from.
func DefaultScenario() *Scenario {
	sc := &Scenario{
		Nodes:     NodeCfg{Count: 10},
		Placement: PlacementCfg{Mode: ModeMesh, XRadius: 100, YRadius: 100},
		Radio:     RadioCfg{TxRange: 50, IntfRange: 100, TxSuccess: 1, RxSuccess: 1},
	}
	sc.ApplyDefaults()
	return sc
}

// ApplyDefaults fills every unset field.
func (sc *Scenario) ApplyDefaults() {
	if sc.Iterations <= 0 {
		sc.Iterations = 1
	}
	if sc.Workers <= 0 {
		sc.Workers = runtime.NumCPU()
	}
	if sc.Placement.Mode == "" {
		sc.Placement.Mode = ModeMesh
	}
	if sc.Placement.Margin == nil {
		m := placement.DefaultMargin
		sc.Placement.Margin = &m
	}
	if sc.Placement.ReseedAnchor == nil {
		on := true
		sc.Placement.ReseedAnchor = &on
	}
	if sc.Placement.YSpacing == 0 {
		sc.Placement.YSpacing = placement.DefaultChainSpacing
	}
	sc.Nodes.fillRoles()
	if sc.Radio.TxRange == 0 {
		sc.Radio.TxRange = 50
	}
	if sc.Radio.IntfRange == 0 {
		sc.Radio.IntfRange = 2 * sc.Radio.TxRange
	}
	if sc.Radio.TxSuccess == 0 {
		sc.Radio.TxSuccess = 1
	}
	if sc.Radio.RxSuccess == 0 {
		sc.Radio.RxSuccess = 1
	}
	if sc.Output.TopoGraph == "" {
		sc.Output.TopoGraph = "topo_graph"
	}
	if sc.MQTT.Topic == "" {
		sc.MQTT.Topic = "simulation/topology"
	}
	if sc.MQTT.ClientID == "" {
		sc.MQTT.ClientID = "topogen"
	}
}

// fillRoles derives whichever of count or the role split is missing. With
// no split given, mote 1 is the root and the rest relay.
func (n *NodeCfg) fillRoles() {
	sum := n.Servers + n.Relays + n.Ends
	switch {
	case n.Count == 0:
		n.Count = sum
	case sum == 0:
		n.Servers = 1
		n.Relays = n.Count - 1
	}
}

// PlacementConfig converts the scenario to the placer's configuration.
func (sc *Scenario) PlacementConfig() placement.Config {
	cfg := placement.NewConfig(sc.Nodes.Count, sc.Placement.XRadius, sc.Placement.YRadius, sc.Radio.TxRange)
	if sc.Placement.Margin != nil {
		cfg.Margin = *sc.Placement.Margin
	}
	if sc.Placement.ReseedAnchor != nil {
		cfg.ReseedAnchor = *sc.Placement.ReseedAnchor
	}
	cfg.MaxAttempts = sc.Placement.MaxAttempts
	cfg.MaxNeighbors = sc.Placement.MaxNeighbors
	cfg.MaxHops = sc.Placement.MaxHops
	return cfg
}

func (sc *Scenario) Validate() error {
	n := sc.Nodes
	if n.Count <= 0 {
		return fmt.Errorf("%w: nodes.count must be positive", placement.ErrInvalidConfiguration)
	}
	if n.Servers < 0 || n.Relays < 0 || n.Ends < 0 {
		return fmt.Errorf("%w: role counts must not be negative", placement.ErrInvalidConfiguration)
	}
	if n.Servers+n.Relays+n.Ends != n.Count {
		return fmt.Errorf("%w: %d servers + %d relays + %d end nodes != %d nodes",
			placement.ErrInvalidConfiguration, n.Servers, n.Relays, n.Ends, n.Count)
	}
	for name, p := range map[string]float64{"tx_success": sc.Radio.TxSuccess, "rx_success": sc.Radio.RxSuccess} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: %s must be within [0, 1], got %g", placement.ErrInvalidConfiguration, name, p)
		}
	}
	switch sc.Placement.Mode {
	case ModeMesh:
		return sc.PlacementConfig().Validate()
	case ModeChain:
		if sc.Placement.YSpacing <= 0 {
			return fmt.Errorf("%w: y_spacing must be positive", placement.ErrInvalidConfiguration)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown placement mode %q", placement.ErrInvalidConfiguration, sc.Placement.Mode)
	}
}

// outputPath resolves name inside the output directory. Runs with several
// iterations get an -itN suffix before the extension.
func (sc *Scenario) outputPath(name string, iteration int) string {
	if name == "" {
		return ""
	}
	if sc.Iterations > 1 && iteration > 0 {
		ext := filepath.Ext(name)
		name = fmt.Sprintf("%s-it%d%s", strings.TrimSuffix(name, ext), iteration, ext)
	}
	if sc.Output.Dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(sc.Output.Dir, name)
}
