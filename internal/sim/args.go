package sim

import (
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ValueFromArgs finds the argument written as key=[value] and returns value.
// The key must match exactly, so node_num does not pick up relay_node_num.
func ValueFromArgs(args []string, key string) (string, bool) {
	prefix := key + "=["
	for _, a := range args {
		if !strings.HasPrefix(a, prefix) {
			continue
		}
		end := strings.LastIndex(a, "]")
		if end < len(prefix) {
			return "", false
		}
		return strings.TrimSpace(a[len(prefix):end]), true
	}
	return "", false
}

type argSetter func(sc *Scenario, v string) error

func intArg(dst func(sc *Scenario) *int) argSetter {
	return func(sc *Scenario, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst(sc) = n
		return nil
	}
}

func floatArg(dst func(sc *Scenario) *float64) argSetter {
	return func(sc *Scenario, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst(sc) = f
		return nil
	}
}

var argSetters = map[string]argSetter{
	"node_num":       intArg(func(sc *Scenario) *int { return &sc.Nodes.Count }),
	"server_num":     intArg(func(sc *Scenario) *int { return &sc.Nodes.Servers }),
	"relay_node_num": intArg(func(sc *Scenario) *int { return &sc.Nodes.Relays }),
	"end_node_num":   intArg(func(sc *Scenario) *int { return &sc.Nodes.Ends }),
	"itr":            intArg(func(sc *Scenario) *int { return &sc.Iterations }),
	"max_attempts":   intArg(func(sc *Scenario) *int { return &sc.Placement.MaxAttempts }),
	"tx_range":       floatArg(func(sc *Scenario) *float64 { return &sc.Radio.TxRange }),
	"intf_range":     floatArg(func(sc *Scenario) *float64 { return &sc.Radio.IntfRange }),
	"tx_success":     floatArg(func(sc *Scenario) *float64 { return &sc.Radio.TxSuccess }),
	"rx_success":     floatArg(func(sc *Scenario) *float64 { return &sc.Radio.RxSuccess }),
	"x_radius":       floatArg(func(sc *Scenario) *float64 { return &sc.Placement.XRadius }),
	"y_radius":       floatArg(func(sc *Scenario) *float64 { return &sc.Placement.YRadius }),
	"y_spacing":      floatArg(func(sc *Scenario) *float64 { return &sc.Placement.YSpacing }),
	"seed": func(sc *Scenario, v string) error {
		s, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		sc.Seed = s
		return nil
	},
	"mode": func(sc *Scenario, v string) error {
		sc.Placement.Mode = v
		return nil
	},
}

// ApplyArgs overrides scenario fields from key=[value] arguments such as
// node_num=[10] tx_range=[50]. Unknown keys are logged and ignored.
func ApplyArgs(sc *Scenario, args []string) error {
	seen := make(map[string]bool)
	for _, a := range args {
		eq := strings.Index(a, "=[")
		if eq <= 0 {
			continue
		}
		key := a[:eq]
		set, ok := argSetters[key]
		if !ok {
			log.WithField("arg", a).Warn("ignoring unknown override")
			continue
		}
		v, _ := ValueFromArgs([]string{a}, key)
		if err := set(sc, v); err != nil {
			return fmt.Errorf("override %s: %w", key, err)
		}
		seen[key] = true
	}

	// keep count and role split consistent when only one side was overridden
	roles := seen["server_num"] || seen["relay_node_num"] || seen["end_node_num"]
	switch {
	case seen["node_num"] && !roles:
		sc.Nodes.Servers, sc.Nodes.Relays, sc.Nodes.Ends = 0, 0, 0
		sc.Nodes.fillRoles()
	case roles && !seen["node_num"]:
		sc.Nodes.Count = 0
		sc.Nodes.fillRoles()
	}
	return nil
}
