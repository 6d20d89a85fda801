package export

import (
	"encoding/json"
	"os"

	"tsch-topology/internal/topology"

	"github.com/jszwec/csvutil"
	"github.com/vmihailenco/msgpack/v5"
)

// Mote is one row of an exported topology. IDs are 1-based, as the
// simulator numbers motes.
type Mote struct {
	ID     int     `json:"id" csv:"id" msgpack:"id"`
	Role   string  `json:"role" csv:"role" msgpack:"role"`
	X      float64 `json:"x" csv:"x" msgpack:"x"`
	Y      float64 `json:"y" csv:"y" msgpack:"y"`
	Z      float64 `json:"z" csv:"z" msgpack:"z"`
	Parent int     `json:"parent" csv:"parent" msgpack:"parent"`
	Hops   int     `json:"hops" csv:"hops" msgpack:"hops"`
}

// Snapshot is everything known about one generated topology.
type Snapshot struct {
	RunID     string         `json:"run_id" msgpack:"run_id"`
	Iteration int            `json:"iteration" msgpack:"iteration"`
	Mode      string         `json:"mode" msgpack:"mode"`
	Seed      int64          `json:"seed" msgpack:"seed"`
	TxRange   float64        `json:"tx_range" msgpack:"tx_range"`
	Attempts  int            `json:"attempts" msgpack:"attempts"`
	Motes     []Mote         `json:"motes" msgpack:"motes"`
	Stats     topology.Stats `json:"stats" msgpack:"stats"`
}

func WriteCSV(path string, motes []Mote) error {
	data, err := csvutil.Marshal(motes)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func ReadCSV(path string) ([]Mote, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var motes []Mote
	if err := csvutil.Unmarshal(data, &motes); err != nil {
		return nil, err
	}
	return motes, nil
}

func WriteJSON(path string, snap *Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

func WriteMsgpack(path string, snap *Snapshot) error {
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func ReadMsgpack(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{}
	if err := msgpack.Unmarshal(data, snap); err != nil {
		return nil, err
	}
	return snap, nil
}
