package mesh

import "gonum.org/v1/gonum/spatial/r2"

// Coordinates is a planar mote position in metres.
type Coordinates struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

func (c Coordinates) Vec() r2.Vec {
	return r2.Vec{X: c.X, Y: c.Y}
}

// DistanceTo is the Euclidean distance between two positions.
func (c Coordinates) DistanceTo(other Coordinates) float64 {
	return r2.Norm(r2.Sub(c.Vec(), other.Vec()))
}

func (c Coordinates) Equals(other Coordinates) bool {
	return c.X == other.X && c.Y == other.Y
}

func CreateCoordinates(x float64, y float64) Coordinates {
	return Coordinates{X: x, Y: y}
}
