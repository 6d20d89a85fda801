package placement

import "tsch-topology/internal/mesh"

// PlaceChain lays nodesNum motes on the y axis, ySpacing metres apart,
// starting at the origin. It uses no randomness.
func PlaceChain(nodesNum int, ySpacing float64) (mesh.PositionTable, error) {
	if nodesNum <= 0 {
		return mesh.PositionTable{}, invalid("nodes_num must be positive, got %d", nodesNum)
	}
	if !finite(ySpacing) || ySpacing <= 0 {
		return mesh.PositionTable{}, invalid("chain spacing must be a positive distance, got %g", ySpacing)
	}
	positions := make([]mesh.Coordinates, nodesNum)
	for i := range positions {
		positions[i] = mesh.CreateCoordinates(0, float64(i)*ySpacing)
	}
	return mesh.NewPositionTable(positions), nil
}
