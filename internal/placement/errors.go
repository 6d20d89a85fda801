package placement

import "errors"

var (
	ErrInvalidConfiguration = errors.New("invalid placement configuration")
	ErrPlacementUnreachable = errors.New("placement unreachable within attempt budget")
)
