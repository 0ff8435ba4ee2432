package domain

// Position is the optional 2D layout position of a device
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPosition creates a new position
func NewPosition(x, y float64) *Position {
	return &Position{X: x, Y: y}
}
