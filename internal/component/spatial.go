package component

// Position is an entity's location in canvas cells. Fractional parts
// accumulate motion between cells.
type Position struct {
	X float64
	Y float64
}

// Velocity moves a Position, in cells per second.
type Velocity struct {
	DX float64
	DY float64
}

// Bounds is the rectangle an entity occupies, anchored at its Position.
type Bounds struct {
	Width  int
	Height int
}

// Empty reports whether the rectangle covers no cells.
func (b Bounds) Empty() bool { return b.Width <= 0 || b.Height <= 0 }
