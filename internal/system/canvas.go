package system

import (
	"strings"
)

// Canvas is a fixed-size grid of runes used as the render target of the
// shell. Writes outside the grid are dropped.
type Canvas struct {
	width  int
	height int
	cells  []rune
}

func NewCanvas(width, height int) *Canvas {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	c := &Canvas{width: width, height: height, cells: make([]rune, width*height)}
	c.Clear()
	return c
}

func (c *Canvas) Width() int  { return c.width }
func (c *Canvas) Height() int { return c.height }

// Clear fills every cell with a space.
func (c *Canvas) Clear() {
	for i := range c.cells {
		c.cells[i] = ' '
	}
}

// Set writes r at (x, y) and reports whether the cell exists.
func (c *Canvas) Set(x, y int, r rune) bool {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return false
	}
	c.cells[y*c.width+x] = r
	return true
}

// At returns the rune at (x, y), or 0 outside the grid.
func (c *Canvas) At(x, y int) rune {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return 0
	}
	return c.cells[y*c.width+x]
}

// FillRect writes r over the w×h rectangle anchored at (x, y), clipped to
// the grid. It returns the number of cells written.
func (c *Canvas) FillRect(x, y, w, h int, r rune) int {
	n := 0
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			if c.Set(x+dx, y+dy, r) {
				n++
			}
		}
	}
	return n
}

// String renders the grid one line per row, trailing spaces trimmed.
func (c *Canvas) String() string {
	var b strings.Builder
	b.Grow((c.width + 1) * c.height)
	for y := 0; y < c.height; y++ {
		row := c.cells[y*c.width : (y+1)*c.width]
		b.WriteString(strings.TrimRight(string(row), " "))
		b.WriteByte('\n')
	}
	return b.String()
}
