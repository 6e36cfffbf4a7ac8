package layout

import "fmt"

// Grid is a rectangular layout with rows*columns equally sized zones.
// Zone ids run left to right, top to bottom: id = y*columns + x.
type Grid struct {
	rows    int
	columns int
	margin  float64
}

// NewGrid creates a grid layout. Zero rows or columns are legal and yield
// an empty grid.
func NewGrid(rows, columns int, margin float64) (*Grid, error) {
	g := &Grid{}
	if err := g.Configure(rows, columns, margin); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Grid) PointToZone(x, y int) (int, bool) {
	if x < 0 || x >= g.columns || y < 0 || y >= g.rows {
		return 0, false
	}
	return y*g.columns + x, true
}

func (g *Grid) ZoneCount() int {
	return g.rows * g.columns
}

func (g *Grid) ZoneBounds() []Bounds {
	bounds := make([]Bounds, 0, g.ZoneCount())
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.columns; c++ {
			bounds = append(bounds, Bounds{X: c, Y: r, Width: 1, Height: 1})
		}
	}
	return bounds
}

func (g *Grid) Dims() (int, int) {
	return g.rows, g.columns
}

func (g *Grid) Margin() float64 {
	return g.margin
}

func (g *Grid) Configure(rows, columns int, margin float64) error {
	if rows < 0 || columns < 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidGrid, rows, columns)
	}
	if margin < 0 || margin >= 0.5 {
		return fmt.Errorf("%w: margin %v", ErrInvalidGrid, margin)
	}
	g.rows = rows
	g.columns = columns
	g.margin = margin
	return nil
}
