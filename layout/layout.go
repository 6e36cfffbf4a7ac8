package layout

import "errors"

// ErrInvalidGrid is returned when Configure is given unusable geometry.
var ErrInvalidGrid = errors.New("layout: invalid grid parameters")

// Bounds describes one zone's cell rectangle in grid units.
type Bounds struct {
	X, Y          int
	Width, Height int
}

// Layout maps 2D grid coordinates to zone ids. Implementations form a
// closed set; Grid is currently the only one.
type Layout interface {
	// PointToZone converts a grid cell to a zone id. ok is false when the
	// cell is outside the grid (not an error).
	PointToZone(x, y int) (zone int, ok bool)

	// ZoneCount returns rows*columns.
	ZoneCount() int

	// ZoneBounds returns the cell rectangle of every zone, ordered by id.
	ZoneBounds() []Bounds

	// Dims returns the current row and column counts.
	Dims() (rows, columns int)

	// Margin returns the normalized dead zone at each edge of the
	// tracking area.
	Margin() float64

	// Configure replaces the geometry. Zone ids past the new count become
	// orphaned; releasing them is the caller's job.
	Configure(rows, columns int, margin float64) error
}
