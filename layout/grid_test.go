package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridPointToZone(t *testing.T) {
	g, err := NewGrid(2, 2, 0.1)
	require.NoError(t, err)

	cases := []struct {
		x, y int
		zone int
		ok   bool
	}{
		{0, 0, 0, true},
		{1, 0, 1, true},
		{0, 1, 2, true},
		{1, 1, 3, true},
		{-1, 0, 0, false},
		{2, 0, 0, false},
		{0, -1, 0, false},
		{0, 2, 0, false},
	}
	for _, c := range cases {
		zone, ok := g.PointToZone(c.x, c.y)
		assert.Equal(t, c.ok, ok, "(%d,%d)", c.x, c.y)
		if c.ok {
			assert.Equal(t, c.zone, zone, "(%d,%d)", c.x, c.y)
		}
	}
}

func TestGridInversion(t *testing.T) {
	g, err := NewGrid(3, 4, 0.1)
	require.NoError(t, err)

	seen := make(map[int]bool)
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			zone, ok := g.PointToZone(x, y)
			require.True(t, ok)
			assert.Equal(t, y*4+x, zone)
			seen[zone] = true
		}
	}
	assert.Len(t, seen, g.ZoneCount())
}

func TestGridZoneBounds(t *testing.T) {
	g, err := NewGrid(2, 3, 0.1)
	require.NoError(t, err)

	bounds := g.ZoneBounds()
	require.Len(t, bounds, 6)
	for _, b := range bounds {
		assert.Equal(t, 1, b.Width)
		assert.Equal(t, 1, b.Height)
	}
	assert.Equal(t, Bounds{X: 0, Y: 0, Width: 1, Height: 1}, bounds[0])
	assert.Equal(t, Bounds{X: 2, Y: 1, Width: 1, Height: 1}, bounds[5])
}

func TestGridConfigure(t *testing.T) {
	g, err := NewGrid(2, 2, 0.1)
	require.NoError(t, err)

	require.NoError(t, g.Configure(3, 5, 0.2))
	rows, cols := g.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 5, cols)
	assert.Equal(t, 0.2, g.Margin())
	assert.Equal(t, 15, g.ZoneCount())
}

func TestGridConfigureInvalid(t *testing.T) {
	g, err := NewGrid(2, 2, 0.1)
	require.NoError(t, err)

	assert.ErrorIs(t, g.Configure(-1, 2, 0.1), ErrInvalidGrid)
	assert.ErrorIs(t, g.Configure(2, -1, 0.1), ErrInvalidGrid)
	assert.ErrorIs(t, g.Configure(2, 2, -0.1), ErrInvalidGrid)
	assert.ErrorIs(t, g.Configure(2, 2, 0.5), ErrInvalidGrid)

	_, err = NewGrid(1, 1, 0.6)
	assert.ErrorIs(t, err, ErrInvalidGrid)
}

func TestGridEmpty(t *testing.T) {
	g, err := NewGrid(0, 5, 0.1)
	require.NoError(t, err)
	assert.Equal(t, 0, g.ZoneCount())
	_, ok := g.PointToZone(0, 0)
	assert.False(t, ok)

	g, err = NewGrid(5, 0, 0.1)
	require.NoError(t, err)
	assert.Equal(t, 0, g.ZoneCount())
	_, ok = g.PointToZone(0, 0)
	assert.False(t, ok)
}

func TestGridSingleRowColumn(t *testing.T) {
	g, err := NewGrid(1, 5, 0.1)
	require.NoError(t, err)
	for x := 0; x < 5; x++ {
		zone, ok := g.PointToZone(x, 0)
		require.True(t, ok)
		assert.Equal(t, x, zone)
	}
	_, ok := g.PointToZone(0, 1)
	assert.False(t, ok)

	g, err = NewGrid(5, 1, 0.1)
	require.NoError(t, err)
	for y := 0; y < 5; y++ {
		zone, ok := g.PointToZone(0, y)
		require.True(t, ok)
		assert.Equal(t, y, zone)
	}
	_, ok = g.PointToZone(1, 0)
	assert.False(t, ok)
}

func TestGridLarge(t *testing.T) {
	g, err := NewGrid(10, 12, 0.1)
	require.NoError(t, err)
	assert.Equal(t, 120, g.ZoneCount())

	zone, ok := g.PointToZone(11, 9)
	require.True(t, ok)
	assert.Equal(t, 119, zone)

	_, ok = g.PointToZone(12, 0)
	assert.False(t, ok)
	_, ok = g.PointToZone(0, 10)
	assert.False(t, ok)
}
