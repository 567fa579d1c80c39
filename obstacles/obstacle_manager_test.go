package obstacles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erd/diagram"
	"erd/geometry"
)

func box(id string, x, y float64) diagram.Node {
	return diagram.Node{ID: id, Position: geometry.Point{X: x, Y: y}, Size: geometry.Size{Width: 10, Height: 10}}
}

func TestSetOverlaps(t *testing.T) {
	s := NewSet(2)
	assert.False(t, s.Overlaps(geometry.RectAt(geometry.Point{}, geometry.Size{Width: 5, Height: 5}), 0))

	s.Add(box("a", 0, 0))
	s.Add(box("b", 100, 0))
	require.Equal(t, 2, s.Len())

	hit, ok := s.FirstOverlap(geometry.RectAt(geometry.Point{X: 95, Y: 0}, geometry.Size{Width: 10, Height: 10}), 0)
	require.True(t, ok)
	assert.Equal(t, "b", hit.ID)

	r := geometry.RectAt(geometry.Point{X: 12, Y: 0}, geometry.Size{Width: 10, Height: 10})
	assert.False(t, s.Overlaps(r, 0))
	assert.False(t, s.Overlaps(r, 1), "a gap of exactly twice the buffer is clear")
	assert.True(t, s.Overlaps(r, 1.5))
}

func TestSetTooClose(t *testing.T) {
	s := NewSet(0)
	s.Add(box("a", 0, 0)) // center (5,5)

	assert.True(t, s.TooClose(geometry.Point{X: 5, Y: 60}, 60))
	assert.False(t, s.TooClose(geometry.Point{X: 5, Y: 65}, 60))
	assert.False(t, s.TooClose(geometry.Point{X: 5, Y: 5}, 0))
}

func TestSetBounds(t *testing.T) {
	s := NewSet(-1)
	_, ok := s.Bounds()
	assert.False(t, ok)

	s.Add(box("a", -10, 5))
	s.Add(box("b", 30, -20))

	b, ok := s.Bounds()
	require.True(t, ok)
	assert.Equal(t, geometry.Point{X: -10, Y: -20}, b.Min)
	assert.Equal(t, geometry.Point{X: 40, Y: 15}, b.Max())
}
