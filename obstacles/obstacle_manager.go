// Package obstacles tracks the boxes already committed during one layout pass
package obstacles

import (
	"math"

	"erd/diagram"
	"erd/geometry"
)

// Set is the collision accumulator owned by a single layout call. It is not
// safe for concurrent use and is never shared between calls.
type Set struct {
	nodes []diagram.Node
}

// NewSet creates an empty set with room for capacity nodes.
func NewSet(capacity int) *Set {
	if capacity < 0 {
		capacity = 0
	}
	return &Set{nodes: make([]diagram.Node, 0, capacity)}
}

// Add commits a node.
func (s *Set) Add(n diagram.Node) {
	s.nodes = append(s.nodes, n)
}

// Len returns the number of committed nodes.
func (s *Set) Len() int {
	return len(s.nodes)
}

// Overlaps reports whether r, padded by buffer, intersects any committed node
// padded by the same buffer.
func (s *Set) Overlaps(r geometry.Rect, buffer float64) bool {
	_, hit := s.FirstOverlap(r, buffer)
	return hit
}

// FirstOverlap returns the earliest committed node colliding with r.
func (s *Set) FirstOverlap(r geometry.Rect, buffer float64) (diagram.Node, bool) {
	for _, n := range s.nodes {
		if geometry.RectsOverlap(r, n.Rect(), buffer) {
			return n, true
		}
	}
	return diagram.Node{}, false
}

// TooClose reports whether any committed node's center lies strictly closer
// than minDist to c.
func (s *Set) TooClose(c geometry.Point, minDist float64) bool {
	if minDist <= 0 {
		return false
	}
	for _, n := range s.nodes {
		if geometry.Distance(c, n.Center()) < minDist {
			return true
		}
	}
	return false
}

// Bounds returns the rectangle enclosing every committed node.
func (s *Set) Bounds() (geometry.Rect, bool) {
	if len(s.nodes) == 0 {
		return geometry.Rect{}, false
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range s.nodes {
		r := n.Rect()
		rMax := r.Max()
		minX = math.Min(minX, r.Min.X)
		minY = math.Min(minY, r.Min.Y)
		maxX = math.Max(maxX, rMax.X)
		maxY = math.Max(maxY, rMax.Y)
	}

	return geometry.Rect{
		Min:  geometry.Point{X: minX, Y: minY},
		Size: geometry.Size{Width: maxX - minX, Height: maxY - minY},
	}, true
}
