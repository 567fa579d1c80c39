// Package preview draws laid-out diagrams on a terminal screen.
package preview

import (
	"math"

	"erd/diagram"
	"erd/geometry"
	"erd/layout"
	"erd/obstacles"
)

// cellAspect is how many times taller a terminal cell is than it is wide.
const cellAspect = 2

const minScale = 0.25

// Viewport maps world coordinates to screen cells.
type Viewport struct {
	// Origin is the world point drawn at cell (0,0).
	Origin geometry.Point
	// Scale is the number of world units per column.
	Scale float64
}

// ToCell returns the cell containing world point p.
func (v Viewport) ToCell(p geometry.Point) (col, row int) {
	col = int(math.Floor((p.X - v.Origin.X) / v.Scale))
	row = int(math.Floor((p.Y - v.Origin.Y) / (v.Scale * cellAspect)))
	return col, row
}

// Pan moves the viewport by whole cells.
func (v Viewport) Pan(cols, rows int) Viewport {
	v.Origin.X += float64(cols) * v.Scale
	v.Origin.Y += float64(rows) * v.Scale * cellAspect
	return v
}

// Zoom multiplies the scale by f, keeping the middle of a cols×rows screen
// fixed. f below 1 zooms in.
func (v Viewport) Zoom(f float64, cols, rows int) Viewport {
	if f <= 0 || !geometry.IsFinite(f) {
		return v
	}
	mid := v.Origin.Add(v.extent(cols, rows).Half())
	v.Scale = math.Max(v.Scale*f, minScale)
	v.Origin = mid.Sub(v.extent(cols, rows).Half())
	return v
}

func (v Viewport) extent(cols, rows int) geometry.Size {
	return geometry.Size{
		Width:  float64(cols) * v.Scale,
		Height: float64(rows) * v.Scale * cellAspect,
	}
}

// Fit returns the viewport that shows all of bounds centered on a
// cols×rows screen.
func Fit(bounds geometry.Rect, cols, rows int) Viewport {
	if cols < 2 || rows < 2 {
		return Viewport{Origin: bounds.Min, Scale: 1}
	}

	sx := bounds.Size.Width / float64(cols-1)
	sy := bounds.Size.Height / (float64(rows-1) * cellAspect)
	v := Viewport{Scale: math.Max(math.Max(sx, sy), minScale)}
	v.Origin = bounds.Center().Sub(v.extent(cols, rows).Half())
	return v
}

// Bounds returns the world rectangle enclosing the entities and markers of d,
// plus its attributes when withAttributes is set. Nodes with non-finite
// positions are ignored.
func Bounds(d *diagram.Diagram, cfg layout.Config, withAttributes bool) geometry.Rect {
	set := obstacles.NewSet(len(d.Entities) + len(d.Relationships) + d.AttributeCount())
	add := func(n diagram.Node) {
		if n.Position.IsFinite() {
			set.Add(n)
		}
	}
	for _, e := range d.Entities {
		add(diagram.Node{ID: e.ID, Kind: diagram.KindEntity, Position: e.Position, Size: cfg.EntitySize})
		if !withAttributes {
			continue
		}
		for _, a := range e.Attributes {
			add(diagram.Node{ID: a.ID, Kind: diagram.KindAttribute, Position: a.Position, Size: cfg.AttributeSize})
		}
	}
	for _, r := range d.Relationships {
		add(diagram.Node{ID: r.ID, Kind: diagram.KindMarker, Position: r.Position, Size: cfg.MarkerSize})
	}

	if b, ok := set.Bounds(); ok {
		return b
	}
	return geometry.RectAt(geometry.Point{}, cfg.EntitySize)
}
