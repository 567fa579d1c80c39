package layout

import (
	"time"

	"erd/diagram"
	"erd/geometry"
)

// StackTables cascades tables diagonally down from a start point offset from
// the viewport center. Each table sits one header height below the previous
// one so every header stays clickable. There is no collision search.
func (e *Engine) StackTables(entities []diagram.Entity, center geometry.Point) Positions {
	defer e.observe(StrategyStack, time.Now())

	center = sanitizeCenter(center)
	sc := e.cfg.Stack
	start := center.Add(geometry.Point{X: sc.OffsetX, Y: sc.OffsetY})

	result := make(Positions, len(entities))
	i := 0
	for _, ent := range entities {
		if _, dup := result[ent.ID]; dup {
			continue
		}
		result[ent.ID] = geometry.Point{
			X: start.X + float64(i)*sc.HorizontalOffset,
			Y: start.Y + float64(i)*sc.HeaderHeight,
		}
		i++
	}
	return result
}
