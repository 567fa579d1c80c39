package layout

import (
	"time"

	"go.uber.org/zap"

	"erd/diagram"
	"erd/geometry"
	"erd/obstacles"
)

// PlaceMarkers positions each relationship marker at the midpoint of its two
// entities, nudging it along the perpendicular of the entity axis when the
// midpoint collides. Relationships are handled in input order, so an earlier
// marker is never displaced by a later one. Relationships referencing an
// unknown entity are skipped.
func (e *Engine) PlaceMarkers(entities []diagram.Entity, relationships []diagram.Relationship, center geometry.Point) Positions {
	defer e.observe(StrategyMarkers, time.Now())

	result := make(Positions, len(relationships))
	center = sanitizeCenter(center)

	centers := make(map[string]geometry.Point, len(entities))
	set := obstacles.NewSet(len(entities) + len(relationships))
	for _, ent := range entities {
		if _, dup := centers[ent.ID]; dup {
			continue
		}
		n := e.entityNode(ent, center)
		set.Add(n)
		centers[ent.ID] = n.Center()
	}

	for _, r := range relationships {
		a, okA := centers[r.FromEntityID]
		b, okB := centers[r.ToEntityID]
		if !okA || !okB {
			e.logger.Debug("skipping relationship with missing endpoint",
				zap.String("relationship", r.ID),
				zap.String("from", r.FromEntityID),
				zap.String("to", r.ToEntityID))
			continue
		}

		var mc geometry.Point
		if r.IsSelfReferencing() {
			mc = a.Add(e.cfg.Marker.SelfLoopOffset)
		} else {
			mc = e.markerCenter(set, r.ID, a, b)
		}

		pos := mc.Sub(e.cfg.MarkerSize.Half())
		set.Add(diagram.Node{ID: r.ID, Kind: diagram.KindMarker, Position: pos, Size: e.cfg.MarkerSize})
		result[r.ID] = pos
	}

	return result
}

// markerCenter walks the offset ladder for one relationship between centers a and b.
func (e *Engine) markerCenter(set *obstacles.Set, id string, a, b geometry.Point) geometry.Point {
	mid := geometry.Midpoint(a, b)
	if e.markerClear(set, mid) {
		return mid
	}

	perp := geometry.Perpendicular(geometry.Normalize(b.Sub(a), geometry.Point{X: 1}))
	for _, off := range e.cfg.Marker.Offsets {
		for _, sign := range [2]float64{1, -1} {
			c := mid.Add(perp.Scale(sign * off))
			if e.markerClear(set, c) {
				e.logger.Debug("marker offset from midpoint",
					zap.String("relationship", id),
					zap.Float64("offset", sign*off))
				return c
			}
		}
	}

	e.recorder.CountFallback(FallbackMarkerOverlap)
	e.logger.Warn("marker left at overlapping midpoint", zap.String("relationship", id))
	return mid
}

func (e *Engine) markerClear(set *obstacles.Set, c geometry.Point) bool {
	return !set.Overlaps(geometry.RectAround(c, e.cfg.MarkerSize), e.cfg.Marker.Spacing)
}
