package layout

import (
	"time"

	"go.uber.org/zap"

	"erd/diagram"
	"erd/geometry"
	"erd/obstacles"
)

// AttributeAngle returns the angle in degrees of attribute i out of n around
// its entity. 0 points right and 90 points down.
func AttributeAngle(i, n int) float64 {
	switch {
	case n <= 1:
		return 90
	case n == 2:
		return 60 + 60*float64(i)
	case n == 3:
		return 120 * float64(i)
	case n == 4:
		return 45 + 90*float64(i)
	default:
		return -90 + 360*float64(i)/float64(n)
	}
}

// AttributeRadius returns the ring radius for an entity with n attributes.
func (e *Engine) AttributeRadius(n int, expansionFactor float64) float64 {
	ac := e.cfg.Attribute
	n = max(n, 0)
	r := geometry.Clamp(ac.BaseRadius+float64(n)*ac.RadiusIncrement, ac.MinRadius, ac.MaxRadius)
	return r * sanitizeFactor(expansionFactor)
}

// LayoutAttributes places the attributes of every entity on a ring around it.
// Entities and their attributes are processed in input order against one
// shared committed set, so later attributes steer around earlier ones. An
// attribute with a custom position keeps it.
func (e *Engine) LayoutAttributes(entities []diagram.Entity, expansionFactor float64, center geometry.Point) Positions {
	defer e.observe(StrategyAttributes, time.Now())

	center = sanitizeCenter(center)
	factor := sanitizeFactor(expansionFactor)

	total := 0
	for _, ent := range entities {
		total += len(ent.Attributes)
	}
	result := make(Positions, total)
	committed := obstacles.NewSet(len(entities) + total)

	nodes := make([]diagram.Node, len(entities))
	for i, ent := range entities {
		nodes[i] = e.entityNode(ent, center)
		committed.Add(nodes[i])
	}

	for i, ent := range entities {
		n := len(ent.Attributes)
		if n == 0 {
			continue
		}
		ec := nodes[i].Center()
		radius := e.AttributeRadius(n, factor)

		for j, attr := range ent.Attributes {
			pos, ok := attr.CustomPosition()
			if !ok || !pos.IsFinite() {
				desired := geometry.Polar(ec, radius, AttributeAngle(j, n))
				pos = e.nudgeAttribute(committed, attr.ID, desired).Sub(e.cfg.AttributeSize.Half())
			}
			committed.Add(diagram.Node{ID: attr.ID, Kind: diagram.KindAttribute, Position: pos, Size: e.cfg.AttributeSize})
			result[attr.ID] = pos
		}
	}

	return result
}

// nudgeAttribute returns desired when it is clear, else the first clear point
// on a ring spiral around it, else desired unchanged.
func (e *Engine) nudgeAttribute(committed *obstacles.Set, id string, desired geometry.Point) geometry.Point {
	if e.attributeClear(committed, desired) {
		return desired
	}

	ac := e.cfg.Attribute
	steps := ac.SpiralStepsPerRing * ac.SpiralRings
	for k := 0; k < steps; k++ {
		ring := k/ac.SpiralStepsPerRing + 1
		angle := float64(k%ac.SpiralStepsPerRing) * ac.SpiralAngleStep
		c := geometry.Polar(desired, float64(ring)*ac.SpiralRadiusStep, angle)
		if e.attributeClear(committed, c) {
			return c
		}
	}

	e.recorder.CountFallback(FallbackAttributeOverlap)
	e.logger.Debug("attribute kept at overlapping position", zap.String("attribute", id))
	return desired
}

func (e *Engine) attributeClear(committed *obstacles.Set, c geometry.Point) bool {
	ac := e.cfg.Attribute
	if committed.Overlaps(geometry.RectAround(c, e.cfg.AttributeSize), ac.Buffer) {
		return false
	}
	return !committed.TooClose(c, ac.MinDistance)
}

// sanitizeFactor replaces a non-finite or non-positive scale with 1.
func sanitizeFactor(f float64) float64 {
	if !geometry.IsFinite(f) || f <= 0 {
		return 1
	}
	return f
}
