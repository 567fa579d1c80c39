package layout

import (
	"go.uber.org/zap"

	"erd/diagram"
	"erd/geometry"
)

// PositionStore is the exact pre-expansion snapshot of entity, relationship
// marker and attribute positions.
type PositionStore struct {
	Entities      Positions `json:"entities"`
	Relationships Positions `json:"relationships"`
	Attributes    Positions `json:"attributes,omitempty"`
}

// Empty reports whether the store holds nothing to restore.
func (s PositionStore) Empty() bool {
	return len(s.Entities) == 0 && len(s.Relationships) == 0 && len(s.Attributes) == 0
}

// ComputeExpansionFactor derives the scale used to make room for attributes.
// Entities without attributes are left out of the average.
func (e *Engine) ComputeExpansionFactor(entities []diagram.Entity) float64 {
	xc := e.cfg.Expansion
	withAttrs, attrs := 0, 0
	for _, ent := range entities {
		if n := len(ent.Attributes); n > 0 {
			withAttrs++
			attrs += n
		}
	}
	if withAttrs == 0 {
		return xc.Base
	}

	avg := float64(attrs) / float64(withAttrs)
	return min(xc.Base+xc.PerAttribute*avg, xc.Max)
}

// Expand scales every entity and relationship position about pivot. A factor
// of exactly 1, or a non-finite factor or pivot, returns the input slices
// themselves. Otherwise the returned slices are fresh copies.
func Expand(entities []diagram.Entity, relationships []diagram.Relationship, factor float64, pivot geometry.Point) ([]diagram.Entity, []diagram.Relationship) {
	if factor == 1 || !geometry.IsFinite(factor) || !pivot.IsFinite() {
		return entities, relationships
	}

	scale := func(p geometry.Point) geometry.Point {
		return pivot.Add(p.Sub(pivot).Scale(factor))
	}

	outE := make([]diagram.Entity, len(entities))
	copy(outE, entities)
	for i := range outE {
		outE[i].Position = scale(outE[i].Position)
	}

	outR := make([]diagram.Relationship, len(relationships))
	copy(outR, relationships)
	for i := range outR {
		outR[i].Position = scale(outR[i].Position)
	}

	return outE, outR
}

// Snapshot records the current positions of entities, their attributes and
// relationships.
func Snapshot(entities []diagram.Entity, relationships []diagram.Relationship) PositionStore {
	s := PositionStore{
		Entities:      make(Positions, len(entities)),
		Relationships: make(Positions, len(relationships)),
		Attributes:    make(Positions),
	}
	for _, ent := range entities {
		s.Entities[ent.ID] = ent.Position
		for _, a := range ent.Attributes {
			s.Attributes[a.ID] = a.Position
		}
	}
	for _, r := range relationships {
		s.Relationships[r.ID] = r.Position
	}
	return s
}

// Restore writes the stored positions back onto copies of the inputs. Ids
// absent from the store keep their current position.
func Restore(entities []diagram.Entity, relationships []diagram.Relationship, store PositionStore) ([]diagram.Entity, []diagram.Relationship) {
	outE := make([]diagram.Entity, len(entities))
	copy(outE, entities)
	for i := range outE {
		if p, ok := store.Entities[outE[i].ID]; ok {
			outE[i].Position = p
		}
		if len(store.Attributes) == 0 || len(outE[i].Attributes) == 0 {
			continue
		}
		attrs := make([]diagram.Attribute, len(outE[i].Attributes))
		copy(attrs, outE[i].Attributes)
		for j := range attrs {
			if p, ok := store.Attributes[attrs[j].ID]; ok {
				attrs[j].Position = p
			}
		}
		outE[i].Attributes = attrs
	}

	outR := make([]diagram.Relationship, len(relationships))
	copy(outR, relationships)
	for i := range outR {
		if p, ok := store.Relationships[outR[i].ID]; ok {
			outR[i].Position = p
		}
	}

	return outE, outR
}

// ShowAttributes makes room for attributes and lays them out. It returns the
// updated diagram together with the snapshot HideAttributes needs to undo
// the expansion.
func (e *Engine) ShowAttributes(d *diagram.Diagram, pivot geometry.Point) (*diagram.Diagram, PositionStore) {
	pivot = sanitizeCenter(pivot)
	store := Snapshot(d.Entities, d.Relationships)

	factor := e.ComputeExpansionFactor(d.Entities)
	entities, relationships := Expand(d.Entities, d.Relationships, factor, pivot)
	attrs := e.LayoutAttributes(entities, factor, pivot)

	e.logger.Debug("attributes shown",
		zap.Float64("factor", factor),
		zap.Int("attributes", len(attrs)))

	expanded := *d
	expanded.Entities, expanded.Relationships = entities, relationships
	out := expanded.Clone()
	for i := range out.Entities {
		for j := range out.Entities[i].Attributes {
			if p, ok := attrs[out.Entities[i].Attributes[j].ID]; ok {
				out.Entities[i].Attributes[j].Position = p
			}
		}
	}
	return out, store
}

// HideAttributes restores the entity, marker and attribute positions captured
// by ShowAttributes.
func (e *Engine) HideAttributes(d *diagram.Diagram, store PositionStore) *diagram.Diagram {
	out := d.Clone()
	out.Entities, out.Relationships = Restore(out.Entities, out.Relationships, store)
	return out
}
