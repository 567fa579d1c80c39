// Package diagram contains the entity-relationship model consumed by the layout engine.
package diagram

import "erd/geometry"

// NodeKind identifies what a Node stands for on the canvas.
type NodeKind int

const (
	KindEntity NodeKind = iota
	KindMarker
	KindAttribute
	KindTable
)

// String returns the string representation of a NodeKind.
func (k NodeKind) String() string {
	switch k {
	case KindEntity:
		return "entity"
	case KindMarker:
		return "marker"
	case KindAttribute:
		return "attribute"
	case KindTable:
		return "table"
	default:
		return "unknown"
	}
}

// Node is the single box abstraction every collision routine works on.
// Position is always the top-left corner.
type Node struct {
	ID       string
	Kind     NodeKind
	Position geometry.Point
	Size     geometry.Size
}

// Rect returns the node's bounding rectangle.
func (n Node) Rect() geometry.Rect {
	return geometry.RectAt(n.Position, n.Size)
}

// Center returns the center point of the node.
func (n Node) Center() geometry.Point {
	return n.Rect().Center()
}

// Attribute is a column of an entity, drawn as a satellite node around it.
type Attribute struct {
	ID       string         `json:"id" yaml:"id"`
	Name     string         `json:"name" yaml:"name"`
	Type     string         `json:"type,omitempty" yaml:"type,omitempty"`
	Key      bool           `json:"key,omitempty" yaml:"key,omitempty"`
	EntityID string         `json:"entityId,omitempty" yaml:"entityId,omitempty"`
	Position geometry.Point `json:"position" yaml:"position"`

	// CustomX and CustomY hold a user-chosen position. When both are set the
	// layout engine uses them verbatim until ClearCustomPosition is called.
	CustomX *float64 `json:"customX,omitempty" yaml:"customX,omitempty"`
	CustomY *float64 `json:"customY,omitempty" yaml:"customY,omitempty"`
}

// CustomPosition returns the stored custom position, if any.
func (a Attribute) CustomPosition() (geometry.Point, bool) {
	if a.CustomX == nil || a.CustomY == nil {
		return geometry.Point{}, false
	}
	return geometry.Point{X: *a.CustomX, Y: *a.CustomY}, true
}

// SetCustomPosition pins the attribute at p.
func (a *Attribute) SetCustomPosition(p geometry.Point) {
	x, y := p.X, p.Y
	a.CustomX = &x
	a.CustomY = &y
}

// ClearCustomPosition hands the attribute back to automatic layout.
func (a *Attribute) ClearCustomPosition() {
	a.CustomX = nil
	a.CustomY = nil
}

// Entity is a table/record-type node on the ER canvas.
type Entity struct {
	ID         string         `json:"id" yaml:"id"`
	Name       string         `json:"name" yaml:"name"`
	Position   geometry.Point `json:"position" yaml:"position"`
	Attributes []Attribute    `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Relationship is an edge between two entities with a marker between them.
type Relationship struct {
	ID           string         `json:"id" yaml:"id"`
	Name         string         `json:"name,omitempty" yaml:"name,omitempty"`
	FromEntityID string         `json:"fromEntityId" yaml:"fromEntityId"`
	ToEntityID   string         `json:"toEntityId" yaml:"toEntityId"`
	Cardinality  string         `json:"cardinality,omitempty" yaml:"cardinality,omitempty"` // 1:1, 1:N, N:1, N:M
	Position     geometry.Point `json:"position" yaml:"position"`
}

// IsSelfReferencing reports whether both ends name the same entity.
func (r Relationship) IsSelfReferencing() bool {
	return r.FromEntityID == r.ToEntityID
}

// ViewMode selects which of the two editing views a diagram is shown in.
type ViewMode string

const (
	ViewER    ViewMode = ""      // Default/empty is the entity-relationship view
	ViewTable ViewMode = "table" // Cascaded table editing view
)

// Diagram is a complete ER document.
type Diagram struct {
	View          ViewMode       `json:"view,omitempty" yaml:"view,omitempty"`
	Entities      []Entity       `json:"entities" yaml:"entities"`
	Relationships []Relationship `json:"relationships" yaml:"relationships"`
	Metadata      Metadata       `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Metadata contains optional diagram metadata.
type Metadata struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Created string `json:"created,omitempty" yaml:"created,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// AttributeCount returns the total number of attributes in the diagram.
func (d *Diagram) AttributeCount() int {
	n := 0
	for _, e := range d.Entities {
		n += len(e.Attributes)
	}
	return n
}

// Clone creates a deep copy of the diagram.
func (d *Diagram) Clone() *Diagram {
	if d == nil {
		return nil
	}

	clone := &Diagram{
		View:          d.View,
		Entities:      make([]Entity, len(d.Entities)),
		Relationships: make([]Relationship, len(d.Relationships)),
		Metadata:      d.Metadata,
	}

	for i, e := range d.Entities {
		clone.Entities[i] = e
		if e.Attributes != nil {
			clone.Entities[i].Attributes = make([]Attribute, len(e.Attributes))
			for j, a := range e.Attributes {
				clone.Entities[i].Attributes[j] = cloneAttribute(a)
			}
		}
	}
	copy(clone.Relationships, d.Relationships)

	return clone
}

func cloneAttribute(a Attribute) Attribute {
	if a.CustomX != nil {
		x := *a.CustomX
		a.CustomX = &x
	}
	if a.CustomY != nil {
		y := *a.CustomY
		a.CustomY = &y
	}
	return a
}
