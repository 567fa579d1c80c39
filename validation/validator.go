// Package validation re-checks a laid-out diagram for overlaps after the fact.
package validation

import (
	"fmt"

	"erd/diagram"
	"erd/geometry"
	"erd/layout"
)

// Severity grades an Issue.
type Severity int

const (
	SeverityWarning Severity = iota // Best-effort placements the engine is allowed to leave behind
	SeverityError                   // Broken layout guarantees
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// IssueKind names the kind of problem found.
type IssueKind string

const (
	EntityOverlap     IssueKind = "entity-overlap"
	MarkerOverlap     IssueKind = "marker-overlap"
	AttributeOverlap  IssueKind = "attribute-overlap"
	NonFinitePosition IssueKind = "non-finite-position"
	DanglingReference IssueKind = "dangling-reference"
	HiddenHeader      IssueKind = "hidden-header"
)

// Issue is one problem with a laid-out diagram. B is empty for issues that
// involve a single node.
type Issue struct {
	Kind     IssueKind
	Severity Severity
	A, B     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s: %s", i.Severity, i.Kind, i.Message)
}

// LayoutValidator checks positions against the engine's collision rules.
type LayoutValidator struct {
	cfg        layout.Config
	strictMode bool // Treat best-effort overlaps as errors
	issues     []Issue
}

// NewLayoutValidator creates a validator using the sizes and buffers of cfg.
func NewLayoutValidator(cfg layout.Config) *LayoutValidator {
	return &LayoutValidator{cfg: cfg}
}

// SetStrictMode enables or disables strict validation.
func (v *LayoutValidator) SetStrictMode(strict bool) {
	v.strictMode = strict
}

// Validate returns every issue found in d. Entities are compared with their
// padded rectangles. Markers and attributes are compared with every node
// placed before them. In the table view tables may overlap, but no table
// may cover the header of one drawn before it.
func (v *LayoutValidator) Validate(d *diagram.Diagram) []Issue {
	v.issues = nil
	if d == nil {
		return nil
	}

	entities := v.nodesFor(d)
	if d.View == diagram.ViewTable {
		v.checkTables(entities)
		return v.issues
	}
	v.checkEntities(entities)
	v.checkMarkers(d, entities)
	if d.AttributeCount() > 0 {
		v.checkAttributes(d, entities)
	}

	return v.issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (v *LayoutValidator) nodesFor(d *diagram.Diagram) []diagram.Node {
	kind := diagram.KindEntity
	if d.View == diagram.ViewTable {
		kind = diagram.KindTable
	}

	nodes := make([]diagram.Node, 0, len(d.Entities))
	for _, ent := range d.Entities {
		if !ent.Position.IsFinite() {
			v.addIssue(NonFinitePosition, SeverityError, ent.ID, "",
				"entity %s has a non-finite position", ent.ID)
			continue
		}
		nodes = append(nodes, diagram.Node{ID: ent.ID, Kind: kind, Position: ent.Position, Size: v.cfg.EntitySize})
	}
	return nodes
}

func (v *LayoutValidator) checkEntities(nodes []diagram.Node) {
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			if geometry.RectsOverlap(nodes[i].Rect(), nodes[j].Rect(), v.cfg.Entity.Spacing) {
				v.addIssue(EntityOverlap, SeverityError, nodes[i].ID, nodes[j].ID,
					"entities %s and %s are closer than %.0f", nodes[i].ID, nodes[j].ID, 2*v.cfg.Entity.Spacing)
			}
		}
	}
}

// checkTables reports tables drawn over the header strip of an earlier table.
func (v *LayoutValidator) checkTables(nodes []diagram.Node) {
	header := geometry.Size{Width: v.cfg.EntitySize.Width, Height: v.cfg.Stack.HeaderHeight}
	for i := 0; i < len(nodes); i++ {
		strip := geometry.RectAt(nodes[i].Position, header)
		for j := i + 1; j < len(nodes); j++ {
			if geometry.RectsOverlap(strip, nodes[j].Rect(), 0) {
				v.addIssue(HiddenHeader, SeverityError, nodes[j].ID, nodes[i].ID,
					"%s %s covers the header of %s", nodes[j].Kind, nodes[j].ID, nodes[i].ID)
			}
		}
	}
}

func (v *LayoutValidator) checkMarkers(d *diagram.Diagram, entities []diagram.Node) {
	known := make(map[string]bool, len(d.Entities))
	for _, ent := range d.Entities {
		known[ent.ID] = true
	}

	placed := append([]diagram.Node(nil), entities...)
	for _, r := range d.Relationships {
		if !known[r.FromEntityID] || !known[r.ToEntityID] {
			v.addIssue(DanglingReference, SeverityWarning, r.ID, "",
				"relationship %s references a missing entity", r.ID)
			continue
		}
		if !r.Position.IsFinite() {
			v.addIssue(NonFinitePosition, SeverityError, r.ID, "",
				"relationship %s has a non-finite marker position", r.ID)
			continue
		}

		m := diagram.Node{ID: r.ID, Kind: diagram.KindMarker, Position: r.Position, Size: v.cfg.MarkerSize}
		for _, other := range placed {
			if geometry.RectsOverlap(m.Rect(), other.Rect(), v.cfg.Marker.Spacing) {
				v.addIssue(MarkerOverlap, v.bestEffort(), r.ID, other.ID,
					"marker %s overlaps %s %s", r.ID, other.Kind, other.ID)
			}
		}
		placed = append(placed, m)
	}
}

func (v *LayoutValidator) checkAttributes(d *diagram.Diagram, entities []diagram.Node) {
	placed := append([]diagram.Node(nil), entities...)
	for _, ent := range d.Entities {
		for _, a := range ent.Attributes {
			if !a.Position.IsFinite() {
				v.addIssue(NonFinitePosition, SeverityError, a.ID, "",
					"attribute %s has a non-finite position", a.ID)
				continue
			}

			n := diagram.Node{ID: a.ID, Kind: diagram.KindAttribute, Position: a.Position, Size: v.cfg.AttributeSize}
			for _, other := range placed {
				if geometry.RectsOverlap(n.Rect(), other.Rect(), v.cfg.Attribute.Buffer) {
					v.addIssue(AttributeOverlap, v.bestEffort(), a.ID, other.ID,
						"attribute %s overlaps %s %s", a.ID, other.Kind, other.ID)
				}
			}
			placed = append(placed, n)
		}
	}
}

func (v *LayoutValidator) bestEffort() Severity {
	if v.strictMode {
		return SeverityError
	}
	return SeverityWarning
}

func (v *LayoutValidator) addIssue(kind IssueKind, sev Severity, a, b, format string, args ...any) {
	v.issues = append(v.issues, Issue{
		Kind:     kind,
		Severity: sev,
		A:        a,
		B:        b,
		Message:  fmt.Sprintf(format, args...),
	})
}
