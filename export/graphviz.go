package export

import (
	"fmt"
	"strconv"
	"strings"

	"erd/diagram"
	"erd/geometry"
	"erd/layout"
)

// pointsPerInch converts world units, treated as points, to Graphviz inches.
const pointsPerInch = 72.0

// GraphvizExporter exports diagrams to Graphviz DOT with every node pinned at
// its laid-out center. Graphviz's y axis points up, so y is negated.
type GraphvizExporter struct {
	EntitySize    geometry.Size
	MarkerSize    geometry.Size
	AttributeSize geometry.Size
	// IncludeAttributes emits attribute nodes and their links
	IncludeAttributes bool
}

// NewGraphvizExporter creates a new Graphviz exporter with the default node sizes
func NewGraphvizExporter() *GraphvizExporter {
	cfg := layout.DefaultConfig()
	return &GraphvizExporter{
		EntitySize:    cfg.EntitySize,
		MarkerSize:    cfg.MarkerSize,
		AttributeSize: cfg.AttributeSize,
	}
}

// Export converts the diagram to Graphviz DOT syntax
func (e *GraphvizExporter) Export(d *diagram.Diagram) (string, error) {
	if d == nil {
		return "", fmt.Errorf("diagram is nil")
	}
	if len(d.Entities) == 0 {
		return "", fmt.Errorf("diagram has no entities")
	}

	var sb strings.Builder
	sb.WriteString("graph erd {\n")
	sb.WriteString("  layout=neato;\n")
	sb.WriteString("  overlap=true;\n")
	sb.WriteString("  splines=line;\n")
	sb.WriteString("  node [fixedsize=true];\n\n")

	known := make(map[string]bool, len(d.Entities))
	for _, ent := range d.Entities {
		known[ent.ID] = true
		fmt.Fprintf(&sb, "  %s [shape=box, label=%s, %s];\n",
			quoteID(ent.ID), quoteID(entityLabel(ent)), e.geometryAttrs(ent.Position, e.EntitySize))
	}

	if e.IncludeAttributes {
		for _, ent := range d.Entities {
			for _, a := range ent.Attributes {
				style := ""
				if a.Key {
					style = ", style=bold"
				}
				fmt.Fprintf(&sb, "  %s [shape=ellipse, label=%s, %s%s];\n",
					quoteID(a.ID), quoteID(a.Name), e.geometryAttrs(a.Position, e.AttributeSize), style)
				fmt.Fprintf(&sb, "  %s -- %s [style=dashed];\n", quoteID(ent.ID), quoteID(a.ID))
			}
		}
	}

	if len(d.Relationships) > 0 {
		sb.WriteString("\n")
	}
	for _, r := range d.Relationships {
		if !known[r.FromEntityID] || !known[r.ToEntityID] {
			continue
		}
		label := r.Name
		if r.Cardinality != "" {
			label = strings.TrimSpace(label + " " + r.Cardinality)
		}
		fmt.Fprintf(&sb, "  %s [shape=diamond, label=%s, %s];\n",
			quoteID(r.ID), quoteID(label), e.geometryAttrs(r.Position, e.MarkerSize))
		fmt.Fprintf(&sb, "  %s -- %s;\n", quoteID(r.FromEntityID), quoteID(r.ID))
		fmt.Fprintf(&sb, "  %s -- %s;\n", quoteID(r.ID), quoteID(r.ToEntityID))
	}

	sb.WriteString("}\n")
	return sb.String(), nil
}

// geometryAttrs pins a node of the given size whose top-left is p.
func (e *GraphvizExporter) geometryAttrs(p geometry.Point, s geometry.Size) string {
	c := geometry.RectAt(p, s).Center()
	y := -c.Y
	if y == 0 {
		y = 0 // avoid "-0"
	}
	return fmt.Sprintf(`pos="%s,%s!", width=%s, height=%s`,
		formatFloat(c.X), formatFloat(y),
		formatFloat(s.Width/pointsPerInch), formatFloat(s.Height/pointsPerInch))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// quoteID returns a DOT double-quoted identifier
func quoteID(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// GetFileExtension returns the file extension for Graphviz files
func (e *GraphvizExporter) GetFileExtension() string {
	return ".dot"
}

// GetFormatName returns the format name
func (e *GraphvizExporter) GetFormatName() string {
	return "Graphviz"
}
