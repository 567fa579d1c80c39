package export

import (
	"fmt"
	"strconv"
	"strings"

	"erd/diagram"
)

// PositionDirective prefixes the comment lines that carry entity positions
// through a Mermaid document. The importer reads them back.
const PositionDirective = "%% erd:pos"

// MermaidExporter exports diagrams to Mermaid erDiagram syntax
type MermaidExporter struct {
	// IncludePositions writes a position comment per entity
	IncludePositions bool
}

// NewMermaidExporter creates a new Mermaid exporter
func NewMermaidExporter() *MermaidExporter {
	return &MermaidExporter{IncludePositions: true}
}

// Export converts the diagram to Mermaid erDiagram syntax
func (e *MermaidExporter) Export(d *diagram.Diagram) (string, error) {
	if d == nil {
		return "", fmt.Errorf("diagram is nil")
	}

	names := e.entityNames(d.Entities)

	var sb strings.Builder
	sb.WriteString("erDiagram\n")

	for _, r := range d.Relationships {
		from, okFrom := names[r.FromEntityID]
		to, okTo := names[r.ToEntityID]
		if !okFrom || !okTo {
			continue
		}
		fmt.Fprintf(&sb, "    %s %s %s : %s\n", from, CardinalityToMermaid(r.Cardinality), to, e.relationshipLabel(r))
	}

	for _, ent := range d.Entities {
		name := names[ent.ID]
		if len(ent.Attributes) == 0 {
			fmt.Fprintf(&sb, "    %s {\n    }\n", name)
			continue
		}
		fmt.Fprintf(&sb, "    %s {\n", name)
		for _, a := range ent.Attributes {
			typ := a.Type
			if typ == "" {
				typ = "string"
			}
			line := fmt.Sprintf("        %s %s", sanitizeIdentifier(typ), sanitizeIdentifier(a.Name))
			if a.Key {
				line += " PK"
			}
			sb.WriteString(line + "\n")
		}
		sb.WriteString("    }\n")
	}

	if e.IncludePositions {
		for _, ent := range d.Entities {
			fmt.Fprintf(&sb, "%s %s %s %s\n", PositionDirective, names[ent.ID],
				strconv.FormatFloat(ent.Position.X, 'g', -1, 64),
				strconv.FormatFloat(ent.Position.Y, 'g', -1, 64))
		}
	}

	return sb.String(), nil
}

// entityNames assigns every entity a unique Mermaid identifier.
func (e *MermaidExporter) entityNames(entities []diagram.Entity) map[string]string {
	names := make(map[string]string, len(entities))
	used := make(map[string]bool, len(entities))
	for _, ent := range entities {
		if _, dup := names[ent.ID]; dup {
			continue
		}
		name := sanitizeIdentifier(entityLabel(ent))
		if used[name] {
			name = name + "_" + sanitizeIdentifier(ent.ID)
		}
		for used[name] {
			name += "_"
		}
		used[name] = true
		names[ent.ID] = name
	}
	return names
}

func (e *MermaidExporter) relationshipLabel(r diagram.Relationship) string {
	label := r.Name
	if label == "" {
		label = "relates"
	}
	if strings.ContainsAny(label, " \t\"") {
		return `"` + strings.ReplaceAll(label, `"`, `'`) + `"`
	}
	return label
}

// CardinalityToMermaid maps a cardinality such as "1:N" to Mermaid crow's
// foot notation. Unknown values are drawn as one-to-many.
func CardinalityToMermaid(c string) string {
	switch strings.ToUpper(strings.TrimSpace(c)) {
	case "1:1":
		return "||--||"
	case "N:1", "M:1":
		return "}o--||"
	case "N:M", "M:N", "N:N":
		return "}o--o{"
	default:
		return "||--o{"
	}
}

// sanitizeIdentifier replaces characters Mermaid does not accept in names.
func sanitizeIdentifier(s string) string {
	if s == "" {
		return "_"
	}
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

// GetFileExtension returns the file extension for Mermaid files
func (e *MermaidExporter) GetFileExtension() string {
	return ".mmd"
}

// GetFormatName returns the format name
func (e *MermaidExporter) GetFormatName() string {
	return "Mermaid"
}
