package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"erd/diagram"
	"erd/export"
	"erd/geometry"
)

var (
	// CUSTOMER ||--o{ ORDER : places
	mermaidRelPattern = regexp.MustCompile(`^("[^"]+"|[\w-]+)\s+([|}o]{2})(--|\.\.)([|{o]{2})\s+("[^"]+"|[\w-]+)\s*:\s*(.+)$`)
	// CUSTOMER {
	mermaidEntityPattern = regexp.MustCompile(`^("[^"]+"|[\w-]+)\s*\{\s*(\})?$`)
	// CUSTOMER
	mermaidNamePattern = regexp.MustCompile(`^[\w-]+$`)
	// string name PK "comment"
	mermaidAttrPattern = regexp.MustCompile(`^([\w()\[\],-]+)\s+([\w-]+)((?:\s+(?:PK|FK|UK)(?:\s*,\s*(?:PK|FK|UK))*)?)(?:\s+"[^"]*")?$`)
)

// MermaidImporter imports Mermaid erDiagram documents
type MermaidImporter struct{}

// NewMermaidImporter creates a new Mermaid importer
func NewMermaidImporter() *MermaidImporter {
	return &MermaidImporter{}
}

// CanImport checks if the content is a Mermaid ER diagram
func (m *MermaidImporter) CanImport(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "%%") && !strings.HasPrefix(line, export.PositionDirective) {
			continue
		}
		return line == "erDiagram"
	}
	return false
}

// Import converts Mermaid erDiagram content to a diagram
func (m *MermaidImporter) Import(content string) (*diagram.Diagram, error) {
	d := &diagram.Diagram{}
	index := make(map[string]int)

	entity := func(name string) *diagram.Entity {
		name = strings.Trim(name, `"`)
		if i, ok := index[name]; ok {
			return &d.Entities[i]
		}
		d.Entities = append(d.Entities, diagram.Entity{ID: name, Name: name})
		index[name] = len(d.Entities) - 1
		return &d.Entities[len(d.Entities)-1]
	}

	var current string
	seenHeader := false
	for n, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)

		if strings.HasPrefix(line, export.PositionDirective) {
			if err := m.applyPosition(line, entity); err != nil {
				return nil, fmt.Errorf("line %d: %w", n+1, err)
			}
			continue
		}
		if line == "" || strings.HasPrefix(line, "%%") {
			continue
		}
		if !seenHeader {
			if line != "erDiagram" {
				return nil, fmt.Errorf("line %d: expected erDiagram, got %q", n+1, line)
			}
			seenHeader = true
			continue
		}

		if current != "" {
			if line == "}" {
				current = ""
				continue
			}
			match := mermaidAttrPattern.FindStringSubmatch(line)
			if match == nil {
				return nil, fmt.Errorf("line %d: invalid attribute %q", n+1, line)
			}
			ent := entity(current)
			ent.Attributes = append(ent.Attributes, diagram.Attribute{
				ID:       ent.ID + "." + match[2],
				Name:     match[2],
				Type:     match[1],
				Key:      strings.Contains(match[3], "PK"),
				EntityID: ent.ID,
			})
			continue
		}

		if match := mermaidRelPattern.FindStringSubmatch(line); match != nil {
			from := entity(match[1])
			to := entity(match[5])
			d.Relationships = append(d.Relationships, diagram.Relationship{
				ID:           fmt.Sprintf("r%d", len(d.Relationships)+1),
				Name:         strings.Trim(strings.TrimSpace(match[6]), `"`),
				FromEntityID: from.ID,
				ToEntityID:   to.ID,
				Cardinality:  mermaidCardinality(match[2], match[4]),
			})
			continue
		}

		if match := mermaidEntityPattern.FindStringSubmatch(line); match != nil {
			ent := entity(match[1])
			if match[2] == "" {
				current = ent.ID
			}
			continue
		}

		if mermaidNamePattern.MatchString(line) {
			entity(line)
			continue
		}

		return nil, fmt.Errorf("line %d: unrecognised statement %q", n+1, line)
	}

	if !seenHeader {
		return nil, fmt.Errorf("missing erDiagram header")
	}
	if current != "" {
		return nil, fmt.Errorf("unterminated block for entity %s", current)
	}
	return d, nil
}

// applyPosition handles a position comment: "%% erd:pos NAME X Y".
func (m *MermaidImporter) applyPosition(line string, entity func(string) *diagram.Entity) error {
	fields := strings.Fields(strings.TrimPrefix(line, export.PositionDirective))
	if len(fields) != 3 {
		return fmt.Errorf("malformed position comment %q", line)
	}
	x, errX := strconv.ParseFloat(fields[1], 64)
	y, errY := strconv.ParseFloat(fields[2], 64)
	if errX != nil || errY != nil {
		return fmt.Errorf("malformed position comment %q", line)
	}
	entity(fields[0]).Position = geometry.Point{X: x, Y: y}
	return nil
}

// mermaidCardinality turns crow's foot ends into "1:N" style notation.
func mermaidCardinality(left, right string) string {
	side := func(s string) string {
		if strings.ContainsAny(s, "{}") {
			return "N"
		}
		return "1"
	}
	l, r := side(left), side(right)
	if l == "N" && r == "N" {
		return "N:M"
	}
	return l + ":" + r
}

// GetFormatName returns the format name
func (m *MermaidImporter) GetFormatName() string {
	return "Mermaid"
}

// GetFileExtensions returns common file extensions
func (m *MermaidImporter) GetFileExtensions() []string {
	return []string{".mmd", ".mermaid"}
}
