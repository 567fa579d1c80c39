// Package export writes laid-out diagrams to text formats
package export

import (
	"fmt"
	"strings"

	"erd/diagram"
)

// Format represents an export format
type Format string

const (
	// FormatJSON exports the diagram document with every position (default)
	FormatJSON Format = "json"
	// FormatYAML exports the same document as YAML
	FormatYAML Format = "yaml"
	// FormatMermaid exports to Mermaid erDiagram syntax
	FormatMermaid Format = "mermaid"
	// FormatGraphviz exports to Graphviz DOT with pinned positions
	FormatGraphviz Format = "dot"
)

// Exporter interface for different export formats
type Exporter interface {
	// Export converts a diagram to the target format
	Export(d *diagram.Diagram) (string, error)
	// GetFileExtension returns the recommended file extension for this format
	GetFileExtension() string
	// GetFormatName returns a human-readable name for this format
	GetFormatName() string
}

// NewExporter creates an exporter for the specified format
func NewExporter(format Format) (Exporter, error) {
	switch format {
	case FormatJSON:
		return NewJSONExporter(), nil
	case FormatYAML:
		return NewYAMLExporter(), nil
	case FormatMermaid:
		return NewMermaidExporter(), nil
	case FormatGraphviz:
		return NewGraphvizExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// ParseFormat converts a string to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "mermaid", "mmd":
		return FormatMermaid, nil
	case "dot", "graphviz", "gv":
		return FormatGraphviz, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

// GetAvailableFormats returns a list of all available export formats
func GetAvailableFormats() []Format {
	return []Format{
		FormatJSON,
		FormatYAML,
		FormatMermaid,
		FormatGraphviz,
	}
}

// GetFormatDescriptions returns human-readable descriptions of all formats
func GetFormatDescriptions() map[Format]string {
	return map[Format]string{
		FormatJSON:     "Diagram document with positions (erd native format)",
		FormatYAML:     "Diagram document with positions, as YAML",
		FormatMermaid:  "Mermaid erDiagram syntax (for Markdown)",
		FormatGraphviz: "Graphviz DOT with pinned positions (render with neato -n)",
	}
}

// entityLabel prefers the entity's name over its id.
func entityLabel(e diagram.Entity) string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}
