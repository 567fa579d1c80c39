package importer

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"erd/diagram"
)

// JSONImporter reads the native diagram document
type JSONImporter struct{}

// NewJSONImporter creates a new JSON importer
func NewJSONImporter() *JSONImporter {
	return &JSONImporter{}
}

// CanImport checks if the content looks like a JSON object
func (j *JSONImporter) CanImport(content string) bool {
	return strings.HasPrefix(strings.TrimSpace(content), "{")
}

// Import decodes a JSON diagram document
func (j *JSONImporter) Import(content string) (*diagram.Diagram, error) {
	var d diagram.Diagram
	if err := json.Unmarshal([]byte(content), &d); err != nil {
		return nil, fmt.Errorf("failed to parse JSON diagram: %w", err)
	}
	return &d, nil
}

// GetFormatName returns the format name
func (j *JSONImporter) GetFormatName() string {
	return "JSON"
}

// GetFileExtensions returns common file extensions
func (j *JSONImporter) GetFileExtensions() []string {
	return []string{".json"}
}

// YAMLImporter reads the native diagram document written as YAML
type YAMLImporter struct{}

// NewYAMLImporter creates a new YAML importer
func NewYAMLImporter() *YAMLImporter {
	return &YAMLImporter{}
}

// CanImport checks for a top-level entities key
func (y *YAMLImporter) CanImport(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "entities:") {
			return true
		}
	}
	return false
}

// Import decodes a YAML diagram document
func (y *YAMLImporter) Import(content string) (*diagram.Diagram, error) {
	var d diagram.Diagram
	if err := yaml.Unmarshal([]byte(content), &d); err != nil {
		return nil, fmt.Errorf("failed to parse YAML diagram: %w", err)
	}
	return &d, nil
}

// GetFormatName returns the format name
func (y *YAMLImporter) GetFormatName() string {
	return "YAML"
}

// GetFileExtensions returns common file extensions
func (y *YAMLImporter) GetFileExtensions() []string {
	return []string{".yaml", ".yml"}
}
