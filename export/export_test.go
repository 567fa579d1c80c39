package export_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"erd/diagram"
	"erd/export"
	"erd/geometry"
)

func sampleDiagram() *diagram.Diagram {
	return &diagram.Diagram{
		Entities: []diagram.Entity{
			{
				ID:       "users",
				Name:     "User",
				Position: geometry.Point{X: -90, Y: -35},
				Attributes: []diagram.Attribute{
					{ID: "users.id", Name: "id", Type: "int", Key: true, Position: geometry.Point{X: -70, Y: 132}},
					{ID: "users.email", Name: "email address"},
				},
			},
			{ID: "orders", Name: "Order", Position: geometry.Point{X: 290, Y: -35}},
		},
		Relationships: []diagram.Relationship{
			{ID: "places", Name: "places", FromEntityID: "users", ToEntityID: "orders", Cardinality: "1:N", Position: geometry.Point{X: 35, Y: -65}},
			{ID: "ghost", FromEntityID: "users", ToEntityID: "missing"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected export.Format
		wantErr  bool
	}{
		{"json", export.FormatJSON, false},
		{"yml", export.FormatYAML, false},
		{"mermaid", export.FormatMermaid, false},
		{"MMD", export.FormatMermaid, false},
		{"dot", export.FormatGraphviz, false},
		{"graphviz", export.FormatGraphviz, false},
		{"ascii", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := export.ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNewExporter(t *testing.T) {
	descriptions := export.GetFormatDescriptions()
	for _, format := range export.GetAvailableFormats() {
		t.Run(string(format), func(t *testing.T) {
			exporter, err := export.NewExporter(format)
			require.NoError(t, err)
			assert.NotEmpty(t, exporter.GetFileExtension())
			assert.NotEmpty(t, exporter.GetFormatName())
			assert.NotEmpty(t, descriptions[format])

			_, err = exporter.Export(nil)
			assert.Error(t, err)
		})
	}

	_, err := export.NewExporter("ascii")
	assert.Error(t, err)
}

func TestJSONAndYAMLExport(t *testing.T) {
	d := sampleDiagram()

	out, err := export.NewJSONExporter().Export(d)
	require.NoError(t, err)
	var fromJSON diagram.Diagram
	require.NoError(t, json.Unmarshal([]byte(out), &fromJSON))
	assert.Equal(t, d.Entities[0].Attributes[0].Position, fromJSON.Entities[0].Attributes[0].Position)

	out, err = export.NewYAMLExporter().Export(d)
	require.NoError(t, err)
	var fromYAML diagram.Diagram
	require.NoError(t, yaml.Unmarshal([]byte(out), &fromYAML))
	assert.Equal(t, d.Relationships[0], fromYAML.Relationships[0])
}

func TestMermaidExport(t *testing.T) {
	out, err := export.NewMermaidExporter().Export(sampleDiagram())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "erDiagram\n"))
	assert.Contains(t, out, "    User ||--o{ Order : places\n")
	assert.Contains(t, out, "        int id PK\n")
	assert.Contains(t, out, "        string email_address\n")
	assert.Contains(t, out, "%% erd:pos User -90 -35\n")
	assert.NotContains(t, out, "missing", "dangling relationships are skipped")
}

func TestMermaidNames(t *testing.T) {
	d := &diagram.Diagram{Entities: []diagram.Entity{
		{ID: "a", Name: "Line Item"},
		{ID: "b", Name: "Line Item"},
	}}
	e := export.NewMermaidExporter()
	e.IncludePositions = false
	out, err := e.Export(d)
	require.NoError(t, err)

	assert.Contains(t, out, "    Line_Item {\n")
	assert.Contains(t, out, "    Line_Item_b {\n")
	assert.NotContains(t, out, export.PositionDirective)
}

func TestCardinalityToMermaid(t *testing.T) {
	assert.Equal(t, "||--||", export.CardinalityToMermaid("1:1"))
	assert.Equal(t, "||--o{", export.CardinalityToMermaid("1:N"))
	assert.Equal(t, "}o--||", export.CardinalityToMermaid("n:1"))
	assert.Equal(t, "}o--o{", export.CardinalityToMermaid("N:M"))
	assert.Equal(t, "||--o{", export.CardinalityToMermaid(""))
}

func TestGraphvizExport(t *testing.T) {
	e := export.NewGraphvizExporter()
	e.IncludeAttributes = true
	out, err := e.Export(sampleDiagram())
	require.NoError(t, err)

	// users is 180x70 with top-left (-90,-35), so its center is the origin.
	assert.Contains(t, out, `"users" [shape=box, label="User", pos="0,0!", width=2.5, height=`)
	assert.Contains(t, out, `"places" [shape=diamond, label="places 1:N", pos="100,0!"`)
	assert.Contains(t, out, `"users" -- "places";`)
	assert.Contains(t, out, `"places" -- "orders";`)
	assert.Contains(t, out, `"users.id" [shape=ellipse, label="id", pos="0,-150!"`)
	assert.NotContains(t, out, `"ghost"`)
	assert.True(t, strings.HasSuffix(out, "}\n"))

	_, err = e.Export(&diagram.Diagram{})
	assert.Error(t, err)
}
