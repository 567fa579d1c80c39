// Package dbschema reads table definitions from live databases and turns
// them into ER diagrams: tables become entities, columns become attributes
// and foreign keys become relationships.
package dbschema

import (
	"context"
	"fmt"

	"erd/diagram"
)

// Schema is the extracted set of tables.
type Schema struct {
	Tables []Table
}

// Table describes one database table.
type Table struct {
	Name        string
	Columns     []Column
	PrimaryKey  []string
	ForeignKeys []ForeignKey
}

// Column describes one table column.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// ForeignKey links a column to a column of another table.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// Extractor reads a schema from a database. When tables is empty every
// base table is extracted.
type Extractor interface {
	ExtractSchema(ctx context.Context, tables []string) (*Schema, error)
	Close() error
}

// ToDiagram converts a schema to a diagram. Foreign keys that point at a
// table outside the schema are dropped. Composite keys yield one
// relationship per column.
func ToDiagram(s *Schema) *diagram.Diagram {
	d := &diagram.Diagram{}
	if s == nil {
		return d
	}

	known := make(map[string]bool, len(s.Tables))
	for _, t := range s.Tables {
		known[t.Name] = true
	}

	for _, t := range s.Tables {
		pk := make(map[string]bool, len(t.PrimaryKey))
		for _, c := range t.PrimaryKey {
			pk[c] = true
		}

		ent := diagram.Entity{ID: t.Name, Name: t.Name}
		for _, c := range t.Columns {
			ent.Attributes = append(ent.Attributes, diagram.Attribute{
				ID:       t.Name + "." + c.Name,
				Name:     c.Name,
				Type:     c.Type,
				Key:      pk[c.Name],
				EntityID: t.Name,
			})
		}
		d.Entities = append(d.Entities, ent)

		for _, fk := range t.ForeignKeys {
			if !known[fk.RefTable] {
				continue
			}
			d.Relationships = append(d.Relationships, diagram.Relationship{
				ID:           fmt.Sprintf("fk_%s_%s", t.Name, fk.Column),
				Name:         fk.Column,
				FromEntityID: t.Name,
				ToEntityID:   fk.RefTable,
				Cardinality:  "N:1",
			})
		}
	}

	diagram.EnsureIDs(d)
	return d
}
