package diagram

import (
	"fmt"

	"github.com/google/uuid"
)

// EnsureIDs gives every entity, attribute and relationship a unique id.
// Missing ids and later duplicates are replaced with fresh UUIDs; attributes
// are re-parented to the entity that contains them.
func EnsureIDs(d *Diagram) {
	if d == nil {
		return
	}

	entityIDs := make(map[string]bool)
	attrIDs := make(map[string]bool)
	for i := range d.Entities {
		e := &d.Entities[i]
		e.ID = uniqueID(e.ID, entityIDs)

		for j := range e.Attributes {
			a := &e.Attributes[j]
			a.ID = uniqueID(a.ID, attrIDs)
			a.EntityID = e.ID
		}
	}

	relIDs := make(map[string]bool)
	for i := range d.Relationships {
		d.Relationships[i].ID = uniqueID(d.Relationships[i].ID, relIDs)
	}
}

func uniqueID(id string, used map[string]bool) string {
	if id == "" || used[id] {
		id = uuid.NewString()
	}
	used[id] = true
	return id
}

// Validate checks the structural consistency of a diagram. Relationships
// that reference unknown entities are allowed; the layout engine skips them.
func Validate(d *Diagram) error {
	if d == nil {
		return fmt.Errorf("nil diagram")
	}

	entityIDs := make(map[string]bool)
	for i, e := range d.Entities {
		if e.ID == "" {
			return fmt.Errorf("entity %d has no id", i)
		}
		if entityIDs[e.ID] {
			return fmt.Errorf("duplicate entity ID: %s", e.ID)
		}
		entityIDs[e.ID] = true

		for j, a := range e.Attributes {
			if a.EntityID != "" && a.EntityID != e.ID {
				return fmt.Errorf("attribute %d of entity %s claims parent %s", j, e.ID, a.EntityID)
			}
		}
	}

	relIDs := make(map[string]bool)
	for i, r := range d.Relationships {
		if r.ID == "" {
			return fmt.Errorf("relationship %d has no id", i)
		}
		if relIDs[r.ID] {
			return fmt.Errorf("duplicate relationship ID: %s", r.ID)
		}
		relIDs[r.ID] = true
	}

	return nil
}
