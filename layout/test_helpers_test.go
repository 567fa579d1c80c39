package layout

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"erd/diagram"
	"erd/geometry"
)

// TestValidator checks layout results against the engine's guarantees.
type TestValidator struct {
	t   *testing.T
	cfg Config
}

// NewTestValidator creates a validator for the given test.
func NewTestValidator(t *testing.T, cfg Config) *TestValidator {
	return &TestValidator{t: t, cfg: cfg}
}

// ValidateEntitiesPlaced ensures every entity received a finite position.
func (v *TestValidator) ValidateEntitiesPlaced(entities []diagram.Entity, got Positions) {
	v.t.Helper()
	for _, ent := range entities {
		p, ok := got[ent.ID]
		if !ok {
			v.t.Errorf("entity %s was not placed", ent.ID)
			continue
		}
		if !p.IsFinite() {
			v.t.Errorf("entity %s has non-finite position %v", ent.ID, p)
		}
	}
}

// ValidateNoOverlaps ensures no two entities' padded rectangles intersect.
func (v *TestValidator) ValidateNoOverlaps(got Positions) {
	v.t.Helper()
	if bad := overlappingPairs(got, v.cfg.EntitySize, v.cfg.Entity.Spacing); len(bad) > 0 {
		for _, pair := range bad {
			v.t.Errorf("entities %s and %s overlap: %v and %v", pair[0], pair[1], got[pair[0]], got[pair[1]])
		}
	}
}

// overlappingPairs returns every pair of ids whose padded boxes intersect.
func overlappingPairs(got Positions, size geometry.Size, buffer float64) [][2]string {
	ids := make([]string, 0, len(got))
	for id := range got {
		ids = append(ids, id)
	}

	var bad [][2]string
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a := geometry.RectAt(got[ids[i]], size)
			b := geometry.RectAt(got[ids[j]], size)
			if geometry.RectsOverlap(a, b, buffer) {
				bad = append(bad, [2]string{ids[i], ids[j]})
			}
		}
	}
	return bad
}

// Graph generators

func entityID(i int) string {
	return fmt.Sprintf("e%d", i)
}

// GenerateEntities creates n entities named e0..e(n-1) with no attributes.
func GenerateEntities(n int) []diagram.Entity {
	entities := make([]diagram.Entity, n)
	for i := range entities {
		entities[i] = diagram.Entity{ID: entityID(i), Name: fmt.Sprintf("Table%d", i)}
	}
	return entities
}

func relate(id string, from, to int) diagram.Relationship {
	return diagram.Relationship{ID: id, FromEntityID: entityID(from), ToEntityID: entityID(to)}
}

// GenerateStar creates a hub e0 connected to spokes e1..eN.
func GenerateStar(spokes int) ([]diagram.Entity, []diagram.Relationship) {
	rels := make([]diagram.Relationship, spokes)
	for i := 1; i <= spokes; i++ {
		rels[i-1] = relate(fmt.Sprintf("r%d", i), 0, i)
	}
	return GenerateEntities(spokes + 1), rels
}

// GenerateChain creates e0-e1-...-e(n-1).
func GenerateChain(n int) ([]diagram.Entity, []diagram.Relationship) {
	var rels []diagram.Relationship
	for i := 1; i < n; i++ {
		rels = append(rels, relate(fmt.Sprintf("r%d", i), i-1, i))
	}
	return GenerateEntities(n), rels
}

// GenerateRandomGraph connects each pair with probability p.
func GenerateRandomGraph(rng *rand.Rand, n int, p float64) ([]diagram.Entity, []diagram.Relationship) {
	var rels []diagram.Relationship
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < p {
				rels = append(rels, relate(fmt.Sprintf("r%d_%d", i, j), i, j))
			}
		}
	}
	return GenerateEntities(n), rels
}

// WithAttributes gives entity i counts[i] attributes.
func WithAttributes(entities []diagram.Entity, counts ...int) []diagram.Entity {
	for i := range entities {
		if i >= len(counts) {
			break
		}
		entities[i].Attributes = make([]diagram.Attribute, counts[i])
		for j := range entities[i].Attributes {
			entities[i].Attributes[j] = diagram.Attribute{
				ID:       fmt.Sprintf("%s.a%d", entities[i].ID, j),
				Name:     fmt.Sprintf("col%d", j),
				EntityID: entities[i].ID,
			}
		}
	}
	return entities
}

// PlaceAt moves the entity so its center lands on c.
func PlaceAt(cfg Config, ent *diagram.Entity, c geometry.Point) {
	ent.Position = c.Sub(cfg.EntitySize.Half())
}

// countingRecorder records every measurement for assertions.
type countingRecorder struct {
	mu         sync.Mutex
	runs       map[string]int
	candidates []int
	fallbacks  map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{runs: map[string]int{}, fallbacks: map[string]int{}}
}

func (r *countingRecorder) ObserveRun(strategy string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[strategy]++
}

func (r *countingRecorder) ObserveCandidates(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.candidates = append(r.candidates, n)
}

func (r *countingRecorder) CountFallback(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks[kind]++
}

func (r *countingRecorder) fallback(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fallbacks[kind]
}
