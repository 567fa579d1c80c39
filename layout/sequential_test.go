package layout

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erd/diagram"
	"erd/geometry"
)

func TestLayoutEntities_Degenerate(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	validator := NewTestValidator(t, engine.Config())
	half := engine.Config().EntitySize.Half()

	t.Run("no entities", func(t *testing.T) {
		got := engine.LayoutEntities(nil, nil, geometry.Point{})
		assert.Empty(t, got)
	})

	t.Run("single entity sits on the viewport center", func(t *testing.T) {
		center := geometry.Point{X: 640, Y: 360}
		got := engine.LayoutEntities(GenerateEntities(1), nil, center)
		require.Len(t, got, 1)
		assert.Equal(t, center.Sub(half), got["e0"])
	})

	t.Run("non-finite center falls back to origin", func(t *testing.T) {
		got := engine.LayoutEntities(GenerateEntities(1), nil, geometry.Point{X: math.NaN(), Y: math.Inf(1)})
		assert.Equal(t, geometry.Point{}.Sub(half), got["e0"])
	})

	t.Run("disconnected entities", func(t *testing.T) {
		entities := GenerateEntities(6)
		got := engine.LayoutEntities(entities, nil, geometry.Point{})
		validator.ValidateEntitiesPlaced(entities, got)
		validator.ValidateNoOverlaps(got)
	})

	t.Run("dangling and self relationships are ignored", func(t *testing.T) {
		entities, rels := GenerateChain(3)
		rels = append(rels,
			diagram.Relationship{ID: "ghost", FromEntityID: "e0", ToEntityID: "missing"},
			diagram.Relationship{ID: "self", FromEntityID: "e2", ToEntityID: "e2"},
		)
		got := engine.LayoutEntities(entities, rels, geometry.Point{})
		validator.ValidateEntitiesPlaced(entities, got)
		validator.ValidateNoOverlaps(got)

		// e1 has the highest degree once the bad edges are dropped.
		assert.Equal(t, geometry.Point{}.Sub(half), got["e1"])
	})

	t.Run("duplicate ids keep one position", func(t *testing.T) {
		entities := append(GenerateEntities(2), diagram.Entity{ID: "e0"})
		got := engine.LayoutEntities(entities, nil, geometry.Point{})
		assert.Len(t, got, 2)
		validator.ValidateNoOverlaps(got)
	})
}

func TestLayoutEntities_Star(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	cfg := engine.Config()
	validator := NewTestValidator(t, cfg)
	center := geometry.Point{X: 500, Y: 400}

	entities, rels := GenerateStar(4)
	got := engine.LayoutEntities(entities, rels, center)

	require.Len(t, got, 5)
	assert.Equal(t, center.Sub(cfg.EntitySize.Half()), got["e0"], "hub goes first, on the viewport center")
	validator.ValidateNoOverlaps(got)

	// The first spoke lands on the first spiral probe.
	spoke := got["e1"].Add(cfg.EntitySize.Half())
	assert.InDelta(t, cfg.Entity.InitialRadius, geometry.Distance(spoke, center), 1e-9)
}

func TestLayoutEntities_Determinism(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	rng := rand.New(rand.NewSource(7))
	entities, rels := GenerateRandomGraph(rng, 25, 0.2)
	center := geometry.Point{X: 100, Y: -50}

	first := engine.LayoutEntities(entities, rels, center)
	for run := 0; run < 3; run++ {
		assert.Equal(t, first, engine.LayoutEntities(entities, rels, center), "run %d differs", run)
	}
}

func TestLayoutEntities_NoOverlapProperty(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping property test in short mode")
	}

	engine := NewEngine(DefaultConfig())
	cfg := engine.Config()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("entities never overlap", prop.ForAll(
		func(n int, p float64, seed int64) bool {
			entities, rels := GenerateRandomGraph(rand.New(rand.NewSource(seed)), n, p)
			got := engine.LayoutEntities(entities, rels, geometry.Point{})
			if len(got) != n {
				return false
			}
			return len(overlappingPairs(got, cfg.EntitySize, cfg.Entity.Spacing)) == 0
		},
		gen.IntRange(0, 50),
		gen.Float64Range(0, 0.3),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestLayoutEntities_FarFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Entity.InitialRadius = 0
	cfg.Entity.MaxAttempts = 1
	rec := newCountingRecorder()
	engine := NewEngine(cfg, WithRecorder(rec))

	entities, rels := GenerateChain(3)
	got := engine.LayoutEntities(entities, rels, geometry.Point{})

	assert.Equal(t, geometry.Point{X: -90, Y: -35}, got["e1"])
	assert.Equal(t, geometry.Point{X: 271, Y: -35}, got["e0"])
	assert.Equal(t, geometry.Point{X: 632, Y: -35}, got["e2"])
	assert.Equal(t, 2, rec.fallback(FallbackEntityFar))
	assert.Equal(t, 1, rec.runs[StrategySequential])
	NewTestValidator(t, cfg).ValidateNoOverlaps(got)
}

func crossingFixture() *sequentialPass {
	edges := []edge{{from: "A", to: "B"}, {from: "C", to: "D"}}
	return &sequentialPass{
		cfg:     DefaultConfig(),
		edges:   edges,
		touches: map[string][]int{"A": {0}, "B": {0}, "C": {1}, "D": {1}},
		centers: map[string]geometry.Point{
			"A": {X: 0, Y: 0},
			"B": {X: 1000, Y: 0},
			"D": {X: 600, Y: -300},
		},
	}
}

func TestCrossings(t *testing.T) {
	s := crossingFixture()
	lines := s.scoringLines("C")
	require.Len(t, lines.partners, 1)
	require.Len(t, lines.resolved, 2)

	tests := []struct {
		name string
		c    geometry.Point
		want int
	}{
		{"own half crosses A-B", geometry.Point{X: 500, Y: 100}, 1},
		{"only the partner's half crosses A-B", geometry.Point{X: 500, Y: 500}, 0},
		{"clear of A-B", geometry.Point{X: 600, Y: -600}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lines.crossings(tt.c))
		})
	}

	assert.Equal(t, 0, s.scoringLines("E").crossings(geometry.Point{X: 500, Y: 100}), "no placed partners")
}

func TestScoringLines_ExcludesOwnRelationships(t *testing.T) {
	s := crossingFixture()
	s.centers["C"] = geometry.Point{X: 500, Y: 100}

	lines := s.scoringLines("A")
	require.Len(t, lines.partners, 1)
	assert.Equal(t, geometry.Point{X: 1000, Y: 0}, lines.partners[0])
	require.Len(t, lines.resolved, 2, "only C-D is scored against")
	assert.Equal(t, geometry.Point{X: 550, Y: -100}, lines.resolved[0][1])
}

func TestChoose_DistanceBeforeCrossings(t *testing.T) {
	s := crossingFixture()
	crossing := candidate{center: geometry.Point{X: 500, Y: 100}, dist: 100}
	clean := candidate{center: geometry.Point{X: 600, Y: -600}}

	clean.dist = 104
	got := s.choose("C", []candidate{crossing, clean})
	assert.Equal(t, clean.center, got.center, "within tolerance the crossing-free candidate wins")

	clean.dist = 110
	got = s.choose("C", []candidate{crossing, clean})
	assert.Equal(t, crossing.center, got.center, "a materially closer candidate wins despite crossings")
}

func TestLayoutEntities_CompleteGraph(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	validator := NewTestValidator(t, engine.Config())

	entities := GenerateEntities(40)
	var rels []diagram.Relationship
	for i := range entities {
		for j := i + 1; j < len(entities); j++ {
			rels = append(rels, relate(fmt.Sprintf("r%d_%d", i, j), i, j))
		}
	}

	got := engine.LayoutEntities(entities, rels, geometry.Point{})
	validator.ValidateEntitiesPlaced(entities, got)
	validator.ValidateNoOverlaps(got)
}

func TestOrderByDegree(t *testing.T) {
	entities, rels := GenerateStar(3)
	ids := uniqueEntityIDs(append([]diagram.Entity{{ID: "lonely"}}, entities...))
	edges := validEdges(ids, rels)

	order := orderByDegree(ids, buildAdjacency(ids, edges))
	assert.Equal(t, []string{"e0", "e1", "e2", "e3", "lonely"}, order)
}
