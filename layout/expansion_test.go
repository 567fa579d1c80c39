package layout

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erd/diagram"
	"erd/geometry"
)

func TestComputeExpansionFactor(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	assert.Equal(t, 1.3, engine.ComputeExpansionFactor(nil))
	assert.Equal(t, 1.3, engine.ComputeExpansionFactor(GenerateEntities(4)))

	// Entities without attributes are left out of the average: (2+4)/2 = 3.
	entities := WithAttributes(GenerateEntities(3), 2, 0, 4)
	assert.InDelta(t, 1.3+0.15*3, engine.ComputeExpansionFactor(entities), 1e-12)

	assert.Equal(t, 3.0, engine.ComputeExpansionFactor(WithAttributes(GenerateEntities(1), 40)))
}

func TestComputeExpansionFactor_Bounds(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	properties := gopter.NewProperties(nil)

	properties.Property("factor stays within [1.3, 3.0]", prop.ForAll(
		func(counts []int) bool {
			entities := WithAttributes(GenerateEntities(len(counts)), counts...)
			f := engine.ComputeExpansionFactor(entities)
			return f >= 1.3 && f <= 3.0
		},
		gen.SliceOf(gen.IntRange(0, 30)),
	))

	properties.TestingRun(t)
}

func TestExpand(t *testing.T) {
	entities := GenerateEntities(2)
	entities[0].Position = geometry.Point{X: 10, Y: 20}
	entities[1].Position = geometry.Point{X: -30, Y: 0}
	rels := []diagram.Relationship{{ID: "r", Position: geometry.Point{X: 0, Y: 10}}}
	pivot := geometry.Point{X: 10, Y: 10}

	outE, outR := Expand(entities, rels, 2, pivot)
	assert.Equal(t, geometry.Point{X: 10, Y: 30}, outE[0].Position)
	assert.Equal(t, geometry.Point{X: -70, Y: -10}, outE[1].Position)
	assert.Equal(t, geometry.Point{X: -10, Y: 10}, outR[0].Position)
	assert.Equal(t, geometry.Point{X: 10, Y: 20}, entities[0].Position, "inputs are not mutated")

	sameE, sameR := Expand(entities, rels, 1, pivot)
	assert.Same(t, &entities[0], &sameE[0], "factor 1 returns the input slices")
	assert.Same(t, &rels[0], &sameR[0])
}

func TestExpandRestore_RoundTrip(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("restore after expand is bit-exact", prop.ForAll(
		func(coords []float64, factor, px, py float64) bool {
			entities := make([]diagram.Entity, len(coords)/2)
			for i := range entities {
				entities[i] = diagram.Entity{
					ID:       fmt.Sprintf("e%d", i),
					Position: geometry.Point{X: coords[2*i], Y: coords[2*i+1]},
				}
			}
			rels := []diagram.Relationship{{ID: "r", Position: geometry.Point{X: px / 3, Y: py / 7}}}

			store := Snapshot(entities, rels)
			expE, expR := Expand(entities, rels, factor, geometry.Point{X: px, Y: py})
			gotE, gotR := Restore(expE, expR, store)

			return cmp.Equal(entities, gotE) && cmp.Equal(rels, gotR)
		},
		gen.SliceOfN(40, gen.Float64Range(-1e6, 1e6)),
		gen.Float64Range(0.1, 5).SuchThat(func(f float64) bool { return f != 1 }),
		gen.Float64Range(-1e4, 1e4),
		gen.Float64Range(-1e4, 1e4),
	))

	properties.TestingRun(t)
}

func TestRestore_UnknownIDsUntouched(t *testing.T) {
	entities := GenerateEntities(2)
	entities[1].Position = geometry.Point{X: 5, Y: 5}
	store := PositionStore{Entities: Positions{"e0": {X: 1, Y: 2}}}

	gotE, gotR := Restore(entities, nil, store)
	assert.Equal(t, geometry.Point{X: 1, Y: 2}, gotE[0].Position)
	assert.Equal(t, geometry.Point{X: 5, Y: 5}, gotE[1].Position)
	assert.Empty(t, gotR)
	assert.False(t, store.Empty())
	assert.True(t, PositionStore{}.Empty())
}

func TestShowHideAttributes(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	entities, rels := GenerateChain(3)
	entities = WithAttributes(entities, 2, 3, 0)

	d := &diagram.Diagram{Entities: entities, Relationships: rels}
	laidOut := Apply(d, engine.AutoLayout(d, geometry.Point{}))
	before := laidOut.Clone()

	shown, store := engine.ShowAttributes(laidOut, geometry.Point{})
	require.Len(t, shown.Entities, 3)
	assert.Empty(t, cmp.Diff(before, laidOut), "ShowAttributes must not mutate its input")

	factor := engine.ComputeExpansionFactor(entities)
	assert.InDelta(t, laidOut.Entities[1].Position.X*factor, shown.Entities[1].Position.X, 1e-9)
	assert.NotEqual(t, geometry.Point{}, shown.Entities[0].Attributes[0].Position)

	hidden := engine.HideAttributes(shown, store)
	assert.Empty(t, cmp.Diff(laidOut, hidden), "HideAttributes must restore every position")
	assert.NotEqual(t, hidden.Entities[0].Attributes[0].Position, shown.Entities[0].Attributes[0].Position)
}

func TestRestore_Attributes(t *testing.T) {
	entities := WithAttributes(GenerateEntities(2), 2, 1)
	entities[0].Attributes[1].Position = geometry.Point{X: 7, Y: 8}
	store := Snapshot(entities, nil)

	moved := WithAttributes(GenerateEntities(2), 2, 1)
	for i := range moved {
		for j := range moved[i].Attributes {
			moved[i].Attributes[j].Position = geometry.Point{X: 100, Y: 100}
		}
	}

	gotE, _ := Restore(moved, nil, store)
	assert.Equal(t, geometry.Point{}, gotE[0].Attributes[0].Position)
	assert.Equal(t, geometry.Point{X: 7, Y: 8}, gotE[0].Attributes[1].Position)
	assert.Equal(t, geometry.Point{}, gotE[1].Attributes[0].Position)
	assert.Equal(t, geometry.Point{X: 100, Y: 100}, moved[0].Attributes[0].Position, "inputs are not mutated")
}
