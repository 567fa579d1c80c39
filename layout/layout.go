// Package layout provides algorithms for positioning ER diagram nodes in 2D space.
//
// Every routine is a pure computation over a snapshot of the diagram: it reads
// positions and counts and returns new position assignments. Nothing here
// mutates its inputs.
package layout

import (
	"time"

	"go.uber.org/zap"

	"erd/diagram"
	"erd/geometry"
)

// Positions maps a node id to its top-left position.
type Positions map[string]geometry.Point

// Result bundles the three position maps produced by a full layout.
type Result struct {
	Entities      Positions `json:"entities"`
	Relationships Positions `json:"relationships"`
	Attributes    Positions `json:"attributes,omitempty"`
}

// Strategy names used for metrics.
const (
	StrategySequential = "sequential"
	StrategyMarkers    = "markers"
	StrategyAttributes = "attributes"
	StrategyStack      = "stack"
	StrategyOracle     = "oracle"
)

// Fallback kinds reported when a search exhausts its budget.
const (
	FallbackEntityFar        = "entity_far"
	FallbackMarkerOverlap    = "marker_overlap"
	FallbackAttributeOverlap = "attribute_overlap"
	FallbackOracle           = "oracle"
)

// Recorder receives layout measurements.
type Recorder interface {
	ObserveRun(strategy string, d time.Duration)
	ObserveCandidates(n int)
	CountFallback(kind string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRun(string, time.Duration) {}
func (nopRecorder) ObserveCandidates(int)            {}
func (nopRecorder) CountFallback(string)             {}

// Engine bundles configuration and observability for the layout routines.
// An Engine holds no per-layout state and may be shared freely.
type Engine struct {
	cfg      Config
	logger   *zap.Logger
	recorder Recorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used to trace layout decisions.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// NewEngine creates an Engine with the given configuration.
func NewEngine(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) observe(strategy string, start time.Time) {
	e.recorder.ObserveRun(strategy, time.Since(start))
}

// AutoLayout places every entity and then every relationship marker.
func (e *Engine) AutoLayout(d *diagram.Diagram, center geometry.Point) Result {
	entities := e.LayoutEntities(d.Entities, d.Relationships, center)

	placed := make([]diagram.Entity, len(d.Entities))
	copy(placed, d.Entities)
	for i := range placed {
		if p, ok := entities[placed[i].ID]; ok {
			placed[i].Position = p
		}
	}

	return Result{
		Entities:      entities,
		Relationships: e.PlaceMarkers(placed, d.Relationships, center),
	}
}

// Apply returns a copy of d with the positions in r merged in. Ids missing
// from r keep their current position.
func Apply(d *diagram.Diagram, r Result) *diagram.Diagram {
	out := d.Clone()
	for i := range out.Entities {
		ent := &out.Entities[i]
		if p, ok := r.Entities[ent.ID]; ok {
			ent.Position = p
		}
		for j := range ent.Attributes {
			if p, ok := r.Attributes[ent.Attributes[j].ID]; ok {
				ent.Attributes[j].Position = p
			}
		}
	}
	for i := range out.Relationships {
		if p, ok := r.Relationships[out.Relationships[i].ID]; ok {
			out.Relationships[i].Position = p
		}
	}
	return out
}

// entityNode converts an entity to a collision node, substituting fallback
// for a non-finite position.
func (e *Engine) entityNode(ent diagram.Entity, fallback geometry.Point) diagram.Node {
	pos := ent.Position
	if !pos.IsFinite() {
		pos = fallback.Sub(e.cfg.EntitySize.Half())
	}
	return diagram.Node{ID: ent.ID, Kind: diagram.KindEntity, Position: pos, Size: e.cfg.EntitySize}
}

// sanitizeCenter guards against a non-finite viewport center.
func sanitizeCenter(c geometry.Point) geometry.Point {
	if !c.IsFinite() {
		return geometry.Point{}
	}
	return c
}
