package layout

import (
	"time"

	"erd/geometry"
)

// Config holds every constant the layout engine uses. DefaultConfig returns
// the shipped values; any field may be overridden.
type Config struct {
	EntitySize    geometry.Size `yaml:"entity_size"`
	MarkerSize    geometry.Size `yaml:"marker_size"`
	AttributeSize geometry.Size `yaml:"attribute_size"`

	Entity    EntityConfig    `yaml:"entity"`
	Attribute AttributeConfig `yaml:"attribute"`
	Marker    MarkerConfig    `yaml:"marker"`
	Expansion ExpansionConfig `yaml:"expansion"`
	Stack     StackConfig     `yaml:"stack"`

	// OracleTimeout bounds how long LayoutWithOracle waits for an external layout.
	OracleTimeout time.Duration `yaml:"oracle_timeout" validate:"gte=0"`
}

// EntityConfig drives sequential entity placement.
type EntityConfig struct {
	Spacing           float64 `yaml:"spacing" validate:"gte=0"`            // Buffer added to every side of an entity
	InitialRadius     float64 `yaml:"initial_radius" validate:"gte=0"`     // Spiral radius of the first candidate
	AngleStep         float64 `yaml:"angle_step" validate:"gt=0,lte=360"`  // Degrees between spiral candidates
	RadiusStep        float64 `yaml:"radius_step" validate:"gt=0"`         // Radius gained per full revolution
	MaxCandidates     int     `yaml:"max_candidates" validate:"gte=1"`     // Non-overlapping candidates to score
	MaxAttempts       int     `yaml:"max_attempts" validate:"gte=1"`       // Hard cap on spiral probes per entity
	DistanceTolerance float64 `yaml:"distance_tolerance" validate:"gte=0"` // Distances this close count as tied
}

// AttributeConfig drives radial attribute placement around an entity.
type AttributeConfig struct {
	BaseRadius      float64 `yaml:"base_radius" validate:"gte=0"`
	RadiusIncrement float64 `yaml:"radius_increment" validate:"gte=0"`
	MinRadius       float64 `yaml:"min_radius" validate:"gte=0"`
	MaxRadius       float64 `yaml:"max_radius" validate:"gtefield=MinRadius"`
	Buffer          float64 `yaml:"buffer" validate:"gte=0"`
	MinDistance     float64 `yaml:"min_distance" validate:"gte=0"` // Minimum center-to-center distance

	SpiralAngleStep    float64 `yaml:"spiral_angle_step" validate:"gt=0"`
	SpiralStepsPerRing int     `yaml:"spiral_steps_per_ring" validate:"gte=1"`
	SpiralRadiusStep   float64 `yaml:"spiral_radius_step" validate:"gt=0"`
	SpiralRings        int     `yaml:"spiral_rings" validate:"gte=1"`
}

// MarkerConfig drives relationship marker placement.
type MarkerConfig struct {
	Spacing float64 `yaml:"spacing" validate:"gte=0"`
	// Offsets is the perpendicular ladder tried when the midpoint collides.
	// Each magnitude is tried on the positive side, then the negative side.
	Offsets []float64 `yaml:"offsets" validate:"min=1,dive,gt=0"`
	// SelfLoopOffset places a self-referencing marker relative to its entity's center.
	SelfLoopOffset geometry.Point `yaml:"self_loop_offset"`
}

// ExpansionConfig controls the attribute-visibility scale factor.
type ExpansionConfig struct {
	Base         float64 `yaml:"base" validate:"gt=0"`
	PerAttribute float64 `yaml:"per_attribute" validate:"gte=0"`
	Max          float64 `yaml:"max" validate:"gtefield=Base"`
}

// StackConfig controls the table-view cascade.
type StackConfig struct {
	OffsetX          float64 `yaml:"offset_x"` // Start position relative to the viewport center
	OffsetY          float64 `yaml:"offset_y"`
	HorizontalOffset float64 `yaml:"horizontal_offset"`
	HeaderHeight     float64 `yaml:"header_height" validate:"gt=0"`
}

// DefaultConfig returns the shipped layout constants.
func DefaultConfig() Config {
	return Config{
		EntitySize:    geometry.Size{Width: 180, Height: 70},
		MarkerSize:    geometry.Size{Width: 130, Height: 130},
		AttributeSize: geometry.Size{Width: 140, Height: 36},
		Entity: EntityConfig{
			Spacing:           90,
			InitialRadius:     380,
			AngleStep:         15,
			RadiusStep:        60,
			MaxCandidates:     30,
			MaxAttempts:       2000,
			DistanceTolerance: 5,
		},
		Attribute: AttributeConfig{
			BaseRadius:         140,
			RadiusIncrement:    10,
			MinRadius:          150,
			MaxRadius:          280,
			Buffer:             4,
			MinDistance:        60,
			SpiralAngleStep:    30,
			SpiralStepsPerRing: 12,
			SpiralRadiusStep:   15,
			SpiralRings:        4,
		},
		Marker: MarkerConfig{
			Spacing:        10,
			Offsets:        []float64{80, 120, 180, 250},
			SelfLoopOffset: geometry.Point{X: 0, Y: -150},
		},
		Expansion: ExpansionConfig{
			Base:         1.3,
			PerAttribute: 0.15,
			Max:          3.0,
		},
		Stack: StackConfig{
			OffsetX:          -320,
			OffsetY:          -240,
			HorizontalOffset: 30,
			HeaderHeight:     44,
		},
		OracleTimeout: 5 * time.Second,
	}
}
