package gen

import (
	"go.uber.org/zap"
)

// Orientation is the main layout direction of a diagram.
type Orientation string

// Supported orientations.
const (
	TopBottom Orientation = "TB"
	LeftRight Orientation = "LR"
)

// CollisionPolicy decides what happens when two different schemas
// normalize to the same node id.
type CollisionPolicy string

// Collision policies.
const (
	// CollisionIgnore keeps the last schema in lookups without reporting.
	CollisionIgnore CollisionPolicy = "ignore"
	// CollisionWarn logs and records each collision.
	CollisionWarn CollisionPolicy = "warn"
	// CollisionError fails the graph build.
	CollisionError CollisionPolicy = "error"
)

// Highlight holds the colors used for entities with resolvable references.
type Highlight struct {
	Fill   string
	Stroke string
}

// DefaultHighlight is a light red fill with a red border.
var DefaultHighlight = Highlight{Fill: "#ffcccc", Stroke: "#ff0000"}

// Config holds the graph building and rendering settings.
type Config struct {
	// Orientation of the diagram (TB or LR).
	Orientation Orientation
	// DetailedTypes renders array<item> and enum labels.
	DetailedTypes bool
	// Flatten lists nested object properties as "parent.child" attributes.
	Flatten bool
	// DeepRefs collects references nested in items, sub-properties and
	// allOf/anyOf/oneOf.
	DeepRefs bool
	// Strict aborts the build on the first schema with a malformed
	// identifier instead of skipping it.
	Strict bool
	// OnCollision selects the node id collision policy.
	OnCollision CollisionPolicy
	// Highlight colors.
	Highlight Highlight
	// Logger receives warnings about skipped schemas and collisions.
	Logger *zap.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Orientation: TopBottom,
		OnCollision: CollisionIgnore,
		Highlight:   DefaultHighlight,
		Logger:      zap.NewNop(),
	}
}

// Switches returns the enabled build switches in a stable order.
// Two configs with the same switches and orientation render the same
// output for the same input.
func (c *Config) Switches() []string {
	var s []string
	if c.DetailedTypes {
		s = append(s, "detailed-types")
	}
	if c.Flatten {
		s = append(s, "flatten")
	}
	if c.DeepRefs {
		s = append(s, "deep-refs")
	}
	if c.Strict {
		s = append(s, "strict")
	}
	return s
}

func (c *Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
