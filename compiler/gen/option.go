package gen

import (
	"errors"
	"strings"

	"go.uber.org/zap"
)

// Option configures graph building and rendering.
type Option func(*Config) error

// WithOrientation sets the layout direction.
// Supported values: "TB" (top to bottom) and "LR" (left to right).
func WithOrientation(o Orientation) Option {
	return func(c *Config) error {
		switch Orientation(strings.ToUpper(string(o))) {
		case TopBottom:
			c.Orientation = TopBottom
		case LeftRight:
			c.Orientation = LeftRight
		default:
			return NewConfigError("Orientation", o, "unsupported orientation; use TB or LR")
		}
		return nil
	}
}

// WithDetailedTypes enables array<item> and enum type labels.
func WithDetailedTypes(enabled bool) Option {
	return func(c *Config) error {
		c.DetailedTypes = enabled
		return nil
	}
}

// WithFlatten lists nested object properties as dotted attributes.
func WithFlatten(enabled bool) Option {
	return func(c *Config) error {
		c.Flatten = enabled
		return nil
	}
}

// WithDeepRefs collects $ref values nested below top-level properties.
func WithDeepRefs(enabled bool) Option {
	return func(c *Config) error {
		c.DeepRefs = enabled
		return nil
	}
}

// WithStrict makes a malformed identifier fail the whole build.
func WithStrict(enabled bool) Option {
	return func(c *Config) error {
		c.Strict = enabled
		return nil
	}
}

// WithCollisionPolicy sets how node id collisions are handled.
// Supported policies: "ignore", "warn", "error".
func WithCollisionPolicy(p CollisionPolicy) Option {
	return func(c *Config) error {
		switch p {
		case CollisionIgnore, CollisionWarn, CollisionError:
			c.OnCollision = p
		case "":
			c.OnCollision = CollisionIgnore
		default:
			return NewConfigError("OnCollision", p, "unsupported policy; use ignore, warn, or error")
		}
		return nil
	}
}

// WithHighlight sets the colors of entities with resolvable references.
func WithHighlight(fill, stroke string) Option {
	return func(c *Config) error {
		if fill == "" || stroke == "" {
			return NewConfigError("Highlight", nil, "fill and stroke colors cannot be empty")
		}
		c.Highlight = Highlight{Fill: fill, Stroke: stroke}
		return nil
	}
}

// WithLogger sets the logger used for warnings.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config from the defaults and the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := DefaultConfig()
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
