// Package config holds the settings of the schemaviz command and server.
//
// Settings are layered, lowest priority first:
//
//  1. Defaults (Default)
//  2. A YAML file (LoadFile)
//  3. Environment variables (ApplyEnv)
//  4. Command line flags, applied by the caller
//
// Validate should run after the last layer.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/syssam/schemaviz/compiler/gen"
	"github.com/syssam/schemaviz/compiler/load"
)

// Environment variables.
const (
	EnvSchemaDirs   = "SCHEMA_DIRS"
	EnvAllowOrigins = "ALLOW_ORIGINS"
	EnvAddr         = "SCHEMAVIZ_ADDR"
	EnvPort         = "PORT"
	EnvLogLevel     = "SCHEMAVIZ_LOG_LEVEL"
	EnvGraphviz     = "GRAPHVIZ_DOT"
)

// DefaultDevOrigins are the CORS origins allowed when none are configured.
var DefaultDevOrigins = []string{
	"http://localhost:5173",
	"http://127.0.0.1:5173",
	"http://localhost:3000",
	"http://127.0.0.1:3000",
}

// Config is the application configuration.
type Config struct {
	// SchemaDirs are scanned for schema documents.
	SchemaDirs []string `yaml:"schema_dirs" validate:"required,min=1,dive,required"`
	// YAML also loads .yaml/.yml schema files.
	YAML bool `yaml:"yaml"`

	// Diagram settings.
	Orientation   string `yaml:"orientation" validate:"oneof=TB LR"`
	DetailedTypes bool   `yaml:"detailed_types"`
	Flatten       bool   `yaml:"flatten"`
	DeepRefs      bool   `yaml:"deep_refs"`
	Strict        bool   `yaml:"strict"`
	Collisions    string `yaml:"collisions" validate:"oneof=ignore warn error"`
	HighlightFill string `yaml:"highlight_fill" validate:"hexcolor"`
	HighlightLine string `yaml:"highlight_stroke" validate:"hexcolor"`
	Title         string `yaml:"title"`

	// Outputs of the generate and watch commands, "path" or "format:path".
	Outputs []string `yaml:"outputs" validate:"dive,required"`
	// Graphviz is the dot binary used for images.
	Graphviz string `yaml:"graphviz" validate:"required"`

	// Server settings.
	Addr         string        `yaml:"addr" validate:"required"`
	AllowOrigins []string      `yaml:"allow_origins" validate:"dive,required"`
	CacheTTL     time.Duration `yaml:"cache_ttl" validate:"gte=0"`

	// Debounce delays regeneration after file changes in watch mode.
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`

	// Logging.
	LogLevel    string `yaml:"log_level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		SchemaDirs:    []string{"examples", "codification", "docs"},
		Orientation:   string(gen.TopBottom),
		Collisions:    string(gen.CollisionIgnore),
		HighlightFill: gen.DefaultHighlight.Fill,
		HighlightLine: gen.DefaultHighlight.Stroke,
		Graphviz:      "dot",
		Addr:          ":3000",
		AllowOrigins:  append([]string(nil), DefaultDevOrigins...),
		CacheTTL:      time.Minute,
		Debounce:      500 * time.Millisecond,
		LogLevel:      "info",
	}
}

// Load builds the configuration from the defaults, the optional YAML file
// at path and the process environment, and validates it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML file at path. Unknown keys are rejected.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	c.Orientation = strings.ToUpper(c.Orientation)
	return nil
}

// ApplyEnv overlays environment variables read through getenv. List
// values are comma separated; blank entries are dropped. PORT is only
// used when SCHEMAVIZ_ADDR is not set.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvSchemaDirs); v != "" {
		c.SchemaDirs = splitList(v)
	}
	if v := getenv(EnvAllowOrigins); v != "" {
		c.AllowOrigins = splitList(v)
	}
	if v := getenv(EnvAddr); v != "" {
		c.Addr = v
	} else if v := getenv(EnvPort); v != "" {
		c.Addr = ":" + v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := getenv(EnvGraphviz); v != "" {
		c.Graphviz = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report YAML key names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// GraphOptions returns the graph options for the diagram settings.
func (c *Config) GraphOptions() []gen.Option {
	return []gen.Option{
		gen.WithOrientation(gen.Orientation(c.Orientation)),
		gen.WithDetailedTypes(c.DetailedTypes),
		gen.WithFlatten(c.Flatten),
		gen.WithDeepRefs(c.DeepRefs),
		gen.WithStrict(c.Strict),
		gen.WithCollisionPolicy(gen.CollisionPolicy(c.Collisions)),
		gen.WithHighlight(c.HighlightFill, c.HighlightLine),
	}
}

// LoadOptions returns the schema loading options.
func (c *Config) LoadOptions() []load.Option {
	return []load.Option{load.WithYAML(c.YAML)}
}
