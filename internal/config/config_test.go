package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/schemaviz/compiler/gen"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"examples", "codification", "docs"}, cfg.SchemaDirs)
	assert.Equal(t, DefaultDevOrigins, cfg.AllowOrigins)
	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce)
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name  string
		vars  map[string]string
		check func(t *testing.T, c *Config)
	}{
		{
			name: "schema dirs trimmed",
			vars: map[string]string{EnvSchemaDirs: " examples, more_examples ,,"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, []string{"examples", "more_examples"}, c.SchemaDirs)
			},
		},
		{
			name: "origins",
			vars: map[string]string{EnvAllowOrigins: "http://localhost:5173"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, []string{"http://localhost:5173"}, c.AllowOrigins)
			},
		},
		{
			name: "port",
			vars: map[string]string{EnvPort: "8080"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, ":8080", c.Addr)
			},
		},
		{
			name: "addr wins over port",
			vars: map[string]string{EnvPort: "8080", EnvAddr: "127.0.0.1:9000"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "127.0.0.1:9000", c.Addr)
			},
		},
		{
			name: "log level and graphviz",
			vars: map[string]string{EnvLogLevel: "DEBUG", EnvGraphviz: "/opt/graphviz/bin/dot"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "debug", c.LogLevel)
				assert.Equal(t, "/opt/graphviz/bin/dot", c.Graphviz)
			},
		},
		{
			name: "empty keeps defaults",
			vars: nil,
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, Default(), c)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			c.ApplyEnv(env(tt.vars))
			tt.check(t, c)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("overlay", func(t *testing.T) {
		path := filepath.Join(dir, "schemaviz.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
schema_dirs: [schemas]
orientation: LR
flatten: true
collisions: warn
outputs:
  - out/schema_graph.md
  - dot:out/schema_graph.dot
cache_ttl: 5m
`), 0o644))

		c := Default()
		require.NoError(t, c.LoadFile(path))
		require.NoError(t, c.Validate())
		assert.Equal(t, []string{"schemas"}, c.SchemaDirs)
		assert.Equal(t, "LR", c.Orientation)
		assert.True(t, c.Flatten)
		assert.Equal(t, 5*time.Minute, c.CacheTTL)
		assert.Len(t, c.Outputs, 2)
		assert.Equal(t, ":3000", c.Addr)
	})

	t.Run("lower case orientation", func(t *testing.T) {
		path := filepath.Join(dir, "lower.yaml")
		require.NoError(t, os.WriteFile(path, []byte("orientation: lr\n"), 0o644))
		c := Default()
		require.NoError(t, c.LoadFile(path))
		require.NoError(t, c.Validate())
		assert.Equal(t, "LR", c.Orientation)
	})

	t.Run("unknown key", func(t *testing.T) {
		path := filepath.Join(dir, "typo.yaml")
		require.NoError(t, os.WriteFile(path, []byte("schema_dir: [x]\n"), 0o644))
		err := Default().LoadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema_dir")
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		require.NoError(t, os.WriteFile(path, nil, 0o644))
		require.NoError(t, Default().LoadFile(path))
	})

	t.Run("missing file", func(t *testing.T) {
		require.Error(t, Default().LoadFile(filepath.Join(dir, "nope.yaml")))
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"orientation", func(c *Config) { c.Orientation = "BT" }, "orientation"},
		{"collisions", func(c *Config) { c.Collisions = "merge" }, "collisions"},
		{"no schema dirs", func(c *Config) { c.SchemaDirs = nil }, "schema_dirs"},
		{"blank schema dir", func(c *Config) { c.SchemaDirs = []string{""} }, "schema_dirs[0]"},
		{"log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"color", func(c *Config) { c.HighlightFill = "red" }, "highlight_fill"},
		{"negative debounce", func(c *Config) { c.Debounce = -time.Second }, "debounce"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestOptions(t *testing.T) {
	c := Default()
	c.Orientation = "LR"
	c.DeepRefs = true
	c.Collisions = "error"

	g, err := gen.NewConfig(c.GraphOptions()...)
	require.NoError(t, err)
	assert.Equal(t, gen.LeftRight, g.Orientation)
	assert.True(t, g.DeepRefs)
	assert.Equal(t, gen.CollisionError, g.OnCollision)
	assert.Equal(t, gen.DefaultHighlight, g.Highlight)

	assert.Len(t, c.LoadOptions(), 1)
}

func TestLoad(t *testing.T) {
	t.Setenv(EnvSchemaDirs, "a,b")
	t.Setenv(EnvAddr, "")
	t.Setenv(EnvPort, "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, cfg.SchemaDirs)
}
