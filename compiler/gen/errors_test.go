package gen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		cause := errors.New("underlying error")
		err := NewSchemaError("schemas/a.json", "data://x", "malformed identifier", cause)

		assert.Contains(t, err.Error(), "schemaviz: schema error")
		assert.Contains(t, err.Error(), "in schemas/a.json")
		assert.Contains(t, err.Error(), `(id "data://x")`)
		assert.Contains(t, err.Error(), "malformed identifier")
		assert.Contains(t, err.Error(), "underlying error")
	})

	t.Run("Error message without source", func(t *testing.T) {
		err := &SchemaError{ID: "bad"}
		assert.Equal(t, `schemaviz: schema error (id "bad")`, err.Error())
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("root cause")
		err := NewSchemaError("", "", "", cause)

		assert.Equal(t, cause, err.Unwrap())
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("Is matches ErrInvalidSchema", func(t *testing.T) {
		err := NewSchemaError("", "x", "", nil)
		assert.True(t, errors.Is(err, ErrInvalidSchema))
		assert.False(t, errors.Is(err, ErrMissingConfig))
	})

	t.Run("IsSchemaError helper", func(t *testing.T) {
		assert.True(t, IsSchemaError(NewSchemaError("", "x", "test", nil)))
		assert.False(t, IsSchemaError(errors.New("other")))
	})
}

func TestConfigError(t *testing.T) {
	t.Run("Error message with value", func(t *testing.T) {
		err := NewConfigError("Orientation", "BT", "unsupported orientation")

		assert.Equal(t, `schemaviz: config error for "Orientation" (value: BT): unsupported orientation`, err.Error())
	})

	t.Run("Error message without value", func(t *testing.T) {
		err := NewConfigError("Logger", nil, "logger cannot be nil")

		assert.Equal(t, `schemaviz: config error for "Logger": logger cannot be nil`, err.Error())
	})

	t.Run("Is matches ErrMissingConfig", func(t *testing.T) {
		err := NewConfigError("Logger", nil, "")
		assert.True(t, errors.Is(err, ErrMissingConfig))
		assert.True(t, IsConfigError(err))
	})
}

func TestGenerationError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		cause := errors.New("exit status 1")
		err := NewGenerationError("transform", "out/schemas.png", "dot", cause)

		assert.Equal(t, "schemaviz: generation error in phase transform (file: out/schemas.png): dot: exit status 1", err.Error())
	})

	t.Run("Unwrap and Is", func(t *testing.T) {
		cause := errors.New("disk full")
		err := NewGenerationError("write", "a.mmd", "", cause)

		assert.True(t, errors.Is(err, cause))
		assert.True(t, errors.Is(err, ErrGenerationFailed))
		assert.True(t, IsGenerationError(err))
		assert.False(t, IsGenerationError(cause))
	})
}
