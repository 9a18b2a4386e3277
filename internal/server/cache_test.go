package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/schemaviz"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	v, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, c.Set(ctx, "diagram:mermaid:TB:", []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, "diagram:dot:TB:", []byte("b"), 0))
	require.NoError(t, c.Set(ctx, "snapshot:json:TB:", []byte("c"), time.Second))

	v, err = c.Get(ctx, "diagram:mermaid:TB:")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), v)

	now = now.Add(time.Second)
	v, err = c.Get(ctx, "snapshot:json:TB:")
	require.NoError(t, err)
	assert.Nil(t, v, "expired")
	assert.Equal(t, 2, c.Len())

	now = now.Add(time.Hour)
	v, err = c.Get(ctx, "diagram:dot:TB:")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), v, "zero ttl never expires")

	require.NoError(t, c.DeletePrefix(ctx, "diagram:"))
	assert.Equal(t, 0, c.Len())

	require.NoError(t, c.Set(ctx, "x", []byte("x"), 0))
	require.NoError(t, c.Delete(ctx, "x"))
	assert.Equal(t, 0, c.Len())

	require.NoError(t, c.Set(ctx, "y", []byte("y"), 0))
	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Len())
}

func TestMsgpackRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	key := schemaviz.CacheKey{Kind: "image", Format: "svg", Orientation: "LR", Options: []string{"flatten"}}

	var got artifact
	ok, err := fetch(ctx, c, key, &got)
	require.NoError(t, err)
	assert.False(t, ok)

	want := artifact{ContentType: "image/svg+xml", Body: []byte("<svg/>")}
	require.NoError(t, keep(ctx, c, key, &want, 0))
	ok, err = fetch(ctx, c, key, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, c.Set(ctx, key.String(), []byte{0xc1}, 0))
	_, err = fetch(ctx, c, key, &got)
	assert.Error(t, err)
}
