package gen

import (
	"context"
	"encoding/json"
)

// Renderer turns a graph into diagram text.
//
// The Mermaid and DOT renderers never fail; the error return exists for
// renderers that serialize through an encoder.
type Renderer interface {
	// Name returns the format name, e.g. "mermaid" or "dot".
	Name() string
	// Render returns the complete output for g.
	Render(g *Graph) ([]byte, error)
}

// Transform post-processes rendered output, e.g. wrapping it in markdown
// or rasterizing it with an external tool.
type Transform func(ctx context.Context, in []byte) ([]byte, error)

// JSON renders the graph snapshot as indented JSON.
type JSON struct{}

// Name implements Renderer.
func (JSON) Name() string { return "json" }

// Render implements Renderer.
func (JSON) Render(g *Graph) ([]byte, error) {
	out, err := json.MarshalIndent(NewSnapshot(g), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
