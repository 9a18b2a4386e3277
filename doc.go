// Package schemaviz turns a set of JSON Schema documents into relationship
// diagrams.
//
// Every schema is identified by a structured URI of the form
//
//	data://<domain>/model/<version>/<model-name>
//
// Schemas are grouped by domain, each schema becomes an entity node listing
// its properties, and every property whose $ref points at another schema
// of the same input set becomes a labeled edge.
//
// # Packages
//
//   - schema: decoded schema documents and the property sum type
//   - compiler/load: reading documents from files, directories and fs.FS
//   - compiler/gen: identifier parsing, the graph model, renderers and writer
//   - compiler/gen/mermaid: Mermaid flowchart output and markdown wrapping
//   - compiler/gen/dot: Graphviz DOT output and image rasterization
//   - compiler: one-call load, build and write
//   - cmd/schemaviz: the generate, watch and serve commands
//
// This package holds the errors and the cache contract shared by all of
// them.
//
// # Error Handling
//
//	c := &compiler.Config{Graph: []gen.Option{gen.WithCollisionPolicy(gen.CollisionError)}}
//	g, _, err := c.LoadGraph(paths)
//	switch {
//	case errors.Is(err, schemaviz.ErrNoSchemas):
//	    // nothing usable was found
//	case schemaviz.IsCollisionError(err):
//	    // two schemas share a node id
//	}
package schemaviz
