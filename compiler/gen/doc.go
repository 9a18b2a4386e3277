// Package gen builds the diagram model of a set of schema documents and
// writes it out through pluggable renderers.
//
// # Architecture
//
// The pipeline follows this flow:
//
//	schema.Document (decoded JSON/YAML)
//	        ↓
//	   ExtractMeta (ParseIdentifier + NodeID + title default)
//	        ↓
//	   Graph (domains, entities, attributes, resolved refs, edges)
//	        ↓
//	   Renderer (mermaid, dot, JSON) + Transforms
//	        ↓
//	   Writer (files or streams, in parallel)
//
// # Key Types
//
//   - Identifier: a parsed data://<domain>/model/<version>/<model> string
//   - Meta: per-schema metadata with the sanitized node id
//   - Index: "<domain>/<model>" lookup used to resolve $ref values
//   - Graph: the model renderers walk
//   - Config: orientation, label and reference modes, collision policy
//
// # Error Handling
//
//   - SchemaError: a document skipped (or rejected in strict mode)
//   - ConfigError: an invalid option
//   - GenerationError: a failed render, transform or write
//
// Example:
//
//	g, err := gen.NewGraph(docs, gen.WithOrientation(gen.LeftRight))
//	if err != nil {
//		return err
//	}
//	for _, skipped := range g.Skipped {
//		log.Println(skipped)
//	}
//	err = gen.NewWriter(g).WriteAll(ctx, gen.Target{
//		Path:     "schemas.mmd",
//		Renderer: mermaid.New(),
//	})
package gen
