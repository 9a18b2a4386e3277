// Package dot renders a schema graph in the Graphviz DOT language and
// rasterizes DOT text with the Graphviz binary.
package dot

import (
	"fmt"
	"strings"

	"github.com/syssam/schemaviz/compiler/gen"
)

// Renderer emits DOT text with one cluster per domain and one record
// node per entity.
type Renderer struct{}

// New returns a DOT renderer.
func New() *Renderer { return &Renderer{} }

// Name implements gen.Renderer.
func (*Renderer) Name() string { return "dot" }

// Render implements gen.Renderer. It never fails.
func (*Renderer) Render(g *gen.Graph) ([]byte, error) {
	return []byte(Text(g)), nil
}

// Text returns the digraph for g. Node ids are always quoted: sanitized
// ids may start with a digit, which DOT only accepts unquoted for numerals.
func Text(g *gen.Graph) string {
	var b strings.Builder
	rankdir := orientation(g)
	b.WriteString("digraph schemas {\n")
	fmt.Fprintf(&b, "  graph [rankdir=%s, fontname=\"Helvetica\", fontsize=12, nodesep=0.4, ranksep=0.6];\n", rankdir)
	b.WriteString("  node [shape=record, style=\"rounded,filled\", fillcolor=\"#ffffff\", color=\"#555555\", fontname=\"Helvetica\", fontsize=10];\n")
	b.WriteString("  edge [color=\"#666666\", fontname=\"Helvetica\", fontsize=9];\n")

	for _, d := range g.Domains {
		b.WriteString("\n")
		fmt.Fprintf(&b, "  subgraph cluster_%s {\n", d.GroupID)
		fmt.Fprintf(&b, "    label=%s;\n", quoteText(d.Name))
		b.WriteString("    style=\"rounded\";\n")
		b.WriteString("    color=\"#999999\";\n")
		for _, e := range d.Entities {
			fmt.Fprintf(&b, "    %s [label=%s];\n", quote(e.NodeID), quote(record(e, rankdir)))
		}
		b.WriteString("  }\n")
	}

	if len(g.Edges) > 0 {
		b.WriteString("\n")
		for _, e := range g.Edges {
			fmt.Fprintf(&b, "  %s -> %s [label=%s];\n", quote(e.From.NodeID), quote(e.To.NodeID), quoteText(e.Label))
		}
	}

	if ids := g.HighlightedNodeIDs(); len(ids) > 0 {
		b.WriteString("\n")
		for _, id := range ids {
			fmt.Fprintf(&b, "  %s [fillcolor=%s, color=%s];\n", quote(id), quote(g.Highlight.Fill), quote(g.Highlight.Stroke))
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func orientation(g *gen.Graph) gen.Orientation {
	if g.Config == nil || g.Orientation == "" {
		return gen.TopBottom
	}
	return g.Orientation
}

// record returns the record label of e: the title field followed by one
// field holding the left-justified attribute lines. Under TB the braces
// flip the record so its fields stack vertically; under LR they already do.
func record(e *gen.Entity, rankdir gen.Orientation) string {
	var b strings.Builder
	b.WriteString(escapeRecord(e.Title))
	if len(e.Attributes) > 0 {
		b.WriteString("|")
		for _, a := range e.Attributes {
			b.WriteString(escapeRecord(a.Name + ": " + a.Type))
			b.WriteString(`\l`)
		}
	}
	if rankdir == gen.LeftRight {
		return b.String()
	}
	return "{" + b.String() + "}"
}

// escapeRecord escapes the characters that structure record labels.
var escapeRecord = strings.NewReplacer(
	`\`, `\\`,
	"{", `\{`,
	"}", `\}`,
	"|", `\|`,
	"<", `\<`,
	">", `\>`,
).Replace

// quote returns s as a DOT double-quoted string. Backslashes are kept so
// that record escapes and \l line breaks reach Graphviz unchanged.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// quoteText quotes a plain label, escaping its backslashes.
func quoteText(s string) string {
	return quote(strings.ReplaceAll(s, `\`, `\\`))
}
