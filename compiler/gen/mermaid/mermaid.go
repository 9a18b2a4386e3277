// Package mermaid renders a schema graph as a Mermaid flowchart.
package mermaid

import (
	"context"
	"fmt"
	"strings"

	"github.com/syssam/schemaviz/compiler/gen"
)

const (
	// DefaultTitle is the heading of markdown output.
	DefaultTitle = "Schema Relationship Diagram"

	// separator is drawn between the entity title and its attributes.
	separator = "──────────────"

	classRefEntity = "refEntity"
)

// Renderer emits Mermaid flowchart text.
type Renderer struct{}

// New returns a Mermaid renderer.
func New() *Renderer { return &Renderer{} }

// Name implements gen.Renderer.
func (*Renderer) Name() string { return "mermaid" }

// Render implements gen.Renderer. It never fails.
func (*Renderer) Render(g *gen.Graph) ([]byte, error) {
	return []byte(Text(g)), nil
}

// Text returns the flowchart for g. Lines are joined with "\n" and the
// text has no trailing newline.
func Text(g *gen.Graph) string {
	w := &writer{}
	w.line("flowchart %s", orientation(g))

	for _, d := range g.Domains {
		anchor := anchorID(d)
		w.line("")
		w.line("  subgraph %s [%s]", d.GroupID, d.Name)
		w.line(`    %s["%s"]`, anchor, escape(d.Name))
		for _, e := range d.Entities {
			w.line(`    %s["%s"]`, e.NodeID, escape(label(e)))
			w.line("    %s --> %s", anchor, e.NodeID)
		}
		w.line("  end")
	}

	w.line("")
	w.line("  %%%% Layout chain to stack domains vertically")
	for i := 1; i < len(g.Domains); i++ {
		w.line("  %s --> %s", anchorID(g.Domains[i-1]), anchorID(g.Domains[i]))
	}

	w.line("")
	w.line("  %%%% Relationships (foreign keys via $ref)")
	for _, e := range g.Edges {
		w.line("  %s -->|%s| %s", e.From.NodeID, escapeEdge(e.Label), e.To.NodeID)
	}

	if ids := g.HighlightedNodeIDs(); len(ids) > 0 {
		w.line("")
		w.line("  %%%% Highlight entities with resolvable $ref as red boxes")
		w.line("  classDef %s fill:%s,stroke:%s,stroke-width:1px;", classRefEntity, g.Highlight.Fill, g.Highlight.Stroke)
		for _, id := range ids {
			w.line("  class %s %s", id, classRefEntity)
		}
	}
	return w.String()
}

// Markdown returns a transform embedding the diagram in a markdown
// document under a level-one heading. An empty title uses DefaultTitle.
func Markdown(title string) gen.Transform {
	if title == "" {
		title = DefaultTitle
	}
	return func(_ context.Context, in []byte) ([]byte, error) {
		var b strings.Builder
		b.WriteString("# ")
		b.WriteString(title)
		b.WriteString("\n\n```mermaid\n")
		b.Write(in)
		b.WriteString("\n```")
		return []byte(b.String()), nil
	}
}

func orientation(g *gen.Graph) gen.Orientation {
	if g.Config == nil || g.Orientation == "" {
		return gen.TopBottom
	}
	return g.Orientation
}

func anchorID(d *gen.Domain) string {
	return d.GroupID + "_anchor"
}

// label joins the entity title, the separator and one line per attribute.
func label(e *gen.Entity) string {
	lines := make([]string, 0, len(e.Attributes)+2)
	lines = append(lines, e.Title, separator)
	for _, a := range e.Attributes {
		lines = append(lines, a.Name+": "+a.Type)
	}
	return strings.Join(lines, "<br/>")
}

// escape replaces double quotes, which end a quoted node label, with the
// Mermaid entity code.
var escape = strings.NewReplacer(`"`, "#quot;").Replace

// escapeEdge additionally encodes the pipe that delimits edge labels.
var escapeEdge = strings.NewReplacer(`"`, "#quot;", "|", "#124;").Replace

type writer struct {
	lines []string
}

func (w *writer) line(format string, args ...any) {
	w.lines = append(w.lines, fmt.Sprintf(format, args...))
}

func (w *writer) String() string {
	return strings.Join(w.lines, "\n")
}
