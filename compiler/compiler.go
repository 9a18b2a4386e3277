// Package compiler ties loading, graph building and rendering together
// for the command line and the server.
package compiler

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/syssam/schemaviz/compiler/gen"
	"github.com/syssam/schemaviz/compiler/gen/dot"
	"github.com/syssam/schemaviz/compiler/gen/mermaid"
	"github.com/syssam/schemaviz/compiler/load"
)

// Output formats.
const (
	FormatMermaid  = "mermaid"
	FormatMarkdown = "markdown"
	FormatDOT      = "dot"
	FormatJSON     = "json"
	FormatPNG      = "png"
	FormatSVG      = "svg"
	FormatPDF      = "pdf"
)

// Formats lists every supported output format.
var Formats = []string{FormatMermaid, FormatMarkdown, FormatDOT, FormatJSON, FormatPNG, FormatSVG, FormatPDF}

// DefaultOutput is written when no output is requested.
var DefaultOutput = Output{Format: FormatMarkdown, Path: "schema_graph.md"}

// Output is one requested output. An empty Path or "-" writes to stdout.
type Output struct {
	Format string
	Path   string
}

// ParseOutput parses "path", "format:path" or "format:-". Without an
// explicit format it is inferred from the extension.
func ParseOutput(s string) (Output, error) {
	if format, path, ok := strings.Cut(s, ":"); ok && slices.Contains(Formats, format) {
		return Output{Format: format, Path: path}, nil
	}
	format, err := FormatOf(s)
	if err != nil {
		return Output{}, err
	}
	return Output{Format: format, Path: s}, nil
}

// FormatOf infers the output format from a file extension.
func FormatOf(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".mmd", ".mermaid":
		return FormatMermaid, nil
	case ".dot", ".gv":
		return FormatDOT, nil
	case ".json":
		return FormatJSON, nil
	case ".png", ".svg", ".pdf":
		return ext[1:], nil
	default:
		return "", fmt.Errorf("cannot infer output format of %q; use <format>:<path>", path)
	}
}

// Config configures a generation run.
type Config struct {
	// Load options for reading schema files.
	Load []load.Option
	// Graph options for building and rendering the graph.
	Graph []gen.Option
	// Title of markdown output.
	Title string
	// Graphviz rasterizes image outputs.
	Graphviz dot.Graphviz
	// Stdout receives outputs without a path. Defaults to os.Stdout.
	Stdout io.Writer
	// Workers bounds parallel writes; zero means GOMAXPROCS.
	Workers int
	// Logger for progress and warnings.
	Logger *zap.Logger
}

func (c *Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// LoadGraph loads the documents under paths and builds their graph.
// Load warnings are logged and returned in the result; only a load
// without any document is an error.
func (c *Config) LoadGraph(paths []string) (*gen.Graph, *load.Result, error) {
	log := c.logger()
	res, err := load.Paths(paths, append([]load.Option{load.WithLogger(log)}, c.Load...)...)
	if err != nil {
		return nil, res, err
	}
	g, err := gen.NewGraph(res.Documents, append([]gen.Option{gen.WithLogger(log)}, c.Graph...)...)
	if err != nil {
		return nil, res, err
	}
	return g, res, nil
}

// Target returns the writer target producing o from a graph.
func (c *Config) Target(o Output) (gen.Target, error) {
	t := gen.Target{Path: o.Path}
	if o.Path == "" || o.Path == "-" {
		t.Path = ""
		t.Out = c.Stdout
		if t.Out == nil {
			t.Out = os.Stdout
		}
	}
	switch o.Format {
	case FormatMermaid:
		t.Renderer = mermaid.New()
	case FormatMarkdown:
		t.Renderer = mermaid.New()
		t.Transforms = []gen.Transform{mermaid.Markdown(c.Title)}
	case FormatDOT:
		t.Renderer = dot.New()
	case FormatJSON:
		t.Renderer = gen.JSON{}
	case FormatPNG, FormatSVG, FormatPDF:
		t.Renderer = dot.New()
		t.Transforms = []gen.Transform{c.Graphviz.Transform(o.Format)}
	default:
		return gen.Target{}, gen.NewConfigError("Format", o.Format, "unsupported output format")
	}
	return t, nil
}

// Generate loads the documents under paths, builds the graph and writes
// every output. With no outputs DefaultOutput is written.
func Generate(ctx context.Context, c *Config, paths []string, outputs ...Output) (*gen.Graph, error) {
	if len(outputs) == 0 {
		outputs = []Output{DefaultOutput}
	}
	targets := make([]gen.Target, 0, len(outputs))
	for _, o := range outputs {
		t, err := c.Target(o)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	g, _, err := c.LoadGraph(paths)
	if err != nil {
		return nil, err
	}
	w := gen.NewWriter(g).WithWorkers(c.Workers)
	if err := w.WriteAll(ctx, targets...); err != nil {
		return g, err
	}
	c.logger().Info("diagrams written",
		zap.Int("entities", len(g.Entities)),
		zap.Int("edges", len(g.Edges)),
		zap.Int("skipped", len(g.Skipped)),
		zap.Stringer("metrics", w.Metrics()),
	)
	return g, nil
}
