package dot

import (
	"bytes"
	"context"
	"os/exec"
	"slices"

	"github.com/syssam/schemaviz"
	"github.com/syssam/schemaviz/compiler/gen"
)

// DefaultBinary is the Graphviz layout program used when none is set.
const DefaultBinary = "dot"

// Formats lists the output formats Rasterize accepts.
var Formats = []string{"png", "svg", "pdf"}

// Graphviz runs DOT text through the Graphviz binary. The zero value uses
// DefaultBinary from PATH.
type Graphviz struct {
	// Binary is the program name or path.
	Binary string
}

// Rasterize pipes src to "<binary> -T<format>" and returns its standard
// output. A missing binary or a non-zero exit is returned as a
// *schemaviz.RenderToolError carrying the tool's stderr.
func (gv Graphviz) Rasterize(ctx context.Context, format string, src []byte) ([]byte, error) {
	if !slices.Contains(Formats, format) {
		return nil, gen.NewConfigError("Format", format, "unsupported image format; use png, svg, or pdf")
	}
	bin := gv.binary()
	args := []string{"-T" + format}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = bytes.NewReader(src)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, schemaviz.NewRenderToolError(bin, args, stderr.String(), err)
	}
	return stdout.Bytes(), nil
}

// Transform returns a gen.Transform rasterizing DOT text to format.
func (gv Graphviz) Transform(format string) gen.Transform {
	return func(ctx context.Context, in []byte) ([]byte, error) {
		return gv.Rasterize(ctx, format, in)
	}
}

// Available reports whether the binary can be found.
func (gv Graphviz) Available() bool {
	_, err := exec.LookPath(gv.binary())
	return err == nil
}

func (gv Graphviz) binary() string {
	if gv.Binary == "" {
		return DefaultBinary
	}
	return gv.Binary
}
