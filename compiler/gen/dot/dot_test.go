package dot

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/schemaviz"
	"github.com/syssam/schemaviz/compiler/gen"
	"github.com/syssam/schemaviz/schema"
)

func graph(t *testing.T, opts []gen.Option, srcs ...string) *gen.Graph {
	t.Helper()
	docs := make([]*schema.Document, 0, len(srcs))
	for _, s := range srcs {
		d, err := schema.DecodeJSON([]byte(s))
		require.NoError(t, err)
		docs = append(docs, d)
	}
	g, err := gen.NewGraph(docs, opts...)
	require.NoError(t, err)
	return g
}

const (
	contact = `{
		"$id": "data://contact.biz/model/1/contact",
		"title": "Contact",
		"properties": {"contactId": {"type": "string"}}
	}`
	contactDetails = `{
		"$id": "data://contact.biz/model/1/contact-details",
		"properties": {
			"contactId": {"$ref": "data://contact.biz/model/1/contact#/properties/contactId"}
		}
	}`
)

func TestText(t *testing.T) {
	g := graph(t, nil, contact, contactDetails)

	want := `digraph schemas {
  graph [rankdir=TB, fontname="Helvetica", fontsize=12, nodesep=0.4, ranksep=0.6];
  node [shape=record, style="rounded,filled", fillcolor="#ffffff", color="#555555", fontname="Helvetica", fontsize=10];
  edge [color="#666666", fontname="Helvetica", fontsize=9];

  subgraph cluster_contact_biz {
    label="contact.biz";
    style="rounded";
    color="#999999";
    "contact_biz_contact" [label="{Contact|contactId: string\l}"];
    "contact_biz_contact_details" [label="{contact-details|contactId: ref\l}"];
  }

  "contact_biz_contact_details" -> "contact_biz_contact" [label="contactId"];

  "contact_biz_contact_details" [fillcolor="#ffcccc", color="#ff0000"];
}
`
	assert.Equal(t, want, Text(g))
}

func TestTextDetails(t *testing.T) {
	t.Run("no anchors and no layout chain", func(t *testing.T) {
		out := Text(graph(t, nil, contact, `{"$id":"data://acct.biz/model/1/account"}`))
		assert.NotContains(t, out, "anchor")
		assert.Contains(t, out, "subgraph cluster_acct_biz {")
		assert.Less(t, strings.Index(out, "cluster_acct_biz"), strings.Index(out, "cluster_contact_biz"))
	})

	t.Run("entity without attributes", func(t *testing.T) {
		out := Text(graph(t, nil, `{"$id":"data://a/model/1/empty","title":"Empty"}`))
		assert.Contains(t, out, `"a_empty" [label="{Empty}"];`)
	})

	t.Run("record metacharacters escaped", func(t *testing.T) {
		out := Text(graph(t, nil, `{
			"$id": "data://a/model/1/m",
			"title": "A {b} <c> \"d\"",
			"properties": {"x": {"type": ["string", "null"]}}
		}`))
		assert.Contains(t, out, `"a_m" [label="{A \{b\} \<c\> \"d\"|x: string\|null\l}"];`)
	})

	t.Run("left to right drops braces", func(t *testing.T) {
		out := Text(graph(t, []gen.Option{gen.WithOrientation(gen.LeftRight)}, contact))
		assert.Contains(t, out, "graph [rankdir=LR,")
		assert.Contains(t, out, `"contact_biz_contact" [label="Contact|contactId: string\l"];`)
	})

	t.Run("domain starting with a digit", func(t *testing.T) {
		out := Text(graph(t, nil,
			`{"$id":"data://1.biz/model/1/account","properties":{"id":{"type":"string"}}}`,
			`{"$id":"data://1.biz/model/1/ledger","properties":{"account":{"$ref":"data://1.biz/model/1/account"}}}`,
		))
		assert.Contains(t, out, `    "1_biz_account" [label="{account|id: string\l}"];`)
		assert.Contains(t, out, `  "1_biz_ledger" -> "1_biz_account" [label="account"];`)
		assert.Contains(t, out, `  "1_biz_ledger" [fillcolor="#ffcccc", color="#ff0000"];`)
		for _, line := range strings.Split(out, "\n") {
			trimmed := strings.TrimSpace(line)
			assert.False(t, strings.HasPrefix(trimmed, "1"), "unquoted node id in %q", line)
		}
	})

	t.Run("no highlight section without refs", func(t *testing.T) {
		out := Text(graph(t, nil, contact))
		assert.NotContains(t, out, "->")
		assert.NotContains(t, out, `fillcolor="#ffcccc"`)
	})
}

func TestRenderer(t *testing.T) {
	r := New()
	assert.Equal(t, "dot", r.Name())
	g := graph(t, nil, contact)
	out, err := r.Render(g)
	require.NoError(t, err)
	assert.Equal(t, Text(g), string(out))

	var _ gen.Renderer = r
}

func TestGraphvizErrors(t *testing.T) {
	t.Run("unsupported format", func(t *testing.T) {
		_, err := Graphviz{}.Rasterize(context.Background(), "bmp", nil)
		require.Error(t, err)
		assert.True(t, gen.IsConfigError(err))
	})

	t.Run("missing binary", func(t *testing.T) {
		gv := Graphviz{Binary: "schemaviz-no-such-dot"}
		assert.False(t, gv.Available())
		_, err := gv.Rasterize(context.Background(), "png", []byte("digraph {}"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, schemaviz.ErrRenderTool))
		assert.True(t, errors.Is(err, exec.ErrNotFound))
	})

	t.Run("non-zero exit carries stderr", func(t *testing.T) {
		if _, err := exec.LookPath("sh"); err != nil {
			t.Skip("sh not available")
		}
		_, err := Graphviz{Binary: "sh"}.Transform("svg")(context.Background(), nil)
		require.Error(t, err)
		var toolErr *schemaviz.RenderToolError
		require.True(t, errors.As(err, &toolErr))
		assert.Equal(t, "sh", toolErr.Tool)
		assert.Equal(t, []string{"-Tsvg"}, toolErr.Args)
		assert.NotEmpty(t, toolErr.Stderr)
	})
}

func TestGraphvizRasterize(t *testing.T) {
	gv := Graphviz{}
	if !gv.Available() {
		t.Skip("graphviz dot not installed")
	}
	out, err := gv.Rasterize(context.Background(), "svg", []byte(Text(graph(t, nil, contact, contactDetails))))
	require.NoError(t, err)
	assert.True(t, bytes.Contains(out, []byte("<svg")))
	assert.True(t, bytes.Contains(out, []byte("contactId")))
}
