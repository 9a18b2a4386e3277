package gen

import (
	"slices"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/syssam/schemaviz"
	"github.com/syssam/schemaviz/schema"
)

type (
	// Graph holds the diagram model built from a set of schema documents.
	// Renderers walk it; it is never mutated after NewGraph returns.
	Graph struct {
		*Config
		// Entities in input order.
		Entities []*Entity
		// Domains in lexicographic order of their names.
		Domains []*Domain
		// Edges are the resolved references, in document order then
		// property order.
		Edges []*Edge
		// Index resolves references against the loaded schemas.
		Index Index
		// Skipped lists documents left out because of malformed identifiers.
		Skipped []*SchemaError
		// Collisions lists distinct schemas sharing a node id. Only
		// recorded with CollisionWarn.
		Collisions []*Collision
	}

	// Domain groups the entities of one domain.
	Domain struct {
		Name string
		// GroupID is the sanitized domain name, safe as a graph identifier.
		GroupID string
		// Entities in input order.
		Entities []*Entity
	}

	// Entity is the diagram node of one schema document.
	Entity struct {
		*Meta
		Doc         *schema.Document
		Attributes  []*Attribute
		Refs        []*Ref
		Highlighted bool
	}

	// Attribute is one "<name>: <type>" line of an entity label.
	Attribute struct {
		Name string
		Type string
	}

	// Ref is a $ref found under a field of an entity.
	Ref struct {
		// Field is the property path, with "[]" segments removed.
		Field string
		// Target is the raw $ref value.
		Target string
		// To is the resolved schema, nil when the target is not loaded.
		To *Meta
	}

	// Edge is a resolved reference between two entities.
	Edge struct {
		From  *Meta
		To    *Meta
		Label string
	}

	// Collision reports two different schemas normalizing to one node id.
	Collision struct {
		NodeID string
		First  *Meta
		Second *Meta
	}
)

// NewGraph builds the diagram model of docs.
//
// Documents without an identifier are left out silently. Documents with a
// malformed identifier are skipped and recorded in Skipped, unless the
// config is strict, in which case the first one fails the build.
func NewGraph(docs []*schema.Document, opts ...Option) (*Graph, error) {
	c, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return c.Build(docs)
}

// Build builds the diagram model of docs with this config.
func (c *Config) Build(docs []*schema.Document) (*Graph, error) {
	log := c.logger()
	g := &Graph{Config: c, Index: make(Index)}
	byNodeID := make(map[string]*Meta)
	for _, doc := range docs {
		m, err := ExtractMeta(doc)
		if err != nil {
			serr := NewSchemaError(doc.Source, doc.Identifier(), "malformed identifier", err)
			if c.Strict {
				return nil, serr
			}
			log.Warn("skipping schema with bad id",
				zap.String("id", doc.Identifier()),
				zap.String("source", doc.Source),
				zap.Error(err),
			)
			g.Skipped = append(g.Skipped, serr)
			continue
		}
		if m == nil {
			continue
		}
		if prev, ok := byNodeID[m.NodeID]; ok && prev.Key() != m.Key() {
			if err := g.collide(prev, m); err != nil {
				return nil, err
			}
		}
		byNodeID[m.NodeID] = m
		g.Index.Add(m)
		g.Entities = append(g.Entities, &Entity{Meta: m, Doc: doc})
	}
	g.group()
	for _, e := range g.Entities {
		c.describe(e)
		for _, r := range e.Refs {
			r.To, _ = g.Index.Resolve(r.Target)
			if r.To == nil {
				continue
			}
			e.Highlighted = true
			g.Edges = append(g.Edges, &Edge{From: e.Meta, To: r.To, Label: r.Field})
		}
	}
	return g, nil
}

func (g *Graph) collide(first, second *Meta) error {
	switch g.OnCollision {
	case CollisionError:
		return schemaviz.NewCollisionError(second.NodeID, first.ID, second.ID)
	case CollisionWarn:
		g.logger().Warn("node id collision",
			zap.String("node_id", second.NodeID),
			zap.String("first", first.ID),
			zap.String("second", second.ID),
		)
		g.Collisions = append(g.Collisions, &Collision{NodeID: second.NodeID, First: first, Second: second})
	}
	return nil
}

func (g *Graph) group() {
	byName := make(map[string]*Domain)
	for _, e := range g.Entities {
		d, ok := byName[e.Domain]
		if !ok {
			d = &Domain{Name: e.Domain, GroupID: Sanitize(e.Domain)}
			byName[e.Domain] = d
			g.Domains = append(g.Domains, d)
		}
		d.Entities = append(d.Entities, e)
	}
	sort.Slice(g.Domains, func(i, j int) bool {
		return g.Domains[i].Name < g.Domains[j].Name
	})
}

// describe fills the attributes and references of e.
func (c *Config) describe(e *Entity) {
	var refs []*Ref
	c.collectAttributes(e.Doc.Properties, "", &e.Attributes, &refs)
	seen := make(map[[2]string]bool, len(refs))
	for _, r := range refs {
		r.Field = strings.ReplaceAll(r.Field, "[]", "")
		key := [2]string{r.Field, r.Target}
		if seen[key] {
			continue
		}
		seen[key] = true
		e.Refs = append(e.Refs, r)
	}
}

func (c *Config) collectAttributes(props schema.Properties, prefix string, attrs *[]*Attribute, refs *[]*Ref) {
	for _, np := range props {
		path := np.Name
		if prefix != "" {
			path = prefix + "." + np.Name
		}
		*attrs = append(*attrs, &Attribute{Name: path, Type: c.typeLabel(np.Property)})
		if c.DeepRefs {
			collectRefs(np.Property, path, refs)
		} else if np.Kind == schema.KindRef && np.Ref != "" {
			*refs = append(*refs, &Ref{Field: path, Target: np.Ref})
		}
		if !c.Flatten {
			continue
		}
		switch p := np.Property; {
		case isType(p, "object") && len(p.Properties) > 0:
			c.collectAttributes(p.Properties, path, attrs, refs)
		case isType(p, "array") && isType(p.Items, "object") && len(p.Items.Properties) > 0:
			c.collectAttributes(p.Items.Properties, path+"[]", attrs, refs)
		}
	}
}

func (c *Config) typeLabel(p *schema.Property) string {
	if c.DetailedTypes {
		return DetailedTypeLabel(p)
	}
	return TypeLabel(p)
}

// collectRefs appends every string $ref under p to refs, attributed to
// path: p itself, array items, nested properties and composition members.
func collectRefs(p *schema.Property, path string, refs *[]*Ref) {
	if p == nil {
		return
	}
	if p.Kind == schema.KindRef && p.Ref != "" {
		*refs = append(*refs, &Ref{Field: path, Target: p.Ref})
	}
	if isType(p, "array") {
		collectRefs(p.Items, path, refs)
	}
	for _, np := range p.Properties {
		child := np.Name
		if path != "" {
			child = path + "." + np.Name
		}
		collectRefs(np.Property, child, refs)
	}
	for _, list := range [][]*schema.Property{p.AllOf, p.AnyOf, p.OneOf} {
		for _, sub := range list {
			collectRefs(sub, path, refs)
		}
	}
}

// HighlightedNodeIDs returns the node ids of highlighted entities, sorted
// and without duplicates.
func (g *Graph) HighlightedNodeIDs() []string {
	var ids []string
	for _, e := range g.Entities {
		if e.Highlighted {
			ids = append(ids, e.NodeID)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

// Entity returns the entity of the given "<domain>/<model>" key, following
// the same last-write-wins rule as the index.
func (g *Graph) Entity(key string) *Entity {
	m, ok := g.Index[key]
	if !ok {
		return nil
	}
	for _, e := range g.Entities {
		if e.Meta == m {
			return e
		}
	}
	return nil
}
