package gen

import (
	"github.com/syssam/schemaviz/schema"
)

// Meta is the per-schema information the graph is built from.
type Meta struct {
	// ID is the raw identifier string.
	ID      string
	Domain  string
	Version string
	Model   string
	// NodeID is the sanitized node identifier derived from Domain and Model.
	NodeID string
	// Title is the schema title, or Model when the schema has none.
	Title string
}

// Key returns the "<domain>/<model>" lookup key.
func (m *Meta) Key() string {
	return m.Domain + "/" + m.Model
}

// ExtractMeta derives the metadata of a document. It returns nil, nil for
// documents without an identifier; such documents are not part of the
// graph. A malformed identifier is returned as an error.
func ExtractMeta(doc *schema.Document) (*Meta, error) {
	raw := doc.Identifier()
	if raw == "" {
		return nil, nil
	}
	id, err := ParseIdentifier(raw)
	if err != nil {
		return nil, err
	}
	title := doc.Title
	if title == "" {
		title = id.Model
	}
	return &Meta{
		ID:      raw,
		Domain:  id.Domain,
		Version: id.Version,
		Model:   id.Model,
		NodeID:  NodeID(id.Domain, id.Model),
		Title:   title,
	}, nil
}
