package gen

import "strings"

// Index maps "<domain>/<model>" to the schema metadata. Later entries
// replace earlier ones with the same key.
type Index map[string]*Meta

// NewIndex builds an index over metas in order.
func NewIndex(metas ...*Meta) Index {
	idx := make(Index, len(metas))
	for _, m := range metas {
		idx.Add(m)
	}
	return idx
}

// Add stores m and returns the entry it replaced, if any.
func (idx Index) Add(m *Meta) *Meta {
	prev := idx[m.Key()]
	idx[m.Key()] = m
	return prev
}

// Resolve reports which schema of the index a $ref points at. The
// fragment after '#' is ignored. References that are not schema
// identifiers, or that point outside the index, are unresolved.
func (idx Index) Resolve(ref string) (*Meta, bool) {
	base, _, _ := strings.Cut(ref, "#")
	id, err := ParseIdentifier(base)
	if err != nil {
		return nil, false
	}
	m, ok := idx[id.Key()]
	return m, ok
}
