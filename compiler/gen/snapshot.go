package gen

type (
	// Snapshot is the serializable form of a Graph.
	Snapshot struct {
		Entities []EntitySnapshot `json:"entities" msgpack:"entities"`
		Edges    []EdgeSnapshot   `json:"edges" msgpack:"edges"`
		// Skipped holds the messages of skipped documents.
		Skipped []string `json:"skipped,omitempty" msgpack:"skipped,omitempty"`
	}

	// EntitySnapshot is one entity of a Snapshot.
	EntitySnapshot struct {
		ID          string              `json:"id" msgpack:"id"`
		Domain      string              `json:"domain" msgpack:"domain"`
		Version     string              `json:"version" msgpack:"version"`
		Model       string              `json:"model" msgpack:"model"`
		NodeID      string              `json:"node_id" msgpack:"node_id"`
		Title       string              `json:"title" msgpack:"title"`
		Highlighted bool                `json:"highlighted" msgpack:"highlighted"`
		Attributes  []AttributeSnapshot `json:"attrs" msgpack:"attrs"`
		Refs        []RefSnapshot       `json:"refs" msgpack:"refs"`
	}

	// AttributeSnapshot is one attribute line.
	AttributeSnapshot struct {
		Field string `json:"field" msgpack:"field"`
		Type  string `json:"type" msgpack:"type"`
	}

	// RefSnapshot is one reference; To is empty when unresolved.
	RefSnapshot struct {
		Field string `json:"field" msgpack:"field"`
		Ref   string `json:"ref" msgpack:"ref"`
		To    string `json:"to,omitempty" msgpack:"to,omitempty"`
	}

	// EdgeSnapshot is one resolved reference between node ids.
	EdgeSnapshot struct {
		From  string `json:"from" msgpack:"from"`
		To    string `json:"to" msgpack:"to"`
		Label string `json:"label" msgpack:"label"`
	}
)

// NewSnapshot returns the serializable form of g.
func NewSnapshot(g *Graph) *Snapshot {
	s := &Snapshot{
		Entities: make([]EntitySnapshot, 0, len(g.Entities)),
		Edges:    make([]EdgeSnapshot, 0, len(g.Edges)),
	}
	for _, e := range g.Entities {
		es := EntitySnapshot{
			ID:          e.ID,
			Domain:      e.Domain,
			Version:     e.Version,
			Model:       e.Model,
			NodeID:      e.NodeID,
			Title:       e.Title,
			Highlighted: e.Highlighted,
			Attributes:  make([]AttributeSnapshot, 0, len(e.Attributes)),
			Refs:        make([]RefSnapshot, 0, len(e.Refs)),
		}
		for _, a := range e.Attributes {
			es.Attributes = append(es.Attributes, AttributeSnapshot{Field: a.Name, Type: a.Type})
		}
		for _, r := range e.Refs {
			rs := RefSnapshot{Field: r.Field, Ref: r.Target}
			if r.To != nil {
				rs.To = r.To.NodeID
			}
			es.Refs = append(es.Refs, rs)
		}
		s.Entities = append(s.Entities, es)
	}
	for _, e := range g.Edges {
		s.Edges = append(s.Edges, EdgeSnapshot{From: e.From.NodeID, To: e.To.NodeID, Label: e.Label})
	}
	for _, sk := range g.Skipped {
		s.Skipped = append(s.Skipped, sk.Error())
	}
	return s
}
