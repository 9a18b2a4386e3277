package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Document is one schema document. Only the keys the diagram needs are
// decoded; everything else is ignored.
type Document struct {
	// ID holds the legacy "id" key.
	ID string
	// DollarID holds the "$id" key.
	DollarID string
	// Title holds the "title" key when it is a string.
	Title string
	// Description holds the "description" key when it is a string.
	Description string
	// Types holds the top-level "type" names.
	Types []string
	// Properties are the top-level properties in document order.
	Properties Properties
	// Source is the path the document was loaded from, if any.
	Source string
}

// Identifier returns "$id" when set, otherwise "id".
func (d *Document) Identifier() string {
	if d.DollarID != "" {
		return d.DollarID
	}
	return d.ID
}

// errNotObject is returned for documents whose top level is not an object.
var errNotObject = errors.New("schema document is not an object")

// UnmarshalJSON decodes a schema document. Keys are matched exactly and
// identifiers must be strings.
func (d *Document) UnmarshalJSON(data []byte) error {
	src := d.Source
	*d = Document{Source: src}
	members, ok, err := objectMembers(data)
	if err != nil {
		return err
	}
	if !ok {
		return errNotObject
	}
	for _, m := range members {
		switch m.key {
		case "id", "$id":
			if bytes.Equal(bytes.TrimSpace(m.value), []byte("null")) {
				continue
			}
			var s string
			if err := json.Unmarshal(m.value, &s); err != nil {
				return fmt.Errorf("%s must be a string", m.key)
			}
			if m.key == "id" {
				d.ID = s
			} else {
				d.DollarID = s
			}
		case "title":
			d.Title = ""
			_ = json.Unmarshal(m.value, &d.Title)
		case "description":
			d.Description = ""
			_ = json.Unmarshal(m.value, &d.Description)
		case "type":
			d.Types = jsonTypeNames(m.value)
		case "properties":
			if err := d.Properties.UnmarshalJSON(m.value); err != nil {
				return err
			}
		}
	}
	return nil
}

// UnmarshalYAML decodes a schema document from a YAML mapping.
func (d *Document) UnmarshalYAML(node *yaml.Node) error {
	src := d.Source
	*d = Document{Source: src}
	node = resolveAlias(node)
	if node.Kind != yaml.MappingNode {
		return errNotObject
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		value := resolveAlias(node.Content[i+1])
		switch key {
		case "id", "$id":
			if value.ShortTag() == "!!null" {
				continue
			}
			if value.Kind != yaml.ScalarNode || value.ShortTag() != "!!str" {
				return fmt.Errorf("%s must be a string", key)
			}
			if key == "id" {
				d.ID = value.Value
			} else {
				d.DollarID = value.Value
			}
		case "title":
			d.Title = scalarString(value)
		case "description":
			d.Description = scalarString(value)
		case "type":
			d.Types = yamlTypeNames(value)
		case "properties":
			if err := d.Properties.UnmarshalYAML(value); err != nil {
				return err
			}
		}
	}
	return nil
}

func scalarString(node *yaml.Node) string {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!str" {
		return node.Value
	}
	return ""
}

// DecodeJSON decodes one JSON schema document.
func DecodeJSON(data []byte) (*Document, error) {
	doc := new(Document)
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// DecodeYAML decodes every document of a YAML stream. Empty and null
// documents are skipped.
func DecodeYAML(data []byte) ([]*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var docs []*Document
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		if len(node.Content) == 0 || node.Content[0].ShortTag() == "!!null" {
			continue
		}
		doc := new(Document)
		if err := node.Decode(doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
}
