package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// PropertyKind discriminates the shapes a property fragment can take.
type PropertyKind uint8

const (
	// KindUntyped is a fragment with neither $ref nor a usable type,
	// including non-object fragments such as boolean schemas.
	KindUntyped PropertyKind = iota
	// KindTyped is a fragment whose type is a name or a list of names.
	KindTyped
	// KindRef is a fragment carrying a $ref key.
	KindRef
)

// String returns the kind name.
func (k PropertyKind) String() string {
	switch k {
	case KindTyped:
		return "typed"
	case KindRef:
		return "ref"
	default:
		return "untyped"
	}
}

// Property is the decoded form of one property schema fragment.
//
// Kind tells which of the primary fields is meaningful: Ref for KindRef,
// Types for KindTyped. A fragment with $ref is always KindRef, whatever
// else it declares. The remaining fields are only consulted by the
// detailed rendering modes (nested flattening, deep references, array and
// enum labels).
type Property struct {
	Kind PropertyKind
	// Ref holds the $ref value. Empty when $ref is present but not a string.
	Ref string
	// Types holds the type names in declaration order.
	Types []string
	// Items is the array item schema, if declared as an object.
	Items *Property
	// Properties are the nested object properties in declaration order.
	Properties Properties
	// Enum reports whether the fragment declares an enum.
	Enum bool
	// Composition keywords.
	AllOf, AnyOf, OneOf []*Property
}

// HasType reports whether name is one of the declared type names.
func (p *Property) HasType(name string) bool {
	if p == nil {
		return false
	}
	for _, t := range p.Types {
		if t == name {
			return true
		}
	}
	return false
}

// NamedProperty is one entry of an ordered properties block.
type NamedProperty struct {
	Name string
	*Property
}

// Properties is an ordered properties block. Order follows the source
// document; a repeated key replaces the earlier value in place.
type Properties []*NamedProperty

// Get returns the property with the given name, or nil.
func (ps Properties) Get(name string) *Property {
	for _, p := range ps {
		if p.Name == name {
			return p.Property
		}
	}
	return nil
}

// Names returns the property names in order.
func (ps Properties) Names() []string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name
	}
	return names
}

func (ps *Properties) set(name string, p *Property) {
	for _, np := range *ps {
		if np.Name == name {
			np.Property = p
			return
		}
	}
	*ps = append(*ps, &NamedProperty{Name: name, Property: p})
}

// UnmarshalJSON decodes a JSON properties object preserving key order.
// Anything other than an object decodes to an empty block.
func (ps *Properties) UnmarshalJSON(data []byte) error {
	*ps = nil
	members, ok, err := objectMembers(data)
	if err != nil || !ok {
		return err
	}
	for _, m := range members {
		p := new(Property)
		if err := p.UnmarshalJSON(m.value); err != nil {
			return fmt.Errorf("property %q: %w", m.key, err)
		}
		ps.set(m.key, p)
	}
	return nil
}

// UnmarshalYAML decodes a YAML properties mapping preserving key order.
func (ps *Properties) UnmarshalYAML(node *yaml.Node) error {
	*ps = nil
	node = resolveAlias(node)
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		p := new(Property)
		if err := p.UnmarshalYAML(node.Content[i+1]); err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		ps.set(name, p)
	}
	return nil
}

// UnmarshalJSON decodes a property fragment. Keys are matched exactly.
func (p *Property) UnmarshalJSON(data []byte) error {
	*p = Property{}
	members, ok, err := objectMembers(data)
	if err != nil || !ok {
		return err
	}
	var hasRef bool
	for _, m := range members {
		switch m.key {
		case "$ref":
			hasRef = true
			p.Ref = ""
			_ = json.Unmarshal(m.value, &p.Ref)
		case "type":
			p.Types = jsonTypeNames(m.value)
		case "items":
			p.Items = new(Property)
			if err := p.Items.UnmarshalJSON(m.value); err != nil {
				return fmt.Errorf("items: %w", err)
			}
		case "properties":
			if err := p.Properties.UnmarshalJSON(m.value); err != nil {
				return err
			}
		case "enum":
			p.Enum = true
		case "allOf":
			if p.AllOf, err = jsonPropertyList(m.value); err != nil {
				return err
			}
		case "anyOf":
			if p.AnyOf, err = jsonPropertyList(m.value); err != nil {
				return err
			}
		case "oneOf":
			if p.OneOf, err = jsonPropertyList(m.value); err != nil {
				return err
			}
		}
	}
	p.classify(hasRef)
	return nil
}

// UnmarshalYAML decodes a property fragment from a YAML node.
func (p *Property) UnmarshalYAML(node *yaml.Node) error {
	*p = Property{}
	node = resolveAlias(node)
	if node.Kind != yaml.MappingNode {
		return nil
	}
	var (
		hasRef bool
		err    error
	)
	for i := 0; i+1 < len(node.Content); i += 2 {
		value := resolveAlias(node.Content[i+1])
		switch node.Content[i].Value {
		case "$ref":
			hasRef = true
			p.Ref = ""
			if value.Kind == yaml.ScalarNode && value.ShortTag() == "!!str" {
				p.Ref = value.Value
			}
		case "type":
			p.Types = yamlTypeNames(value)
		case "items":
			p.Items = new(Property)
			if err := p.Items.UnmarshalYAML(value); err != nil {
				return fmt.Errorf("items: %w", err)
			}
		case "properties":
			if err := p.Properties.UnmarshalYAML(value); err != nil {
				return err
			}
		case "enum":
			p.Enum = true
		case "allOf":
			if p.AllOf, err = yamlPropertyList(value); err != nil {
				return err
			}
		case "anyOf":
			if p.AnyOf, err = yamlPropertyList(value); err != nil {
				return err
			}
		case "oneOf":
			if p.OneOf, err = yamlPropertyList(value); err != nil {
				return err
			}
		}
	}
	p.classify(hasRef)
	return nil
}

func (p *Property) classify(hasRef bool) {
	switch {
	case hasRef:
		p.Kind = KindRef
	case p.Types != nil:
		p.Kind = KindTyped
	default:
		p.Kind = KindUntyped
	}
}

// jsonTypeNames returns the names of a "type" value: one name for a string,
// every element for an array (non-string elements keep their JSON text),
// nil for anything else.
func jsonTypeNames(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		return []string{s}
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil
		}
		names := make([]string, 0, len(elems))
		for _, e := range elems {
			s := string(bytes.TrimSpace(e))
			if strings.HasPrefix(s, `"`) {
				_ = json.Unmarshal(e, &s)
			}
			names = append(names, s)
		}
		return names
	}
	return nil
}

func yamlTypeNames(node *yaml.Node) []string {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() != "!!str" {
			return nil
		}
		return []string{node.Value}
	case yaml.SequenceNode:
		names := make([]string, 0, len(node.Content))
		for _, e := range node.Content {
			e = resolveAlias(e)
			if e.ShortTag() == "!!null" {
				names = append(names, "null")
				continue
			}
			names = append(names, e.Value)
		}
		return names
	}
	return nil
}

func jsonPropertyList(raw json.RawMessage) ([]*Property, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, err
	}
	list := make([]*Property, 0, len(elems))
	for _, e := range elems {
		p := new(Property)
		if err := p.UnmarshalJSON(e); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, nil
}

func yamlPropertyList(node *yaml.Node) ([]*Property, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, nil
	}
	list := make([]*Property, 0, len(node.Content))
	for _, e := range node.Content {
		p := new(Property)
		if err := p.UnmarshalYAML(e); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, nil
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

type member struct {
	key   string
	value json.RawMessage
}

// objectMembers splits a JSON object into its members in source order.
// ok is false when data is valid JSON but not an object.
func objectMembers(data []byte) (members []member, ok bool, err error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, false, err
	}
	if d, isDelim := tok.(json.Delim); !isDelim || d != '{' {
		return nil, false, nil
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, true, err
		}
		key, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, true, err
		}
		members = append(members, member{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, true, err
	}
	return members, true, nil
}
