package gen

import (
	"strings"

	"github.com/syssam/schemaviz/schema"
)

// TypeLabel returns the short display type of a property:
//
//	$ref present       -> "ref"
//	type is a list     -> names joined with "|"
//	type is a string   -> the string
//	anything else      -> "any"
func TypeLabel(p *schema.Property) string {
	if p == nil {
		return "any"
	}
	switch p.Kind {
	case schema.KindRef:
		return "ref"
	case schema.KindTyped:
		return strings.Join(p.Types, "|")
	default:
		return "any"
	}
}

// DetailedTypeLabel extends TypeLabel with array item types
// ("array<string>", "array<ref>") and "enum" for untyped enumerations.
func DetailedTypeLabel(p *schema.Property) string {
	switch {
	case p == nil:
		return "any"
	case p.Kind == schema.KindRef:
		return "ref"
	case isType(p, "array"):
		return "array<" + TypeLabel(p.Items) + ">"
	case p.Kind == schema.KindUntyped && p.Enum:
		return "enum"
	}
	return TypeLabel(p)
}

// isType reports whether p declares exactly one type and it is name.
func isType(p *schema.Property, name string) bool {
	return p != nil && len(p.Types) == 1 && p.Types[0] == name
}
