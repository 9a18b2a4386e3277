package gen

import (
	"strings"

	"github.com/syssam/schemaviz"
)

const (
	// Scheme is the prefix every schema identifier starts with.
	Scheme = "data://"

	modelSeparator = "/model/"
)

// Identifier is a parsed schema identifier:
//
//	data://<domain>/model/<version>/<model>
type Identifier struct {
	Raw     string
	Domain  string
	Version string
	// Model is everything after the version segment, including any
	// further slashes.
	Model string
}

// Key returns the "<domain>/<model>" lookup key.
func (id Identifier) Key() string {
	return id.Domain + "/" + id.Model
}

// ParseIdentifier splits a schema identifier into its domain, version and
// model name. The characters of each part are not validated.
func ParseIdentifier(s string) (Identifier, error) {
	rest, ok := strings.CutPrefix(s, Scheme)
	if !ok {
		return Identifier{}, schemaviz.NewIdentifierError(s, "missing "+Scheme+" prefix")
	}
	domain, rest, ok := strings.Cut(rest, modelSeparator)
	if !ok {
		return Identifier{}, schemaviz.NewIdentifierError(s, "missing "+modelSeparator+" segment")
	}
	version, model, ok := strings.Cut(rest, "/")
	if !ok {
		return Identifier{}, schemaviz.NewIdentifierError(s, "missing model name after version")
	}
	return Identifier{Raw: s, Domain: domain, Version: version, Model: model}, nil
}

// NodeID returns the graph-safe node identifier for a domain and model.
// Distinct inputs may map to the same id.
func NodeID(domain, model string) string {
	return Sanitize(domain + "_" + model)
}

// Sanitize replaces every rune outside [A-Za-z0-9_] with an underscore.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
