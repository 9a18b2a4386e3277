package load

import (
	"path/filepath"
	"strings"

	"github.com/syssam/schemaviz/schema"
)

// Format is the encoding of a schema file.
type Format int

const (
	// Unknown files are not schema files.
	Unknown Format = iota
	JSON
	YAML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case YAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// FormatOf returns the format implied by the file extension. Matching is
// case-insensitive.
func FormatOf(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return JSON
	case ".yaml", ".yml":
		return YAML
	default:
		return Unknown
	}
}

// UnmarshalSchema decodes the schema documents of one file and records
// name as their source. JSON files hold exactly one document, YAML files
// any number.
func UnmarshalSchema(name string, format Format, buf []byte) ([]*schema.Document, error) {
	var docs []*schema.Document
	switch format {
	case YAML:
		var err error
		if docs, err = schema.DecodeYAML(buf); err != nil {
			return nil, err
		}
	default:
		doc, err := schema.DecodeJSON(buf)
		if err != nil {
			return nil, err
		}
		docs = []*schema.Document{doc}
	}
	for _, d := range docs {
		d.Source = name
	}
	return docs, nil
}
