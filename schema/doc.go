// Package schema decodes the parts of JSON Schema documents that the
// diagram generator consumes.
//
// A Document carries the identifier ("$id", falling back to "id"), the
// title and the top-level properties. Properties keep the order in which
// they appear in the source file, for both JSON and YAML input, so the
// rendered attribute lists follow the schema author's layout.
//
// Each property fragment is decoded into a Property whose Kind says which
// shape it has:
//
//	KindRef     {"$ref": "data://contact.biz/model/1/contact"}
//	KindTyped   {"type": "string"} or {"type": ["string", "null"]}
//	KindUntyped {} or {"description": "free form"} or true
//
// $ref wins over type: a fragment carrying both is KindRef.
//
// # Decoding
//
//	doc, err := schema.DecodeJSON(data)
//	docs, err := schema.DecodeYAML(data) // one entry per YAML document
//
// Key matching is exact ("Type" is not "type"). Unknown keys are ignored;
// validation of the schema itself is out of scope.
package schema
