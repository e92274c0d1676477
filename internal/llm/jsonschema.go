package llm

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/rotisserie/eris"
)

// Schema is the JSON Schema a structured reply must satisfy, resolved once
// for validation.
type Schema struct {
	doc      *jsonschema.Schema
	resolved *jsonschema.Resolved
}

// SchemaFor infers a schema from T's json tags and applies edits before
// resolving it. Fields without omitempty are required. It panics on error
// and is meant for package-level schema variables.
func SchemaFor[T any](edits ...func(*jsonschema.Schema)) *Schema {
	doc, err := jsonschema.For[T](nil)
	if err != nil {
		panic(fmt.Sprintf("llm: infer schema for %T: %v", *new(T), err))
	}
	relax(doc)
	for _, edit := range edits {
		edit(doc)
	}
	s, err := NewSchema(doc)
	if err != nil {
		panic(err.Error())
	}
	return s
}

// NewSchema resolves doc for validation.
func NewSchema(doc *jsonschema.Schema) (*Schema, error) {
	rs, err := doc.Resolve(nil)
	if err != nil {
		return nil, eris.Wrap(err, "llm: resolve schema")
	}
	return &Schema{doc: doc, resolved: rs}, nil
}

// Doc returns the schema document sent to providers.
func (s *Schema) Doc() *jsonschema.Schema { return s.doc }

// Validate checks a decoded JSON value against the schema.
func (s *Schema) Validate(v any) error {
	if err := s.resolved.Validate(v); err != nil {
		return eris.Wrap(err, "schema")
	}
	return nil
}

// MarshalJSON renders the schema document.
func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.doc)
}

// relax loosens inferred schemas for model replies: extra properties are
// tolerated and nullable slices are plain arrays.
func relax(s *jsonschema.Schema) {
	if s == nil {
		return
	}
	s.AdditionalProperties = nil
	if len(s.Types) == 2 && slices.Contains(s.Types, "null") {
		for _, t := range s.Types {
			if t != "null" {
				s.Type = t
			}
		}
		s.Types = nil
	}
	for _, p := range s.Properties {
		relax(p)
	}
	relax(s.Items)
}

// Require replaces the required list of the object at path, a chain of
// property names with "[]" stepping into array items.
func Require(path []string, fields ...string) func(*jsonschema.Schema) {
	return func(s *jsonschema.Schema) {
		if node := lookup(s, path); node != nil {
			node.Required = fields
		}
	}
}

// Enum restricts the property at path to values.
func Enum(path []string, values ...any) func(*jsonschema.Schema) {
	return func(s *jsonschema.Schema) {
		if node := lookup(s, path); node != nil {
			node.Enum = values
		}
	}
}

func lookup(s *jsonschema.Schema, path []string) *jsonschema.Schema {
	for _, name := range path {
		if s == nil {
			return nil
		}
		if name == "[]" {
			s = s.Items
			continue
		}
		s = s.Properties[name]
	}
	return s
}
