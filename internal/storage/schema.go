package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema checks a stored JSON document before it is decoded, so a value that
// parses but has the wrong shape is treated as unreadable.
type Schema struct {
	schema *jsonschema.Schema
}

// MustCompileSchema compiles a JSON schema document. It panics on an invalid
// schema, which is a programming error.
func MustCompileSchema(name, text string) *Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(text)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return &Schema{schema: schema}
}

// Decode validates data against the schema and then unmarshals it into v.
func (s *Schema) Decode(data []byte, v any) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := s.schema.Validate(raw); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
