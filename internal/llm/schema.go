package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrSchemaViolation is returned when a decoded payload does not match its schema.
var ErrSchemaViolation = errors.New("schema violation")

// schemaURL names the in-memory resource each schema is compiled under.
const schemaURL = "https://passive-genius.app/schemas/response.json"

// Type is a JSON schema primitive type.
type Type string

const (
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
)

// Schema is the provider-neutral subset of JSON schema used for structured
// output. The same value is sent to the model and used to validate its answer.
type Schema struct {
	Type        Type               `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`

	once       sync.Once
	compiled   *jsonschema.Schema
	compileErr error
}

// String renders the schema as indented JSON for prompt embedding.
func (s *Schema) String() string {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Validate checks a value produced by json.Unmarshal into an any.
func (s *Schema) Validate(v any) error {
	sch, err := s.compile()
	if err != nil {
		return err
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	return nil
}

// ValidateJSON decodes raw and validates it against the schema.
func (s *Schema) ValidateJSON(raw []byte) error {
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: invalid json: %v", ErrSchemaViolation, err)
	}
	return s.Validate(v)
}

// compile turns the schema into a JSON Schema validator on first use.
func (s *Schema) compile() (*jsonschema.Schema, error) {
	s.once.Do(func() {
		raw, err := json.Marshal(s)
		if err != nil {
			s.compileErr = fmt.Errorf("failed to marshal schema: %w", err)
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			s.compileErr = fmt.Errorf("failed to decode schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			s.compileErr = fmt.Errorf("failed to add schema: %w", err)
			return
		}
		if s.compiled, err = c.Compile(schemaURL); err != nil {
			s.compileErr = fmt.Errorf("failed to compile schema: %w", err)
		}
	})
	return s.compiled, s.compileErr
}
