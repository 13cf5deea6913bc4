// Package schema declares value constraints for form fields as JSON
// Schema fragments.
//
// # Quick Start
//
//	constraints, err := validate.NewConstraints[Registration](map[string]*schema.Property{
//	    "age":   schema.Integer("Applicant age").Min(18).Max(130),
//	    "email": schema.String("Contact address").Format("email"),
//	    "name":  schema.String("Full name").MinLength(1).MaxLength(80),
//	})
//
// A *Property describes the legal values of one field. Constraint wiring
// for a whole form lives in the validate package; this package supplies
// the vocabulary (String, Integer, Number, Boolean, Time, Duration and
// their constraint setters) plus Compile, which turns a raw schema map
// into a reusable validator for a single candidate value.
//
// Object assembles the properties of a whole form into one object
// schema, which is how a form's shape is exported to other systems.
package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is a compiled constraint. It keeps both the raw map form (for
// export and serialization) and the compiled validator.
type Schema struct {
	raw      map[string]any
	compiled *jsonschema.Schema
}

// Raw returns the underlying map[string]any representation.
func (s *Schema) Raw() map[string]any {
	if s == nil {
		return nil
	}
	return s.raw
}

// Validate checks one candidate value against the schema. It returns nil
// when the value conforms and a *ValidationError otherwise.
//
// The candidate may be any value a field converter produces. Values with
// no JSON counterpart are translated first: time.Time validates as its
// RFC 3339 string and time.Duration as a number of seconds, so date and
// duration constraints are written against those forms.
func (s *Schema) Validate(value any) error {
	if s == nil || s.compiled == nil {
		return nil
	}
	if err := s.compiled.Validate(normalize(value)); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// normalize translates converter output into the JSON value space the
// compiled validator understands.
func normalize(value any) any {
	switch v := value.(type) {
	case time.Time:
		return v.Format(time.RFC3339)
	case time.Duration:
		return json.Number(strconv.FormatFloat(v.Seconds(), 'f', -1, 64))
	case int:
		return json.Number(strconv.FormatInt(int64(v), 10))
	case int32:
		return json.Number(strconv.FormatInt(int64(v), 10))
	case int64:
		return json.Number(strconv.FormatInt(v, 10))
	case float32:
		return json.Number(strconv.FormatFloat(float64(v), 'f', -1, 32))
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalize(item)
		}
		return out
	}
	return value
}

// ValidationError wraps a JSON Schema validation error. Unwrap exposes
// the library error, whose cause tree carries one entry per failed
// constraint keyword.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schema validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Compile compiles a raw schema map into a Schema with a compiled
// validator. Format assertions are enabled, so "format": "email" and
// friends actually constrain values instead of only annotating them.
// Returns an error if the schema itself is invalid.
func Compile(raw map[string]any) (*Schema, error) {
	if raw == nil {
		return nil, nil
	}

	schemaJSON, err := sonic.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	schemaData, err := jsonschema.UnmarshalJSON(strings.NewReader(string(schemaJSON)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource("schema.json", schemaData); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	compiled, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Schema{
		raw:      raw,
		compiled: compiled,
	}, nil
}

// MustCompile is like Compile but panics on error.
// Use this for constraints defined at init time.
func MustCompile(raw map[string]any) *Schema {
	s, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// -----------------------------------------------------------------------------
// Schema Builders
// -----------------------------------------------------------------------------

// Object assembles the per-field properties of a form into one object
// schema. Pass field names as variadic arguments to mark them as
// required in the exported schema.
//
// Example:
//
//	schema.Object(map[string]*schema.Property{
//	    "name":  schema.String("Full name").MinLength(1),
//	    "email": schema.String("Contact address").Format("email"),
//	    "age":   schema.Integer("Applicant age").Min(18),
//	}, "name", "email")
func Object(properties map[string]*Property, required ...string) map[string]any {
	props := make(map[string]any, len(properties))
	for name, prop := range properties {
		props[name] = prop.Build()
	}

	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

// Property describes the legal values of one field.
type Property struct {
	typ         string
	description string
	enum        []any
	format      string
	minimum     *float64
	maximum     *float64
	minLength   *int
	maxLength   *int
	pattern     string
	def         any
}

// Build returns the property as a raw schema map, ready for Compile or
// for embedding in an Object.
func (p *Property) Build() map[string]any {
	m := map[string]any{}

	if p.typ != "" {
		m["type"] = p.typ
	}
	if p.description != "" {
		m["description"] = p.description
	}
	if len(p.enum) > 0 {
		m["enum"] = p.enum
	}
	if p.format != "" {
		m["format"] = p.format
	}
	if p.minimum != nil {
		m["minimum"] = *p.minimum
	}
	if p.maximum != nil {
		m["maximum"] = *p.maximum
	}
	if p.minLength != nil {
		m["minLength"] = *p.minLength
	}
	if p.maxLength != nil {
		m["maxLength"] = *p.maxLength
	}
	if p.pattern != "" {
		m["pattern"] = p.pattern
	}
	if p.def != nil {
		m["default"] = p.def
	}

	return m
}

// String creates a string property.
//
// Example:
//
//	schema.String("Full name")
//	schema.String("Contact address").Format("email")
//	schema.String("Username").MinLength(3).MaxLength(20)
//	schema.String("Plan").Enum("free", "pro")
func String(description string) *Property {
	return &Property{typ: "string", description: description}
}

// Integer creates an integer property.
//
// Example:
//
//	schema.Integer("Applicant age")
//	schema.Integer("Party size").Min(1).Max(12)
func Integer(description string) *Property {
	return &Property{typ: "integer", description: description}
}

// Number creates a number property (floating point).
//
// Example:
//
//	schema.Number("Budget in dollars").Min(0)
//	schema.Number("Rating").Min(0).Max(5)
func Number(description string) *Property {
	return &Property{typ: "number", description: description}
}

// Boolean creates a boolean property.
//
// Example:
//
//	schema.Boolean("Subscribe to the newsletter")
func Boolean(description string) *Property {
	return &Property{typ: "boolean", description: description}
}

// Time creates a property for a point in time. Values validate as their
// RFC 3339 string, so the format assertion applies to that form.
//
// Example:
//
//	schema.Time("Preferred appointment slot")
func Time(description string) *Property {
	return &Property{typ: "string", description: description, format: "date-time"}
}

// Duration creates a property for a span of time. Values validate as a
// number of seconds, so Min and Max bound the duration directly.
//
// Example:
//
//	schema.Duration("Session length").Min(60).Max(3600)
func Duration(description string) *Property {
	return &Property{typ: "number", description: description}
}

// Enum sets allowed values for the property.
//
// Example:
//
//	schema.String("Plan").Enum("free", "pro", "enterprise")
//	schema.Integer("Rating").Enum(1, 2, 3, 4, 5)
func (p *Property) Enum(values ...any) *Property {
	p.enum = values
	return p
}

// Format sets the format for string validation.
//
// Common formats: "email", "date-time", "date", "time", "uri", "uuid", "ipv4", "ipv6"
//
// Example:
//
//	schema.String("Contact address").Format("email")
//	schema.String("Website").Format("uri")
func (p *Property) Format(format string) *Property {
	p.format = format
	return p
}

// Min sets the minimum value for number/integer properties.
//
// Example:
//
//	schema.Integer("Applicant age").Min(18)
//	schema.Number("Budget").Min(0.01)
func (p *Property) Min(min float64) *Property {
	p.minimum = &min
	return p
}

// Max sets the maximum value for number/integer properties.
//
// Example:
//
//	schema.Integer("Party size").Max(12)
//	schema.Duration("Session length").Min(60).Max(3600)
func (p *Property) Max(max float64) *Property {
	p.maximum = &max
	return p
}

// MinLength sets the minimum length for string properties.
//
// Example:
//
//	schema.String("Full name").MinLength(1)
func (p *Property) MinLength(min int) *Property {
	p.minLength = &min
	return p
}

// MaxLength sets the maximum length for string properties.
//
// Example:
//
//	schema.String("Nickname").MaxLength(40)
func (p *Property) MaxLength(max int) *Property {
	p.maxLength = &max
	return p
}

// Pattern sets a regex pattern for string validation.
//
// Example:
//
//	schema.String("Phone").Pattern(`^\+?[0-9]{10,14}$`)
//	schema.String("Booking code").Pattern(`^[A-Z]{2}[0-9]{4}$`)
func (p *Property) Pattern(pattern string) *Property {
	p.pattern = pattern
	return p
}

// Default records a default value annotation for the property. The
// annotation travels with the exported schema; it does not make the
// state machine substitute the value for a missing answer.
//
// Example:
//
//	schema.Integer("Party size").Default(2)
func (p *Property) Default(value any) *Property {
	p.def = value
	return p
}
