// Package validate implements formfill.Validator backed by JSON Schema
// constraints, declared per field with the schema package's builders.
//
// # Quick Start
//
//	constraints, err := validate.NewConstraints[Registration](map[string]*schema.Property{
//	    "age":   schema.Integer("Applicant age").Min(18).Max(130),
//	    "email": schema.String("Contact address").Format("email"),
//	})
//	if err != nil {
//	    return err
//	}
//
//	filler, err := formfill.NewFiller(formfill.Config[Registration]{
//	    Form:      form,
//	    Source:    source,
//	    Validator: constraints,
//	})
//
// Fields without a declared property always pass. Combine schema
// constraints with custom cross-field rules using All.
package validate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/fieldworks/formfill"
	"github.com/fieldworks/formfill/schema"
)

var diagnosticPrinter = message.NewPrinter(language.English)

// Constraints validates candidate values against per-field schema
// properties. It implements formfill.Validator[T] for any form type; the
// form instance itself is ignored, since schema rules only concern the
// candidate value.
type Constraints[T any] struct {
	schemas map[string]*schema.Schema
}

// NewConstraints compiles one schema per field. Fields absent from
// properties are left unconstrained.
func NewConstraints[T any](properties map[string]*schema.Property) (*Constraints[T], error) {
	schemas := make(map[string]*schema.Schema, len(properties))
	for field, prop := range properties {
		if prop == nil {
			return nil, fmt.Errorf("validate: field %q has a nil property", field)
		}
		s, err := schema.Compile(prop.Build())
		if err != nil {
			return nil, fmt.Errorf("validate: field %q: %w", field, err)
		}
		schemas[field] = s
	}
	return &Constraints[T]{schemas: schemas}, nil
}

// MustConstraints is like NewConstraints but panics on error.
// Use this for constraints defined at init time.
func MustConstraints[T any](properties map[string]*schema.Property) *Constraints[T] {
	c, err := NewConstraints[T](properties)
	if err != nil {
		panic(err)
	}
	return c
}

// Validate checks value against the field's compiled schema. Fields
// without one pass unconditionally. On failure it returns one diagnostic
// per violated constraint keyword, sorted by rule for stable output.
func (c *Constraints[T]) Validate(_ *T, field string, value any) (bool, []formfill.Diagnostic) {
	s, ok := c.schemas[field]
	if !ok {
		return true, nil
	}
	err := s.Validate(value)
	if err == nil {
		return true, nil
	}
	return false, diagnostics(field, err)
}

// Schema returns the compiled schema for a field, or nil when the field
// is unconstrained.
func (c *Constraints[T]) Schema(field string) *schema.Schema {
	return c.schemas[field]
}

func diagnostics(field string, err error) []formfill.Diagnostic {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []formfill.Diagnostic{{Field: field, Rule: "schema", Message: err.Error()}}
	}

	var out []formfill.Diagnostic
	for _, leaf := range leaves(ve) {
		out = append(out, formfill.Diagnostic{
			Field:   field,
			Rule:    keywordRule(leaf),
			Message: leaf.ErrorKind.LocalizedString(diagnosticPrinter),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rule != out[j].Rule {
			return out[i].Rule < out[j].Rule
		}
		return out[i].Message < out[j].Message
	})
	return out
}

// leaves walks the cause tree down to the individual keyword failures.
func leaves(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, cause := range ve.Causes {
		out = append(out, leaves(cause)...)
	}
	return out
}

func keywordRule(ve *jsonschema.ValidationError) string {
	path := ve.ErrorKind.KeywordPath()
	if len(path) == 0 {
		return "schema"
	}
	return path[len(path)-1]
}

// -----------------------------------------------------------------------------
// Combinators
// -----------------------------------------------------------------------------

// All combines validators into one that passes only when every validator
// passes. Each validator runs regardless of earlier failures, so the
// returned diagnostics cover everything wrong with the value.
func All[T any](validators ...formfill.Validator[T]) formfill.Validator[T] {
	return formfill.ValidatorFunc[T](func(form *T, field string, value any) (bool, []formfill.Diagnostic) {
		ok := true
		var out []formfill.Diagnostic
		for _, v := range validators {
			valid, diags := v.Validate(form, field, value)
			if !valid {
				ok = false
			}
			out = append(out, diags...)
		}
		return ok, out
	})
}
