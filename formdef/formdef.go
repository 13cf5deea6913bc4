// Package formdef loads YAML form definitions and builds runnable forms
// from them.
//
// # Quick Start
//
//	def, err := formdef.Load("registration.yaml")
//	if err != nil {
//	    return err
//	}
//	form, constraints, err := def.Build()
//	if err != nil {
//	    return err
//	}
//	filler, err := formfill.NewFiller(formfill.Config[formdef.Values]{
//	    Form:      form,
//	    Source:    source,
//	    Validator: constraints,
//	})
//
// A definition file names the form and lists its fields:
//
//	form: registration
//	fields:
//	  - name: age
//	    prompt: How old are you?
//	    type: integer
//	    required: true
//	    retries:
//	      timeout: 2
//	      converting: 2
//	    constraint:
//	      minimum: 13
//	      maximum: 120
//	  - name: email
//	    prompt: What is your email address?
//	    type: string
//	    constraint:
//	      format: email
//	  - name: notes
//	    prompt: Anything else we should know?
//	    type: string
//	    timeout: 45s
//	    cancel_words: [cancel, stop]
//
// Field types are string, integer, number, boolean, time and duration,
// matching the stock converters in the convert package. Fields without
// an explicit priority are asked in listing order.
//
// Built forms populate a Values map keyed by field name; fields resolved
// to null stay absent. Go structs can serve as definitions too, see
// FromStruct.
package formdef

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fieldworks/formfill"
	"github.com/fieldworks/formfill/convert"
	"github.com/fieldworks/formfill/retry"
	"github.com/fieldworks/formfill/schema"
	"github.com/fieldworks/formfill/trigger"
	"github.com/fieldworks/formfill/validate"
)

// Values holds the answers of a definition-built form, keyed by field
// name. Fields resolved to null are absent from the map.
type Values map[string]any

// Duration is a time.Duration that decodes from YAML scalars through
// time.ParseDuration, so definitions can write "45s" or "200ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("formdef: duration must be a scalar like \"45s\"")
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("formdef: parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Definition is a parsed form definition.
type Definition struct {
	// Form is the form name.
	Form string `yaml:"form"`

	// Fields lists the fields to fill, in asking order unless a field
	// sets an explicit priority.
	Fields []FieldDefinition `yaml:"fields"`
}

// FieldDefinition describes one field of a form.
type FieldDefinition struct {
	Name     string `yaml:"name"`
	Prompt   string `yaml:"prompt"`
	Type     string `yaml:"type"`
	Priority int    `yaml:"priority"`
	Required bool   `yaml:"required"`

	// Timeout bounds each wait for an answer, e.g. "45s". Zero means
	// the builder default.
	Timeout Duration `yaml:"timeout"`

	// Retries maps failure kinds (timeout, converting, validation) to
	// the number of retries granted beyond the first attempt.
	Retries map[string]int `yaml:"retries"`

	// CancelWords cancel the dialogue when an answer consists of one of
	// them, compared case-insensitively.
	CancelWords []string `yaml:"cancel_words"`

	// Constraint holds the value constraints enforced after conversion.
	Constraint *Constraint `yaml:"constraint"`
}

// Constraint mirrors the schema.Property setters in YAML form. Bounds
// apply to numbers, durations (in seconds) and times; lengths and
// patterns apply to strings.
type Constraint struct {
	Description string   `yaml:"description"`
	Enum        []any    `yaml:"enum"`
	Format      string   `yaml:"format"`
	Minimum     *float64 `yaml:"minimum"`
	Maximum     *float64 `yaml:"maximum"`
	MinLength   *int     `yaml:"min_length"`
	MaxLength   *int     `yaml:"max_length"`
	Pattern     string   `yaml:"pattern"`
}

// Parse decodes a YAML definition. Unknown keys are rejected, so typos
// in hand-written definition files surface as errors instead of
// silently dropped settings.
func Parse(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("formdef: empty definition")
		}
		return nil, fmt.Errorf("formdef: %w", err)
	}
	if err := def.validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Load reads and parses a YAML definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("formdef: %w", err)
	}
	return Parse(data)
}

// Build compiles the definition into a form plus the constraint
// validator for its fields. Pass both to formfill.Config.
func (d *Definition) Build() (*formfill.Form[Values], *validate.Constraints[Values], error) {
	builder := formfill.NewBuilder[Values](d.Form, convert.Defaults())
	properties := make(map[string]*schema.Property, len(d.Fields))

	for i, fd := range d.Fields {
		vt, err := fd.valueType()
		if err != nil {
			return nil, nil, err
		}

		priority := fd.Priority
		if priority == 0 {
			priority = i + 1
		}

		field := formfill.Field[Values]{
			Name:     fd.Name,
			Prompt:   fd.Prompt,
			Type:     vt,
			Priority: priority,
			Timeout:  time.Duration(fd.Timeout),
			Required: fd.Required,
			Retries:  fd.retries(),
			Assign:   assign(fd.Name),
		}
		if len(fd.CancelWords) > 0 {
			field.CancelTrigger = trigger.Keywords(fd.CancelWords...)
		}
		builder.Add(field)

		properties[fd.Name] = fd.property()
	}

	form, err := builder.Build()
	if err != nil {
		return nil, nil, err
	}

	constraints, err := validate.NewConstraints[Values](properties)
	if err != nil {
		return nil, nil, err
	}
	return form, constraints, nil
}

// Schema compiles the whole-form object schema: one property per field,
// with required fields listed as required. Use it to validate complete
// Values maps, for example before persisting them.
func (d *Definition) Schema() (*schema.Schema, error) {
	properties := make(map[string]*schema.Property, len(d.Fields))
	var required []string

	for _, fd := range d.Fields {
		if _, err := fd.valueType(); err != nil {
			return nil, err
		}
		properties[fd.Name] = fd.property()
		if fd.Required {
			required = append(required, fd.Name)
		}
	}

	return schema.Compile(schema.Object(properties, required...))
}

func (d *Definition) validate() error {
	if d.Form == "" {
		return errors.New("formdef: definition has no form name")
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("formdef: form %q has no fields", d.Form)
	}

	seen := make(map[string]bool, len(d.Fields))
	for _, fd := range d.Fields {
		if fd.Name == "" {
			return fmt.Errorf("formdef: form %q has a field with no name", d.Form)
		}
		if seen[fd.Name] {
			return fmt.Errorf("formdef: form %q declares field %q twice", d.Form, fd.Name)
		}
		seen[fd.Name] = true

		if fd.Prompt == "" {
			return fmt.Errorf("formdef: field %q has no prompt", fd.Name)
		}
		if fd.Timeout < 0 {
			return fmt.Errorf("formdef: field %q has a negative timeout", fd.Name)
		}
		if _, err := fd.valueType(); err != nil {
			return err
		}
		for kind, n := range fd.Retries {
			switch formfill.FailureKind(kind) {
			case formfill.FailureTimeout, formfill.FailureConverting, formfill.FailureValidation:
			default:
				return fmt.Errorf("formdef: field %q has unknown retry kind %q", fd.Name, kind)
			}
			if n < 0 {
				return fmt.Errorf("formdef: field %q has negative retries for %q", fd.Name, kind)
			}
		}
	}
	return nil
}

func (f *FieldDefinition) valueType() (formfill.ValueType, error) {
	switch f.Type {
	case "string":
		return formfill.TypeString, nil
	case "integer":
		return formfill.TypeInteger, nil
	case "number":
		return formfill.TypeNumber, nil
	case "boolean":
		return formfill.TypeBoolean, nil
	case "time":
		return formfill.TypeTime, nil
	case "duration":
		return formfill.TypeDuration, nil
	case "":
		return "", fmt.Errorf("formdef: field %q has no type", f.Name)
	default:
		return "", fmt.Errorf("formdef: field %q has unknown type %q", f.Name, f.Type)
	}
}

// property builds the schema property for the field: the base property
// for its type, plus any constraint block settings. Callers must have
// checked valueType first.
func (f *FieldDefinition) property() *schema.Property {
	var description string
	if f.Constraint != nil {
		description = f.Constraint.Description
	}

	var p *schema.Property
	switch f.Type {
	case "integer":
		p = schema.Integer(description)
	case "number":
		p = schema.Number(description)
	case "boolean":
		p = schema.Boolean(description)
	case "time":
		p = schema.Time(description)
	case "duration":
		p = schema.Duration(description)
	default:
		p = schema.String(description)
	}

	c := f.Constraint
	if c == nil {
		return p
	}
	if len(c.Enum) > 0 {
		p.Enum(c.Enum...)
	}
	if c.Format != "" {
		p.Format(c.Format)
	}
	if c.Minimum != nil {
		p.Min(*c.Minimum)
	}
	if c.Maximum != nil {
		p.Max(*c.Maximum)
	}
	if c.MinLength != nil {
		p.MinLength(*c.MinLength)
	}
	if c.MaxLength != nil {
		p.MaxLength(*c.MaxLength)
	}
	if c.Pattern != "" {
		p.Pattern(c.Pattern)
	}
	return p
}

func (f *FieldDefinition) retries() map[formfill.FailureKind]formfill.RetryPolicy {
	if len(f.Retries) == 0 {
		return nil
	}
	policies := make(map[formfill.FailureKind]formfill.RetryPolicy, len(f.Retries))
	for kind, n := range f.Retries {
		policies[formfill.FailureKind(kind)] = retry.Budget(n)
	}
	return policies
}

func assign(name string) func(*Values, any) {
	return func(v *Values, value any) {
		if *v == nil {
			*v = make(Values)
		}
		(*v)[name] = value
	}
}
