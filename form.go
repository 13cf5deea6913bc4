package formfill

import (
	"fmt"
	"sort"
)

// Form is an immutable, ordered set of field descriptors for forms of type
// T, with every field's converter and cracker already resolved.
//
// Build a Form once per form type and share it freely: Filler instances
// for any number of concurrent dialogues can hold the same Form, since
// nothing in it changes after Build.
type Form[T any] struct {
	name       string
	fields     []Field[T]
	converters map[string]Converter
}

// Name returns the form's name.
func (f *Form[T]) Name() string {
	return f.name
}

// Len returns the number of fields.
func (f *Form[T]) Len() int {
	return len(f.fields)
}

// Fields returns the fields in fill order. The slice is a copy; mutating
// it does not affect the form.
func (f *Form[T]) Fields() []Field[T] {
	out := make([]Field[T], len(f.fields))
	copy(out, f.fields)
	return out
}

// Builder assembles a Form.
//
// Add each field, bind any custom crackers by field name, then call Build.
// Build is where every construction-time invariant is checked: unique
// non-empty names, a resolvable converter for every declared type, a
// non-nil Assign, and cracker bindings that point at fields which exist.
// A Builder is single-use; Build a fresh one per form.
//
// # Example
//
//	form, err := formfill.NewBuilder[Registration]("registration", convert.Defaults()).
//	    Add(formfill.Field[Registration]{
//	        Name:     "age",
//	        Prompt:   "How old are you?",
//	        Type:     formfill.TypeInteger,
//	        Required: true,
//	        Retries: map[formfill.FailureKind]formfill.RetryPolicy{
//	            formfill.FailureConverting: retry.Budget(1),
//	        },
//	        Assign: func(r *Registration, v any) { r.Age = int(v.(int64)) },
//	    }).
//	    Add(formfill.Field[Registration]{
//	        Name:   "name",
//	        Prompt: "What's your name?",
//	        Type:   formfill.TypeString,
//	        Assign: func(r *Registration, v any) { r.Name = v.(string) },
//	    }).
//	    Build()
type Builder[T any] struct {
	name     string
	resolver ConverterResolver
	fields   []Field[T]
	crackers map[string]Cracker
}

// NewBuilder returns a Builder for a form with the given name. The
// resolver supplies converters for the declared field types; every field
// added to this builder must have a type the resolver can resolve.
func NewBuilder[T any](name string, resolver ConverterResolver) *Builder[T] {
	return &Builder[T]{
		name:     name,
		resolver: resolver,
		crackers: make(map[string]Cracker),
	}
}

// Add appends a field. Validation happens in Build, not here, so Add can
// be chained without error handling.
func (b *Builder[T]) Add(field Field[T]) *Builder[T] {
	b.fields = append(b.fields, field)
	return b
}

// BindCracker binds a custom cracker to the named field, overriding any
// cracker set on the field itself. Binding a name that no added field
// carries is a configuration error reported by Build.
func (b *Builder[T]) BindCracker(fieldName string, c Cracker) *Builder[T] {
	b.crackers[fieldName] = c
	return b
}

// Build validates the accumulated configuration and returns the immutable
// Form. The builder's fields are copied; the builder can be discarded
// afterwards.
func (b *Builder[T]) Build() (*Form[T], error) {
	if b.name == "" {
		return nil, fmt.Errorf("formfill: form name is empty")
	}
	if b.resolver == nil {
		return nil, fmt.Errorf("formfill: form %q has no converter resolver", b.name)
	}
	if len(b.fields) == 0 {
		return nil, fmt.Errorf("formfill: form %q has no fields", b.name)
	}

	form := &Form[T]{
		name:       b.name,
		fields:     make([]Field[T], len(b.fields)),
		converters: make(map[string]Converter, len(b.fields)),
	}
	copy(form.fields, b.fields)

	seen := make(map[string]bool, len(form.fields))
	for i := range form.fields {
		field := &form.fields[i]
		if field.Name == "" {
			return nil, fmt.Errorf("formfill: form %q has a field with no name", b.name)
		}
		if seen[field.Name] {
			return nil, fmt.Errorf("formfill: form %q declares field %q twice", b.name, field.Name)
		}
		seen[field.Name] = true

		if field.Assign == nil {
			return nil, fmt.Errorf("formfill: field %q has no Assign", field.Name)
		}
		if field.Timeout < 0 {
			return nil, fmt.Errorf("formfill: field %q has a negative timeout", field.Name)
		}
		if field.Timeout == 0 {
			field.Timeout = DefaultFieldTimeout
		}
		for kind, policy := range field.Retries {
			if policy == nil {
				return nil, fmt.Errorf("formfill: field %q has a nil retry policy for %q", field.Name, kind)
			}
		}

		conv, ok := b.resolver.Resolve(field.Type)
		if !ok {
			return nil, fmt.Errorf("formfill: no converter for type %q of field %q", field.Type, field.Name)
		}
		form.converters[field.Name] = conv

		// Copy the prototype map so later mutation of the caller's map
		// cannot reach the built form.
		if len(field.Retries) > 0 {
			retries := make(map[FailureKind]RetryPolicy, len(field.Retries))
			for kind, policy := range field.Retries {
				retries[kind] = policy
			}
			field.Retries = retries
		}

		if bound, ok := b.crackers[field.Name]; ok {
			field.Cracker = bound
		}
		if field.Cracker == nil {
			field.Cracker = NewTextCracker(conv)
		}
	}

	for name := range b.crackers {
		if !seen[name] {
			return nil, fmt.Errorf("formfill: cracker bound to unknown field %q", name)
		}
	}

	sort.SliceStable(form.fields, func(i, j int) bool {
		return form.fields[i].Priority < form.fields[j].Priority
	})

	return form, nil
}
