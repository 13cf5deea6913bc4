package formdef

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/fieldworks/formfill"
	"github.com/fieldworks/formfill/convert"
)

// FromStruct derives form fields from T's exported struct fields, so the
// destination struct doubles as the form definition:
//
//	type Registration struct {
//	    Age   int64  `form:"age,required" prompt:"How old are you?"`
//	    Email string `form:"email" prompt:"What is your email address?"`
//	    Notes string `form:",timeout=45s" prompt:"Anything else we should know?"`
//
//	    CreatedAt time.Time `form:"-"`
//	}
//
// The form tag's first element is the field name (empty keeps the Go
// name, "-" skips the field); the rest are options: required,
// priority=N and timeout=D. Every included field needs a prompt tag.
// Fields are asked in declaration order unless priorities say otherwise.
//
// The field's value type follows the Go type: string, integer kinds,
// float kinds, bool, time.Time and time.Duration, plus pointers to any
// of those. Pointer fields stay nil when the field resolves to null;
// value fields keep their zero value. Assign drops integers that would
// overflow the target, so constrain narrow integer fields with a
// validator.
func FromStruct[T any]() ([]formfill.Field[T], error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("formdef: %s is not a struct", t)
	}

	var fields []formfill.Field[T]
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		name := sf.Name
		required := false
		priority := 0
		var timeout time.Duration

		if tag, ok := sf.Tag.Lookup("form"); ok {
			parts := strings.Split(tag, ",")
			if parts[0] == "-" {
				continue
			}
			if parts[0] != "" {
				name = parts[0]
			}
			for _, opt := range parts[1:] {
				switch {
				case opt == "required":
					required = true
				case strings.HasPrefix(opt, "priority="):
					n, err := strconv.Atoi(strings.TrimPrefix(opt, "priority="))
					if err != nil {
						return nil, fmt.Errorf("formdef: field %s has bad priority: %w", sf.Name, err)
					}
					priority = n
				case strings.HasPrefix(opt, "timeout="):
					d, err := time.ParseDuration(strings.TrimPrefix(opt, "timeout="))
					if err != nil {
						return nil, fmt.Errorf("formdef: field %s has bad timeout: %w", sf.Name, err)
					}
					timeout = d
				default:
					return nil, fmt.Errorf("formdef: field %s has unknown form option %q", sf.Name, opt)
				}
			}
		}

		prompt := sf.Tag.Get("prompt")
		if prompt == "" {
			return nil, fmt.Errorf("formdef: field %s has no prompt tag", sf.Name)
		}

		vt, err := valueTypeOf(sf.Type)
		if err != nil {
			return nil, fmt.Errorf("formdef: field %s: %w", sf.Name, err)
		}

		if priority == 0 {
			priority = len(fields) + 1
		}

		fields = append(fields, formfill.Field[T]{
			Name:     name,
			Prompt:   prompt,
			Type:     vt,
			Priority: priority,
			Timeout:  timeout,
			Required: required,
			Assign:   structAssign[T](i, sf.Type),
		})
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("formdef: %s declares no form fields", t)
	}
	return fields, nil
}

// StructForm builds a complete form from T's struct tags using the
// stock converters.
func StructForm[T any](name string) (*formfill.Form[T], error) {
	fields, err := FromStruct[T]()
	if err != nil {
		return nil, err
	}

	builder := formfill.NewBuilder[T](name, convert.Defaults())
	for _, field := range fields {
		builder.Add(field)
	}
	return builder.Build()
}

// valueTypeOf maps a Go type to the form value type its converter
// produces. Duration is int64 underneath, so it is checked before the
// integer kinds.
func valueTypeOf(t reflect.Type) (formfill.ValueType, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t == reflect.TypeOf((*time.Time)(nil)).Elem() {
		return formfill.TypeTime, nil
	}
	if t == reflect.TypeOf((*time.Duration)(nil)).Elem() {
		return formfill.TypeDuration, nil
	}

	switch t.Kind() {
	case reflect.String:
		return formfill.TypeString, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return formfill.TypeInteger, nil
	case reflect.Float32, reflect.Float64:
		return formfill.TypeNumber, nil
	case reflect.Bool:
		return formfill.TypeBoolean, nil
	default:
		return "", fmt.Errorf("unsupported type %s", t)
	}
}

// structAssign returns an Assign closure that sets struct field index
// via reflection. Pointer fields are allocated on assignment, which is
// how a caller tells an answered zero from an unanswered field.
func structAssign[T any](index int, ft reflect.Type) func(*T, any) {
	ptr := ft.Kind() == reflect.Ptr
	elem := ft
	if ptr {
		elem = ft.Elem()
	}

	return func(form *T, value any) {
		target := reflect.ValueOf(form).Elem().Field(index)
		if ptr {
			p := reflect.New(elem)
			setScalar(p.Elem(), value)
			target.Set(p)
			return
		}
		setScalar(target, value)
	}
}

func setScalar(target reflect.Value, value any) {
	switch v := value.(type) {
	case string:
		target.SetString(v)
	case int64:
		if !target.OverflowInt(v) {
			target.SetInt(v)
		}
	case float64:
		target.SetFloat(v)
	case bool:
		target.SetBool(v)
	case time.Time:
		target.Set(reflect.ValueOf(v))
	case time.Duration:
		target.SetInt(int64(v))
	}
}
