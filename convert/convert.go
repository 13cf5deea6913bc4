// Package convert provides the stock converters for field value types
// and a registry that resolves them by type.
//
// # Quick Start
//
//	form, err := formfill.NewBuilder[Registration]("registration", convert.Defaults()).
//	    Add(...).
//	    Build()
//
// Defaults covers every formfill.ValueType. Individual entries can be
// replaced, and custom types added, through Register:
//
//	registry := convert.Defaults().
//	    Register(formfill.TypeTime, myFuzzyTimeConverter)
//
// The stock converters accept the raw string a cracker extracted from
// chat, plus the typed forms a structured cracker may hand over, so an
// LLM cracker returning an int64 directly does not need re-parsing.
package convert

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/fieldworks/formfill"
)

// Registry resolves converters by value type. It implements
// formfill.ConverterResolver.
type Registry struct {
	converters map[formfill.ValueType]formfill.Converter
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{converters: make(map[formfill.ValueType]formfill.Converter)}
}

// Defaults returns a Registry with the stock converter for every value
// type.
func Defaults() *Registry {
	return NewRegistry().
		Register(formfill.TypeString, String()).
		Register(formfill.TypeInteger, Integer()).
		Register(formfill.TypeNumber, Number()).
		Register(formfill.TypeBoolean, Boolean()).
		Register(formfill.TypeTime, Time()).
		Register(formfill.TypeDuration, Duration())
}

// Register binds a converter to a value type, replacing any existing
// binding. Returns the registry for chaining.
func (r *Registry) Register(t formfill.ValueType, c formfill.Converter) *Registry {
	r.converters[t] = c
	return r
}

// Resolve returns the converter for a value type.
func (r *Registry) Resolve(t formfill.ValueType) (formfill.Converter, bool) {
	c, ok := r.converters[t]
	return c, ok
}

// -----------------------------------------------------------------------------
// Stock Converters
// -----------------------------------------------------------------------------

// String converts to string. Leading and trailing whitespace is dropped;
// interior whitespace is preserved.
func String() formfill.Converter {
	return formfill.ConverterFunc(func(raw any) (any, error) {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("convert: want text, got %T", raw)
		}
		return strings.TrimSpace(s), nil
	})
}

// Integer converts to int64. Strings parse in base 10; float raws are
// accepted when they carry a whole number.
func Integer() formfill.Converter {
	return formfill.ConverterFunc(func(raw any) (any, error) {
		switch v := raw.(type) {
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("convert: %q is not a whole number", v)
			}
			return n, nil
		case int:
			return int64(v), nil
		case int64:
			return v, nil
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("convert: %v is not a whole number", v)
			}
			return int64(v), nil
		case json.Number:
			n, err := v.Int64()
			if err != nil {
				return nil, fmt.Errorf("convert: %q is not a whole number", v.String())
			}
			return n, nil
		}
		return nil, fmt.Errorf("convert: cannot read %T as a whole number", raw)
	})
}

// Number converts to float64.
func Number() formfill.Converter {
	return formfill.ConverterFunc(func(raw any) (any, error) {
		switch v := raw.(type) {
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("convert: %q is not a number", v)
			}
			return f, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case float64:
			return v, nil
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return nil, fmt.Errorf("convert: %q is not a number", v.String())
			}
			return f, nil
		}
		return nil, fmt.Errorf("convert: cannot read %T as a number", raw)
	})
}

// Boolean converts to bool. Besides strconv's forms it understands the
// words people actually type in chat: yes, no, yeah, nope, on, off.
func Boolean() formfill.Converter {
	return formfill.ConverterFunc(func(raw any) (any, error) {
		switch v := raw.(type) {
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "yes", "y", "yeah", "yep", "sure", "on":
				return true, nil
			case "no", "n", "nope", "nah", "off":
				return false, nil
			}
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("convert: %q is not a yes or a no", v)
			}
			return b, nil
		case bool:
			return v, nil
		}
		return nil, fmt.Errorf("convert: cannot read %T as a yes or a no", raw)
	})
}

// Accepted layouts for Time, most specific first.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"15:04",
}

// Time converts to time.Time. Strings are tried against a fixed set of
// layouts, from full RFC 3339 timestamps down to a bare date or a bare
// clock time.
func Time() formfill.Converter {
	return formfill.ConverterFunc(func(raw any) (any, error) {
		switch v := raw.(type) {
		case string:
			s := strings.TrimSpace(v)
			for _, layout := range timeLayouts {
				if ts, err := time.Parse(layout, s); err == nil {
					return ts, nil
				}
			}
			return nil, fmt.Errorf("convert: %q is not a date or time", v)
		case time.Time:
			return v, nil
		}
		return nil, fmt.Errorf("convert: cannot read %T as a date or time", raw)
	})
}

// Duration converts to time.Duration. Strings use Go's duration syntax
// ("90m", "1h30m"); bare numbers are taken as seconds.
func Duration() formfill.Converter {
	return formfill.ConverterFunc(func(raw any) (any, error) {
		switch v := raw.(type) {
		case string:
			s := strings.TrimSpace(v)
			if d, err := time.ParseDuration(s); err == nil {
				return d, nil
			}
			if secs, err := strconv.ParseFloat(s, 64); err == nil {
				return time.Duration(secs * float64(time.Second)), nil
			}
			return nil, fmt.Errorf("convert: %q is not a duration", v)
		case int:
			return time.Duration(v) * time.Second, nil
		case int64:
			return time.Duration(v) * time.Second, nil
		case float64:
			return time.Duration(v * float64(time.Second)), nil
		case time.Duration:
			return v, nil
		}
		return nil, fmt.Errorf("convert: cannot read %T as a duration", raw)
	})
}
