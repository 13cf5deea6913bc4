package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	type input struct {
		raw map[string]any
	}

	type expected struct {
		isNil    bool
		hasErr   bool
		rawIsNil bool
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:  "nil schema returns nil",
			input: input{raw: nil},
			expected: expected{
				isNil:    true,
				hasErr:   false,
				rawIsNil: true,
			},
		},
		{
			name: "valid property schema compiles",
			input: input{
				raw: map[string]any{
					"type":    "integer",
					"minimum": float64(18),
				},
			},
			expected: expected{
				isNil:    false,
				hasErr:   false,
				rawIsNil: false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Compile(tt.input.raw)

			if tt.expected.hasErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			if tt.expected.isNil {
				assert.Nil(t, s)
			} else {
				assert.NotNil(t, s)
				if !tt.expected.rawIsNil {
					assert.NotNil(t, s.Raw())
				}
			}
		})
	}
}

func TestSchema_Validate_Scalars(t *testing.T) {
	type input struct {
		prop  *Property
		value any
	}

	type expected struct {
		hasErr bool
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "integer in range passes",
			input:    input{prop: Integer("Age").Min(18).Max(130), value: int64(25)},
			expected: expected{hasErr: false},
		},
		{
			name:     "integer below minimum fails",
			input:    input{prop: Integer("Age").Min(18), value: int64(10)},
			expected: expected{hasErr: true},
		},
		{
			name:     "plain int passes as integer",
			input:    input{prop: Integer("Count").Min(0), value: 3},
			expected: expected{hasErr: false},
		},
		{
			name:     "string within length bounds passes",
			input:    input{prop: String("Name").MinLength(1).MaxLength(10), value: "Alice"},
			expected: expected{hasErr: false},
		},
		{
			name:     "string too short fails",
			input:    input{prop: String("Name").MinLength(1), value: ""},
			expected: expected{hasErr: true},
		},
		{
			name:     "pattern mismatch fails",
			input:    input{prop: String("Code").Pattern(`^[A-Z]{2}[0-9]{4}$`), value: "xx0000"},
			expected: expected{hasErr: true},
		},
		{
			name:     "enum member passes",
			input:    input{prop: String("Plan").Enum("free", "pro"), value: "pro"},
			expected: expected{hasErr: false},
		},
		{
			name:     "enum outsider fails",
			input:    input{prop: String("Plan").Enum("free", "pro"), value: "trial"},
			expected: expected{hasErr: true},
		},
		{
			name:     "number passes for float value",
			input:    input{prop: Number("Rating").Min(0).Max(5), value: 4.5},
			expected: expected{hasErr: false},
		},
		{
			name:     "wrong type fails",
			input:    input{prop: Integer("Age"), value: "twenty"},
			expected: expected{hasErr: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Compile(tt.input.prop.Build())
			require.NoError(t, err)

			err = s.Validate(tt.input.value)

			if tt.expected.hasErr {
				require.Error(t, err)
				var ve *ValidationError
				assert.ErrorAs(t, err, &ve)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSchema_Validate_TimeAndDuration(t *testing.T) {
	timeSchema, err := Compile(Time("Appointment").Build())
	require.NoError(t, err)

	assert.NoError(t, timeSchema.Validate(time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)))
	assert.Error(t, timeSchema.Validate("next tuesday-ish"))

	durationSchema, err := Compile(Duration("Session length").Min(60).Max(3600).Build())
	require.NoError(t, err)

	assert.NoError(t, durationSchema.Validate(2*time.Minute))
	assert.Error(t, durationSchema.Validate(30*time.Second))
	assert.Error(t, durationSchema.Validate(2*time.Hour))
}

func TestSchema_Validate_NilSchema(t *testing.T) {
	var s *Schema
	err := s.Validate("anything")
	assert.NoError(t, err, "nil schema should always pass validation")
}

func TestMustCompile(t *testing.T) {
	type input struct {
		raw map[string]any
	}

	type expected struct {
		isNil bool
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "valid schema returns non-nil",
			input:    input{raw: map[string]any{"type": "string"}},
			expected: expected{isNil: false},
		},
		{
			name:     "nil input returns nil",
			input:    input{raw: nil},
			expected: expected{isNil: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := MustCompile(tt.input.raw)

			if tt.expected.isNil {
				assert.Nil(t, s)
			} else {
				assert.NotNil(t, s)
			}
		})
	}
}

func TestObject_Basic(t *testing.T) {
	schema := Object(map[string]*Property{
		"name": String("Full name"),
		"age":  Integer("Applicant age"),
	}, "name")

	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok, "expected properties map")
	assert.Len(t, props, 2)

	required, ok := schema["required"].([]string)
	require.True(t, ok, "expected required array")
	assert.Equal(t, []string{"name"}, required)
}

func TestString_WithConstraints(t *testing.T) {
	prop := String("Contact address").
		MinLength(1).
		MaxLength(100).
		Pattern("^[a-z]+$").
		Format("email")

	built := prop.Build()

	assert.Equal(t, "string", built["type"])
	assert.Equal(t, "Contact address", built["description"])
	assert.Equal(t, 1, built["minLength"])
	assert.Equal(t, 100, built["maxLength"])
	assert.Equal(t, "^[a-z]+$", built["pattern"])
	assert.Equal(t, "email", built["format"])
}

func TestInteger_WithConstraints(t *testing.T) {
	prop := Integer("Party size").Min(0).Max(100)

	built := prop.Build()

	assert.Equal(t, "integer", built["type"])
	assert.Equal(t, float64(0), built["minimum"])
	assert.Equal(t, float64(100), built["maximum"])
}

func TestTime_Basic(t *testing.T) {
	built := Time("Appointment slot").Build()

	assert.Equal(t, "string", built["type"])
	assert.Equal(t, "date-time", built["format"])
}

func TestDuration_Basic(t *testing.T) {
	built := Duration("Session length").Min(60).Build()

	assert.Equal(t, "number", built["type"])
	assert.Equal(t, float64(60), built["minimum"])
}

func TestProperty_Enum(t *testing.T) {
	prop := String("Plan").Enum("free", "pro", "enterprise")
	built := prop.Build()

	enum, ok := built["enum"].([]any)
	require.True(t, ok, "expected enum array")
	assert.Equal(t, []any{"free", "pro", "enterprise"}, enum)
}

func TestProperty_Default(t *testing.T) {
	prop := Integer("Party size").Default(2)
	built := prop.Build()

	assert.Equal(t, 2, built["default"])
}

func TestValidationError_Error(t *testing.T) {
	originalErr := &ValidationError{Err: nil}
	msg := originalErr.Error()
	assert.Equal(t, "schema validation failed: <nil>", msg)
}

func TestValidationError_Unwrap(t *testing.T) {
	inner := &ValidationError{}
	outer := &ValidationError{Err: inner}

	unwrapped := outer.Unwrap()
	assert.Equal(t, inner, unwrapped)
}

func TestObjectSchema_ValidatesAnswerMaps(t *testing.T) {
	type input struct {
		answers map[string]any
	}

	type expected struct {
		hasErr bool
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name: "complete answers pass",
			input: input{
				answers: map[string]any{
					"name":  "Alice",
					"email": "alice@example.com",
					"age":   int64(30),
				},
			},
			expected: expected{hasErr: false},
		},
		{
			name: "missing required email fails",
			input: input{
				answers: map[string]any{
					"name": "Alice",
				},
			},
			expected: expected{hasErr: true},
		},
		{
			name: "out of range age fails",
			input: input{
				answers: map[string]any{
					"name":  "Alice",
					"email": "alice@example.com",
					"age":   int64(300),
				},
			},
			expected: expected{hasErr: true},
		},
	}

	raw := Object(map[string]*Property{
		"name":  String("Full name").MinLength(1),
		"email": String("Contact address").Format("email"),
		"age":   Integer("Applicant age").Min(0).Max(150),
	}, "name", "email")

	s, err := Compile(raw)
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(tt.input.answers)

			if tt.expected.hasErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
