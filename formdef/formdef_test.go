package formdef

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/formfill"
)

const registrationYAML = `
form: registration
fields:
  - name: age
    prompt: How old are you?
    type: integer
    required: true
    retries:
      timeout: 2
      converting: 1
    constraint:
      description: Applicant age
      minimum: 13
      maximum: 120
  - name: email
    prompt: What is your email address?
    type: string
    required: true
    constraint:
      format: email
  - name: notes
    prompt: Anything else we should know?
    type: string
    timeout: 45s
    cancel_words: [cancel, stop]
`

// scriptedSource feeds a fixed list of answers to a fill.
type scriptedSource struct {
	script []*formfill.Message
	reads  int
}

func (s *scriptedSource) Resolve(context.Context, string) (string, error) {
	return "conv-1", nil
}

func (s *scriptedSource) ReadNext(context.Context, string, time.Duration) (*formfill.Message, error) {
	if s.reads >= len(s.script) {
		return nil, nil
	}
	msg := s.script[s.reads]
	s.reads++
	return msg, nil
}

func answers(texts ...string) *scriptedSource {
	s := &scriptedSource{}
	for i, text := range texts {
		s.script = append(s.script, &formfill.Message{
			ID:             "m" + string(rune('1'+i)),
			ConversationID: "conv-1",
			From:           "user-1",
			Text:           text,
			ReceivedAt:     time.Now(),
		})
	}
	return s
}

func TestParse_FullDefinition(t *testing.T) {
	def, err := Parse([]byte(registrationYAML))
	require.NoError(t, err)

	assert.Equal(t, "registration", def.Form)
	require.Len(t, def.Fields, 3)

	age := def.Fields[0]
	assert.Equal(t, "age", age.Name)
	assert.Equal(t, "How old are you?", age.Prompt)
	assert.Equal(t, "integer", age.Type)
	assert.True(t, age.Required)
	assert.Equal(t, map[string]int{"timeout": 2, "converting": 1}, age.Retries)
	require.NotNil(t, age.Constraint)
	assert.Equal(t, "Applicant age", age.Constraint.Description)
	require.NotNil(t, age.Constraint.Minimum)
	assert.Equal(t, float64(13), *age.Constraint.Minimum)

	notes := def.Fields[2]
	assert.Equal(t, Duration(45*time.Second), notes.Timeout)
	assert.Equal(t, []string{"cancel", "stop"}, notes.CancelWords)
	assert.False(t, notes.Required)
	assert.Nil(t, notes.Constraint)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty document",
			input:    "",
			expected: "empty definition",
		},
		{
			name:     "missing form name",
			input:    "fields:\n  - name: age\n    prompt: Age?\n    type: integer\n",
			expected: "no form name",
		},
		{
			name:     "no fields",
			input:    "form: registration\n",
			expected: "has no fields",
		},
		{
			name:     "field without name",
			input:    "form: r\nfields:\n  - prompt: Age?\n    type: integer\n",
			expected: "no name",
		},
		{
			name: "duplicate field",
			input: "form: r\nfields:\n" +
				"  - {name: age, prompt: Age?, type: integer}\n" +
				"  - {name: age, prompt: Again?, type: integer}\n",
			expected: `declares field "age" twice`,
		},
		{
			name:     "field without prompt",
			input:    "form: r\nfields:\n  - {name: age, type: integer}\n",
			expected: "no prompt",
		},
		{
			name:     "field without type",
			input:    "form: r\nfields:\n  - {name: age, prompt: Age?}\n",
			expected: "no type",
		},
		{
			name:     "unknown type",
			input:    "form: r\nfields:\n  - {name: age, prompt: Age?, type: text}\n",
			expected: `unknown type "text"`,
		},
		{
			name: "unknown retry kind",
			input: "form: r\nfields:\n" +
				"  - {name: age, prompt: Age?, type: integer, retries: {parsing: 2}}\n",
			expected: `unknown retry kind "parsing"`,
		},
		{
			name: "negative retries",
			input: "form: r\nfields:\n" +
				"  - {name: age, prompt: Age?, type: integer, retries: {timeout: -1}}\n",
			expected: "negative retries",
		},
		{
			name: "unknown key rejected",
			input: "form: r\nfields:\n" +
				"  - {name: age, prompt: Age?, type: integer, requried: true}\n",
			expected: "requried",
		},
		{
			name: "unparseable timeout",
			input: "form: r\nfields:\n" +
				"  - {name: age, prompt: Age?, type: integer, timeout: soon}\n",
			expected: `parse duration "soon"`,
		},
		{
			name: "negative timeout",
			input: "form: r\nfields:\n" +
				"  - {name: age, prompt: Age?, type: integer, timeout: -45s}\n",
			expected: "negative timeout",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expected)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registration.yaml")
	require.NoError(t, os.WriteFile(path, []byte(registrationYAML), 0o644))

	def, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "registration", def.Form)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestDefinition_Build(t *testing.T) {
	def, err := Parse([]byte(registrationYAML))
	require.NoError(t, err)

	form, constraints, err := def.Build()
	require.NoError(t, err)
	require.NotNil(t, form)
	require.NotNil(t, constraints)

	assert.Equal(t, "registration", form.Name())
	require.Equal(t, 3, form.Len())

	fields := form.Fields()
	assert.Equal(t, "age", fields[0].Name)
	assert.Equal(t, "email", fields[1].Name)
	assert.Equal(t, "notes", fields[2].Name)
	assert.Equal(t, formfill.TypeInteger, fields[0].Type)
	assert.Equal(t, 45*time.Second, fields[2].Timeout)

	require.NotNil(t, fields[0].Retries)
	assert.Equal(t, 2, fields[0].Retries[formfill.FailureTimeout].Snapshot().MaxAttempts)
	assert.Equal(t, 1, fields[0].Retries[formfill.FailureConverting].Snapshot().MaxAttempts)

	require.NotNil(t, fields[2].CancelTrigger)
	assert.True(t, fields[2].CancelTrigger.ShouldCancel(&formfill.Message{Text: "Cancel"}))
	assert.False(t, fields[2].CancelTrigger.ShouldCancel(&formfill.Message{Text: "keep going"}))
	assert.Nil(t, fields[0].CancelTrigger)

	ok, diags := constraints.Validate(nil, "age", int64(10))
	require.False(t, ok)
	require.NotEmpty(t, diags)
	assert.Equal(t, "minimum", diags[0].Rule)

	ok, _ = constraints.Validate(nil, "age", int64(25))
	assert.True(t, ok)

	// Unconstrained fields still validate against their base type.
	ok, _ = constraints.Validate(nil, "notes", "free text")
	assert.True(t, ok)
}

func TestDefinition_Build_ExplicitPriorityWins(t *testing.T) {
	def, err := Parse([]byte(`
form: ordered
fields:
  - {name: second, prompt: Second?, type: string, priority: 5}
  - {name: first, prompt: First?, type: string, priority: 1}
`))
	require.NoError(t, err)

	form, _, err := def.Build()
	require.NoError(t, err)

	fields := form.Fields()
	assert.Equal(t, "first", fields[0].Name)
	assert.Equal(t, "second", fields[1].Name)
}

func TestDefinition_Build_AssignPopulatesValues(t *testing.T) {
	def, err := Parse([]byte(registrationYAML))
	require.NoError(t, err)

	form, _, err := def.Build()
	require.NoError(t, err)

	// Assign must cope with the zero Values a plain new(T) produces.
	var values Values
	form.Fields()[0].Assign(&values, int64(25))
	assert.Equal(t, Values{"age": int64(25)}, values)
}

func TestDefinition_Build_FillsValues(t *testing.T) {
	def, err := Parse([]byte(registrationYAML))
	require.NoError(t, err)

	form, constraints, err := def.Build()
	require.NoError(t, err)

	filler, err := formfill.NewFiller(formfill.Config[Values]{
		Form:      form,
		Source:    answers("25", "alice@example.com", "no peanuts please"),
		Validator: constraints,
	})
	require.NoError(t, err)

	result := filler.Fill(context.Background(), "user-1")
	require.NoError(t, result.Err)
	assert.Equal(t, Values{
		"age":   int64(25),
		"email": "alice@example.com",
		"notes": "no peanuts please",
	}, *result.Form)
}

func TestDefinition_Schema(t *testing.T) {
	def, err := Parse([]byte(registrationYAML))
	require.NoError(t, err)

	s, err := def.Schema()
	require.NoError(t, err)

	assert.NoError(t, s.Validate(map[string]any{
		"age":   int64(25),
		"email": "alice@example.com",
	}))
	assert.Error(t, s.Validate(map[string]any{
		"email": "alice@example.com",
	}), "missing required age")
	assert.Error(t, s.Validate(map[string]any{
		"age":   int64(9),
		"email": "alice@example.com",
	}), "age below minimum")
}
