package convert

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/formfill"
)

func TestDefaults_CoversEveryValueType(t *testing.T) {
	registry := Defaults()

	for _, vt := range []formfill.ValueType{
		formfill.TypeString,
		formfill.TypeInteger,
		formfill.TypeNumber,
		formfill.TypeBoolean,
		formfill.TypeTime,
		formfill.TypeDuration,
	} {
		c, ok := registry.Resolve(vt)
		assert.True(t, ok, "type %s", vt)
		assert.NotNil(t, c, "type %s", vt)
	}
}

func TestRegistry_ResolveUnknownType(t *testing.T) {
	_, ok := NewRegistry().Resolve(formfill.ValueType("coordinates"))
	assert.False(t, ok)
}

func TestRegistry_RegisterOverrides(t *testing.T) {
	fixed := formfill.ConverterFunc(func(any) (any, error) { return int64(7), nil })
	registry := Defaults().Register(formfill.TypeInteger, fixed)

	c, ok := registry.Resolve(formfill.TypeInteger)
	require.True(t, ok)

	v, err := c.Convert("999")
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)
}

func TestString(t *testing.T) {
	type input struct {
		raw any
	}

	type expected struct {
		value  any
		hasErr bool
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "trims outer whitespace",
			input:    input{raw: "  hi there  "},
			expected: expected{value: "hi there"},
		},
		{
			name:     "empty string is a valid string",
			input:    input{raw: ""},
			expected: expected{value: ""},
		},
		{
			name:     "non-text raw is rejected",
			input:    input{raw: 42},
			expected: expected{hasErr: true},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := String().Convert(tc.input.raw)

			if tc.expected.hasErr {
				require.Error(t, err)
				assert.Nil(t, v)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected.value, v)
		})
	}
}

func TestInteger(t *testing.T) {
	type input struct {
		raw any
	}

	type expected struct {
		value  any
		hasErr bool
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "plain digits",
			input:    input{raw: "42"},
			expected: expected{value: int64(42)},
		},
		{
			name:     "surrounding whitespace",
			input:    input{raw: "  -7  "},
			expected: expected{value: int64(-7)},
		},
		{
			name:     "words are not numbers",
			input:    input{raw: "twenty"},
			expected: expected{hasErr: true},
		},
		{
			name:     "fraction string is rejected",
			input:    input{raw: "3.5"},
			expected: expected{hasErr: true},
		},
		{
			name:     "whole float is accepted",
			input:    input{raw: float64(25)},
			expected: expected{value: int64(25)},
		},
		{
			name:     "fractional float is rejected",
			input:    input{raw: 25.5},
			expected: expected{hasErr: true},
		},
		{
			name:     "typed int64 passes through",
			input:    input{raw: int64(9)},
			expected: expected{value: int64(9)},
		},
		{
			name:     "json number",
			input:    input{raw: json.Number("10")},
			expected: expected{value: int64(10)},
		},
		{
			name:     "bool is rejected",
			input:    input{raw: true},
			expected: expected{hasErr: true},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Integer().Convert(tc.input.raw)

			if tc.expected.hasErr {
				require.Error(t, err)
				assert.Nil(t, v)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected.value, v)
		})
	}
}

func TestNumber(t *testing.T) {
	type input struct {
		raw any
	}

	type expected struct {
		value  any
		hasErr bool
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "decimal string",
			input:    input{raw: "3.14"},
			expected: expected{value: 3.14},
		},
		{
			name:     "integer string",
			input:    input{raw: "2"},
			expected: expected{value: float64(2)},
		},
		{
			name:     "typed int widens",
			input:    input{raw: int64(5)},
			expected: expected{value: float64(5)},
		},
		{
			name:     "not a number",
			input:    input{raw: "lots"},
			expected: expected{hasErr: true},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Number().Convert(tc.input.raw)

			if tc.expected.hasErr {
				require.Error(t, err)
				assert.Nil(t, v)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected.value, v)
		})
	}
}

func TestBoolean(t *testing.T) {
	type input struct {
		raw any
	}

	type expected struct {
		value  any
		hasErr bool
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "yes",
			input:    input{raw: "yes"},
			expected: expected{value: true},
		},
		{
			name:     "nope with padding",
			input:    input{raw: "  Nope "},
			expected: expected{value: false},
		},
		{
			name:     "strconv form still works",
			input:    input{raw: "TRUE"},
			expected: expected{value: true},
		},
		{
			name:     "off",
			input:    input{raw: "off"},
			expected: expected{value: false},
		},
		{
			name:     "maybe is not an answer",
			input:    input{raw: "maybe"},
			expected: expected{hasErr: true},
		},
		{
			name:     "typed bool passes through",
			input:    input{raw: true},
			expected: expected{value: true},
		},
		{
			name:     "number is rejected",
			input:    input{raw: 1},
			expected: expected{hasErr: true},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Boolean().Convert(tc.input.raw)

			if tc.expected.hasErr {
				require.Error(t, err)
				assert.Nil(t, v)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected.value, v)
		})
	}
}

func TestTime(t *testing.T) {
	type input struct {
		raw any
	}

	type expected struct {
		value  time.Time
		hasErr bool
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "rfc3339",
			input:    input{raw: "2025-06-01T09:30:00Z"},
			expected: expected{value: time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)},
		},
		{
			name:     "date with minutes",
			input:    input{raw: "2025-06-01 09:30"},
			expected: expected{value: time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)},
		},
		{
			name:     "bare date",
			input:    input{raw: "2025-06-01"},
			expected: expected{value: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		},
		{
			name:     "typed time passes through",
			input:    input{raw: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
			expected: expected{value: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		},
		{
			name:     "prose is rejected",
			input:    input{raw: "next tuesday"},
			expected: expected{hasErr: true},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Time().Convert(tc.input.raw)

			if tc.expected.hasErr {
				require.Error(t, err)
				assert.Nil(t, v)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected.value, v)
		})
	}
}

func TestTime_BareClockTime(t *testing.T) {
	v, err := Time().Convert("09:30")
	require.NoError(t, err)

	ts, ok := v.(time.Time)
	require.True(t, ok)
	assert.Equal(t, 9, ts.Hour())
	assert.Equal(t, 30, ts.Minute())
}

func TestDuration(t *testing.T) {
	type input struct {
		raw any
	}

	type expected struct {
		value  time.Duration
		hasErr bool
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "go syntax",
			input:    input{raw: "1h30m"},
			expected: expected{value: 90 * time.Minute},
		},
		{
			name:     "bare number is seconds",
			input:    input{raw: "45"},
			expected: expected{value: 45 * time.Second},
		},
		{
			name:     "typed int is seconds",
			input:    input{raw: int64(30)},
			expected: expected{value: 30 * time.Second},
		},
		{
			name:     "typed float is seconds",
			input:    input{raw: 1.5},
			expected: expected{value: 1500 * time.Millisecond},
		},
		{
			name:     "typed duration passes through",
			input:    input{raw: 2 * time.Hour},
			expected: expected{value: 2 * time.Hour},
		},
		{
			name:     "prose is rejected",
			input:    input{raw: "soon"},
			expected: expected{hasErr: true},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Duration().Convert(tc.input.raw)

			if tc.expected.hasErr {
				require.Error(t, err)
				assert.Nil(t, v)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected.value, v)
		})
	}
}
