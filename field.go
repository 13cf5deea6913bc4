package formfill

import "time"

// DefaultFieldTimeout is applied by Builder.Build to fields that leave
// Timeout unset.
const DefaultFieldTimeout = 30 * time.Second

// ValueType names the declared type a field's answers are converted to.
// Builder.Build resolves each field's type to a Converter once, up front;
// an unresolvable type is a construction error, never a per-message one.
type ValueType string

const (
	TypeString   ValueType = "string"
	TypeInteger  ValueType = "integer"
	TypeNumber   ValueType = "number"
	TypeBoolean  ValueType = "boolean"
	TypeTime     ValueType = "time"
	TypeDuration ValueType = "duration"
)

// Field describes one named, typed slot on a form of type T.
//
// Fields are static configuration: a Form holds them immutably and shares
// them across every fill and every user. The one stateful-looking member,
// Retries, holds prototypes only. Filler.Fill clones each policy at the
// start of a call, so attempt counters never leak between dialogues.
type Field[T any] struct {
	// Name uniquely identifies the field within its form.
	Name string

	// Prompt is the question the AskEvent carries for this field.
	Prompt string

	// Type is the declared value type.
	Type ValueType

	// Priority orders fields; lower values are asked first. Fields with
	// equal Priority keep their declaration order.
	Priority int

	// Timeout bounds each wait for an inbound message while this field
	// is being filled. Zero selects DefaultFieldTimeout.
	Timeout time.Duration

	// Required rejects a null outcome: if the field resolves to null,
	// validation fails and, once the validation budget is exhausted, the
	// whole dialogue aborts. Optional fields accept null silently.
	Required bool

	// Retries maps each failure kind to its retry policy prototype. A
	// missing entry means the first failure of that kind is final.
	Retries map[FailureKind]RetryPolicy

	// Cracker classifies inbound messages for this field and extracts
	// raw values from them. Nil selects a TextCracker over the field's
	// resolved converter. Builder.BindCracker takes precedence over a
	// value set here.
	Cracker Cracker

	// CancelTrigger overrides the dialogue-level cancel trigger for this
	// field. Nil falls back to Config.CancelTrigger; if both are nil,
	// cancellation never triggers while this field is being filled.
	CancelTrigger CancelTrigger

	// Assign commits an accepted value onto the form instance. It runs
	// only for non-null values, after validation passes; a field
	// accepted as null never reaches it.
	Assign func(form *T, value any)
}
