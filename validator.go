package formfill

// Diagnostic describes one way a candidate value failed validation.
type Diagnostic struct {
	// Field is the name of the field the value was checked against.
	Field string

	// Rule identifies the failed rule ("minimum", "pattern", "required").
	Rule string

	// Message is human-readable detail, suitable for relaying to the
	// user through a ValidationErrorSubscriber.
	Message string
}

// Validator checks a candidate value for one field against the form being
// filled. When Validate runs the value has not been committed yet: form
// holds only the fields accepted so far, so validators can express
// cross-field rules against earlier answers.
//
// Validators never see null values. The state machine resolves the null
// cases itself: a required field that resolved to null fails with a
// synthetic "required" diagnostic, and an optional one is accepted
// without validation.
type Validator[T any] interface {
	Validate(form *T, field string, value any) (bool, []Diagnostic)
}

// ValidatorFunc adapts a plain function to the Validator interface.
type ValidatorFunc[T any] func(form *T, field string, value any) (bool, []Diagnostic)

// Validate calls f.
func (f ValidatorFunc[T]) Validate(form *T, field string, value any) (bool, []Diagnostic) {
	return f(form, field, value)
}
