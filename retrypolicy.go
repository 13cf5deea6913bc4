package formfill

// FailureKind distinguishes the recoverable per-attempt failures. Each kind
// has its own independent retry budget on a field.
type FailureKind string

const (
	// FailureTimeout: no message arrived within the field's timeout.
	FailureTimeout FailureKind = "timeout"

	// FailureConverting: a relevant message could not be extracted or
	// converted to the field's declared type.
	FailureConverting FailureKind = "converting"

	// FailureValidation: a converted value failed validation, or a
	// required field resolved to null.
	FailureValidation FailureKind = "validation"
)

// RetryPolicy tracks the attempt budget for one failure kind of one field
// during one fill.
//
// CanTry is a pure query and RecordAttempt is the matching mutation. The
// state machine always checks CanTry first and calls RecordAttempt only
// when it actually loops back for another read, so a policy can be
// inspected for event snapshots without burning budget.
//
// Field descriptors hold prototypes: Filler.Fill calls Clone on every
// policy at the start of each call and works on the clones. Clone must
// return a policy with the same budget and a fresh counter.
type RetryPolicy interface {
	// CanTry reports whether another retry would be granted.
	CanTry() bool

	// RecordAttempt advances the attempt counter.
	RecordAttempt()

	// Snapshot returns the current state for event reporting.
	Snapshot() RetrySnapshot

	// Clone returns an unused copy with the same budget.
	Clone() RetryPolicy
}

// RetrySnapshot is the read-only view of a retry policy carried by
// lifecycle events. The zero value (CanTry false) stands in when the field
// has no policy for the failure kind at hand, and on the cancel path,
// where policies are never consulted.
type RetrySnapshot struct {
	// AttemptsTried is how many retries have been recorded so far.
	AttemptsTried int

	// MaxAttempts is the total retry budget.
	MaxAttempts int

	// CanTry reports whether another retry would be granted.
	CanTry bool
}
