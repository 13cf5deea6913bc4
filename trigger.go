package formfill

// CancelTrigger decides whether an inbound message cancels the dialogue.
//
// A match is a normal business outcome, not an operation failure: the
// current field resolves to null without consulting any retry policy, the
// required-field check still applies, and for a required field the whole
// dialogue aborts. Triggers are evaluated before crackers, so a cancelling
// message is never mistaken for an answer.
type CancelTrigger interface {
	ShouldCancel(msg *Message) bool
}
