package formfill

import "time"

// -----------------------------------------------------------------------------
// Event Interface
// -----------------------------------------------------------------------------

// Event is the marker interface for all lifecycle events.
type Event interface {
	fillEvent()
}

// -----------------------------------------------------------------------------
// Fill Events
// -----------------------------------------------------------------------------

// FillBeginEvent is emitted once per fill, after the conversation has been
// resolved and before the first field is asked.
type FillBeginEvent struct {
	// Form is the form's name.
	Form string

	// UserID is the user the fill was started for.
	UserID string

	// ConversationID is the resolved conversation.
	ConversationID string
}

func (FillBeginEvent) fillEvent() {}

// FillEndEvent is emitted once per fill, after the last field resolved or
// the dialogue aborted.
type FillEndEvent struct {
	// Form is the form's name.
	Form string

	// Aborted reports that no form instance was produced.
	Aborted bool

	// Err is the fill error (nil on success).
	Err error
}

func (FillEndEvent) fillEvent() {}

// -----------------------------------------------------------------------------
// Field Events
// -----------------------------------------------------------------------------

// AskEvent is emitted once per field, before the first read. Retries do
// not re-emit it.
type AskEvent struct {
	// Field is the field being asked.
	Field string

	// Prompt is the field's configured question.
	Prompt string
}

func (AskEvent) fillEvent() {}

// TimeoutEvent is emitted when no message arrived within the field's
// timeout.
type TimeoutEvent struct {
	// Field is the field being filled.
	Field string

	// Timeout is the wait that elapsed.
	Timeout time.Duration

	// Retry is the timeout policy's state before the retry decision.
	Retry RetrySnapshot
}

func (TimeoutEvent) fillEvent() {}

// CancelEvent is emitted when a cancel trigger matched an inbound message.
// It carries no retry snapshot: no policy is consulted on the cancel path.
type CancelEvent struct {
	// Field is the field being filled.
	Field string

	// Message is the message that triggered cancellation.
	Message *Message
}

func (CancelEvent) fillEvent() {}

// UnrelatedEvent is emitted when the field's cracker rejected a message as
// not relevant. The message is read past; no retry budget is consumed.
type UnrelatedEvent struct {
	// Field is the field being filled.
	Field string

	// Message is the rejected message.
	Message *Message
}

func (UnrelatedEvent) fillEvent() {}

// ConversionErrorEvent is emitted when a relevant message could not be
// extracted or converted to the field's declared type.
type ConversionErrorEvent struct {
	// Field is the field being filled.
	Field string

	// Message is the message that failed to convert.
	Message *Message

	// Raw is the extracted raw value (nil if extraction itself failed).
	Raw any

	// Err is the extraction or conversion error.
	Err error

	// Retry is the converting policy's state before the retry decision.
	Retry RetrySnapshot
}

func (ConversionErrorEvent) fillEvent() {}

// ValidationErrorEvent is emitted when a converted value failed validation,
// or when a required field resolved to null.
type ValidationErrorEvent struct {
	// Field is the field being filled.
	Field string

	// Message is the message that produced the rejected value. It is nil
	// on the null path (RequiredAndNull true).
	Message *Message

	// Value is the rejected candidate value; nil on the null path.
	Value any

	// RequiredAndNull is true when the field is required and resolved to
	// null (timeout or conversion budget exhausted, or cancellation).
	RequiredAndNull bool

	// Diagnostics describe the failed rules. The null path carries a
	// single synthetic "required" diagnostic.
	Diagnostics []Diagnostic

	// Retry is the validation policy's state before the retry decision.
	// It is the zero snapshot when the field resolved to null through
	// cancellation, since policies are not consulted then.
	Retry RetrySnapshot
}

func (ValidationErrorEvent) fillEvent() {}

// SuccessEvent is emitted once per field, after the value was committed
// (or accepted as null).
type SuccessEvent struct {
	// Field is the field that resolved.
	Field string

	// Value is the committed value; nil when the field was accepted as
	// null.
	Value any

	// Message is the message that produced the value; nil when the field
	// resolved through the timeout or cancel path.
	Message *Message
}

func (SuccessEvent) fillEvent() {}
