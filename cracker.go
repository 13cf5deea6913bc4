package formfill

import "context"

// Cracker decides whether an inbound message answers the field currently
// being filled, and extracts a raw value from it.
//
// Matches runs after the cancel trigger, so a cracker never sees messages
// that cancelled the dialogue. Extract is called only when Matches
// returned true for the same message. A message rejected by Matches fires
// the unrelated event and is read past without consuming any retry
// budget.
//
// Both methods receive the fill's context: crackers backed by a model or
// a remote service honor its cancellation, and cheap lexical crackers
// ignore it.
type Cracker interface {
	Matches(ctx context.Context, msg *Message) bool
	Extract(ctx context.Context, msg *Message) (any, error)
}

// TextCracker is the default cracker bound by Builder.Build when a field
// declares none: a message is relevant exactly when the field's converter
// accepts its text. Extract returns the text verbatim; the state machine
// converts it afterwards.
type TextCracker struct {
	conv Converter
}

// NewTextCracker returns a TextCracker probing conv.
func NewTextCracker(conv Converter) *TextCracker {
	return &TextCracker{conv: conv}
}

// Matches reports whether the converter accepts the message text.
func (c *TextCracker) Matches(_ context.Context, msg *Message) bool {
	_, err := c.conv.Convert(msg.Text)
	return err == nil
}

// Extract returns the message text.
func (c *TextCracker) Extract(_ context.Context, msg *Message) (any, error) {
	return msg.Text, nil
}
