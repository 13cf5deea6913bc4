package formfill

import "time"

// Message is one inbound chat message, as handed over by a MessageSource.
//
// The core never interprets Text itself. Deciding whether a message answers
// the field currently being asked, and what value it carries, belongs to the
// Cracker bound to that field, so transports are free to put anything they
// want in Text and Meta.
type Message struct {
	// ID uniquely identifies the message within its conversation.
	ID string

	// ConversationID identifies the conversation the message arrived on.
	ConversationID string

	// From identifies the sending user.
	From string

	// Text is the raw message body.
	Text string

	// Meta carries optional transport metadata (platform message IDs,
	// locale, attachment references). The core ignores it.
	Meta map[string]string

	// ReceivedAt is when the message entered the conversation queue.
	ReceivedAt time.Time
}
