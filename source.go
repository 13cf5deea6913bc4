package formfill

import (
	"context"
	"errors"
	"time"
)

// ErrNoConversation is returned by MessageSource.Resolve when the user has
// no active conversation to read from. Filler.Fill surfaces it before any
// field is processed.
var ErrNoConversation = errors.New("formfill: no active conversation for user")

// MessageSource is the read side of the chat transport the dialogue runs
// on. The core resolves a user to a conversation once per fill and then
// reads that conversation's messages one at a time.
//
// ReadNext blocks until a message arrives, the timeout elapses, or ctx is
// done:
//
//   - (msg, nil) delivers the next message.
//   - (nil, nil) means the timeout elapsed with no message.
//   - (nil, ctx.Err()) means the caller abandoned the operation. This is
//     never a dialogue outcome; it propagates out of Fill as-is, unlike a
//     CancelTrigger match, which is ordinary dialogue flow.
//
// Each conversation has a single reader: the in-flight fill owns its
// conversation's read position for the duration of the call, and
// implementations are not required to support concurrent ReadNext calls
// on one conversation.
type MessageSource interface {
	// Resolve maps a user to their active conversation.
	Resolve(ctx context.Context, userID string) (conversationID string, err error)

	// ReadNext returns the next inbound message on the conversation.
	ReadNext(ctx context.Context, conversationID string, timeout time.Duration) (*Message, error)
}
