// Package dispatch provides an in-process message hub that implements
// formfill.MessageSource.
//
// # Quick Start
//
//	hub := dispatch.NewHub()
//	defer hub.Close()
//
//	if _, err := hub.Open("user-1"); err != nil {
//	    return err
//	}
//
//	// Somewhere in the chat transport adapter:
//	hub.DeliverText("user-1", "25")
//
//	// The filler reads the same conversation back:
//	filler, err := formfill.NewFiller(formfill.Config[Registration]{
//	    Form:   form,
//	    Source: hub,
//	})
//	result := filler.Fill(ctx, "user-1")
//
// A Hub routes each user's inbound chat into one conversation mailbox
// with an unbounded queue, so transport adapters never block on a fill
// that is busy between reads. One fill at a time should read a given
// conversation; concurrent readers would steal each other's messages.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldworks/formfill"
	"github.com/fieldworks/formfill/internal/buffer"
)

// ErrHubClosed is returned by Open after the hub shut down.
var ErrHubClosed = errors.New("dispatch: hub closed")

// ErrConversationClosed is returned by ReadNext for conversations that
// were closed or never opened.
var ErrConversationClosed = errors.New("dispatch: conversation closed")

type conversation struct {
	id     string
	userID string
	queue  *buffer.Unbounded[*formfill.Message]
}

// Hub routes inbound chat messages into per-conversation mailboxes.
// All methods are concurrent-safe.
type Hub struct {
	mu     sync.RWMutex
	byUser map[string]*conversation
	byConv map[string]*conversation
	closed bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		byUser: make(map[string]*conversation),
		byConv: make(map[string]*conversation),
	}
}

// Open starts a conversation for userID and returns its ID. Opening a
// user with a live conversation returns the existing ID, so transport
// adapters can call Open on every inbound message without bookkeeping.
func (h *Hub) Open(userID string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return "", ErrHubClosed
	}
	if conv, ok := h.byUser[userID]; ok {
		return conv.id, nil
	}

	conv := &conversation{
		id:     uuid.NewString(),
		userID: userID,
		queue:  buffer.NewUnbounded[*formfill.Message](),
	}
	h.byUser[userID] = conv
	h.byConv[conv.id] = conv
	return conv.id, nil
}

// Resolve returns the ID of the user's open conversation. It implements
// formfill.MessageSource; a user without one gets
// formfill.ErrNoConversation.
func (h *Hub) Resolve(_ context.Context, userID string) (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conv, ok := h.byUser[userID]
	if !ok {
		return "", formfill.ErrNoConversation
	}
	return conv.id, nil
}

// ReadNext returns the next message in the conversation, waiting up to
// timeout for one to arrive. It implements formfill.MessageSource:
// (nil, nil) reports an elapsed timeout, and a cancelled ctx returns its
// error. A non-positive timeout waits indefinitely.
func (h *Hub) ReadNext(ctx context.Context, conversationID string, timeout time.Duration) (*formfill.Message, error) {
	h.mu.RLock()
	conv, ok := h.byConv[conversationID]
	h.mu.RUnlock()
	if !ok {
		return nil, ErrConversationClosed
	}

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case msg, ok := <-conv.queue.Receive():
		if !ok {
			return nil, ErrConversationClosed
		}
		return msg, nil
	case <-timeoutCh:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Deliver routes a message to its conversation and reports whether one
// accepted it. Messages with no ConversationID are routed by From. The
// message is queued as given; Deliver never blocks.
func (h *Hub) Deliver(msg *formfill.Message) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed || msg == nil {
		return false
	}

	conv, ok := h.byConv[msg.ConversationID]
	if !ok && msg.ConversationID == "" {
		conv, ok = h.byUser[msg.From]
	}
	if !ok {
		return false
	}

	conv.queue.Send(msg)
	return true
}

// DeliverText wraps text in a fully stamped Message and delivers it to
// the user's conversation. It returns the message and whether a
// conversation accepted it.
func (h *Hub) DeliverText(userID, text string) (*formfill.Message, bool) {
	h.mu.RLock()
	conv, ok := h.byUser[userID]
	h.mu.RUnlock()
	if !ok {
		return nil, false
	}

	msg := &formfill.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.id,
		From:           userID,
		Text:           text,
		ReceivedAt:     time.Now(),
	}
	return msg, h.Deliver(msg)
}

// Pending returns the number of undelivered messages queued in a
// conversation, or zero for unknown conversations.
func (h *Hub) Pending(conversationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conv, ok := h.byConv[conversationID]
	if !ok {
		return 0
	}
	return conv.queue.Len()
}

// CloseConversation closes one conversation. Subsequent ReadNext calls
// return ErrConversationClosed; a reader already blocked drains queued
// messages first. Safe to call for unknown IDs.
func (h *Hub) CloseConversation(conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conv, ok := h.byConv[conversationID]
	if !ok {
		return
	}
	conv.queue.Close()
	delete(h.byConv, conv.id)
	delete(h.byUser, conv.userID)
}

// Close shuts the hub down: every conversation closes and Open starts
// refusing. Safe to call multiple times.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for _, conv := range h.byConv {
		conv.queue.Close()
	}
	h.byUser = make(map[string]*conversation)
	h.byConv = make(map[string]*conversation)
}
