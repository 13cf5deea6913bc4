package formfill

import (
	"sync"
	"time"
)

// FillContext carries the observable state of one fill operation: its
// identity, an append-only journal of lifecycle events, and aggregate
// counters. The Filler creates one per Fill call and passes it to every
// subscriber; FillResult keeps it for post-mortem inspection.
//
// All accessors are safe to call concurrently while the fill is running.
type FillContext struct {
	mu sync.RWMutex

	form           string
	userID         string
	conversationID string

	// All lifecycle events in dispatch order (append-only).
	events []Event

	stats FillStats

	startTime time.Time
	endTime   time.Time
}

// FillStats contains aggregate counters, updated as the fill progresses.
type FillStats struct {
	// Reads is the number of ReadNext calls issued.
	Reads int

	// ReadsByField breaks Reads down per field name.
	ReadsByField map[string]int

	// RetriesByKind counts retries actually taken, per failure kind.
	// Consulting a policy without looping back does not count.
	RetriesByKind map[FailureKind]int

	// Unrelated counts messages the current field's cracker rejected.
	Unrelated int

	// FieldsFilled counts fields committed with a non-null value.
	FieldsFilled int

	// FieldsNull counts fields accepted as null.
	FieldsNull int
}

// NewFillContext creates a FillContext for one fill operation. Filler.Fill
// calls this itself; constructing one directly is only useful for testing
// subscribers in isolation.
func NewFillContext(form, userID, conversationID string) *FillContext {
	return &FillContext{
		form:           form,
		userID:         userID,
		conversationID: conversationID,
		events:         make([]Event, 0),
		stats: FillStats{
			ReadsByField:  make(map[string]int),
			RetriesByKind: make(map[FailureKind]int),
		},
		startTime: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Accessors
// -----------------------------------------------------------------------------

// Form returns the form's name.
func (c *FillContext) Form() string {
	return c.form
}

// UserID returns the user the fill was started for.
func (c *FillContext) UserID() string {
	return c.userID
}

// ConversationID returns the resolved conversation, or "" when resolution
// failed.
func (c *FillContext) ConversationID() string {
	return c.conversationID
}

// Events returns a copy of the event journal in dispatch order.
func (c *FillContext) Events() []Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Stats returns a copy of the aggregate counters.
func (c *FillContext) Stats() FillStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := c.stats
	out.ReadsByField = make(map[string]int, len(c.stats.ReadsByField))
	for k, v := range c.stats.ReadsByField {
		out.ReadsByField[k] = v
	}
	out.RetriesByKind = make(map[FailureKind]int, len(c.stats.RetriesByKind))
	for k, v := range c.stats.RetriesByKind {
		out.RetriesByKind[k] = v
	}
	return out
}

// StartTime returns when the fill started.
func (c *FillContext) StartTime() time.Time {
	return c.startTime
}

// EndTime returns when the fill ended, or the zero time while it is still
// running.
func (c *FillContext) EndTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endTime
}

// Duration returns the fill's duration so far, or its final duration once
// it has ended.
func (c *FillContext) Duration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.endTime.IsZero() {
		return time.Since(c.startTime)
	}
	return c.endTime.Sub(c.startTime)
}

// -----------------------------------------------------------------------------
// Mutation (Filler and Registry only)
// -----------------------------------------------------------------------------

func (c *FillContext) record(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *FillContext) noteRead(field string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Reads++
	c.stats.ReadsByField[field]++
}

func (c *FillContext) noteRetry(kind FailureKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.RetriesByKind[kind]++
}

func (c *FillContext) noteUnrelated() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Unrelated++
}

func (c *FillContext) noteCommit(null bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if null {
		c.stats.FieldsNull++
	} else {
		c.stats.FieldsFilled++
	}
}

func (c *FillContext) finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endTime = time.Now()
}
