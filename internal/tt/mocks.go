package tt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/fieldworks/formfill"
	"github.com/fieldworks/formfill/cracker"
)

// -----------------------------------------------------------------------------
// Source - scripted formfill.MessageSource
// -----------------------------------------------------------------------------

type sourceStep struct {
	msg *formfill.Message
	err error
}

// Source is a scripted MessageSource. Queue steps with the Add methods;
// each ReadNext consumes one step. Reading past the script reports a
// timeout, which drives fills toward their null and abort paths instead
// of hanging.
type Source struct {
	mu             sync.Mutex
	conversationID string
	userID         string
	resolveErr     error
	steps          []sourceStep
	reads          int
	nextID         int
}

// NewSource creates a Source resolving every user to conversation
// "conv-1".
func NewSource() *Source {
	return &Source{conversationID: "conv-1", userID: "user-1"}
}

// WithConversation sets the conversation ID Resolve returns.
func (s *Source) WithConversation(id string) *Source {
	s.conversationID = id
	return s
}

// WithResolveError makes Resolve fail.
func (s *Source) WithResolveError(err error) *Source {
	s.resolveErr = err
	return s
}

// AddText queues a message with the given ID and text.
func (s *Source) AddText(id, text string) *Source {
	return s.AddMessage(&formfill.Message{
		ID:             id,
		ConversationID: s.conversationID,
		From:           s.userID,
		Text:           text,
		ReceivedAt:     time.Now(),
	})
}

// AddMessage queues a message as given.
func (s *Source) AddMessage(msg *formfill.Message) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, sourceStep{msg: msg})
	return s
}

// AddTimeout queues one elapsed read timeout.
func (s *Source) AddTimeout() *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, sourceStep{})
	return s
}

// AddError queues a read failure.
func (s *Source) AddError(err error) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, sourceStep{err: err})
	return s
}

// Reads returns how many times ReadNext was called.
func (s *Source) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Resolve implements formfill.MessageSource.
func (s *Source) Resolve(_ context.Context, _ string) (string, error) {
	if s.resolveErr != nil {
		return "", s.resolveErr
	}
	return s.conversationID, nil
}

// ReadNext implements formfill.MessageSource.
func (s *Source) ReadNext(ctx context.Context, _ string, _ time.Duration) (*formfill.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.reads
	s.reads++
	if idx >= len(s.steps) {
		return nil, nil
	}
	step := s.steps[idx]
	return step.msg, step.err
}

var _ formfill.MessageSource = (*Source)(nil)

// -----------------------------------------------------------------------------
// SpyPolicy - formfill.RetryPolicy with shared counters
// -----------------------------------------------------------------------------

// PolicyCounters accumulates calls across a SpyPolicy and all its
// clones, so a test can assert whether a fill consulted a policy at all.
type PolicyCounters struct {
	mu      sync.Mutex
	CanTry  int
	Records int
	Clones  int
}

func (c *PolicyCounters) add(canTry, records, clones int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CanTry += canTry
	c.Records += records
	c.Clones += clones
}

// Snapshot returns a copy of the current counts.
func (c *PolicyCounters) Snapshot() (canTry, records, clones int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CanTry, c.Records, c.Clones
}

// SpyPolicy is a budget retry policy that counts every CanTry,
// RecordAttempt and Clone call into a shared PolicyCounters.
type SpyPolicy struct {
	Counters *PolicyCounters

	max   int
	tried int
}

// Policy creates a SpyPolicy granting max retries.
func Policy(max int) *SpyPolicy {
	return &SpyPolicy{Counters: &PolicyCounters{}, max: max}
}

// CanTry implements formfill.RetryPolicy.
func (p *SpyPolicy) CanTry() bool {
	p.Counters.add(1, 0, 0)
	return p.tried < p.max
}

// RecordAttempt implements formfill.RetryPolicy.
func (p *SpyPolicy) RecordAttempt() {
	p.Counters.add(0, 1, 0)
	p.tried++
}

// Snapshot implements formfill.RetryPolicy.
func (p *SpyPolicy) Snapshot() formfill.RetrySnapshot {
	return formfill.RetrySnapshot{
		AttemptsTried: p.tried,
		MaxAttempts:   p.max,
		CanTry:        p.tried < p.max,
	}
}

// Clone implements formfill.RetryPolicy. The clone starts fresh but
// shares the counters.
func (p *SpyPolicy) Clone() formfill.RetryPolicy {
	p.Counters.add(0, 0, 1)
	return &SpyPolicy{Counters: p.Counters, max: p.max}
}

var _ formfill.RetryPolicy = (*SpyPolicy)(nil)

// -----------------------------------------------------------------------------
// Journal - label-recording subscriber for all event types
// -----------------------------------------------------------------------------

// Journal subscribes to every event type and records one label per
// event: "begin", "end", and "<kind>:<field>" for field events. FailOn
// injects a subscriber error when a label with the given prefix is
// recorded, for testing hook aborts.
type Journal struct {
	mu     sync.Mutex
	labels []string
	failOn string
	err    error
}

// NewJournal creates an empty Journal.
func NewJournal() *Journal {
	return &Journal{}
}

// FailOn makes the subscriber return err on the first label with the
// given prefix.
func (j *Journal) FailOn(prefix string, err error) *Journal {
	j.failOn = prefix
	j.err = err
	return j
}

// Labels returns the labels recorded so far.
func (j *Journal) Labels() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.labels))
	copy(out, j.labels)
	return out
}

func (j *Journal) note(label string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.labels = append(j.labels, label)
	if j.failOn != "" && strings.HasPrefix(label, j.failOn) {
		return j.err
	}
	return nil
}

func (j *Journal) OnFillBegin(context.Context, *formfill.FillContext, *formfill.FillBeginEvent) error {
	return j.note("begin")
}

func (j *Journal) OnFillEnd(context.Context, *formfill.FillContext, *formfill.FillEndEvent) error {
	return j.note("end")
}

func (j *Journal) OnAsk(_ context.Context, _ *formfill.FillContext, e *formfill.AskEvent) error {
	return j.note("ask:" + e.Field)
}

func (j *Journal) OnTimeout(_ context.Context, _ *formfill.FillContext, e *formfill.TimeoutEvent) error {
	return j.note("timeout:" + e.Field)
}

func (j *Journal) OnCancel(_ context.Context, _ *formfill.FillContext, e *formfill.CancelEvent) error {
	return j.note("cancel:" + e.Field)
}

func (j *Journal) OnUnrelated(_ context.Context, _ *formfill.FillContext, e *formfill.UnrelatedEvent) error {
	return j.note("unrelated:" + e.Field)
}

func (j *Journal) OnConversionError(_ context.Context, _ *formfill.FillContext, e *formfill.ConversionErrorEvent) error {
	return j.note("conversion_error:" + e.Field)
}

func (j *Journal) OnValidationError(_ context.Context, _ *formfill.FillContext, e *formfill.ValidationErrorEvent) error {
	return j.note("validation_error:" + e.Field)
}

func (j *Journal) OnSuccess(_ context.Context, _ *formfill.FillContext, e *formfill.SuccessEvent) error {
	return j.note("success:" + e.Field)
}

var (
	_ formfill.FillBeginSubscriber       = (*Journal)(nil)
	_ formfill.FillEndSubscriber         = (*Journal)(nil)
	_ formfill.AskSubscriber             = (*Journal)(nil)
	_ formfill.TimeoutSubscriber         = (*Journal)(nil)
	_ formfill.CancelSubscriber          = (*Journal)(nil)
	_ formfill.UnrelatedSubscriber       = (*Journal)(nil)
	_ formfill.ConversionErrorSubscriber = (*Journal)(nil)
	_ formfill.ValidationErrorSubscriber = (*Journal)(nil)
	_ formfill.SuccessSubscriber         = (*Journal)(nil)
)

// -----------------------------------------------------------------------------
// Crackers
// -----------------------------------------------------------------------------

// AcceptAll returns a cracker that claims every message and extracts its
// text, so conversion failures surface as conversion errors instead of
// unrelated messages.
func AcceptAll() formfill.Cracker {
	return cracker.New(nil, func(_ context.Context, msg *formfill.Message) (any, error) {
		return msg.Text, nil
	})
}

// -----------------------------------------------------------------------------
// MockModel - scripted llms.Model
// -----------------------------------------------------------------------------

type modelStep struct {
	reply string
	err   error
}

// MockModel is a scripted llms.Model for cracker tests. Queue replies
// and errors with the Add methods; each GenerateContent call consumes
// one. Past the script it answers "NONE", which an LLM cracker reads as
// "not an answer".
type MockModel struct {
	mu    sync.Mutex
	steps []modelStep
	calls int

	// Prompts stores the flattened text of every request, in call
	// order.
	Prompts []string
}

// NewMockModel creates an empty MockModel.
func NewMockModel() *MockModel {
	return &MockModel{}
}

// AddReply queues a reply.
func (m *MockModel) AddReply(text string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, modelStep{reply: text})
	return m
}

// AddError queues a call failure.
func (m *MockModel) AddError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, modelStep{err: err})
	return m
}

// Calls returns how many times GenerateContent ran.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// GenerateContent implements llms.Model.
func (m *MockModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var prompt strings.Builder
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if tc, ok := part.(llms.TextContent); ok {
				prompt.WriteString(tc.Text)
			}
		}
	}
	m.Prompts = append(m.Prompts, prompt.String())

	idx := m.calls
	m.calls++

	reply := "NONE"
	if idx < len(m.steps) {
		step := m.steps[idx]
		if step.err != nil {
			return nil, step.err
		}
		reply = step.reply
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: reply}},
	}, nil
}

// Call implements the deprecated half of llms.Model.
func (m *MockModel) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return "", errors.New("tt: MockModel.Call is not used")
}

var _ llms.Model = (*MockModel)(nil)
