package formfill

import (
	"context"
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Abort Errors
// -----------------------------------------------------------------------------

// ErrAborted matches every dialogue abort. Use errors.Is(err, ErrAborted)
// to distinguish "the dialogue ended without a form" from operation
// failures such as context cancellation or a broken message source.
var ErrAborted = errors.New("formfill: dialogue aborted")

// AbortReason classifies why a dialogue aborted.
type AbortReason string

const (
	// AbortValidation: a converted value failed validation with no
	// retry budget left.
	AbortValidation AbortReason = "validation_exhausted"

	// AbortRequired: a required field resolved to null with no retry
	// budget left.
	AbortRequired AbortReason = "required_unanswered"

	// AbortCancelled: a cancel trigger matched while a required field
	// was being filled.
	AbortCancelled AbortReason = "cancelled"

	// AbortHook: a subscriber returned an error.
	AbortHook AbortReason = "hook_failed"

	// AbortUnrelatedLimit: Config.MaxUnrelated consecutive unrelated
	// messages arrived for one field.
	AbortUnrelatedLimit AbortReason = "unrelated_limit"
)

// AbortError is the error carried by FillResult.Err when the dialogue
// aborted. It satisfies errors.Is(err, ErrAborted); for AbortHook,
// errors.Unwrap returns the subscriber's error.
type AbortError struct {
	// Field is the field being filled when the dialogue aborted, or ""
	// when a fill-level subscriber aborted it.
	Field string

	// Reason classifies the abort.
	Reason AbortReason

	// Hook is the subscriber error for AbortHook (nil otherwise).
	Hook error
}

func (e *AbortError) Error() string {
	if e.Hook != nil {
		return fmt.Sprintf("formfill: dialogue aborted at field %q (%s): %v", e.Field, e.Reason, e.Hook)
	}
	return fmt.Sprintf("formfill: dialogue aborted at field %q (%s)", e.Field, e.Reason)
}

// Is reports whether target is ErrAborted.
func (e *AbortError) Is(target error) bool {
	return target == ErrAborted
}

// Unwrap returns the subscriber error for AbortHook aborts.
func (e *AbortError) Unwrap() error {
	return e.Hook
}

func hookAbort(field string, err error) error {
	return &AbortError{Field: field, Reason: AbortHook, Hook: err}
}

// -----------------------------------------------------------------------------
// Filler
// -----------------------------------------------------------------------------

// Config holds the collaborators for a Filler.
type Config[T any] struct {
	// Form is the descriptor table to fill. Required.
	Form *Form[T]

	// Source resolves conversations and reads messages. Required.
	Source MessageSource

	// Registry receives lifecycle events. Nil means no subscribers.
	Registry *Registry

	// Validator checks converted values before they are committed. Nil
	// accepts every value.
	Validator Validator[T]

	// NewForm constructs the form instance a fill populates. Nil means
	// new(T).
	NewForm func() *T

	// CancelTrigger is the dialogue-level default, used by every field
	// that does not set its own. Nil means cancellation never triggers
	// for those fields.
	CancelTrigger CancelTrigger

	// MaxUnrelated aborts the dialogue after this many consecutive
	// unrelated messages for a single field. Zero means no limit, which
	// is the contract-faithful default: unrelated messages are read past
	// forever without consuming any budget.
	MaxUnrelated int
}

// Filler runs form-filling dialogues: one Fill call drives one complete
// dialogue for one user, asking each of the form's fields in priority
// order and resolving each answer through the field's cracker, converter,
// validator, and retry policies.
//
// A Filler is immutable after New and safe for concurrent use; fills for
// different users share nothing but the Form, the Registry, and the
// collaborators in Config, all of which must tolerate concurrent calls.
type Filler[T any] struct {
	form         *Form[T]
	source       MessageSource
	registry     *Registry
	validator    Validator[T]
	newForm      func() *T
	cancel       CancelTrigger
	maxUnrelated int
}

// NewFiller validates config and creates a Filler.
func NewFiller[T any](config Config[T]) (*Filler[T], error) {
	if config.Form == nil {
		return nil, fmt.Errorf("formfill: config has no form")
	}
	if config.Source == nil {
		return nil, fmt.Errorf("formfill: config has no message source")
	}
	if config.MaxUnrelated < 0 {
		return nil, fmt.Errorf("formfill: negative MaxUnrelated")
	}

	f := &Filler[T]{
		form:         config.Form,
		source:       config.Source,
		registry:     config.Registry,
		validator:    config.Validator,
		newForm:      config.NewForm,
		cancel:       config.CancelTrigger,
		maxUnrelated: config.MaxUnrelated,
	}
	if f.registry == nil {
		f.registry = NewRegistry()
	}
	if f.newForm == nil {
		f.newForm = func() *T { return new(T) }
	}
	return f, nil
}

// FillResult is the outcome of one Fill call.
type FillResult[T any] struct {
	// Form is the fully populated instance. It is nil whenever Err is
	// non-nil: an aborted dialogue never exposes a partial form.
	Form *T

	// Context is the fill's FillContext, always non-nil. Its event
	// journal and stats describe the dialogue whether it succeeded or
	// not.
	Context *FillContext

	// Err is nil on success. errors.Is(Err, ErrAborted) reports a
	// dialogue abort; anything else is an operation failure (context
	// cancellation, message source errors, no active conversation).
	Err error
}

// Fill runs one complete dialogue for userID and returns its result.
//
// The flow:
//
//  1. Resolve the user's conversation via the MessageSource. Failure,
//     including ErrNoConversation, fails the whole call before any field
//     is asked.
//  2. Clone every field's retry policies for this call.
//  3. Fire FillBeginEvent, then run each field's state machine in
//     ascending priority order. A field must resolve (value accepted,
//     possibly null) before the next is begun.
//  4. Fire FillEndEvent and return. On success Form is the populated
//     instance; on abort or failure Form is nil.
//
// Cancelling ctx interrupts the in-flight message wait and fails the call
// with ctx's error. That is the caller abandoning the operation; a user
// cancelling through a CancelTrigger is ordinary dialogue flow and ends
// in an AbortError instead.
func (f *Filler[T]) Fill(ctx context.Context, userID string) *FillResult[T] {
	result := &FillResult[T]{}

	conversationID, err := f.source.Resolve(ctx, userID)
	if err != nil {
		fctx := NewFillContext(f.form.name, userID, "")
		fctx.finish()
		result.Context = fctx
		result.Err = fmt.Errorf("formfill: resolve conversation for user %q: %w", userID, err)
		return result
	}

	fctx := NewFillContext(f.form.name, userID, conversationID)
	result.Context = fctx
	instance := f.newForm()

	fillErr := f.run(ctx, fctx, instance)

	end := &FillEndEvent{Form: f.form.name, Aborted: fillErr != nil, Err: fillErr}
	if err := f.registry.FireFillEnd(ctx, fctx, end); err != nil && fillErr == nil {
		fillErr = hookAbort("", err)
	}
	fctx.finish()

	result.Err = fillErr
	if fillErr == nil {
		result.Form = instance
	}
	return result
}

func (f *Filler[T]) run(ctx context.Context, fctx *FillContext, form *T) error {
	begin := &FillBeginEvent{
		Form:           f.form.name,
		UserID:         fctx.UserID(),
		ConversationID: fctx.ConversationID(),
	}
	if err := f.registry.FireFillBegin(ctx, fctx, begin); err != nil {
		return hookAbort("", err)
	}

	for i := range f.form.fields {
		if err := ctx.Err(); err != nil {
			return err
		}
		field := &f.form.fields[i]
		ff := &fieldFill[T]{
			field:    field,
			conv:     f.form.converters[field.Name],
			policies: clonePolicies(field.Retries),
			cancel:   field.CancelTrigger,
		}
		if ff.cancel == nil {
			ff.cancel = f.cancel
		}
		if err := f.fillField(ctx, fctx, form, ff); err != nil {
			return err
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Field State Machine
// -----------------------------------------------------------------------------

// fieldFill is the per-fill state for one field: the descriptor plus this
// call's policy clones and the resolved cancel trigger.
type fieldFill[T any] struct {
	field    *Field[T]
	conv     Converter
	policies map[FailureKind]RetryPolicy
	cancel   CancelTrigger
}

// snapshot returns the policy state for kind, or the zero snapshot when no
// policy is bound.
func (ff *fieldFill[T]) snapshot(kind FailureKind) RetrySnapshot {
	if p, ok := ff.policies[kind]; ok {
		return p.Snapshot()
	}
	return RetrySnapshot{}
}

// tryRetry consults the policy for kind and records an attempt when one is
// granted. It returns whether the state machine should loop back for a
// fresh read.
func (ff *fieldFill[T]) tryRetry(fctx *FillContext, kind FailureKind) bool {
	p, ok := ff.policies[kind]
	if !ok || !p.CanTry() {
		return false
	}
	p.RecordAttempt()
	fctx.noteRetry(kind)
	return true
}

func clonePolicies(prototypes map[FailureKind]RetryPolicy) map[FailureKind]RetryPolicy {
	if len(prototypes) == 0 {
		return nil
	}
	out := make(map[FailureKind]RetryPolicy, len(prototypes))
	for kind, p := range prototypes {
		out[kind] = p.Clone()
	}
	return out
}

// fillField resolves exactly one field: it returns nil once a value
// (possibly null) was accepted and committed, and an error when the
// dialogue must abort. Each loop iteration is one attempt: read, classify,
// and either resolve the field, abort, or loop back.
func (f *Filler[T]) fillField(ctx context.Context, fctx *FillContext, form *T, ff *fieldFill[T]) error {
	name := ff.field.Name

	ask := &AskEvent{Field: name, Prompt: ff.field.Prompt}
	if err := f.registry.FireAsk(ctx, fctx, ask); err != nil {
		return hookAbort(name, err)
	}

	unrelated := 0

	for {
		fctx.noteRead(name)
		msg, err := f.source.ReadNext(ctx, fctx.ConversationID(), ff.field.Timeout)
		if err != nil {
			return fmt.Errorf("formfill: read message for field %q: %w", name, err)
		}

		// Classification: exactly one of value / cancelled survives to
		// the resolution step below. A nil value with cancelled false
		// means an exhausted timeout or converting budget.
		var (
			value     any
			produced  *Message
			cancelled bool
		)

		switch {
		case msg == nil:
			event := &TimeoutEvent{
				Field:   name,
				Timeout: ff.field.Timeout,
				Retry:   ff.snapshot(FailureTimeout),
			}
			if err := f.registry.FireTimeout(ctx, fctx, event); err != nil {
				return hookAbort(name, err)
			}
			if ff.tryRetry(fctx, FailureTimeout) {
				continue
			}

		case ff.cancel != nil && ff.cancel.ShouldCancel(msg):
			event := &CancelEvent{Field: name, Message: msg}
			if err := f.registry.FireCancel(ctx, fctx, event); err != nil {
				return hookAbort(name, err)
			}
			cancelled = true

		case !ff.field.Cracker.Matches(ctx, msg):
			event := &UnrelatedEvent{Field: name, Message: msg}
			if err := f.registry.FireUnrelated(ctx, fctx, event); err != nil {
				return hookAbort(name, err)
			}
			fctx.noteUnrelated()
			unrelated++
			if f.maxUnrelated > 0 && unrelated >= f.maxUnrelated {
				return &AbortError{Field: name, Reason: AbortUnrelatedLimit}
			}
			continue

		default:
			unrelated = 0
			raw, err := ff.field.Cracker.Extract(ctx, msg)
			var converted any
			if err == nil {
				converted, err = ff.conv.Convert(raw)
			}
			if err != nil {
				event := &ConversionErrorEvent{
					Field:   name,
					Message: msg,
					Raw:     raw,
					Err:     err,
					Retry:   ff.snapshot(FailureConverting),
				}
				if fireErr := f.registry.FireConversionError(ctx, fctx, event); fireErr != nil {
					return hookAbort(name, fireErr)
				}
				if ff.tryRetry(fctx, FailureConverting) {
					continue
				}
			} else {
				value, produced = converted, msg
			}
		}

		// Resolution: a non-null value is validated; a null one meets
		// the required check. Either commits, aborts, or loops back for
		// a fresh read.
		if value != nil {
			ok, diags := f.validate(form, name, value)
			if !ok {
				event := &ValidationErrorEvent{
					Field:       name,
					Message:     produced,
					Value:       value,
					Diagnostics: diags,
					Retry:       ff.snapshot(FailureValidation),
				}
				if err := f.registry.FireValidationError(ctx, fctx, event); err != nil {
					return hookAbort(name, err)
				}
				if ff.tryRetry(fctx, FailureValidation) {
					continue
				}
				return &AbortError{Field: name, Reason: AbortValidation}
			}

			ff.field.Assign(form, value)
			fctx.noteCommit(false)
			success := &SuccessEvent{Field: name, Value: value, Message: produced}
			if err := f.registry.FireSuccess(ctx, fctx, success); err != nil {
				return hookAbort(name, err)
			}
			return nil
		}

		if ff.field.Required {
			event := &ValidationErrorEvent{
				Field:           name,
				RequiredAndNull: true,
				Diagnostics: []Diagnostic{{
					Field:   name,
					Rule:    "required",
					Message: "a value is required",
				}},
			}
			if !cancelled {
				event.Retry = ff.snapshot(FailureValidation)
			}
			if err := f.registry.FireValidationError(ctx, fctx, event); err != nil {
				return hookAbort(name, err)
			}
			if cancelled {
				// Cancellation always wins: no retry is consulted.
				return &AbortError{Field: name, Reason: AbortCancelled}
			}
			if ff.tryRetry(fctx, FailureValidation) {
				continue
			}
			return &AbortError{Field: name, Reason: AbortRequired}
		}

		// Null accepted on an optional field. Assign is skipped; only
		// non-null values reach it.
		fctx.noteCommit(true)
		success := &SuccessEvent{Field: name}
		if err := f.registry.FireSuccess(ctx, fctx, success); err != nil {
			return hookAbort(name, err)
		}
		return nil
	}
}

func (f *Filler[T]) validate(form *T, field string, value any) (bool, []Diagnostic) {
	if f.validator == nil {
		return true, nil
	}
	return f.validator.Validate(form, field, value)
}
