package tt

import (
	"time"

	"github.com/fieldworks/formfill"
)

// msgRef builds the lightest message an expected event needs: assertions
// compare messages by ID only.
func msgRef(id string) *formfill.Message {
	if id == "" {
		return nil
	}
	return &formfill.Message{ID: id}
}

// Snap builds a retry snapshot for a budget of max with tried attempts
// already recorded.
func Snap(tried, max int) formfill.RetrySnapshot {
	return formfill.RetrySnapshot{
		AttemptsTried: tried,
		MaxAttempts:   max,
		CanTry:        tried < max,
	}
}

// Begin builds an expected FillBeginEvent.
func Begin(form, userID, conversationID string) *formfill.FillBeginEvent {
	return &formfill.FillBeginEvent{
		Form:           form,
		UserID:         userID,
		ConversationID: conversationID,
	}
}

// End builds an expected FillEndEvent. hasErr stands in for the error
// itself; assertions compare error presence, not wording.
func End(form string, aborted, hasErr bool) *formfill.FillEndEvent {
	var err error
	if hasErr {
		err = formfill.ErrAborted
	}
	return &formfill.FillEndEvent{Form: form, Aborted: aborted, Err: err}
}

// Ask builds an expected AskEvent.
func Ask(field, prompt string) *formfill.AskEvent {
	return &formfill.AskEvent{Field: field, Prompt: prompt}
}

// Timeout builds an expected TimeoutEvent.
func Timeout(field string, timeout time.Duration, retry formfill.RetrySnapshot) *formfill.TimeoutEvent {
	return &formfill.TimeoutEvent{Field: field, Timeout: timeout, Retry: retry}
}

// Cancel builds an expected CancelEvent.
func Cancel(field, messageID string) *formfill.CancelEvent {
	return &formfill.CancelEvent{Field: field, Message: msgRef(messageID)}
}

// Unrelated builds an expected UnrelatedEvent.
func Unrelated(field, messageID string) *formfill.UnrelatedEvent {
	return &formfill.UnrelatedEvent{Field: field, Message: msgRef(messageID)}
}

// ConversionError builds an expected ConversionErrorEvent. The event's
// Err is not compared, only the raw value and retry state are.
func ConversionError(field, messageID string, raw any, retry formfill.RetrySnapshot) *formfill.ConversionErrorEvent {
	return &formfill.ConversionErrorEvent{
		Field:   field,
		Message: msgRef(messageID),
		Raw:     raw,
		Retry:   retry,
	}
}

// ValidationError builds an expected ValidationErrorEvent for a rejected
// value. Each rule becomes one expected diagnostic; diagnostic message
// texts are not compared.
func ValidationError(field, messageID string, value any, retry formfill.RetrySnapshot, rules ...string) *formfill.ValidationErrorEvent {
	diags := make([]formfill.Diagnostic, 0, len(rules))
	for _, rule := range rules {
		diags = append(diags, formfill.Diagnostic{Field: field, Rule: rule})
	}
	return &formfill.ValidationErrorEvent{
		Field:       field,
		Message:     msgRef(messageID),
		Value:       value,
		Diagnostics: diags,
		Retry:       retry,
	}
}

// RequiredNull builds the expected ValidationErrorEvent for a required
// field that resolved to null. Pass the zero snapshot for the
// cancellation path, where no policy is consulted.
func RequiredNull(field string, retry formfill.RetrySnapshot) *formfill.ValidationErrorEvent {
	return &formfill.ValidationErrorEvent{
		Field:           field,
		RequiredAndNull: true,
		Diagnostics: []formfill.Diagnostic{{
			Field:   field,
			Rule:    "required",
			Message: "a value is required",
		}},
		Retry: retry,
	}
}

// Success builds an expected SuccessEvent for a committed value.
func Success(field string, value any, messageID string) *formfill.SuccessEvent {
	return &formfill.SuccessEvent{Field: field, Value: value, Message: msgRef(messageID)}
}

// NullSuccess builds an expected SuccessEvent for a field accepted as
// null.
func NullSuccess(field string) *formfill.SuccessEvent {
	return &formfill.SuccessEvent{Field: field}
}
