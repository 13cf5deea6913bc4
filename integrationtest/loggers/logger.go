// Package loggers provides reusable event subscribers for integration
// testing.
package loggers

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fieldworks/formfill"
)

// Subscriber implements every formfill subscriber interface and logs
// each event as it happens. Payloads are logged as YAML with block
// scalars for easy reading. Nothing is truncated.
type Subscriber struct {
	out io.Writer
}

// NewSubscriber creates a Subscriber that writes to stdout.
func NewSubscriber() *Subscriber {
	return &Subscriber{
		out: os.Stdout,
	}
}

// NewSubscriberWithWriter creates a Subscriber that writes to the given
// writer.
func NewSubscriberWithWriter(w io.Writer) *Subscriber {
	return &Subscriber{
		out: w,
	}
}

// logEvent logs an event header with timestamp.
func (s *Subscriber) logEvent(name string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(s.out, "\n>>> [%s]: %s\n", name, timestamp)
}

// log writes a line without any prefix.
func (s *Subscriber) log(format string, args ...any) {
	fmt.Fprintf(s.out, format+"\n", args...)
}

func (s *Subscriber) logYAML(v any) {
	data, err := yaml.Marshal(v)
	if err != nil {
		s.log("(failed to marshal: %v)", err)
		return
	}
	fmt.Fprint(s.out, string(data))
}

func messageData(msg *formfill.Message) map[string]any {
	if msg == nil {
		return nil
	}
	return map[string]any{
		"id":          msg.ID,
		"from":        msg.From,
		"text":        msg.Text,
		"received_at": msg.ReceivedAt.Format("2006-01-02 15:04:05.000"),
	}
}

func retryData(snap formfill.RetrySnapshot) map[string]any {
	return map[string]any{
		"attempts_tried": snap.AttemptsTried,
		"max_attempts":   snap.MaxAttempts,
		"can_try":        snap.CanTry,
	}
}

// OnFillBegin logs dialogue start.
func (s *Subscriber) OnFillBegin(
	ctx context.Context,
	fill *formfill.FillContext,
	event *formfill.FillBeginEvent,
) error {
	s.logEvent("FillBegin")
	s.log("================================================================================")
	s.log("FILL STARTED")
	s.log("================================================================================")
	s.logYAML(map[string]any{
		"form":            event.Form,
		"user_id":         event.UserID,
		"conversation_id": event.ConversationID,
	})
	return nil
}

// OnFillEnd logs dialogue completion with final stats.
func (s *Subscriber) OnFillEnd(
	ctx context.Context,
	fill *formfill.FillContext,
	event *formfill.FillEndEvent,
) error {
	s.logEvent("FillEnd")
	s.log("================================================================================")
	s.log("FILL COMPLETED")
	s.log("================================================================================")

	eventData := map[string]any{
		"form":    event.Form,
		"aborted": event.Aborted,
	}
	if event.Err != nil {
		eventData["error"] = event.Err.Error()
	}
	s.logYAML(eventData)

	s.log("")
	s.log("Stats:")
	stats := fill.Stats()
	s.logYAML(map[string]any{
		"total_reads":     stats.Reads,
		"reads_by_field":  stats.ReadsByField,
		"retries_by_kind": stats.RetriesByKind,
		"unrelated":       stats.Unrelated,
		"fields_filled":   stats.FieldsFilled,
		"fields_null":     stats.FieldsNull,
		"duration":        fill.Duration().String(),
	})
	return nil
}

// OnAsk logs the prompt sent for a field.
func (s *Subscriber) OnAsk(
	ctx context.Context,
	fill *formfill.FillContext,
	event *formfill.AskEvent,
) error {
	s.logEvent(fmt.Sprintf("Ask: %s", event.Field))
	s.log("Prompt:")
	for _, line := range strings.Split(event.Prompt, "\n") {
		s.log("  %s", line)
	}
	return nil
}

// OnTimeout logs an elapsed read timeout.
func (s *Subscriber) OnTimeout(
	ctx context.Context,
	fill *formfill.FillContext,
	event *formfill.TimeoutEvent,
) error {
	s.logEvent(fmt.Sprintf("Timeout: %s (waited: %s)", event.Field, event.Timeout))
	s.log("Retry:")
	s.logYAML(retryData(event.Retry))
	return nil
}

// OnCancel logs a matched cancel trigger.
func (s *Subscriber) OnCancel(
	ctx context.Context,
	fill *formfill.FillContext,
	event *formfill.CancelEvent,
) error {
	s.logEvent(fmt.Sprintf("Cancel: %s", event.Field))
	s.logYAML(map[string]any{
		"message": messageData(event.Message),
	})
	return nil
}

// OnUnrelated logs a message the field's cracker read past.
func (s *Subscriber) OnUnrelated(
	ctx context.Context,
	fill *formfill.FillContext,
	event *formfill.UnrelatedEvent,
) error {
	s.logEvent(fmt.Sprintf("Unrelated: %s", event.Field))
	s.logYAML(map[string]any{
		"message": messageData(event.Message),
	})
	return nil
}

// OnConversionError logs a failed extraction or conversion.
func (s *Subscriber) OnConversionError(
	ctx context.Context,
	fill *formfill.FillContext,
	event *formfill.ConversionErrorEvent,
) error {
	s.logEvent(fmt.Sprintf("ConversionError: %s", event.Field))

	eventData := map[string]any{
		"message": messageData(event.Message),
		"error":   event.Err.Error(),
		"retry":   retryData(event.Retry),
	}
	if event.Raw != nil {
		eventData["raw"] = fmt.Sprintf("%v", event.Raw)
	}
	s.logYAML(eventData)
	return nil
}

// OnValidationError logs a rejected value with its diagnostics.
func (s *Subscriber) OnValidationError(
	ctx context.Context,
	fill *formfill.FillContext,
	event *formfill.ValidationErrorEvent,
) error {
	s.logEvent(fmt.Sprintf("ValidationError: %s", event.Field))

	eventData := map[string]any{
		"retry": retryData(event.Retry),
	}
	if event.RequiredAndNull {
		eventData["required_and_null"] = true
	} else {
		eventData["message"] = messageData(event.Message)
		eventData["value"] = fmt.Sprintf("%v", event.Value)
	}

	diags := make([]map[string]any, 0, len(event.Diagnostics))
	for _, d := range event.Diagnostics {
		diags = append(diags, map[string]any{
			"rule":    d.Rule,
			"message": d.Message,
		})
	}
	eventData["diagnostics"] = diags

	s.logYAML(eventData)
	return nil
}

// OnSuccess logs a committed field value.
func (s *Subscriber) OnSuccess(
	ctx context.Context,
	fill *formfill.FillContext,
	event *formfill.SuccessEvent,
) error {
	s.logEvent(fmt.Sprintf("Success: %s", event.Field))

	eventData := map[string]any{}
	if event.Value == nil {
		eventData["null"] = true
	} else {
		eventData["value"] = fmt.Sprintf("%v", event.Value)
	}
	if event.Message != nil {
		eventData["message_id"] = event.Message.ID
	}
	s.logYAML(eventData)
	return nil
}

// Compile-time checks that Subscriber implements all subscriber
// interfaces.
var (
	_ formfill.FillBeginSubscriber       = (*Subscriber)(nil)
	_ formfill.FillEndSubscriber         = (*Subscriber)(nil)
	_ formfill.AskSubscriber             = (*Subscriber)(nil)
	_ formfill.TimeoutSubscriber         = (*Subscriber)(nil)
	_ formfill.CancelSubscriber          = (*Subscriber)(nil)
	_ formfill.UnrelatedSubscriber       = (*Subscriber)(nil)
	_ formfill.ConversionErrorSubscriber = (*Subscriber)(nil)
	_ formfill.ValidationErrorSubscriber = (*Subscriber)(nil)
	_ formfill.SuccessSubscriber         = (*Subscriber)(nil)
)
