// Package tt provides test helpers shared by the formfill packages:
// scripted mocks, expected-event builders and event journal assertions.
package tt

import (
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/fieldworks/formfill"
)

// record is the comparable projection of an event. Messages reduce to
// their IDs, errors to presence, diagnostics to their rule names, so
// expected events built by this package line up with real ones.
type record struct {
	Kind            string
	Form            string
	UserID          string
	ConversationID  string
	Field           string
	Prompt          string
	MessageID       string
	Timeout         time.Duration
	Raw             any
	Value           any
	Rules           []string
	RequiredAndNull bool
	Retry           formfill.RetrySnapshot
	Aborted         bool
	HasErr          bool
}

func messageID(msg *formfill.Message) string {
	if msg == nil {
		return ""
	}
	return msg.ID
}

func ruleNames(diags []formfill.Diagnostic) []string {
	if len(diags) == 0 {
		return nil
	}
	rules := make([]string, 0, len(diags))
	for _, d := range diags {
		rules = append(rules, d.Rule)
	}
	sort.Strings(rules)
	return rules
}

func recordOf(e formfill.Event) record {
	switch ev := e.(type) {
	case *formfill.FillBeginEvent:
		return record{
			Kind:           "fill_begin",
			Form:           ev.Form,
			UserID:         ev.UserID,
			ConversationID: ev.ConversationID,
		}
	case *formfill.FillEndEvent:
		return record{Kind: "fill_end", Form: ev.Form, Aborted: ev.Aborted, HasErr: ev.Err != nil}
	case *formfill.AskEvent:
		return record{Kind: "ask", Field: ev.Field, Prompt: ev.Prompt}
	case *formfill.TimeoutEvent:
		return record{Kind: "timeout", Field: ev.Field, Timeout: ev.Timeout, Retry: ev.Retry}
	case *formfill.CancelEvent:
		return record{Kind: "cancel", Field: ev.Field, MessageID: messageID(ev.Message)}
	case *formfill.UnrelatedEvent:
		return record{Kind: "unrelated", Field: ev.Field, MessageID: messageID(ev.Message)}
	case *formfill.ConversionErrorEvent:
		return record{
			Kind:      "conversion_error",
			Field:     ev.Field,
			MessageID: messageID(ev.Message),
			Raw:       ev.Raw,
			Retry:     ev.Retry,
		}
	case *formfill.ValidationErrorEvent:
		return record{
			Kind:            "validation_error",
			Field:           ev.Field,
			MessageID:       messageID(ev.Message),
			Value:           ev.Value,
			Rules:           ruleNames(ev.Diagnostics),
			RequiredAndNull: ev.RequiredAndNull,
			Retry:           ev.Retry,
		}
	case *formfill.SuccessEvent:
		return record{Kind: "success", Field: ev.Field, Value: ev.Value, MessageID: messageID(ev.Message)}
	default:
		return record{Kind: fmt.Sprintf("%T", e)}
	}
}

func (r record) line() string {
	switch r.Kind {
	case "fill_begin":
		return fmt.Sprintf("fill_begin form=%s user=%s conv=%s", r.Form, r.UserID, r.ConversationID)
	case "fill_end":
		return fmt.Sprintf("fill_end form=%s aborted=%t err=%t", r.Form, r.Aborted, r.HasErr)
	case "ask":
		return "ask field=" + r.Field
	case "timeout":
		return fmt.Sprintf("timeout field=%s wait=%s retry=%d/%d", r.Field, r.Timeout, r.Retry.AttemptsTried, r.Retry.MaxAttempts)
	case "cancel":
		return fmt.Sprintf("cancel field=%s msg=%s", r.Field, r.MessageID)
	case "unrelated":
		return fmt.Sprintf("unrelated field=%s msg=%s", r.Field, r.MessageID)
	case "conversion_error":
		return fmt.Sprintf("conversion_error field=%s msg=%s raw=%v retry=%d/%d",
			r.Field, r.MessageID, r.Raw, r.Retry.AttemptsTried, r.Retry.MaxAttempts)
	case "validation_error":
		if r.RequiredAndNull {
			return fmt.Sprintf("validation_error field=%s required_null retry=%d/%d",
				r.Field, r.Retry.AttemptsTried, r.Retry.MaxAttempts)
		}
		return fmt.Sprintf("validation_error field=%s msg=%s rules=%v retry=%d/%d",
			r.Field, r.MessageID, r.Rules, r.Retry.AttemptsTried, r.Retry.MaxAttempts)
	case "success":
		if r.Value == nil && r.MessageID == "" {
			return fmt.Sprintf("success field=%s null", r.Field)
		}
		return fmt.Sprintf("success field=%s value=%v msg=%s", r.Field, r.Value, r.MessageID)
	default:
		return r.Kind
	}
}

// Transcript renders one line per event, in order. Useful for failure
// output and for coarse-grained journal assertions.
func Transcript(events []formfill.Event) []string {
	lines := make([]string, 0, len(events))
	for _, e := range events {
		lines = append(lines, recordOf(e).line())
	}
	return lines
}

// Kinds returns just the event kind names, in order. Scenarios that run
// over a hub assert on these, since hub-stamped message IDs are not
// predictable.
func Kinds(events []formfill.Event) []string {
	kinds := make([]string, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, recordOf(e).Kind)
	}
	return kinds
}

// AssertEvents compares two event journals. Messages are compared by
// ID, errors by presence and diagnostics by rule name. On mismatch it
// reports the structural diff plus a unified diff of the transcripts.
func AssertEvents(t *testing.T, expected, actual []formfill.Event) bool {
	t.Helper()

	exp := make([]record, 0, len(expected))
	for _, e := range expected {
		exp = append(exp, recordOf(e))
	}
	act := make([]record, 0, len(actual))
	for _, e := range actual {
		act = append(act, recordOf(e))
	}

	diff := cmp.Diff(exp, act)
	if diff == "" {
		return true
	}

	transcript, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(strings.Join(Transcript(expected), "\n") + "\n"),
		B:        difflib.SplitLines(strings.Join(Transcript(actual), "\n") + "\n"),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	t.Errorf("event journal mismatch (-expected +actual):\n%s\ntranscript diff:\n%s", diff, transcript)
	return false
}

// AssertJournal compares a fill's recorded journal against the expected
// events.
func AssertJournal(t *testing.T, fill *formfill.FillContext, expected ...formfill.Event) bool {
	t.Helper()
	return AssertEvents(t, expected, fill.Events())
}
