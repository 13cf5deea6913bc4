// Package trigger provides stock cancel triggers.
//
// A cancel trigger decides whether an incoming message means "stop
// filling this field". Wire one per dialogue through
// formfill.Config.CancelTrigger, or per field through
// formfill.Field.CancelTrigger:
//
//	filler, err := formfill.NewFiller(formfill.Config[Registration]{
//	    Form:          form,
//	    Source:        source,
//	    CancelTrigger: trigger.Keywords("cancel", "stop", "nevermind"),
//	})
package trigger

import (
	"strings"

	"github.com/fieldworks/formfill"
)

// Keywords returns a trigger that fires when the whole message, after
// trimming surrounding whitespace, equals one of the words. Matching is
// case-insensitive, so "cancel" also catches "Cancel" and "CANCEL".
func Keywords(words ...string) formfill.CancelTrigger {
	return Func(func(msg *formfill.Message) bool {
		text := strings.TrimSpace(msg.Text)
		for _, word := range words {
			if strings.EqualFold(text, word) {
				return true
			}
		}
		return false
	})
}

// Func adapts a plain function to the formfill.CancelTrigger interface.
type Func func(*formfill.Message) bool

// ShouldCancel calls f.
func (f Func) ShouldCancel(msg *formfill.Message) bool {
	return f(msg)
}
