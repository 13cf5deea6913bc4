package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fieldworks/formfill"
)

// chatPrinter renders the dialogue as a chat transcript: the bot's
// questions in full, plus short bracketed notes for what the state
// machine did with each reply.
type chatPrinter struct {
	w io.Writer
}

func newChatPrinter(w io.Writer) *chatPrinter {
	return &chatPrinter{w: w}
}

var (
	_ formfill.AskSubscriber             = (*chatPrinter)(nil)
	_ formfill.TimeoutSubscriber         = (*chatPrinter)(nil)
	_ formfill.CancelSubscriber          = (*chatPrinter)(nil)
	_ formfill.UnrelatedSubscriber       = (*chatPrinter)(nil)
	_ formfill.ConversionErrorSubscriber = (*chatPrinter)(nil)
	_ formfill.ValidationErrorSubscriber = (*chatPrinter)(nil)
	_ formfill.SuccessSubscriber         = (*chatPrinter)(nil)
)

func (p *chatPrinter) note(format string, args ...any) {
	fmt.Fprintf(p.w, "%s[%s]%s\n",
		colorDim, fmt.Sprintf(format, args...), colorReset)
}

func (p *chatPrinter) OnAsk(_ context.Context, _ *formfill.FillContext, e *formfill.AskEvent) error {
	fmt.Fprintf(p.w, "%s%sBot:%s %s\n",
		colorBold, colorGreen, colorReset, e.Prompt)
	return nil
}

func (p *chatPrinter) OnTimeout(_ context.Context, _ *formfill.FillContext, e *formfill.TimeoutEvent) error {
	p.note("no answer after %s", e.Timeout)
	return nil
}

func (p *chatPrinter) OnCancel(_ context.Context, _ *formfill.FillContext, _ *formfill.CancelEvent) error {
	p.note("cancel received")
	return nil
}

func (p *chatPrinter) OnUnrelated(_ context.Context, _ *formfill.FillContext, e *formfill.UnrelatedEvent) error {
	p.note("that did not look like an answer for %s", e.Field)
	return nil
}

func (p *chatPrinter) OnConversionError(_ context.Context, _ *formfill.FillContext, e *formfill.ConversionErrorEvent) error {
	p.note("could not read that answer: %v", e.Err)
	if e.Retry.CanTry {
		p.note("try again")
	}
	return nil
}

func (p *chatPrinter) OnValidationError(_ context.Context, _ *formfill.FillContext, e *formfill.ValidationErrorEvent) error {
	if e.RequiredAndNull {
		p.note("an answer is required for %s", e.Field)
	} else {
		for _, d := range e.Diagnostics {
			p.note("%s: %s", d.Rule, d.Message)
		}
	}
	if e.Retry.CanTry {
		p.note("try again")
	}
	return nil
}

func (p *chatPrinter) OnSuccess(_ context.Context, _ *formfill.FillContext, e *formfill.SuccessEvent) error {
	if e.Value == nil {
		p.note("%s left blank", e.Field)
		return nil
	}
	p.note("%s = %v", e.Field, e.Value)
	return nil
}
