package formfill

import "context"

// Subscriber interfaces define type-safe subscriptions to lifecycle events.
//
// Implement any combination of these interfaces on a single value and
// register it with Registry.Subscribe; the registry detects which
// interfaces the value implements and calls the matching methods. For one
// field, events arrive strictly in dialogue order: ask first, then any mix
// of timeout, cancel, unrelated, conversion-error, and validation-error
// events, then at most one success.
//
// Subscribers are where the dialogue talks back to the user: an
// AskSubscriber sends the field's prompt, a TimeoutSubscriber nudges, a
// ValidationErrorSubscriber explains what was wrong. The fill waits for
// each subscriber to return before advancing, so later answers can react
// to what earlier subscribers sent.
//
// Returning a non-nil error aborts the fill immediately: remaining
// subscribers do not see the event, and Fill returns an AbortError with
// the subscriber's error wrapped inside. Errors are for aborting only;
// retrying or logging a failed side effect is the subscriber's own
// business.
//
// # Example
//
//	type Prompter struct {
//	    send func(text string) error
//	}
//
//	func (p *Prompter) OnAsk(
//	    ctx context.Context,
//	    fill *formfill.FillContext,
//	    event *formfill.AskEvent,
//	) error {
//	    return p.send(event.Prompt)
//	}
//
//	func (p *Prompter) OnValidationError(
//	    ctx context.Context,
//	    fill *formfill.FillContext,
//	    event *formfill.ValidationErrorEvent,
//	) error {
//	    for _, d := range event.Diagnostics {
//	        if err := p.send(d.Message); err != nil {
//	            return err
//	        }
//	    }
//	    return nil
//	}
//
//	registry := formfill.NewRegistry()
//	registry.Subscribe(&Prompter{send: bot.Send})

// FillBeginSubscriber receives FillBeginEvent events.
type FillBeginSubscriber interface {
	OnFillBegin(ctx context.Context, fill *FillContext, event *FillBeginEvent) error
}

// FillEndSubscriber receives FillEndEvent events.
type FillEndSubscriber interface {
	OnFillEnd(ctx context.Context, fill *FillContext, event *FillEndEvent) error
}

// AskSubscriber receives AskEvent events.
type AskSubscriber interface {
	OnAsk(ctx context.Context, fill *FillContext, event *AskEvent) error
}

// TimeoutSubscriber receives TimeoutEvent events.
type TimeoutSubscriber interface {
	OnTimeout(ctx context.Context, fill *FillContext, event *TimeoutEvent) error
}

// CancelSubscriber receives CancelEvent events.
type CancelSubscriber interface {
	OnCancel(ctx context.Context, fill *FillContext, event *CancelEvent) error
}

// UnrelatedSubscriber receives UnrelatedEvent events.
type UnrelatedSubscriber interface {
	OnUnrelated(ctx context.Context, fill *FillContext, event *UnrelatedEvent) error
}

// ConversionErrorSubscriber receives ConversionErrorEvent events.
type ConversionErrorSubscriber interface {
	OnConversionError(ctx context.Context, fill *FillContext, event *ConversionErrorEvent) error
}

// ValidationErrorSubscriber receives ValidationErrorEvent events.
type ValidationErrorSubscriber interface {
	OnValidationError(ctx context.Context, fill *FillContext, event *ValidationErrorEvent) error
}

// SuccessSubscriber receives SuccessEvent events.
type SuccessSubscriber interface {
	OnSuccess(ctx context.Context, fill *FillContext, event *SuccessEvent) error
}
