package formfill

import "context"

// Registry stores subscribers and dispatches lifecycle events to them.
//
// Subscribe any value; it receives the events whose subscriber interfaces
// it implements. Subscribers are called in registration order, and every
// Fire method records the event in the fill's journal before the first
// subscriber sees it, so an aborting subscriber still leaves the event
// visible in FillContext.Events.
//
// A subscriber error stops dispatch immediately: later subscribers do not
// receive the event, and the error aborts the running fill.
//
// Registry is not synchronized. Register all subscribers before the first
// Fill; a registry can then be shared by any number of concurrent fills.
type Registry struct {
	subscribers []any
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{subscribers: make([]any, 0)}
}

// Subscribe adds a subscriber. The value can implement any combination of
// subscriber interfaces (AskSubscriber, SuccessSubscriber, etc.). Returns
// the registry for chaining.
func (r *Registry) Subscribe(subscriber any) *Registry {
	r.subscribers = append(r.subscribers, subscriber)
	return r
}

// FireFillBegin records and dispatches a FillBeginEvent.
func (r *Registry) FireFillBegin(ctx context.Context, fill *FillContext, event *FillBeginEvent) error {
	fill.record(event)
	for _, s := range r.subscribers {
		if sub, ok := s.(FillBeginSubscriber); ok {
			if err := sub.OnFillBegin(ctx, fill, event); err != nil {
				return err
			}
		}
	}
	return nil
}

// FireFillEnd records and dispatches a FillEndEvent.
func (r *Registry) FireFillEnd(ctx context.Context, fill *FillContext, event *FillEndEvent) error {
	fill.record(event)
	for _, s := range r.subscribers {
		if sub, ok := s.(FillEndSubscriber); ok {
			if err := sub.OnFillEnd(ctx, fill, event); err != nil {
				return err
			}
		}
	}
	return nil
}

// FireAsk records and dispatches an AskEvent.
func (r *Registry) FireAsk(ctx context.Context, fill *FillContext, event *AskEvent) error {
	fill.record(event)
	for _, s := range r.subscribers {
		if sub, ok := s.(AskSubscriber); ok {
			if err := sub.OnAsk(ctx, fill, event); err != nil {
				return err
			}
		}
	}
	return nil
}

// FireTimeout records and dispatches a TimeoutEvent.
func (r *Registry) FireTimeout(ctx context.Context, fill *FillContext, event *TimeoutEvent) error {
	fill.record(event)
	for _, s := range r.subscribers {
		if sub, ok := s.(TimeoutSubscriber); ok {
			if err := sub.OnTimeout(ctx, fill, event); err != nil {
				return err
			}
		}
	}
	return nil
}

// FireCancel records and dispatches a CancelEvent.
func (r *Registry) FireCancel(ctx context.Context, fill *FillContext, event *CancelEvent) error {
	fill.record(event)
	for _, s := range r.subscribers {
		if sub, ok := s.(CancelSubscriber); ok {
			if err := sub.OnCancel(ctx, fill, event); err != nil {
				return err
			}
		}
	}
	return nil
}

// FireUnrelated records and dispatches an UnrelatedEvent.
func (r *Registry) FireUnrelated(ctx context.Context, fill *FillContext, event *UnrelatedEvent) error {
	fill.record(event)
	for _, s := range r.subscribers {
		if sub, ok := s.(UnrelatedSubscriber); ok {
			if err := sub.OnUnrelated(ctx, fill, event); err != nil {
				return err
			}
		}
	}
	return nil
}

// FireConversionError records and dispatches a ConversionErrorEvent.
func (r *Registry) FireConversionError(ctx context.Context, fill *FillContext, event *ConversionErrorEvent) error {
	fill.record(event)
	for _, s := range r.subscribers {
		if sub, ok := s.(ConversionErrorSubscriber); ok {
			if err := sub.OnConversionError(ctx, fill, event); err != nil {
				return err
			}
		}
	}
	return nil
}

// FireValidationError records and dispatches a ValidationErrorEvent.
func (r *Registry) FireValidationError(ctx context.Context, fill *FillContext, event *ValidationErrorEvent) error {
	fill.record(event)
	for _, s := range r.subscribers {
		if sub, ok := s.(ValidationErrorSubscriber); ok {
			if err := sub.OnValidationError(ctx, fill, event); err != nil {
				return err
			}
		}
	}
	return nil
}

// FireSuccess records and dispatches a SuccessEvent.
func (r *Registry) FireSuccess(ctx context.Context, fill *FillContext, event *SuccessEvent) error {
	fill.record(event)
	for _, s := range r.subscribers {
		if sub, ok := s.(SuccessSubscriber); ok {
			if err := sub.OnSuccess(ctx, fill, event); err != nil {
				return err
			}
		}
	}
	return nil
}
