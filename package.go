// Package formfill drives multi-step, conversational data collection: given
// an ordered set of typed fields, it asks the user for each field in turn,
// waits for the next inbound chat message, converts and validates the
// answer, and retries or aborts according to per-field policy.
//
// The package is transport-agnostic. It reads messages through the
// [MessageSource] interface and talks back to the user through lifecycle
// subscribers, so the same form runs unchanged over a chat bot, a CLI, or a
// test script.
//
// # Quick Start: Registration Dialogue
//
// A complete two-field dialogue over the in-memory dispatch hub:
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//
//	    "github.com/fieldworks/formfill"
//	    "github.com/fieldworks/formfill/convert"
//	    "github.com/fieldworks/formfill/dispatch"
//	    "github.com/fieldworks/formfill/retry"
//	    "github.com/fieldworks/formfill/trigger"
//	)
//
//	type Registration struct {
//	    Age  int
//	    Name string
//	}
//
//	// Prompter prints each question as the dialogue reaches it.
//	type Prompter struct{}
//
//	func (Prompter) OnAsk(_ context.Context, _ *formfill.FillContext, e *formfill.AskEvent) error {
//	    fmt.Println(e.Prompt)
//	    return nil
//	}
//
//	func main() {
//	    // 1. Describe the form.
//	    form, err := formfill.NewBuilder[Registration]("registration", convert.Defaults()).
//	        Add(formfill.Field[Registration]{
//	            Name:     "age",
//	            Prompt:   "How old are you?",
//	            Type:     formfill.TypeInteger,
//	            Priority: 1,
//	            Required: true,
//	            Retries: map[formfill.FailureKind]formfill.RetryPolicy{
//	                formfill.FailureConverting: retry.Budget(1),
//	            },
//	            Assign: func(r *Registration, v any) { r.Age = int(v.(int64)) },
//	        }).
//	        Add(formfill.Field[Registration]{
//	            Name:     "name",
//	            Prompt:   "What's your name?",
//	            Type:     formfill.TypeString,
//	            Priority: 2,
//	            Required: true,
//	            Assign:   func(r *Registration, v any) { r.Name = v.(string) },
//	        }).
//	        Build()
//	    if err != nil {
//	        panic(err)
//	    }
//
//	    // 2. Open a conversation for the user.
//	    hub := dispatch.NewHub()
//	    defer hub.Close()
//	    if _, err := hub.Open("user-1"); err != nil {
//	        panic(err)
//	    }
//
//	    // 3. Wire the filler.
//	    registry := formfill.NewRegistry().Subscribe(Prompter{})
//	    filler, err := formfill.NewFiller(formfill.Config[Registration]{
//	        Form:          form,
//	        Source:        hub,
//	        Registry:      registry,
//	        CancelTrigger: trigger.Keywords("cancel"),
//	    })
//	    if err != nil {
//	        panic(err)
//	    }
//
//	    // 4. Feed answers (normally the transport does this).
//	    go func() {
//	        hub.DeliverText("user-1", "twenty-five") // unrelated: the integer converter rejects it
//	        hub.DeliverText("user-1", "25")
//	        hub.DeliverText("user-1", "Alice")
//	    }()
//
//	    // 5. Run the dialogue.
//	    result := filler.Fill(context.Background(), "user-1")
//	    if result.Err != nil {
//	        panic(result.Err)
//	    }
//	    fmt.Printf("%+v\n", *result.Form) // {Age:25 Name:Alice}
//	}
//
// # Fields and Forms
//
// A [Field] is static metadata: name, prompt, declared [ValueType],
// priority, timeout, required flag, retry policy prototypes, and optional
// cracker and cancel-trigger overrides. [Builder] checks every
// construction-time invariant (unique names, resolvable converters,
// non-nil Assign, known cracker bindings) and produces an immutable
// [Form] that any number of concurrent fills can share.
//
// # Messages, Crackers, Converters
//
// Inbound [Message] values come from a [MessageSource]. For each message
// the current field's [Cracker] first decides relevance; unrelated
// messages fire an event and are read past without consuming any retry
// budget. The extracted raw value then goes through the field's
// [Converter] (resolved once at Build time via [ConverterResolver]). The
// default [TextCracker] treats a message as relevant exactly when the
// converter accepts its text; the cracker subpackage adds regexp, func,
// and LLM-backed crackers for messier input.
//
// # Retries and Cancellation
//
// Each field carries independent retry budgets per [FailureKind]: timeout,
// converting, validation. The state machine checks [RetryPolicy.CanTry]
// before every retry and records only retries actually taken, so events
// can carry policy snapshots without burning budget. Policies on the form
// are prototypes; every Fill works on fresh clones.
//
// Two distinct things are both called cancellation:
//
//   - A [CancelTrigger] match on an inbound message is dialogue flow: the
//     field resolves to null with no retry consulted, and a required field
//     aborts the dialogue.
//   - Cancelling the context passed to Fill abandons the operation; it
//     interrupts the message wait and surfaces as ctx.Err, never as a
//     dialogue outcome.
//
// # Validation
//
// Converted values pass through a [Validator] before being committed. The
// validate subpackage implements one over declarative JSON Schema
// constraints; any Validator works. A validation failure with no retry
// left aborts the whole dialogue, as does a required field that resolved
// to null. Aborts surface as [AbortError] and match [ErrAborted]; a
// successful fill returns the populated form instance, and an aborted one
// exposes no partial form.
//
// # Subscribers
//
// Lifecycle events ([AskEvent], [TimeoutEvent], [CancelEvent],
// [UnrelatedEvent], [ConversionErrorEvent], [ValidationErrorEvent],
// [SuccessEvent], plus the fill-level [FillBeginEvent] and [FillEndEvent])
// are dispatched through a [Registry] to any subscribers implementing the
// matching interfaces. Subscribers run in registration order, strictly
// sequenced with the dialogue, and may abort the fill by returning an
// error. The [FillContext] passed to every subscriber journals all events
// and aggregates [FillStats].
//
// # Subpackages
//
//   - convert: builtin converters for the declared value types.
//   - cracker: regexp, func, and LLM-backed crackers.
//   - trigger: keyword and func cancel triggers.
//   - retry: the budget retry policy.
//   - dispatch: an in-memory conversation hub implementing MessageSource.
//   - schema, validate: declarative per-field value constraints.
//   - formdef: YAML form definitions.
package formfill
