// Package survey runs dialogues over a struct-defined feedback form
// whose answers are read out of free-form chat by a language model.
package survey

import (
	"github.com/tmc/langchaingo/llms"

	"github.com/fieldworks/formfill"
	"github.com/fieldworks/formfill/convert"
	"github.com/fieldworks/formfill/cracker"
	"github.com/fieldworks/formfill/formdef"
	"github.com/fieldworks/formfill/retry"
	"github.com/fieldworks/formfill/schema"
	"github.com/fieldworks/formfill/validate"
)

// Feedback is the post-event survey. The attendee and rating answers
// arrive as free-form chat, so those fields get LLM crackers.
type Feedback struct {
	Attendee string  `form:"attendee,required" prompt:"Thanks for coming! What's your name?"`
	Rating   int64   `form:"rating,required" prompt:"How would you rate the event, 1 to 10?"`
	Comment  *string `form:"comment" prompt:"Any closing comments?"`
}

// Fixture builds feedback forms bound to a model.
type Fixture struct {
	model llms.Model
}

// NewFixture creates a fixture cracking answers with the given model.
func NewFixture(model llms.Model) *Fixture {
	return &Fixture{model: model}
}

// Build compiles the feedback form: struct-derived fields, LLM crackers
// on attendee and rating, a retry budget on rating, and the 1 to 10
// range constraint.
func (f *Fixture) Build() (*formfill.Form[Feedback], *validate.Constraints[Feedback], error) {
	fields, err := formdef.FromStruct[Feedback]()
	if err != nil {
		return nil, nil, err
	}

	// The LLM crackers read each message against the question the user
	// was actually asked, so their questions are the field prompts.
	prompts := make(map[string]string, len(fields))
	for i := range fields {
		prompts[fields[i].Name] = fields[i].Prompt
		if fields[i].Name == "rating" {
			fields[i].Retries = map[formfill.FailureKind]formfill.RetryPolicy{
				formfill.FailureConverting: retry.Budget(1),
				formfill.FailureValidation: retry.Budget(1),
			}
		}
	}

	builder := formfill.NewBuilder[Feedback]("feedback", convert.Defaults())
	for _, field := range fields {
		builder.Add(field)
	}
	builder.BindCracker("attendee", cracker.NewLLM(f.model, prompts["attendee"],
		cracker.WithHint("just the person's name")))
	builder.BindCracker("rating", cracker.NewLLM(f.model, prompts["rating"],
		cracker.WithHint("a whole number from 1 to 10")))

	form, err := builder.Build()
	if err != nil {
		return nil, nil, err
	}

	constraints, err := validate.NewConstraints[Feedback](map[string]*schema.Property{
		"rating": schema.Integer("Event rating.").Min(1).Max(10),
	})
	if err != nil {
		return nil, nil, err
	}
	return form, constraints, nil
}
