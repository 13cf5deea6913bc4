// Package registration runs end-to-end dialogues over a YAML-defined
// patient intake form: scripted replies go through a dispatch hub and
// the filler works them off exactly as a live chat integration would.
package registration

import (
	"github.com/fieldworks/formfill"
	"github.com/fieldworks/formfill/formdef"
	"github.com/fieldworks/formfill/validate"
)

// Field timeouts are short so scenarios that deliberately leave fields
// unanswered resolve quickly.
const intakeYAML = `
form: patient_intake
fields:
  - name: full_name
    prompt: Welcome! What is your full name?
    type: string
    required: true
    timeout: 250ms
    constraint:
      description: The patient's legal name.
      min_length: 2
  - name: age
    prompt: How old are you?
    type: integer
    required: true
    timeout: 250ms
    retries:
      converting: 2
      validation: 1
    constraint:
      description: Age in full years.
      minimum: 13
      maximum: 120
  - name: email
    prompt: What email address should we use to reach you?
    type: string
    required: true
    timeout: 250ms
    retries:
      validation: 1
    constraint:
      format: email
  - name: referral
    prompt: How did you hear about us? Reply "skip" to leave this blank.
    type: string
    timeout: 250ms
    cancel_words: [skip]
  - name: newsletter
    prompt: Would you like our monthly newsletter? (yes/no)
    type: boolean
    timeout: 250ms
`

// Fixture holds the parsed intake definition.
type Fixture struct {
	def *formdef.Definition
}

// NewFixture parses the intake definition.
func NewFixture() (*Fixture, error) {
	def, err := formdef.Parse([]byte(intakeYAML))
	if err != nil {
		return nil, err
	}
	return &Fixture{def: def}, nil
}

// Definition returns the parsed definition.
func (f *Fixture) Definition() *formdef.Definition {
	return f.def
}

// Build compiles the intake form and its constraint validator.
func (f *Fixture) Build() (*formfill.Form[formdef.Values], *validate.Constraints[formdef.Values], error) {
	return f.def.Build()
}
