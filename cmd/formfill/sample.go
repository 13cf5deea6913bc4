package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const sampleDefinition = `form: registration
fields:
  - name: full_name
    prompt: What is your full name?
    type: string
    required: true
    constraint:
      min_length: 2
  - name: age
    prompt: How old are you?
    type: integer
    required: true
    retries:
      converting: 2
      validation: 1
    constraint:
      minimum: 13
      maximum: 120
  - name: email
    prompt: What is your email address?
    type: string
    required: true
    constraint:
      format: email
  - name: notes
    prompt: Anything else we should know?
    type: string
    timeout: 45s
    cancel_words: [skip]
`

// newSampleCommand prints a starter definition for run.
func newSampleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sample",
		Short: "Print a sample form definition",
		Long: "sample prints a ready-to-run form definition. Save it " +
			"and fill it with \"formfill run\".",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), sampleDefinition)
			return err
		},
	}
}
