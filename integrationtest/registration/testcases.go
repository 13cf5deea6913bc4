package registration

import (
	"context"
	"errors"
	"io"

	"github.com/fieldworks/formfill"
	"github.com/fieldworks/formfill/formdef"
	"github.com/fieldworks/formfill/integrationtest/testutil"
	"github.com/fieldworks/formfill/trigger"
)

// runIntake builds the intake form and runs one scripted dialogue over
// it. Every scenario shares the dialogue-level "cancel" trigger; the
// referral field keeps its own "skip" word from the definition.
func runIntake(
	ctx context.Context,
	w io.Writer,
	config testutil.TestConfig,
	name, title string,
	script []string,
) (*formfill.FillResult[formdef.Values], error) {
	fixture, err := NewFixture()
	if err != nil {
		return nil, err
	}
	form, constraints, err := fixture.Build()
	if err != nil {
		return nil, err
	}

	return testutil.RunScenario(ctx, w, config, testutil.ScenarioConfig[formdef.Values]{
		Name:          name,
		HeaderTitle:   title,
		Form:          form,
		Validator:     constraints,
		CancelTrigger: trigger.Keywords("cancel"),
		Script:        script,
	})
}

// RunHappyPathScenario answers every field correctly on the first try.
func RunHappyPathScenario(
	ctx context.Context,
	w io.Writer,
	config testutil.TestConfig,
) (*formfill.FillResult[formdef.Values], error) {
	return runIntake(ctx, w, config,
		"registration-happy-path",
		"PATIENT INTAKE: HAPPY PATH",
		[]string{
			"Ada Lovelace",
			"27",
			"ada@example.com",
			"A friend recommended you.",
			"yes",
		},
	)
}

// RunCorrectionScenario wanders off topic on the age question, then
// answers below the minimum, then corrects itself.
func RunCorrectionScenario(
	ctx context.Context,
	w io.Writer,
	config testutil.TestConfig,
) (*formfill.FillResult[formdef.Values], error) {
	return runIntake(ctx, w, config,
		"registration-correction",
		"PATIENT INTAKE: CORRECTIONS",
		[]string{
			"Ada Lovelace",
			"hmm let me think",
			"7",
			"27",
			"ada@example.com",
			"Online search.",
			"no",
		},
	)
}

// RunSkipAndNullScenario skips the referral question with its cancel
// word and never answers the newsletter one, leaving both null.
func RunSkipAndNullScenario(
	ctx context.Context,
	w io.Writer,
	config testutil.TestConfig,
) (*formfill.FillResult[formdef.Values], error) {
	return runIntake(ctx, w, config,
		"registration-skip-and-null",
		"PATIENT INTAKE: OPTIONAL FIELDS LEFT NULL",
		[]string{
			"Ada Lovelace",
			"27",
			"ada@example.com",
			"skip",
		},
	)
}

// RunCancelScenario cancels the dialogue on the required age question.
func RunCancelScenario(
	ctx context.Context,
	w io.Writer,
	config testutil.TestConfig,
) (*formfill.FillResult[formdef.Values], error) {
	return runIntake(ctx, w, config,
		"registration-cancel",
		"PATIENT INTAKE: USER CANCELS",
		[]string{
			"Ada Lovelace",
			"cancel",
		},
	)
}

// RunAbandonedScenario sends nothing at all, so the first required
// field times out and the dialogue aborts.
func RunAbandonedScenario(
	ctx context.Context,
	w io.Writer,
	config testutil.TestConfig,
) (*formfill.FillResult[formdef.Values], error) {
	return runIntake(ctx, w, config,
		"registration-abandoned",
		"PATIENT INTAKE: ABANDONED DIALOGUE",
		nil,
	)
}

// GetRegistrationTestCases returns the intake scenarios for the demo
// CLI. Scenarios that end in an expected dialogue abort report success.
func GetRegistrationTestCases() []testutil.TestCase {
	expectFilled := func(
		run func(context.Context, io.Writer, testutil.TestConfig) (*formfill.FillResult[formdef.Values], error),
	) func(context.Context, io.Writer, testutil.TestConfig) error {
		return func(ctx context.Context, w io.Writer, config testutil.TestConfig) error {
			result, err := run(ctx, w, config)
			if err != nil {
				return err
			}
			return result.Err
		}
	}
	expectAborted := func(
		run func(context.Context, io.Writer, testutil.TestConfig) (*formfill.FillResult[formdef.Values], error),
	) func(context.Context, io.Writer, testutil.TestConfig) error {
		return func(ctx context.Context, w io.Writer, config testutil.TestConfig) error {
			result, err := run(ctx, w, config)
			if err != nil {
				return err
			}
			if result.Err == nil {
				return errors.New("expected the dialogue to abort")
			}
			if !errors.Is(result.Err, formfill.ErrAborted) {
				return result.Err
			}
			return nil
		}
	}

	return []testutil.TestCase{
		{
			Name:        "Happy Path",
			Description: "Every intake question answered correctly on the first try",
			Run:         expectFilled(RunHappyPathScenario),
		},
		{
			Name:        "Corrections",
			Description: "Chatter and an out-of-range age before the right answer",
			Run:         expectFilled(RunCorrectionScenario),
		},
		{
			Name:        "Optional Fields Left Null",
			Description: "Referral skipped with its cancel word, newsletter timed out",
			Run:         expectFilled(RunSkipAndNullScenario),
		},
		{
			Name:        "User Cancels",
			Description: "Dialogue cancelled on a required question",
			Run:         expectAborted(RunCancelScenario),
		},
	}
}
