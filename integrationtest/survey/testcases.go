package survey

import (
	"context"
	"errors"
	"io"

	"github.com/fieldworks/formfill"
	"github.com/fieldworks/formfill/integrationtest/testutil"
	"github.com/fieldworks/formfill/internal/tt"
)

// scripted bundles one deterministic dialogue: the user's messages and
// the model replies that crack them.
type scripted struct {
	name         string
	title        string
	model        *tt.MockModel
	source       *tt.Source
	maxUnrelated int
}

func runSurvey(
	ctx context.Context,
	w io.Writer,
	config testutil.TestConfig,
	s scripted,
) (*formfill.FillResult[Feedback], error) {
	form, constraints, err := NewFixture(s.model).Build()
	if err != nil {
		return nil, err
	}

	return testutil.RunScenario(ctx, w, config, testutil.ScenarioConfig[Feedback]{
		Name:         s.name,
		HeaderTitle:  s.title,
		Form:         form,
		Validator:    constraints,
		Source:       s.source,
		MaxUnrelated: s.maxUnrelated,
	})
}

// RunExtractionScenario answers every question in free-form chat; the
// model reads the values out.
func RunExtractionScenario(
	ctx context.Context,
	w io.Writer,
	config testutil.TestConfig,
) (*formfill.FillResult[Feedback], error) {
	return runSurvey(ctx, w, config, scripted{
		name:  "survey-extraction",
		title: "EVENT SURVEY: FREE-FORM ANSWERS",
		model: tt.NewMockModel().
			AddReply("Maya Chen").
			AddReply("9"),
		source: tt.NewSource().
			AddText("m1", "Hi there, I'm Maya Chen!").
			AddText("m2", "Honestly? A solid nine out of ten.").
			AddText("m3", "Loved the workshops."),
	})
}

// RunChatterScenario sends only small talk. The model reads none of it
// as an answer and the unrelated limit aborts the dialogue.
func RunChatterScenario(
	ctx context.Context,
	w io.Writer,
	config testutil.TestConfig,
) (*formfill.FillResult[Feedback], error) {
	return runSurvey(ctx, w, config, scripted{
		name:  "survey-chatter",
		title: "EVENT SURVEY: NOTHING BUT SMALL TALK",
		model: tt.NewMockModel(),
		source: tt.NewSource().
			AddText("m1", "so anyway, how was YOUR weekend?").
			AddText("m2", "did you catch the game last night?").
			AddText("m3", "lol"),
		maxUnrelated: 3,
	})
}

// RunMisreadScenario has the model extract an unconvertible rating
// first; the converting budget covers the correction.
func RunMisreadScenario(
	ctx context.Context,
	w io.Writer,
	config testutil.TestConfig,
) (*formfill.FillResult[Feedback], error) {
	return runSurvey(ctx, w, config, scripted{
		name:  "survey-misread",
		title: "EVENT SURVEY: UNCONVERTIBLE EXTRACTION",
		model: tt.NewMockModel().
			AddReply("Maya").
			AddReply("nine-ish").
			AddReply("9"),
		source: tt.NewSource().
			AddText("m1", "I'm Maya.").
			AddText("m2", "somewhere around nine-ish I think").
			AddText("m3", "ok, strictly 9").
			AddText("m4", "All good."),
	})
}

// RunOutageScenario fails one model call. The failure claims the
// message and lands in the converting budget instead of looping as
// unrelated.
func RunOutageScenario(
	ctx context.Context,
	w io.Writer,
	config testutil.TestConfig,
) (*formfill.FillResult[Feedback], error) {
	return runSurvey(ctx, w, config, scripted{
		name:  "survey-outage",
		title: "EVENT SURVEY: MODEL OUTAGE",
		model: tt.NewMockModel().
			AddReply("Maya").
			AddError(errors.New("model unavailable")).
			AddReply("8"),
		source: tt.NewSource().
			AddText("m1", "I'm Maya.").
			AddText("m2", "An eight from me.").
			AddText("m3", "An eight from me, I said!").
			AddText("m4", "Nothing else."),
	})
}

// RunOutOfRangeScenario extracts a rating above the maximum, corrects
// it through the validation budget, and leaves the comment to time out.
func RunOutOfRangeScenario(
	ctx context.Context,
	w io.Writer,
	config testutil.TestConfig,
) (*formfill.FillResult[Feedback], error) {
	return runSurvey(ctx, w, config, scripted{
		name:  "survey-out-of-range",
		title: "EVENT SURVEY: RATING OUT OF RANGE",
		model: tt.NewMockModel().
			AddReply("Maya").
			AddReply("11").
			AddReply("10"),
		source: tt.NewSource().
			AddText("m1", "I'm Maya.").
			AddText("m2", "eleven, definitely").
			AddText("m3", "fine, a ten"),
	})
}

// RunLiveModelScenario runs the extraction dialogue against a real
// model. It needs FORMFILL_TEST_XAI_KEY.
func RunLiveModelScenario(
	ctx context.Context,
	w io.Writer,
	config testutil.TestConfig,
) (*formfill.FillResult[Feedback], error) {
	model, err := testutil.CreateModel()
	if err != nil {
		return nil, err
	}

	form, constraints, err := NewFixture(model).Build()
	if err != nil {
		return nil, err
	}

	source := tt.NewSource().
		AddText("m1", "Hello! My name is Maya Chen.").
		AddText("m2", "I'd say it was a nine out of ten!").
		AddText("m3", "Keep the lightning talks.")

	return testutil.RunScenario(ctx, w, config, testutil.ScenarioConfig[Feedback]{
		Name:        "survey-live-model",
		HeaderTitle: "EVENT SURVEY: LIVE MODEL",
		Form:        form,
		Validator:   constraints,
		Source:      source,
	})
}

// GetSurveyTestCases returns the survey scenarios for the demo CLI. All
// of them run against the scripted model, no API key needed.
func GetSurveyTestCases() []testutil.TestCase {
	expectFilled := func(
		run func(context.Context, io.Writer, testutil.TestConfig) (*formfill.FillResult[Feedback], error),
	) func(context.Context, io.Writer, testutil.TestConfig) error {
		return func(ctx context.Context, w io.Writer, config testutil.TestConfig) error {
			result, err := run(ctx, w, config)
			if err != nil {
				return err
			}
			return result.Err
		}
	}

	return []testutil.TestCase{
		{
			Name:        "Free-Form Answers",
			Description: "The model reads name and rating out of conversational replies",
			Run:         expectFilled(RunExtractionScenario),
		},
		{
			Name:        "Unconvertible Extraction",
			Description: "A vague rating burns the converting budget before the correction",
			Run:         expectFilled(RunMisreadScenario),
		},
		{
			Name:        "Nothing But Small Talk",
			Description: "Three unrelated messages in a row abort the dialogue",
			Run: func(ctx context.Context, w io.Writer, config testutil.TestConfig) error {
				result, err := RunChatterScenario(ctx, w, config)
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
			},
		},
	}
}
