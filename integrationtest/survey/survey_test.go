package survey

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/formfill"
	"github.com/fieldworks/formfill/integrationtest/testutil"
	"github.com/fieldworks/formfill/internal/tt"
)

const (
	askAttendee = "Thanks for coming! What's your name?"
	askRating   = "How would you rate the event, 1 to 10?"
	askComment  = "Any closing comments?"
)

func TestExtractionScenario(t *testing.T) {
	result, err := RunExtractionScenario(
		context.Background(), io.Discard, testutil.QuietTestConfig(),
	)
	require.NoError(t, err)
	require.NoError(t, result.Err)
	require.NotNil(t, result.Form)

	assert.Equal(t, "Maya Chen", result.Form.Attendee)
	assert.Equal(t, int64(9), result.Form.Rating)
	require.NotNil(t, result.Form.Comment)
	assert.Equal(t, "Loved the workshops.", *result.Form.Comment)

	tt.AssertJournal(t, result.Context,
		tt.Begin("feedback", "user-1", "conv-1"),
		tt.Ask("attendee", askAttendee),
		tt.Success("attendee", "Maya Chen", "m1"),
		tt.Ask("rating", askRating),
		tt.Success("rating", int64(9), "m2"),
		tt.Ask("comment", askComment),
		tt.Success("comment", "Loved the workshops.", "m3"),
		tt.End("feedback", false, false),
	)
}

func TestChatterScenario(t *testing.T) {
	result, err := RunChatterScenario(
		context.Background(), io.Discard, testutil.QuietTestConfig(),
	)
	require.NoError(t, err)
	require.Error(t, result.Err)
	assert.Nil(t, result.Form)

	var abort *formfill.AbortError
	require.ErrorAs(t, result.Err, &abort)
	assert.Equal(t, "attendee", abort.Field)
	assert.Equal(t, formfill.AbortUnrelatedLimit, abort.Reason)

	tt.AssertJournal(t, result.Context,
		tt.Begin("feedback", "user-1", "conv-1"),
		tt.Ask("attendee", askAttendee),
		tt.Unrelated("attendee", "m1"),
		tt.Unrelated("attendee", "m2"),
		tt.Unrelated("attendee", "m3"),
		tt.End("feedback", true, true),
	)

	stats := result.Context.Stats()
	assert.Equal(t, 3, stats.Unrelated)
	assert.Equal(t, 3, stats.Reads)
	assert.Empty(t, stats.RetriesByKind)
}

func TestMisreadScenario(t *testing.T) {
	result, err := RunMisreadScenario(
		context.Background(), io.Discard, testutil.QuietTestConfig(),
	)
	require.NoError(t, err)
	require.NoError(t, result.Err)
	assert.Equal(t, int64(9), result.Form.Rating)

	tt.AssertJournal(t, result.Context,
		tt.Begin("feedback", "user-1", "conv-1"),
		tt.Ask("attendee", askAttendee),
		tt.Success("attendee", "Maya", "m1"),
		tt.Ask("rating", askRating),
		tt.ConversionError("rating", "m2", "nine-ish", tt.Snap(0, 1)),
		tt.Success("rating", int64(9), "m3"),
		tt.Ask("comment", askComment),
		tt.Success("comment", "All good.", "m4"),
		tt.End("feedback", false, false),
	)

	assert.Equal(t, map[formfill.FailureKind]int{
		formfill.FailureConverting: 1,
	}, result.Context.Stats().RetriesByKind)
}

func TestOutageScenario(t *testing.T) {
	result, err := RunOutageScenario(
		context.Background(), io.Discard, testutil.QuietTestConfig(),
	)
	require.NoError(t, err)
	require.NoError(t, result.Err)
	assert.Equal(t, int64(8), result.Form.Rating)

	// The failed model call claims the message, so the failure shows up
	// as a conversion error with no raw value, not as unrelated.
	tt.AssertJournal(t, result.Context,
		tt.Begin("feedback", "user-1", "conv-1"),
		tt.Ask("attendee", askAttendee),
		tt.Success("attendee", "Maya", "m1"),
		tt.Ask("rating", askRating),
		tt.ConversionError("rating", "m2", nil, tt.Snap(0, 1)),
		tt.Success("rating", int64(8), "m3"),
		tt.Ask("comment", askComment),
		tt.Success("comment", "Nothing else.", "m4"),
		tt.End("feedback", false, false),
	)

	assert.Equal(t, 0, result.Context.Stats().Unrelated)
}

func TestOutOfRangeScenario(t *testing.T) {
	result, err := RunOutOfRangeScenario(
		context.Background(), io.Discard, testutil.QuietTestConfig(),
	)
	require.NoError(t, err)
	require.NoError(t, result.Err)
	assert.Equal(t, int64(10), result.Form.Rating)
	assert.Nil(t, result.Form.Comment)

	tt.AssertJournal(t, result.Context,
		tt.Begin("feedback", "user-1", "conv-1"),
		tt.Ask("attendee", askAttendee),
		tt.Success("attendee", "Maya", "m1"),
		tt.Ask("rating", askRating),
		tt.ValidationError("rating", "m2", int64(11), tt.Snap(0, 1), "maximum"),
		tt.Success("rating", int64(10), "m3"),
		tt.Ask("comment", askComment),
		tt.Timeout("comment", formfill.DefaultFieldTimeout, formfill.RetrySnapshot{}),
		tt.NullSuccess("comment"),
		tt.End("feedback", false, false),
	)

	stats := result.Context.Stats()
	assert.Equal(t, 1, stats.FieldsNull)
	assert.Equal(t, map[formfill.FailureKind]int{
		formfill.FailureValidation: 1,
	}, stats.RetriesByKind)
}

func TestModelReceivesQuestionAndMessage(t *testing.T) {
	model := tt.NewMockModel().
		AddReply("Maya Chen").
		AddReply("9")
	form, constraints, err := NewFixture(model).Build()
	require.NoError(t, err)

	source := tt.NewSource().
		AddText("m1", "I'm Maya Chen!").
		AddText("m2", "A nine.").
		AddText("m3", "Bye.")

	filler, err := formfill.NewFiller(formfill.Config[Feedback]{
		Form:      form,
		Source:    source,
		Validator: constraints,
	})
	require.NoError(t, err)

	result := filler.Fill(context.Background(), "user-1")
	require.NoError(t, result.Err)

	// One call per message: the verdict is shared between Matches and
	// Extract, and the comment field never consults the model.
	require.Equal(t, 2, model.Calls())
	assert.Contains(t, model.Prompts[0], askAttendee)
	assert.Contains(t, model.Prompts[0], "I'm Maya Chen!")
	assert.Contains(t, model.Prompts[1], askRating)
	assert.Contains(t, model.Prompts[1], "A nine.")
}

func TestDemoCases(t *testing.T) {
	for _, tc := range GetSurveyTestCases() {
		t.Run(tc.Name, func(t *testing.T) {
			err := tc.Run(
				context.Background(), io.Discard, testutil.QuietTestConfig(),
			)
			assert.NoError(t, err)
		})
	}
}

// TestLiveModelScenario runs the survey against a real model.
func TestLiveModelScenario(t *testing.T) {
	if os.Getenv("FORMFILL_TEST_XAI_KEY") == "" {
		t.Skip(
			"FORMFILL_TEST_XAI_KEY not set, " +
				"skipping integration test",
		)
	}

	result, err := RunLiveModelScenario(
		context.Background(), os.Stdout, testutil.DefaultTestConfig(),
	)
	require.NoError(t, err)
	require.NoError(t, result.Err)
	require.NotNil(t, result.Form)

	assert.True(t, strings.Contains(result.Form.Attendee, "Maya"),
		"attendee %q should contain the name", result.Form.Attendee)
	assert.GreaterOrEqual(t, result.Form.Rating, int64(1))
	assert.LessOrEqual(t, result.Form.Rating, int64(10))
	require.NotNil(t, result.Form.Comment)
}
