// Package testutil provides shared test infrastructure for integration
// test scenarios.
package testutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/fieldworks/formfill"
	"github.com/fieldworks/formfill/dispatch"
	"github.com/fieldworks/formfill/integrationtest/loggers"
	"github.com/fieldworks/formfill/internal/tt"
)

// TestConfig controls scenario output and logging.
type TestConfig struct {
	// Verbose attaches the YAML event logger to the scenario writer.
	Verbose bool

	// LogWriter, when set, receives a second copy of the event log.
	LogWriter io.Writer
}

// DefaultTestConfig returns the configuration used by the test suites:
// the full event log goes to the scenario writer.
func DefaultTestConfig() TestConfig {
	return TestConfig{Verbose: true}
}

// QuietTestConfig returns a configuration that logs nothing beyond the
// scenario sections.
func QuietTestConfig() TestConfig {
	return TestConfig{}
}

// TestCase pairs a named scenario with its runner, for the demo CLI.
type TestCase struct {
	Name        string
	Description string
	Run         func(
		ctx context.Context,
		w io.Writer,
		config TestConfig,
	) error
}

// CreateModel creates an xAI model for live cracker tests.
func CreateModel() (llms.Model, error) {
	apiKey := os.Getenv("FORMFILL_TEST_XAI_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf(
			"FORMFILL_TEST_XAI_KEY environment variable not set",
		)
	}

	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithBaseURL("https://api.x.ai/v1"),
		openai.WithModel("grok-4-1-fast"),
	)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to create xAI LLM: %w", err,
		)
	}

	return llm, nil
}

// PrintHeader prints a header line.
func PrintHeader(w io.Writer, title string) {
	line := strings.Repeat("=", 80)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, line)
}

// PrintSection prints a section header.
func PrintSection(w io.Writer, title string) {
	fmt.Fprintf(w, "--- %s ---\n", title)
}

// -------------------------------------------------------------------------
// ScenarioConfig + RunScenario
// -------------------------------------------------------------------------

// ScenarioConfig defines parameters for a form-filling scenario.
type ScenarioConfig[T any] struct {
	Name        string
	HeaderTitle string

	// UserID is the user the fill runs for. Empty means "user-1".
	UserID string

	// Form is the descriptor table to fill. Required.
	Form *formfill.Form[T]

	// Script holds the user's replies, queued through a dispatch hub
	// before the fill starts. Fields the script never answers run into
	// their read timeout, so scripted forms should use short ones.
	Script []string

	// Source overrides the scripted hub, for scenarios that need
	// interleaved timeouts or read errors.
	Source formfill.MessageSource

	// Optional Filler configuration, passed through as-is.
	Validator     formfill.Validator[T]
	NewForm       func() *T
	CancelTrigger formfill.CancelTrigger
	MaxUnrelated  int

	// Subscribers are extra event subscribers, registered after the
	// loggers.
	Subscribers []any
}

// RunScenario runs one form-filling dialogue and prints its sections to
// w. It returns the fill result; a dialogue abort lands in the result's
// Err, not in the returned error, so scenarios can assert on expected
// aborts.
func RunScenario[T any](
	ctx context.Context,
	w io.Writer,
	testCfg TestConfig,
	scenario ScenarioConfig[T],
) (*formfill.FillResult[T], error) {
	userID := scenario.UserID
	if userID == "" {
		userID = "user-1"
	}

	source := scenario.Source
	if source == nil {
		hub := dispatch.NewHub()
		defer hub.Close()
		if _, err := hub.Open(userID); err != nil {
			return nil, fmt.Errorf("open conversation: %w", err)
		}
		for _, text := range scenario.Script {
			hub.DeliverText(userID, text)
		}
		source = hub
	}

	registry := formfill.NewRegistry()
	if testCfg.Verbose {
		registry.Subscribe(loggers.NewSubscriberWithWriter(w))
	}
	if testCfg.LogWriter != nil {
		registry.Subscribe(loggers.NewSubscriberWithWriter(testCfg.LogWriter))
	}
	for _, subscriber := range scenario.Subscribers {
		registry.Subscribe(subscriber)
	}

	filler, err := formfill.NewFiller(formfill.Config[T]{
		Form:          scenario.Form,
		Source:        source,
		Registry:      registry,
		Validator:     scenario.Validator,
		NewForm:       scenario.NewForm,
		CancelTrigger: scenario.CancelTrigger,
		MaxUnrelated:  scenario.MaxUnrelated,
	})
	if err != nil {
		return nil, err
	}

	PrintHeader(w, scenario.HeaderTitle)
	fmt.Fprintln(w)

	if len(scenario.Script) > 0 {
		PrintSection(w, "Scripted Replies")
		for _, text := range scenario.Script {
			fmt.Fprintf(w, "> %s\n", text)
		}
		fmt.Fprintln(w)
	}

	PrintSection(w, "Dialogue")

	result := filler.Fill(ctx, userID)

	fmt.Fprintln(w)
	PrintHeader(w, "FILL COMPLETE")
	fmt.Fprintln(w)

	if result.Err != nil {
		fmt.Fprintf(w, "Error: %v\n", result.Err)
	} else {
		PrintSection(w, "Form")
		fmt.Fprintf(w, "%+v\n", *result.Form)
	}

	fmt.Fprintln(w)
	PrintSection(w, "Fill Stats")
	stats := result.Context.Stats()
	fmt.Fprintf(w, "Total reads: %d\n", stats.Reads)
	fmt.Fprintf(w, "Unrelated messages: %d\n", stats.Unrelated)
	fmt.Fprintf(w, "Fields filled: %d\n", stats.FieldsFilled)
	fmt.Fprintf(w, "Fields null: %d\n", stats.FieldsNull)
	fmt.Fprintf(w, "Duration: %v\n", result.Context.Duration())

	fmt.Fprintln(w)
	PrintSection(w, "Event Journal")
	for _, line := range tt.Transcript(result.Context.Events()) {
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w)
	PrintHeader(w, "SCENARIO COMPLETE")

	return result, nil
}
