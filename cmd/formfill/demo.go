package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fieldworks/formfill/integrationtest/registration"
	"github.com/fieldworks/formfill/integrationtest/survey"
	"github.com/fieldworks/formfill/integrationtest/testutil"
)

// demoCases collects every scripted scenario. All of them run offline
// against scripted replies, no API key needed.
func demoCases() []testutil.TestCase {
	var cases []testutil.TestCase
	cases = append(cases, registration.GetRegistrationTestCases()...)
	cases = append(cases, survey.GetSurveyTestCases()...)
	return cases
}

func newDemoCommand(v *viper.Viper) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "demo [case]",
		Short: "Replay the scripted demo scenarios",
		Long: "demo replays the library's scripted dialogue scenarios " +
			"with the full event log. Pass a case number or name to " +
			"run one directly; without arguments it opens a selection " +
			"menu.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cases := demoCases()
			if list {
				printCases(cmd.OutOrStdout(), cases)
				return nil
			}

			logFile, err := openLogFile(v)
			if err != nil {
				return err
			}
			if logFile != nil {
				defer logFile.Close()
			}
			config := testutil.DefaultTestConfig()
			config.LogWriter = logFile

			if len(args) == 1 {
				tc, err := findCase(cases, args[0])
				if err != nil {
					return err
				}
				return runCase(cmd.Context(), tc, config)
			}
			return demoMenu(cmd.Context(), cases, config)
		},
	}

	cmd.Flags().BoolVar(&list, "list", false,
		"list the demo cases and exit")
	return cmd
}

func printCases(w io.Writer, cases []testutil.TestCase) {
	for i, tc := range cases {
		fmt.Fprintf(w, "%2d. %s - %s\n", i+1, tc.Name, tc.Description)
	}
}

// findCase resolves a 1-based case number or a case name.
func findCase(cases []testutil.TestCase, key string) (testutil.TestCase, error) {
	if n, err := strconv.Atoi(key); err == nil {
		if n < 1 || n > len(cases) {
			return testutil.TestCase{}, fmt.Errorf(
				"case number %d out of range 1-%d", n, len(cases))
		}
		return cases[n-1], nil
	}
	for _, tc := range cases {
		if strings.EqualFold(tc.Name, key) {
			return tc, nil
		}
	}
	return testutil.TestCase{}, fmt.Errorf("unknown demo case %q", key)
}

func demoMenu(ctx context.Context, cases []testutil.TestCase, config testutil.TestConfig) error {
	fmt.Printf("%s%sDemo Scenarios:%s\n",
		colorBold, colorYellow, colorReset)
	fmt.Printf("%s%s%s\n",
		colorYellow, strings.Repeat("=", 15), colorReset)
	for i, tc := range cases {
		fmt.Printf("  %s%d.%s %s%s%s - %s\n",
			colorCyan, i+1, colorReset,
			colorWhite, tc.Name, colorReset,
			tc.Description)
	}
	fmt.Println()

	rl, err := readline.New(
		colorCyan + "Enter selection (or 'q' to quit): " + colorReset)
	if err != nil {
		return fmt.Errorf("create readline: %w", err)
	}
	defer rl.Close()

	for {
		input, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "q") {
			return nil
		}

		tc, err := findCase(cases, input)
		if err != nil {
			fmt.Printf("%s%v%s\n", colorRed, err, colorReset)
			continue
		}
		if err := runCase(ctx, tc, config); err != nil {
			fmt.Fprintf(os.Stderr, "%sError: %v%s\n",
				colorRed, err, colorReset)
		}
		fmt.Printf("\n%s%s%s\n\n",
			colorDim, strings.Repeat("-", 60), colorReset)
	}
}

// runCase runs one scenario with its own interrupt scope, so Ctrl-C
// stops the scenario without killing the menu.
func runCase(ctx context.Context, tc testutil.TestCase, config testutil.TestConfig) error {
	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\n%sRunning: %s%s\n", colorGreen, tc.Name, colorReset)
	return tc.Run(runCtx, os.Stdout, config)
}
