package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fieldworks/formfill"
	"github.com/fieldworks/formfill/dispatch"
	"github.com/fieldworks/formfill/formdef"
	"github.com/fieldworks/formfill/integrationtest/loggers"
	"github.com/fieldworks/formfill/trigger"
)

func newRunCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <definition.yaml>",
		Short: "Fill a YAML-defined form in an interactive chat",
		Long: "run loads a form definition, asks its questions one by " +
			"one, and reads your typed answers as the chat replies. " +
			"The completed form is printed at the end.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForm(cmd.Context(), v, args[0])
		},
	}
	cmd.Flags().Duration("timeout", 0,
		"override every field's answer timeout (0 keeps definition values)")
	cmd.Flags().StringSlice("cancel-word", nil,
		"answers that cancel the dialogue")
	return cmd
}

func runForm(ctx context.Context, v *viper.Viper, path string) error {
	def, err := formdef.Load(path)
	if err != nil {
		return err
	}
	if d := v.GetDuration("timeout"); d > 0 {
		for i := range def.Fields {
			def.Fields[i].Timeout = formdef.Duration(d)
		}
	}

	form, constraints, err := def.Build()
	if err != nil {
		return err
	}

	logFile, err := openLogFile(v)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	registry := formfill.NewRegistry()
	registry.Subscribe(newChatPrinter(os.Stdout))
	if v.GetBool("verbose") {
		registry.Subscribe(loggers.NewSubscriber())
	}
	if logFile != nil {
		registry.Subscribe(loggers.NewSubscriberWithWriter(logFile))
	}

	userID := v.GetString("user")
	hub := dispatch.NewHub()
	defer hub.Close()
	if _, err := hub.Open(userID); err != nil {
		return err
	}

	config := formfill.Config[formdef.Values]{
		Form:      form,
		Source:    hub,
		Registry:  registry,
		Validator: constraints,
	}
	if words := v.GetStringSlice("cancel_words"); len(words) > 0 {
		config.CancelTrigger = trigger.Keywords(words...)
	}
	filler, err := formfill.NewFiller(config)
	if err != nil {
		return err
	}

	fmt.Printf("%s%sFilling %q as %s.%s\n",
		colorBold, colorWhite, def.Form, userID, colorReset)
	fmt.Printf("%sAnswer each question and press Enter. "+
		"Ctrl-C abandons the dialogue.%s\n\n",
		colorDim, colorReset)

	rl, err := readline.New(colorCyan + colorBold + "You: " + colorReset)
	if err != nil {
		return fmt.Errorf("create readline: %w", err)
	}
	defer rl.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The fill blocks on the hub between questions, so it runs in its
	// own goroutine while this one feeds typed lines in. Closing the
	// readline instance unblocks the pending Readline once the fill
	// returns.
	fills := make(chan *formfill.FillResult[formdef.Values], 1)
	go func() {
		fills <- filler.Fill(ctx, userID)
		rl.Close()
	}()

	for {
		line, err := rl.Readline()
		if err != nil {
			select {
			case result := <-fills:
				return report(os.Stdout, result)
			default:
			}
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Printf("\n%sDialogue abandoned.%s\n",
					colorYellow, colorReset)
				cancel()
				<-fills
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		hub.DeliverText(userID, line)
	}
}

// report prints the outcome of a finished dialogue. Aborts are reported
// but are not command errors.
func report(w io.Writer, result *formfill.FillResult[formdef.Values]) error {
	fmt.Fprintln(w)

	if result.Err != nil {
		var abort *formfill.AbortError
		if errors.As(result.Err, &abort) {
			fmt.Fprintf(w, "%sDialogue aborted at %q (%s).%s\n",
				colorYellow, abort.Field, abort.Reason, colorReset)
			return nil
		}
		return result.Err
	}

	fmt.Fprintf(w, "%s%sForm %q complete.%s\n",
		colorBold, colorGreen, result.Context.Form(), colorReset)

	values := *result.Form
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s%s:%s %v\n",
			colorCyan, name, colorReset, values[name])
	}

	stats := result.Context.Stats()
	fmt.Fprintf(w, "%s%d answers read, %d fields filled, %d null, took %s.%s\n",
		colorDim, stats.Reads, stats.FieldsFilled, stats.FieldsNull,
		result.Context.Duration().Round(time.Millisecond), colorReset)
	return nil
}
