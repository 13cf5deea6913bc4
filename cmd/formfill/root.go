package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultUserID = "operator"

// newRootCommand builds the formfill command tree. Settings resolve in
// the usual precedence: flags, then FORMFILL_* environment variables,
// then a formfill.yaml config file, then defaults.
func newRootCommand() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "formfill",
		Short: "Fill chat forms from the terminal",
		Long: "formfill runs form-filling dialogues in the terminal.\n" +
			"Define a form in YAML and fill it interactively with " +
			"\"run\", or replay the library's scripted scenarios " +
			"with \"demo\".",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadSettings(v, cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.Bool("verbose", false,
		"print the full event log during the dialogue")
	flags.String("log-file", "",
		"append the YAML event log to this file")
	flags.String("user", defaultUserID,
		"user ID the dialogue runs for")

	cmd.AddCommand(newRunCommand(v))
	cmd.AddCommand(newDemoCommand(v))
	cmd.AddCommand(newSampleCommand())
	return cmd
}

// loadSettings binds the flags of the running command into v and reads
// the optional config file. A missing config file is fine; an unreadable
// one is not.
func loadSettings(v *viper.Viper, cmd *cobra.Command) error {
	persistent := cmd.Root().PersistentFlags()
	for key, name := range map[string]string{
		"verbose":  "verbose",
		"log_file": "log-file",
		"user":     "user",
	} {
		if err := v.BindPFlag(key, persistent.Lookup(name)); err != nil {
			return err
		}
	}

	// Subcommand-local flags that mirror config keys.
	for key, name := range map[string]string{
		"timeout":      "timeout",
		"cancel_words": "cancel-word",
	} {
		fl := cmd.Flags().Lookup(name)
		if fl == nil {
			continue
		}
		if err := v.BindPFlag(key, fl); err != nil {
			return err
		}
	}

	v.SetDefault("user", defaultUserID)
	v.SetDefault("cancel_words", []string{"cancel"})

	v.SetEnvPrefix("FORMFILL")
	v.AutomaticEnv()

	v.SetConfigName("formfill")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "formfill"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}
	return nil
}

// openLogFile opens the configured event log sink, or returns nil when
// none is configured.
func openLogFile(v *viper.Viper) (*os.File, error) {
	path := v.GetString("log_file")
	if path == "" {
		return nil, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
