package main

import (
	"errors"
	"fmt"
	"io"

	udiff "github.com/aymanbagabas/go-udiff"
	"github.com/spf13/cobra"

	"github.com/dshills/modalkit/internal/app"
	"github.com/dshills/modalkit/internal/input"
	"github.com/dshills/modalkit/internal/input/register"
)

var (
	runKeys  []string
	runQuiet bool
	runStdin bool
	runDiff  bool
)

var runCmd = &cobra.Command{
	Use:   "run [FILE]",
	Short: "Replay keys against a file and print the result",
	Long: `Replay key sequences against a file without a terminal and print the
resulting buffer on stdout. Messages go to stderr.

Keys use Vim notation. Each --keys value is fed in order; a pending
ambiguous mapping is resolved as if the timeout expired after the last one.

Examples:
  # Delete the first word of every line
  modalkit run --keys 'qadwjq' --keys '100@a' notes.txt

  # Edit and save
  modalkit run --keys 'ggdd' --keys ':w<CR>' notes.txt

  # Read the buffer from stdin
  printf 'one two' | modalkit run --stdin --keys 'dw'

  # Show what a macro would change
  modalkit run --diff --keys 'qa>>jq' --keys '10@a' main.go`,
	Args: cobra.MaximumNArgs(1),
	RunE: runKeysCommand,
}

func init() {
	runCmd.Flags().StringArrayVarP(&runKeys, "keys", "k", nil, "keys to feed, in Vim notation (repeatable)")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "do not print the buffer")
	runCmd.Flags().BoolVar(&runStdin, "stdin", false, "read the buffer from stdin")
	runCmd.Flags().BoolVarP(&runDiff, "diff", "d", false, "print a unified diff instead of the buffer")
	rootCmd.AddCommand(runCmd)
}

func runKeysCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sched := input.NewManualScheduler()
	opts := app.Options{
		ConfigPath: configPath(),
		Config:     cfg,
		Scheduler:  sched,
		Clipboard:  &register.MemoryClipboard{},
	}
	if len(args) == 1 {
		opts.Path = args[0]
	}
	if runStdin {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		content := string(data)
		opts.Content = &content
	}

	s, err := app.New(opts)
	if err != nil {
		return err
	}
	defer s.Close()
	before := s.Document().Buffer.String()

	var errs []error
	for _, k := range runKeys {
		if err := s.Feed(k); err != nil {
			errs = append(errs, err)
		}
		if s.QuitRequested() {
			break
		}
	}
	sched.Fire()

	if msgs, ok := s.Notifier().(*app.MessageLog); ok {
		for _, m := range msgs.Messages() {
			fmt.Fprintln(cmd.ErrOrStderr(), m.Text)
		}
	}
	after := s.Document().Buffer.String()
	switch {
	case runQuiet:
	case runDiff:
		name := s.Document().Name
		if _, err := io.WriteString(cmd.OutOrStdout(), udiff.Unified(name, name, before, after)); err != nil {
			return err
		}
	default:
		if _, err := io.WriteString(cmd.OutOrStdout(), after); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}
