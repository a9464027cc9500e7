package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/modalkit/internal/app"
	"github.com/dshills/modalkit/internal/input/key"
)

var editNoWatch bool

var editCmd = &cobra.Command{
	Use:   "edit [FILE]",
	Short: "Edit a file in the terminal",
	Long: `Open a file in a minimal full-screen editor driven by the engine.
Quit with :q, :q!, :wq or :x.

Log output goes to logging.file of the config, or nowhere.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().BoolVar(&editNoWatch, "no-watch", false, "do not reload the config file when it changes")
	rootCmd.AddCommand(editCmd)
}

// quitEvent asks the event loop to stop.
type quitEvent struct{}

func runEdit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Log lines would corrupt the screen.
	log := app.NewLogger(app.LoggerConfig{Output: io.Discard, Prefix: "modalkit"})
	opts := app.Options{
		ConfigPath: configPath(),
		Config:     cfg,
		Watch:      !editNoWatch,
		Logger:     log,
	}
	if len(args) == 1 {
		opts.Path = args[0]
	}
	s, err := app.New(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	defer screen.Fini()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		if _, ok := <-signals; ok {
			_ = screen.PostEvent(tcell.NewEventInterrupt(quitEvent{}))
		}
	}()

	// Mapping timeouts fire on their own goroutine; redraw periodically
	// so their effect shows.
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-ticker.C:
				_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
			case <-done:
				return
			}
		}
	}()

	v := newView(screen, s)
	v.draw()
	for !s.QuitRequested() {
		switch ev := screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventInterrupt:
			if _, ok := ev.Data().(quitEvent); ok {
				return nil
			}
		case *tcell.EventKey:
			if k, ok := key.FromTcell(ev); ok {
				v.keyPressed()
				// Failures are shown on the message line.
				_ = s.Engine().Handle(k)
			}
		}
		v.draw()
	}
	return nil
}
