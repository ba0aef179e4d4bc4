package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/Sternrassler/request-responses/internal/tui"
	"github.com/Sternrassler/request-responses/pkg/client"
	"github.com/Sternrassler/request-responses/pkg/logging"
	"github.com/Sternrassler/request-responses/pkg/pager"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	userAgent    = "responses-view/0.1.0"
	defaultWidth = 80
)

type options struct {
	url        string
	requestID  string
	windowSize int
	logLevel   string
	logFile    string
	retries    int
	plain      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:          "responses-view",
		Short:        "Page through a request's responses",
		Long:         "responses-view fetches a request's responses and shows them ten at a time.",
		SilenceUsage: true,
		Example: `  responses-view --url http://localhost:8080
  responses-view --url http://localhost:8080 --request-id FOIL-2016-001 --retries 3
  responses-view --url http://localhost:8080 --plain`,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return opts.validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.url, "url", "http://localhost:8080", "responses server base URL")
	flags.StringVar(&opts.requestID, "request-id", "", "request whose responses are shown (server default when empty)")
	flags.IntVar(&opts.windowSize, "window-size", pager.DefaultWindowSize, "responses per window")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFile, "log-file", "", "write logs to this file (discarded when empty)")
	flags.IntVar(&opts.retries, "retries", 0, "retries for server and network errors")
	flags.BoolVar(&opts.plain, "plain", false, "print the first window and exit")

	return cmd
}

func (o options) validate() error {
	if o.windowSize < 1 {
		return fmt.Errorf("window-size must be >= 1, got %d", o.windowSize)
	}
	if o.retries < 0 {
		return fmt.Errorf("retries must be >= 0, got %d", o.retries)
	}
	if _, err := logging.ParseLevel(o.logLevel); err != nil {
		return err
	}
	return nil
}

func run(cmd *cobra.Command, opts options) error {
	logOut, closeLog, err := openLogOutput(opts.logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	level, _ := logging.ParseLevel(opts.logLevel)
	logging.Setup(logging.Config{Level: level, Output: logOut})

	cfg := client.DefaultConfig(opts.url, userAgent)
	cfg.RequestID = opts.requestID
	cfg.Retry.MaxRetries = opts.retries

	c, err := client.New(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	pagerOpts := []pager.Option{
		pager.WithWindowSize(opts.windowSize),
		pager.WithLogger(logging.NewLogger("responses-view")),
	}

	if opts.plain {
		return printFirstWindow(cmd.Context(), cmd.OutOrStdout(), c, pagerOpts)
	}

	p := tea.NewProgram(tui.NewModel(cmd.Context(), c, opts.requestID, pagerOpts...), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run interactive TUI: %w", err)
	}
	return nil
}

// printFirstWindow renders the first window without the interactive program.
func printFirstWindow(ctx context.Context, out io.Writer, fetcher pager.Fetcher, opts []pager.Option) error {
	table := tui.NewTable()
	view := pager.New(fetcher, table, opts...)
	if err := view.Initialize(ctx); err != nil {
		return err
	}
	_, err := fmt.Fprint(out, table.Render(outputWidth(out)))
	return err
}

// outputWidth returns the terminal width when out is a terminal.
func outputWidth(out io.Writer) int {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}

func openLogOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return io.Discard, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
