package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/eachof/internal/ui"
	"github.com/spf13/cobra"
)

// UIOptions holds options for the ui command.
type UIOptions struct {
	Port int
	Host string
}

// NewUICommand creates the ui command.
func NewUICommand() *cobra.Command {
	opts := &UIOptions{}

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Browse run history in the browser",
		Long: `Start a local web server showing the recorded runs.

The run list updates live while run or watch record new runs in another
terminal. Each run links to the result of every entry it visited.`,
		Example: `  # Start UI on the default port
  eachof ui

  # Start on a custom port
  eachof ui --port 3000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUI(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: ui.port, 8765)")
	cmd.Flags().StringVar(&opts.Host, "host", "localhost", "Interface to bind")

	return cmd
}

func runUI(cmd *cobra.Command, opts *UIOptions) error {
	cmdCtx, err := NewCommandContextWithoutProject(cmd)
	if err != nil {
		return err
	}
	store, err := cmdCtx.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	uiCfg := cmdCtx.Cfg.UI
	port := uiCfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}

	secret := uiCfg.SessionSecret
	if secret == "" {
		// Sessions only hold the collection filter.
		secret = uuid.NewString()
	}

	server := ui.NewServer(ui.Config{
		Store:         store,
		Addr:          fmt.Sprintf("%s:%d", opts.Host, port),
		PollInterval:  time.Duration(uiCfg.PollMS) * time.Millisecond,
		SessionSecret: secret,
		Logger:        cmdCtx.Logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ready := make(chan string, 1)
	go func() {
		select {
		case addr := <-ready:
			cmdCtx.Renderer.Success(fmt.Sprintf("serving run history on http://%s/runs", addr))
			cmdCtx.Renderer.Println("Press Ctrl+C to stop")
		case <-ctx.Done():
		}
	}()

	return server.Serve(ctx, ready)
}

