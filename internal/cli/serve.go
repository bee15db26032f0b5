package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/variantforge/internal/bridge"
	"github.com/roach88/variantforge/internal/catalog"
	"github.com/roach88/variantforge/internal/document"
	"github.com/roach88/variantforge/internal/engine"
	"github.com/roach88/variantforge/internal/logger"
	"github.com/roach88/variantforge/internal/textgen"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr  string
	Watch bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve <document>",
		Short: "Serve a document to the generation panel over websocket",
		Long: `Load a document and accept panel sessions on ws://<addr>/ws.

Panels request the component list (get-component-set), generation
(gen-dummy) and navigation (navigate). Generation requests are queued and
served one at a time; completion (gen-dummy-done) and failure notices
(notify) are broadcast to every session.

With --watch the document is reloaded whenever the file changes.

Examples:
  variantforge serve library.yaml
  variantforge serve library.yaml --addr 127.0.0.1:9000 --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default server.addr)")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "reload the document when the file changes")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions, path string) error {
	e, err := opts.load(cmd)
	if err != nil {
		return err
	}
	log := e.log

	host, err := document.LoadMemory(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load document", err)
	}

	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	addr := e.cfg.Server.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := bridge.NewHub(log)
	orch := engine.NewOrchestrator(host, st,
		engine.WithGrid(e.cfg.Layout.Grid()),
		engine.WithSampler(textgen.NewGenerator(e.cfg.Generation.Seed)),
		engine.WithNotifier(hub),
		engine.WithRunRecorder(st),
		engine.WithMaxCombinations(e.cfg.Generation.MaxCombinations),
		engine.WithLogger(log),
	)
	runner := engine.NewRunner(orch, log)
	handler := bridge.NewHandler(host, catalog.New(catalog.WithLogger(log)), runner, log)

	mux := http.NewServeMux()
	mux.Handle("/ws", bridge.NewServer(ctx, hub, handler, e.cfg.Server.AllowedOrigins, log))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	if opts.Watch {
		dw, err := newDocumentWatcher(path, host, log)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to watch document", err)
		}
		defer dw.Close()
		go dw.Run(ctx)
	}

	runnerDone := make(chan error, 1)
	go func() { runnerDone <- runner.Run(ctx) }()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()

	log.Info("serving", zap.String(logger.FieldAddress, addr), zap.String(logger.FieldSurface, host.Surface()))
	pterm.Info.Printf("Serving %q on ws://%s/ws\n", host.Surface(), addr)

	select {
	case err := <-serveErr:
		stop()
		<-runnerDone
		if !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitCommandError, "server failed", err)
		}
		return nil
	case <-ctx.Done():
	}

	pterm.Info.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	// A request already in flight finishes before the runner returns.
	<-runnerDone
	pterm.Success.Println("Server stopped cleanly")
	return nil
}
