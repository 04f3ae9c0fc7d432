package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/npratt/phasegraph/internal/api"
	"github.com/npratt/phasegraph/internal/config"
	"github.com/npratt/phasegraph/internal/daemon"
	"github.com/npratt/phasegraph/internal/shutdown"
	"github.com/npratt/phasegraph/internal/store"
)

func (a *app) newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph store to other phasegraph processes",
		Long: `Open the configured store and serve it over a Unix socket so several
terminals can edit the same graph. With --http-addr the nodes are also
exposed as a REST API alongside Prometheus metrics.

Use --detach to run in the background.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			detach, _ := cmd.Flags().GetBool(FlagDetach)
			return a.runServe(cmd.Context(), detach)
		},
	}

	serveCmd.Flags().String(FlagHTTPAddr, "", "Also serve the REST API on this address (e.g. :8080)")
	serveCmd.Flags().Bool(FlagDetach, false, "Run in the background")
	bindFlags(a.v, serveCmd.Flags())
	return serveCmd
}

func (a *app) runServe(ctx context.Context, detach bool) error {
	cfg, projectRoot, err := a.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.Driver == store.DriverRemote {
		return fmt.Errorf("serve needs a local store driver, got %q", cfg.Store.Driver)
	}

	client := daemon.NewClient(cfg.Paths.Socket)
	if client.IsRunning() {
		return fmt.Errorf("store server already running (socket: %s)", cfg.Paths.Socket)
	}

	if detach {
		shouldExit, _, err := daemon.Detach(cfg.Paths.Socket)
		if err != nil {
			return fmt.Errorf("detach: %w", err)
		}
		if shouldExit {
			return nil
		}
	}

	logger := a.logger
	if daemon.IsDetached() {
		logResult := SetupFileLogger(cfg.Paths.Log, a.logLevel, cfg.LogRotation)
		defer func() { _ = logResult.Close() }()
		logger = logResult.Logger
	}

	pidFile := daemon.NewPIDFile(cfg.Paths.PID)
	if err := pidFile.Acquire(cfg.Paths.Socket); err != nil {
		return err
	}
	defer func() { _ = pidFile.Remove() }()

	backend, err := store.Open(ctx, store.Options{
		Driver: cfg.Store.Driver,
		Path:   cfg.Store.Path,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("close store", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	instrumented := store.Instrument(backend, store.NewMetrics(registry))

	srv := daemon.New(cfg.Paths.Socket, cfg.Store.Driver, instrumented, logger)
	components := []shutdown.Component{{Name: "store", Run: srv.Start}}
	if cfg.Server.HTTPAddr != "" {
		components = append(components, httpComponent(cfg, instrumented, registry, logger))
	}

	infoPath := daemon.InfoPath(projectRoot)
	info := &daemon.Info{
		SocketPath: cfg.Paths.Socket,
		PIDPath:    cfg.Paths.PID,
		Driver:     cfg.Store.Driver,
		HTTPAddr:   cfg.Server.HTTPAddr,
		StartTime:  time.Now(),
		PID:        os.Getpid(),
	}
	if err := daemon.WriteInfo(infoPath, info); err != nil {
		logger.Warn("failed to write server info", "error", err)
	}
	defer func() { _ = daemon.RemoveInfo(infoPath) }()

	logger.Info("phasegraph serve starting",
		"version", version,
		"driver", cfg.Store.Driver,
		"store_path", cfg.Store.Path,
		"socket", cfg.Paths.Socket,
		"http_addr", cfg.Server.HTTPAddr,
		"detached", daemon.IsDetached(),
	)

	return shutdown.Run(ctx, logger, cfg.Server.ShutdownTimeout, components...)
}

// httpComponent serves the REST API and metrics until shutdown.
func httpComponent(cfg *config.Config, s store.Store, registry *prometheus.Registry, logger *slog.Logger) shutdown.Component {
	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(s, cfg.Store.Driver, logger)
	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           api.NewRouter(handler, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return shutdown.Component{
		Name: "http",
		Run: func(context.Context) error {
			logger.Info("http server listening", "addr", httpSrv.Addr)
			if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		Stop: httpSrv.Shutdown,
	}
}

func (a *app) newStatusCmd() *cobra.Command {
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show store server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool(FlagJSON)

			client, err := a.serverClient()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, status)
			}

			_, _ = fmt.Fprintf(out, "Status: %s\n", status.Status)
			_, _ = fmt.Fprintf(out, "Driver: %s\n", status.Driver)
			_, _ = fmt.Fprintf(out, "Nodes: %d\n", status.Nodes)
			_, _ = fmt.Fprintf(out, "Requests: %d\n", status.Requests)
			_, _ = fmt.Fprintf(out, "Uptime: %s\n", status.Uptime)
			_, _ = fmt.Fprintf(out, "Started: %s\n", status.StartTime)
			return nil
		},
	}
	statusCmd.Flags().Bool(FlagJSON, false, "Output status as JSON")
	return statusCmd
}

func (a *app) newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the store server",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.serverClient()
			if err != nil {
				return err
			}
			if err := client.Stop(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Stop requested - store server shutting down")
			return nil
		},
	}
}

// serverClient returns a client for the project's store server, or an error
// when none is answering.
func (a *app) serverClient() (*daemon.Client, error) {
	cfg, projectRoot, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	socket := daemon.DiscoverSocket(projectRoot, cfg.Paths.Socket)
	client := a.remoteStore(socket, cfg)
	if !client.IsRunning() {
		return nil, fmt.Errorf("store server not running (socket: %s)", socket)
	}
	return client, nil
}
