// Package serve starts the HTTP editing service.
package serve

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	api "github.com/meshlock/meshlock-go/internal/api/v2"
	"github.com/meshlock/meshlock-go/internal/conf"
	"github.com/meshlock/meshlock-go/internal/datastore"
	"github.com/meshlock/meshlock-go/internal/guard"
	"github.com/meshlock/meshlock-go/internal/logging"
	"github.com/meshlock/meshlock-go/internal/observability"
	"github.com/meshlock/meshlock-go/internal/reconcile"
	"github.com/meshlock/meshlock-go/internal/session"
	"github.com/meshlock/meshlock-go/internal/unlockmode"
)

const shutdownTimeout = 10 * time.Second

// Command creates the serve subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the mesh editing API server",
		Long:  "Start the HTTP API server hosting mesh documents, edit sessions and the vertex-lock workflow.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}
	return cmd
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.WebServer.Port, "port", viper.GetString("webserver.port"), "Port to listen on")
	cmd.Flags().BoolVar(&settings.WebServer.Debug, "webdebug", viper.GetBool("webserver.debug"), "Enable API debug logging")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}

// serviceLoggers returns a per-service logger factory. With file logging
// enabled every service shares one rotated log file and is told apart by
// a component attribute; otherwise services log through the global
// structured logger.
func serviceLoggers(settings *conf.Settings) (func(name string) *slog.Logger, func() error) {
	if settings.Main.Log.Enabled {
		fileLogger, closeFn, err := logging.NewFileLogger(settings.Main.Log.Path, "server", slog.LevelInfo)
		if err == nil {
			return func(name string) *slog.Logger {
				return fileLogger.With("component", name)
			}, closeFn
		}
		logging.Warn("file logging disabled", "path", settings.Main.Log.Path, "error", err)
	}
	return logging.ForService, func() error { return nil }
}

func runServer(settings *conf.Settings) error {
	svcLogger, closeLog := serviceLoggers(settings)
	defer func() { _ = closeLog() }()
	logger := svcLogger("server")

	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no datastore backend enabled, check output settings")
	}
	if err := store.Open(); err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close datastore", "error", err)
		}
	}()

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	rc := reconcile.New(metrics, svcLogger("reconcile"))
	wf := unlockmode.New(rc, svcLogger("unlockmode"))
	g := guard.New(rc, metrics, svcLogger("guard"))
	sessions := session.NewManager(store, rc, wf, metrics, svcLogger("session"), 0)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	if settings.WebServer.Debug {
		e.Use(middleware.Logger())
	}

	api.New(e, store, settings, sessions, g, wf, metrics)

	errChan := make(chan error, 1)
	go func() {
		addr := ":" + settings.WebServer.Port
		logger.Info("starting server", "addr", addr, "node", settings.Main.Name)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
