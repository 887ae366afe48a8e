package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sflowg/blotato/runtime"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultPort = "8080"

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the flows and the node API over HTTP",
		Long: `Serve initializes the plugins, registers every flow with an http
entrypoint and exposes the node API under /nodes.

Example:
  blotato serve --config ./flow-config.yaml --port 9000
  BLOTATO_API_KEY=... blotato serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, v, cmd.Flags().Changed("config"))
		},
	}

	cmd.Flags().String("port", defaultPort, "HTTP server port")
	cmd.Flags().Duration("shutdown-timeout", 10*time.Second, "time allowed for in-flight requests on shutdown")
	_ = v.BindPFlag("port", cmd.Flags().Lookup("port"))
	_ = v.BindPFlag("shutdown_timeout", cmd.Flags().Lookup("shutdown-timeout"))
	return cmd
}

func runServe(ctx context.Context, v *viper.Viper, explicitConfig bool) error {
	app, _, err := buildApp(v, explicitConfig)
	if err != nil {
		return err
	}

	if err := app.Container.Initialize(ctx); err != nil {
		return err
	}
	defer func() {
		if err := app.Container.Shutdown(context.Background()); err != nil {
			slog.Error("Plugin shutdown failed", "error", err)
		}
	}()

	g := newEngine(app, slog.Default())
	srv := &http.Server{
		Addr:    ":" + v.GetString("port"),
		Handler: g,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr, "flows", len(app.Flows))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), v.GetDuration("shutdown_timeout"))
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newEngine wires the node API and the http entrypoints of every flow.
func newEngine(app *runtime.App, logger *slog.Logger) *gin.Engine {
	g := gin.New()
	g.Use(gin.Recovery())

	runtime.NewNodeHandler(app.Container, g)

	executor := runtime.NewExecutor(logger, runtime.NewExpressionEvaluator())
	responses := runtime.NewResponseHandlerRegistry()
	for id := range app.Flows {
		flow := app.Flows[id]
		if flow.Entrypoint.Type != "http" {
			logger.Warn("Skipping flow without http entrypoint", "flow", flow.ID, "type", flow.Entrypoint.Type)
			continue
		}
		runtime.NewHttpHandler(&flow, app.Container, executor, responses, app.Config.Properties, g)
	}
	return g
}
