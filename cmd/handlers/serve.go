package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hookscope/internal/config"
	"hookscope/internal/logger"
	"hookscope/internal/server"
)

const shutdownTimeout = 15 * time.Second

// NewServeCmd creates the serve command for starting the HTTP server
func NewServeCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the hookscope HTTP API.

The server provides:
  • POST /analyze for media hook evaluation
  • Context window and category ranking endpoints
  • Passthrough endpoints for companies, releases and statistics
  • Health, history and debug endpoints

Examples:
  # Start server on the configured port (default 8000)
  hookscope serve

  # Start on a custom port
  hookscope serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port, host)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (default from config: 8000)")
	cmd.Flags().StringVar(&host, "host", "", "HTTP server host (default from config: 0.0.0.0)")

	return cmd
}

func runServe(ctx context.Context, port int, host string) error {
	log := logger.Get()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	serverCfg := cfg.Server
	if port != 0 {
		serverCfg.Port = port
	}
	if host != "" {
		serverCfg.Host = host
	}

	a, err := buildApp(ctx, cfg, wireOptions{withStore: true})
	if err != nil {
		return err
	}
	defer a.Close()

	deps := server.Deps{
		Upstream:  a.upstream,
		Companies: a.companies,
		Context:   a.context,
		Analyzer:  a.service,
		Settings:  cfg.Redacted(),
		BaseURL:   a.upstream.BaseURL(),
	}
	// Assigned only when set so the interfaces stay nil otherwise.
	if a.store != nil {
		deps.History = a.store
	}
	if a.generation != nil {
		deps.Generation = a.generation
	}

	srv := server.New(deps, serverCfg)

	serverErrors := make(chan error, 1)
	go func() {
		log.Info(fmt.Sprintf("Server listening on http://%s:%d", serverCfg.Host, serverCfg.Port))
		log.Info("Press Ctrl+C to stop")
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case sig := <-shutdown:
		log.Info("Server shutdown initiated", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown failed, forcing close", "error", err)
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		log.Info("Server stopped successfully")
	}

	return nil
}
