package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sanctions/internal/config"
	"github.com/JonMunkholm/sanctions/internal/core"
	"github.com/JonMunkholm/sanctions/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	cfg := a.cfg
	var entities, addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve name screening over HTTP",
		Long: `Load an entity file once and serve screening over HTTP:

  GET  /               search form
  GET  /healthz        {"status":"ok","entities":N}
  GET  /api/screen     ?name=...
  POST /api/screen     {"names":[...]}`,
		Args:        cobra.NoArgs,
		Annotations: uses(config.SectionServer, config.SectionScreen),
		RunE: func(cmd *cobra.Command, args []string) error {
			serverCfg := cfg.Server
			host, portText, err := net.SplitHostPort(addr)
			if err != nil {
				return fmt.Errorf("invalid --addr %q: %w", addr, err)
			}
			port, err := strconv.Atoi(portText)
			if err != nil {
				return fmt.Errorf("invalid --addr %q: %w", addr, err)
			}
			serverCfg.Host, serverCfg.Port = host, port

			index, err := core.LoadIndex(entities)
			if err != nil {
				return err
			}
			a.logger.Info("entities loaded", "path", entities, "count", index.Len())

			return runServer(cmd.Context(), web.NewServer(index, serverCfg, a.logger), serverCfg, a.logger)
		},
	}

	cmd.Flags().StringVarP(&entities, "entities", "e", cfg.Screen.Entities, "entity JSONL file")
	cmd.Flags().StringVar(&addr, "addr", cfg.Server.Addr(), "listen address host:port")
	return cmd
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, server *web.Server, cfg config.ServerConfig, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
