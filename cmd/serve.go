package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/hotspot-cli/internal/config"
	"github.com/sells-group/hotspot-cli/internal/hotspot"
	"github.com/sells-group/hotspot-cli/internal/server"
	"github.com/sells-group/hotspot-cli/internal/timebin"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the live zone map API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			return eris.Wrap(err, "server listen")
		}
		return runServe(ctx, cfg, ln)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// runServe fetches the timeline, loads the current bin and serves the API on
// ln until ctx is canceled. A missing timeline is fatal; a missing first
// frame is not, since the next tick retries it.
func runServe(ctx context.Context, c *config.Config, ln net.Listener) error {
	loc, err := c.Location()
	if err != nil {
		_ = ln.Close()
		return err
	}

	client, err := newFeedClient(c, loc)
	if err != nil {
		_ = ln.Close()
		return err
	}

	tl, err := client.Timeline(ctx)
	if err != nil {
		_ = ln.Close()
		return eris.Wrap(err, "serve: timeline")
	}
	zap.L().Info("timeline loaded",
		zap.Int("bins", tl.Len()),
		zap.String("first", tl.Label(0)),
		zap.String("last", tl.Label(tl.Len()-1)),
	)

	engine := hotspot.New(client, engineOptions(c))
	clock, err := timebin.NewSynchronizer(tl, engine.Load, syncOptions(c))
	if err != nil {
		_ = ln.Close()
		return err
	}
	if err := clock.Start(ctx); err != nil {
		zap.L().Warn("initial frame unavailable, will retry on next tick", zap.Error(err))
	}

	api := server.New(engine, clock, server.Options{
		AllowedOrigins: c.Server.AllowedOrigins,
		CacheStats:     client.CacheStats,
	})
	srv := server.NewHTTPServer(ln.Addr().String(), api.Routes())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.L().Info("starting server", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server serve")
		}
		return nil
	})
	g.Go(func() error {
		return clock.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 10*time.Second)
		defer cancel()
		return eris.Wrap(srv.Shutdown(shutdownCtx), "server shutdown")
	})
	return g.Wait()
}
