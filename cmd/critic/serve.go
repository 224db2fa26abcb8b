package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/model-critic/internal/estimator"
	"github.com/danielpatrickdp/model-critic/internal/logging"
	"github.com/danielpatrickdp/model-critic/internal/remote"
	"github.com/danielpatrickdp/model-critic/internal/server"
	"github.com/danielpatrickdp/model-critic/internal/tracing"
)

// #region serve
func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the review API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cli.cfg.Server.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			opts := server.Options{
				Config:   cli.cfg,
				Store:    cli.store,
				Metrics:  cli.metrics,
				Gatherer: cli.registry,
				Logger:   cli.logger,
			}
			if traceOut {
				opts.Tracer = tracing.Tracer()
			}
			if cli.cfg.Remote.Addr != "" {
				client, err := remote.Dial(cli.cfg.Remote.Addr)
				if err != nil {
					return err
				}
				defer client.Close()
				opts.Remote = client.Open
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           server.New(opts).Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				cli.logger.Info("listening", "addr", addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

// #endregion serve

// #region serve-model
func serveModelCmd() *cobra.Command {
	var (
		flags modelFlags
		addr  string
	)
	cmd := &cobra.Command{
		Use:   "serve-model",
		Short: "Serve a local estimator over gRPC for remote reviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.model == "remote" {
				return fmt.Errorf("serve-model needs a local model")
			}
			model, err := estimator.FromSpec(flags.spec())
			if err != nil {
				return fmt.Errorf("model %q: %w", flags.model, err)
			}

			lis, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", addr, err)
			}
			logger := logging.Component(cli.logger, "remote")
			srv := grpc.NewServer(grpc.UnaryInterceptor(logCalls(logger)))
			remote.RegisterServer(srv, remote.NewServer(model, cli.logger))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				srv.GracefulStop()
			}()

			logger.Info("serving model", "addr", lis.Addr().String(), "model", model.Name())
			return srv.Serve(lis)
		},
	}
	flags.register(cmd, false)
	cmd.Flags().StringVar(&addr, "addr", ":50051", "gRPC listen address")
	return cmd
}

func logCalls(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("rpc", "method", info.FullMethod, "duration", time.Since(start), "error", err)
		return resp, err
	}
}

// #endregion serve-model
