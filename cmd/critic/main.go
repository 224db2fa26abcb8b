package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/model-critic/internal/config"
	"github.com/danielpatrickdp/model-critic/internal/logging"
	"github.com/danielpatrickdp/model-critic/internal/metrics"
	"github.com/danielpatrickdp/model-critic/internal/session"
	"github.com/danielpatrickdp/model-critic/internal/tracing"
)

// errBlocked makes `critic deploy` exit 1 when the gate refuses.
var errBlocked = errors.New("deployment blocked")

// #region globals
var (
	configPath string
	logLevel   string
	sessionArg string
	remoteAddr string
	traceOut   bool
)

// app carries what every subcommand needs, built once in PersistentPreRunE.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	store    session.Store
	closer   io.Closer
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	shutdown tracing.Shutdown
}

var cli app

// #endregion globals

// #region main
func main() {
	root := &cobra.Command{
		Use:   "critic",
		Short: "Review a trained model for leakage, overfitting and fragility",
		Long: `critic runs a fixed battery of checks against a model and its dataset:
data integrity, configuration audit, cross-validation, a noise robustness
probe and a deploy gate. Reviews can be saved to named sessions and
compared across runs.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CRITIC_CONFIG"), "YAML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&sessionArg, "session", "", "session name to save reviews under")
	root.PersistentFlags().StringVar(&remoteAddr, "remote", "", "gRPC estimator address for --model remote")
	root.PersistentFlags().BoolVar(&traceOut, "trace", false, "print detector spans to stderr")

	root.AddCommand(evaluateCmd())
	root.AddCommand(deployCmd())
	root.AddCommand(compareCmd())
	root.AddCommand(batchCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(serveModelCmd())
	root.AddCommand(configCmd())

	ctx := context.Background()
	err := root.ExecuteContext(ctx)
	if terr := teardown(ctx); terr != nil {
		fmt.Fprintf(os.Stderr, "shutdown: %v\n", terr)
	}
	if err != nil {
		if errors.Is(err, errBlocked) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}

// #endregion main

// #region setup
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if sessionArg != "" {
		cfg.Session.Name = sessionArg
	}
	if remoteAddr != "" {
		cfg.Remote.Addr = remoteAddr
	}

	logger, err := logging.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	cli = app{cfg: cfg, logger: logger}
	cli.registry = prometheus.NewRegistry()
	cli.metrics = metrics.New(cli.registry)

	if traceOut {
		shutdown, err := tracing.SetupStdout(os.Stderr, "critic")
		if err != nil {
			return err
		}
		cli.shutdown = shutdown
	}

	// deploy and serve also need the store for the decision log
	if cfg.Session.Name != "" || cmd.Name() == "deploy" || cmd.Name() == "serve" {
		store, closer, err := session.Open(cfg.Session.Backend, cfg.Session.Path, cfg.Session.CacheSize)
		if err != nil {
			return fmt.Errorf("open session store: %w", err)
		}
		cli.store, cli.closer = store, closer
	}
	return nil
}

func teardown(ctx context.Context) error {
	var errs []error
	if cli.shutdown != nil {
		errs = append(errs, cli.shutdown(ctx))
	}
	if cli.closer != nil {
		errs = append(errs, cli.closer.Close())
	}
	return errors.Join(errs...)
}

// #endregion setup

// #region config
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := config.Marshal(cli.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		},
	}
}

// #endregion config
