package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/model-critic/internal/critic"
	"github.com/danielpatrickdp/model-critic/internal/dataset"
	"github.com/danielpatrickdp/model-critic/internal/estimator"
	"github.com/danielpatrickdp/model-critic/internal/logging"
	"github.com/danielpatrickdp/model-critic/internal/plot"
	"github.com/danielpatrickdp/model-critic/internal/remote"
	"github.com/danielpatrickdp/model-critic/internal/session"
)

// #region model-flags
// modelFlags select the dataset and model under review.
type modelFlags struct {
	data        string
	target      string
	model       string
	maxDepth    int
	alpha       float64
	randomState int64
}

func (f *modelFlags) register(cmd *cobra.Command, withData bool) {
	if withData {
		cmd.Flags().StringVar(&f.data, "data", "", "CSV dataset with a header row")
	}
	cmd.Flags().StringVar(&f.target, "target", "", "label column (default: last column)")
	cmd.Flags().StringVar(&f.model, "model", "tree", "model: tree, centroid, linear, majority or remote")
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", 0, "tree max depth (0 = unlimited)")
	cmd.Flags().Float64Var(&f.alpha, "alpha", 0, "linear ridge penalty")
	cmd.Flags().Int64Var(&f.randomState, "random-state", 0, "seed for the robustness noise (default from config)")
}

func (f *modelFlags) spec() estimator.Spec {
	params := map[string]any{}
	if f.maxDepth > 0 {
		params["max_depth"] = f.maxDepth
	}
	if f.alpha > 0 {
		params["alpha"] = f.alpha
	}
	return estimator.Spec{Kind: f.model, Params: params}
}

// open builds the model. For "remote" the returned release func closes the
// gRPC connection.
func (f *modelFlags) open(ctx context.Context) (estimator.Estimator, func(), error) {
	if f.model != "remote" {
		m, err := estimator.FromSpec(f.spec())
		if err != nil {
			return nil, nil, fmt.Errorf("model %q: %w", f.model, err)
		}
		return m, func() {}, nil
	}

	client, err := remote.Dial(cli.cfg.Remote.Addr)
	if err != nil {
		return nil, nil, err
	}
	m, err := client.Open(ctx)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("open remote model at %s: %w", cli.cfg.Remote.Addr, err)
	}
	cli.logger.Info("remote model", "addr", cli.cfg.Remote.Addr, "model", m.Name())
	return m, func() { client.Close() }, nil
}

// critic builds a Critic over path. saveAs names the session, empty for none.
func (f *modelFlags) critic(ctx context.Context, path, saveAs string, plotting bool) (*critic.Critic, func(), error) {
	if path == "" {
		return nil, nil, fmt.Errorf("--data is required")
	}
	ds, err := dataset.LoadCSV(path, f.target)
	if err != nil {
		return nil, nil, err
	}
	model, release, err := f.open(ctx)
	if err != nil {
		return nil, nil, err
	}

	cfg := cli.cfg
	seed := cfg.Robustness.RandomState
	if f.randomState != 0 {
		seed = f.randomState
	}
	opts := []critic.Option{
		critic.WithThresholds(cfg.Thresholds),
		critic.WithGateConfig(cfg.Gate),
		critic.WithLogger(cli.logger),
		critic.WithMetrics(cli.metrics),
		critic.WithRandomState(seed),
	}
	if saveAs != "" && cli.store != nil {
		opts = append(opts, critic.WithSession(cli.store, saveAs))
	}
	if plotting {
		opts = append(opts, critic.WithPlotter(plot.NewScriptRenderer(cfg.Plot.Dir)))
	}
	return critic.New(model, ds, opts...), release, nil
}

// #endregion model-flags

// #region evaluate
func evaluateCmd() *cobra.Command {
	var (
		flags    modelFlags
		view     string
		plotting bool
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run a full review and print it as JSON",
		Example: `  critic evaluate --data train.csv --model tree --max-depth 12
  critic evaluate --data train.csv --view executive,technical --plot --session nightly`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, release, err := flags.critic(ctx, flags.data, cli.cfg.Session.Name, plotting)
			if err != nil {
				return err
			}
			defer release()

			payload, err := c.Evaluate(ctx, plotting)
			if err != nil {
				return err
			}
			out := payload.View(critic.ParseView(view))
			if out == nil {
				return fmt.Errorf("unknown view %q", view)
			}
			return printJSON(out)
		},
	}
	flags.register(cmd, true)
	cmd.Flags().StringVar(&view, "view", "all", "all, executive, technical, details, performance, or a comma list")
	cmd.Flags().BoolVar(&plotting, "plot", false, "write heatmap and learning-curve data to the plot dir")
	return cmd
}

// #endregion evaluate

// #region deploy
func deployCmd() *cobra.Command {
	var flags modelFlags
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Apply the deploy gate; exits 1 when deployment is blocked",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, release, err := flags.critic(ctx, flags.data, "", false)
			if err != nil {
				return err
			}
			defer release()

			report, err := c.DeployReport(ctx)
			if err != nil {
				return err
			}
			if db := session.SQLiteDB(cli.store); db != nil {
				signals, _ := json.Marshal(report.Signals)
				runID, err := logging.LogDecision(db, logging.DecisionEntry{
					SessionName:    cli.cfg.Session.Name,
					ModelType:      report.ModelType,
					SignalsJSON:    string(signals),
					RiskLevel:      string(report.Decision.RiskLevel),
					Deploy:         report.Decision.Deploy,
					Confidence:     report.Decision.Confidence,
					BlockingIssues: report.Decision.BlockingIssues,
				})
				if err != nil {
					cli.logger.Warn("decision log failed", "error", err)
				} else {
					cli.logger.Debug("decision logged", "run_id", runID)
				}
			}

			if err := printJSON(report.Decision); err != nil {
				return err
			}
			if !report.Decision.Deploy {
				return errBlocked
			}
			return nil
		},
	}
	flags.register(cmd, true)
	return cmd
}

// #endregion deploy

// #region compare
func compareCmd() *cobra.Command {
	var (
		flags    modelFlags
		previous string
	)
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Review again under --session and diff scores against --previous",
		RunE: func(cmd *cobra.Command, args []string) error {
			if previous == "" {
				return fmt.Errorf("--previous is required")
			}
			ctx := cmd.Context()
			c, release, err := flags.critic(ctx, flags.data, cli.cfg.Session.Name, false)
			if err != nil {
				return err
			}
			defer release()

			cmp, err := c.Compare(ctx, previous)
			if err != nil {
				return err
			}
			return printJSON(cmp)
		},
	}
	flags.register(cmd, true)
	cmd.Flags().StringVar(&previous, "previous", "", "session to compare against")
	return cmd
}

// #endregion compare

// #region batch
type batchRow struct {
	File       string `json:"file"`
	Verdict    string `json:"verdict,omitempty"`
	RiskLevel  string `json:"risk_level,omitempty"`
	Deployable bool   `json:"deploy_recommended"`
	Score      int    `json:"global_score"`
	Error      string `json:"error,omitempty"`
}

func batchCmd() *cobra.Command {
	var (
		flags    modelFlags
		parallel int
		jsonOut  bool
	)
	cmd := &cobra.Command{
		Use:   "batch <csv>...",
		Short: "Review many datasets concurrently with the same model settings",
		Long: `batch reviews each CSV independently. With --session, each review is
saved under <session>-<file name>. A failing file is reported in its row and
does not stop the others.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([]batchRow, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(parallel)

			for i, path := range args {
				g.Go(func() error {
					rows[i] = reviewOne(ctx, &flags, path)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			if jsonOut {
				return printJSON(rows)
			}
			printBatchTable(rows)
			return nil
		},
	}
	flags.register(cmd, false)
	cmd.Flags().IntVar(&parallel, "parallel", runtime.NumCPU(), "max concurrent reviews")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of table")
	return cmd
}

func reviewOne(ctx context.Context, flags *modelFlags, path string) batchRow {
	row := batchRow{File: path}
	saveAs := ""
	if cli.cfg.Session.Name != "" {
		saveAs = cli.cfg.Session.Name + "-" + strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	c, release, err := flags.critic(ctx, path, saveAs, false)
	if err != nil {
		row.Error = err.Error()
		return row
	}
	defer release()

	payload, err := c.Evaluate(ctx, false)
	if err != nil {
		row.Error = err.Error()
		return row
	}
	row.Verdict = payload.Executive.Verdict
	row.RiskLevel = string(payload.Executive.RiskLevel)
	row.Deployable = payload.Executive.DeployRecommended
	row.Score = critic.Scores(payload).Global
	return row
}

func printBatchTable(rows []batchRow) {
	fmt.Printf("%-32s  %-10s  %-6s  %5s  %s\n", "File", "Verdict", "Risk", "Score", "Error")
	fmt.Printf("%-32s+-%-10s+-%-6s+-%5s+-%s\n", "--------------------------------", "----------", "------", "-----", "-----")
	for _, r := range rows {
		fmt.Printf("%-32s  %-10s  %-6s  %5d  %s\n", shorten(r.File, 32), r.Verdict, r.RiskLevel, r.Score, r.Error)
	}
}

// #endregion batch

// #region helpers
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n+3:]
}

// #endregion helpers
