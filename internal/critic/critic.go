// Package critic runs the full review pipeline over one model and dataset:
// integrity, configuration audit, validation strategy, cross-validated
// performance, noise robustness, then the verdict and the deploy gate.
package critic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/danielpatrickdp/model-critic/internal/configaudit"
	"github.com/danielpatrickdp/model-critic/internal/dataset"
	"github.com/danielpatrickdp/model-critic/internal/estimator"
	"github.com/danielpatrickdp/model-critic/internal/gate"
	"github.com/danielpatrickdp/model-critic/internal/integrity"
	"github.com/danielpatrickdp/model-critic/internal/logging"
	"github.com/danielpatrickdp/model-critic/internal/metrics"
	"github.com/danielpatrickdp/model-critic/internal/performance"
	"github.com/danielpatrickdp/model-critic/internal/plot"
	"github.com/danielpatrickdp/model-critic/internal/robustness"
	"github.com/danielpatrickdp/model-critic/internal/session"
	"github.com/danielpatrickdp/model-critic/internal/thresholds"
	"github.com/danielpatrickdp/model-critic/internal/tracing"
	"github.com/danielpatrickdp/model-critic/internal/validation"
	"github.com/danielpatrickdp/model-critic/internal/verdict"
)

// #region critic-struct
// Critic reviews one model against one dataset. It is not safe for
// concurrent use; run one Critic per goroutine.
type Critic struct {
	model estimator.Estimator
	ds    *dataset.Dataset

	thresholds  thresholds.Thresholds
	gateConfig  gate.Config
	randomState int64
	seeded      bool

	store       session.Store
	sessionName string
	plotter     plot.Renderer
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
}

// #endregion critic-struct

// #region options
// Option configures a Critic.
type Option func(*Critic)

// WithThresholds replaces the default thresholds.
func WithThresholds(t thresholds.Thresholds) Option {
	return func(c *Critic) { c.thresholds = t }
}

// WithGateConfig replaces the default gate penalties.
func WithGateConfig(g gate.Config) Option {
	return func(c *Critic) { c.gateConfig = g }
}

// WithSession saves every evaluation under name in store and enables
// Compare.
func WithSession(store session.Store, name string) Option {
	return func(c *Critic) {
		c.store = store
		c.sessionName = name
	}
}

// WithPlotter enables chart output when Evaluate is called with plot=true.
func WithPlotter(r plot.Renderer) Option {
	return func(c *Critic) { c.plotter = r }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Critic) { c.logger = l }
}

// WithMetrics records stage timings and outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Critic) { c.metrics = m }
}

// WithTracer sets the tracer used for stage spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Critic) { c.tracer = t }
}

// WithRandomState seeds the robustness noise. Without it the CV seed is
// reused.
func WithRandomState(seed int64) Option {
	return func(c *Critic) {
		c.randomState = seed
		c.seeded = true
	}
}

// #endregion options

// #region constructor
// New creates a Critic. The dataset is never modified.
func New(model estimator.Estimator, ds *dataset.Dataset, opts ...Option) *Critic {
	c := &Critic{
		model:      model,
		ds:         ds,
		thresholds: thresholds.Default(),
		gateConfig: gate.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.Component(c.logger, "critic")
	if !c.seeded {
		c.randomState = c.thresholds.CVRandomState
	}
	return c
}

// #endregion constructor

// #region evaluate
// Evaluate runs every detector and assembles the payload. When a session is
// configured the payload is saved afterwards; a failed save is logged and
// the payload is still returned.
func (c *Critic) Evaluate(ctx context.Context, plot bool) (*Payload, error) {
	p, err := c.run(ctx, plot)
	if err != nil {
		return nil, err
	}

	if c.store != nil && c.sessionName != "" {
		if err := c.save(ctx, p); err != nil {
			c.metrics.SessionSaveFailed()
			c.logger.Warn("session save failed", "session", c.sessionName, "error", err)
		}
	}
	return p, nil
}

func (c *Critic) run(ctx context.Context, plot bool) (p *Payload, err error) {
	ctx, root := tracing.Start(ctx, c.tracer, "critic.evaluate",
		attribute.String("model_type", c.model.Name()),
		attribute.Int("n_samples", c.ds.NSamples()),
		attribute.Int("n_features", c.ds.NFeatures()),
	)
	defer func() { tracing.End(root, err) }()

	// 1. Data integrity
	var (
		data integrity.Report
		corr *integrity.CorrelationMatrix
	)
	c.stage(ctx, "integrity", func(context.Context) error {
		opts := integrity.FromThresholds(c.thresholds)
		opts.Correlations = plot && c.plotter != nil
		data, corr = integrity.Analyze(c.ds, opts)
		return nil
	})
	c.render("heatmap", func() error { return c.plotter.Heatmap(corr) }, corr != nil)

	// 2. Configuration audit
	var cfg configaudit.Report
	c.stage(ctx, "config", func(context.Context) error {
		cfg = configaudit.Audit(c.model, &data.NSamples, &data.NFeatures)
		return nil
	})

	// 3. Validation strategy
	var (
		splitter validation.Splitter
		problem  validation.ProblemType
	)
	c.stage(ctx, "validation", func(context.Context) error {
		splitter, problem = validation.MakeCV(c.ds, validation.FromThresholds(c.thresholds))
		return nil
	})

	// 4. Performance
	var perf performance.Report
	err = c.stage(ctx, "performance", func(ctx context.Context) error {
		var err error
		perf, err = performance.Evaluate(ctx, c.model, c.ds, splitter, performance.Options{
			PerfectScore: c.thresholds.PerfectCVScore,
			Problem:      problem,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("performance: %w", err)
	}
	if plot && c.plotter != nil {
		c.render("learning_curve", func() error {
			points, err := validation.LearningCurve(ctx, c.model, c.ds, splitter, problem, validation.DefaultCurveFractions)
			if err != nil {
				return err
			}
			return c.plotter.LearningCurve(splitter.Name(), points)
		}, true)
	}

	// 5. Robustness (consumes the leakage flag)
	var rob robustness.Report
	err = c.stage(ctx, "robustness", func(ctx context.Context) error {
		var err error
		rob, err = robustness.Probe(ctx, c.model, c.ds, splitter, data.DataLeakage.Suspected,
			robustness.FromThresholds(c.thresholds, c.randomState, problem))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("robustness: %w", err)
	}

	// 6. Verdict
	signals := verdict.FromReports(data, cfg, perf, rob)
	summary := verdict.Summarize(signals)

	p = &Payload{
		Executive: summary.Executive,
		Technical: summary.Technical,
		Details: Details{
			Data:        data,
			Config:      cfg,
			Performance: perf,
			Robustness:  rob,
		},
		Performance: perf,
	}

	c.metrics.Review(string(summary.Executive.RiskLevel), len(data.DataLeakage.Details))
	c.logger.Info("review complete",
		"model_type", cfg.ModelType,
		"verdict", summary.Executive.Verdict,
		"risk_level", summary.Executive.RiskLevel,
		"leakage", signals.Leakage,
		"perfect_cv", signals.PerfectCV,
		"robustness", signals.Robustness,
		"structural_warnings", len(signals.StructuralWarnings),
	)
	return p, nil
}

// stage runs fn inside a span and records its duration.
func (c *Critic) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	ctx, span := tracing.Start(ctx, c.tracer, "critic."+name)
	err := fn(ctx)
	tracing.End(span, err)
	c.metrics.ObserveStage(name, start)
	c.logger.Debug("stage done", "stage", name, "elapsed", time.Since(start), "error", err)
	return err
}

// render calls a plot function and logs, never returns, its error.
func (c *Critic) render(chart string, fn func() error, enabled bool) {
	if !enabled || c.plotter == nil {
		return
	}
	if err := fn(); err != nil {
		c.logger.Warn("plot failed", "chart", chart, "error", err)
	}
}

func (c *Critic) save(ctx context.Context, p *Payload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.store.Save(ctx, session.Snapshot{
		Name:      c.sessionName,
		Timestamp: time.Now().UTC(),
		Payload:   raw,
		Scores:    Scores(p),
	})
}

// #endregion evaluate

// #region scores
// Scores computes the numeric score breakdown for a payload.
func Scores(p *Payload) verdict.Scores {
	return verdict.Score(p.Signals())
}

// #endregion scores

// #region deploy
// DeployDecision re-runs the pipeline and applies the deploy gate.
func (c *Critic) DeployDecision(ctx context.Context) (gate.Decision, error) {
	r, err := c.DeployReport(ctx)
	if err != nil {
		return gate.Decision{}, err
	}
	return r.Decision, nil
}

// DeployReport is DeployDecision plus the signals the gate saw. The review
// is not saved to the session.
func (c *Critic) DeployReport(ctx context.Context) (DeployReport, error) {
	p, err := c.run(ctx, false)
	if err != nil {
		return DeployReport{}, err
	}

	signals := p.Signals()
	decision := gate.NewGate(c.gateConfig).Evaluate(signals)

	c.metrics.Decision(decision.Deploy)
	c.logger.Info("deploy decision",
		"deploy", decision.Deploy,
		"risk_level", decision.RiskLevel,
		"confidence", decision.Confidence,
		"blocking_issues", len(decision.BlockingIssues),
	)
	return DeployReport{
		ModelType: p.Details.Config.ModelType,
		Signals:   signals,
		Decision:  decision,
	}, nil
}

// #endregion deploy

// #region compare
// Compare evaluates the model again and diffs its scores against the
// previous session. It fails before any evaluation when no session name is
// configured or the previous session does not exist.
func (c *Critic) Compare(ctx context.Context, previous string) (Comparison, error) {
	if c.store == nil || c.sessionName == "" {
		return Comparison{}, ErrNoActiveSession
	}

	snap, err := c.store.Load(ctx, previous)
	if errors.Is(err, session.ErrNotFound) {
		return Comparison{}, fmt.Errorf("%w: %s", ErrSessionNotFound, previous)
	}
	if err != nil {
		return Comparison{}, fmt.Errorf("load session %s: %w", previous, err)
	}

	var prev Payload
	if err := json.Unmarshal(snap.Payload, &prev); err != nil {
		return Comparison{}, fmt.Errorf("decode session %s: %w", previous, err)
	}
	prevScores := Scores(&prev)

	p, err := c.Evaluate(ctx, false)
	if err != nil {
		return Comparison{}, err
	}
	cur := Scores(p)

	return Comparison{
		Previous:       previous,
		CurrentScores:  cur,
		PreviousScores: prevScores,
		Deltas:         Diff(cur, prevScores),
	}, nil
}

// Diff returns current minus previous for the global score and every
// component key present in both.
func Diff(current, previous verdict.Scores) map[string]int {
	deltas := map[string]int{"global": current.Global - previous.Global}
	for k, v := range current.Components {
		if pv, ok := previous.Components[k]; ok {
			deltas[k] = v - pv
		}
	}
	return deltas
}

// #endregion compare
