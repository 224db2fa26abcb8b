// Package server exposes reviews, deploy decisions and stored sessions over
// HTTP.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/danielpatrickdp/model-critic/internal/config"
	"github.com/danielpatrickdp/model-critic/internal/critic"
	"github.com/danielpatrickdp/model-critic/internal/dataset"
	"github.com/danielpatrickdp/model-critic/internal/estimator"
	"github.com/danielpatrickdp/model-critic/internal/logging"
	"github.com/danielpatrickdp/model-critic/internal/metrics"
	"github.com/danielpatrickdp/model-critic/internal/session"
)

const maxBody = 32 << 20

// #region server
// Options wires the server's collaborators. Only Config is required.
type Options struct {
	Config   config.Config
	Store    session.Store // nil disables session endpoints and saving
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // nil hides /metrics
	Tracer   trace.Tracer
	Logger   *slog.Logger

	// Remote opens the served model for requests with model kind "remote".
	Remote func(ctx context.Context) (estimator.Estimator, error)
}

// Server handles review requests. Each request builds its own critic, so
// handlers share only the store, metrics and remote connection.
type Server struct {
	opts      Options
	decisions *sql.DB
	logger    *slog.Logger
}

// New creates a Server. Deploy decisions are written to decision_log when
// the session store is SQLite-backed.
func New(opts Options) *Server {
	s := &Server{
		opts:   opts,
		logger: logging.Component(opts.Logger, "http"),
	}
	if opts.Store != nil {
		s.decisions = session.SQLiteDB(opts.Store)
	}
	return s
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/reviews", s.Review)
		r.Post("/deploy-decisions", s.Deploy)
		r.Post("/comparisons", s.Compare)
		r.Get("/sessions", s.ListSessions)
		r.Get("/sessions/{name}", s.GetSession)
	})
	return r
}

// #endregion server

// #region handlers
// Review runs the full pipeline and returns the requested view.
func (s *Server) Review(w http.ResponseWriter, r *http.Request) {
	req, c, err := s.critic(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	payload, err := c.Evaluate(r.Context(), false)
	if err != nil {
		s.respondError(w, err)
		return
	}

	view := payload.View(critic.ParseView(req.View))
	if view == nil {
		s.respondError(w, fmt.Errorf("%w: unknown view %q", ErrBadRequest, req.View))
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

// Deploy applies the deploy gate and records the decision.
func (s *Server) Deploy(w http.ResponseWriter, r *http.Request) {
	req, c, err := s.critic(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	report, err := c.DeployReport(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	resp := DeployResponse{DeployReport: report}
	if s.decisions != nil {
		resp.RunID, err = s.logDecision(req.Session, report)
		if err != nil {
			s.logger.Warn("decision log failed", "error", err)
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// Compare re-runs the review under the request's session and diffs it
// against the previous one.
func (s *Server) Compare(w http.ResponseWriter, r *http.Request) {
	req, c, err := s.critic(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if req.Previous == "" {
		s.respondError(w, fmt.Errorf("%w: previous session required", ErrBadRequest))
		return
	}
	cmp, err := c.Compare(r.Context(), req.Previous)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, cmp)
}

// GetSession returns the latest snapshot saved under a name.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store == nil {
		s.respondError(w, session.ErrNotFound)
		return
	}
	snap, err := s.opts.Store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, SessionResponse{
		Name:      snap.Name,
		Timestamp: snap.Timestamp,
		Payload:   snap.Payload,
		Scores:    snap.Scores,
	})
}

// ListSessions returns recent snapshots without payloads. ?limit=N caps the
// result.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	lister, ok := s.opts.Store.(session.Lister)
	if !ok {
		s.respondError(w, ErrNoSessionLog)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, fmt.Errorf("%w: limit %q", ErrBadRequest, v))
			return
		}
		limit = n
	}
	snaps, err := lister.List(r.Context(), limit)
	if err != nil {
		s.respondError(w, err)
		return
	}
	out := make([]SessionResponse, len(snaps))
	for i, snap := range snaps {
		out[i] = SessionResponse{Name: snap.Name, Timestamp: snap.Timestamp, Scores: snap.Scores}
	}
	s.respondJSON(w, http.StatusOK, out)
}

// #endregion handlers

// #region build
// critic decodes a ReviewRequest and builds the critic it describes.
func (s *Server) critic(r *http.Request) (ReviewRequest, *critic.Critic, error) {
	var req ReviewRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(&req); err != nil {
		return req, nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	ds, err := loadDataset(req.Dataset)
	if err != nil {
		return req, nil, err
	}
	model, err := s.model(r.Context(), req.Model)
	if err != nil {
		return req, nil, err
	}

	cfg := s.opts.Config
	limits := cfg.Thresholds
	if req.Thresholds != nil {
		limits = limits.Merge(*req.Thresholds)
	}
	opts := []critic.Option{
		critic.WithThresholds(limits),
		critic.WithGateConfig(cfg.Gate),
		critic.WithLogger(s.opts.Logger),
		critic.WithMetrics(s.opts.Metrics),
		critic.WithRandomState(cfg.Robustness.RandomState),
	}
	if req.RandomState != nil {
		opts = append(opts, critic.WithRandomState(*req.RandomState))
	}
	if s.opts.Tracer != nil {
		opts = append(opts, critic.WithTracer(s.opts.Tracer))
	}
	if s.opts.Store != nil && req.Session != "" {
		opts = append(opts, critic.WithSession(s.opts.Store, req.Session))
	}
	return req, critic.New(model, ds, opts...), nil
}

func (s *Server) model(ctx context.Context, spec estimator.Spec) (estimator.Estimator, error) {
	if spec.Kind == "remote" {
		if s.opts.Remote == nil {
			return nil, ErrNoRemote
		}
		return s.opts.Remote(ctx)
	}
	return estimator.FromSpec(spec)
}

func loadDataset(in DatasetInput) (*dataset.Dataset, error) {
	if strings.TrimSpace(in.CSV) != "" {
		ds, err := dataset.ReadCSV(strings.NewReader(in.CSV), in.Target)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		return ds, nil
	}
	ds, err := dataset.New(in.Features, in.Labels, in.IntegerTarget)
	if err != nil {
		return nil, err
	}
	ds.FeatureNames = in.FeatureNames
	return ds, nil
}

// #endregion build

func (s *Server) logDecision(sessionName string, report critic.DeployReport) (string, error) {
	signals, err := json.Marshal(report.Signals)
	if err != nil {
		return "", err
	}
	return logging.LogDecision(s.decisions, logging.DecisionEntry{
		SessionName:    sessionName,
		ModelType:      report.ModelType,
		SignalsJSON:    string(signals),
		RiskLevel:      string(report.Decision.RiskLevel),
		Deploy:         report.Decision.Deploy,
		Confidence:     report.Decision.Confidence,
		BlockingIssues: report.Decision.BlockingIssues,
	})
}

// #region respond
// respondJSON encodes v before writing the header so an encoding failure
// still reaches the client as a 500.
func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode response", "error", err)
		status = http.StatusInternalServerError
		b, _ = json.Marshal(errorResponse{Error: "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(b, '\n'))
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := MapHTTPStatus(err)
	if status >= http.StatusInternalServerError && !errors.Is(err, ErrNoRemote) {
		s.logger.Error("request failed", "error", err)
	}
	s.respondJSON(w, status, errorResponse{Error: err.Error()})
}

// #endregion respond
