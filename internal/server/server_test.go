package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/model-critic/internal/config"
	"github.com/danielpatrickdp/model-critic/internal/critic"
	"github.com/danielpatrickdp/model-critic/internal/dataset"
	"github.com/danielpatrickdp/model-critic/internal/estimator"
	"github.com/danielpatrickdp/model-critic/internal/estimator/estimatortest"
	"github.com/danielpatrickdp/model-critic/internal/logging"
	"github.com/danielpatrickdp/model-critic/internal/metrics"
	"github.com/danielpatrickdp/model-critic/internal/session"
	"github.com/danielpatrickdp/model-critic/internal/thresholds"
	"github.com/danielpatrickdp/model-critic/internal/validation"
)

// leakyCSV has feature f0 equal to the label.
func leakyCSV() string {
	var b strings.Builder
	b.WriteString("f0,f1,label\n")
	for i := range 30 {
		fmt.Fprintf(&b, "%d,%d,%d\n", i%3, i%5, i%3)
	}
	return b.String()
}

func newTestServer(t *testing.T, configure ...func(*Options)) (*httptest.Server, *session.SQLiteStore) {
	t.Helper()
	store, err := session.NewSQLiteStore(filepath.Join(t.TempDir(), "critic.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	reg := prometheus.NewRegistry()
	opts := Options{
		Config:   config.Default(),
		Store:    store,
		Metrics:  metrics.New(reg),
		Gatherer: reg,
		Logger:   logging.Discard(),
	}
	for _, fn := range configure {
		fn(&opts)
	}
	srv := New(opts)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts, store
}

func post(t *testing.T, ts *httptest.Server, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	resp, err := http.Post(ts.URL+path, "application/json", &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func get(t *testing.T, ts *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func leakyRequest() ReviewRequest {
	req := ReviewRequest{}
	req.Dataset.CSV = leakyCSV()
	req.Model.Kind = "majority"
	return req
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := get(t, ts, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestReviewTechnicalView(t *testing.T) {
	ts, _ := newTestServer(t)
	req := leakyRequest()
	req.View = "technical"

	resp, body := post(t, ts, "/v1/reviews", req)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var technical struct {
		KeyRisks    []string `json:"key_risks"`
		ModelHealth struct {
			DataLeakage bool `json:"data_leakage"`
		} `json:"model_health"`
	}
	require.NoError(t, json.Unmarshal(body, &technical))
	assert.True(t, technical.ModelHealth.DataLeakage)
	assert.NotEmpty(t, technical.KeyRisks)
}

func TestReviewThresholdOverrides(t *testing.T) {
	ts, _ := newTestServer(t)
	req := leakyRequest()
	req.View = "technical"
	req.Thresholds = &thresholds.Thresholds{LeakageCorrelation: 1.01}

	resp, body := post(t, ts, "/v1/reviews", req)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var technical struct {
		ModelHealth struct {
			DataLeakage bool `json:"data_leakage"`
		} `json:"model_health"`
	}
	require.NoError(t, json.Unmarshal(body, &technical))
	assert.False(t, technical.ModelHealth.DataLeakage, "raised threshold hides the leaky feature")
}

func TestReviewMultiView(t *testing.T) {
	ts, _ := newTestServer(t)
	req := leakyRequest()
	req.View = "executive,bogus,performance"

	resp, body := post(t, ts, "/v1/reviews", req)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Len(t, out, 2)
	assert.Contains(t, out, "executive")
	assert.Contains(t, out, "performance")
}

func TestReviewArrayDataset(t *testing.T) {
	ts, _ := newTestServer(t)
	req := ReviewRequest{View: "performance"}
	for i := range 12 {
		req.Dataset.Features = append(req.Dataset.Features, []float64{float64(i % 2 * 10), float64(i % 3)})
		req.Dataset.Labels = append(req.Dataset.Labels, float64(i%2))
	}
	req.Dataset.IntegerTarget = true
	req.Model.Kind = "centroid"

	resp, body := post(t, ts, "/v1/reviews", req)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var perf struct {
		CVMean   float64 `json:"cv_mean_score"`
		Strategy string  `json:"validation_strategy"`
	}
	require.NoError(t, json.Unmarshal(body, &perf))
	assert.Equal(t, "StratifiedKFold", perf.Strategy)
	assert.InDelta(t, 1.0, perf.CVMean, 1e-9)
}

func TestReviewNaNScoresEncodeAsNull(t *testing.T) {
	ts, store := newTestServer(t, func(o *Options) {
		o.Remote = func(context.Context) (estimator.Estimator, error) {
			return estimatortest.New(math.NaN()), nil
		}
	})
	csv := strings.Replace(leakyCSV(), "\n1,1,1\n", "\n1,nan,1\n", 1)
	req := ReviewRequest{View: "performance", Session: "gappy"}
	req.Dataset.CSV = csv
	req.Dataset.Target = "label"
	req.Model.Kind = "remote"

	resp, body := post(t, ts, "/v1/reviews", req)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NotEmpty(t, body)

	var perf map[string]any
	require.NoError(t, json.Unmarshal(body, &perf))
	assert.Contains(t, perf, "cv_mean_score")
	assert.Nil(t, perf["cv_mean_score"])

	_, err := store.Load(context.Background(), "gappy")
	assert.NoError(t, err)
}

func TestRespondJSONEncodeFailure(t *testing.T) {
	srv := New(Options{Config: config.Default(), Logger: logging.Discard()})
	rec := httptest.NewRecorder()

	srv.respondJSON(rec, http.StatusOK, map[string]float64{"score": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var out errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Contains(t, out.Error, "encode response")
}

func TestReviewRejectsBadRequests(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := post(t, ts, "/v1/reviews", "{not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req := leakyRequest()
	req.Model.Kind = "xgboost"
	resp, _ = post(t, ts, "/v1/reviews", req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req = leakyRequest()
	req.View = "nonsense"
	resp, _ = post(t, ts, "/v1/reviews", req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req = leakyRequest()
	req.Model.Kind = "remote"
	resp, _ = post(t, ts, "/v1/reviews", req)
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestDeployDecisionIsLogged(t *testing.T) {
	ts, store := newTestServer(t)
	req := leakyRequest()
	req.Session = "nightly"

	resp, body := post(t, ts, "/v1/deploy-decisions", req)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out DeployResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.False(t, out.Decision.Deploy)
	assert.EqualValues(t, "high", out.Decision.RiskLevel)
	assert.True(t, out.Signals.Leakage)
	assert.NotEmpty(t, out.RunID)

	entries, err := logging.RecentDecisions(store.DB(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, out.RunID, entries[0].RunID)
	assert.Equal(t, "nightly", entries[0].SessionName)
	assert.False(t, entries[0].Deploy)

	// deploy decisions do not save the review
	resp, _ = get(t, ts, "/v1/sessions/nightly")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionsRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t)
	req := leakyRequest()
	req.Session = "baseline"

	resp, body := post(t, ts, "/v1/reviews", req)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = get(t, ts, "/v1/sessions/baseline")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var snap SessionResponse
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, "baseline", snap.Name)
	assert.NotEmpty(t, snap.Payload)
	assert.Contains(t, snap.Scores.Components, "data_integrity")

	resp, body = get(t, ts, "/v1/sessions?limit=5")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var list []SessionResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Payload)

	resp, _ = get(t, ts, "/v1/sessions/unknown")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = get(t, ts, "/v1/sessions?limit=zero")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCompare(t *testing.T) {
	ts, _ := newTestServer(t)

	req := leakyRequest()
	req.Session = "v1"
	resp, body := post(t, ts, "/v1/reviews", req)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	req.Session = "v2"
	req.Previous = "v1"
	resp, body = post(t, ts, "/v1/comparisons", req)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var cmp critic.Comparison
	require.NoError(t, json.Unmarshal(body, &cmp))
	assert.Equal(t, "v1", cmp.Previous)
	assert.Equal(t, 0, cmp.Deltas["global"])

	req.Previous = "missing"
	resp, _ = post(t, ts, "/v1/comparisons", req)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req.Session = ""
	req.Previous = "v1"
	resp, _ = post(t, ts, "/v1/comparisons", req)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, _ := post(t, ts, "/v1/reviews", leakyRequest())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := get(t, ts, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "critic_reviews_total")
	assert.Contains(t, string(body), "critic_detector_duration_seconds")
}

func TestMapHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{session.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", critic.ErrSessionNotFound), http.StatusNotFound},
		{critic.ErrNoActiveSession, http.StatusConflict},
		{dataset.ErrShapeMismatch, http.StatusBadRequest},
		{validation.ErrTooFewSamples, http.StatusBadRequest},
		{ErrNoRemote, http.StatusNotImplemented},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MapHTTPStatus(tc.err), tc.err.Error())
	}
}
