package remote

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/model-critic/internal/configaudit"
	"github.com/danielpatrickdp/model-critic/internal/dataset"
	"github.com/danielpatrickdp/model-critic/internal/estimator"
	"github.com/danielpatrickdp/model-critic/internal/estimator/estimatortest"
	"github.com/danielpatrickdp/model-critic/internal/logging"
	"github.com/danielpatrickdp/model-critic/internal/validation"
)

// serve starts an in-process server for proto and returns a connected client.
func serve(t *testing.T, proto estimator.Estimator) (*Client, *Server) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	svc := NewServer(proto, logging.Discard())
	RegisterServer(srv, svc)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	client, err := Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, svc
}

func separable() ([][]float64, []float64) {
	X := [][]float64{{0, 1}, {1, 1}, {2, 0}, {10, 1}, {11, 0}, {12, 1}}
	y := []float64{0, 0, 0, 1, 1, 1}
	return X, y
}

func TestOpenDescribesPrototype(t *testing.T) {
	client, _ := serve(t, &estimator.DecisionTree{MaxDepth: 12, MinSamplesSplit: 2})

	model, err := client.Open(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "DecisionTreeClassifier", model.Name())
	params := model.Params()
	assert.Equal(t, 12.0, params["max_depth"])
	assert.Nil(t, params["random_state"])
	assert.Contains(t, params, "random_state")
	assert.Equal(t, "gini", params["criterion"])

	_, isScorer := model.(estimator.Scorer)
	assert.False(t, isScorer)
}

func TestRemoteParamsFeedConfigAudit(t *testing.T) {
	client, _ := serve(t, &estimator.DecisionTree{MaxDepth: 12, MinSamplesSplit: 2})
	model, err := client.Open(context.Background())
	require.NoError(t, err)

	n, f := 100, 3
	report := configaudit.Audit(model, &n, &f)
	assert.True(t, report.UsesRandomState)
	require.Len(t, report.StructuralWarnings, 1)
	assert.Equal(t, configaudit.IssueStructuralOverfitting, report.StructuralWarnings[0].Issue)
}

func TestFitPredictRoundTrip(t *testing.T) {
	client, svc := serve(t, &estimator.NearestCentroid{})
	ctx := context.Background()
	X, y := separable()

	proto, err := client.Open(ctx)
	require.NoError(t, err)
	model := proto.Clone()

	_, err = model.Predict(ctx, X)
	assert.ErrorIs(t, err, estimator.ErrNotFitted)

	require.NoError(t, model.Fit(ctx, X, y))
	pred, err := model.Predict(ctx, X)
	require.NoError(t, err)
	assert.Equal(t, y, pred)
	assert.Equal(t, 2, svc.Handles())

	require.NoError(t, model.Fit(ctx, X, y))
	assert.Equal(t, 2, svc.Handles(), "refitting releases the previous model")

	require.NoError(t, model.(*Estimator).Release(ctx))
	assert.Equal(t, 1, svc.Handles())
}

func TestCrossValidateOverRemote(t *testing.T) {
	client, svc := serve(t, &estimator.NearestCentroid{})
	ctx := context.Background()
	X, y := separable()
	ds, err := dataset.New(X, y, true)
	require.NoError(t, err)

	model, err := client.Open(ctx)
	require.NoError(t, err)
	splitter := &validation.StratifiedKFold{Splits: 3, Shuffle: true, RandomState: 42}
	for range 5 {
		scores, err := validation.CrossValidate(ctx, model, ds, splitter, validation.Classification)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 1, 1}, scores)
	}
	assert.Equal(t, 1, svc.Handles(), "only the prototype survives cross-validation")

	_, err = validation.LearningCurve(ctx, model, ds, splitter, validation.Classification, validation.DefaultCurveFractions)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.Handles())
}

func TestScoringModelUsesServerMetric(t *testing.T) {
	client, _ := serve(t, estimatortest.New(0.42))
	ctx := context.Background()
	X, y := separable()

	model, err := client.Open(ctx)
	require.NoError(t, err)
	scorer, ok := model.(estimator.Scorer)
	require.True(t, ok)

	_, err = scorer.Score(ctx, X, y)
	assert.ErrorIs(t, err, estimator.ErrNotFitted)

	clone := model.Clone()
	require.NoError(t, clone.Fit(ctx, X, y))
	score, err := clone.(estimator.Scorer).Score(ctx, X, y)
	require.NoError(t, err)
	assert.Equal(t, 0.42, score)
}

func TestFitErrorSurfaces(t *testing.T) {
	stub := estimatortest.New(1)
	stub.FitErr = assert.AnError
	client, _ := serve(t, stub)
	ctx := context.Background()
	X, y := separable()

	model, err := client.Open(ctx)
	require.NoError(t, err)
	err = model.Fit(ctx, X, y)
	require.Error(t, err)
	assert.Contains(t, err.Error(), assert.AnError.Error())
}

func TestUnknownHandle(t *testing.T) {
	client, _ := serve(t, &estimator.Majority{})

	_, err := client.call(context.Background(), MethodDescribe, &structpb.Struct{Fields: map[string]*structpb.Value{
		"handle": structpb.NewStringValue("missing"),
	}})
	assert.ErrorIs(t, err, ErrUnknownHandle)
}

func TestReleasePrototypeRefused(t *testing.T) {
	client, svc := serve(t, &estimator.Majority{})
	ctx := context.Background()

	_, err := client.call(ctx, MethodRelease, &structpb.Struct{Fields: map[string]*structpb.Value{
		"handle": structpb.NewStringValue(svc.protoID),
	}})
	assert.Error(t, err)
	assert.Equal(t, 1, svc.Handles())
}

func TestMatrixDecodeRejectsNonNumbers(t *testing.T) {
	req, err := structpb.NewStruct(map[string]any{"x": []any{[]any{1.0, "two"}}})
	require.NoError(t, err)
	_, err = matrixField(req, "x")
	assert.ErrorIs(t, err, ErrBadMessage)
}

func TestServerTagsComponentOnce(t *testing.T) {
	var logs bytes.Buffer
	logger, err := logging.NewLogger(&logs, "debug", "text")
	require.NoError(t, err)
	stub := estimatortest.New(1)
	stub.FitErr = assert.AnError
	svc := NewServer(stub, logger)
	X, y := separable()

	_, err = svc.Fit(context.Background(), &structpb.Struct{Fields: map[string]*structpb.Value{
		"handle": structpb.NewStringValue(svc.protoID),
		"x":      matrixValue(X),
		"y":      vectorValue(y),
	}})
	require.Error(t, err)

	line := strings.TrimSpace(logs.String())
	require.Contains(t, line, "fit failed")
	assert.Equal(t, 1, strings.Count(line, "component=remote"))
}
