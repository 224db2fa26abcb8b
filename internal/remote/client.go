package remote

import (
	"context"
	"fmt"
	"maps"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/model-critic/internal/estimator"
)

// #region client-struct
// Client talks to an estimator server.
type Client struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}

// #endregion client-struct

// #region constructor
// Dial connects to an estimator server without transport security.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cc: conn}, nil
}

// NewClientWithConn uses an existing connection. Close is then a no-op.
func NewClientWithConn(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Close shuts down the connection opened by Dial.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion constructor

func (c *Client) call(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), req, resp); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%s: %w", method, ErrUnknownHandle)
		}
		if status.Code(err) == codes.FailedPrecondition {
			return nil, fmt.Errorf("%s: %s", method, status.Convert(err).Message())
		}
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return resp, nil
}

// #region open
// Open describes the server's prototype and returns it as an Estimator.
// The result also implements estimator.Scorer when the served model does.
func (c *Client) Open(ctx context.Context) (estimator.Estimator, error) {
	resp, err := c.call(ctx, MethodOpen, &structpb.Struct{})
	if err != nil {
		return nil, err
	}
	handle, err := stringField(resp, "handle")
	if err != nil {
		return nil, err
	}
	name, err := stringField(resp, "name")
	if err != nil {
		return nil, err
	}

	e := &Estimator{
		client: c,
		proto:  handle,
		name:   name,
		params: resp.GetFields()["params"].GetStructValue().AsMap(),
	}
	if resp.GetFields()["has_score"].GetBoolValue() {
		return &ScoringEstimator{e}, nil
	}
	return e, nil
}

// #endregion open

// #region estimator
// Estimator is a handle to a model held by the server. Clones share the
// prototype handle; Fit trains a fresh server-side clone each time.
// Hyperparameters arrive as float64, string, bool or nil.
type Estimator struct {
	client *Client
	proto  string
	handle string // fitted model, empty until Fit
	name   string
	params map[string]any
}

func (e *Estimator) Name() string { return e.name }

func (e *Estimator) Params() map[string]any { return maps.Clone(e.params) }

func (e *Estimator) Clone() estimator.Estimator { return e.clone() }

func (e *Estimator) clone() *Estimator {
	return &Estimator{client: e.client, proto: e.proto, name: e.name, params: e.params}
}

func (e *Estimator) Fit(ctx context.Context, X [][]float64, y []float64) error {
	resp, err := e.client.call(ctx, MethodFit, &structpb.Struct{Fields: map[string]*structpb.Value{
		"handle": structpb.NewStringValue(e.proto),
		"x":      matrixValue(X),
		"y":      vectorValue(y),
	}})
	if err != nil {
		return err
	}
	handle, err := stringField(resp, "handle")
	if err != nil {
		return err
	}
	if e.handle != "" {
		// the previous fit is unreachable now
		_ = e.Release(ctx)
	}
	e.handle = handle
	return nil
}

func (e *Estimator) Predict(ctx context.Context, X [][]float64) ([]float64, error) {
	if e.handle == "" {
		return nil, estimator.ErrNotFitted
	}
	resp, err := e.client.call(ctx, MethodPredict, &structpb.Struct{Fields: map[string]*structpb.Value{
		"handle": structpb.NewStringValue(e.handle),
		"x":      matrixValue(X),
	}})
	if err != nil {
		return nil, err
	}
	return vectorField(resp, "predictions")
}

// Release frees the fitted model on the server.
func (e *Estimator) Release(ctx context.Context) error {
	if e.handle == "" {
		return nil
	}
	_, err := e.client.call(ctx, MethodRelease, &structpb.Struct{Fields: map[string]*structpb.Value{
		"handle": structpb.NewStringValue(e.handle),
	}})
	e.handle = ""
	return err
}

// ScoringEstimator is an Estimator whose served model defines its own
// metric.
type ScoringEstimator struct {
	*Estimator
}

func (s *ScoringEstimator) Clone() estimator.Estimator {
	return &ScoringEstimator{s.Estimator.clone()}
}

func (s *ScoringEstimator) Score(ctx context.Context, X [][]float64, y []float64) (float64, error) {
	if s.handle == "" {
		return 0, estimator.ErrNotFitted
	}
	resp, err := s.client.call(ctx, MethodScore, &structpb.Struct{Fields: map[string]*structpb.Value{
		"handle": structpb.NewStringValue(s.handle),
		"x":      matrixValue(X),
		"y":      vectorValue(y),
	}})
	if err != nil {
		return 0, err
	}
	return numberField(resp, "score")
}

// #endregion estimator
