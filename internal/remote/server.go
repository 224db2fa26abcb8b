package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/model-critic/internal/estimator"
	"github.com/danielpatrickdp/model-critic/internal/logging"
)

// #region service
// Service is the server side of the estimator protocol.
type Service interface {
	Open(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Describe(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Fit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Predict(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Score(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Release(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func unary(method string, call func(Service, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(structpb.Struct)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(Service), ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(Service), ctx, req.(*structpb.Struct))
			})
		},
	}
}

// serviceDesc describes the estimator service for grpc.Server.RegisterService.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Service)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodOpen, Service.Open),
		unary(MethodDescribe, Service.Describe),
		unary(MethodFit, Service.Fit),
		unary(MethodPredict, Service.Predict),
		unary(MethodScore, Service.Score),
		unary(MethodRelease, Service.Release),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "critic/v1/estimator",
}

// RegisterServer registers svc on s.
func RegisterServer(s grpc.ServiceRegistrar, svc Service) {
	s.RegisterService(&serviceDesc, svc)
}

// #endregion service

// #region server
// Server serves one prototype estimator. Open hands out the prototype's
// handle; Fit clones the referenced model, trains the clone and returns a
// new handle, so the prototype itself is never trained.
type Server struct {
	logger *slog.Logger

	mu      sync.Mutex
	models  map[string]estimator.Estimator
	protoID string
}

// NewServer wraps proto. A nil logger uses slog.Default.
func NewServer(proto estimator.Estimator, logger *slog.Logger) *Server {
	id := uuid.New().String()
	return &Server{
		logger:  logging.Component(logger, "remote"),
		models:  map[string]estimator.Estimator{id: proto},
		protoID: id,
	}
}

// Handles reports how many models the server holds, prototype included.
func (s *Server) Handles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.models)
}

func (s *Server) lookup(req *structpb.Struct) (string, estimator.Estimator, error) {
	id, err := stringField(req, "handle")
	if err != nil {
		return "", nil, status.Error(codes.InvalidArgument, err.Error())
	}
	s.mu.Lock()
	m, ok := s.models[id]
	s.mu.Unlock()
	if !ok {
		return "", nil, status.Error(codes.NotFound, fmt.Sprintf("%s: %s", ErrUnknownHandle, id))
	}
	return id, m, nil
}

func (s *Server) Open(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	s.mu.Lock()
	proto := s.models[s.protoID]
	s.mu.Unlock()
	return s.describe(s.protoID, proto), nil
}

func (s *Server) Describe(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, m, err := s.lookup(req)
	if err != nil {
		return nil, err
	}
	return s.describe(id, m), nil
}

func (s *Server) describe(id string, m estimator.Estimator) *structpb.Struct {
	_, scores := m.(estimator.Scorer)
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"handle":    structpb.NewStringValue(id),
		"name":      structpb.NewStringValue(m.Name()),
		"params":    paramsValue(m.Params()),
		"has_score": structpb.NewBoolValue(scores),
	}}
}

func (s *Server) Fit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	_, m, err := s.lookup(req)
	if err != nil {
		return nil, err
	}
	X, y, err := xy(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	clone := m.Clone()
	if err := clone.Fit(ctx, X, y); err != nil {
		s.logger.Warn("fit failed", "model", m.Name(), "error", err)
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	}

	id := uuid.New().String()
	s.mu.Lock()
	s.models[id] = clone
	s.mu.Unlock()
	s.logger.Debug("fitted", "model", m.Name(), "handle", id, "rows", len(X))

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"handle": structpb.NewStringValue(id),
	}}, nil
}

func (s *Server) Predict(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	_, m, err := s.lookup(req)
	if err != nil {
		return nil, err
	}
	X, err := matrixField(req, "x")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	pred, err := m.Predict(ctx, X)
	if err != nil {
		return nil, predictStatus(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"predictions": vectorValue(pred),
	}}, nil
}

func (s *Server) Score(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	_, m, err := s.lookup(req)
	if err != nil {
		return nil, err
	}
	scorer, ok := m.(estimator.Scorer)
	if !ok {
		return nil, status.Error(codes.Unimplemented, m.Name()+" has no score method")
	}
	X, y, err := xy(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	score, err := scorer.Score(ctx, X, y)
	if err != nil {
		return nil, predictStatus(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"score": structpb.NewNumberValue(score),
	}}, nil
}

// Release drops a fitted model. Releasing the prototype is refused.
func (s *Server) Release(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, _, err := s.lookup(req)
	if err != nil {
		return nil, err
	}
	if id == s.protoID {
		return nil, status.Error(codes.PermissionDenied, "cannot release the prototype")
	}
	s.mu.Lock()
	delete(s.models, id)
	s.mu.Unlock()
	return &structpb.Struct{}, nil
}

// #endregion server

func xy(req *structpb.Struct) ([][]float64, []float64, error) {
	X, err := matrixField(req, "x")
	if err != nil {
		return nil, nil, err
	}
	y, err := vectorField(req, "y")
	if err != nil {
		return nil, nil, err
	}
	return X, y, nil
}

func predictStatus(err error) error {
	if errors.Is(err, estimator.ErrNotFitted) {
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
