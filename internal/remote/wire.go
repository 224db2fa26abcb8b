// Package remote binds an estimator served over gRPC, so a model living in
// another process (for example a Python sidecar) can be reviewed like a
// local one. Messages are google.protobuf.Struct values; no generated code
// is required on either side.
package remote

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "critic.v1.Estimator"

// RPC method names.
const (
	MethodOpen     = "Open"
	MethodDescribe = "Describe"
	MethodFit      = "Fit"
	MethodPredict  = "Predict"
	MethodScore    = "Score"
	MethodRelease  = "Release"
)

// Sentinel errors.
var (
	ErrUnknownHandle = errors.New("unknown estimator handle")
	ErrBadMessage    = errors.New("malformed estimator message")
)

func fullMethod(m string) string {
	return "/" + ServiceName + "/" + m
}

// #region encode
func matrixValue(X [][]float64) *structpb.Value {
	rows := make([]*structpb.Value, len(X))
	for i, row := range X {
		rows[i] = vectorValue(row)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: rows})
}

func vectorValue(v []float64) *structpb.Value {
	vals := make([]*structpb.Value, len(v))
	for i, x := range v {
		vals[i] = structpb.NewNumberValue(x)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: vals})
}

// paramsValue converts hyperparameters to a Struct. Values structpb cannot
// represent are sent as their string form.
func paramsValue(params map[string]any) *structpb.Value {
	fields := make(map[string]*structpb.Value, len(params))
	for k, v := range params {
		pv, err := structpb.NewValue(v)
		if err != nil {
			pv = structpb.NewStringValue(fmt.Sprint(v))
		}
		fields[k] = pv
	}
	return structpb.NewStructValue(&structpb.Struct{Fields: fields})
}

// #endregion encode

// #region decode
func stringField(s *structpb.Struct, key string) (string, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrBadMessage, key)
	}
	str, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %q is not a string", ErrBadMessage, key)
	}
	return str.StringValue, nil
}

func matrixField(s *structpb.Struct, key string) ([][]float64, error) {
	list := s.GetFields()[key].GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: %q is not a list", ErrBadMessage, key)
	}
	out := make([][]float64, len(list.GetValues()))
	for i, row := range list.GetValues() {
		v, err := vectorOf(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", key, i, err)
		}
		out[i] = v
	}
	return out, nil
}

func vectorField(s *structpb.Struct, key string) ([]float64, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrBadMessage, key)
	}
	out, err := vectorOf(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return out, nil
}

func vectorOf(v *structpb.Value) ([]float64, error) {
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: expected list", ErrBadMessage)
	}
	out := make([]float64, len(list.GetValues()))
	for i, x := range list.GetValues() {
		n, ok := x.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is not a number", ErrBadMessage, i)
		}
		out[i] = n.NumberValue
	}
	return out, nil
}

func numberField(s *structpb.Struct, key string) (float64, error) {
	n, ok := s.GetFields()[key].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: %q is not a number", ErrBadMessage, key)
	}
	return n.NumberValue, nil
}

// #endregion decode
