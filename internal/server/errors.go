package server

import (
	"errors"
	"net/http"

	"github.com/danielpatrickdp/model-critic/internal/critic"
	"github.com/danielpatrickdp/model-critic/internal/dataset"
	"github.com/danielpatrickdp/model-critic/internal/estimator"
	"github.com/danielpatrickdp/model-critic/internal/remote"
	"github.com/danielpatrickdp/model-critic/internal/session"
	"github.com/danielpatrickdp/model-critic/internal/validation"
)

// Sentinel errors for request handling.
var (
	ErrBadRequest   = errors.New("malformed request")
	ErrNoRemote     = errors.New("no remote estimator configured")
	ErrNoSessionLog = errors.New("session store cannot list")
)

// MapHTTPStatus maps domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, session.ErrNotFound) || errors.Is(err, critic.ErrSessionNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, critic.ErrNoActiveSession) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrNoRemote) || errors.Is(err, ErrNoSessionLog) {
		return http.StatusNotImplemented
	}
	if errors.Is(err, remote.ErrUnknownHandle) {
		return http.StatusBadGateway
	}
	if errors.Is(err, ErrBadRequest) ||
		errors.Is(err, session.ErrInvalidName) ||
		errors.Is(err, dataset.ErrEmpty) ||
		errors.Is(err, dataset.ErrShapeMismatch) ||
		errors.Is(err, dataset.ErrRagged) ||
		errors.Is(err, estimator.ErrUnknownKind) ||
		errors.Is(err, validation.ErrTooFewSamples) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
