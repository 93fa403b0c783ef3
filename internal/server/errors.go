package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/pipeline"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/resilience"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// statusFor maps err onto an HTTP status and a short kind label.
func statusFor(err error) (int, string) {
	var (
		ve *pipeline.ValidationError
		ue *pipeline.UnsupportedFeatureError
		up *resilience.UpstreamError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, "validation"
	case errors.As(err, &ue):
		return http.StatusNotImplemented, "unsupported"
	case errors.As(err, &up):
		switch up.Kind {
		case resilience.KindQuota, resilience.KindRateLimit:
			return http.StatusTooManyRequests, string(up.Kind)
		case resilience.KindTimeout:
			return http.StatusGatewayTimeout, string(up.Kind)
		default:
			return http.StatusBadGateway, string(up.Kind)
		}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "cancelled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// upstreamMessage describes an upstream failure without the provider's
// response body.
func upstreamMessage(up *resilience.UpstreamError) string {
	switch up.Kind {
	case resilience.KindQuota:
		return fmt.Sprintf("%s quota exhausted", up.Service)
	case resilience.KindRateLimit:
		return fmt.Sprintf("%s rate limit exceeded", up.Service)
	case resilience.KindTimeout:
		return fmt.Sprintf("%s timed out", up.Service)
	default:
		return fmt.Sprintf("%s request failed", up.Service)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusFor(err)
	msg := err.Error()
	var up *resilience.UpstreamError
	if errors.As(err, &up) {
		msg = upstreamMessage(up)
		zap.L().Warn("server: upstream failure",
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.Error(err),
		)
	}
	if status == http.StatusInternalServerError {
		// Pipeline InternalErrors already carry a sanitized message.
		var ie *pipeline.InternalError
		if !errors.As(err, &ie) {
			msg = "internal server error"
		}
		zap.L().Error("server: request failed",
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.Error(err),
		)
	}
	writeJSON(w, status, errorBody{Error: msg, Kind: kind})
}
