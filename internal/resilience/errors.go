package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// Kind classifies an upstream failure.
type Kind string

const (
	KindQuota     Kind = "quota"
	KindRateLimit Kind = "rate_limit"
	KindTimeout   Kind = "timeout"
	KindGeneric   Kind = "generic"
)

// UpstreamError is a failure of an external search, fetch, classify or
// score provider.
type UpstreamError struct {
	Service    string
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: upstream %s (status %d): %v", e.Service, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: upstream %s: %v", e.Service, e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError builds an UpstreamError of the given kind.
func NewUpstreamError(service string, kind Kind, err error) *UpstreamError {
	return &UpstreamError{Service: service, Kind: kind, Err: err}
}

// StatusError builds an UpstreamError from a non-2xx HTTP response. The
// response body is used to tell quota exhaustion apart from other 4xx codes.
func StatusError(service string, status int, body string) *UpstreamError {
	return &UpstreamError{
		Service:    service,
		Kind:       ClassifyStatus(status, body),
		StatusCode: status,
		Err:        fmt.Errorf("unexpected status %d: %s", status, truncate(body, 200)),
	}
}

// ClassifyStatus maps an HTTP status code (and optional body) to a Kind.
func ClassifyStatus(status int, body string) Kind {
	switch status {
	case http.StatusPaymentRequired:
		return KindQuota
	case http.StatusTooManyRequests:
		if matchesAny(strings.ToLower(body), quotaPatterns) {
			return KindQuota
		}
		return KindRateLimit
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return KindTimeout
	case http.StatusForbidden:
		if matchesAny(strings.ToLower(body), quotaPatterns) {
			return KindQuota
		}
	}
	return KindGeneric
}

var quotaPatterns = []string{
	"quota",
	"usage limit",
	"monthly usage",
	"credit",
	"insufficient balance",
	"billing",
}

var rateLimitPatterns = []string{
	"rate limit",
	"rate_limit",
	"too many requests",
	"overloaded",
}

var timeoutPatterns = []string{
	"i/o timeout",
	"tls handshake timeout",
	"deadline exceeded",
	"timed out",
}

// Classify wraps err as an UpstreamError for service. Errors that already
// carry a classification are returned unchanged. Returns nil for nil.
func Classify(service string, err error) error {
	if err == nil {
		return nil
	}

	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	return &UpstreamError{Service: service, Kind: classifyError(err), Err: err}
}

func classifyError(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case matchesAny(msg, timeoutPatterns):
		return KindTimeout
	case matchesAny(msg, rateLimitPatterns):
		return KindRateLimit
	case matchesAny(msg, quotaPatterns):
		return KindQuota
	}
	return KindGeneric
}

// KindOf returns the Kind of the first UpstreamError in err's chain.
func KindOf(err error) (Kind, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Kind, true
	}
	return "", false
}

// IsRetryable reports whether a failed upstream call may succeed on retry.
// Quota exhaustion never does.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var ue *UpstreamError
	if errors.As(err, &ue) {
		switch ue.Kind {
		case KindRateLimit, KindTimeout:
			return true
		case KindQuota:
			return false
		}
		if ue.StatusCode >= 500 {
			return true
		}
		err = ue.Err
	}

	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		matchesAny(strings.ToLower(err.Error()), []string{
			"connection reset by peer",
			"broken pipe",
			"server closed idle connection",
		})
}

func matchesAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
