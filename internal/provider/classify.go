package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

// Caller-safe messages shared by every provider.
const (
	MsgTimeout      = "API request timed out"
	MsgConnection   = "Could not connect to API. Please check your internet connection."
	MsgCancelled    = "API request cancelled"
	MsgUnauthorized = "Invalid API key"
	MsgNotFound     = "Resource not found"
	MsgRateLimited  = "API rate limit exceeded. Please try again later."
	MsgMalformed    = "Invalid API response format"
	MsgKeyMissing   = "API key not configured"
)

// ClassifyTransport maps an error returned by http.Client.Do (or by the
// outbound pacer) to the taxonomy. It never inspects a response body.
func ClassifyTransport(err error) *Error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Errorf(KindTimeout, MsgTimeout)
	case errors.As(err, &netErr) && netErr.Timeout():
		return Errorf(KindTimeout, MsgTimeout)
	case errors.Is(err, context.Canceled):
		return Errorf(KindUnknown, MsgCancelled)
	case isConnectError(err):
		return Errorf(KindConnectionFailed, MsgConnection)
	default:
		return Errorf(KindUnknown, "API request failed: %v", err)
	}
}

func isConnectError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	return false
}

// ClassifyStatus maps a non-200 vendor status code to the taxonomy.
// overrides replaces the default message for specific codes; 429 is always
// KindRateLimited regardless of overrides or body content.
func ClassifyStatus(code int, overrides map[int]string) *Error {
	msg := func(def string) string {
		if m, ok := overrides[code]; ok {
			return m
		}
		return def
	}
	var e *Error
	switch code {
	case http.StatusTooManyRequests:
		e = Errorf(KindRateLimited, MsgRateLimited)
	case http.StatusUnauthorized:
		e = Errorf(KindUnauthorized, "%s", msg(MsgUnauthorized))
	case http.StatusNotFound:
		e = Errorf(KindNotFound, "%s", msg(MsgNotFound))
	default:
		e = Errorf(KindProviderError, "%s", msg(fmt.Sprintf("API request failed with status %d", code)))
	}
	e.Status = code
	return e
}
