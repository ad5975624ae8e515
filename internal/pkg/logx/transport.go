/*
Package logx provides a structured logging wrapper based on zerolog.

This file contains an http.RoundTripper that logs the lifecycle of outgoing API
requests: method, path, request id, response status, and latency. Query strings
are dropped from the logged URL and the Authorization header is never logged.
*/
package logx

import (
	"net/http"
	"time"
)

// RequestIDHeader is the header carrying the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Transport wraps next (http.DefaultTransport when nil) with request logging.
func Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingTransport{next: next}
}

type loggingTransport struct {
	next http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *loggingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	logger := Logger().With().
		Str("component", "apiclient").
		Str("request_id", r.Header.Get(RequestIDHeader)).
		Str("request_method", r.Method).
		Str("request_path", r.URL.Path).
		Bool("authenticated", r.Header.Get("Authorization") != "").
		Logger()

	t1 := time.Now()
	res, err := t.next.RoundTrip(r)
	if err != nil {
		logger.Warn().
			Err(err).
			Dur("latency", time.Since(t1)).
			Msg("Request failed")
		return nil, err
	}

	logEvent := logger.Debug()
	if res.StatusCode >= 500 {
		logEvent = logger.Error()
	} else if res.StatusCode >= 400 {
		logEvent = logger.Warn()
	}

	logEvent.
		Int("status", res.StatusCode).
		Dur("latency", time.Since(t1)).
		Msg("Request completed")

	return res, nil
}
