// Package middleware holds http.RoundTripper wrappers shared by the API clients.
package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// RequestLogger wraps next so every outbound request is logged with method,
// host, path, status code, duration and request id. A nil next means
// http.DefaultTransport.
func RequestLogger(logger *slog.Logger, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(r)

		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("host", r.URL.Host),
			slog.String("path", r.URL.Path),
			slog.Duration("duration", time.Since(start)),
		}
		if id := r.Header.Get("X-Request-ID"); id != "" {
			attrs = append(attrs, slog.String("request_id", id))
		}

		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
			logger.LogAttrs(r.Context(), slog.LevelWarn, "request failed", attrs...)
			return nil, err
		}

		attrs = append(attrs, slog.Int("status", resp.StatusCode))
		switch {
		case resp.StatusCode >= 500:
			logger.LogAttrs(r.Context(), slog.LevelError, "request", attrs...)
		case resp.StatusCode >= 400:
			logger.LogAttrs(r.Context(), slog.LevelWarn, "request", attrs...)
		default:
			logger.LogAttrs(r.Context(), slog.LevelDebug, "request", attrs...)
		}
		return resp, nil
	})
}
