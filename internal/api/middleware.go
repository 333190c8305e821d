// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cliprank/cliprank/internal/logging"
	"github.com/cliprank/cliprank/internal/metrics"
)

// requestIDMiddleware ensures every request carries a request ID,
// honoring an X-Request-ID header when the caller supplies one. The ID
// travels in the context and is echoed in the response header.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = logging.GenerateRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	})
}

// loggingMiddleware logs each request and feeds the HTTP metrics with
// the matched route pattern rather than the raw path, keeping label
// cardinality bounded.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()

		logger := logging.Ctx(r.Context())
		logger.Info().
			Str("method", r.Method).
			Str("route", route).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Msg("Request handled")
	})
}
