// Copyright (C) 2026 The Reel Authors.
//
// This file is part of Reel.
//
// Reel is free software: you can redistribute it and/or modify it under the
// terms of the GNU Affero General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.
//
// Reel is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
// FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License for
// more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with Reel.  If not, see <https://www.gnu.org/licenses/>.

package server

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/defsub/reel/catalog"
	"github.com/defsub/reel/lib/fail"
	"github.com/defsub/reel/lib/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var resolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "reel_resolve_total",
	Help: "Movie key resolutions by outcome.",
}, []string{"outcome"})

var toggleTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "reel_toggle_total",
	Help: "Favorite and comment like toggles by resulting state.",
}, []string{"kind", "state"})

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "reel_http_request_duration_seconds",
	Help:    "HTTP request latency in seconds.",
	Buckets: prometheus.DefBuckets,
}, []string{"route", "method", "status"})

func countResolve(res catalog.Resolution, err error) {
	outcome := "direct"
	switch {
	case fail.IsNotFound(err):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	case res.Redirect:
		outcome = "redirect"
	}
	resolveTotal.WithLabelValues(outcome).Inc()
}

func countToggle(kind string, on bool) {
	state := "off"
	if on {
		state = "on"
	}
	toggleTotal.WithLabelValues(kind, state).Inc()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades pass through.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return h.Hijack()
}

// instrument records the latency of handler under the route pattern.
func instrument(route string, handler http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		handler.ServeHTTP(sw, r)
		elapsed := time.Since(start)
		requestDuration.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).
			Observe(elapsed.Seconds())
		log.With(map[string]interface{}{
			"route":    route,
			"method":   r.Method,
			"status":   sw.status,
			"duration": elapsed,
		}).Debug(r.URL.Path)
	}
	return http.HandlerFunc(fn)
}

func metricsHandler() http.Handler {
	return promhttp.Handler()
}
