package http

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/autom8ter/livequery/errors"
	"github.com/autom8ter/livequery/metrics"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

// rateLimiter keeps a token bucket per client address
type rateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newRateLimiter(r rate.Limit, burst int) *rateLimiter {
	return &rateLimiter{
		limiters: map[string]*rate.Limiter{},
		rate:     r,
		burst:    burst,
	}
}

func (rl *rateLimiter) get(addr string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	limiter, ok := rl.limiters[addr]
	if !ok {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[addr] = limiter
	}
	return limiter
}

func (rl *rateLimiter) middleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.get(clientAddr(r)).Allow() {
			httpError(w, errors.New(errors.Code(http.StatusTooManyRequests), "rate limit exceeded"))
			return
		}
		handler.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// instrument records request metrics and logs every request with its duration
func (s *Server) instrument(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handler.ServeHTTP(recorder, r)
		elapsed := time.Since(start)
		metrics.RequestTotal.WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).Inc()
		metrics.RequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		s.logger.Debug(r.Context(), "served request", map[string]any{
			"request.method": r.Method,
			"request.path":   r.URL.Path,
			"request.vars":   mux.Vars(r),
			"status":         recorder.status,
			"duration":       float64(elapsed.Microseconds()) / float64(1000),
		})
	})
}
