// Package http serves a document store over REST and provides a client that loads query pages
// from a remote server.
//
//	PUT    /collections/{collection}/docs/{id}  json object in request body
//	GET    /collections/{collection}/docs/{id}
//	PATCH  /collections/{collection}/docs/{id}  json object of fields in request body
//	DELETE /collections/{collection}/docs/{id}
//	POST   /collections/{collection}/query      QueryRequest in request body
//	GET    /metrics                             prometheus metrics
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/autom8ter/livequery/logger"
	"github.com/autom8ter/livequery/store"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	documentRoute = "/collections/{collection}/docs/{id}"
	queryRoute    = "/collections/{collection}/query"
	metricsRoute  = "/metrics"
)

// Opt is an option for configuring a Server
type Opt func(s *Server)

// WithLogger sets the server's logger
func WithLogger(l logger.Logger) Opt {
	return func(s *Server) {
		s.logger = l
	}
}

// WithRateLimit limits every client address to r requests per second with the given burst
func WithRateLimit(r rate.Limit, burst int) Opt {
	return func(s *Server) {
		s.limiter = newRateLimiter(r, burst)
	}
}

// WithMiddlewares adds middlewares to the router
func WithMiddlewares(mwares ...mux.MiddlewareFunc) Opt {
	return func(s *Server) {
		s.mwares = append(s.mwares, mwares...)
	}
}

// Server serves a document store as a REST API
type Server struct {
	db      *store.DB
	router  *mux.Router
	logger  logger.Logger
	limiter *rateLimiter
	mwares  []mux.MiddlewareFunc
}

// New creates a server for the document store and registers its routes
func New(db *store.DB, opts ...Opt) *Server {
	s := &Server{
		db:     db,
		router: mux.NewRouter(),
		logger: logger.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Use(s.instrument)
	if s.limiter != nil {
		s.router.Use(s.limiter.middleware)
	}
	s.router.Use(s.mwares...)
	s.router.HandleFunc(documentRoute, s.putDocHandler()).Methods(http.MethodPut)
	s.router.HandleFunc(documentRoute, s.getDocHandler()).Methods(http.MethodGet)
	s.router.HandleFunc(documentRoute, s.patchDocHandler()).Methods(http.MethodPatch)
	s.router.HandleFunc(documentRoute, s.deleteDocHandler()).Methods(http.MethodDelete)
	s.router.HandleFunc(queryRoute, s.queryHandler()).Methods(http.MethodPost)
	s.router.Handle(metricsRoute, promhttp.Handler()).Methods(http.MethodGet)
	for _, route := range []string{"PUT " + documentRoute, "GET " + documentRoute, "PATCH " + documentRoute,
		"DELETE " + documentRoute, "POST " + queryRoute, "GET " + metricsRoute} {
		s.logger.Debug(context.Background(), "registered endpoint", map[string]any{"route": route})
	}
}

// Handler returns the server's http handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve serves http requests on addr until the context is canceled
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	egp, ctx := errgroup.WithContext(ctx)
	egp.Go(func() error {
		s.logger.Info(ctx, "starting http server", map[string]any{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	egp.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info(shutdownCtx, "shutting down http server", map[string]any{"addr": addr})
		return srv.Shutdown(shutdownCtx)
	})
	return egp.Wait()
}
