// Package http exposes one view session as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"txview/internal/log"
	"txview/internal/middleware/ratelimit"
	"txview/internal/middleware/security"
	"txview/internal/middleware/trace"
	"txview/internal/view"
)

type Server struct {
	http.Server
	view    *view.Coordinator
	limiter *ratelimit.Limiter
	logger  *log.Logger
	started time.Time

	shutdownOnce sync.Once
}

// Options tunes the middleware in front of the handlers.
type Options struct {
	RateLimit ratelimit.Config
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, coordinator *view.Coordinator, opts Options, logger *log.Logger) *Server {
	logger = log.OrDefault(logger, log.ComponentHTTP)
	s := &Server{
		view:    coordinator,
		limiter: ratelimit.NewLimiter(opts.RateLimit),
		logger:  logger,
		started: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/view", s.handleView)
	mux.HandleFunc("GET /api/employees", s.handleEmployees)
	mux.HandleFunc("POST /api/filter", s.handleFilter)
	mux.HandleFunc("POST /api/more", s.handleMore)
	mux.HandleFunc("POST /api/approval", s.handleApproval)

	ips := security.NewClientIPResolver()
	var h http.Handler = mux
	h = s.limiter.Middleware(ips.ClientIP, s.onRateLimited, http.MethodPost)(h)
	h = security.Headers(security.APIHeadersConfig())(h)
	h = trace.NewMiddleware(logger, ips.ClientIP).Handler(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded", log.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
}
