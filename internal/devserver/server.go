// ABOUTME: Assembles the development catalog service on a gorilla/mux router
// ABOUTME: Applies logging, auth and login rate limiting to the route table

package devserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Options configures a Server.
type Options struct {
	Addr      string
	JWTSecret string
	TokenTTL  time.Duration
	// LoginLimit caps login attempts per client per minute. Zero disables it.
	LoginLimit int
	Logger     *zap.Logger
}

// Server is the development catalog service.
type Server struct {
	Store   *Store
	handler http.Handler
	addr    string
	logger  *zap.Logger
}

// New builds a server over the sample catalog.
func New(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("devserver")

	tokens, err := NewTokens(opts.JWTSecret, opts.TokenTTL)
	if err != nil {
		return nil, err
	}
	store := NewStore(SeedBooks())
	h := NewHandler(store, tokens, logger)

	var limiter *RateLimiter
	if opts.LoginLimit > 0 {
		limiter = NewRateLimiter(opts.LoginLimit, time.Minute)
	}

	router := mux.NewRouter()
	logRequests := LogRequest(logger)
	for _, route := range h.Routes() {
		mws := []Middleware{logRequests}
		if route.Auth {
			mws = append(mws, RequireUser(tokens, logger))
		}
		if route.Path == "/auth/login" {
			mws = append(mws, RateLimit(limiter, logger))
		}
		router.HandleFunc(route.Path, Chain(route.Handler, mws...)).Methods(route.Method)
	}
	router.NotFoundHandler = Chain(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, "Not Found", http.StatusNotFound)
	}, logRequests)
	router.MethodNotAllowedHandler = Chain(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}, logRequests)

	return &Server{Store: store, handler: router, addr: opts.Addr, logger: logger}, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
