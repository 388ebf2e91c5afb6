// package server provides the localhost HTTP plumbing for the OAuth2 login flow.
//
// `tlsync auth login` starts a temporary server on the configured host/port,
// receives the provider callback, and shuts down once a token (or error) has
// been delivered. The [Router] and [Middleware] types follow the standard Go
// wrapping pattern so handlers stay testable with httptest.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler wraps the stdlib handler interface and adds route registration.
type Handler interface {
	http.Handler
	Routes() []string // path patterns this handler serves
}

// Router defines HTTP routing with middleware support.
type Router interface {
	Use(middleware ...Middleware)
	Handle(method, path string, handler http.Handler)
	Handler(handler Handler)
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

// Logging returns middleware that logs each request at debug level.
func Logging(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		})
	}
}

// ListenAndWait serves the router on addr until done is signaled or ctx ends,
// then shuts the server down gracefully.
//
// Used for the one-shot OAuth callback: the caller closes done (or cancels
// ctx) after receiving the authorization result.
func ListenAndWait(ctx context.Context, addr string, router Router, done <-chan struct{}, logger *log.Logger) error {
	srv := &http.Server{Addr: addr, Handler: router}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("callback server failed: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-done:
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("callback server shutdown", "err", err)
	}
	return ctx.Err()
}
