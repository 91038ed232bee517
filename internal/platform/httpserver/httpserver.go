package httpserver

import (
	"context"
	"net/http"
	"time"
)

// New builds the pipeline's HTTP server. Per-request deadlines come from the
// router's timeout middleware; the limits here bound connection setup and
// keep-alive reuse.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Shutdown drains in-flight requests, giving up after timeout.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
