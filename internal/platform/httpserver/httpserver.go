// Package httpserver constructs the http.Server used by the analytics
// surface. Per-request deadlines are enforced by the router's timeout
// middleware; the server itself only guards against slow header writes.
package httpserver

import (
	"net/http"
	"time"
)

// New builds the server for the given listen address and root handler.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
