// Package httpserver configures the ledger's HTTP listener.
package httpserver

import (
	"net/http"
	"time"
)

// New builds the server for the admin and transfer API. The write timeout
// leaves room for batch operations, which run the full verification and
// compliance pipeline per item; the router applies its own per-request
// timeout below these bounds.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
