package main

import (
	"context"
	"net"
	"net/http"
	"time"
)

// newServer builds the API server. Request contexts derive from a base
// context that is cancelled when Shutdown starts, so open event streams end
// instead of holding shutdown until its deadline. There is no WriteTimeout
// for the same streams.
func newServer(addr string, handler http.Handler) *http.Server {
	base, cancel := context.WithCancel(context.Background())
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
	server.RegisterOnShutdown(cancel)
	return server
}
