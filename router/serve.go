// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package router

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Serve seals the router and serves HTTP on addr until ctx is canceled,
// then shuts down gracefully, waiting at most the shutdown timeout for
// in-flight requests.
//
// Serve returns nil after a graceful shutdown.
//
// Example:
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	if err := r.Serve(ctx, ":8080"); err != nil {
//	    log.Fatal(err)
//	}
func (r *Router) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	return r.ServeListener(ctx, ln)
}

// ServeListener is like Serve but accepts connections on ln.
func (r *Router) ServeListener(ctx context.Context, ln net.Listener) error {
	srv, err := r.newServer(ln.Addr().String(), true)
	if err != nil {
		_ = ln.Close()
		return err
	}

	return r.run(ctx, srv, func() error { return srv.Serve(ln) })
}

// ServeTLS is like Serve for HTTPS. HTTP/2 is negotiated via ALPN.
func (r *Router) ServeTLS(ctx context.Context, addr, certFile, keyFile string) error {
	srv, err := r.newServer(addr, false)
	if err != nil {
		return err
	}

	return r.run(ctx, srv, func() error { return srv.ListenAndServeTLS(certFile, keyFile) })
}

// Shutdown gracefully stops a server started by Serve. It returns nil if no
// server is running.
func (r *Router) Shutdown(ctx context.Context) error {
	r.serverMu.Lock()
	srv := r.server
	r.server = nil
	r.serverMu.Unlock()

	if srv == nil {
		return nil
	}

	return srv.Shutdown(ctx)
}

func (r *Router) newServer(addr string, allowH2C bool) (*http.Server, error) {
	if err := r.Seal(); err != nil {
		return nil, err
	}

	h := http.Handler(r)
	if allowH2C && r.enableH2C {
		h = h2c.NewHandler(h, &http2.Server{})
		r.emit(DiagH2CEnabled, "H2C enabled; use only in dev or behind a trusted LB", nil)
	}

	timeouts := r.serverTimeouts
	if timeouts == nil {
		timeouts = defaultServerTimeouts()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: timeouts.readHeader,
		ReadTimeout:       timeouts.read,
		WriteTimeout:      timeouts.write,
		IdleTimeout:       timeouts.idle,
	}

	r.serverMu.Lock()
	r.server = srv
	r.serverMu.Unlock()

	return srv, nil
}

func (r *Router) run(ctx context.Context, srv *http.Server, serve func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- serve()
	}()

	r.logger.Info("server started", "addr", srv.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err

	case <-ctx.Done():
		r.logger.Info("shutting down server", "timeout", r.shutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.shutdownTimeout)
		defer cancel()

		if err := r.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}

		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	}
}
