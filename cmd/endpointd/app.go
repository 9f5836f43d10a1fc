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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"rivaas.dev/endpoint/auth"
	"rivaas.dev/endpoint/logging"
	"rivaas.dev/endpoint/metrics"
	"rivaas.dev/endpoint/middleware/accesslog"
	"rivaas.dev/endpoint/middleware/bodylimit"
	"rivaas.dev/endpoint/middleware/cache"
	"rivaas.dev/endpoint/middleware/compression"
	"rivaas.dev/endpoint/middleware/cors"
	"rivaas.dev/endpoint/middleware/ratelimit"
	"rivaas.dev/endpoint/middleware/recovery"
	"rivaas.dev/endpoint/middleware/requestid"
	"rivaas.dev/endpoint/middleware/security"
	"rivaas.dev/endpoint/middleware/timeout"
	"rivaas.dev/endpoint/result"
	"rivaas.dev/endpoint/router"
	"rivaas.dev/endpoint/tracing"
)

// app holds the wired service.
type app struct {
	settings *settings
	logger   *logging.Logger
	recorder *metrics.Recorder
	tracer   *tracing.Tracer
	redis    *redis.Client
	router   *router.Router
	orders   OrderStore
}

func newApp(ctx context.Context, s *settings, out io.Writer) (*app, error) {
	level, err := logging.ParseLevel(s.Log.Level)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(
		logging.WithHandlerType(logging.HandlerType(s.Log.Format)),
		logging.WithLevel(level),
		logging.WithOutput(out),
		logging.WithServiceName(s.Service.Name),
		logging.WithServiceVersion(s.Service.Version),
		logging.WithEnvironment(s.Service.Environment),
	)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	a := &app{settings: s, logger: logger, orders: newMemoryOrders()}

	a.recorder, err = metrics.New(
		metrics.WithPrometheus(),
		metrics.WithServiceName(s.Service.Name),
		metrics.WithServiceVersion(s.Service.Version),
		metrics.WithLogger(logger.Slog()),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	a.tracer, err = tracing.New(tracingOptions(s, out, logger.Slog())...)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	if err := a.tracer.Start(ctx); err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}

	var store cache.Store = cache.NewMemoryStore(1000)
	if s.Cache.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: s.Cache.RedisAddr})
		store = cache.NewRedisStore(a.redis, s.Service.Name+":cache:")
	}

	authorizer, err := newAuthorizer(s)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	services := router.ServiceMap{}
	router.Provide[OrderStore](services, a.orders)

	a.router, err = router.New(
		router.WithLogger(logger.Slog()),
		router.WithH2C(s.Server.H2C),
		router.WithShutdownTimeout(s.Server.ShutdownTimeout),
		router.WithAuthorizer(authorizer),
		router.WithServices(services),
	)
	if err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}

	a.routes(store)

	return a, nil
}

func tracingOptions(s *settings, out io.Writer, logger *slog.Logger) []tracing.Option {
	opts := []tracing.Option{
		tracing.WithServiceName(s.Service.Name),
		tracing.WithServiceVersion(s.Service.Version),
		tracing.WithSampleRate(s.Tracing.SampleRate),
		tracing.WithLogger(logger),
	}

	switch s.Tracing.Exporter {
	case "stdout":
		opts = append(opts, tracing.WithStdoutWriter(out))
	case "otlp":
		opts = append(opts, tracing.WithOTLP(s.Tracing.Endpoint))
	case "otlp-http":
		opts = append(opts, tracing.WithOTLPHTTP(s.Tracing.Endpoint))
	default:
		opts = append(opts, tracing.WithNoop())
	}

	return opts
}

// newAuthorizer returns a JWT authorizer, or one that rejects everything
// when no key is configured.
func newAuthorizer(s *settings) (router.Authorizer, error) {
	if s.Auth.JWTKey == "" {
		return router.AuthorizerFunc(func(*http.Request, []string) (context.Context, error) {
			return nil, fmt.Errorf("%w: authentication is not configured", router.ErrUnauthenticated)
		}), nil
	}

	var opts []auth.JWTOption
	if s.Auth.Issuer != "" {
		opts = append(opts, auth.WithIssuer(s.Auth.Issuer))
	}

	return auth.NewJWT([]byte(s.Auth.JWTKey), opts...)
}

func (a *app) routes(store cache.Store) {
	s := a.settings
	r := a.router

	filters := []router.Filter{
		requestid.New(),
		a.tracer.Filter(tracing.WithExcludePaths("/healthz")),
		a.recorder.Filter(metrics.WithExcludePaths("/healthz")),
		accesslog.New(accesslog.WithExcludePaths("/healthz"), accesslog.WithSlowThreshold(time.Second)),
		recovery.New(),
		security.New(),
	}
	if len(s.CORS.Origins) > 0 {
		filters = append(filters, cors.New(
			cors.WithAllowedOrigins(s.CORS.Origins...),
			cors.WithExposedHeaders(requestid.DefaultHeader, "RateLimit-Remaining"),
		))
	}
	filters = append(filters,
		compression.New(),
		ratelimit.New(
			ratelimit.WithRequestsPerSecond(s.RateLimit.RPS),
			ratelimit.WithBurst(s.RateLimit.Burst),
			ratelimit.WithSkipPaths("/healthz"),
		),
		bodylimit.New(bodylimit.WithLimit(s.Server.BodyLimit)),
		timeout.New(timeout.WithDuration(s.Server.RequestTimeout)),
	)
	r.Use(filters...)

	r.GET("/healthz", func(*router.Context) (any, error) { return "ok", nil }).WithName("health")

	api := r.Group("/api/v1")
	registerOrders(r, api)

	api.GET("/catalog", func(c *router.Context) (any, error) {
		if c.Query("format") == "yaml" {
			return result.YAML(http.StatusOK, catalog), nil
		}

		return catalog, nil
	}).WithName("catalog").Use(cache.New(
		cache.WithStore(store),
		cache.WithTTL(s.Cache.TTL),
		cache.WithLogger(a.logger.Slog()),
	))
}

var catalog = []map[string]any{
	{"sku": "A-100", "name": "Widget", "price_cents": 1299},
	{"sku": "B-200", "name": "Gadget", "price_cents": 2499},
	{"sku": "C-300", "name": "Doohickey", "price_cents": 499},
}

// serve runs the API and the metrics listener until ctx is canceled.
func (a *app) serve(ctx context.Context) error {
	handler, err := a.recorder.Handler()
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	metricsSrv := &http.Server{
		Addr:              a.settings.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	metricsErr := make(chan error, 1)
	go func() {
		defer close(metricsErr)
		a.logger.Slog().Info("metrics server started", "addr", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- fmt.Errorf("metrics server: %w", err)
			cancel()
		}
	}()

	serveErr := a.router.Serve(ctx, a.settings.Server.Addr)

	shutdownCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), a.settings.Server.ShutdownTimeout)
	defer stop()

	return errors.Join(
		serveErr,
		metricsSrv.Shutdown(shutdownCtx),
		<-metricsErr,
	)
}

// close flushes telemetry and releases clients.
func (a *app) close(ctx context.Context) error {
	var errs []error
	if err := a.recorder.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.tracer.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.logger.Shutdown()

	return errors.Join(errs...)
}
