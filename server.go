package main

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"reqecho/inspect"
)

const (
	jsonPrefix = "/json"
	rawPrefix  = "/raw"
	healthPath = "/healthz"
)

type route uint

const (
	routeNotFound route = iota
	routeIndex
	routeJSON
	routeRaw
	routeHealth
	routeMetrics
)

var routeNames = map[route]string{
	routeNotFound: "not_found",
	routeIndex:    "index",
	routeJSON:     "json",
	routeRaw:      "raw",
	routeHealth:   "health",
	routeMetrics:  "metrics",
}

func (r route) String() string { return routeNames[r] }

type EchoServer struct {
	logger    *zap.Logger
	cfg       *Config
	metrics   *serverMetrics
	version   string
	accessLog bool
}

func NewEchoServer(logger *zap.Logger, cfg *Config, version string) *EchoServer {
	s := &EchoServer{
		logger:    logger,
		cfg:       cfg,
		version:   version,
		accessLog: cfg.Logging.Access,
	}
	if cfg.Metrics.Enabled {
		s.metrics = newServerMetrics()
	}
	return s
}

// matchPrefix reports whether path is prefix itself or lies below it.
func matchPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// resolve picks the route for path. For the raw route it also returns the
// first path segment after the prefix, which selects the sections.
func (s *EchoServer) resolve(path string) (route, string) {
	switch {
	case matchPrefix(path, jsonPrefix):
		return routeJSON, ""
	case matchPrefix(path, rawPrefix):
		suffix := strings.TrimPrefix(strings.TrimPrefix(path, rawPrefix), "/")
		if i := strings.IndexByte(suffix, '/'); i >= 0 {
			suffix = suffix[:i]
		}
		return routeRaw, suffix
	case path == healthPath:
		return routeHealth, ""
	case s.metrics != nil && path == s.cfg.Metrics.Path:
		return routeMetrics, ""
	case path == "/":
		return routeIndex, ""
	}
	return routeNotFound, ""
}

func (s *EchoServer) HandleEcho(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	rt, suffix := s.resolve(string(ctx.Path()))

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered from panic.", zap.Any("panic", r), zap.String("route", rt.String()))
			ctx.ResetBody()
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		}
		s.observe(ctx, rt, time.Since(start))
	}()

	switch rt {
	case routeJSON:
		s.echo(ctx, jsonResponseWriter{})
	case routeRaw:
		s.echo(ctx, rawResponseWriter{selector: inspect.SelectorFromSuffix(suffix)})
	case routeHealth:
		writeJSON(ctx, fasthttp.StatusOK, healthResponse{Status: "ok", Version: s.version})
	case routeMetrics:
		s.metrics.handler(ctx)
	case routeIndex:
		ctx.SetContentType(inspect.ContentTypeRaw)
		ctx.SetBodyString(usage)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetContentType(inspect.ContentTypeRaw)
		ctx.SetBodyString(fmt.Sprintf("Not found: %s\n", ctx.Path()))
	}
}

func (s *EchoServer) echo(ctx *fasthttp.RequestCtx, w responseWriter) {
	req := inspect.Normalize(readRequest(ctx))

	if s.metrics != nil {
		s.metrics.bodySize.Observe(float64(len(req.Body)))
	}

	if err := w.WriteRequest(ctx, req); err != nil {
		s.logger.Error("Failed to render request.", zap.Error(err))
		writeJSON(ctx, fasthttp.StatusInternalServerError, errorResponse{Detail: err.Error()})
	}
}

func (s *EchoServer) observe(ctx *fasthttp.RequestCtx, rt route, d time.Duration) {
	status := ctx.Response.StatusCode()
	if s.metrics != nil && rt != routeMetrics {
		s.metrics.observe(rt, status, d)
	}
	if s.accessLog {
		s.logger.Debug("Request handled.",
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("path", ctx.Path()),
			zap.String("route", rt.String()),
			zap.Int("status", status),
			zap.Duration("duration", d),
		)
	}
}

func (s *EchoServer) httpServer() *fasthttp.Server {
	return &fasthttp.Server{
		Handler:            s.HandleEcho,
		Name:               s.cfg.Server.Name,
		ReadTimeout:        s.cfg.Server.ReadTimeout,
		WriteTimeout:       s.cfg.Server.WriteTimeout,
		MaxRequestBodySize: s.cfg.Server.MaxRequestBodySize,
		StreamRequestBody:  s.cfg.Server.StreamRequestBody,
	}
}

// Serve accepts connections on ln until ctx is cancelled, then shuts the
// server down gracefully.
func (s *EchoServer) Serve(ctx context.Context, ln net.Listener) error {
	srv := s.httpServer()

	errc := make(chan error, 1)
	go func() {
		if s.cfg.TLSEnabled() {
			errc <- srv.ServeTLS(ln, s.cfg.Server.TLS.CertFile, s.cfg.Server.TLS.KeyFile)
			return
		}
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down.")
	if err := srv.Shutdown(); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	// Shutdown only closes listeners Serve has already registered.
	_ = ln.Close()
	return <-errc
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *EchoServer) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr(), err)
	}
	s.logger.Info("Starting reqecho.",
		zap.String("addr", ln.Addr().String()),
		zap.Bool("tls", s.cfg.TLSEnabled()),
		zap.Bool("metrics", s.metrics != nil),
		zap.String("version", s.version),
	)
	return s.Serve(ctx, ln)
}
