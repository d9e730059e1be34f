// Package server exposes dictionary lookups over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"dictlookup/internal/array"
	"dictlookup/internal/config"
	"dictlookup/internal/dictionary"
	"dictlookup/internal/reader"
)

const shutdownTimeout = 10 * time.Second

// Server owns one reader pool per configured dictionary.
type Server struct {
	echo    *echo.Echo
	address string
	catalog *dictionary.Catalog
	pools   map[string]*reader.Pool
	logger  zerolog.Logger
}

// New builds the HTTP app. Every configured dictionary must already be in
// catalog. A nil registry disables the /metrics endpoint and reader metrics.
func New(cfg *config.Config, catalog *dictionary.Catalog, resolver reader.Resolver, registry *prometheus.Registry, logger zerolog.Logger) (*Server, error) {
	var metrics *reader.Metrics
	if registry != nil {
		metrics = reader.NewMetrics(registry)
	}

	s := &Server{
		address: cfg.Server.Address,
		catalog: catalog,
		pools:   make(map[string]*reader.Pool, len(cfg.Dictionaries)),
		logger:  logger,
	}
	for _, spec := range cfg.Dictionaries {
		pool, err := newPool(spec, catalog, resolver, cfg.Server.Readers, logger, metrics)
		if err != nil {
			return nil, err
		}
		s.pools[spec.Name] = pool
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := logger.Debug()
			if v.Error != nil {
				ev = logger.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	e.GET("/healthz", s.health)
	v1 := e.Group("/v1")
	v1.GET("/dictionaries", s.listDictionaries)
	v1.POST("/dictionaries/:name/lookup", s.lookup)
	if registry != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}
	s.echo = e
	return s, nil
}

// newPool binds readers for every configured attribute of spec, typed from
// the loaded dictionary.
func newPool(spec config.Dictionary, catalog *dictionary.Catalog, resolver reader.Resolver, size int, logger zerolog.Logger, metrics *reader.Metrics) (*reader.Pool, error) {
	d, err := catalog.Get(spec.Name)
	if err != nil {
		return nil, err
	}
	sources := make([]string, len(spec.Attributes))
	fields := make([]array.Field, len(spec.Attributes))
	for i, a := range spec.Attributes {
		f, err := d.Attribute(a.Name)
		if err != nil {
			return nil, err
		}
		sources[i] = a.Name
		fields[i] = f
	}
	opts := []reader.Option{reader.WithLogger(logger), reader.WithMetrics(metrics)}
	pool, err := reader.NewPool(size, func() (*reader.Reader, error) {
		return reader.New(spec.Name, sources, fields, resolver, opts...)
	})
	if err != nil {
		return nil, fmt.Errorf("dictionary %s: %w", spec.Name, err)
	}
	return pool, nil
}

func (s *Server) Handler() http.Handler { return s.echo }

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info().Str("address", s.address).Msg("listening")
		errc <- s.echo.Start(s.address)
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
