// Package server exposes the documentation catalog and read-only views of
// functions and secrets as JSON over HTTP, plus health and metrics endpoints.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/systmms/fnconsole/internal/catalog"
	"github.com/systmms/fnconsole/internal/logging"
	"github.com/systmms/fnconsole/internal/resources"
)

// Options wires the server's collaborators. Functions and Secrets may be nil
// when no record store is configured; their routes then answer 503.
type Options struct {
	Catalog   *catalog.Catalog
	Functions *resources.FunctionClient
	Secrets   *resources.SecretClient
	Gatherer  prometheus.Gatherer
	Logger    *logging.Logger
}

// New builds the router.
func New(opts Options) *echo.Echo {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = 30 * time.Second
	e.Server.WriteTimeout = 60 * time.Second
	e.Server.IdleTimeout = 60 * time.Second
	e.Server.ReadHeaderTimeout = 5 * time.Second

	useGlobalMiddlewares(e, opts.Logger)

	h := &handlers{opts: opts}
	e.GET("/healthz", h.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))

	docs := e.Group("/api/docs")
	docs.GET("", h.docsIndex)
	docs.GET("/search", h.docsSearch)
	docs.GET("/topics/:id", h.docsTopic)
	docs.GET("/endpoints/:id", h.docsEndpoint)
	docs.GET("/:category", h.docsCategory)

	api := e.Group("/api")
	api.GET("/functions", h.listFunctions)
	api.GET("/functions/:id", h.getFunction)
	api.GET("/secrets", h.listSecrets)
	api.GET("/secrets/:id", h.getSecret)

	return e
}

func useGlobalMiddlewares(e *echo.Echo, logger *logging.Logger) {
	e.Use(
		middleware.RequestID(),
		middleware.Recover(),
		middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			LogURI:     true,
			LogStatus:  true,
			LogMethod:  true,
			LogLatency: true,
			LogError:   true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				if v.Error != nil || v.Status >= http.StatusInternalServerError {
					logger.Error("%s %s -> %d (%s): %v", v.Method, v.URI, v.Status, v.Latency, v.Error)
				} else {
					logger.Debug("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
				}
				return nil
			},
		}),
	)
}

// Run serves e on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, e *echo.Echo, addr string, logger *logging.Logger) error {
	grp, ctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		logger.Info("Serving on %s", addr)
		// ErrServerClosed is the normal result of Shutdown.
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	grp.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Debug("Shutting down HTTP server")
		return e.Shutdown(shutdownCtx)
	})

	return grp.Wait()
}
