package server

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopstack/itemstore/internal/apperr"
	"github.com/shopstack/itemstore/internal/config"
	"github.com/shopstack/itemstore/internal/handler"
	"github.com/shopstack/itemstore/internal/logging"
	"github.com/shopstack/itemstore/internal/middleware"
	"github.com/shopstack/itemstore/internal/repository"
	"github.com/shopstack/itemstore/internal/response"
	"github.com/shopstack/itemstore/internal/storage"
)

// Server holds the Echo app and dependencies.
type Server struct {
	Echo   *echo.Echo
	Config *config.Config
	Log    *logging.Logger
}

// New builds the Echo server and registers routes. The request interceptor
// is registered first (outermost) so that Recover-converted panics still
// produce a completion log.
func New(cfg *config.Config, log *logging.Logger, pool *pgxpool.Pool, store *storage.Client) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler(log)
	e.Server.ReadTimeout = time.Duration(cfg.Server.ReadTimeout) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.Server.WriteTimeout) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.Server.IdleTimeout) * time.Second

	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.Metrics())
	// Recover must hand the panic-derived error back up the chain instead of
	// writing the response itself, so the interceptor sees the failure and
	// files its completion log and report.
	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{DisableErrorHandler: true}))
	if origins := cfg.Server.AllowedOrigins(); len(origins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: origins}))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	h := handler.NewItemHandler(repository.NewItemRepository(pool))
	e.GET("/api/items", h.ListItems)
	e.POST("/api/items", h.CreateItem)
	e.GET("/api/items/:id", h.GetItem)
	e.PUT("/api/items/:id", h.UpdateItem)
	e.DELETE("/api/items/:id", h.DeleteItem)

	// Archived log batches, when the archive store is configured.
	if store != nil {
		e.GET("/admin/archive", func(c echo.Context) error {
			prefix := c.QueryParam("prefix")
			if prefix == "" {
				prefix = "logs/"
			}
			list, err := store.ListObjects(c.Request().Context(), prefix)
			if err != nil {
				return apperr.New(apperr.CategoryExternalAPI, "list archive failed").
					WithMeta("cause", err.Error())
			}
			if list == nil {
				list = []storage.ObjectInfo{}
			}
			return response.OK(c, map[string]any{"objects": list}, "")
		})
		e.GET("/admin/archive/content", func(c echo.Context) error {
			key := c.QueryParam("key")
			if key == "" {
				return apperr.Validation("query param key is required")
			}
			records, err := store.ReadBatch(c.Request().Context(), key)
			if err != nil {
				return apperr.New(apperr.CategoryExternalAPI, "read archive batch failed").
					WithMeta("cause", err.Error()).WithMeta("key", key)
			}
			return response.OK(c, map[string]any{"records": records, "key": key}, "")
		})
	}

	return &Server{Echo: e, Config: cfg, Log: log}
}

// Start starts the HTTP server. Blocks until the context is cancelled or
// the server fails. On context cancel, Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.Shutdown(context.Background())
	}()
	addr := ":" + s.Config.Server.Port
	return s.Echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}
