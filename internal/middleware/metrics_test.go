package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCountsPanickingRequests(t *testing.T) {
	e := echo.New()
	e.Use(Metrics())
	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{DisableErrorHandler: true}))
	e.GET("/api/items", func(c echo.Context) error {
		panic("blew up")
	})

	counter := requestsTotal.WithLabelValues(http.MethodGet, "/api/items", "500")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Fatalf("panicking request not counted: %v -> %v", before, got)
	}
}

func TestMetricsCountsClassifiedStatus(t *testing.T) {
	e := echo.New()
	e.Use(Metrics())
	e.GET("/api/items/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound)
	})

	counter := requestsTotal.WithLabelValues(http.MethodGet, "/api/items/:id", "404")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/42", nil))

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Fatalf("404 not counted under its route template: %v -> %v", before, got)
	}
}
