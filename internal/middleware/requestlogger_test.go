package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/shopstack/itemstore/internal/apperr"
	"github.com/shopstack/itemstore/internal/logging"
	"github.com/shopstack/itemstore/internal/response"
)

func newTestApp(t *testing.T) (*echo.Echo, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	log := &logging.Logger{
		Logger: zerolog.New(buf).With().Timestamp().
			Str("service", "itemstore").Str("environment", "test").Logger(),
	}
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = ErrorHandler(log)
	e.Use(RequestLogger(log))
	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{DisableErrorHandler: true}))
	return e, buf
}

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, raw := range bytes.Split(buf.Bytes(), []byte("\n")) {
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			t.Fatalf("log line is not JSON: %v (%q)", err, raw)
		}
		out = append(out, m)
	}
	return out
}

func byType(recs []map[string]any, typ string) []map[string]any {
	var out []map[string]any
	for _, r := range recs {
		if r["type"] == typ {
			out = append(out, r)
		}
	}
	return out
}

func TestSuccessLogsPairedRecords(t *testing.T) {
	e, buf := newTestApp(t)
	e.GET("/api/items", func(c echo.Context) error {
		return response.OK(c, map[string]any{"items": []string{}}, "")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest("GET", "/api/items", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	recs := records(t, buf)
	reqs, resps := byType(recs, "request"), byType(recs, "response")
	if len(reqs) != 1 || len(resps) != 1 {
		t.Fatalf("expected exactly one arrival and one completion, got %d/%d", len(reqs), len(resps))
	}
	id := reqs[0]["request_id"]
	if id == "" || id != resps[0]["request_id"] {
		t.Fatalf("identity mismatch: %v vs %v", id, resps[0]["request_id"])
	}
	if resps[0]["status"] != float64(200) {
		t.Fatalf("completion status = %v", resps[0]["status"])
	}
	if d := resps[0]["duration_ms"].(float64); d < 0 {
		t.Fatalf("duration must be non-negative, got %v", d)
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Fatal("request id header not set")
	}
}

func TestPlainErrorLogged500AndReraised(t *testing.T) {
	e, buf := newTestApp(t)
	e.GET("/api/items", func(c echo.Context) error {
		return errors.New("database exploded")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest("GET", "/api/items", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var body response.APIError
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body.Message != "Internal server error" {
		t.Fatalf("client must see the generic message, got %q", body.Message)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("database exploded")) {
		t.Fatal("raw error message leaked to the client")
	}

	recs := records(t, buf)
	resps := byType(recs, "response")
	if len(resps) != 1 || resps[0]["status"] != float64(500) {
		t.Fatalf("expected one completion with status 500, got %v", resps)
	}
	var report map[string]any
	for _, r := range recs {
		if r["level"] == "error" && r["category"] != nil {
			report = r
		}
	}
	if report == nil {
		t.Fatal("no classified-error report filed")
	}
	if report["category"] != "internal" || report["cause"] != "database exploded" {
		t.Fatalf("report must classify as internal with the original message preserved: %v", report)
	}
	if report["request_id"] != resps[0]["request_id"] {
		t.Fatal("report must carry the request identity")
	}
}

func TestClassifiedErrorPreservedVerbatim(t *testing.T) {
	e, buf := newTestApp(t)
	e.GET("/api/items/:id", func(c echo.Context) error {
		return apperr.NotFound("item not found")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest("GET", "/api/items/42", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	var body response.APIError
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body.Message != "item not found" {
		t.Fatalf("operational errors surface their own message, got %q", body.Message)
	}

	recs := records(t, buf)
	resps := byType(recs, "response")
	if len(resps) != 1 || resps[0]["status"] != float64(404) {
		t.Fatalf("expected one completion with status 404, got %v", resps)
	}
	var report map[string]any
	for _, r := range recs {
		if r["level"] == "error" {
			report = r
		}
	}
	if report == nil || report["category"] != "not_found" || report["status"] != float64(404) {
		t.Fatalf("classification must not be overwritten to internal/500: %v", report)
	}
}

func TestSkipPathBypassesLogging(t *testing.T) {
	e, buf := newTestApp(t)
	called := false
	e.GET("/health", func(c echo.Context) error {
		called = true
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if !called {
		t.Fatal("handler must still run for skipped paths")
	}
	if got := records(t, buf); len(got) != 0 {
		t.Fatalf("skip-path requests must not be logged, got %v", got)
	}
}

func TestSkipPathFailureStillReported(t *testing.T) {
	e, buf := newTestApp(t)
	e.GET("/health", func(c echo.Context) error {
		return errors.New("probe broke")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	recs := records(t, buf)
	if len(byType(recs, "request")) != 0 || len(byType(recs, "response")) != 0 {
		t.Fatal("skip-path requests get no arrival/completion records")
	}
	var report map[string]any
	for _, r := range recs {
		if r["level"] == "error" {
			report = r
		}
	}
	if report == nil || report["category"] != "internal" {
		t.Fatalf("escaped failures must still be reported with a fresh identity: %v", report)
	}
	if report["request_id"] == "" || report["request_id"] == nil {
		t.Fatal("report must carry an identity even without the interceptor")
	}
}

func TestPanickingHandlerStillGetsCompletionLog(t *testing.T) {
	e, buf := newTestApp(t)
	e.GET("/api/items", func(c echo.Context) error {
		panic("blew up")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest("GET", "/api/items", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	recs := records(t, buf)
	reqs, resps := byType(recs, "request"), byType(recs, "response")
	if len(reqs) != 1 || len(resps) != 1 {
		t.Fatalf("panic must still yield the paired completion log, got %d/%d", len(reqs), len(resps))
	}
	if resps[0]["status"] != float64(500) {
		t.Fatalf("completion status = %v", resps[0]["status"])
	}

	var report map[string]any
	for _, r := range recs {
		if r["level"] == "error" && r["category"] != nil {
			report = r
		}
	}
	if report == nil {
		t.Fatal("panicking handlers must still file a classified-error report")
	}
	if report["category"] != "internal" {
		t.Fatalf("panic reports classify as internal, got %v", report["category"])
	}
	if report["request_id"] != resps[0]["request_id"] {
		t.Fatal("panic report must carry the request identity")
	}
}

func TestUnknownRouteKeepsEchoStatus(t *testing.T) {
	e, buf := newTestApp(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest("GET", "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	recs := records(t, buf)
	resps := byType(recs, "response")
	if len(resps) != 1 || resps[0]["status"] != float64(404) {
		t.Fatalf("unknown routes complete with 404, got %v", resps)
	}
	for _, r := range recs {
		if r["level"] == "error" {
			t.Fatalf("a 404 route miss is not worth an error report: %v", r)
		}
	}
}
