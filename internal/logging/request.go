package logging

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shopstack/itemstore/internal/apperr"
)

// Record type discriminators.
const (
	TypeRequest  = "request"
	TypeResponse = "response"
	TypeDatabase = "database"
)

// skipPathPrefixes are never request-logged: health checks and the usual
// static-asset probes.
var skipPathPrefixes = []string{
	"/health",
	"/metrics",
	"/favicon.ico",
	"/robots.txt",
	"/.well-known",
}

// ShouldLogRequest reports whether the path participates in request logging.
func ShouldLogRequest(path string) bool {
	for _, prefix := range skipPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

// NewRequestID returns a correlation token for one request: base-36 unix
// millis plus a random suffix. Good enough to join log lines, not
// cryptographic. Never blocks, never fails.
func NewRequestID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + uuid.NewString()[:8]
}

// RequestContext is the read-only per-request metadata derived from the
// inbound request. Optional fields stay empty and are omitted from records.
type RequestContext struct {
	Method      string
	URL         string
	Path        string
	Query       string
	UserAgent   string
	RemoteAddr  string
	ContentType string
	Referer     string
}

// ContextFromRequest derives a RequestContext. Pure; tolerant of missing
// optional headers.
func ContextFromRequest(r *http.Request) RequestContext {
	return RequestContext{
		Method:      r.Method,
		URL:         r.URL.String(),
		Path:        r.URL.Path,
		Query:       r.URL.RawQuery,
		UserAgent:   r.UserAgent(),
		RemoteAddr:  r.RemoteAddr,
		ContentType: r.Header.Get("Content-Type"),
		Referer:     r.Referer(),
	}
}

// LogRequest emits the arrival record for a request and returns the request
// id used (a fresh one when id is empty).
func (l *Logger) LogRequest(r *http.Request, id string) string {
	if id == "" {
		id = NewRequestID()
	}
	rc := ContextFromRequest(r)
	ev := l.Info().
		Str("type", TypeRequest).
		Str("request_id", id).
		Str("method", rc.Method).
		Str("url", rc.URL).
		Str("path", rc.Path)
	if rc.Query != "" {
		ev = ev.Str("query", rc.Query)
	}
	if rc.UserAgent != "" {
		ev = ev.Str("user_agent", rc.UserAgent)
	}
	if rc.RemoteAddr != "" {
		ev = ev.Str("remote_addr", rc.RemoteAddr)
	}
	if rc.ContentType != "" {
		ev = ev.Str("content_type", rc.ContentType)
	}
	if rc.Referer != "" {
		ev = ev.Str("referer", rc.Referer)
	}
	ev.Msg("request received")
	return id
}

// LogResponse emits the completion record paired with a LogRequest call.
// Duration is clamped to zero so clock adjustments never produce a
// negative value.
func (l *Logger) LogResponse(r *http.Request, id string, start time.Time, status int, size int64) {
	d := time.Since(start)
	if d < 0 {
		d = 0
	}
	ev := l.Info().
		Str("type", TypeResponse).
		Str("request_id", id).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int64("duration_ms", d.Milliseconds())
	if size > 0 {
		ev = ev.Int64("size", size)
	}
	ev.Msg("request completed")
}

// Report files one classified-error record correlated to the request.
func (l *Logger) Report(id string, e *apperr.Error) {
	ev := l.Error().
		Str("request_id", id).
		Str("category", string(e.Category)).
		Int("status", e.Status).
		Bool("operational", e.Operational)
	if len(e.Metadata) > 0 {
		ev = ev.Fields(e.Metadata)
	}
	ev.Msg(e.Message)
}
