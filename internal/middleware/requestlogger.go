// Package middleware holds the request interceptor, the process-wide error
// handler and the HTTP metrics middleware.
package middleware

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shopstack/itemstore/internal/apperr"
	"github.com/shopstack/itemstore/internal/logging"
)

// RequestIDKey is the echo context key holding the request identity.
const RequestIDKey = "request_id"

// RequestLogger is the choke point every request passes through. Paths on
// the skip list go straight to the handler. Every other request gets a
// request identity, one arrival log, and exactly one completion log on
// every exit path. Failures are classified and reported, then returned
// unchanged: this middleware observes, it never swallows.
//
// Register it before Recover, and register Recover with its error handler
// disabled, so a panicking handler's error flows back through this
// middleware and gets the paired completion log and report.
func RequestLogger(log *logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !logging.ShouldLogRequest(req.URL.Path) {
				return next(c)
			}

			start := time.Now()
			id := logging.NewRequestID()
			c.Set(RequestIDKey, id)
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			log.LogRequest(req, id)

			err := next(c)
			if err == nil {
				log.LogResponse(req, id, start, c.Response().Status, c.Response().Size)
				return nil
			}

			// Echo's own HTTP errors (unknown route, method not allowed)
			// keep their status; only 5xx ones are worth a report.
			var he *echo.HTTPError
			if errors.As(err, &he) && !apperr.IsClassified(err) {
				log.LogResponse(req, id, start, he.Code, c.Response().Size)
				if he.Code >= 500 {
					log.Report(id, apperr.Wrap(err))
				}
				return err
			}

			ce := apperr.Wrap(err)
			log.LogResponse(req, id, start, ce.Status, c.Response().Size)
			log.Report(id, ce)
			return err
		}
	}
}
