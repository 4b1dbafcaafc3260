package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shopstack/itemstore/internal/apperr"
	"github.com/shopstack/itemstore/internal/logging"
	"github.com/shopstack/itemstore/internal/response"
)

const genericErrorMessage = "Internal server error"

// ErrorHandler translates escaped failures into client responses.
// Operational classified errors surface their own message and status;
// everything else gets the fixed generic payload so raw messages and
// stacks never reach the client. The interceptor already reported any
// failure it saw, so this handler reports only failures from requests
// that carry no request identity (skip-path requests).
func ErrorHandler(log *logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		id, _ := c.Get(RequestIDKey).(string)
		if id == "" {
			log.Report(logging.NewRequestID(), apperr.Wrap(err))
		}

		var ce *apperr.Error
		if errors.As(err, &ce) {
			if ce.Operational {
				_ = response.Error(c, ce.Status, ce.Message, string(ce.Category))
				return
			}
			_ = response.Error(c, http.StatusInternalServerError, genericErrorMessage, "")
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := http.StatusText(he.Code)
			if m, ok := he.Message.(string); ok {
				msg = m
			}
			_ = response.Error(c, he.Code, msg, "")
			return
		}

		_ = response.Error(c, http.StatusInternalServerError, genericErrorMessage, "")
	}
}
