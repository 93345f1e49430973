package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"taskflow/internal/common"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// HTTPErrorHandler renders every error as {"error": message}. Application errors carry their
// own status; echo errors keep theirs; anything else is logged and hidden behind a 500.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, message := resolveError(c, err)

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, errorResponse{Error: message})
	}
	if err != nil {
		slog.ErrorContext(c.Request().Context(), "failed to write error response", "error", err)
	}
}

func resolveError(c echo.Context, err error) (int, string) {
	ctx := c.Request().Context()

	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus()
		if status >= http.StatusInternalServerError {
			slog.ErrorContext(ctx, "request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"error", err,
			)
		}
		return status, appErr.Message
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Code >= http.StatusInternalServerError {
			slog.ErrorContext(ctx, "request failed", "path", c.Path(), "error", err)
		}
		if msg, ok := httpErr.Message.(string); ok && msg != "" {
			return httpErr.Code, msg
		}
		return httpErr.Code, http.StatusText(httpErr.Code)
	}

	slog.ErrorContext(ctx, "unhandled error",
		"method", c.Request().Method,
		"path", c.Path(),
		"error", err,
	)
	return http.StatusInternalServerError, "internal server error"
}
