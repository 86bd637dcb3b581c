package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vxgen/ProductCheck/internal/models"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var domainErrors = []errorMapping{
	{models.ErrInvalidPosition, http.StatusBadRequest, "invalid_position"},
	{models.ErrInvalidURL, http.StatusBadRequest, "invalid_url"},
	{models.ErrEmptyQuery, http.StatusBadRequest, "empty_query"},
	{models.ErrNotFound, http.StatusNotFound, "not_found"},
	{models.ErrScanInProgress, http.StatusConflict, "scan_in_progress"},
	{models.ErrNoActiveQuery, http.StatusConflict, "no_active_query"},
	{models.ErrMissingCredentials, http.StatusPreconditionFailed, "missing_credentials"},
}

// ToResponseError maps domain errors to their HTTP status. Unknown errors
// become 500.
func ToResponseError(err error) *ResponseError {
	var re *ResponseError
	if errors.As(err, &re) {
		return re
	}
	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			return &ResponseError{
				Status:       m.status,
				Err:          err,
				ErrorCode:    m.code,
				ErrorMessage: err.Error(),
			}
		}
	}
	return &ResponseError{Status: http.StatusInternalServerError, Err: err}
}

// ErrorHandler return custom http error handler.
func ErrorHandler(log Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if err == nil || c.Response().Committed {
			return
		}

		var resp *ResponseError
		var he *echo.HTTPError
		switch {
		case errors.As(err, &he):
			resp = &ResponseError{Status: he.Code, Err: err, ErrorMessage: fmt.Sprint(he.Message)}
		case errors.Is(err, context.Canceled) && c.Request().Context().Err() == context.Canceled:
			// client went away
			resp = &ResponseError{Status: 499, Err: err}
		default:
			resp = ToResponseError(err)
		}

		if resp.Status == http.StatusNotFound && isNotFoundHandler(c.Handler()) {
			resp.ErrorMessage = "no route matched"
		}

		if err := c.JSON(resp.Status, resp); err != nil {
			log.Errorw("could not response", "code", resp.Status, "response_body", resp)
		}
	}
}
