package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vxgen/ProductCheck/internal/models"
)

type noopLogger struct{}

func (noopLogger) Infow(string, ...interface{})  {}
func (noopLogger) Warnw(string, ...interface{})  {}
func (noopLogger) Errorw(string, ...interface{}) {}

type positionReq struct {
	Position int `param:"position" validate:"gte=0"`
}

func serve(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestWrapHandler(t *testing.T) {
	e := newEcho()
	e.HTTPErrorHandler = ErrorHandler(noopLogger{})

	e.GET("/items/:position", WrapHandler(func(c echo.Context, req positionReq) (map[string]int, error) {
		if req.Position > 2 {
			return nil, models.ErrInvalidPosition
		}
		return map[string]int{"position": req.Position}, nil
	}))
	e.DELETE("/items/:position", WrapHandler(func(c echo.Context, req positionReq) error {
		return nil
	}))
	e.POST("/scans", WrapHandler(func(c echo.Context, _ struct{}) (*Response, error) {
		return Accepted("queued"), nil
	}))
	e.GET("/busy", WrapHandler(func(c echo.Context, _ struct{}) (any, error) {
		return nil, models.ErrScanInProgress
	}))

	rec := serve(e, http.MethodGet, "/items/1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"position":1}}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/items/9")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"error_code":"invalid_position","error_message":"invalid watchlist position"}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/items/-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(e, http.MethodDelete, "/items/1")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(e, http.MethodPost, "/scans")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":"queued"}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/busy")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(e, http.MethodGet, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no route matched")
}

func TestWrapHandlerRejectsBadSignatures(t *testing.T) {
	for _, f := range []interface{}{
		"not a func",
		func(c echo.Context) error { return nil },
		func(c echo.Context, id int) error { return nil },
		func(c echo.Context, _ struct{}) (int, int) { return 0, 0 },
	} {
		_, err := wrapHandler(f)
		require.Error(t, err)
	}
}
