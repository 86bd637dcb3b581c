package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Controller interface {
	WatchlistController
	ScanController
	Health(c echo.Context) error
}

type controller struct {
	WatchlistController
	ScanController
}

func NewController(wc WatchlistController, sc ScanController) Controller {
	return &controller{
		WatchlistController: wc,
		ScanController:      sc,
	}
}

func (h *controller) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "productcheck",
	})
}
