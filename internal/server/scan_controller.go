package server

import (
	"github.com/labstack/echo/v4"
	"github.com/vxgen/ProductCheck/internal/models"
	"github.com/vxgen/ProductCheck/internal/server/middleware"
	"github.com/vxgen/ProductCheck/internal/usecase"
)

type ScanController interface {
	StartScan(c echo.Context, req StartScanRequest) (*middleware.Response, error)
	CurrentScan(c echo.Context, req struct{}) (models.ScanStatus, error)
	CancelScan(c echo.Context, req struct{}) (CancelScanResponse, error)
}

// StartScanRequest selects positions to scan; empty means all.
type StartScanRequest struct {
	Positions []int `json:"positions" validate:"dive,gte=0"`
}

type CancelScanResponse struct {
	Cancelled bool `json:"cancelled"`
}

type scanController struct {
	scans usecase.ScanOrchestrator
}

func NewScanController(scans usecase.ScanOrchestrator) ScanController {
	return &scanController{scans: scans}
}

func (h *scanController) StartScan(c echo.Context, req StartScanRequest) (*middleware.Response, error) {
	st, err := h.scans.Start(c.Request().Context(), req.Positions)
	if err != nil {
		return nil, err
	}
	return middleware.Accepted(st), nil
}

func (h *scanController) CurrentScan(c echo.Context, _ struct{}) (models.ScanStatus, error) {
	st, ok := h.scans.Current()
	if !ok {
		return models.ScanStatus{}, models.ErrNotFound
	}
	return st, nil
}

func (h *scanController) CancelScan(c echo.Context, _ struct{}) (CancelScanResponse, error) {
	return CancelScanResponse{Cancelled: h.scans.Cancel()}, nil
}
