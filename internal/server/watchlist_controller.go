package server

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vxgen/ProductCheck/internal/models"
	"github.com/vxgen/ProductCheck/internal/usecase"
)

type WatchlistController interface {
	Discover(c echo.Context, req usecase.DiscoverRequest) (usecase.DiscoverResult, error)
	DiscoverMore(c echo.Context, req struct{}) (usecase.DiscoverResult, error)
	ListItems(c echo.Context, req struct{}) ([]ItemView, error)
	AddItem(c echo.Context, req AddItemRequest) (AddItemResponse, error)
	RemoveItems(c echo.Context, req PositionsRequest) error
	Thumbnail(c echo.Context, req ThumbnailRequest) error
	Export(c echo.Context, req ExportRequest) error
}

type ItemView struct {
	Position     int    `json:"position"`
	SKU          string `json:"sku"`
	URL          string `json:"url"`
	Price        string `json:"price"`
	Outcome      string `json:"outcome"`
	LastUpdated  string `json:"last_updated"`
	HasThumbnail bool   `json:"has_thumbnail"`
}

type AddItemRequest struct {
	SKU string `json:"sku" validate:"required"`
	URL string `json:"url" validate:"required,weburl"`
}

type AddItemResponse struct {
	Inserted bool `json:"inserted"`
}

type PositionsRequest struct {
	Positions []int `json:"positions" validate:"required,min=1,dive,gte=0"`
}

type ThumbnailRequest struct {
	Position int `param:"position" validate:"gte=0"`
}

type ExportRequest struct {
	Positions []int `list:"positions" validate:"dive,gte=0"`
}

type watchlistController struct {
	watchlist usecase.WatchlistUsecase
}

func NewWatchlistController(watchlist usecase.WatchlistUsecase) WatchlistController {
	return &watchlistController{watchlist: watchlist}
}

func (h *watchlistController) Discover(c echo.Context, req usecase.DiscoverRequest) (usecase.DiscoverResult, error) {
	return h.watchlist.Discover(c.Request().Context(), req)
}

func (h *watchlistController) DiscoverMore(c echo.Context, _ struct{}) (usecase.DiscoverResult, error) {
	return h.watchlist.LoadMore(c.Request().Context())
}

func (h *watchlistController) ListItems(c echo.Context, _ struct{}) ([]ItemView, error) {
	items := h.watchlist.List(c.Request().Context())
	out := make([]ItemView, 0, len(items))
	for i, it := range items {
		out = append(out, toItemView(i, it))
	}
	return out, nil
}

func toItemView(pos int, it models.WatchItem) ItemView {
	return ItemView{
		Position:     pos,
		SKU:          it.SKU,
		URL:          it.URL,
		Price:        it.Price(),
		Outcome:      it.Outcome.Kind.String(),
		LastUpdated:  it.LastUpdatedText(),
		HasThumbnail: len(it.Thumbnail) > 0,
	}
}

func (h *watchlistController) AddItem(c echo.Context, req AddItemRequest) (AddItemResponse, error) {
	inserted, err := h.watchlist.AddManual(c.Request().Context(), req.SKU, req.URL)
	if err != nil {
		return AddItemResponse{}, err
	}
	return AddItemResponse{Inserted: inserted}, nil
}

func (h *watchlistController) RemoveItems(c echo.Context, req PositionsRequest) error {
	return h.watchlist.Remove(c.Request().Context(), req.Positions)
}

func (h *watchlistController) Thumbnail(c echo.Context, req ThumbnailRequest) error {
	img, err := h.watchlist.Thumbnail(c.Request().Context(), req.Position)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.Blob(http.StatusOK, "image/jpeg", img)
}

func (h *watchlistController) Export(c echo.Context, req ExportRequest) error {
	var buf bytes.Buffer
	if err := h.watchlist.Export(c.Request().Context(), &buf, req.Positions); err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="watchlist.csv"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
