package usecase

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/jszwec/csvutil"
	"github.com/vxgen/ProductCheck/internal/config"
	"github.com/vxgen/ProductCheck/internal/models"
	"github.com/vxgen/ProductCheck/internal/watchlist"
	"github.com/vxgen/ProductCheck/pkg/logger/log"
)

type DiscoverRequest struct {
	Query     string   `json:"query" validate:"required"`
	Worldwide bool     `json:"worldwide"`
	Blacklist []string `json:"blacklist"`
}

type DiscoverResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// discoveryCursor remembers the last query so "load more" can continue it.
type discoveryCursor struct {
	req  DiscoverRequest
	next int
}

type watchlistUsecase struct {
	conf    *config.Config
	store   watchlist.Store
	planner QueryPlanner
	scans   ScanOrchestrator

	mu     sync.Mutex
	cursor *discoveryCursor
}

func NewWatchlistUsecase(
	conf *config.Config,
	store watchlist.Store,
	planner QueryPlanner,
	scans ScanOrchestrator,
) WatchlistUsecase {
	return &watchlistUsecase{
		conf:    conf,
		store:   store,
		planner: planner,
		scans:   scans,
	}
}

// Discover queries the initial result pages and adds every new URL as a
// Pending item labelled with the query.
func (uc *watchlistUsecase) Discover(ctx context.Context, req DiscoverRequest) (DiscoverResult, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return DiscoverResult{}, models.ErrEmptyQuery
	}
	if req.Blacklist == nil {
		req.Blacklist = uc.conf.Search.Blacklist
	}

	offsets := uc.conf.Search.InitialOffsets
	res, err := uc.discoverPages(ctx, req, offsets)
	if err != nil {
		return DiscoverResult{}, err
	}

	next := 1
	if len(offsets) > 0 {
		next = offsets[len(offsets)-1] + uc.conf.Search.ResultsPerPage
	}
	uc.mu.Lock()
	uc.cursor = &discoveryCursor{req: req, next: next}
	uc.mu.Unlock()
	return res, nil
}

// LoadMore continues the last discovery by one load-more step.
func (uc *watchlistUsecase) LoadMore(ctx context.Context) (DiscoverResult, error) {
	uc.mu.Lock()
	if uc.cursor == nil {
		uc.mu.Unlock()
		return DiscoverResult{}, models.ErrNoActiveQuery
	}
	cur := *uc.cursor
	uc.mu.Unlock()

	step := uc.conf.Search.LoadMoreStep
	perPage := uc.conf.Search.ResultsPerPage
	if perPage <= 0 {
		perPage = 10
	}
	var offsets []int
	for off := cur.next; off < cur.next+step; off += perPage {
		offsets = append(offsets, off)
	}

	res, err := uc.discoverPages(ctx, cur.req, offsets)
	if err != nil {
		return DiscoverResult{}, err
	}

	uc.mu.Lock()
	if uc.cursor != nil && uc.cursor.req.Query == cur.req.Query {
		uc.cursor.next = cur.next + step
	}
	uc.mu.Unlock()
	return res, nil
}

func (uc *watchlistUsecase) discoverPages(ctx context.Context, req DiscoverRequest, offsets []int) (DiscoverResult, error) {
	ctx = log.WithFields(ctx, "query", req.Query)
	var res DiscoverResult
	for _, off := range offsets {
		links, err := uc.planner.Plan(ctx, PlanRequest{
			Query:     req.Query,
			Start:     off,
			Worldwide: req.Worldwide,
			Blacklist: req.Blacklist,
		})
		if err != nil {
			return DiscoverResult{}, err
		}
		for _, link := range links {
			if uc.store.Add(models.NewWatchItem(req.Query, link)) {
				res.Added++
			} else {
				res.Skipped++
			}
		}
	}
	log.Infow(ctx, "discovery done", "offsets", offsets, "added", res.Added, "skipped", res.Skipped)
	return res, nil
}

func (uc *watchlistUsecase) AddManual(ctx context.Context, sku, rawURL string) (bool, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false, fmt.Errorf("%w: %q", models.ErrInvalidURL, rawURL)
	}
	inserted := uc.store.Add(models.NewWatchItem(strings.TrimSpace(sku), u.String()))
	log.Infow(ctx, "manual item", "url", u.String(), "inserted", inserted)
	return inserted, nil
}

func (uc *watchlistUsecase) List(_ context.Context) []models.WatchItem {
	return uc.store.List()
}

// Remove drops items by position. Positions shift afterwards, so removal
// holds the scan slot and is refused while a scan holds a position set.
func (uc *watchlistUsecase) Remove(ctx context.Context, positions []int) error {
	remove := func() error { return uc.store.RemoveAt(positions...) }
	var err error
	if uc.scans != nil {
		err = uc.scans.Exclusive(remove)
	} else {
		err = remove()
	}
	if err != nil {
		return err
	}
	log.Infow(ctx, "items removed", "positions", positions)
	return nil
}

func (uc *watchlistUsecase) Thumbnail(_ context.Context, position int) ([]byte, error) {
	item, err := uc.store.Get(position)
	if err != nil {
		return nil, err
	}
	if len(item.Thumbnail) == 0 {
		return nil, models.ErrNotFound
	}
	return item.Thumbnail, nil
}

// Export writes the selected items as CSV with columns
// sku, price, last_updated, url.
func (uc *watchlistUsecase) Export(_ context.Context, w io.Writer, positions []int) error {
	items := uc.store.List()
	positions, err := watchlist.NormalizePositions(positions, len(items))
	if err != nil {
		return err
	}
	rows := make([]models.ExportRow, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, items[p].ExportRow())
	}

	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(models.ExportRow{}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
