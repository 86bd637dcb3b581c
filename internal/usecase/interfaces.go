package usecase

import (
	"context"
	"io"

	"github.com/vxgen/ProductCheck/internal/models"
)

type QueryPlanner interface {
	Plan(ctx context.Context, req PlanRequest) ([]string, error)
}

type CaptureService interface {
	Capture(ctx context.Context, url string) (CaptureResult, error)
}

type ExtractionService interface {
	Extract(ctx context.Context, screenshot []byte, sku string) (models.Outcome, error)
}

// ProgressObserver receives (done, total) after each scanned item.
type ProgressObserver func(done, total int)

type ScanOrchestrator interface {
	// Run scans positions synchronously and returns the final status.
	Run(ctx context.Context, positions []int, observer ProgressObserver) (models.ScanStatus, error)
	// Start runs the scan in the background and returns its initial status.
	Start(ctx context.Context, positions []int) (models.ScanStatus, error)
	Current() (models.ScanStatus, bool)
	Cancel() bool
	Running() bool
	// Exclusive runs fn while no scan is running and none can start.
	// It returns ErrScanInProgress without calling fn otherwise.
	Exclusive(fn func() error) error
}

type WatchlistUsecase interface {
	Discover(ctx context.Context, req DiscoverRequest) (DiscoverResult, error)
	LoadMore(ctx context.Context) (DiscoverResult, error)
	AddManual(ctx context.Context, sku, url string) (bool, error)
	List(ctx context.Context) []models.WatchItem
	Remove(ctx context.Context, positions []int) error
	Thumbnail(ctx context.Context, position int) ([]byte, error)
	Export(ctx context.Context, w io.Writer, positions []int) error
}
