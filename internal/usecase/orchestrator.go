package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/vxgen/ProductCheck/internal/chrono"
	"github.com/vxgen/ProductCheck/internal/config"
	"github.com/vxgen/ProductCheck/internal/kafka"
	"github.com/vxgen/ProductCheck/internal/models"
	"github.com/vxgen/ProductCheck/internal/watchlist"
	"github.com/vxgen/ProductCheck/pkg/logger/log"
	"golang.org/x/sync/semaphore"
)

type scanTarget struct {
	position int
	sku      string
	url      string
}

type scanOrchestrator struct {
	conf       *config.Config
	store      watchlist.Store
	capture    CaptureService
	extraction ExtractionService
	publisher  kafka.Publisher
	pacer      Pacer
	clock      chrono.API
	tracker    *ProgressTracker

	// one scan at a time against the store
	sem     *semaphore.Weighted
	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewScanOrchestrator(
	conf *config.Config,
	store watchlist.Store,
	capture CaptureService,
	extraction ExtractionService,
	publisher kafka.Publisher,
	pacer Pacer,
	clock chrono.API,
	tracker *ProgressTracker,
) ScanOrchestrator {
	return &scanOrchestrator{
		conf:       conf,
		store:      store,
		capture:    capture,
		extraction: extraction,
		publisher:  publisher,
		pacer:      pacer,
		clock:      clock,
		tracker:    tracker,
		sem:        semaphore.NewWeighted(1),
	}
}

func (o *scanOrchestrator) Run(ctx context.Context, positions []int, observer ProgressObserver) (models.ScanStatus, error) {
	st, targets, err := o.begin(positions)
	if err != nil {
		return models.ScanStatus{}, err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	o.setCancel(cancel)
	return o.execute(ctx, st, targets, observer), nil
}

func (o *scanOrchestrator) Start(ctx context.Context, positions []int) (models.ScanStatus, error) {
	st, targets, err := o.begin(positions)
	if err != nil {
		return models.ScanStatus{}, err
	}
	// detached from the triggering request, cancelled only through Cancel
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	o.setCancel(cancel)
	go func() {
		defer cancel()
		o.execute(runCtx, st, targets, nil)
	}()
	return st, nil
}

func (o *scanOrchestrator) Current() (models.ScanStatus, bool) {
	return o.tracker.Snapshot()
}

// Cancel stops the running scan before its next item. It reports whether
// a scan was running.
func (o *scanOrchestrator) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel == nil {
		return false
	}
	o.cancel()
	return true
}

func (o *scanOrchestrator) Running() bool {
	return o.running.Load()
}

// Exclusive runs fn while holding the scan slot, so no scan can start or
// run during fn.
func (o *scanOrchestrator) Exclusive(fn func() error) error {
	if !o.sem.TryAcquire(1) {
		return models.ErrScanInProgress
	}
	defer o.sem.Release(1)
	return fn()
}

func (o *scanOrchestrator) release() {
	o.running.Store(false)
	o.sem.Release(1)
}

func (o *scanOrchestrator) setCancel(cancel context.CancelFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancel = cancel
}

// begin takes the scan slot and resolves positions to targets. Missing
// credentials fail here, before any item is touched.
func (o *scanOrchestrator) begin(positions []int) (models.ScanStatus, []scanTarget, error) {
	if !o.sem.TryAcquire(1) {
		return models.ScanStatus{}, nil, models.ErrScanInProgress
	}
	o.running.Store(true)
	st, targets, err := o.prepare(positions)
	if err != nil {
		o.release()
		return models.ScanStatus{}, nil, err
	}
	o.tracker.begin(st)
	return st, targets, nil
}

func (o *scanOrchestrator) prepare(positions []int) (models.ScanStatus, []scanTarget, error) {
	if err := config.Validate(o.conf.Capture); err != nil {
		return models.ScanStatus{}, nil, err
	}
	if err := config.Validate(o.conf.Vision); err != nil {
		return models.ScanStatus{}, nil, err
	}

	items := o.store.List()
	positions, err := watchlist.NormalizePositions(positions, len(items))
	if err != nil {
		return models.ScanStatus{}, nil, err
	}
	targets := make([]scanTarget, 0, len(positions))
	for _, p := range positions {
		targets = append(targets, scanTarget{position: p, sku: items[p].SKU, url: items[p].URL})
	}

	return models.ScanStatus{
		ID:        uuid.NewString(),
		State:     models.ScanRunning,
		Positions: positions,
		Total:     len(positions),
		StartedAt: o.clock.Now(),
	}, targets, nil
}

func (o *scanOrchestrator) execute(ctx context.Context, st models.ScanStatus, targets []scanTarget, observer ProgressObserver) models.ScanStatus {
	defer o.release()
	defer o.setCancel(nil)

	ctx = log.WithFields(ctx, "scan_id", st.ID)
	log.Infow(ctx, "scan started", "total", len(targets))

	state := models.ScanComplete
	for i, t := range targets {
		if ctx.Err() != nil {
			state = models.ScanCancelled
			break
		}

		o.scanItem(ctx, st.ID, t)
		if observer != nil {
			observer(i+1, len(targets))
		}

		if i < len(targets)-1 {
			if err := o.pacer.Wait(ctx); err != nil {
				state = models.ScanCancelled
				break
			}
		}
	}

	final := o.tracker.finish(state, o.clock.Now())
	log.Infow(ctx, "scan finished", "state", final.State, "done", final.Done, "failed", final.Failed)
	return final
}

// scanItem runs capture and extraction for one target and merges the
// outcome in a single store update. Cancellation is not observed inside
// an item.
func (o *scanOrchestrator) scanItem(ctx context.Context, scanID string, t scanTarget) {
	itemCtx := log.WithFields(context.WithoutCancel(ctx), "position", t.position, "url", t.url)

	outcome, shot := o.observe(itemCtx, t)
	now := o.clock.Now()

	upd := models.WatchItemUpdate{
		Outcome:     &outcome,
		LastUpdated: &now,
	}
	if shot.OK() {
		upd.Thumbnail = shot.Thumbnail
		upd.PageSnapshot = shot.Screenshot
	}
	// keyed by url: positions taken at scan start may have shifted
	if err := o.store.UpdateByURL(t.url, upd); err != nil {
		log.Errorw(itemCtx, "merge scan result", "error", err)
	}
	o.tracker.advance(!outcome.IsOK())

	event := models.ScanEvent{
		ScanID:    scanID,
		Position:  t.position,
		SKU:       t.sku,
		URL:       t.url,
		Price:     outcome.DisplayText(),
		Outcome:   outcome.Kind.String(),
		Detail:    outcome.Detail,
		ScannedAt: now,
	}
	if err := o.publisher.Publish(itemCtx, event); err != nil {
		log.Warnw(itemCtx, "publish scan event", "error", err)
	}
	log.Infow(itemCtx, "item scanned", "outcome", outcome.Kind.String(), "price", outcome.DisplayText())
}

func (o *scanOrchestrator) observe(ctx context.Context, t scanTarget) (models.Outcome, CaptureResult) {
	shot, err := o.capture.Capture(ctx, t.url)
	if err != nil {
		return models.Failed(models.OutcomeOtherError, fmt.Errorf("capture: %w", err)), CaptureResult{}
	}
	if !shot.OK() {
		return shot.Outcome, shot
	}

	outcome, err := o.extraction.Extract(ctx, shot.Screenshot, t.sku)
	if err != nil {
		return models.Failed(models.OutcomeOtherError, fmt.Errorf("extract: %w", err)), shot
	}
	return outcome, shot
}
