package usecase

import (
	"sync"
	"time"

	"github.com/vxgen/ProductCheck/internal/models"
)

// ProgressTracker keeps the status of the latest scan for polling.
type ProgressTracker struct {
	mu     sync.RWMutex
	status *models.ScanStatus
}

func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{}
}

func (t *ProgressTracker) begin(st models.ScanStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = &st
}

func (t *ProgressTracker) advance(failed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == nil {
		return
	}
	t.status.Done++
	if failed {
		t.status.Failed++
	}
}

func (t *ProgressTracker) finish(state models.ScanState, at time.Time) models.ScanStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.State = state
	t.status.FinishedAt = &at
	return t.copyLocked()
}

// Snapshot returns a copy of the latest status, false if no scan has run.
func (t *ProgressTracker) Snapshot() (models.ScanStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.status == nil {
		return models.ScanStatus{}, false
	}
	return t.copyLocked(), true
}

func (t *ProgressTracker) copyLocked() models.ScanStatus {
	st := *t.status
	st.Positions = append([]int(nil), t.status.Positions...)
	if t.status.FinishedAt != nil {
		at := *t.status.FinishedAt
		st.FinishedAt = &at
	}
	return st
}
