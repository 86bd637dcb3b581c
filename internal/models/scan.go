package models

import "time"

type ScanState string

const (
	ScanRunning   ScanState = "running"
	ScanComplete  ScanState = "complete"
	ScanCancelled ScanState = "cancelled"
)

type ScanStatus struct {
	ID         string     `json:"id"`
	State      ScanState  `json:"state"`
	Positions  []int      `json:"positions"`
	Total      int        `json:"total"`
	Done       int        `json:"done"`
	Failed     int        `json:"failed"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// ScanEvent is one merged observation, published after each item.
type ScanEvent struct {
	ScanID    string    `json:"scan_id"`
	Position  int       `json:"position"`
	SKU       string    `json:"sku"`
	URL       string    `json:"url"`
	Price     string    `json:"price"`
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	ScannedAt time.Time `json:"scanned_at"`
}
