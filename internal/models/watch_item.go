package models

import "time"

const (
	NeverUpdated    = "Never"
	TimestampLayout = "2006-01-02 15:04:05"
)

// WatchItem is one tracked (label, store URL) pair. URL identifies the
// item inside a watchlist; SKU and URL never change after creation.
type WatchItem struct {
	SKU          string
	URL          string
	Outcome      Outcome
	LastUpdated  *time.Time
	Thumbnail    []byte
	PageSnapshot []byte
}

func NewWatchItem(sku, url string) WatchItem {
	return WatchItem{
		SKU:     sku,
		URL:     url,
		Outcome: Pending(),
	}
}

func (w WatchItem) Price() string {
	return w.Outcome.DisplayText()
}

func (w WatchItem) LastUpdatedText() string {
	if w.LastUpdated == nil {
		return NeverUpdated
	}
	return w.LastUpdated.Format(TimestampLayout)
}

// WatchItemUpdate is a partial merge into a WatchItem. Nil fields are
// left untouched.
type WatchItemUpdate struct {
	Outcome      *Outcome
	LastUpdated  *time.Time
	Thumbnail    []byte
	PageSnapshot []byte
}

func (u WatchItemUpdate) Apply(item *WatchItem) {
	if u.Outcome != nil {
		item.Outcome = *u.Outcome
	}
	if u.LastUpdated != nil {
		ts := *u.LastUpdated
		item.LastUpdated = &ts
	}
	if u.Thumbnail != nil {
		item.Thumbnail = u.Thumbnail
	}
	if u.PageSnapshot != nil {
		item.PageSnapshot = u.PageSnapshot
	}
}

// ExportRow is the flat export shape, columns in export order.
type ExportRow struct {
	SKU         string `csv:"sku" json:"sku"`
	Price       string `csv:"price" json:"price"`
	LastUpdated string `csv:"last_updated" json:"last_updated"`
	URL         string `csv:"url" json:"url"`
}

func (w WatchItem) ExportRow() ExportRow {
	return ExportRow{
		SKU:         w.SKU,
		Price:       w.Price(),
		LastUpdated: w.LastUpdatedText(),
		URL:         w.URL,
	}
}
