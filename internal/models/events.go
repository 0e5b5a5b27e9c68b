package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeProductAdded    = "PRODUCT_ADDED"
	EventTypePriceUpdated    = "PRICE_UPDATED"
	EventTypeReportGenerated = "REPORT_GENERATED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// ProductAddedEvent published when a newly scanned product is registered
type ProductAddedEvent struct {
	BaseEvent
	ProductID int64  `json:"product_id"`
	ScanCode  string `json:"scan_code"`
	Name      string `json:"name"`
}

// PriceUpdatedEvent published when a reconcile detects price drift
type PriceUpdatedEvent struct {
	BaseEvent
	ProductID int64               `json:"product_id"`
	Name      string              `json:"name"`
	OldPrice  decimal.NullDecimal `json:"old_price"`
	NewPrice  decimal.Decimal     `json:"new_price"`
}

// ReportGeneratedEvent published when a stocktake workbook is written
type ReportGeneratedEvent struct {
	BaseEvent
	Filename       string `json:"filename"`
	LineCount      int    `json:"line_count"`
	UnmatchedCount int    `json:"unmatched_count"`
}
