package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawListing holds the unprocessed field text extracted from one search-result
// node. Any field may be empty — absence is decided by the normalizer, not here.
type RawListing struct {
	Title     string
	PriceText string
	Shipping  string
	DateText  string
	Condition string
	Location  string
	URL       string
}

// SaleRecord is one confirmed, validated sale. Immutable once built.
type SaleRecord struct {
	Title       string
	ItemPrice   decimal.Decimal
	ShippingFee decimal.Decimal
	TotalPrice  decimal.Decimal
	Currency    string
	Condition   string
	SoldDate    time.Time
	Location    string
	SourceURL   string
	SetNumber   string
}

// RejectReason classifies why a listing was dropped from the results.
type RejectReason string

const (
	RejectInvalidTitle       RejectReason = "invalid_title"
	RejectUnparsablePrice    RejectReason = "unparsable_price"
	RejectUnparsableShipping RejectReason = "unparsable_shipping"
	RejectUnparsableDate     RejectReason = "unparsable_date"
	RejectStale              RejectReason = "stale"
	RejectDuplicate          RejectReason = "duplicate"
)

// ScrapeOutcome is the per-set result of one batch entry. Exactly one of three
// states: success (Records non-empty, FilePath set), empty (no records, no
// file), or error (Err non-nil, possibly with partial Records).
type ScrapeOutcome struct {
	SetNumber string
	Records   []*SaleRecord
	FilePath  string
	Err       error
}

// Status returns the outcome state as a wire-friendly string.
func (o *ScrapeOutcome) Status() string {
	switch {
	case o.Err != nil:
		return "error"
	case len(o.Records) == 0:
		return "no_results"
	default:
		return "success"
	}
}

// SetReport holds market statistics for a single set, computed over its latest
// persisted snapshot.
type SetReport struct {
	SetNumber      string
	ItemsFound     int
	AvgTotalPrice  decimal.Decimal
	MedianTotal    decimal.Decimal
	AvgShipping    decimal.Decimal
	InventoryPrice decimal.Decimal
	PriceDiff      decimal.Decimal
	HasInventory   bool
}

// MarketReport aggregates SetReports across a batch run.
type MarketReport struct {
	GeneratedAt     time.Time
	Sets            []*SetReport
	SetsWithData    int
	SetsWithoutData int
}

// InventoryItem is one row of the reseller inventory workbook.
type InventoryItem struct {
	SetNumber    string
	SetName      string
	AveragePrice decimal.Decimal
	HasPrice     bool
}
