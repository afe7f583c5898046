package services

import (
	"fmt"
	"time"

	"ebay-lego-scraper/models"
	"ebay-lego-scraper/utils"
)

// staleStopThreshold is the number of out-of-window rejects on a single page,
// after at least one acceptance on that page, that signals the pagination loop
// to stop. Valid only because result ordering is date-descending.
const staleStopThreshold = 3

// Window is the recency boundary, fixed once at run start so the cutoff stays
// stable across a multi-page run.
type Window struct {
	Cutoff time.Time
}

// NewWindow computes the cutoff now − days, truncated to day resolution so
// the boundary day itself is admitted regardless of time-of-day.
func NewWindow(now time.Time, days int) Window {
	c := now.AddDate(0, 0, -days)
	return Window{Cutoff: time.Date(c.Year(), c.Month(), c.Day(), 0, 0, 0, 0, time.UTC)}
}

// Contains reports whether the sold date is inside the window. The boundary
// day itself is included.
func (w Window) Contains(soldDate time.Time) bool {
	return !soldDate.Before(w.Cutoff)
}

// Filter admits normalized records that are in-window and previously unseen.
// One Filter is scoped to a single set's run; it owns that run's seen-set and
// the per-page early-stop counters.
type Filter struct {
	window Window
	seen   *utils.StringSet

	pageAccepted int
	pageStale    int
}

// NewFilter creates a Filter for one set's run.
func NewFilter(window Window) *Filter {
	return &Filter{
		window: window,
		seen:   utils.NewStringSet(),
	}
}

// StartPage resets the per-page early-stop counters.
func (f *Filter) StartPage() {
	f.pageAccepted = 0
	f.pageStale = 0
}

// Admit decides whether a record enters the result collection.
func (f *Filter) Admit(rec *models.SaleRecord) (models.RejectReason, bool) {
	if !f.window.Contains(rec.SoldDate) {
		// Stale items only count toward the stop signal once the page has
		// produced a fresh one; a page of only stale items could be noise.
		if f.pageAccepted > 0 {
			f.pageStale++
		}
		return models.RejectStale, false
	}

	if !f.seen.Add(seenKey(rec)) {
		return models.RejectDuplicate, false
	}

	f.pageAccepted++
	return "", true
}

// ShouldStop reports whether the current page crossed the recency boundary
// hard enough that further pages are pointless.
func (f *Filter) ShouldStop() bool {
	return f.pageAccepted >= 1 && f.pageStale >= staleStopThreshold
}

// seenKey is the deduplication fingerprint: same title, same total-relevant
// price, same day means the same sale seen twice.
func seenKey(rec *models.SaleRecord) string {
	return fmt.Sprintf("%s|%s|%s",
		rec.Title,
		rec.ItemPrice.StringFixed(2),
		rec.SoldDate.Format("2006-01-02"),
	)
}
