package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ebay-lego-scraper/models"
)

var testNow = time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)

func saleOn(daysAgo int) *models.SaleRecord {
	d := testNow.AddDate(0, 0, -daysAgo)
	return &models.SaleRecord{
		Title:     "LEGO Star Wars 75257 Millennium Falcon",
		ItemPrice: decimal.NewFromInt(100),
		SoldDate:  time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
	}
}

func TestWindowBoundary(t *testing.T) {
	w := NewWindow(testNow, 30)

	if !w.Contains(saleOn(30).SoldDate) {
		t.Error("a sale exactly 30 days old must be inside the window")
	}
	if w.Contains(saleOn(31).SoldDate) {
		t.Error("a sale 31 days old must be outside the window")
	}
	if !w.Contains(saleOn(0).SoldDate) {
		t.Error("a sale from today must be inside the window")
	}
}

func TestFilterRejectsStale(t *testing.T) {
	f := NewFilter(NewWindow(testNow, 30))
	f.StartPage()

	reason, ok := f.Admit(saleOn(45))
	if ok {
		t.Fatal("stale record was admitted")
	}
	if reason != models.RejectStale {
		t.Errorf("reason = %s; want %s", reason, models.RejectStale)
	}
}

func TestFilterDeduplicates(t *testing.T) {
	f := NewFilter(NewWindow(testNow, 30))
	f.StartPage()

	if _, ok := f.Admit(saleOn(5)); !ok {
		t.Fatal("first record rejected")
	}

	reason, ok := f.Admit(saleOn(5))
	if ok {
		t.Fatal("identical (title, price, date) admitted twice")
	}
	if reason != models.RejectDuplicate {
		t.Errorf("reason = %s; want %s", reason, models.RejectDuplicate)
	}

	// same title and price on a different day is a different sale
	if _, ok := f.Admit(saleOn(6)); !ok {
		t.Error("record with different sold date was treated as duplicate")
	}
}

func TestFilterEarlyStopAfterAcceptance(t *testing.T) {
	f := NewFilter(NewWindow(testNow, 30))
	f.StartPage()

	f.Admit(saleOn(3))
	for i := 0; i < 3; i++ {
		f.Admit(saleOn(40 + i))
	}

	if !f.ShouldStop() {
		t.Error("3 stale rejects after an acceptance must signal stop")
	}
}

func TestFilterNoStopWithoutAcceptance(t *testing.T) {
	f := NewFilter(NewWindow(testNow, 30))
	f.StartPage()

	// stale items before any acceptance do not count toward the signal
	for i := 0; i < 5; i++ {
		f.Admit(saleOn(40 + i))
	}
	if f.ShouldStop() {
		t.Error("stale rejects without any acceptance must not signal stop")
	}
}

func TestFilterCountersResetPerPage(t *testing.T) {
	f := NewFilter(NewWindow(testNow, 30))

	f.StartPage()
	f.Admit(saleOn(3))
	f.Admit(saleOn(40))
	f.Admit(saleOn(41))

	f.StartPage()
	f.Admit(saleOn(4))
	f.Admit(saleOn(42))

	if f.ShouldStop() {
		t.Error("stale counts must not carry over between pages")
	}
}
