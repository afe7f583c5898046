package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ebay-lego-scraper/models"
	"ebay-lego-scraper/storage"
)

func writeSnapshot(t *testing.T, dir, setNumber string, totals ...float64) {
	t.Helper()
	w, err := storage.NewCSVWriter(dir)
	if err != nil {
		t.Fatal(err)
	}

	var records []*models.SaleRecord
	for i, total := range totals {
		price := decimal.NewFromFloat(total)
		records = append(records, &models.SaleRecord{
			Title:       "LEGO " + setNumber,
			ItemPrice:   price,
			ShippingFee: decimal.Zero,
			TotalPrice:  price,
			Currency:    "EUR",
			SoldDate:    time.Date(2025, 3, 1+i, 0, 0, 0, 0, time.UTC),
			Location:    "Deutschland",
			SetNumber:   setNumber,
		})
	}
	if _, err := w.WriteSnapshot(setNumber, records); err != nil {
		t.Fatal(err)
	}
}

func TestInsightStatistics(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "75257", 100, 120, 110)

	svc := NewInsightService(newTestLogger(), dir)
	report := svc.Generate([]string{"75257"}, nil)

	if report.SetsWithData != 1 {
		t.Fatalf("SetsWithData = %d; want 1", report.SetsWithData)
	}
	sr := report.Sets[0]
	if sr.ItemsFound != 3 {
		t.Errorf("ItemsFound = %d; want 3", sr.ItemsFound)
	}
	if sr.AvgTotalPrice.StringFixed(2) != "110.00" {
		t.Errorf("AvgTotalPrice = %s; want 110.00", sr.AvgTotalPrice.StringFixed(2))
	}
	if sr.MedianTotal.StringFixed(2) != "110.00" {
		t.Errorf("MedianTotal = %s; want 110.00", sr.MedianTotal.StringFixed(2))
	}
}

func TestInsightMedianEvenCount(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "75257", 100, 200, 120, 140)

	svc := NewInsightService(newTestLogger(), dir)
	report := svc.Generate([]string{"75257"}, nil)

	if got := report.Sets[0].MedianTotal.StringFixed(2); got != "130.00" {
		t.Errorf("MedianTotal = %s; want 130.00", got)
	}
}

func TestInsightInventoryComparison(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "75257", 100, 120)

	inventory := []models.InventoryItem{
		{SetNumber: "75257", AveragePrice: decimal.NewFromInt(90), HasPrice: true},
	}

	svc := NewInsightService(newTestLogger(), dir)
	report := svc.Generate([]string{"75257"}, inventory)

	sr := report.Sets[0]
	if !sr.HasInventory {
		t.Fatal("inventory price was not matched")
	}
	if sr.PriceDiff.StringFixed(2) != "20.00" {
		t.Errorf("PriceDiff = %s; want 20.00", sr.PriceDiff.StringFixed(2))
	}
}

func TestInsightMissingData(t *testing.T) {
	svc := NewInsightService(newTestLogger(), t.TempDir())
	report := svc.Generate([]string{"75257", "40632"}, nil)

	if report.SetsWithData != 0 {
		t.Errorf("SetsWithData = %d; want 0", report.SetsWithData)
	}
	if report.SetsWithoutData != 2 {
		t.Errorf("SetsWithoutData = %d; want 2", report.SetsWithoutData)
	}
}
