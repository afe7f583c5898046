package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ebay-lego-scraper/models"
)

func sampleRecords() []*models.SaleRecord {
	mk := func(title string, price float64, day int) *models.SaleRecord {
		item := decimal.NewFromFloat(price)
		shipping := decimal.NewFromFloat(5.99)
		return &models.SaleRecord{
			Title:       title,
			ItemPrice:   item,
			ShippingFee: shipping,
			TotalPrice:  item.Add(shipping),
			Currency:    "EUR",
			Condition:   "Brandneu",
			SoldDate:    time.Date(2025, 2, day, 0, 0, 0, 0, time.UTC),
			Location:    "Deutschland",
			SourceURL:   "https://www.ebay.de/itm/1",
			SetNumber:   "75257",
		}
	}
	return []*models.SaleRecord{
		mk("LEGO 75257 A", 100, 3),
		mk("LEGO 75257 B", 120.5, 10),
		mk("LEGO 75257 C", 99.9, 7),
	}
}

func newTestWriter(t *testing.T) *CSVWriter {
	t.Helper()
	w, err := NewCSVWriter(t.TempDir())
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}
	w.Now = func() time.Time { return time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC) }
	return w
}

func TestWriteSnapshotFilename(t *testing.T) {
	w := newTestWriter(t)

	path, err := w.WriteSnapshot("75257", sampleRecords())
	if err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	want := "Ebay_Lego_75257_2025-02-03_2025-02-10_20250315_093000.csv"
	if filepath.Base(path) != want {
		t.Errorf("filename = %s; want %s", filepath.Base(path), want)
	}
}

func TestWriteSnapshotContent(t *testing.T) {
	w := newTestWriter(t)

	path, err := w.WriteSnapshot("75257", sampleRecords())
	if err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3 rows", len(lines))
	}
	if lines[0] != strings.Join(Columns, ",") {
		t.Errorf("header = %q", lines[0])
	}
	// rows sorted by sold date descending; prices formatted to 2 decimals
	if !strings.HasPrefix(lines[1], "LEGO 75257 B,120.50,5.99,126.49,2025-02-10") {
		t.Errorf("first row out of order or misformatted: %q", lines[1])
	}
	if !strings.HasPrefix(lines[3], "LEGO 75257 A,100.00,5.99,105.99,2025-02-03") {
		t.Errorf("last row out of order or misformatted: %q", lines[3])
	}
}

func TestWriteSnapshotDropsDuplicates(t *testing.T) {
	w := newTestWriter(t)

	records := sampleRecords()
	dup := *records[0]
	records = append(records, &dup)

	path, err := w.WriteSnapshot("75257", records)
	if err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3 unique rows", len(lines))
	}
	// duplicate sales collapse even when they arrive as distinct values
	want := "Ebay_Lego_75257_2025-02-03_2025-02-10_20250315_093000.csv"
	if filepath.Base(path) != want {
		t.Errorf("filename = %s; want %s", filepath.Base(path), want)
	}
}

func TestWriteSnapshotEmptyIsNoOp(t *testing.T) {
	w := newTestWriter(t)

	path, err := w.WriteSnapshot("40632", nil)
	if err != nil {
		t.Fatalf("WriteSnapshot(empty): %v", err)
	}
	if path != "" {
		t.Errorf("empty collection returned a path: %q", path)
	}
}

func TestWriteSnapshotIdempotentRows(t *testing.T) {
	w := newTestWriter(t)

	first, err := w.WriteSnapshot("75257", sampleRecords())
	if err != nil {
		t.Fatalf("first WriteSnapshot: %v", err)
	}

	w.Now = func() time.Time { return time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC) }
	second, err := w.WriteSnapshot("75257", sampleRecords())
	if err != nil {
		t.Fatalf("second WriteSnapshot: %v", err)
	}

	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)
	if string(a) != string(b) {
		t.Error("re-running against unchanged input must yield identical row content")
	}
}

func TestFindLatest(t *testing.T) {
	w := newTestWriter(t)

	if _, err := w.WriteSnapshot("75257", sampleRecords()); err != nil {
		t.Fatal(err)
	}
	w.Now = func() time.Time { return time.Date(2025, 3, 16, 8, 0, 0, 0, time.UTC) }
	newest, err := w.WriteSnapshot("75257", sampleRecords())
	if err != nil {
		t.Fatal(err)
	}

	got, found := FindLatest(w.dir, "75257")
	if !found {
		t.Fatal("FindLatest found nothing")
	}
	if got != newest {
		t.Errorf("FindLatest = %s; want %s", got, newest)
	}

	if _, found := FindLatest(w.dir, "40632"); found {
		t.Error("FindLatest matched a set that was never written")
	}
}

func TestReadSnapshotRoundTrip(t *testing.T) {
	w := newTestWriter(t)

	records := sampleRecords()
	path, err := w.WriteSnapshot("75257", records)
	if err != nil {
		t.Fatal(err)
	}

	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("got %d records, want %d", len(got), len(records))
	}

	// written sorted descending; newest first
	if got[0].Title != "LEGO 75257 B" {
		t.Errorf("first record = %q", got[0].Title)
	}
	if !got[0].TotalPrice.Equal(decimal.NewFromFloat(126.49)) {
		t.Errorf("TotalPrice = %s; want 126.49", got[0].TotalPrice)
	}
	if got[0].SoldDate.Format("2006-01-02") != "2025-02-10" {
		t.Errorf("SoldDate = %s", got[0].SoldDate.Format("2006-01-02"))
	}
}
