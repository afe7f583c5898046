package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"ebay-lego-scraper/models"
	"ebay-lego-scraper/utils"
)

// Columns is the canonical output column order. The reporting side reads
// these files back, so order and names are part of the contract.
var Columns = []string{
	"Title", "Item Price", "Shipping Fee", "Total Price",
	"End Time", "Currency", "Location", "URL", "Set Number",
}

const (
	filePrefix  = "Ebay_Lego"
	dateLayout  = "2006-01-02"
	stampLayout = "20060102_150405"
)

// CSVWriter persists per-set sale snapshots as dated CSV files.
type CSVWriter struct {
	dir string

	// Now is the clock used for the filename timestamp; tests override it.
	Now func() time.Time
}

// NewCSVWriter ensures the data directory exists and returns a writer.
func NewCSVWriter(dir string) (*CSVWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("csv: create data dir: %w", err)
	}
	return &CSVWriter{dir: dir, Now: time.Now}, nil
}

// WriteSnapshot sorts the collection by sold date descending, drops duplicate
// sales, and writes the result to a file named after the set and the observed
// date span. Each run is a full replacement snapshot — no append semantics.
// An empty collection writes nothing and returns an empty path.
func (w *CSVWriter) WriteSnapshot(setNumber string, records []*models.SaleRecord) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	sorted := make([]*models.SaleRecord, 0, len(records))
	seen := utils.NewStringSet()
	for _, rec := range records {
		if seen.Add(saleKey(rec)) {
			sorted = append(sorted, rec)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SoldDate.After(sorted[j].SoldDate)
	})

	earliest := sorted[len(sorted)-1].SoldDate
	latest := sorted[0].SoldDate

	name := fmt.Sprintf("%s_%s_%s_%s_%s.csv",
		filePrefix, setNumber,
		earliest.Format(dateLayout), latest.Format(dateLayout),
		w.Now().Format(stampLayout))
	path := filepath.Join(w.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("csv: create file %q: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(Columns); err != nil {
		return "", fmt.Errorf("csv: write header: %w", err)
	}

	for _, rec := range sorted {
		row := []string{
			rec.Title,
			rec.ItemPrice.StringFixed(2),
			rec.ShippingFee.StringFixed(2),
			rec.TotalPrice.StringFixed(2),
			rec.SoldDate.Format(dateLayout),
			rec.Currency,
			rec.Location,
			rec.SourceURL,
			rec.SetNumber,
		}
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("csv: write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("csv: flush: %w", err)
	}
	return path, nil
}

// saleKey identifies a sale for dedup purposes: same title, same price, same
// day means the same observed transaction.
func saleKey(rec *models.SaleRecord) string {
	return fmt.Sprintf("%s|%s|%s", rec.Title, rec.ItemPrice.StringFixed(2), rec.SoldDate.Format(dateLayout))
}

// FindLatest returns the newest snapshot file for a set. Filenames embed the
// generation timestamp, so the lexicographically greatest match is the latest.
func FindLatest(dir, setNumber string) (string, bool) {
	pattern := filepath.Join(dir, fmt.Sprintf("%s_%s_*.csv", filePrefix, setNumber))
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return "", false
	}
	sort.Strings(matches)
	return matches[len(matches)-1], true
}

// ReadSnapshot loads a previously written snapshot back into records.
func ReadSnapshot(path string) ([]*models.SaleRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: read %q: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}

	var records []*models.SaleRecord
	for _, row := range rows[1:] {
		itemPrice, err := decimal.NewFromString(row[col["Item Price"]])
		if err != nil {
			return nil, fmt.Errorf("csv: bad item price in %q: %w", path, err)
		}
		shipping, err := decimal.NewFromString(row[col["Shipping Fee"]])
		if err != nil {
			return nil, fmt.Errorf("csv: bad shipping fee in %q: %w", path, err)
		}
		total, err := decimal.NewFromString(row[col["Total Price"]])
		if err != nil {
			return nil, fmt.Errorf("csv: bad total price in %q: %w", path, err)
		}
		soldDate, err := time.Parse(dateLayout, row[col["End Time"]])
		if err != nil {
			return nil, fmt.Errorf("csv: bad end time in %q: %w", path, err)
		}

		records = append(records, &models.SaleRecord{
			Title:       row[col["Title"]],
			ItemPrice:   itemPrice,
			ShippingFee: shipping,
			TotalPrice:  total,
			SoldDate:    soldDate,
			Currency:    row[col["Currency"]],
			Location:    row[col["Location"]],
			SourceURL:   row[col["URL"]],
			SetNumber:   row[col["Set Number"]],
		})
	}
	return records, nil
}
