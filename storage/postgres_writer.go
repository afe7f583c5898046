package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"ebay-lego-scraper/models"
)

// PostgresWriter persists sale snapshots to PostgreSQL. Like the CSV writer,
// writing a set replaces that set's previous rows entirely.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS sales (
			id           SERIAL PRIMARY KEY,
			set_number   VARCHAR(10)   NOT NULL,
			title        TEXT          NOT NULL,
			item_price   NUMERIC(10,2) NOT NULL DEFAULT 0,
			shipping_fee NUMERIC(10,2) NOT NULL DEFAULT 0,
			total_price  NUMERIC(10,2) NOT NULL DEFAULT 0,
			currency     VARCHAR(3)    NOT NULL DEFAULT 'EUR',
			condition    TEXT          NOT NULL DEFAULT 'unknown',
			sold_date    DATE          NOT NULL,
			location     TEXT          NOT NULL DEFAULT '',
			url          TEXT          NOT NULL DEFAULT '',
			created_at   TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_sales_set_number ON sales(set_number);
		CREATE INDEX IF NOT EXISTS idx_sales_sold_date  ON sales(sold_date);
	`)
	return err
}

// WriteSet replaces a set's stored rows with the given collection.
func (pw *PostgresWriter) WriteSet(setNumber string, records []*models.SaleRecord) error {
	if _, err := pw.db.Exec("DELETE FROM sales WHERE set_number = $1", setNumber); err != nil {
		return fmt.Errorf("postgres: clear set %s: %w", setNumber, err)
	}
	if len(records) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := pw.insertBatch(records[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.SaleRecord) error {
	const fields = 10
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*fields)

	for idx, rec := range batch {
		base := idx * fields
		placeholders := make([]string, fields)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			rec.SetNumber, rec.Title,
			rec.ItemPrice.StringFixed(2), rec.ShippingFee.StringFixed(2), rec.TotalPrice.StringFixed(2),
			rec.Currency, rec.Condition, rec.SoldDate, rec.Location, rec.SourceURL)
	}

	query := fmt.Sprintf(`
		INSERT INTO sales (set_number, title, item_price, shipping_fee, total_price,
		                   currency, condition, sold_date, location, url)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	if err != nil {
		return fmt.Errorf("postgres: insert batch: %w", err)
	}
	return nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
