package storage

import "ebay-lego-scraper/models"

// SnapshotWriter persists one set's finished record collection as a full
// replacement snapshot. An empty collection is a no-op returning no path.
type SnapshotWriter interface {
	WriteSnapshot(setNumber string, records []*models.SaleRecord) (string, error)
}

// SaleStore is the interface any database backend must satisfy.
type SaleStore interface {
	WriteSet(setNumber string, records []*models.SaleRecord) error
	Close() error
}
