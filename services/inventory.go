package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"ebay-lego-scraper/models"
	"ebay-lego-scraper/utils"
)

const inventorySheet = "Overview Total"

// ReadInventory reads the reseller inventory workbook and returns the rows
// carrying a plausible set number. Rows without a usable number are skipped,
// not errors — the workbook mixes data with headers and totals.
func ReadInventory(path string, logger *utils.Logger) ([]models.InventoryItem, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("inventory: open %q: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(inventorySheet)
	if err != nil {
		return nil, fmt.Errorf("inventory: read sheet %q: %w", inventorySheet, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	col := make(map[string]int)
	for i, name := range rows[0] {
		col[strings.TrimSpace(name)] = i
	}
	setCol, found := col["Set"]
	if !found {
		return nil, fmt.Errorf("inventory: sheet %q has no 'Set' column", inventorySheet)
	}

	var items []models.InventoryItem
	for _, row := range rows[1:] {
		if setCol >= len(row) {
			continue
		}

		// Numeric cells round-trip as "75257.0"; strip the float tail.
		setNumber := strings.TrimSuffix(strings.TrimSpace(row[setCol]), ".0")
		if !ValidateSetNumber(setNumber) {
			continue
		}

		item := models.InventoryItem{SetNumber: setNumber}
		if nameCol, ok := col["Set Name"]; ok && nameCol < len(row) {
			item.SetName = strings.TrimSpace(row[nameCol])
		}
		if priceCol, ok := col["Average price"]; ok && priceCol < len(row) {
			if price, err := decimal.NewFromString(strings.TrimSpace(row[priceCol])); err == nil {
				item.AveragePrice = price
				item.HasPrice = true
			}
		}

		items = append(items, item)
	}

	logger.Info("[inventory] Found %d sets in %s", len(items), path)
	return items, nil
}
