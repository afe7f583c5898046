package services

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, header []string, rows [][]string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", inventorySheet); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}

	all := append([][]string{header}, rows...)
	for r, row := range all {
		for c, val := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(inventorySheet, cell, val); err != nil {
				t.Fatalf("set cell %s: %v", cell, err)
			}
		}
	}

	path := filepath.Join(t.TempDir(), "inventory.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func TestReadInventory(t *testing.T) {
	path := writeWorkbook(t,
		[]string{"Set", "Set Name", "Average price"},
		[][]string{
			{"75257", "Millennium Falcon", "120.50"},
			// numeric cells round-trip with a float tail
			{"40632.0", "Aragorn & Arwen", ""},
			// summary rows and malformed numbers are skipped, not errors
			{"Total", "", "999"},
			{"12", "too short to be a set number"},
			{""},
		},
	)

	items, err := ReadInventory(path, newTestLogger())
	if err != nil {
		t.Fatalf("ReadInventory: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	if items[0].SetNumber != "75257" {
		t.Errorf("item 0 set = %q; want 75257", items[0].SetNumber)
	}
	if items[0].SetName != "Millennium Falcon" {
		t.Errorf("item 0 name = %q", items[0].SetName)
	}
	if !items[0].HasPrice || items[0].AveragePrice.StringFixed(2) != "120.50" {
		t.Errorf("item 0 price = %s (has=%v); want 120.50", items[0].AveragePrice, items[0].HasPrice)
	}

	if items[1].SetNumber != "40632" {
		t.Errorf("item 1 set = %q; want 40632 with float tail stripped", items[1].SetNumber)
	}
	if items[1].HasPrice {
		t.Error("item 1 has no price cell but HasPrice is set")
	}
}

func TestReadInventoryMissingSetColumn(t *testing.T) {
	path := writeWorkbook(t,
		[]string{"Name", "Average price"},
		[][]string{{"Millennium Falcon", "120.50"}},
	)

	if _, err := ReadInventory(path, newTestLogger()); err == nil {
		t.Fatal("want error for workbook without a Set column")
	}
}

func TestReadInventoryMissingFile(t *testing.T) {
	if _, err := ReadInventory(filepath.Join(t.TempDir(), "absent.xlsx"), newTestLogger()); err == nil {
		t.Fatal("want error for missing workbook")
	}
}
