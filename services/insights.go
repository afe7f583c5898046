package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ebay-lego-scraper/models"
	"ebay-lego-scraper/storage"
	"ebay-lego-scraper/utils"
)

// InsightService computes cross-set market statistics over the latest
// persisted snapshot of each set and compares them against inventory prices.
type InsightService struct {
	logger  *utils.Logger
	dataDir string
}

func NewInsightService(logger *utils.Logger, dataDir string) *InsightService {
	return &InsightService{logger: logger, dataDir: dataDir}
}

// Generate builds a market report for the given sets. Sets without a snapshot
// file are counted but produce no SetReport; partial data is fine.
func (s *InsightService) Generate(setNumbers []string, inventory []models.InventoryItem) *models.MarketReport {
	report := &models.MarketReport{GeneratedAt: time.Now()}

	invByNumber := make(map[string]models.InventoryItem, len(inventory))
	for _, item := range inventory {
		invByNumber[item.SetNumber] = item
	}

	for _, setNumber := range setNumbers {
		path, found := storage.FindLatest(s.dataDir, setNumber)
		if !found {
			s.logger.Warn("[insights] No market data found for set %s", setNumber)
			report.SetsWithoutData++
			continue
		}

		records, err := storage.ReadSnapshot(path)
		if err != nil || len(records) == 0 {
			s.logger.Warn("[insights] Unusable market data for set %s: %v", setNumber, err)
			report.SetsWithoutData++
			continue
		}

		totals := make([]decimal.Decimal, 0, len(records))
		shippings := make([]decimal.Decimal, 0, len(records))
		for _, rec := range records {
			totals = append(totals, rec.TotalPrice)
			shippings = append(shippings, rec.ShippingFee)
		}

		sr := &models.SetReport{
			SetNumber:     setNumber,
			ItemsFound:    len(records),
			AvgTotalPrice: mean(totals),
			MedianTotal:   median(totals),
			AvgShipping:   mean(shippings),
		}

		if item, ok := invByNumber[setNumber]; ok && item.HasPrice {
			sr.InventoryPrice = item.AveragePrice
			sr.PriceDiff = sr.AvgTotalPrice.Sub(item.AveragePrice)
			sr.HasInventory = true
		}

		report.Sets = append(report.Sets, sr)
		report.SetsWithData++
	}

	return report
}

// Print renders the report to stdout.
func (s *InsightService) Print(r *models.MarketReport) {
	sep := strings.Repeat("═", 62)
	thin := strings.Repeat("─", 62)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📊 LEGO MARKET REPORT — %s\033[0m\n", r.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("  Sets with market data    : \033[1m%d\033[0m\n", r.SetsWithData)
	fmt.Printf("  Sets without market data : \033[1m%d\033[0m\n\n", r.SetsWithoutData)

	for _, sr := range r.Sets {
		fmt.Printf("\033[1;33m  Set %s\033[0m (%d sales)\n", sr.SetNumber, sr.ItemsFound)
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  Average total price : \033[1;32m%s EUR\033[0m\n", sr.AvgTotalPrice.StringFixed(2))
		fmt.Printf("  Median total price  : \033[1;32m%s EUR\033[0m\n", sr.MedianTotal.StringFixed(2))
		fmt.Printf("  Average shipping    : %s EUR\n", sr.AvgShipping.StringFixed(2))
		if sr.HasInventory {
			color := "\033[1;32m"
			if sr.PriceDiff.IsNegative() {
				color = "\033[1;31m"
			}
			fmt.Printf("  My average price    : %s EUR\n", sr.InventoryPrice.StringFixed(2))
			fmt.Printf("  Market vs. mine     : %s%s EUR\033[0m\n", color, sr.PriceDiff.StringFixed(2))
		}
		fmt.Println()
	}

	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)
}

func mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(len(values)))).Round(2)
}

func median(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2)).Round(2)
}
