package ebay

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ebay-lego-scraper/models"
)

// fieldStrategy is one way of locating a field inside a listing node. Per
// field, strategies are tried in order and the first non-empty result wins,
// so new marketplace markup variants are added to the list, not branched on.
type fieldStrategy struct {
	selector string
	attr     string // empty means element text
}

var (
	titleStrategies = []fieldStrategy{
		{selector: "div.s-item__title"},
		{selector: "h3.s-item__title"},
		{selector: "span[role=heading]"},
	}
	priceStrategies = []fieldStrategy{
		{selector: "span.s-item__price"},
	}
	shippingStrategies = []fieldStrategy{
		{selector: "span.s-item__shipping"},
		{selector: "span.s-item__logisticsCost"},
	}
	dateStrategies = []fieldStrategy{
		{selector: "span.s-item__caption--signal.POSITIVE"},
		{selector: "span.s-item__endedDate"},
		{selector: "div.s-item__ended-date"},
		{selector: "span.POSITIVE"},
	}
	conditionStrategies = []fieldStrategy{
		{selector: "span.SECONDARY_INFO"},
		{selector: "div.s-item__subtitle span.SECONDARY_INFO"},
	}
	locationStrategies = []fieldStrategy{
		{selector: "span.s-item__location"},
		{selector: "span.s-item__itemLocation"},
	}
	urlStrategies = []fieldStrategy{
		{selector: "a.s-item__link", attr: "href"},
	}
)

// extractListing pulls the raw field text out of one listing node. A missing
// field is an empty string, never an error — the normalizer decides what
// absence means for each field.
func extractListing(node *goquery.Selection) *models.RawListing {
	raw := &models.RawListing{
		Title:     firstNonEmpty(node, titleStrategies),
		PriceText: firstNonEmpty(node, priceStrategies),
		Shipping:  firstNonEmpty(node, shippingStrategies),
		DateText:  firstNonEmpty(node, dateStrategies),
		Condition: firstNonEmpty(node, conditionStrategies),
		Location:  firstNonEmpty(node, locationStrategies),
		URL:       firstNonEmpty(node, urlStrategies),
	}

	// Sold dates sometimes appear only as free text inside an untagged span.
	if raw.DateText == "" {
		raw.DateText = findSoldText(node)
	}

	return raw
}

func firstNonEmpty(node *goquery.Selection, strategies []fieldStrategy) string {
	for _, st := range strategies {
		sel := node.Find(st.selector).First()
		if sel.Length() == 0 {
			continue
		}
		var val string
		if st.attr != "" {
			val, _ = sel.Attr(st.attr)
		} else {
			val = sel.Text()
		}
		val = strings.TrimSpace(val)
		if val != "" {
			return val
		}
	}
	return ""
}

// findSoldText scans the node's spans and divs for "Verkauft"/"Beendet"
// phrasing when no tagged date element exists.
func findSoldText(node *goquery.Selection) string {
	var found string
	node.Find("span, div").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if strings.HasPrefix(text, "Verkauft") || strings.HasPrefix(text, "Beendet") {
			found = text
			return false
		}
		return true
	})
	return found
}
