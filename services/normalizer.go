package services

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"

	"ebay-lego-scraper/models"
	"ebay-lego-scraper/utils"
)

var (
	// digitRunRegexp captures maximal runs of digits in a listing title
	digitRunRegexp = regexp.MustCompile(`\d+`)
	// priceTokenRegexp captures the first numeric price token
	priceTokenRegexp = regexp.MustCompile(`\d+[.,]?\d*`)
	// setNumberRegexp is the shape check applied before any fetch is attempted
	setNumberRegexp = regexp.MustCompile(`^\d{4,6}$`)
	// dateNoiseRegexp strips sold/ended boilerplate around the date text
	dateNoiseRegexp = regexp.MustCompile(`(?i)\b(verkauft|beendet|sold|ended|am|on)\b:?`)
	// dayDotRegexp rewrites "6. Okt" into "6 Okt" without touching
	// fully numeric dates like "02.10.2024"
	dayDotRegexp = regexp.MustCompile(`(\d{1,2})\.\s`)
	// yearRegexp detects a four-digit year on the fuzzy-fallback path, where
	// no matched layout says whether the text carried one
	yearRegexp = regexp.MustCompile(`\b(19|20)\d{2}\b`)

	rangeMarkers    = []string{" bis ", " to ", " - "}
	freeMarkers     = []string{"kostenlos", "kostenfrei", "gratis", "free"}
	currencyMarkers = []string{"eur", "€"}
)

// germanMonths maps localized month tokens to canonical English names.
// Full forms come first so "Dezember" is not clipped to "Decz" by "Dez".
var germanMonths = [][2]string{
	{"Januar", "January"}, {"Jän", "Jan"},
	{"Februar", "February"},
	{"März", "March"}, {"Mär", "Mar"},
	{"April", "April"},
	{"Mai", "May"},
	{"Juni", "June"},
	{"Juli", "July"},
	{"August", "August"},
	{"September", "September"},
	{"Oktober", "October"}, {"Okt", "Oct"},
	{"November", "November"},
	{"Dezember", "December"}, {"Dez", "Dec"},
}

var dateLayouts = []string{
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 06",
	"2006-01-02",
	"02.01.2006",
	"2.1.2006",
}

var yearlessLayouts = []string{
	"2 Jan",
	"2 January",
	"Jan 2",
}

// ValidateSetNumber reports whether the input looks like a plausible LEGO set
// number. Failing inputs are rejected before any network activity.
func ValidateSetNumber(number string) bool {
	return setNumberRegexp.MatchString(strings.TrimSpace(number))
}

// Normalizer converts raw listing text into typed values. Each parse has an
// explicit failure policy: an unparsable field yields a typed rejection, never
// a panic or a half-built record.
type Normalizer struct {
	logger          *utils.Logger
	currency        string
	defaultLocation string

	// Now is the clock used for year resolution; tests override it.
	Now func() time.Time
}

// NewNormalizer creates a Normalizer for the given target currency and the
// country assumed when a listing carries no location text.
func NewNormalizer(logger *utils.Logger, currency, defaultLocation string) *Normalizer {
	return &Normalizer{
		logger:          logger,
		currency:        currency,
		defaultLocation: defaultLocation,
		Now:             time.Now,
	}
}

// Normalize turns a raw listing into a SaleRecord, or reports why it cannot.
func (n *Normalizer) Normalize(raw *models.RawListing, setNumber string) (*models.SaleRecord, models.RejectReason, bool) {
	title := normaliseText(raw.Title)

	if !IsValidTitle(title, setNumber) {
		n.logger.Debug("[normalize] title rejected for set %s: %q", setNumber, title)
		return nil, models.RejectInvalidTitle, false
	}

	itemPrice, ok := n.ParsePrice(raw.PriceText)
	if !ok {
		n.logger.Debug("[normalize] unparsable price %q for %q", raw.PriceText, title)
		return nil, models.RejectUnparsablePrice, false
	}

	shipping, ok := n.ParseShipping(raw.Shipping)
	if !ok {
		n.logger.Debug("[normalize] unparsable shipping %q for %q", raw.Shipping, title)
		return nil, models.RejectUnparsableShipping, false
	}

	soldDate, ok := n.ParseDate(raw.DateText)
	if !ok {
		// A sale of unknown date cannot be window-filtered safely.
		n.logger.Debug("[normalize] unparsable date %q for %q", raw.DateText, title)
		return nil, models.RejectUnparsableDate, false
	}

	condition := normaliseText(raw.Condition)
	if condition == "" {
		condition = "unknown"
	}
	location := normaliseText(raw.Location)
	if location == "" {
		location = n.defaultLocation
	}

	return &models.SaleRecord{
		Title:       title,
		ItemPrice:   itemPrice,
		ShippingFee: shipping,
		TotalPrice:  itemPrice.Add(shipping),
		Currency:    n.currency,
		Condition:   condition,
		SoldDate:    soldDate,
		Location:    location,
		SourceURL:   raw.URL,
		SetNumber:   setNumber,
	}, "", true
}

// IsValidTitle accepts a title iff it contains exactly one digit run of the
// same length as the target set number, and that run equals the target.
// Titles with unrelated same-length numbers (year, piece count, a second set)
// are ambiguous and rejected.
func IsValidTitle(title, target string) bool {
	runs := digitRunRegexp.FindAllString(title, -1)

	var sameLength []string
	for _, run := range runs {
		if len(run) == len(target) {
			sameLength = append(sameLength, run)
		}
	}

	if len(sameLength) != 1 {
		return false
	}
	return sameLength[0] == target
}

// ParsePrice extracts a currency amount from marketplace price text.
// Returns false for absent text, price ranges ("EUR 100 bis EUR 200") and
// text carrying more than one currency marker.
func (n *Normalizer) ParsePrice(raw string) (decimal.Decimal, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return decimal.Zero, false
	}

	for _, marker := range rangeMarkers {
		if strings.Contains(s, marker) {
			return decimal.Zero, false
		}
	}
	if countCurrencyMarkers(s) > 1 {
		return decimal.Zero, false
	}

	for _, marker := range currencyMarkers {
		s = strings.ReplaceAll(s, marker, "")
	}
	s = strings.TrimSpace(s)

	token := priceTokenRegexp.FindString(s)
	if token == "" {
		return decimal.Zero, false
	}
	token = strings.ReplaceAll(token, ",", ".")

	price, err := decimal.NewFromString(token)
	if err != nil {
		return decimal.Zero, false
	}
	return price, true
}

// ParseShipping normalizes shipping text to a fee. Absent text and explicit
// free-shipping markers both mean exactly 0.
func (n *Normalizer) ParseShipping(raw string) (decimal.Decimal, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return decimal.Zero, true
	}
	for _, marker := range freeMarkers {
		if strings.Contains(s, marker) {
			return decimal.Zero, true
		}
	}
	return n.ParsePrice(raw)
}

// ParseDate resolves localized sold-date text to a calendar date. The text
// mixes German month names with "Verkauft"/"Beendet" phrasing and usually
// omits the year; a month/day that would land in the future is rolled back a
// year. Unparsable text returns false.
func (n *Normalizer) ParseDate(raw string) (time.Time, bool) {
	s := normaliseText(raw)
	if s == "" {
		return time.Time{}, false
	}

	s = dateNoiseRegexp.ReplaceAllString(s, " ")
	for _, m := range germanMonths {
		s = strings.ReplaceAll(s, m[0], m[1])
	}
	s = dayDotRegexp.ReplaceAllString(s, "$1 ")
	s = strings.Trim(normaliseText(s), " ,.")
	if s == "" {
		return time.Time{}, false
	}

	// Whether the text carried a year is decided by which layout matched, not
	// by sniffing digits: "20 Feb 24" has a real (two-digit) year even though
	// no four-digit run appears in it.
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return n.resolveYear(t, true), true
		}
	}
	for _, layout := range yearlessLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return n.resolveYear(t, false), true
		}
	}

	// Last resort for formats the layout list does not anticipate.
	if t, err := dateparse.ParseAny(s); err == nil {
		return n.resolveYear(t, yearRegexp.MatchString(s)), true
	}

	return time.Time{}, false
}

// resolveYear fills in the current year for year-less dates and rolls back
// one year when that would place the sale in the future.
func (n *Normalizer) resolveYear(t time.Time, hadYear bool) time.Time {
	now := n.Now()
	if !hadYear {
		t = time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		if t.After(now) {
			t = t.AddDate(-1, 0, 0)
		}
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func countCurrencyMarkers(s string) int {
	count := 0
	for _, marker := range currencyMarkers {
		count += strings.Count(s, marker)
	}
	return count
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
