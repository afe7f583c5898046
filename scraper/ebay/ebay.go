package ebay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ebay-lego-scraper/config"
	"ebay-lego-scraper/models"
	"ebay-lego-scraper/services"
	"ebay-lego-scraper/storage"
	"ebay-lego-scraper/utils"
)

// placeholderTitles are the promotional cards eBay injects as the first
// result on page 1. They are not listings.
var placeholderTitles = []string{"Shop on eBay", "Bei eBay einkaufen"}

// Scraper drives the per-set pagination loop: fetch a page, run every listing
// node through extract → normalize → filter, accumulate, decide continuation,
// and hand the finished collection to the snapshot writer.
type Scraper struct {
	cfg        *config.Config
	logger     *utils.Logger
	transport  Transport
	normalizer *services.Normalizer
	retry      *utils.RetryConfig
	writer     storage.SnapshotWriter
}

// New creates a ready-to-use Scraper. The writer may be nil, in which case
// collections are returned but not persisted.
func New(cfg *config.Config, logger *utils.Logger, transport Transport, writer storage.SnapshotWriter) *Scraper {
	return &Scraper{
		cfg:        cfg,
		logger:     logger,
		transport:  transport,
		normalizer: services.NewNormalizer(logger, cfg.Currency, cfg.TargetCountry),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			MaxDelay:    8 * time.Second,
			Logger:      logger,
		},
		writer: writer,
	}
}

// searchURL builds the sold-listings search URL for one result page. _sop=12
// pins newly-ended-first ordering, which the early-stop heuristic depends on.
func (s *Scraper) searchURL(setNumber string, page int) string {
	return fmt.Sprintf("%s/sch/i.html?_nkw=LEGO+%s&_sop=12&LH_Complete=1&LH_Sold=1&_pgn=%d",
		s.cfg.BaseURL, setNumber, page)
}

// ScrapeSet runs one set's pagination loop to completion and returns the
// accumulated in-window, deduplicated records. Fetch failures terminate the
// loop early with whatever has accumulated — partial results are kept.
func (s *Scraper) ScrapeSet(ctx context.Context, setNumber string) []*models.SaleRecord {
	window := services.NewWindow(time.Now(), s.cfg.WindowDays)
	filter := services.NewFilter(window)

	var records []*models.SaleRecord

	for page := 1; page <= s.cfg.MaxPages; page++ {
		pageURL := s.searchURL(setNumber, page)
		s.logger.Info("[ebay] Set %s — fetching page %d", setNumber, page)

		var html string
		err := s.retry.Do(fmt.Sprintf("set-%s-page-%d", setNumber, page), func() error {
			var fetchErr error
			html, fetchErr = s.transport.FetchPage(ctx, pageURL)
			return fetchErr
		})
		if err != nil {
			s.logger.Error("[ebay] Set %s — page %d failed, keeping %d records: %v",
				setNumber, page, len(records), err)
			break
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			s.logger.Error("[ebay] Set %s — page %d unparsable: %v", setNumber, page, err)
			break
		}

		items := doc.Find("li.s-item")
		if items.Length() == 0 {
			s.logger.Info("[ebay] Set %s — page %d has no listings, stopping", setNumber, page)
			break
		}

		hasNext := doc.Find("a.pagination__next").Length() > 0

		accepted, rejected := s.processPage(items, setNumber, page, filter, &records)
		s.logger.Info("[ebay] Set %s — page %d: %d accepted, %d rejected, %d total so far",
			setNumber, page, accepted, rejected, len(records))

		if filter.ShouldStop() {
			s.logger.Info("[ebay] Set %s — recency boundary crossed on page %d, stopping", setNumber, page)
			break
		}
		if !hasNext {
			s.logger.Info("[ebay] Set %s — no further pages", setNumber)
			break
		}

		time.Sleep(time.Duration(s.cfg.RateLimitMs) * time.Millisecond)
	}

	return records
}

// processPage runs every listing node on one page through the pipeline.
func (s *Scraper) processPage(items *goquery.Selection, setNumber string, page int,
	filter *services.Filter, records *[]*models.SaleRecord) (accepted, rejected int) {

	filter.StartPage()
	rejects := make(map[models.RejectReason]int)

	items.Each(func(idx int, node *goquery.Selection) {
		raw := extractListing(node)

		// eBay injects a promotional card as the first result on page 1 only.
		if page == 1 && idx == 0 && isPlaceholder(raw.Title) {
			s.logger.Debug("[ebay] Set %s — skipping placeholder card", setNumber)
			return
		}

		rec, reason, ok := s.normalizer.Normalize(raw, setNumber)
		if !ok {
			rejects[reason]++
			return
		}

		if reason, ok := filter.Admit(rec); !ok {
			rejects[reason]++
			return
		}

		*records = append(*records, rec)
		accepted++
	})

	for reason, count := range rejects {
		rejected += count
		s.logger.Debug("[ebay] Set %s — page %d: %d dropped (%s)", setNumber, page, count, reason)
	}
	return accepted, rejected
}

// ScrapeBatch scrapes each set number and returns one outcome per set, in
// input order. Sets failing the shape check are rejected before any fetch.
// Valid sets run in parallel workers; each run owns its seen-set, and each
// page fetch runs in its own browser tab. A single set's failure never
// prevents its siblings from completing.
func (s *Scraper) ScrapeBatch(ctx context.Context, setNumbers []string) []*models.ScrapeOutcome {
	pool := utils.NewWorkerPool(s.cfg.MaxConcurrency, s.cfg.RateLimitMs)
	sink := make(chan *models.ScrapeOutcome, len(setNumbers))

	for _, setNumber := range setNumbers {
		setNumber := strings.TrimSpace(setNumber)

		if !services.ValidateSetNumber(setNumber) {
			sink <- &models.ScrapeOutcome{
				SetNumber: setNumber,
				Err:       fmt.Errorf("invalid set number %q", setNumber),
			}
			continue
		}

		pool.Submit(func() {
			sink <- s.scrapeOne(ctx, setNumber)
		})
	}

	pool.Wait()
	close(sink)

	bySet := make(map[string]*models.ScrapeOutcome, len(setNumbers))
	for outcome := range sink {
		bySet[outcome.SetNumber] = outcome
	}

	outcomes := make([]*models.ScrapeOutcome, 0, len(setNumbers))
	for _, setNumber := range setNumbers {
		if o, found := bySet[strings.TrimSpace(setNumber)]; found {
			outcomes = append(outcomes, o)
		}
	}
	return outcomes
}

func (s *Scraper) scrapeOne(ctx context.Context, setNumber string) *models.ScrapeOutcome {
	outcome := &models.ScrapeOutcome{
		SetNumber: setNumber,
		Records:   s.ScrapeSet(ctx, setNumber),
	}

	if s.writer == nil || len(outcome.Records) == 0 {
		return outcome
	}

	path, err := s.writer.WriteSnapshot(setNumber, outcome.Records)
	if err != nil {
		outcome.Err = fmt.Errorf("persist set %s: %w", setNumber, err)
		return outcome
	}
	outcome.FilePath = path
	return outcome
}

func isPlaceholder(title string) bool {
	title = strings.TrimSpace(title)
	for _, placeholder := range placeholderTitles {
		if title == placeholder {
			return true
		}
	}
	return false
}
