package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ebay-lego-scraper/config"
	"ebay-lego-scraper/models"
	"ebay-lego-scraper/scraper/ebay"
	"ebay-lego-scraper/services"
	"ebay-lego-scraper/utils"
)

// Server is the thin HTTP front end over the scrape pipeline: it validates
// the requested set numbers, runs the batch, and renders outcomes as JSON.
type Server struct {
	cfg     *config.Config
	logger  *utils.Logger
	scraper *ebay.Scraper
}

func NewServer(cfg *config.Config, logger *utils.Logger, scraper *ebay.Scraper) *Server {
	return &Server{cfg: cfg, logger: logger, scraper: scraper}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/scrape", s.handleScrape)

	return r
}

// Run starts the HTTP server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("[web] Listening on %s", s.cfg.ServerAddr)
	return s.Router().Run(s.cfg.ServerAddr)
}

type scrapeResult struct {
	SetNumber    string               `json:"set_number"`
	Status       string               `json:"status"`
	Data         []*models.SaleRecord `json:"data"`
	Filepath     string               `json:"filepath,omitempty"`
	TotalItems   int                  `json:"total_items"`
	ErrorMessage string               `json:"error_message,omitempty"`
}

// handleScrape accepts whitespace-separated set numbers, rejects malformed
// ones up front, and scrapes the rest in parallel.
func (s *Server) handleScrape(c *gin.Context) {
	raw := c.PostForm("set_numbers")
	s.logger.Info("[web] Scrape request: %q", raw)

	var valid, invalid []string
	for _, number := range strings.Fields(raw) {
		if services.ValidateSetNumber(number) {
			valid = append(valid, number)
		} else {
			invalid = append(invalid, number)
		}
	}

	if len(valid) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "No valid set numbers provided. Invalid numbers: " + strings.Join(invalid, ", "),
		})
		return
	}

	outcomes := s.scraper.ScrapeBatch(c.Request.Context(), valid)

	results := make([]scrapeResult, 0, len(outcomes))
	for _, o := range outcomes {
		res := scrapeResult{
			SetNumber:  o.SetNumber,
			Status:     o.Status(),
			Data:       o.Records,
			Filepath:   o.FilePath,
			TotalItems: len(o.Records),
		}
		if o.Err != nil {
			res.ErrorMessage = o.Err.Error()
		}
		results = append(results, res)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          "success",
		"results":         results,
		"invalid_numbers": invalid,
	})
}
