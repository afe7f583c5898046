package ebay

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-resty/resty/v2"

	"ebay-lego-scraper/config"
	"ebay-lego-scraper/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Transport fetches one rendered search-results page. The pipeline never
// manages connections, headers or proxies itself — it only asks for page HTML.
type Transport interface {
	FetchPage(ctx context.Context, pageURL string) (string, error)
	Close()
}

// NewTransport picks the transport implementation from config: "browser"
// renders pages in headless Chrome, "http" fetches the raw markup directly.
func NewTransport(cfg *config.Config, logger *utils.Logger) (Transport, error) {
	switch cfg.Transport {
	case "http":
		return newHTTPTransport(cfg), nil
	case "browser", "":
		return newBrowserTransport(cfg, logger)
	default:
		return nil, fmt.Errorf("transport: unknown mode %q", cfg.Transport)
	}
}

// browserTransport renders pages in a headless Chrome instance. Each fetch
// runs in its own tab so page state never leaks between fetches.
type browserTransport struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	timeout     time.Duration
	logger      *utils.Logger
}

func newBrowserTransport(cfg *config.Config, logger *utils.Logger) (*browserTransport, error) {
	chromeBin := findChromeBinary(cfg.ChromeBin)
	logger.Info("[transport] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("lang", "de-DE"),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	silentCtx, cancelSilent := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	allocCtx = silentCtx

	return &browserTransport{
		allocCtx: allocCtx,
		cancelAlloc: func() {
			cancelSilent()
			cancelAlloc()
		},
		timeout: time.Duration(cfg.PageTimeoutSec) * time.Second,
		logger:  logger,
	}, nil
}

// FetchPage navigates a fresh tab to the results page, waits for the result
// list to materialize within the bounded timeout, and returns the page HTML.
func (t *browserTransport) FetchPage(parent context.Context, pageURL string) (string, error) {
	ctx, cancel := chromedp.NewContext(t.allocCtx)
	defer cancel()

	ctx, cancelTimeout := context.WithTimeout(ctx, t.timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(ctx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(2*time.Second),
		chromedp.WaitReady("ul.srp-results", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("browser fetch %s: %w", pageURL, err)
	}
	return html, nil
}

func (t *browserTransport) Close() {
	t.cancelAlloc()
}

// httpTransport fetches the raw page markup without a browser. Good enough
// for markup variants that do not require script execution.
type httpTransport struct {
	client *resty.Client
}

func newHTTPTransport(cfg *config.Config) *httpTransport {
	client := resty.New().
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept-Language", "de-DE,de;q=0.9").
		SetTimeout(time.Duration(cfg.PageTimeoutSec) * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second).
		SetRetryMaxWaitTime(2 * time.Second)

	return &httpTransport{client: client}
}

func (t *httpTransport) FetchPage(ctx context.Context, pageURL string) (string, error) {
	resp, err := t.client.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return "", fmt.Errorf("http fetch %s: %w", pageURL, err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("http fetch %s: status %d", pageURL, resp.StatusCode())
	}
	return string(resp.Body()), nil
}

func (t *httpTransport) Close() {}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
