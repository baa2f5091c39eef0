package scraper

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"pricescout/logger"
	"pricescout/pkg/errors"
)

const (
	browserPageTimeout = 60 * time.Second
	scrollPasses       = 4
	scrollPause        = 700 * time.Millisecond
	loadMoreClicks     = 3
)

// load-more button labels seen across AU storefront themes
var loadMoreLabels = []string{"Load more", "Show more", "View more"}

// BrowserRenderer drives a headless Chromium instance for storefronts that
// assemble their listings client side. One browser is shared across scrapes;
// each Fetch gets its own page.
type BrowserRenderer struct {
	browser *rod.Browser
	log     *logger.Logger
}

// NewBrowserRenderer launches the browser. bin optionally points at a
// Chromium binary; empty means rod's managed download.
func NewBrowserRenderer(bin string) (*BrowserRenderer, error) {
	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Leakless(false)
	if bin != "" {
		l = l.Bin(bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, errors.NewRender("", "failed to launch browser", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, errors.NewRender("", "failed to connect to browser", err)
	}

	return &BrowserRenderer{
		browser: browser,
		log:     logger.ForBrowser(),
	}, nil
}

// Close shuts the shared browser down
func (r *BrowserRenderer) Close() {
	if r.browser != nil {
		if err := r.browser.Close(); err != nil {
			r.log.Warn().Err(err).Msg("Browser close failed")
		}
	}
}

// Fetch renders the page, triggers lazy loading, and returns the resulting
// DOM along with any product-looking JSON responses the page fetched while
// rendering.
func (r *BrowserRenderer) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	// Each fetch runs in its own incognito context so concurrent scrapes
	// never share cookies or session state.
	incognito, err := r.browser.Incognito()
	if err != nil {
		return nil, errors.NewRender("", "failed to create incognito context", err)
	}
	// Disposing the context also closes its pages, over the browser's own
	// connection, so targets are released even when the fetch timed out.
	defer func() {
		if err := incognito.Close(); err != nil {
			r.log.Debug().Err(err).Msg("Incognito context close failed")
		}
	}()

	page, err := incognito.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, errors.NewRender("", "failed to open browser page", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, browserPageTimeout)
	defer cancel()
	page = page.Context(timeoutCtx)

	apiRecords := r.captureAPIResponses(page)

	if err := page.Navigate(pageURL); err != nil {
		return nil, errors.NewRender("", "navigation failed", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, errors.NewRender("", "page load failed", err)
	}

	// Best effort only. Busy storefronts keep analytics connections open
	// and never go fully idle.
	waitIdle := page.WaitRequestIdle(2*time.Second, nil, nil, nil)
	waitIdle()

	r.scrollThrough(page)
	r.clickLoadMore(page)

	html, err := page.HTML()
	if err != nil {
		return nil, errors.NewRender("", "failed to read rendered HTML", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errors.NewParsing("", "failed to parse rendered HTML", err)
	}

	return &Page{Doc: doc, APIRecords: apiRecords()}, nil
}

// captureAPIResponses subscribes to network responses before navigation and
// collects product records from JSON bodies. The returned closure stops the
// capture and hands back whatever was collected.
func (r *BrowserRenderer) captureAPIResponses(page *rod.Page) func() []map[string]interface{} {
	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		r.log.Debug().Err(err).Msg("Network capture unavailable")
		return func() []map[string]interface{} { return nil }
	}

	var mu sync.Mutex
	var records []map[string]interface{}
	done := make(chan struct{})

	go func() {
		defer close(done)
		page.EachEvent(func(e *proto.NetworkResponseReceived) {
			if !isProductAPIResponse(e.Response) {
				return
			}
			body, err := proto.NetworkGetResponseBody{RequestID: e.RequestID}.Call(page)
			if err != nil {
				return
			}
			if found := ProductRecordsFromJSON([]byte(body.Body)); len(found) > 0 {
				mu.Lock()
				records = append(records, found...)
				mu.Unlock()
			}
		})()
	}()

	return func() []map[string]interface{} {
		// EachEvent unwinds when the page context ends or the page closes;
		// give it a moment, then take what we have
		select {
		case <-done:
		case <-time.After(200 * time.Millisecond):
		}
		mu.Lock()
		defer mu.Unlock()
		return records
	}
}

func isProductAPIResponse(resp *proto.NetworkResponse) bool {
	if resp == nil {
		return false
	}
	mime := strings.ToLower(resp.MIMEType)
	if !strings.Contains(mime, "json") {
		return false
	}
	lower := strings.ToLower(resp.URL)
	for _, token := range []string{"product", "search", "catalog", "listing", "graphql"} {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// scrollThrough nudges lazy loaders by scrolling the viewport in passes
func (r *BrowserRenderer) scrollThrough(page *rod.Page) {
	for i := 0; i < scrollPasses; i++ {
		if _, err := page.Eval(`() => window.scrollBy(0, window.innerHeight)`); err != nil {
			r.log.Debug().Err(err).Msg("Scroll failed")
			return
		}
		time.Sleep(scrollPause)
	}
}

// clickLoadMore presses visible load-more buttons a bounded number of times
func (r *BrowserRenderer) clickLoadMore(page *rod.Page) {
	for i := 0; i < loadMoreClicks; i++ {
		clicked := false
		for _, label := range loadMoreLabels {
			el, err := page.Timeout(2 * time.Second).ElementR("button", "(?i)"+label)
			if err != nil {
				continue
			}
			if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
				continue
			}
			clicked = true
			time.Sleep(scrollPause)
			break
		}
		if !clicked {
			return
		}
	}
}
