package scraper

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ScrapedProduct represents a single product extracted from a listing page.
// It exists only within one extraction run; matching against the catalog
// happens downstream.
type ScrapedProduct struct {
	Title          string  `json:"title"`
	Price          float64 `json:"price"`
	RegularPrice   float64 `json:"regular_price,omitempty"` // zero means no sale detected
	Image          string  `json:"image,omitempty"`
	URL            string  `json:"url"`
	Brand          string  `json:"brand"`
	Model          string  `json:"model"`
	Category       string  `json:"category"`
	SKU            string  `json:"sku"`
	CompetitorName string  `json:"competitor_name"`
	HasPromotion   bool    `json:"has_promotion"`
	PromotionText  string  `json:"promotion_text,omitempty"`
}

// Result is one extraction run: the products plus run metadata.
// A failed or empty scrape is still a Result, tagged with the competitor
// and source URL, so one bad site never aborts a batch.
type Result struct {
	CompetitorName string           `json:"competitor_name"`
	SiteCode       string           `json:"site_code,omitempty"`
	SourceURL      string           `json:"source_url"`
	CategoryName   string           `json:"category_name,omitempty"`
	ExtractedAt    time.Time        `json:"extracted_at"`
	TotalProducts  int              `json:"total_products"`
	// Failed marks runs where the page could not be fetched at all. An
	// empty product list on a fetched page is not a failure.
	Failed   bool             `json:"failed,omitempty"`
	Products []ScrapedProduct `json:"products,omitempty"`
}

// RenderMode selects how a site's pages are fetched
type RenderMode string

const (
	// RenderStatic fetches raw HTML over HTTP
	RenderStatic RenderMode = "static"
	// RenderBrowser drives a headless browser for client-rendered pages
	RenderBrowser RenderMode = "browser"
)

// UnknownCompetitor labels results for URLs no strategy recognizes
const UnknownCompetitor = "Unknown Competitor"

// Unknown is the sentinel for brand/model values no pattern matched
const Unknown = "Unknown"

// Page is the rendered form of a listing page. APIRecords carries
// product-shaped JSON objects captured from background XHR/fetch responses;
// only the browser renderer fills it.
type Page struct {
	Doc        *goquery.Document
	APIRecords []map[string]interface{}
}

// Renderer produces a queryable Page for a listing URL
type Renderer interface {
	Fetch(ctx context.Context, pageURL string) (*Page, error)
}

// ModelService infers a canonical model number from a product title.
// Implementations answer the "N/A" sentinel on inconclusive input.
type ModelService interface {
	ExtractModel(ctx context.Context, title string) (string, error)
}

// TitleFilterFunc restricts extraction to relevant product cards on sites
// whose listing pages mix categories
type TitleFilterFunc func(title string) bool

// SaleOverrideFunc replaces the shared sale-price resolver for sites with a
// bespoke price structure. ok=false drops the container.
type SaleOverrideFunc func(s *goquery.Selection) (price, regularPrice float64, ok bool)

// Strategy describes how one competitor site is scraped. Adding a site is a
// data entry here, not new code, unless the site needs a SaleOverride.
type Strategy struct {
	Name               string     // competitor display name
	Code               string     // short site code, also the SKU prefix
	Domain             string     // hostname fragment matched by the dispatcher
	RenderMode         RenderMode // default; config may override per site
	ContainerSelectors []string   // tried in order, first with enough matches wins
	TitleSelectors     []string
	PromoSelectors     []string
	TitleFilter        TitleFilterFunc
	SaleOverride       SaleOverrideFunc
}

const (
	// maxProductsPerRun bounds run time and memory on very large listing pages
	maxProductsPerRun = 50

	// minContainerMatches rejects accidental single-element matches on
	// non-listing pages; a real listing yields more
	minContainerMatches = 6

	// apiFallbackMin: when DOM extraction yields fewer products than this
	// and the browser captured product-shaped JSON, read the JSON instead
	apiFallbackMin = 8

	// model lookups are batched to avoid overwhelming the external service
	modelBatchSize  = 5
	modelBatchDelay = 500 * time.Millisecond
)
