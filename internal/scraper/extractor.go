package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"pricescout/helpers"
	"pricescout/logger"
	"pricescout/services/cache"
)

// Extractor runs the shared extraction pipeline for one site strategy.
// All per-site variation lives in the Strategy; the pipeline itself is
// uniform across sites.
type Extractor struct {
	strategy Strategy
	renderer Renderer
	modelSvc ModelService
	limiter  *cache.SiteLimiter
	log      *logger.Logger
}

// NewExtractor creates an extractor for a strategy. modelSvc and limiter
// may be nil; local pattern extraction and no rate limiting apply then.
func NewExtractor(strategy Strategy, renderer Renderer, modelSvc ModelService, limiter *cache.SiteLimiter) *Extractor {
	return &Extractor{
		strategy: strategy,
		renderer: renderer,
		modelSvc: modelSvc,
		limiter:  limiter,
		log:      logger.ForScraper(strategy.Code),
	}
}

// Strategy returns the extractor's site strategy
func (e *Extractor) Strategy() Strategy {
	return e.strategy
}

// Extract scrapes one listing page into a Result. Page-level failures are
// converted to an empty Result tagged with the competitor and URL; a failed
// competitor must never abort a batch run across competitors.
func (e *Extractor) Extract(ctx context.Context, pageURL string) Result {
	res := Result{
		CompetitorName: e.strategy.Name,
		SiteCode:       strings.ToLower(e.strategy.Code),
		SourceURL:      pageURL,
		CategoryName:   CategoryFromURL(pageURL),
		ExtractedAt:    time.Now().UTC(),
	}

	if e.limiter.Blocked(e.strategy.Code) {
		e.log.Warn().Str("url", pageURL).Msg("Site is in rate-limit cool-down, skipping")
		res.Failed = true
		return res
	}

	page, err := e.renderer.Fetch(ctx, pageURL)
	if err != nil {
		var rateErr *helpers.ErrRateLimited
		if errors.As(err, &rateErr) {
			if blockErr := e.limiter.Block(e.strategy.Code); blockErr != nil {
				e.log.Warn().Err(blockErr).Msg("Failed to start rate-limit cool-down")
			}
		}
		e.log.Error().Err(err).Str("url", pageURL).Msg("Page fetch failed, returning empty run")
		res.Failed = true
		return res
	}

	containers := e.selectContainers(page.Doc)
	products := e.processContainers(containers, pageURL, res.CategoryName)

	// Some SPAs are easier to read from their own API responses than from
	// rendered markup. Use captured JSON when the DOM yielded implausibly few.
	if len(products) < apiFallbackMin && len(page.APIRecords) > 0 {
		apiProducts := e.productsFromAPIRecords(page.APIRecords, pageURL, res.CategoryName)
		if len(apiProducts) > len(products) {
			e.log.Info().
				Int("dom_products", len(products)).
				Int("api_products", len(apiProducts)).
				Msg("Using captured API responses over DOM extraction")
			products = apiProducts
		}
	}

	e.resolveModels(ctx, products)
	e.assignSKUs(products)

	res.Products = products
	res.TotalProducts = len(products)

	e.log.Info().
		Str("url", pageURL).
		Int("products", res.TotalProducts).
		Msg("Extraction finished")

	return res
}

// selectContainers tries each container selector in order and stops at the
// first yielding enough matches. The threshold rejects accidental
// single-element matches on non-listing pages.
func (e *Extractor) selectContainers(doc *goquery.Document) *goquery.Selection {
	if doc == nil {
		return nil
	}
	for _, selector := range e.strategy.ContainerSelectors {
		found := doc.Find(selector)
		if found.Length() >= minContainerMatches {
			e.log.Debug().
				Str("selector", selector).
				Int("matches", found.Length()).
				Msg("Container selector accepted")
			return found
		}
	}
	return nil
}

// processContainers maps matched containers to products in document order,
// stopping at the per-run cap. A container that fails to parse is skipped;
// it never aborts the page's remaining containers.
func (e *Extractor) processContainers(containers *goquery.Selection, pageURL, category string) []ScrapedProduct {
	if containers == nil {
		return nil
	}

	var products []ScrapedProduct
	containers.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(products) >= maxProductsPerRun {
			return false
		}
		if p := e.processContainer(s, pageURL, category); p != nil {
			products = append(products, *p)
		}
		return true
	})
	return products
}

// processContainer extracts one product from its container, or nil when the
// container has no usable title or no price can be established.
func (e *Extractor) processContainer(s *goquery.Selection, pageURL, category string) (product *ScrapedProduct) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn().Interface("panic", r).Msg("Container processing panicked, skipping container")
			product = nil
		}
	}()

	title := e.extractTitle(s)
	if title == "" {
		return nil
	}
	if e.strategy.TitleFilter != nil && !e.strategy.TitleFilter(title) {
		return nil
	}

	var info PriceInfo
	if e.strategy.SaleOverride != nil {
		price, regular, ok := e.strategy.SaleOverride(s)
		if !ok {
			return nil
		}
		info = PriceInfo{Price: price, RegularPrice: regular}
		if info.RegularPrice <= info.Price {
			info.RegularPrice = 0
		}
	} else {
		var ok bool
		info, ok = ResolvePrice(s)
		if !ok {
			// A product without a price is not useful for comparison
			return nil
		}
	}

	brand := ExtractBrand(title)

	p := &ScrapedProduct{
		Title:          title,
		Price:          info.Price,
		RegularPrice:   info.RegularPrice,
		Image:          e.extractImage(s, pageURL),
		URL:            e.extractLink(s, pageURL),
		Brand:          brand,
		Category:       category,
		CompetitorName: e.strategy.Name,
	}

	e.detectPromotion(s, p)

	return p
}

// extractTitle walks the title selector ladder, falling back to an anchor's
// title attribute and an image's alt text
func (e *Extractor) extractTitle(s *goquery.Selection) string {
	for _, selector := range e.strategy.TitleSelectors {
		sel := s.Find(selector)
		if sel.Length() == 0 {
			continue
		}
		first := sel.First()
		if attr, exists := first.Attr("title"); exists && strings.TrimSpace(attr) != "" {
			return collapseSpace(attr)
		}
		if text := collapseSpace(first.Text()); text != "" {
			return text
		}
	}

	if attr, exists := s.Find("a[title]").First().Attr("title"); exists && strings.TrimSpace(attr) != "" {
		return collapseSpace(attr)
	}
	if attr, exists := s.Find("img[alt]").First().Attr("alt"); exists && strings.TrimSpace(attr) != "" {
		return collapseSpace(attr)
	}
	return ""
}

func (e *Extractor) extractImage(s *goquery.Selection, pageURL string) string {
	img := s.Find("img").First()
	if img.Length() == 0 {
		return ""
	}
	src, exists := img.Attr("src")
	if !exists || strings.TrimSpace(src) == "" {
		// lazy-loaded images park the real source in data-src
		src, _ = img.Attr("data-src")
	}
	return NormalizeImageURL(src, pageURL)
}

func (e *Extractor) extractLink(s *goquery.Selection, pageURL string) string {
	href, exists := s.Find("a[href]").First().Attr("href")
	if !exists {
		return ""
	}
	return AbsoluteURL(href, pageURL)
}

// detectPromotion looks for badge/overlay call-outs. Promotion badges and
// sale pricing are independent signals: a product can carry a cashback badge
// with no price reduction, or the reverse.
func (e *Extractor) detectPromotion(s *goquery.Selection, p *ScrapedProduct) {
	for _, selector := range e.strategy.PromoSelectors {
		sel := s.Find(selector)
		if sel.Length() == 0 {
			continue
		}
		text := collapseSpace(sel.First().Text())
		if text == "" {
			continue
		}
		p.HasPromotion = true
		p.PromotionText = text
		return
	}
}

// resolveModels fills the Model field for every product, asking the external
// service in small batches with an inter-batch delay so a large page doesn't
// overwhelm it. Service failures and the "N/A" sentinel fall back to local
// pattern extraction.
func (e *Extractor) resolveModels(ctx context.Context, products []ScrapedProduct) {
	for i := range products {
		if i > 0 && i%modelBatchSize == 0 && e.modelSvc != nil {
			time.Sleep(modelBatchDelay)
		}

		p := &products[i]
		if e.modelSvc != nil {
			model, err := e.modelSvc.ExtractModel(ctx, p.Title)
			if err != nil {
				e.log.Debug().Err(err).Str("title", p.Title).Msg("Model service failed, using local extraction")
			} else if model != "" && model != "N/A" {
				p.Model = model
				continue
			}
		}
		p.Model = ExtractModel(p.Title, p.Brand)
	}
}

// assignSKUs synthesizes run-scoped SKUs: {SITE_CODE}-{zero-padded sequence}
func (e *Extractor) assignSKUs(products []ScrapedProduct) {
	prefix := strings.ToUpper(e.strategy.Code)
	for i := range products {
		products[i].SKU = fmt.Sprintf("%s-%04d", prefix, i+1)
	}
}

// productsFromAPIRecords maps captured JSON product objects through the same
// normalization pipeline as DOM extraction
func (e *Extractor) productsFromAPIRecords(records []map[string]interface{}, pageURL, category string) []ScrapedProduct {
	var products []ScrapedProduct
	for _, record := range records {
		if len(products) >= maxProductsPerRun {
			break
		}

		title := collapseSpace(stringField(record, "title", "name", "productName", "displayName"))
		if title == "" {
			continue
		}
		if e.strategy.TitleFilter != nil && !e.strategy.TitleFilter(title) {
			continue
		}

		price := numberField(record, "price", "salePrice", "currentPrice", "sellPrice", "amount")
		if price <= 0 {
			continue
		}

		regular := numberField(record, "regularPrice", "wasPrice", "originalPrice", "rrp", "listPrice")
		if regular <= price {
			regular = 0
		}

		p := ScrapedProduct{
			Title:          title,
			Price:          price,
			RegularPrice:   regular,
			Image:          NormalizeImageURL(stringField(record, "image", "imageUrl", "thumbnail"), pageURL),
			URL:            AbsoluteURL(stringField(record, "url", "productUrl", "link"), pageURL),
			Brand:          stringField(record, "brand", "manufacturer"),
			Category:       category,
			CompetitorName: e.strategy.Name,
		}
		if p.Brand == "" {
			p.Brand = ExtractBrand(title)
		}

		products = append(products, p)
	}
	return products
}

func stringField(record map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := record[key].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func numberField(record map[string]interface{}, keys ...string) float64 {
	for _, key := range keys {
		switch v := record[key].(type) {
		case float64:
			if v > 0 {
				return v
			}
		case string:
			if parsed := ParsePrice(v); parsed > 0 {
				return parsed
			}
		}
	}
	return 0
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
