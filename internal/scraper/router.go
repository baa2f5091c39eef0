package scraper

import (
	"context"
	"net/url"
	"strings"
	"time"

	"pricescout/helpers"
	"pricescout/logger"
	"pricescout/services/cache"
)

// Dispatcher routes monitored URLs to site strategies and rendering
// backends. It is the single entry point for scraping a URL.
type Dispatcher struct {
	strategies []Strategy
	static     Renderer
	browser    Renderer
	modelSvc   ModelService
	limiter    *cache.SiteLimiter
	overrides  map[string]string
	log        *logger.Logger
}

// NewDispatcher wires the strategy registry to its collaborators. browser
// may be nil; browser-mode strategies then degrade to the static renderer.
// overrides maps site code or domain fragment to "static" or "browser".
func NewDispatcher(static, browser Renderer, modelSvc ModelService, limiter *cache.SiteLimiter, overrides map[string]string) *Dispatcher {
	return &Dispatcher{
		strategies: Strategies(),
		static:     static,
		browser:    browser,
		modelSvc:   modelSvc,
		limiter:    limiter,
		overrides:  overrides,
		log:        logger.ForWorker(),
	}
}

// StrategyFor resolves the site strategy for a URL by domain match. URLs
// the dispatcher cannot parse, and hosts it does not recognize, fall back
// to the generic strategy.
func (d *Dispatcher) StrategyFor(rawURL string) Strategy {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return GenericStrategy()
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")

	for _, s := range d.strategies {
		if s.Domain == "" {
			continue
		}
		if host == s.Domain || strings.HasSuffix(host, "."+s.Domain) {
			return s
		}
	}
	return GenericStrategy()
}

// Scrape extracts one URL end to end. It never panics on bad input; a URL
// that cannot be handled yields an empty Result tagged with the URL so batch
// callers can report it.
func (d *Dispatcher) Scrape(ctx context.Context, rawURL string) Result {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		d.log.Warn().Str("url", rawURL).Msg("Skipping URL that is not a valid http(s) address")
		return Result{
			CompetitorName: UnknownCompetitor,
			SiteCode:       "unknown",
			SourceURL:      rawURL,
			ExtractedAt:    time.Now().UTC(),
			Failed:         true,
		}
	}

	strategy := d.StrategyFor(rawURL)
	renderer := d.rendererFor(strategy)

	d.log.Debug().
		Str("url", rawURL).
		Str("site", strategy.Name).
		Msg("Dispatching scrape")

	extractor := NewExtractor(strategy, renderer, d.modelSvc, d.limiter)
	return extractor.Extract(ctx, rawURL)
}

// rendererFor selects the rendering backend: explicit override first, then
// the strategy's declared mode.
func (d *Dispatcher) rendererFor(strategy Strategy) Renderer {
	mode := strategy.RenderMode
	if override, ok := d.overrideFor(strategy); ok {
		switch override {
		case "browser":
			mode = RenderBrowser
		case "static":
			mode = RenderStatic
		}
	}

	if mode == RenderBrowser && d.browser != nil {
		return d.browser
	}
	return d.static
}

func (d *Dispatcher) overrideFor(strategy Strategy) (string, bool) {
	if d.overrides == nil {
		return "", false
	}
	for _, key := range []string{strings.ToLower(strategy.Code), strategy.Domain} {
		if key == "" {
			continue
		}
		if v, ok := d.overrides[key]; ok {
			return v, true
		}
	}
	// allow matching by the site's short domain label, e.g. "bunnings"
	if label, err := helpers.GetSplitPart(strategy.Domain, ".", 0); err == nil && label != "" {
		if v, ok := d.overrides[label]; ok {
			return v, true
		}
	}
	return "", false
}
