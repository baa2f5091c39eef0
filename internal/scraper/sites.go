package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// chargingKeywords restricts extraction on general-catalogue sites whose
// listing pages mix battery charging gear with unrelated tools.
var chargingKeywords = []string{
	"charger", "charging", "battery", "jump starter", "jump-starter",
	"jumpstarter", "booster", "power pack", "powerbank", "power bank",
	"maintainer", "inverter",
}

func chargingTitleFilter(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range chargingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// splitPriceOverride reads prices split across dollar and cent elements,
// as some storefront themes render "$199" and "95" in sibling spans.
func splitPriceOverride(dollarSel, centSel, wasSel string) SaleOverrideFunc {
	return func(s *goquery.Selection) (float64, float64, bool) {
		dollars := ParsePrice(s.Find(dollarSel).First().Text())
		if dollars <= 0 {
			return 0, 0, false
		}
		cents := ParsePrice(s.Find(centSel).First().Text())
		if cents >= 1 && cents < 100 {
			dollars += cents / 100
		}
		regular := ParsePrice(s.Find(wasSel).First().Text())
		if regular <= dollars {
			regular = 0
		}
		return dollars, regular, true
	}
}

// Strategies returns the registry of supported competitor sites. Order is
// not significant; dispatch is by domain match.
func Strategies() []Strategy {
	return []Strategy{
		{
			Name:       "Bunnings",
			Code:       "BUN",
			Domain:     "bunnings.com.au",
			RenderMode: RenderBrowser,
			ContainerSelectors: []string{
				"[data-locator='search-product-tile']",
				"article[class*='ProductCard']",
				"[class*='product-list'] article",
			},
			TitleSelectors: []string{
				"[data-locator='product-title']",
				"[class*='product-title']",
				"h3",
			},
			PromoSelectors: []string{
				"[class*='promo-badge']",
				"[class*='Badge']",
			},
		},
		{
			Name:       "Supercheap Auto",
			Code:       "SCA",
			Domain:     "supercheapauto.com.au",
			RenderMode: RenderBrowser,
			ContainerSelectors: []string{
				"div.product-tile",
				"div.product",
				"[class*='product-grid'] [class*='tile']",
			},
			TitleSelectors: []string{
				".product-name a",
				".tile-body .link",
				"a.product-link",
			},
			PromoSelectors: []string{
				".promotion-callout",
				".product-promo",
				"[class*='badge']",
			},
		},
		{
			Name:       "Repco",
			Code:       "REP",
			Domain:     "repco.com.au",
			RenderMode: RenderBrowser,
			ContainerSelectors: []string{
				"div.product-grid-item",
				"li.product-item",
				"[class*='ProductTile']",
			},
			TitleSelectors: []string{
				".product-title a",
				"a.product-item-link",
				"h2 a",
			},
			PromoSelectors: []string{
				".promo-label",
				"[class*='sticker']",
			},
		},
		{
			Name:       "Autobarn",
			Code:       "ABN",
			Domain:     "autobarn.com.au",
			RenderMode: RenderStatic,
			ContainerSelectors: []string{
				"li.item.product",
				"div.product-item-info",
			},
			TitleSelectors: []string{
				"a.product-item-link",
				".product-item-name a",
			},
			PromoSelectors: []string{
				".product-label",
				".sale-label",
			},
			SaleOverride: splitPriceOverride(
				".price-dollars", ".price-cents", ".old-price .price",
			),
		},
		{
			Name:       "JB Hi-Fi",
			Code:       "JBH",
			Domain:     "jbhifi.com.au",
			RenderMode: RenderBrowser,
			ContainerSelectors: []string{
				"[data-testid='product-card']",
				"div.product-tile",
			},
			TitleSelectors: []string{
				"[data-testid='product-card-title']",
				"h4",
			},
			PromoSelectors: []string{
				"[class*='PriceTag_promo']",
				"[class*='sticker']",
			},
			TitleFilter: chargingTitleFilter,
		},
		{
			Name:       "Total Tools",
			Code:       "TTL",
			Domain:     "totaltools.com.au",
			RenderMode: RenderStatic,
			ContainerSelectors: []string{
				"li.item.product.product-item",
				"div.product-item-info",
			},
			TitleSelectors: []string{
				"a.product-item-link",
				".product-item-name",
			},
			PromoSelectors: []string{
				".product-labels .label",
				".amasty-label-text",
			},
		},
		{
			Name:       "Sydney Tools",
			Code:       "SYD",
			Domain:     "sydneytools.com.au",
			RenderMode: RenderBrowser,
			ContainerSelectors: []string{
				"div.product-card",
				"div[class*='ProductCard']",
				"li.product",
			},
			TitleSelectors: []string{
				".product-card-title",
				"h3 a",
			},
			PromoSelectors: []string{
				".badge",
				"[class*='promo']",
			},
			TitleFilter: chargingTitleFilter,
		},
		{
			Name:       "Anaconda",
			Code:       "ANA",
			Domain:     "anaconda.com.au",
			RenderMode: RenderBrowser,
			ContainerSelectors: []string{
				"div.product-tile",
				"[class*='product-grid'] [class*='tile']",
			},
			TitleSelectors: []string{
				".product-name a",
				".pdp-link a",
			},
			PromoSelectors: []string{
				".promotion",
				"[class*='badge']",
			},
		},
		{
			Name:       "BCF",
			Code:       "BCF",
			Domain:     "bcf.com.au",
			RenderMode: RenderBrowser,
			ContainerSelectors: []string{
				"div.product-tile",
				"div.product",
			},
			TitleSelectors: []string{
				".product-name a",
				".tile-body .link",
			},
			PromoSelectors: []string{
				".promotion-callout",
				"[class*='badge']",
			},
		},
		{
			Name:       "Mitre 10",
			Code:       "M10",
			Domain:     "mitre10.com.au",
			RenderMode: RenderStatic,
			ContainerSelectors: []string{
				"li.item.product",
				"div.product-item-info",
			},
			TitleSelectors: []string{
				"a.product-item-link",
				".product-item-name a",
			},
			PromoSelectors: []string{
				".product-label",
				"[class*='badge']",
			},
			TitleFilter: chargingTitleFilter,
		},
		{
			Name:       "Machinery House",
			Code:       "MCH",
			Domain:     "machineryhouse.com.au",
			RenderMode: RenderStatic,
			ContainerSelectors: []string{
				"div.product-box",
				"div.product-item",
				"li.product",
			},
			TitleSelectors: []string{
				".product-name a",
				"h4 a",
				"h3 a",
			},
			PromoSelectors: []string{
				".special-tag",
				"[class*='promo']",
			},
			TitleFilter: chargingTitleFilter,
		},
		{
			Name:       "Road Tech Marine",
			Code:       "RTM",
			Domain:     "roadtechmarine.com.au",
			RenderMode: RenderStatic,
			ContainerSelectors: []string{
				"div.product-item",
				"li.product",
				"div.card.card-body",
			},
			TitleSelectors: []string{
				".card-title a",
				"h4.card-title",
				".product-item-name",
			},
			PromoSelectors: []string{
				".sale-flag",
				"[class*='badge']",
			},
		},
	}
}

// GenericStrategy covers unrecognized hosts with broad selectors that match
// common storefront markup. Static rendering keeps the unknown-site path
// cheap; a RENDER_OVERRIDES entry can force the browser when needed.
func GenericStrategy() Strategy {
	return Strategy{
		Name:       UnknownCompetitor,
		Code:       "GEN",
		Domain:     "",
		RenderMode: RenderStatic,
		ContainerSelectors: []string{
			"[class*='product-card']",
			"[class*='product-tile']",
			"[class*='product-item']",
			"li[class*='product']",
			"div[class*='product']",
			"article",
		},
		TitleSelectors: []string{
			"[class*='product-title']",
			"[class*='product-name']",
			"h2 a",
			"h3 a",
			"h2",
			"h3",
			"h4",
		},
		PromoSelectors: []string{
			"[class*='badge']",
			"[class*='promo']",
			"[class*='sale']",
		},
	}
}
