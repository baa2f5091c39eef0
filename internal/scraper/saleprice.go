package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PriceInfo is the resolver's answer for one product container.
// RegularPrice is zero unless a sale was established; when set it is
// strictly greater than Price.
type PriceInfo struct {
	Price        float64
	RegularPrice float64
}

// structured "was"/"now" sub-elements, most specific first
var (
	wasSelectors = []string{
		".price-was",
		".was-price",
		"[class*='price-was']",
		"[class*='was-price']",
		"del",
		".strikethrough",
	}

	nowSelectors = []string{
		".price-now",
		".now-price",
		"[class*='price-now']",
		"[class*='now-price']",
		".price-current",
		".current-price",
		".sale-price",
	}

	genericPriceSelectors = []string{
		".price",
		"[data-price]",
		"[itemprop='price']",
		"[class*='price']",
		".amount",
		"[class*='amount']",
	}
)

// textual "original price" markers, each capturing its anchor value.
// The percent badge has no anchor of its own; the largest dollar amount in
// the container stands in for it.
var (
	originalPriceRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bwas\s*:?\s*\$\s*([0-9][0-9,]*\.?[0-9]*)`),
		regexp.MustCompile(`(?i)\bRRP\s*:?\s*\$\s*([0-9][0-9,]*\.?[0-9]*)`),
		regexp.MustCompile(`(?i)\boriginally\s*:?\s*\$\s*([0-9][0-9,]*\.?[0-9]*)`),
		regexp.MustCompile(`(?i)\bnormally\s*\$\s*([0-9][0-9,]*\.?[0-9]*)`),
	}

	percentDropRe = regexp.MustCompile(`(?i)\b[0-9]+%\s*(?:price\s*drop|off)\b`)

	dollarAmountRe = regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)
	bareNumberRe   = regexp.MustCompile(`\b([0-9]{1,5}(?:\.[0-9]{1,2})?)\b`)
)

// ResolvePrice disambiguates the payable price and a pre-discount price from
// a product container. The rules are a graceful-degradation ladder because
// competitor markup varies per card, not just per site; the first rule that
// succeeds wins. ok=false means no price could be established at all and the
// product must be dropped.
func ResolvePrice(s *goquery.Selection) (PriceInfo, bool) {
	text := strings.Join(strings.Fields(s.Text()), " ")

	// Rule 1: distinct was/now sub-elements
	was := firstParsedPrice(s, wasSelectors)
	now := firstParsedPrice(s, nowSelectors)
	if was > 0 && now > 0 {
		if was > now {
			return PriceInfo{Price: now, RegularPrice: was}, true
		}
		// Ordering not established: never report a sale
		return PriceInfo{Price: now}, true
	}

	// Rule 2: textual original-price markers
	if info, ok := resolveFromMarkers(text); ok {
		return info, true
	}

	// Rule 3: single generic price element, no sale
	if v := firstParsedPrice(s, genericPriceSelectors); v > 0 {
		return PriceInfo{Price: v}, true
	}

	// Rule 4: any dollar amount in the text, last occurrence. Sale prices
	// are conventionally rendered after the struck-through original in
	// markup order.
	amounts := dollarAmounts(text)
	if len(amounts) > 0 {
		return PriceInfo{Price: amounts[len(amounts)-1]}, true
	}

	// Rule 5: bare decimal in a plausible price range, maximum wins
	if v := maxPlausibleNumber(text); v > 0 {
		return PriceInfo{Price: v}, true
	}

	return PriceInfo{}, false
}

// resolveFromMarkers implements rule 2: find an "original price" marker,
// then pick the first dollar amount strictly below it but above half of it.
// The half-anchor bound is a sanity guard against unrelated numbers in the
// container (quantity, wattage, review counts).
func resolveFromMarkers(text string) (PriceInfo, bool) {
	for _, re := range originalPriceRes {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		anchor := ParsePrice(m[1])
		if info, ok := saleBelowAnchor(text, anchor); ok {
			return info, true
		}
	}

	if percentDropRe.MatchString(text) {
		anchor := 0.0
		for _, v := range dollarAmounts(text) {
			if v > anchor {
				anchor = v
			}
		}
		if info, ok := saleBelowAnchor(text, anchor); ok {
			return info, true
		}
	}

	return PriceInfo{}, false
}

func saleBelowAnchor(text string, anchor float64) (PriceInfo, bool) {
	if anchor <= 0 {
		return PriceInfo{}, false
	}
	for _, v := range dollarAmounts(text) {
		if v < anchor && v > anchor/2 {
			return PriceInfo{Price: v, RegularPrice: anchor}, true
		}
	}
	return PriceInfo{}, false
}

// firstParsedPrice tries each selector in order and returns the first
// positive parse. data-price and content attributes are consulted before
// the element text.
func firstParsedPrice(s *goquery.Selection, selectors []string) float64 {
	for _, selector := range selectors {
		sel := s.Find(selector)
		if sel.Length() == 0 {
			continue
		}
		first := sel.First()
		if attr, exists := first.Attr("data-price"); exists {
			if v := ParsePrice(attr); v > 0 {
				return v
			}
		}
		if attr, exists := first.Attr("content"); exists {
			if v := ParsePrice(attr); v > 0 {
				return v
			}
		}
		if v := ParsePrice(first.Text()); v > 0 {
			return v
		}
	}
	return 0
}

func dollarAmounts(text string) []float64 {
	var amounts []float64
	for _, m := range dollarAmountRe.FindAllStringSubmatch(text, -1) {
		if v := ParsePrice(m[1]); v > 0 {
			amounts = append(amounts, v)
		}
	}
	return amounts
}

func maxPlausibleNumber(text string) float64 {
	best := 0.0
	for _, m := range bareNumberRe.FindAllStringSubmatch(text, -1) {
		v := ParsePrice(m[1])
		if v >= 5 && v <= 10000 && v > best {
			best = v
		}
	}
	return best
}
