package scraper

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// knownBrands is checked before the generic patterns so a truncated listing
// title can't be greedily captured as a bogus brand. Anchored at the start
// of the title, case-insensitive.
var knownBrands = []string{
	"NOCO",
	"CTEK",
	"Projecta",
	"Ozito",
	"Ryobi",
	"Makita",
	"DeWalt",
	"Milwaukee",
	"Bosch",
	"Schumacher",
	"Century",
	"Matson",
	"Kincrome",
	"ToolPRO",
	"Repco",
	"SCA",
	"XTM",
	"Victron",
	"Redarc",
	"Arlec",
	"Oricom",
	"Stanley",
	"Thumper",
	"Engel",
}

var (
	priceCharRe = regexp.MustCompile(`[^0-9.,]`)

	// generic brand patterns, tried after the curated list
	brandTokenRe = regexp.MustCompile(`^([A-Z][A-Za-z0-9&]+)\b`)
	brandWordRe  = regexp.MustCompile(`^([A-Z][a-z]+)\b`)

	// model-number regex families, most specific first
	modelRes = []*regexp.Regexp{
		regexp.MustCompile(`\b([A-Z]{2}[0-9]{5})\b`),                  // two letters + five digits (e.g. IP65980)
		regexp.MustCompile(`\b([A-Z]{1,3}[0-9]{2,5}[A-Z0-9]*)\b`),     // letter prefix codes (GB40, X200, MB3748E)
		regexp.MustCompile(`(?i)\bmodel\s*[:#]?\s*([A-Z0-9][A-Z0-9-]+)`), // explicit "Model X" phrasing
		regexp.MustCompile(`\b([A-Z0-9]+-[A-Z0-9][A-Z0-9-]+)\b`),      // hyphenated part codes
		regexp.MustCompile(`\b([0-9]{5,})\b`),                         // bare numeric codes
	}
)

// ParsePrice strips everything but digits, dots and commas, drops thousands
// separators, and parses the remainder. Malformed input yields 0, never an
// error, because price strings come from uncontrolled markup.
func ParsePrice(text string) float64 {
	cleaned := priceCharRe.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return 0
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0
	}
	return value
}

// NormalizeImageURL absolutizes an image source against the page URL.
// data: URIs pass through unchanged; empty input stays empty.
func NormalizeImageURL(src, baseURL string) string {
	return absolutize(src, baseURL, true)
}

// AbsoluteURL absolutizes a link href against the page URL
func AbsoluteURL(href, baseURL string) string {
	return absolutize(href, baseURL, false)
}

func absolutize(ref, baseURL string, allowData bool) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if allowData && strings.HasPrefix(ref, "data:") {
		return ref
	}
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return ref
	}

	if strings.HasPrefix(ref, "/") {
		return base.Scheme + "://" + base.Host + ref
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(refURL).String()
}

// ExtractBrand infers a brand from a product title. The curated list wins
// over the generic leading-token patterns; Unknown when nothing matches.
func ExtractBrand(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return Unknown
	}

	lower := strings.ToLower(title)
	for _, brand := range knownBrands {
		bl := strings.ToLower(brand)
		if strings.HasPrefix(lower, bl) {
			rest := title[len(brand):]
			if rest == "" || !isAlphanumeric(rune(rest[0])) {
				return brand
			}
		}
	}

	if m := brandTokenRe.FindStringSubmatch(title); m != nil {
		return m[1]
	}
	if m := brandWordRe.FindStringSubmatch(title); m != nil {
		return m[1]
	}

	return Unknown
}

// ExtractModel infers a model number from a title using regex families tuned
// to common model-number shapes. When no family matches, the first token of
// the brand-stripped title is used as a guess; Unknown when the title
// collapses to nothing.
func ExtractModel(title, brand string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return Unknown
	}

	for _, re := range modelRes {
		if m := re.FindStringSubmatch(title); m != nil {
			candidate := m[1]
			if !strings.EqualFold(candidate, brand) {
				return candidate
			}
		}
	}

	// Guess: first token after stripping the brand prefix
	stripped := title
	if brand != "" && brand != Unknown {
		lower := strings.ToLower(stripped)
		if strings.HasPrefix(lower, strings.ToLower(brand)) {
			stripped = strings.TrimSpace(stripped[len(brand):])
		}
	}
	fields := strings.Fields(stripped)
	if len(fields) == 0 {
		return Unknown
	}
	return fields[0]
}

// CategoryFromURL derives a category name from the last path segment of the
// source URL ("/our-range/auto/battery-chargers" -> "battery chargers")
func CategoryFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if seg == "" {
			continue
		}
		seg = strings.Split(seg, ".")[0]
		seg = strings.ReplaceAll(seg, "-", " ")
		seg = strings.ReplaceAll(seg, "_", " ")
		seg = strings.TrimSpace(seg)
		if seg != "" {
			return strings.ToLower(seg)
		}
	}
	return ""
}

func isAlphanumeric(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}
