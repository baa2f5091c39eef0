package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{"plain dollar amount", "$99.00", 99.0},
		{"thousands separator", "$1,299.00", 1299.0},
		{"no currency symbol", "249.95", 249.95},
		{"surrounding text", "Now $89.50 each", 89.50},
		{"empty string", "", 0},
		{"no digits", "call for price", 0},
		{"multiple dots", "1.2.3", 0},
		{"whitespace only", "   ", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParsePrice(tt.input))
		})
	}
}

func TestParsePriceNeverNegative(t *testing.T) {
	inputs := []string{"$-50.00", "-99", "abc-123", "$0.00"}
	for _, input := range inputs {
		assert.GreaterOrEqual(t, ParsePrice(input), 0.0, "input: %s", input)
	}
}

func TestParsePriceIdempotentOnCleanValues(t *testing.T) {
	// Parsing an already-clean value must not change it
	for _, v := range []string{"99", "149.95", "1299.00"} {
		first := ParsePrice(v)
		assert.Equal(t, first, ParsePrice(v))
	}
}

func TestNormalizeImageURL(t *testing.T) {
	base := "https://www.bunnings.com.au/our-range/battery-chargers"

	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{"absolute passes through", "https://cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"protocol relative", "//cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"root relative", "/media/a.jpg", "https://www.bunnings.com.au/media/a.jpg"},
		{"data uri passes through", "data:image/png;base64,iVBOR", "data:image/png;base64,iVBOR"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeImageURL(tt.src, base))
		})
	}
}

func TestNormalizeImageURLAppliedTwiceIsStable(t *testing.T) {
	base := "https://shop.example.com/catalog"
	for _, src := range []string{"//cdn.example.com/a.jpg", "/img/b.png", "https://cdn.example.com/c.gif"} {
		once := NormalizeImageURL(src, base)
		assert.Equal(t, once, NormalizeImageURL(once, base))
	}
}

func TestAbsoluteURL(t *testing.T) {
	base := "https://www.repco.com.au/batteries/chargers"

	assert.Equal(t, "https://www.repco.com.au/p/noco-gb40", AbsoluteURL("/p/noco-gb40", base))
	assert.Equal(t, "https://www.repco.com.au/batteries/noco-gb40", AbsoluteURL("noco-gb40", base))
	assert.Equal(t, "https://other.example.com/x", AbsoluteURL("https://other.example.com/x", base))
	assert.Equal(t, "", AbsoluteURL("", base))
}

func TestExtractBrand(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{"curated brand", "NOCO Boost Plus GB40 1000A Jump Starter", "NOCO"},
		{"curated brand case insensitive", "ctek MXS 5.0 Battery Charger", "CTEK"},
		{"curated brand not a prefix of longer word", "Projecta IC1500 Intelli-Charge", "Projecta"},
		{"generic capitalized token", "Acme Widget X200", "Acme"},
		{"unknown when lowercase", "generic 12v battery charger", Unknown},
		{"empty title", "", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractBrand(tt.title))
		})
	}
}

func TestExtractModel(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		brand    string
		expected string
	}{
		{"short letter prefix code", "NOCO Boost Plus GB40 Jump Starter", "NOCO", "GB40"},
		{"letter prefix with suffix", "Matson MB3748E Workshop Charger", "Matson", "MB3748E"},
		{"generic alphanumeric code", "Acme Widget X200", "Acme", "X200"},
		{"explicit model phrasing", "Battery Charger Model: BC2000", "Unknown", "BC2000"},
		{"hyphenated part code", "Charger Kit ABC-12345-X", "Unknown", "ABC-12345-X"},
		{"bare numeric code", "Charger part 1034567", "Unknown", "1034567"},
		{"empty title", "", "NOCO", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractModel(tt.title, tt.brand))
		})
	}
}

func TestExtractModelFallsBackToFirstToken(t *testing.T) {
	// No pattern matches; the brand-stripped first token stands in
	model := ExtractModel("Thumper Redback charger", "Thumper")
	assert.Equal(t, "Redback", model)
}

func TestCategoryFromURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"hyphenated segment", "https://www.bunnings.com.au/our-range/auto/battery-chargers", "battery chargers"},
		{"trailing slash", "https://shop.example.com/jump-starters/", "jump starters"},
		{"query ignored", "https://shop.example.com/chargers?page=2", "chargers"},
		{"underscores", "https://shop.example.com/c/power_packs", "power packs"},
		{"no path", "https://shop.example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CategoryFromURL(tt.url))
		})
	}
}
