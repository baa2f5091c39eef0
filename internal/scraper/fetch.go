package scraper

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"pricescout/helpers"
	"pricescout/pkg/errors"
)

// StaticRenderer fetches pages with a plain HTTP GET. It is the default
// backend for server-rendered storefronts.
type StaticRenderer struct{}

func NewStaticRenderer() *StaticRenderer {
	return &StaticRenderer{}
}

// Fetch downloads the page and parses it into a document. No scripts run;
// the markup is whatever the server sent.
func (r *StaticRenderer) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	body, err := helpers.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, errors.NewParsing("", "failed to parse HTML document", err)
	}

	return &Page{Doc: doc}, nil
}
