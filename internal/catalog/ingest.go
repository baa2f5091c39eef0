package catalog

import (
	"fmt"
	"strings"
	"time"

	"pricescout/internal/scraper"
	"pricescout/logger"
	"pricescout/pkg/errors"
)

// Ingestor folds scrape results into the catalogue: products are matched or
// seeded, listings upserted per (competitor, URL), and a price snapshot
// appended for every observation.
type Ingestor struct {
	store Store
	log   *logger.Logger
}

func NewIngestor(store Store) *Ingestor {
	return &Ingestor{
		store: store,
		log:   logger.ForMatcher(),
	}
}

// IngestReport summarizes one RecordRun call
type IngestReport struct {
	ProductsSeeded  int      `json:"productsSeeded"`
	ListingsCreated int      `json:"listingsCreated"`
	ListingsUpdated int      `json:"listingsUpdated"`
	Snapshots       int      `json:"snapshots"`
	Errors          []string `json:"errors,omitempty"`
}

// RecordRun persists one extraction run. Individual product failures are
// accumulated, not fatal; a partially stored run is better than none.
func (in *Ingestor) RecordRun(res scraper.Result) IngestReport {
	var report IngestReport

	existing, err := in.store.ListProducts()
	if err != nil {
		report.Errors = append(report.Errors, errors.NewMatcher("failed to list products", err).Error())
		return report
	}

	byKey := make(map[string]Product, len(existing))
	for _, p := range existing {
		if p.UsableModel() {
			byKey[matchKey(p.Model)] = p
		}
	}

	for _, sp := range res.Products {
		if err := in.recordProduct(sp, byKey, &report); err != nil {
			report.Errors = append(report.Errors, err.Error())
		}
	}

	in.log.Info().
		Str("competitor", res.CompetitorName).
		Int("seeded", report.ProductsSeeded).
		Int("listings_created", report.ListingsCreated).
		Int("listings_updated", report.ListingsUpdated).
		Int("errors", len(report.Errors)).
		Msg("Run recorded")

	return report
}

func (in *Ingestor) recordProduct(sp scraper.ScrapedProduct, byKey map[string]Product, report *IngestReport) error {
	product, ok := byKey[matchKey(sp.Model)]
	if !ok {
		seeded, err := in.store.CreateProduct(Product{
			Brand:     sp.Brand,
			Model:     sp.Model,
			Title:     sp.Title,
			Category:  sp.Category,
			ImageURL:  sp.Image,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		})
		if err != nil {
			return errors.NewMatcher(fmt.Sprintf("failed to seed product %q", sp.Title), err)
		}
		product = seeded
		report.ProductsSeeded++
		if product.UsableModel() {
			byKey[matchKey(product.Model)] = product
		}
	}

	listing, created, err := in.upsertListing(product.ID, sp)
	if err != nil {
		return err
	}
	if created {
		report.ListingsCreated++
	} else {
		report.ListingsUpdated++
	}

	if _, err := in.store.CreateSnapshot(Snapshot{
		ListingID:    listing.ID,
		Price:        sp.Price,
		RegularPrice: sp.RegularPrice,
		InStock:      true,
		CapturedAt:   time.Now().UTC(),
	}); err != nil {
		return errors.NewMatcher(fmt.Sprintf("failed to snapshot listing %d", listing.ID), err)
	}
	report.Snapshots++

	return nil
}

// upsertListing finds the listing by (competitor, URL) among the product's
// listings, updating it in place or creating a fresh one
func (in *Ingestor) upsertListing(productID int64, sp scraper.ScrapedProduct) (Listing, bool, error) {
	listings, err := in.store.ListListingsByProduct(productID)
	if err != nil {
		return Listing{}, false, errors.NewMatcher("failed to list listings", err)
	}

	for _, l := range listings {
		if l.CompetitorName == sp.CompetitorName && l.URL == sp.URL {
			l.Title = sp.Title
			l.SKU = sp.SKU
			l.LastSeenPrice = sp.Price
			l.LastSeenRegular = sp.RegularPrice
			l.HasPromotion = sp.HasPromotion
			l.PromotionText = sp.PromotionText
			l.LastSeenAt = time.Now().UTC()
			if err := in.store.UpdateListing(l); err != nil {
				return Listing{}, false, errors.NewMatcher(fmt.Sprintf("failed to update listing %d", l.ID), err)
			}
			return l, false, nil
		}
	}

	created, err := in.store.CreateListing(Listing{
		ProductID:       productID,
		CompetitorName:  sp.CompetitorName,
		URL:             sp.URL,
		Title:           sp.Title,
		SKU:             sp.SKU,
		LastSeenPrice:   sp.Price,
		LastSeenRegular: sp.RegularPrice,
		HasPromotion:    sp.HasPromotion,
		PromotionText:   sp.PromotionText,
		LastSeenAt:      time.Now().UTC(),
	})
	if err != nil {
		return Listing{}, false, errors.NewMatcher(fmt.Sprintf("failed to create listing for %q", sp.Title), err)
	}
	return created, true, nil
}

// matchKey normalizes a model number for grouping. Brand is deliberately
// left out: it is inferred from titles and the same product often carries
// different brand strings across competitors.
func matchKey(model string) string {
	return strings.ToLower(strings.TrimSpace(model))
}
