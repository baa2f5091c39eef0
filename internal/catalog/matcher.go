package catalog

import (
	"context"
	"fmt"
	"sort"

	"pricescout/logger"
	"pricescout/pkg/errors"
)

// Matcher links duplicate products across competitors by model number and
// builds price comparisons from the linked listings.
type Matcher struct {
	store    Store
	modelSvc ModelService
	log      *logger.Logger
}

func NewMatcher(store Store, modelSvc ModelService) *Matcher {
	return &Matcher{
		store:    store,
		modelSvc: modelSvc,
		log:      logger.ForMatcher(),
	}
}

// MergeReport summarizes one MatchAndMerge pass
type MergeReport struct {
	Groups        int      `json:"groups"`
	Merged        int      `json:"merged"`
	ListingsMoved int      `json:"listingsMoved"`
	Errors        []string `json:"errors,omitempty"`
}

// MatchAndMerge groups products sharing a usable model number and collapses
// each group onto its first member: listings are re-pointed to the canonical
// product and the duplicates deleted. Products without a usable model are
// never grouped.
func (m *Matcher) MatchAndMerge() MergeReport {
	var report MergeReport

	products, err := m.store.ListProducts()
	if err != nil {
		report.Errors = append(report.Errors, errors.NewMatcher("failed to list products", err).Error())
		return report
	}

	groups := make(map[string][]Product)
	var keys []string
	for _, p := range products {
		if !p.UsableModel() {
			continue
		}
		key := matchKey(p.Model)
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], p)
	}

	for _, key := range keys {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		report.Groups++

		canonical := group[0]
		for _, dup := range group[1:] {
			moved, err := m.mergeInto(canonical, dup)
			report.ListingsMoved += moved
			if err != nil {
				report.Errors = append(report.Errors, err.Error())
				continue
			}
			report.Merged++
		}
	}

	m.log.Info().
		Int("groups", report.Groups).
		Int("merged", report.Merged).
		Int("listings_moved", report.ListingsMoved).
		Int("errors", len(report.Errors)).
		Msg("Match and merge pass finished")

	return report
}

// mergeInto re-points dup's listings at canonical, then deletes dup. The
// duplicate is only deleted once every listing moved; a half-moved group is
// retried safely on the next pass.
func (m *Matcher) mergeInto(canonical, dup Product) (int, error) {
	listings, err := m.store.ListListingsByProduct(dup.ID)
	if err != nil {
		return 0, errors.NewMatcher(fmt.Sprintf("failed to list listings of product %d", dup.ID), err)
	}

	moved := 0
	for _, l := range listings {
		l.ProductID = canonical.ID
		if err := m.store.UpdateListing(l); err != nil {
			return moved, errors.NewMatcher(fmt.Sprintf("failed to move listing %d", l.ID), err)
		}
		moved++
	}

	if err := m.store.DeleteProduct(dup.ID); err != nil {
		return moved, errors.NewMatcher(fmt.Sprintf("failed to delete duplicate product %d", dup.ID), err)
	}
	return moved, nil
}

// CompetitorPrice is one competitor's latest observed price for a product
type CompetitorPrice struct {
	CompetitorName string  `json:"competitorName"`
	Price          float64 `json:"price"`
	URL            string  `json:"url"`
}

// Comparison contrasts competitor prices for one product
type Comparison struct {
	Product    Product           `json:"product"`
	Prices     []CompetitorPrice `json:"prices"`
	BestPrice  float64           `json:"bestPrice"`
	WorstPrice float64           `json:"worstPrice"`
	Spread     float64           `json:"spread"`
}

// PriceComparisons builds a comparison for every product observed at two or
// more price points, own price included when set. Sorted by spread, widest
// first.
func (m *Matcher) PriceComparisons() ([]Comparison, error) {
	products, err := m.store.ListProducts()
	if err != nil {
		return nil, errors.NewMatcher("failed to list products", err)
	}

	var comparisons []Comparison
	for _, p := range products {
		if !p.UsableModel() {
			continue
		}
		prices := m.pricesFor(p)
		if len(prices) < 2 {
			continue
		}

		best, worst := prices[0].Price, prices[0].Price
		for _, cp := range prices[1:] {
			if cp.Price < best {
				best = cp.Price
			}
			if cp.Price > worst {
				worst = cp.Price
			}
		}

		comparisons = append(comparisons, Comparison{
			Product:    p,
			Prices:     prices,
			BestPrice:  best,
			WorstPrice: worst,
			Spread:     worst - best,
		})
	}

	sort.Slice(comparisons, func(i, j int) bool {
		return comparisons[i].Spread > comparisons[j].Spread
	})
	return comparisons, nil
}

// pricesFor collects the latest price per listing, preferring the freshest
// snapshot and falling back to the listing's last seen price
func (m *Matcher) pricesFor(p Product) []CompetitorPrice {
	var prices []CompetitorPrice
	if p.Price > 0 {
		prices = append(prices, CompetitorPrice{CompetitorName: "Own store", Price: p.Price})
	}

	listings, err := m.store.ListListingsByProduct(p.ID)
	if err != nil {
		m.log.Warn().Err(err).Int64("product", p.ID).Msg("Failed to list listings for comparison")
		return prices
	}

	for _, l := range listings {
		price := l.LastSeenPrice
		if history, err := m.store.GetListingHistory(l.ID, 1); err == nil && len(history) > 0 {
			price = history[0].Price
		}
		if price <= 0 {
			continue
		}
		prices = append(prices, CompetitorPrice{
			CompetitorName: l.CompetitorName,
			Price:          price,
			URL:            l.URL,
		})
	}
	return prices
}

// EnhanceReport summarizes one EnhanceModelNumbers pass
type EnhanceReport struct {
	Checked  int      `json:"checked"`
	Enhanced int      `json:"enhanced"`
	Errors   []string `json:"errors,omitempty"`
}

// EnhanceModelNumbers asks the model service to re-derive model numbers for
// products whose extraction came up empty. Products the service also misses
// stay as they are.
func (m *Matcher) EnhanceModelNumbers(ctx context.Context) EnhanceReport {
	var report EnhanceReport

	if m.modelSvc == nil {
		return report
	}

	products, err := m.store.ListProducts()
	if err != nil {
		report.Errors = append(report.Errors, errors.NewMatcher("failed to list products", err).Error())
		return report
	}

	for _, p := range products {
		if p.UsableModel() {
			continue
		}
		report.Checked++

		model, err := m.modelSvc.ExtractModel(ctx, p.Title)
		if err != nil {
			report.Errors = append(report.Errors, errors.NewModelService("", fmt.Sprintf("model lookup for product %d failed", p.ID), err).Error())
			continue
		}
		if !usableModel(model) {
			continue
		}

		p.Model = model
		if err := m.store.UpdateProduct(p); err != nil {
			report.Errors = append(report.Errors, errors.NewMatcher(fmt.Sprintf("failed to update product %d", p.ID), err).Error())
			continue
		}
		report.Enhanced++
	}

	m.log.Info().
		Int("checked", report.Checked).
		Int("enhanced", report.Enhanced).
		Msg("Model enhancement pass finished")

	return report
}
