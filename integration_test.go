package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricescout/internal/catalog"
	"pricescout/internal/scraper"
	"pricescout/services/cache"
	"pricescout/services/worker"
)

// listing page that mimics a storefront category grid
const testListingHTML = `
<!DOCTYPE html>
<html>
<head><title>Battery Chargers</title></head>
<body>
    <div class="grid">
        <div class="product-card">
            <a href="/p/noco-gb40"><img src="/img/gb40.jpg" alt="GB40" /></a>
            <h3>NOCO Boost Plus GB40 1000A Jump Starter</h3>
            <span class="price-was">$189.00</span>
            <span class="price-now">$159.00</span>
        </div>
        <div class="product-card">
            <a href="/p/ctek-mxs50"><img src="/img/mxs50.jpg" alt="MXS 5.0" /></a>
            <h3>CTEK MXS 5.0 Battery Charger</h3>
            <span class="price">$119.00</span>
        </div>
        <div class="product-card">
            <a href="/p/projecta-ic1500"><img src="/img/ic1500.jpg" alt="IC1500" /></a>
            <h3>Projecta IC1500 Intelli-Charge 15A</h3>
            <span class="price">$249.00</span>
            <span class="badge">Bonus battery blanket</span>
        </div>
        <div class="product-card">
            <a href="/p/matson-mb3748e"><img src="/img/mb3748e.jpg" alt="MB3748E" /></a>
            <h3>Matson MB3748E Workshop Charger</h3>
            <span class="price">$329.00</span>
        </div>
        <div class="product-card">
            <a href="/p/ozito-pxc800"><img src="/img/pxc800.jpg" alt="PXC-800" /></a>
            <h3>Ozito PXC-800 12V Charger</h3>
            <span class="price">$79.00</span>
        </div>
        <div class="product-card">
            <a href="/p/thumper-trb75"><img src="/img/trb75.jpg" alt="TRB-75" /></a>
            <h3>Thumper TRB-75 Redback Power Pack</h3>
            <span class="price">$599.00</span>
        </div>
    </div>
</body>
</html>
`

// recordingPublisher collects published payloads in memory
type recordingPublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
	trims    int
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{messages: make(map[string][][]byte)}
}

func (p *recordingPublisher) Publish(siteCode string, message []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages[siteCode] = append(p.messages[siteCode], message)
	return nil
}

func (p *recordingPublisher) TrimStreams() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trims++
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestFullPipelineAgainstTestServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, testListingHTML)
	}))
	defer server.Close()

	// an unrecognized host routes through the generic strategy
	dispatcher := scraper.NewDispatcher(scraper.NewStaticRenderer(), nil, nil, nil, nil)
	pub := newRecordingPublisher()
	runner := worker.NewRunner(dispatcher, pub, nil, []string{server.URL + "/battery-chargers"})

	report := runner.RunAll(context.Background())

	assert.Equal(t, 1, report.URLs)
	assert.Equal(t, 6, report.TotalProducts)
	assert.Zero(t, report.Failures)
	assert.Equal(t, 1, pub.trims)

	payloads := pub.messages["gen"]
	require.Len(t, payloads, 1)

	var res scraper.Result
	require.NoError(t, json.Unmarshal(payloads[0], &res))
	require.Len(t, res.Products, 6)
	assert.Equal(t, "battery chargers", res.CategoryName)

	byModel := make(map[string]scraper.ScrapedProduct)
	for _, p := range res.Products {
		byModel[p.Model] = p
	}

	gb40 := byModel["GB40"]
	assert.Equal(t, "NOCO", gb40.Brand)
	assert.Equal(t, 159.0, gb40.Price)
	assert.Equal(t, 189.0, gb40.RegularPrice)
	assert.True(t, strings.HasPrefix(gb40.URL, server.URL))
	assert.True(t, strings.HasSuffix(gb40.URL, "/p/noco-gb40"))

	mxs := byModel["MXS"]
	assert.Equal(t, "CTEK", mxs.Brand)
	assert.Equal(t, 119.0, mxs.Price)
	assert.Zero(t, mxs.RegularPrice)

	ic1500 := byModel["IC1500"]
	assert.True(t, ic1500.HasPromotion)
	assert.Equal(t, "Bonus battery blanket", ic1500.PromotionText)
}

func TestPipelineRecordsIntoCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, testListingHTML)
	}))
	defer server.Close()

	dispatcher := scraper.NewDispatcher(scraper.NewStaticRenderer(), nil, nil, nil, nil)
	res := dispatcher.Scrape(context.Background(), server.URL+"/battery-chargers")
	require.Equal(t, 6, res.TotalProducts)

	store := newMemStore()
	report := catalog.NewIngestor(store).RecordRun(res)
	assert.Equal(t, 6, report.ProductsSeeded)
	assert.Equal(t, 6, report.ListingsCreated)
	assert.Equal(t, 6, report.Snapshots)
	assert.Empty(t, report.Errors)

	// a second observation updates listings and appends snapshots
	report = catalog.NewIngestor(store).RecordRun(res)
	assert.Zero(t, report.ProductsSeeded)
	assert.Equal(t, 6, report.ListingsUpdated)
}

func TestRateLimitedServerBlocksFollowUpRuns(t *testing.T) {
	var hits int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	limiter := newTestLimiter()
	dispatcher := scraper.NewDispatcher(scraper.NewStaticRenderer(), nil, nil, limiter, nil)

	res := dispatcher.Scrape(context.Background(), server.URL+"/chargers")
	assert.Zero(t, res.TotalProducts)
	assert.True(t, res.Failed)

	// cool-down keeps the second scrape away from the server
	dispatcher.Scrape(context.Background(), server.URL+"/chargers")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, hits)
}

// memCache is a minimal in-memory cache.CacheService
type memCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func (c *memCache) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.items[key]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("cache miss: %s", key)
}

func (c *memCache) Set(key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *memCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func newTestLimiter() *cache.SiteLimiter {
	return cache.NewSiteLimiter(&memCache{items: make(map[string][]byte)}, time.Minute)
}

// memStore is a minimal in-memory catalog.Store
type memStore struct {
	products  map[int64]catalog.Product
	listings  map[int64]catalog.Listing
	snapshots map[int64][]catalog.Snapshot
	nextID    int64
}

func newMemStore() *memStore {
	return &memStore{
		products:  make(map[int64]catalog.Product),
		listings:  make(map[int64]catalog.Listing),
		snapshots: make(map[int64][]catalog.Snapshot),
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) ListProducts() ([]catalog.Product, error) {
	var out []catalog.Product
	for id := int64(1); id <= s.nextID; id++ {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) GetProductByID(id int64) (catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, fmt.Errorf("product %d not found", id)
	}
	return p, nil
}

func (s *memStore) CreateProduct(p catalog.Product) (catalog.Product, error) {
	p.ID = s.id()
	s.products[p.ID] = p
	return p, nil
}

func (s *memStore) UpdateProduct(p catalog.Product) error {
	s.products[p.ID] = p
	return nil
}

func (s *memStore) DeleteProduct(id int64) error {
	delete(s.products, id)
	return nil
}

func (s *memStore) ListListingsByProduct(productID int64) ([]catalog.Listing, error) {
	var out []catalog.Listing
	for id := int64(1); id <= s.nextID; id++ {
		if l, ok := s.listings[id]; ok && l.ProductID == productID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *memStore) CreateListing(l catalog.Listing) (catalog.Listing, error) {
	l.ID = s.id()
	s.listings[l.ID] = l
	return l, nil
}

func (s *memStore) UpdateListing(l catalog.Listing) error {
	s.listings[l.ID] = l
	return nil
}

func (s *memStore) CreateSnapshot(snap catalog.Snapshot) (catalog.Snapshot, error) {
	snap.ID = s.id()
	s.snapshots[snap.ListingID] = append([]catalog.Snapshot{snap}, s.snapshots[snap.ListingID]...)
	return snap, nil
}

func (s *memStore) GetListingHistory(listingID int64, limit int) ([]catalog.Snapshot, error) {
	history := s.snapshots[listingID]
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}
