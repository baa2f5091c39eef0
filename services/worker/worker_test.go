package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricescout/internal/scraper"
)

type stubDispatcher struct {
	mu      sync.Mutex
	calls   []string
	results map[string]scraper.Result
	delay   time.Duration
}

func (d *stubDispatcher) Scrape(ctx context.Context, url string) scraper.Result {
	d.mu.Lock()
	d.calls = append(d.calls, url)
	d.mu.Unlock()
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	if res, ok := d.results[url]; ok {
		return res
	}
	return scraper.Result{SourceURL: url}
}

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

func testResult(competitor, code string, products int) scraper.Result {
	res := scraper.Result{CompetitorName: competitor, SiteCode: code, TotalProducts: products}
	for i := 0; i < products; i++ {
		res.Products = append(res.Products, scraper.ScrapedProduct{
			Title: "NOCO GB40", Brand: "NOCO", Model: "GB40", Price: 159,
			CompetitorName: competitor,
		})
	}
	return res
}

func TestRunAllScrapesEveryURL(t *testing.T) {
	dispatcher := &stubDispatcher{results: map[string]scraper.Result{
		"https://a.example/chargers": testResult("A Store", "ast", 3),
		"https://b.example/chargers": testResult("B Store", "bst", 2),
		"https://c.example/chargers": {CompetitorName: "C Store", SiteCode: "cst", Failed: true},
	}}
	pub := newRecordingPublisher()
	runner := NewRunner(dispatcher, pub, nil, []string{
		"https://a.example/chargers",
		"https://b.example/chargers",
		"https://c.example/chargers",
		"https://d.example/chargers",
	})

	report := runner.RunAll(context.Background())

	assert.False(t, report.Skipped)
	assert.Equal(t, 4, report.URLs)
	assert.Equal(t, 5, report.TotalProducts)
	// c failed to fetch; d fetched fine but listed nothing, which is not
	// a failure
	assert.Equal(t, 1, report.Failures)
	assert.Len(t, dispatcher.calls, 4)

	// published under the site code, not the display name
	require.Len(t, pub.messages["ast"], 1)
	require.Len(t, pub.messages["bst"], 1)
	assert.Empty(t, pub.messages["A Store"])
	assert.Empty(t, pub.messages["cst"], "empty results are not published")
	assert.Equal(t, 1, pub.trims)
}

func TestRunAllSkipsWhenAlreadyRunning(t *testing.T) {
	dispatcher := &stubDispatcher{delay: 300 * time.Millisecond}
	runner := NewRunner(dispatcher, nil, nil, []string{"https://a.example/x"})

	done := make(chan BatchReport, 1)
	go func() {
		done <- runner.RunAll(context.Background())
	}()

	// wait until the first run is inside the dispatcher
	require.Eventually(t, func() bool {
		dispatcher.mu.Lock()
		defer dispatcher.mu.Unlock()
		return len(dispatcher.calls) == 1
	}, time.Second, 5*time.Millisecond)

	overlapping := runner.RunAll(context.Background())
	assert.True(t, overlapping.Skipped)

	first := <-done
	assert.False(t, first.Skipped)
	assert.Len(t, dispatcher.calls, 1)
}

func TestRunAllWithoutSinks(t *testing.T) {
	dispatcher := &stubDispatcher{results: map[string]scraper.Result{
		"https://a.example/x": testResult("A Store", "ast", 1),
	}}
	runner := NewRunner(dispatcher, nil, nil, []string{"https://a.example/x"})

	report := runner.RunAll(context.Background())
	assert.Equal(t, 1, report.TotalProducts)
}
