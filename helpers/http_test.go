package helpers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetchPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	reader, err := FetchPage(context.Background(), server.URL)
	assert.NoError(t, err)

	body, err := io.ReadAll(reader)
	assert.NoError(t, err)
	assert.Contains(t, string(body), "ok")
}

func TestFetchPageRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := FetchPage(context.Background(), server.URL)
	assert.Error(t, err)

	var rateErr *ErrRateLimited
	assert.ErrorAs(t, err, &rateErr)
	assert.Equal(t, "60", rateErr.RetryAfter)
}

func TestFetchPageServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := FetchPage(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestGetSplitPart(t *testing.T) {
	part, err := GetSplitPart("/our-range/auto/battery-chargers", "/", 2)
	assert.NoError(t, err)
	assert.Equal(t, "auto", part)

	_, err = GetSplitPart("a/b", "/", 5)
	assert.Error(t, err)
}
