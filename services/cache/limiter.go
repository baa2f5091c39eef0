package cache

import (
	"fmt"
	"time"
)

// SiteLimiter tracks per-site scrape cool-downs on top of a CacheService.
// A site that answered with a throttling status is blocked for a fixed
// window so repeated batch runs don't hammer it.
type SiteLimiter struct {
	cache     CacheService
	blockTime time.Duration
}

// NewSiteLimiter creates a limiter with the given cool-down window
func NewSiteLimiter(cache CacheService, blockTime time.Duration) *SiteLimiter {
	return &SiteLimiter{
		cache:     cache,
		blockTime: blockTime,
	}
}

// Blocked reports whether the site is currently in a cool-down window
func (l *SiteLimiter) Blocked(siteCode string) bool {
	if l == nil || l.cache == nil || siteCode == "" {
		return false
	}
	_, err := l.cache.Get(l.key(siteCode))
	return err == nil
}

// Block starts a cool-down window for the site
func (l *SiteLimiter) Block(siteCode string) error {
	if l == nil || l.cache == nil || siteCode == "" {
		return nil
	}
	value := []byte(fmt.Sprintf("%d", l.blockTime/time.Second))
	return l.cache.Set(l.key(siteCode), value, l.blockTime)
}

func (l *SiteLimiter) key(siteCode string) string {
	return siteCode + "_rate_limited"
}
