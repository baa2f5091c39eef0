package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Redis configuration (scrape result stream)
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration (per-site rate-limit guard)
	MemcacheAddr string

	// Model-number service
	ModelServiceURL     string
	ModelServiceTimeout time.Duration

	// Browser rendering backend
	BrowserBin string

	// Scheduling
	ScrapeCron string

	// Listing pages to monitor, one URL per competitor listing page
	MonitorURLs []string

	// Render-mode overrides keyed by site code ("bunnings=browser,repco=static").
	// The strategy registry supplies the default mode per site.
	RenderOverrides map[string]string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	modelTimeout, _ := strconv.Atoi(getEnv("MODEL_SERVICE_TIMEOUT_SECONDS", "10"))

	return &Config{
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "scrapes"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLength,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		ModelServiceURL:      getEnv("MODEL_SERVICE_URL", ""),
		ModelServiceTimeout:  time.Duration(modelTimeout) * time.Second,
		BrowserBin:           getEnv("BROWSER_BIN", ""),
		ScrapeCron:           getEnv("SCRAPE_CRON", "0 0 */6 * * *"),
		MonitorURLs:          splitList(getEnv("MONITOR_URLS", "")),
		RenderOverrides:      parseOverrides(getEnv("RENDER_OVERRIDES", "")),
		Environment:          getEnv("PRICESCOUT_ENVIRONMENT", "development"),
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if len(c.MonitorURLs) == 0 {
		return fmt.Errorf("no monitor URLs configured (MONITOR_URLS)")
	}
	for _, raw := range c.MonitorURLs {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
			return fmt.Errorf("invalid monitor URL %q", raw)
		}
	}
	for _, mode := range c.RenderOverrides {
		if mode != "static" && mode != "browser" {
			return fmt.Errorf("invalid render mode %q (want static or browser)", mode)
		}
	}
	if c.RedisStreamCount < 1 {
		return fmt.Errorf("REDIS_STREAM_COUNT must be at least 1")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// splitList splits a comma-separated env value, dropping empty entries
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseOverrides parses "site=mode" pairs separated by commas
func parseOverrides(value string) map[string]string {
	overrides := make(map[string]string)
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		overrides[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return overrides
}
