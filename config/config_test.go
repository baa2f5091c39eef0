package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, "localhost:6379", config.RedisAddr)
	assert.Equal(t, 0, config.RedisDB)
	assert.Equal(t, "scrapes", config.RedisStream)
	assert.Equal(t, 1, config.RedisStreamCount)
	assert.Equal(t, "localhost:11211", config.MemcacheAddr)
	assert.Equal(t, 10*time.Second, config.ModelServiceTimeout)
	assert.Empty(t, config.MonitorURLs)

	// Test with environment variables
	os.Setenv("REDIS_ADDR", "redis.example.com:6379")
	os.Setenv("REDIS_DB", "1")
	os.Setenv("MONITOR_URLS", "https://www.bunnings.com.au/our-range/chargers, https://www.repco.com.au/battery-chargers")
	os.Setenv("RENDER_OVERRIDES", "bunnings=browser, repco=static")
	os.Setenv("MODEL_SERVICE_URL", "http://modelsvc:8080")

	config = LoadConfig()
	assert.Equal(t, "redis.example.com:6379", config.RedisAddr)
	assert.Equal(t, 1, config.RedisDB)
	assert.Equal(t, []string{
		"https://www.bunnings.com.au/our-range/chargers",
		"https://www.repco.com.au/battery-chargers",
	}, config.MonitorURLs)
	assert.Equal(t, "browser", config.RenderOverrides["bunnings"])
	assert.Equal(t, "static", config.RenderOverrides["repco"])
	assert.Equal(t, "http://modelsvc:8080", config.ModelServiceURL)

	// Clean up
	os.Unsetenv("REDIS_ADDR")
	os.Unsetenv("REDIS_DB")
	os.Unsetenv("MONITOR_URLS")
	os.Unsetenv("RENDER_OVERRIDES")
	os.Unsetenv("MODEL_SERVICE_URL")
}

func TestValidate(t *testing.T) {
	cfg := LoadConfig()
	assert.Error(t, cfg.Validate(), "no monitor URLs should fail validation")

	cfg.MonitorURLs = []string{"https://www.bunnings.com.au/chargers"}
	assert.NoError(t, cfg.Validate())

	cfg.MonitorURLs = append(cfg.MonitorURLs, "not a url")
	assert.Error(t, cfg.Validate())

	cfg.MonitorURLs = []string{"ftp://example.com/x"}
	assert.Error(t, cfg.Validate())

	cfg.MonitorURLs = []string{"https://www.bunnings.com.au/chargers"}
	cfg.RenderOverrides = map[string]string{"bunnings": "ocr"}
	assert.Error(t, cfg.Validate())
}
