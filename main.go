package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"pricescout/config"
	"pricescout/internal/scraper"
	"pricescout/logger"
	"pricescout/services/cache"
	"pricescout/services/modelsvc"
	"pricescout/services/publisher"
	"pricescout/services/worker"
)

const rateLimitCoolDown = 30 * time.Minute

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("schedule", cfg.ScrapeCron).
		Int("monitor_urls", len(cfg.MonitorURLs)).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	// a typed nil must not reach the dispatcher as a usable renderer
	var browser scraper.Renderer
	if services.Browser != nil {
		browser = services.Browser
	}
	dispatcher := scraper.NewDispatcher(
		services.Static,
		browser,
		services.ModelSvc,
		services.Limiter,
		cfg.RenderOverrides,
	)

	runner := worker.NewRunner(dispatcher, services.Publisher, nil, cfg.MonitorURLs)

	// Schedule recurring batch runs, plus one immediately on startup
	scheduler := cron.New(cron.WithSeconds())
	if _, err := scheduler.AddFunc(cfg.ScrapeCron, func() {
		runner.RunAll(ctx)
	}); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.ScrapeCron).Msg("Invalid scrape schedule")
	}
	scheduler.Start()
	defer scheduler.Stop()

	go runner.RunAll(ctx)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	cancel()

	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Publisher publisher.Publisher
	Limiter   *cache.SiteLimiter
	ModelSvc  scraper.ModelService
	Static    scraper.Renderer
	Browser   *scraper.BrowserRenderer
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Browser != nil {
		s.Browser.Close()
	}
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{
		Static: scraper.NewStaticRenderer(),
	}

	// Initialize cache-backed rate limiter
	cacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
	services.Limiter = cache.NewSiteLimiter(cacheService, rateLimitCoolDown)
	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)

	// Initialize publisher
	services.Publisher = publisher.NewRedisPublisher(
		ctx,
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		cfg.RedisStreamCount,
		cfg.RedisStreamMaxLength,
	)
	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
		cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	// Model service is optional; local extraction covers its absence
	if cfg.ModelServiceURL != "" {
		client := modelsvc.NewClient(cfg.ModelServiceURL, cfg.ModelServiceTimeout)
		if err := client.HealthCheck(); err != nil {
			logger.Warn("Model service unreachable at %s: %v", cfg.ModelServiceURL, err)
		}
		services.ModelSvc = client
	}

	// Browser is optional too; browser-mode sites degrade to static fetches
	browser, err := scraper.NewBrowserRenderer(cfg.BrowserBin)
	if err != nil {
		logger.Warn("Browser renderer unavailable, using static fetches only: %v", err)
	} else {
		services.Browser = browser
	}

	return services, nil
}
