package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/crawlkit/shopscraper/internal/api"
	"github.com/crawlkit/shopscraper/internal/browser"
	"github.com/crawlkit/shopscraper/internal/config"
	"github.com/crawlkit/shopscraper/internal/crawler"
	"github.com/crawlkit/shopscraper/internal/extract"
	"github.com/crawlkit/shopscraper/internal/models"
	"github.com/crawlkit/shopscraper/internal/queue"
	"github.com/crawlkit/shopscraper/internal/ratelimit"
	"github.com/crawlkit/shopscraper/internal/sink"
	"github.com/crawlkit/shopscraper/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting extraction server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	b, err := browser.New(&browser.Options{
		Headless:       cfg.Browser.Headless,
		Timeout:        cfg.Browser.Timeout,
		UserAgent:      cfg.Browser.UserAgent,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		AcceptLanguage: cfg.Browser.AcceptLanguage,
		TimezoneID:     cfg.Browser.TimezoneID,
		Locale:         cfg.Browser.Locale,
	})
	if err != nil {
		logger.Error("Failed to initialize browser", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	tasks, err := buildQueue(cfg)
	if err != nil {
		logger.Error("Failed to set up queue", "error", err)
		os.Exit(1)
	}
	defer tasks.Close()

	out, err := buildSink(ctx, cfg)
	if err != nil {
		logger.Error("Failed to set up sink", "error", err)
		os.Exit(1)
	}
	defer out.Close()

	jobs := api.NewJobStore()
	fetcher := crawler.NewBrowserFetcher(b)
	extractor := extract.NewCoordinator()
	limiter := ratelimit.NewDomainLimiter(cfg.Crawler.RateLimitMin, cfg.Crawler.RateLimitMax)

	c := crawler.New(
		crawler.Config{Workers: cfg.Crawler.Workers, MaxRetries: cfg.Crawler.MaxRetries},
		tasks,
		fetcher,
		extractor,
		out,
		limiter,
		logger,
	)
	c.SetResultHook(func(task *queue.Task, product *models.Product) {
		jobs.RecordResult(task.JobID, product)
	})

	go func() {
		if err := c.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Crawler stopped", "error", err)
		}
	}()

	handlers := api.NewHandlers(fetcher, extractor, tasks, jobs, logger)
	router := api.NewRouter(handlers)

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", "error", err)
		}
	}()

	logger.Info("Server listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped")
}

func buildQueue(cfg *config.Config) (queue.Queue, error) {
	if cfg.Queue.Type == "redis" {
		opts, err := redis.ParseURL(cfg.Queue.RedisURL)
		if err != nil {
			return nil, err
		}
		return queue.NewRedisQueue(redis.NewClient(opts), cfg.Queue.RedisKey), nil
	}
	return queue.NewInMemoryQueue(), nil
}

func buildSink(ctx context.Context, cfg *config.Config) (sink.Sink, error) {
	if !cfg.Database.Enabled {
		return sink.NewStdoutSink(), nil
	}

	pg, err := sink.NewPostgresSink(ctx, sink.PostgresConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.DBName,
		MaxConns: 10,
		MinConns: 2,
	})
	if err != nil {
		return nil, err
	}
	return pg, nil
}
