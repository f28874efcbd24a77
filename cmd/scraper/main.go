package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"

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
	var (
		urls      = flag.String("urls", "", "Comma-separated list of product page URLs to scrape")
		inputFile = flag.String("file", "", "File containing URLs (one per line)")
		output    = flag.String("output", "", "Write results to this JSON file instead of stdout")
		headless  = flag.Bool("headless", true, "Run browser in headless mode")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting product scraper")

	targets, err := collectTargets(*urls, *inputFile)
	if err != nil {
		logger.Error("Failed to read targets", "error", err)
		os.Exit(1)
	}
	if len(targets) == 0 {
		logger.Error("No URLs given; use -urls or -file")
		os.Exit(1)
	}

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
		Headless:       *headless && cfg.Browser.Headless,
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

	var out sink.Sink
	if *output != "" {
		out, err = sink.NewFileSink(*output)
		if err != nil {
			logger.Error("Failed to open output file", "path", *output, "error", err)
			os.Exit(1)
		}
	} else {
		out = sink.NewStdoutSink()
	}
	defer out.Close()

	tasks := queue.NewInMemoryQueue()
	for _, target := range targets {
		task := &queue.Task{
			ID:        uuid.NewString(),
			URL:       target,
			CreatedAt: time.Now(),
		}
		if err := tasks.Push(ctx, task); err != nil {
			logger.Error("Failed to enqueue URL", "url", target, "error", err)
			os.Exit(1)
		}
	}

	limiter := ratelimit.NewDomainLimiter(cfg.Crawler.RateLimitMin, cfg.Crawler.RateLimitMax)

	c := crawler.New(
		crawler.Config{Workers: cfg.Crawler.Workers, MaxRetries: cfg.Crawler.MaxRetries},
		tasks,
		crawler.NewBrowserFetcher(b),
		extract.NewCoordinator(),
		out,
		limiter,
		logger,
	)

	// Close the queue once every target has a result so workers drain out.
	done := make(chan struct{})
	remaining := int64(len(targets))
	c.SetResultHook(func(_ *queue.Task, _ *models.Product) {
		if atomic.AddInt64(&remaining, -1) == 0 {
			close(done)
		}
	})

	go func() {
		select {
		case <-done:
		case <-ctx.Done():
		}
		tasks.Close()
	}()

	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("Crawler stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Scrape finished", "urls", len(targets))
}

func collectTargets(urls, inputFile string) ([]string, error) {
	var targets []string

	for _, u := range strings.Split(urls, ",") {
		if u = strings.TrimSpace(u); u != "" {
			targets = append(targets, u)
		}
	}

	if inputFile != "" {
		f, err := os.Open(inputFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" && !strings.HasPrefix(line, "#") {
				targets = append(targets, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	return targets, nil
}
