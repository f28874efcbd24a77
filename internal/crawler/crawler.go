package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/crawlkit/shopscraper/internal/dom"
	"github.com/crawlkit/shopscraper/internal/models"
	"github.com/crawlkit/shopscraper/internal/queue"
	"github.com/crawlkit/shopscraper/internal/ratelimit"
	"github.com/crawlkit/shopscraper/internal/sink"
)

// Fetcher opens a product page in a browser. The returned release func
// closes the page when extraction is done.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (dom.Page, func(), error)
}

// Extractor turns a loaded page into a product record.
type Extractor interface {
	Extract(ctx context.Context, page dom.Page) (*models.Product, error)
}

// ResultHook is called after each task finishes, successful or not.
// Used by the API layer to track job progress.
type ResultHook func(task *queue.Task, product *models.Product)

type Config struct {
	Workers    int
	MaxRetries int
}

func DefaultConfig() Config {
	return Config{
		Workers:    2,
		MaxRetries: 2,
	}
}

// Crawler drains the task queue with a fixed pool of workers. Each task
// is fetched, extracted and emitted to the sink; failed tasks are
// requeued until their retry budget runs out.
type Crawler struct {
	cfg       Config
	tasks     queue.Queue
	fetcher   Fetcher
	extractor Extractor
	out       sink.Sink
	limiter   ratelimit.Limiter
	hook      ResultHook
	logger    *slog.Logger
}

func New(cfg Config, tasks queue.Queue, fetcher Fetcher, extractor Extractor, out sink.Sink, limiter ratelimit.Limiter, logger *slog.Logger) *Crawler {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Crawler{
		cfg:       cfg,
		tasks:     tasks,
		fetcher:   fetcher,
		extractor: extractor,
		out:       out,
		limiter:   limiter,
		logger:    logger.With("component", "crawler"),
	}
}

func (c *Crawler) SetResultHook(hook ResultHook) {
	c.hook = hook
}

// Run blocks until the context ends or the queue closes.
func (c *Crawler) Run(ctx context.Context) error {
	c.logger.Info("crawler started", "workers", c.cfg.Workers)

	var wg sync.WaitGroup
	for i := 0; i < c.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c.worker(ctx, id)
		}(i)
	}

	wg.Wait()
	c.logger.Info("crawler stopped")
	return ctx.Err()
}

func (c *Crawler) worker(ctx context.Context, id int) {
	logger := c.logger.With("worker", id)

	for {
		task, err := c.tasks.Pop(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrQueueClosed) || ctx.Err() != nil {
				return
			}
			logger.Error("failed to pop task", "error", err)
			continue
		}

		if err := c.process(ctx, logger, task); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.retry(ctx, logger, task, err)
		}
	}
}

func (c *Crawler) process(ctx context.Context, logger *slog.Logger, task *queue.Task) error {
	domain := models.DomainOf(task.URL)
	if err := c.limiter.Wait(ctx, domain); err != nil {
		return err
	}

	logger.Info("processing task", "url", task.URL, "retries", task.Retries)

	page, release, err := c.fetcher.Fetch(ctx, task.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch page: %w", err)
	}
	defer release()

	product, err := c.extractor.Extract(ctx, page)
	if err != nil {
		return fmt.Errorf("failed to extract: %w", err)
	}

	if err := c.out.Emit(ctx, product); err != nil {
		return fmt.Errorf("failed to emit product: %w", err)
	}

	if c.hook != nil {
		c.hook(task, product)
	}

	logger.Info("task done",
		"url", task.URL,
		"provenance", product.Provenance,
		"images", len(product.Images))
	return nil
}

// retry requeues a failed task, or emits a terminal all-null record once
// the retry budget is exhausted.
func (c *Crawler) retry(ctx context.Context, logger *slog.Logger, task *queue.Task, cause error) {
	if task.Retries < c.cfg.MaxRetries {
		task.Retries++
		logger.Warn("requeueing failed task", "url", task.URL, "attempt", task.Retries, "error", cause)
		if err := c.tasks.Push(ctx, task); err != nil {
			logger.Error("failed to requeue task", "url", task.URL, "error", err)
		}
		return
	}

	logger.Error("task failed permanently", "url", task.URL, "error", cause)

	product := models.NewProduct(task.URL)
	product.Error = cause.Error()
	product.ScrapedAt = time.Now()

	if err := c.out.Emit(ctx, product); err != nil {
		logger.Error("failed to emit failure record", "url", task.URL, "error", err)
	}
	if c.hook != nil {
		c.hook(task, product)
	}
}
