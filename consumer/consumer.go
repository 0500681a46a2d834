// Package consumer drives a queue: it pulls a batch, runs it through the
// batch processor, and reports the dispositions back, in a loop.
package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/vidqueue"
	"github.com/xraph/vidqueue/batch"
	"github.com/xraph/vidqueue/ext"
	"github.com/xraph/vidqueue/job"
	"github.com/xraph/vidqueue/queue"
	"github.com/xraph/vidqueue/retry"
)

// ackTimeout bounds the report call, which runs even after the batch
// budget has expired.
const ackTimeout = 10 * time.Second

// Processor handles one batch. batch.Processor implements it.
type Processor interface {
	Process(ctx context.Context, jobs []job.Job) []retry.Disposition
}

// Result describes one pass.
type Result struct {
	Pulled  int
	Summary batch.Summary
	Elapsed time.Duration
}

// Consumer runs the pull/process/report loop.
type Consumer struct {
	source       queue.Consumer
	processor    Processor
	extensions   *ext.Registry
	batchSize    int
	pollInterval time.Duration
	batchTimeout time.Duration
	logger       *slog.Logger

	stopCh  chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// Option configures a Consumer.
type Option func(*Consumer)

// WithBatchSize sets the maximum number of messages pulled per pass.
func WithBatchSize(n int) Option {
	return func(c *Consumer) { c.batchSize = n }
}

// WithPollInterval sets the pause after an empty or failed pass.
func WithPollInterval(d time.Duration) Option {
	return func(c *Consumer) { c.pollInterval = d }
}

// WithBatchTimeout sets the execution budget of one pass. Jobs not
// started when it expires are left for redelivery. Zero disables it.
func WithBatchTimeout(d time.Duration) Option {
	return func(c *Consumer) { c.batchTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Consumer) { c.logger = l }
}

// WithExtensions sets the registry notified of batch and shutdown events.
func WithExtensions(r *ext.Registry) Option {
	return func(c *Consumer) { c.extensions = r }
}

// New creates a Consumer.
func New(source queue.Consumer, processor Processor, opts ...Option) *Consumer {
	c := &Consumer{
		source:       source,
		processor:    processor,
		batchSize:    10,
		pollInterval: 30 * time.Second,
		batchTimeout: 25 * time.Second,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.extensions == nil {
		c.extensions = ext.NewRegistry(c.logger)
	}
	return c
}

// RunOnce performs a single pull/process/report pass.
func (c *Consumer) RunOnce(ctx context.Context) (Result, error) {
	start := time.Now()

	msgs, err := c.source.Pull(ctx, c.batchSize)
	if err != nil {
		return Result{}, fmt.Errorf("pull: %w", err)
	}
	if len(msgs) == 0 {
		return Result{}, nil
	}

	runCtx := ctx
	if c.batchTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.batchTimeout)
		defer cancel()
	}

	ds := c.processor.Process(runCtx, queue.Jobs(msgs))
	report := queue.BuildReport(msgs, ds)
	res := Result{Pulled: len(msgs), Summary: batch.Summarize(ds)}

	if !report.Empty() {
		ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ackTimeout)
		defer cancel()
		if err := c.source.Ack(ackCtx, report); err != nil {
			res.Elapsed = time.Since(start)
			return res, fmt.Errorf("ack: %w", err)
		}
	}

	res.Elapsed = time.Since(start)
	c.logger.Info("batch processed",
		slog.Int("messages", res.Pulled),
		slog.Int("acked", res.Summary.Acked),
		slog.Int("retried", res.Summary.Retried),
		slog.Int("unreported", res.Summary.Unreported),
		slog.Duration("elapsed", res.Elapsed),
	)
	c.extensions.EmitBatchProcessed(ctx, res.Pulled, res.Elapsed)
	return res, nil
}

// Drain runs passes until the queue returns an empty batch, a pass
// fails, or ctx is done.
func (c *Consumer) Drain(ctx context.Context) (Result, error) {
	var total Result
	start := time.Now()
	for ctx.Err() == nil {
		res, err := c.RunOnce(ctx)
		total.Pulled += res.Pulled
		total.Summary.Acked += res.Summary.Acked
		total.Summary.Retried += res.Summary.Retried
		total.Summary.Unreported += res.Summary.Unreported
		if err != nil || res.Pulled == 0 {
			total.Elapsed = time.Since(start)
			return total, err
		}
	}
	total.Elapsed = time.Since(start)
	return total, ctx.Err()
}

// Start launches the loop. It returns immediately.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return vidqueue.ErrConsumerRunning
	}
	c.running = true
	c.stopCh = make(chan struct{})

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel

	c.logger.Info("consumer starting",
		slog.Int("batch_size", c.batchSize),
		slog.Duration("poll_interval", c.pollInterval),
		slog.Duration("batch_timeout", c.batchTimeout),
	)

	c.wg.Add(1)
	go c.loop(loopCtx)
	return nil
}

// Stop signals the loop to stop and waits for the current pass. If ctx
// expires first, the pass is cancelled; its unstarted jobs are left for
// redelivery.
func (c *Consumer) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	cancel := c.cancel
	c.mu.Unlock()

	c.logger.Info("consumer stopping")
	close(c.stopCh)

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("consumer stopped gracefully")
	case <-ctx.Done():
		c.logger.Warn("consumer shutdown timed out, cancelling current batch")
		cancel()
		c.wg.Wait()
	}
	cancel()

	c.extensions.EmitShutdown(ctx)
	return nil
}

func (c *Consumer) loop(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		res, err := c.RunOnce(ctx)
		if err != nil {
			c.logger.Error("batch pass failed", slog.String("error", err.Error()))
			c.sleep()
			continue
		}
		if res.Pulled == 0 {
			c.sleep()
		}
	}
}

func (c *Consumer) sleep() {
	t := time.NewTimer(c.pollInterval)
	defer t.Stop()
	select {
	case <-t.C:
	case <-c.stopCh:
	}
}
