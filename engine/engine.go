package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/vidqueue"
	"github.com/xraph/vidqueue/api"
	"github.com/xraph/vidqueue/batch"
	"github.com/xraph/vidqueue/consumer"
	"github.com/xraph/vidqueue/ext"
	"github.com/xraph/vidqueue/handler"
	"github.com/xraph/vidqueue/job"
	"github.com/xraph/vidqueue/mediaapi"
	mw "github.com/xraph/vidqueue/middleware"
	"github.com/xraph/vidqueue/observability"
	"github.com/xraph/vidqueue/queue"
	"github.com/xraph/vidqueue/queue/cfqueues"
	"github.com/xraph/vidqueue/queue/memory"
	"github.com/xraph/vidqueue/queue/redisq"
	"github.com/xraph/vidqueue/retry"
)

const scopeName = "github.com/xraph/vidqueue"

// Transport is a queue that can be both drained and fed.
type Transport interface {
	queue.Consumer
	queue.Producer
}

// Engine holds a fully wired vidqueue deployment.
type Engine struct {
	cfg        vidqueue.Config
	transport  Transport
	closers    []func() error
	extensions *ext.Registry
	userExts   []ext.Extension
	api        handler.API
	mws        []mw.Middleware
	logger     *slog.Logger

	dispatcher *handler.Dispatcher
	policy     *retry.Policy
	processor  *batch.Processor
	consumer   *consumer.Consumer
	inbound    *api.API

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger handed to every component.
func WithLogger(l *slog.Logger) Option {
	return func(eng *Engine) { eng.logger = l }
}

// WithExtension registers an extension alongside the metrics extension.
func WithExtension(e ext.Extension) Option {
	return func(eng *Engine) { eng.userExts = append(eng.userExts, e) }
}

// WithMiddleware appends middleware inside the default handler chain.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) { eng.mws = append(eng.mws, m) }
}

// WithTransport replaces the queue selected by Config.Queue.Backend.
func WithTransport(t Transport) Option {
	return func(eng *Engine) { eng.transport = t }
}

// WithMediaAPI replaces the media API client built from Config.API.
func WithMediaAPI(a handler.API) Option {
	return func(eng *Engine) { eng.api = a }
}

// WithTracerProvider sets a custom OTel TracerProvider for the handler
// chain. If not set, the global provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) { eng.tracerProvider = tp }
}

// WithMeterProvider sets a custom OTel MeterProvider for the handler chain
// and the metrics extension. If not set, the global provider is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) { eng.meterProvider = mp }
}

// Build wires a deployment from cfg. The configuration is not validated
// here; callers that talk to real services should call cfg.Validate first.
func Build(cfg vidqueue.Config, opts ...Option) (*Engine, error) {
	eng := &Engine{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = slog.Default()
	}

	eng.extensions = ext.NewRegistry(eng.logger)
	for _, e := range eng.userExts {
		eng.extensions.Register(e)
	}

	if eng.transport == nil {
		t, closer, err := openTransport(cfg, eng.logger)
		if err != nil {
			return nil, err
		}
		eng.transport = t
		if closer != nil {
			eng.closers = append(eng.closers, closer)
		}
	}

	if eng.api == nil {
		eng.api = mediaapi.New(cfg.API.BaseURL, cfg.API.AccountID, cfg.API.Token,
			mediaapi.WithTimeout(cfg.API.Timeout),
			mediaapi.WithRateLimit(cfg.API.RateLimit, cfg.API.RateBurst),
			mediaapi.WithLogger(eng.logger),
		)
	}

	var (
		tracingMw mw.Middleware
		metricsMw mw.Middleware
		obsExt    *observability.MetricsExtension
	)
	if eng.tracerProvider != nil {
		tracingMw = mw.TracingWithTracer(eng.tracerProvider.Tracer(scopeName))
	} else {
		tracingMw = mw.Tracing()
	}
	if eng.meterProvider != nil {
		metricsMw = mw.MetricsWithMeter(eng.meterProvider.Meter(scopeName))
		obsExt = observability.NewMetricsExtensionWithMeter(eng.meterProvider.Meter(scopeName + "/observability"))
	} else {
		metricsMw = mw.Metrics()
		obsExt = observability.NewMetricsExtension()
	}
	eng.extensions.Register(obsExt)

	// recover → tracing → metrics → logging → user → timeout
	chain := []mw.Middleware{
		mw.Recover(eng.logger),
		tracingMw,
		metricsMw,
		mw.Logging(eng.logger),
	}
	chain = append(chain, eng.mws...)
	if cfg.API.Timeout > 0 {
		chain = append(chain, mw.Timeout(cfg.API.Timeout))
	}

	table := handler.Table(eng.api, eng.logger, handler.WithDefaultLanguage(cfg.API.CaptionLanguage))
	eng.dispatcher = handler.NewDispatcher(table,
		handler.WithMiddleware(chain...),
		handler.WithLogger(eng.logger),
	)

	// The retry delay is fixed; it is not configurable.
	eng.policy = retry.NewPolicy()

	eng.processor = batch.New(eng.dispatcher, eng.policy,
		batch.WithConcurrency(cfg.Consumer.Concurrency),
		batch.WithLogger(eng.logger),
		batch.WithExtensions(eng.extensions),
	)

	eng.consumer = consumer.New(eng.transport, eng.processor,
		consumer.WithBatchSize(cfg.Queue.BatchSize),
		consumer.WithPollInterval(cfg.Consumer.PollInterval),
		consumer.WithBatchTimeout(cfg.Consumer.BatchTimeout),
		consumer.WithLogger(eng.logger),
		consumer.WithExtensions(eng.extensions),
	)

	eng.inbound = api.New(eng.transport, api.WithLogger(eng.logger))

	return eng, nil
}

// openTransport selects the queue backend named by cfg.
func openTransport(cfg vidqueue.Config, logger *slog.Logger) (Transport, func() error, error) {
	switch cfg.Queue.Backend {
	case vidqueue.BackendCloudflare:
		return cfqueues.New(cfg.API.BaseURL, cfg.API.AccountID, cfg.Queue.QueueID, cfg.API.Token,
			cfqueues.WithVisibility(cfg.Queue.VisibilityTimeout),
			cfqueues.WithLogger(logger),
		), nil, nil
	case vidqueue.BackendRedis:
		client := goredis.NewClient(&goredis.Options{Addr: cfg.Queue.RedisAddr})
		q := redisq.New(client,
			redisq.WithPrefix(cfg.Queue.RedisPrefix),
			redisq.WithVisibility(cfg.Queue.VisibilityTimeout),
			redisq.WithMaxAttempts(cfg.Queue.MaxAttempts),
			redisq.WithLogger(logger),
		)
		return q, client.Close, nil
	case vidqueue.BackendMemory:
		q := memory.New(memory.WithVisibility(cfg.Queue.VisibilityTimeout))
		return q, q.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", vidqueue.ErrUnknownBackend, cfg.Queue.Backend)
	}
}

// Enqueue validates j and sends it to the transport.
func (eng *Engine) Enqueue(ctx context.Context, j job.Job) error {
	if err := j.Validate(); err != nil {
		return err
	}
	return queue.SendJob(ctx, eng.transport, j)
}

// Start launches the consumer loop.
func (eng *Engine) Start(ctx context.Context) error {
	return eng.consumer.Start(ctx)
}

// Stop waits for the consumer's current pass, then releases the transport.
func (eng *Engine) Stop(ctx context.Context) error {
	err := eng.consumer.Stop(ctx)
	return errors.Join(err, eng.Close())
}

// Close releases transport connections. It is safe to call more than once.
func (eng *Engine) Close() error {
	closers := eng.closers
	eng.closers = nil

	var errs []error
	for _, c := range closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Config returns the configuration the engine was built from.
func (eng *Engine) Config() vidqueue.Config { return eng.cfg }

// Transport returns the queue transport.
func (eng *Engine) Transport() Transport { return eng.transport }

// Extensions returns the extension registry.
func (eng *Engine) Extensions() *ext.Registry { return eng.extensions }

// Dispatcher returns the action dispatcher.
func (eng *Engine) Dispatcher() *handler.Dispatcher { return eng.dispatcher }

// Policy returns the retry policy.
func (eng *Engine) Policy() *retry.Policy { return eng.policy }

// Processor returns the batch processor.
func (eng *Engine) Processor() *batch.Processor { return eng.processor }

// Consumer returns the pull/process/report loop.
func (eng *Engine) Consumer() *consumer.Consumer { return eng.consumer }

// Handler returns the inbound HTTP handler.
func (eng *Engine) Handler() http.Handler { return eng.inbound.Handler() }
