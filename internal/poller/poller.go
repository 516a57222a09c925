package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 10 * time.Second

// Job is the endpoint a [Poller] fetches.
type Job struct {
	// Name identifies the widget the job feeds; used in logs.
	Name string
	// URL is the backend endpoint.
	URL string
	// Headers are sent with every request.
	Headers map[string]string
	// Timeout is the per-request timeout. Zero means 10s.
	Timeout time.Duration
	// Interval is the time between fetches. Must be positive.
	Interval time.Duration
}

// Consumer applies a successful response body, typically by parsing and
// aggregating it and publishing the result. A returned error is logged and
// the previously published state is left untouched.
//
// Consumers run under the poller's lock and must not call [Handle.Stop].
type Consumer func(body []byte) error

// Poller periodically fetches one [Job] and hands each successful body to a
// [Consumer].
//
// A Poller can be activated repeatedly. Each activation gets a new generation;
// results from an older generation are discarded.
type Poller struct {
	job     Job
	client  *Client
	consume Consumer
	logger  *slog.Logger

	mu         sync.Mutex
	generation uint64
	current    *Handle
}

// New creates a [Poller]. If client is nil a new [Client] is created; if
// logger is nil [slog.Default] is used.
func New(job Job, client *Client, consume Consumer, logger *slog.Logger) (*Poller, error) {
	if job.Name == "" {
		return nil, errors.New("job name cannot be empty")
	}
	if job.URL == "" {
		return nil, fmt.Errorf("job %q: url cannot be empty", job.Name)
	}
	if job.Interval <= 0 {
		return nil, fmt.Errorf("job %q: interval must be positive", job.Name)
	}
	if consume == nil {
		return nil, fmt.Errorf("job %q: consumer cannot be nil", job.Name)
	}
	if job.Timeout <= 0 {
		job.Timeout = defaultTimeout
	}
	if client == nil {
		client = NewClient()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Poller{
		job:     job,
		client:  client,
		consume: consume,
		logger:  logger,
	}, nil
}

// Handle is an activation of a [Poller]. It owns the timer loop and must be
// released with [Handle.Stop].
type Handle struct {
	p        *Poller
	gen      uint64
	cancel   context.CancelFunc
	loopDone chan struct{}
	stopOnce sync.Once

	// guarded by p.mu
	stopped bool

	inFlight atomic.Bool
	fetches  sync.WaitGroup
}

// Activate starts polling: one fetch immediately, then one per interval until
// the returned handle is stopped or ctx is cancelled.
//
// Activating an already active Poller stops the previous handle first.
func (p *Poller) Activate(ctx context.Context) *Handle {
	if ctx == nil {
		ctx = context.Background()
	}
	loopCtx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	p.generation++
	h := &Handle{
		p:        p,
		gen:      p.generation,
		cancel:   cancel,
		loopDone: make(chan struct{}),
	}
	prev := p.current
	if prev != nil {
		prev.stopped = true
	}
	p.current = h
	p.mu.Unlock()

	if prev != nil {
		prev.halt()
	}

	go h.run(loopCtx)
	return h
}

// Generation returns the activation counter, incremented by every
// [Poller.Activate].
func (p *Poller) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// Stop cancels the timer loop and waits for it to exit. An in-flight request
// keeps running but its result is discarded. Once Stop returns the consumer
// is not called again for this activation.
//
// Stop is idempotent.
func (h *Handle) Stop() {
	h.deactivate()
	h.halt()
}

// Wait blocks until the timer loop has exited and every request started by
// this activation has finished. Call it after [Handle.Stop] or after the
// activation context is cancelled.
func (h *Handle) Wait() {
	<-h.loopDone
	h.fetches.Wait()
}

// Done is closed when the timer loop has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.loopDone
}

func (h *Handle) deactivate() {
	h.p.mu.Lock()
	h.stopped = true
	if h.p.current == h {
		h.p.current = nil
	}
	h.p.mu.Unlock()
}

func (h *Handle) halt() {
	h.stopOnce.Do(h.cancel)
	<-h.loopDone
}

func (h *Handle) run(ctx context.Context) {
	defer close(h.loopDone)
	// a cancelled parent context tears the activation down like Stop does
	defer h.deactivate()

	h.tick(ctx)

	ticker := time.NewTicker(h.p.job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.tick(ctx)
		}
	}
}

// tick starts a fetch unless the previous one is still outstanding.
func (h *Handle) tick(ctx context.Context) {
	if !h.inFlight.CompareAndSwap(false, true) {
		h.p.logger.Debug("poll skipped, previous request outstanding",
			"widget", h.p.job.Name,
			"url", h.p.job.URL,
		)
		return
	}

	h.fetches.Add(1)
	go func() {
		defer h.fetches.Done()
		defer h.inFlight.Store(false)
		// teardown drops the result rather than aborting the request
		h.poll(context.WithoutCancel(ctx))
	}()
}

func (h *Handle) poll(ctx context.Context) {
	job := h.p.job
	resp := h.p.client.Do(ctx, Request{
		URL:     job.URL,
		Headers: job.Headers,
		Timeout: job.Timeout,
	})

	logAttrs := []any{
		"widget", job.Name,
		"url", job.URL,
		"latency_ms", resp.Latency.Milliseconds(),
	}

	if err := resp.Err(); err != nil {
		if !h.active() {
			return
		}
		h.p.logger.Warn("poll failed", append(logAttrs, "error", err.Error())...)
		return
	}

	applied, err := h.apply(resp.Body)
	switch {
	case !applied:
		h.p.logger.Debug("stale response dropped", append(logAttrs, "generation", h.gen)...)
	case err != nil:
		h.p.logger.Warn("poll result rejected", append(logAttrs, "error", err.Error())...)
	default:
		h.p.logger.Debug("poll applied", logAttrs...)
	}
}

func (h *Handle) active() bool {
	h.p.mu.Lock()
	defer h.p.mu.Unlock()
	return !h.stopped && h.p.current == h
}

// apply hands body to the consumer if this activation is still current.
func (h *Handle) apply(body []byte) (bool, error) {
	h.p.mu.Lock()
	defer h.p.mu.Unlock()

	if h.stopped || h.p.current != h {
		return false, nil
	}
	return true, h.p.safeConsume(body)
}

// safeConsume calls the consumer with panic recovery. The stack trace is
// logged with a correlation ID that is also returned in the error.
func (p *Poller) safeConsume(body []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			p.logger.Error("consumer panic",
				"correlation_id", correlationID,
				"widget", p.job.Name,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("consumer panic (correlation_id: %s)", correlationID)
		}
	}()
	return p.consume(body)
}
