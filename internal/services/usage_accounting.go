package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"transfer-pricing/internal/observability"
	"transfer-pricing/internal/repositories/interfaces"
	"transfer-pricing/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UsageRecorder is the side-effect port the composer calls once per applied
// rule. It never fails the caller.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, ruleID primitive.ObjectID)
}

// UsageSink persists one usage increment. Implementations must be atomic at
// the store (no read-modify-write).
type UsageSink interface {
	RecordRuleUsage(ctx context.Context, ruleID primitive.ObjectID) error
	Name() string
}

type NoopUsageRecorder struct{}

func (NoopUsageRecorder) RecordUsage(context.Context, primitive.ObjectID) {}

// persistUsage runs sink on a context detached from the caller, so a
// cancelled quote request does not cancel the increment, bounded by timeout.
func persistUsage(ctx context.Context, sink UsageSink, ruleID primitive.ObjectID, timeout time.Duration, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := sink.RecordRuleUsage(ctx, ruleID); err != nil {
		observability.UsageFailuresTotal.WithLabelValues(sink.Name()).Inc()
		log.WithContext(ctx).WithRuleID(ruleID).
			WithField("backend", sink.Name()).
			WithError(fmt.Errorf("%w: %w", ErrUsageAccountingFailure, err)).
			Warn("Failed to record price rule usage")
		return
	}
	observability.UsageRecordedTotal.WithLabelValues(sink.Name()).Inc()
}

type syncUsageRecorder struct {
	sink    UsageSink
	timeout time.Duration
	logger  *logger.Logger
}

// NewSyncUsageRecorder persists each increment inline, on the quote path.
func NewSyncUsageRecorder(sink UsageSink, timeout time.Duration, log *logger.Logger) UsageRecorder {
	if log == nil {
		log = logger.NewNop()
	}
	return &syncUsageRecorder{sink: sink, timeout: timeout, logger: log}
}

func (r *syncUsageRecorder) RecordUsage(ctx context.Context, ruleID primitive.ObjectID) {
	persistUsage(ctx, r.sink, ruleID, r.timeout, r.logger)
}

type usageEvent struct {
	ctx    context.Context
	ruleID primitive.ObjectID
}

// AsyncUsageRecorder hands increments to a bounded queue drained by a fixed
// pool of workers. When the queue is full the increment is dropped.
type AsyncUsageRecorder struct {
	sink    UsageSink
	timeout time.Duration
	logger  *logger.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan usageEvent
	wg     sync.WaitGroup
}

func NewAsyncUsageRecorder(sink UsageSink, bufferSize, workers int, timeout time.Duration, log *logger.Logger) *AsyncUsageRecorder {
	if log == nil {
		log = logger.NewNop()
	}
	if workers < 1 {
		workers = 1
	}
	r := &AsyncUsageRecorder{
		sink:    sink,
		timeout: timeout,
		logger:  log,
		queue:   make(chan usageEvent, bufferSize),
	}
	r.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go r.worker()
	}
	return r
}

func (r *AsyncUsageRecorder) RecordUsage(ctx context.Context, ruleID primitive.ObjectID) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.drop(ctx, ruleID, "recorder closed")
		return
	}

	select {
	case r.queue <- usageEvent{ctx: context.WithoutCancel(ctx), ruleID: ruleID}:
	default:
		r.drop(ctx, ruleID, "queue full")
	}
}

// Close stops accepting events and waits for queued ones to be persisted.
func (r *AsyncUsageRecorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *AsyncUsageRecorder) worker() {
	defer r.wg.Done()
	for ev := range r.queue {
		persistUsage(ev.ctx, r.sink, ev.ruleID, r.timeout, r.logger)
	}
}

func (r *AsyncUsageRecorder) drop(ctx context.Context, ruleID primitive.ObjectID, reason string) {
	observability.UsageDroppedTotal.Inc()
	r.logger.WithContext(ctx).WithRuleID(ruleID).WithField("reason", reason).
		Warn("Dropped price rule usage event")
}

// RepositoryUsageSink increments applied_count directly in the rule store.
type RepositoryUsageSink struct {
	rules interfaces.PriceRuleRepository
}

func NewRepositoryUsageSink(rules interfaces.PriceRuleRepository) *RepositoryUsageSink {
	return &RepositoryUsageSink{rules: rules}
}

func (s *RepositoryUsageSink) RecordRuleUsage(ctx context.Context, ruleID primitive.ObjectID) error {
	return s.rules.IncrementUsage(ctx, ruleID)
}

func (s *RepositoryUsageSink) Name() string { return "mongo" }

const usageCounterPrefix = "pricing:rule_usage:"

// UsageCounterStore is the atomic counter subset of the Redis cache.
type UsageCounterStore interface {
	Increment(ctx context.Context, key string) (int64, error)
	IncrementBy(ctx context.Context, key string, value int64) (int64, error)
	GetDelInt(ctx context.Context, key string) (int64, error)
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
}

// CounterUsageSink bumps a per-rule Redis counter. UsageFlusher later moves
// the totals into the rule store.
type CounterUsageSink struct {
	counters UsageCounterStore
}

func NewCounterUsageSink(counters UsageCounterStore) *CounterUsageSink {
	return &CounterUsageSink{counters: counters}
}

func (s *CounterUsageSink) RecordRuleUsage(ctx context.Context, ruleID primitive.ObjectID) error {
	_, err := s.counters.Increment(ctx, usageCounterPrefix+ruleID.Hex())
	return err
}

func (s *CounterUsageSink) Name() string { return "redis" }

type UsageFlusher struct {
	counters UsageCounterStore
	rules    interfaces.PriceRuleRepository
	interval time.Duration
	logger   *logger.Logger
}

func NewUsageFlusher(counters UsageCounterStore, rules interfaces.PriceRuleRepository, interval time.Duration, log *logger.Logger) *UsageFlusher {
	if log == nil {
		log = logger.NewNop()
	}
	return &UsageFlusher{counters: counters, rules: rules, interval: interval, logger: log}
}

// Run flushes on every tick until ctx is done, then flushes once more.
func (f *UsageFlusher) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			f.flushAndLog(final)
			cancel()
			return
		case <-ticker.C:
			f.flushAndLog(ctx)
		}
	}
}

func (f *UsageFlusher) flushAndLog(ctx context.Context) {
	n, err := f.Flush(ctx)
	if err != nil {
		f.logger.WithError(err).Warn("Usage counter flush incomplete")
	}
	if n > 0 {
		f.logger.WithField("increments", n).Debug("Flushed usage counters")
	}
}

// Flush moves every pending counter into the rule store and returns the
// number of increments moved. A counter whose store write fails is put back.
func (f *UsageFlusher) Flush(ctx context.Context) (int64, error) {
	keys, err := f.counters.ScanKeys(ctx, usageCounterPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("failed to scan usage counters: %w", err)
	}

	var moved int64
	var errs []error
	for _, key := range keys {
		ruleID, err := primitive.ObjectIDFromHex(strings.TrimPrefix(key, usageCounterPrefix))
		if err != nil {
			errs = append(errs, fmt.Errorf("bad usage counter key %q: %w", key, err))
			continue
		}

		count, err := f.counters.GetDelInt(ctx, key)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to take counter %s: %w", key, err))
			continue
		}
		if count <= 0 {
			continue
		}

		if err := f.rules.IncrementUsageBy(ctx, ruleID, count); err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				f.logger.WithRuleID(ruleID).WithField("increments", count).
					Warn("Discarding usage counter for a deleted price rule")
				continue
			}
			if _, restoreErr := f.counters.IncrementBy(ctx, key, count); restoreErr != nil {
				errs = append(errs, fmt.Errorf("lost %d increments for rule %s: %w", count, ruleID.Hex(), restoreErr))
			}
			errs = append(errs, fmt.Errorf("failed to flush rule %s: %w", ruleID.Hex(), err))
			continue
		}
		moved += count
	}

	return moved, errors.Join(errs...)
}
