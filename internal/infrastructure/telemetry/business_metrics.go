package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics tracks sales, purchases, payments and undo activity.
// A nil *BusinessMetrics is valid and records nothing, so services can run
// without metrics wired.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	operationTotal  *Counter
	operationAmount *Histogram
	undoTotal       *Counter

	undoPending *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	backlog    UndoBacklogProvider
	undoWindow time.Duration
}

// UndoBacklogProvider counts undo actions that can still be undone.
type UndoBacklogProvider interface {
	CountPendingSince(ctx context.Context, since time.Time) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 1 minute
	Backlog         UndoBacklogProvider
	UndoWindow      time.Duration
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:      cfg.Meter,
		logger:     logger,
		stopChan:   make(chan struct{}),
		backlog:    cfg.Backlog,
		undoWindow: cfg.UndoWindow,
	}

	var err error
	bm.operationTotal, err = NewCounter(
		cfg.Meter,
		"pyme_operation_total",
		"Total number of business operations recorded",
		"{operations}",
	)
	if err != nil {
		return nil, err
	}

	bm.operationAmount, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "pyme_operation_amount",
		Description: "Monetary amount of business operations",
		Unit:        "{currency}",
		Boundaries:  AmountBuckets,
	})
	if err != nil {
		return nil, err
	}

	bm.undoTotal, err = NewCounter(
		cfg.Meter,
		"pyme_undo_total",
		"Undo attempts by action kind and outcome",
		"{attempts}",
	)
	if err != nil {
		return nil, err
	}

	bm.undoPending, err = NewGauge(
		cfg.Meter,
		"pyme_undo_pending_actions",
		"Undo actions still inside the undo window",
		"{actions}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// OperationKind labels the business operation being recorded.
type OperationKind string

const (
	OperationSale     OperationKind = "sale"
	OperationPurchase OperationKind = "purchase"
	OperationPayment  OperationKind = "payment"
)

// RecordOperation counts a committed operation and records its amount.
func (bm *BusinessMetrics) RecordOperation(ctx context.Context, kind OperationKind, amount decimal.Decimal) {
	if bm == nil {
		return
	}
	bm.operationTotal.Inc(ctx, AttrOperation.String(string(kind)))
	bm.operationAmount.Record(ctx, amount.InexactFloat64(), AttrOperation.String(string(kind)))
}

// UndoOutcome labels how an undo attempt ended.
type UndoOutcome string

const (
	UndoOutcomeApplied  UndoOutcome = "applied"
	UndoOutcomeRejected UndoOutcome = "rejected"
	UndoOutcomeFailed   UndoOutcome = "failed"
)

// RecordUndo counts an undo attempt. kind is empty when no action was found.
func (bm *BusinessMetrics) RecordUndo(ctx context.Context, kind string, outcome UndoOutcome) {
	if bm == nil {
		return
	}
	if kind == "" {
		kind = "none"
	}
	bm.undoTotal.Inc(ctx,
		AttrUndoKind.String(kind),
		AttrUndoOutcome.String(string(outcome)),
	)
}

// RecordPendingUndo sets the pending undo gauge.
func (bm *BusinessMetrics) RecordPendingUndo(ctx context.Context, count int64) {
	if bm == nil {
		return
	}
	bm.undoPending.Record(ctx, count)
}

// StartPeriodicCollection samples the undo backlog every interval until Stop
// is called or ctx ends. It does nothing without a backlog provider.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	if bm == nil || bm.backlog == nil {
		return
	}
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = time.Minute
		}
		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectUndoBacklog(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectUndoBacklog(ctx)
		}
	}
}

func (bm *BusinessMetrics) collectUndoBacklog(ctx context.Context) {
	since := time.Now().UTC().Add(-bm.undoWindow)
	count, err := bm.backlog.CountPendingSince(ctx, since)
	if err != nil {
		bm.logger.Warn("Failed to count pending undo actions", zap.Error(err))
		return
	}
	bm.RecordPendingUndo(ctx, count)
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	if bm == nil {
		return
	}
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
