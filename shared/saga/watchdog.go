package saga

import (
	"context"
	"time"

	"github.com/ftgo/order-system/shared/logger"
	"github.com/ftgo/order-system/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// Watchdog reports running instances whose outstanding reply is overdue.
// It never moves an instance; resolving one is an operator decision.
type Watchdog struct {
	repository InstanceRepository
	staleAfter time.Duration
	interval   time.Duration
	logger     *logger.Logger
	now        func() time.Time
}

// NewWatchdog creates a new Watchdog
func NewWatchdog(repository InstanceRepository, staleAfter, interval time.Duration, log *logger.Logger) *Watchdog {
	return &Watchdog{
		repository: repository,
		staleAfter: staleAfter,
		interval:   interval,
		logger:     log,
		now:        time.Now,
	}
}

// Run checks periodically until ctx is cancelled
func (w *Watchdog) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Check(ctx); err != nil {
				w.logger.Error("saga watchdog check failed", "error", err)
			}
		}
	}
}

// Check returns the instances that have been awaiting a reply longer than staleAfter
func (w *Watchdog) Check(ctx context.Context) ([]*Instance, error) {
	stale, err := w.repository.FindStale(ctx, w.now().Add(-w.staleAfter))
	if err != nil {
		return nil, errors.Wrap(err, "failed to find stale sagas")
	}

	perType := make(map[string]int)
	for _, inst := range stale {
		perType[inst.SagaType]++
		w.logger.Warn("saga awaiting reply",
			"saga_id", inst.ID,
			"saga_type", inst.SagaType,
			"step", inst.StepIndex,
			"direction", inst.Direction,
			"last_command_id", inst.LastCommandID,
			"idle", w.now().Sub(inst.Timestamps.UpdatedAt).String(),
		)
	}
	for sagaType, count := range perType {
		telemetry.RecordGauge(ctx, "saga_stale_instances", "Running sagas awaiting a reply past the stale threshold", float64(count),
			attribute.String("saga_type", sagaType),
		)
	}

	return stale, nil
}
