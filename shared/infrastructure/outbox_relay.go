package infrastructure

import (
	"context"
	"time"

	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/logger"
	"github.com/ftgo/order-system/shared/telemetry"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// OutboxRelay moves committed outbox rows to the broker. Rows are claimed
// with FOR UPDATE SKIP LOCKED so several relays can run side by side; a row
// is marked published only after the broker accepted it, which makes
// delivery at-least-once.
type OutboxRelay struct {
	db           *sqlx.DB
	txManager    *TxManager
	publisher    events.Publisher
	batchSize    int
	pollInterval time.Duration
	logger       *logger.Logger
}

// NewOutboxRelay creates a new OutboxRelay
func NewOutboxRelay(db *sqlx.DB, publisher events.Publisher, batchSize int, pollInterval time.Duration, log *logger.Logger) *OutboxRelay {
	return &OutboxRelay{
		db:           db,
		txManager:    NewTxManager(db),
		publisher:    publisher,
		batchSize:    batchSize,
		pollInterval: pollInterval,
		logger:       log,
	}
}

// Run relays until ctx is cancelled
func (r *OutboxRelay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for {
				relayed, err := r.RelayBatch(ctx)
				if err != nil {
					r.logger.Error("outbox relay failed", "error", err)
					break
				}
				if relayed < r.batchSize {
					break
				}
			}
		}
	}
}

// RelayBatch publishes one batch of pending rows and returns how many were sent
func (r *OutboxRelay) RelayBatch(ctx context.Context) (int, error) {
	relayed := 0

	err := r.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		query := `
			SELECT id, topic, channel, envelope, created_at, published_at
			FROM outbox
			WHERE published_at IS NULL
			ORDER BY created_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED`

		var rows []postgresOutboxMessage
		if err := Conn(ctx, r.db).SelectContext(ctx, &rows, query, r.batchSize); err != nil {
			return errors.Wrap(err, "failed to claim outbox messages")
		}
		if len(rows) == 0 {
			return nil
		}

		evts := make([]*events.Event, 0, len(rows))
		ids := make([]string, 0, len(rows))
		for _, row := range rows {
			event, err := events.FromJSON(row.Envelope)
			if err != nil {
				// a row that cannot be decoded would block the outbox forever
				r.logger.Error("dropping malformed outbox message", "id", row.ID, "error", err)
				ids = append(ids, row.ID)
				continue
			}
			evts = append(evts, event)
			ids = append(ids, row.ID)
		}

		if err := r.publisher.Publish(ctx, evts...); err != nil {
			return errors.Wrap(err, "failed to publish outbox messages")
		}

		_, err := Conn(ctx, r.db).ExecContext(ctx,
			`UPDATE outbox SET published_at = NOW() WHERE id = ANY($1)`,
			pq.Array(ids),
		)
		if err != nil {
			return errors.Wrap(err, "failed to mark outbox messages published")
		}

		relayed = len(evts)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if relayed > 0 {
		telemetry.RecordCounter(ctx, "outbox_relayed_total", "Outbox messages handed to the broker", int64(relayed),
			attribute.String("component", "outbox_relay"),
		)
	}
	return relayed, nil
}
