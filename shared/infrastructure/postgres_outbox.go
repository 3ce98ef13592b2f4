package infrastructure

import (
	"context"
	"time"

	"github.com/ftgo/order-system/shared/events"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var _ events.Publisher = (*PostgresOutbox)(nil)

// PostgresOutbox is a transactional outbox: publishing an envelope inserts
// it into the outbox table through the transaction carried by ctx, so it
// commits or rolls back with the state change that produced it. The
// OutboxRelay ships committed rows to the broker.
type PostgresOutbox struct {
	db *sqlx.DB
}

// NewPostgresOutbox creates a new PostgresOutbox
func NewPostgresOutbox(db *sqlx.DB) *PostgresOutbox {
	return &PostgresOutbox{db: db}
}

// postgresOutboxMessage represents an outbox row
type postgresOutboxMessage struct {
	ID          string     `db:"id"`
	Topic       string     `db:"topic"`
	Channel     string     `db:"channel"`
	Envelope    []byte     `db:"envelope"`
	CreatedAt   time.Time  `db:"created_at"`
	PublishedAt *time.Time `db:"published_at"`
}

// Publish implements events.Publisher
func (o *PostgresOutbox) Publish(ctx context.Context, evts ...*events.Event) error {
	query := `
		INSERT INTO outbox (
			id, topic, channel, envelope, created_at
		) VALUES (
			:id, :topic, :channel, :envelope, :created_at
		)`

	conn := Conn(ctx, o.db)
	for _, event := range evts {
		envelope, err := event.ToJSON()
		if err != nil {
			return errors.Wrapf(err, "failed to marshal %s", event.EventType)
		}

		row := &postgresOutboxMessage{
			ID:        event.ID.String(),
			Topic:     event.Topic.String(),
			Channel:   event.Channel(),
			Envelope:  envelope,
			CreatedAt: time.Now(),
		}
		if _, err := conn.NamedExecContext(ctx, query, row); err != nil {
			return errors.Wrap(err, "failed to insert outbox message")
		}
	}

	return nil
}
