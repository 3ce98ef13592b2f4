package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/ftgo/order-system/shared/logger"
	"github.com/ftgo/order-system/shared/messaging"
	"github.com/ftgo/order-system/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var (
	_ messaging.ProcessedStore = (*PostgresProcessedStore)(nil)
	_ messaging.ProcessedStore = (*CachedProcessedStore)(nil)
)

// PostgresProcessedStore records the reply given to each command in the
// processed_commands table. It reads and writes through the transaction
// carried by ctx, so the record commits with the handler's state change.
//
// A concurrent delivery of the same command blocks on the primary key until
// the first one commits and then fails, which rolls its transaction back.
type PostgresProcessedStore struct {
	db         *sqlx.DB
	dispatcher string
}

// NewPostgresProcessedStore creates a store for the commands of dispatcher
func NewPostgresProcessedStore(db *sqlx.DB, dispatcher string) *PostgresProcessedStore {
	return &PostgresProcessedStore{db: db, dispatcher: dispatcher}
}

// postgresProcessedCommand represents a processed_commands row
type postgresProcessedCommand struct {
	Dispatcher  string    `db:"dispatcher"`
	CommandID   string    `db:"command_id"`
	Reply       []byte    `db:"reply"`
	ProcessedAt time.Time `db:"processed_at"`
}

// Lookup returns the reply recorded for commandID
func (s *PostgresProcessedStore) Lookup(ctx context.Context, commandID models.ID) (*messaging.Reply, bool, error) {
	query := `
		SELECT dispatcher, command_id, reply, processed_at
		FROM processed_commands
		WHERE dispatcher = $1 AND command_id = $2`

	var row postgresProcessedCommand
	if err := Conn(ctx, s.db).GetContext(ctx, &row, query, s.dispatcher, commandID.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "failed to read processed command")
	}

	var reply messaging.Reply
	if err := json.Unmarshal(row.Reply, &reply); err != nil {
		return nil, false, errors.Wrap(err, "corrupt processed command row")
	}
	return &reply, true, nil
}

// Remember records reply as the answer to commandID
func (s *PostgresProcessedStore) Remember(ctx context.Context, commandID models.ID, reply *messaging.Reply) error {
	query := `
		INSERT INTO processed_commands (dispatcher, command_id, reply, processed_at)
		VALUES (:dispatcher, :command_id, :reply, :processed_at)`

	raw, err := json.Marshal(reply)
	if err != nil {
		return errors.Wrap(err, "failed to marshal reply")
	}

	row := &postgresProcessedCommand{
		Dispatcher:  s.dispatcher,
		CommandID:   commandID.String(),
		Reply:       raw,
		ProcessedAt: time.Now(),
	}
	if _, err := Conn(ctx, s.db).NamedExecContext(ctx, query, row); err != nil {
		return errors.Wrap(err, "failed to insert processed command")
	}
	return nil
}

// CachedProcessedStore puts a RedisProcessedStore in front of a
// transactional store. Records are written to the primary only and copied
// into the cache when a lookup finds them there, so the cache never holds a
// reply whose transaction did not commit.
type CachedProcessedStore struct {
	primary messaging.ProcessedStore
	cache   *RedisProcessedStore
	logger  *logger.Logger
}

// NewCachedProcessedStore creates a new CachedProcessedStore
func NewCachedProcessedStore(primary messaging.ProcessedStore, cache *RedisProcessedStore, log *logger.Logger) *CachedProcessedStore {
	return &CachedProcessedStore{primary: primary, cache: cache, logger: log}
}

func (s *CachedProcessedStore) Lookup(ctx context.Context, commandID models.ID) (*messaging.Reply, bool, error) {
	reply, found, err := s.cache.Lookup(ctx, commandID)
	if err != nil {
		s.logger.Warn("processed command cache unavailable", "command_id", commandID, "error", err)
	}
	if found {
		return reply, true, nil
	}

	reply, found, err = s.primary.Lookup(ctx, commandID)
	if err != nil || !found {
		return nil, false, err
	}
	if err := s.cache.Remember(ctx, commandID, reply); err != nil {
		s.logger.Warn("failed to cache processed command", "command_id", commandID, "error", err)
	}
	return reply, true, nil
}

func (s *CachedProcessedStore) Remember(ctx context.Context, commandID models.ID, reply *messaging.Reply) error {
	return s.primary.Remember(ctx, commandID, reply)
}
