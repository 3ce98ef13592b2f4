package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/ftgo/order-system/consumer-service/domain"
	"github.com/ftgo/order-system/shared/apperrors"
	sharedinfra "github.com/ftgo/order-system/shared/infrastructure"
	"github.com/ftgo/order-system/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var _ domain.ConsumerRepository = (*PostgresConsumerRepository)(nil)

// PostgresConsumerRepository implements ConsumerRepository using PostgreSQL
type PostgresConsumerRepository struct {
	db *sqlx.DB
}

// NewPostgresConsumerRepository creates a new PostgresConsumerRepository
func NewPostgresConsumerRepository(db *sqlx.DB) *PostgresConsumerRepository {
	return &PostgresConsumerRepository{db: db}
}

type postgresConsumer struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	Version   int       `db:"version"`
}

// Save inserts a new consumer
func (r *PostgresConsumerRepository) Save(ctx context.Context, consumer *domain.Consumer) error {
	query := `
		INSERT INTO consumers (id, name, status, created_at, updated_at, version)
		VALUES (:id, :name, :status, :created_at, :updated_at, :version)`

	if _, err := sharedinfra.Conn(ctx, r.db).NamedExecContext(ctx, query, r.toPostgres(consumer)); err != nil {
		return errors.Wrap(err, "failed to insert consumer")
	}
	return nil
}

// Update updates an existing consumer with optimistic locking
func (r *PostgresConsumerRepository) Update(ctx context.Context, consumer *domain.Consumer) error {
	query := `
		UPDATE consumers
		SET name = :name, status = :status, updated_at = :updated_at, version = :version
		WHERE id = :id AND version = :old_version`

	pgConsumer := r.toPostgres(consumer)
	result, err := sharedinfra.Conn(ctx, r.db).NamedExecContext(ctx, query, map[string]interface{}{
		"id":          pgConsumer.ID,
		"name":        pgConsumer.Name,
		"status":      pgConsumer.Status,
		"updated_at":  pgConsumer.UpdatedAt,
		"version":     pgConsumer.Version,
		"old_version": consumer.Version.Previous(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to update consumer")
	}

	return sharedinfra.CheckAffected(result, "consumer", consumer.ID)
}

// FindByID finds a consumer by ID
func (r *PostgresConsumerRepository) FindByID(ctx context.Context, id models.ID) (*domain.Consumer, error) {
	query := `
		SELECT id, name, status, created_at, updated_at, version
		FROM consumers
		WHERE id = $1`

	var pgConsumer postgresConsumer
	if err := sharedinfra.Conn(ctx, r.db).GetContext(ctx, &pgConsumer, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("consumer", id.String())
		}
		return nil, errors.Wrap(err, "failed to find consumer")
	}

	return &domain.Consumer{
		ID:     models.ID(pgConsumer.ID),
		Name:   pgConsumer.Name,
		Status: domain.ConsumerStatus(pgConsumer.Status),
		Timestamps: models.Timestamps{
			CreatedAt: pgConsumer.CreatedAt,
			UpdatedAt: pgConsumer.UpdatedAt,
		},
		Version: models.Version{Value: pgConsumer.Version},
	}, nil
}

func (r *PostgresConsumerRepository) toPostgres(consumer *domain.Consumer) *postgresConsumer {
	return &postgresConsumer{
		ID:        consumer.ID.String(),
		Name:      consumer.Name,
		Status:    string(consumer.Status),
		CreatedAt: consumer.Timestamps.CreatedAt,
		UpdatedAt: consumer.Timestamps.UpdatedAt,
		Version:   consumer.Version.Value,
	}
}
