package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/messaging"
	"github.com/ftgo/order-system/shared/models"
	"github.com/ftgo/order-system/shared/saga"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var _ saga.InstanceRepository = (*PostgresSagaRepository)(nil)

// PostgresSagaRepository implements saga.InstanceRepository using PostgreSQL
type PostgresSagaRepository struct {
	db *sqlx.DB
}

// NewPostgresSagaRepository creates a new PostgresSagaRepository
func NewPostgresSagaRepository(db *sqlx.DB) *PostgresSagaRepository {
	return &PostgresSagaRepository{db: db}
}

// postgresSagaInstance represents a saga instance in database
type postgresSagaInstance struct {
	ID            string    `db:"id"`
	SagaType      string    `db:"saga_type"`
	StepIndex     int       `db:"step_index"`
	Direction     string    `db:"direction"`
	Status        string    `db:"status"`
	Data          []byte    `db:"data"`
	LastCommandID string    `db:"last_command_id"`
	FailureReason string    `db:"failure_reason"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
	Version       int       `db:"version"`
}

const sagaColumns = `id, saga_type, step_index, direction, status, data,
			   last_command_id, failure_reason, created_at, updated_at, version`

// Create inserts a new saga instance
func (r *PostgresSagaRepository) Create(ctx context.Context, inst *saga.Instance) error {
	query := `
		INSERT INTO saga_instances (
			id, saga_type, step_index, direction, status, data,
			last_command_id, failure_reason, created_at, updated_at, version
		) VALUES (
			:id, :saga_type, :step_index, :direction, :status, :data,
			:last_command_id, :failure_reason, :created_at, :updated_at, :version
		)`

	_, err := Conn(ctx, r.db).NamedExecContext(ctx, query, r.toPostgres(inst))
	if err != nil {
		return errors.Wrap(err, "failed to insert saga instance")
	}
	return nil
}

// Update stores the new cursor of an instance, guarded by its version
func (r *PostgresSagaRepository) Update(ctx context.Context, inst *saga.Instance) error {
	query := `
		UPDATE saga_instances
		SET step_index = :step_index, direction = :direction, status = :status, data = :data,
			last_command_id = :last_command_id, failure_reason = :failure_reason,
			updated_at = :updated_at, version = :version
		WHERE id = :id AND version = :old_version`

	pgInstance := r.toPostgres(inst)
	result, err := Conn(ctx, r.db).NamedExecContext(ctx, query, map[string]interface{}{
		"id":              pgInstance.ID,
		"step_index":      pgInstance.StepIndex,
		"direction":       pgInstance.Direction,
		"status":          pgInstance.Status,
		"data":            pgInstance.Data,
		"last_command_id": pgInstance.LastCommandID,
		"failure_reason":  pgInstance.FailureReason,
		"updated_at":      pgInstance.UpdatedAt,
		"version":         pgInstance.Version,
		"old_version":     inst.Version.Previous(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to update saga instance")
	}

	return CheckAffected(result, "saga instance", inst.ID)
}

// FindByID finds a saga instance by ID
func (r *PostgresSagaRepository) FindByID(ctx context.Context, id models.ID) (*saga.Instance, error) {
	query := `SELECT ` + sagaColumns + ` FROM saga_instances WHERE id = $1`

	var pgInstance postgresSagaInstance
	if err := Conn(ctx, r.db).GetContext(ctx, &pgInstance, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("saga instance", id.String())
		}
		return nil, errors.Wrap(err, "failed to find saga instance")
	}

	return r.toDomain(&pgInstance), nil
}

// FindByStatus lists the instances in status, oldest first
func (r *PostgresSagaRepository) FindByStatus(ctx context.Context, status saga.SagaStatus) ([]*saga.Instance, error) {
	query := `SELECT ` + sagaColumns + ` FROM saga_instances WHERE status = $1 ORDER BY created_at ASC`

	return r.selectInstances(ctx, query, string(status))
}

// FindStale lists running instances not touched since updatedBefore
func (r *PostgresSagaRepository) FindStale(ctx context.Context, updatedBefore time.Time) ([]*saga.Instance, error) {
	query := `SELECT ` + sagaColumns + ` FROM saga_instances
		WHERE status = $1 AND updated_at < $2 ORDER BY updated_at ASC`

	return r.selectInstances(ctx, query, string(saga.SagaStatusRunning), updatedBefore)
}

func (r *PostgresSagaRepository) selectInstances(ctx context.Context, query string, args ...interface{}) ([]*saga.Instance, error) {
	var pgInstances []postgresSagaInstance
	if err := Conn(ctx, r.db).SelectContext(ctx, &pgInstances, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list saga instances")
	}

	instances := make([]*saga.Instance, len(pgInstances))
	for i := range pgInstances {
		instances[i] = r.toDomain(&pgInstances[i])
	}
	return instances, nil
}

func (r *PostgresSagaRepository) toPostgres(inst *saga.Instance) *postgresSagaInstance {
	return &postgresSagaInstance{
		ID:            inst.ID.String(),
		SagaType:      inst.SagaType,
		StepIndex:     inst.StepIndex,
		Direction:     string(inst.Direction),
		Status:        string(inst.Status),
		Data:          inst.Data,
		LastCommandID: inst.LastCommandID.String(),
		FailureReason: inst.FailureReason,
		CreatedAt:     inst.Timestamps.CreatedAt,
		UpdatedAt:     inst.Timestamps.UpdatedAt,
		Version:       inst.Version.Value,
	}
}

func (r *PostgresSagaRepository) toDomain(pgInstance *postgresSagaInstance) *saga.Instance {
	return &saga.Instance{
		ID:            models.ID(pgInstance.ID),
		SagaType:      pgInstance.SagaType,
		StepIndex:     pgInstance.StepIndex,
		Direction:     messaging.Direction(pgInstance.Direction),
		Status:        saga.SagaStatus(pgInstance.Status),
		Data:          pgInstance.Data,
		LastCommandID: models.ID(pgInstance.LastCommandID),
		FailureReason: pgInstance.FailureReason,
		Timestamps: models.Timestamps{
			CreatedAt: pgInstance.CreatedAt,
			UpdatedAt: pgInstance.UpdatedAt,
		},
		Version: models.Version{Value: pgInstance.Version},
	}
}

// CheckAffected turns a version-guarded update that matched no row into an
// optimistic lock error
func CheckAffected(result sql.Result, kind string, id models.ID) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return errors.Wrapf(apperrors.ErrOptimisticLock, "%s %s", kind, id)
	}
	return nil
}
