package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/ftgo/order-system/kitchen-service/domain"
	"github.com/ftgo/order-system/shared/apperrors"
	sharedinfra "github.com/ftgo/order-system/shared/infrastructure"
	"github.com/ftgo/order-system/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var _ domain.TicketRepository = (*PostgresTicketRepository)(nil)

// PostgresTicketRepository implements TicketRepository using PostgreSQL
type PostgresTicketRepository struct {
	db *sqlx.DB
}

// NewPostgresTicketRepository creates a new PostgresTicketRepository
func NewPostgresTicketRepository(db *sqlx.DB) *PostgresTicketRepository {
	return &PostgresTicketRepository{db: db}
}

type postgresTicket struct {
	ID                 string     `db:"id"`
	RestaurantID       string     `db:"restaurant_id"`
	State              string     `db:"state"`
	PreviousState      string     `db:"previous_state"`
	LineItems          []byte     `db:"line_items"`
	ReadyBy            *time.Time `db:"ready_by"`
	AcceptTime         *time.Time `db:"accept_time"`
	PreparingTime      *time.Time `db:"preparing_time"`
	ReadyForPickupTime *time.Time `db:"ready_for_pickup_time"`
	PickedUpTime       *time.Time `db:"picked_up_time"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
	Version            int        `db:"version"`
}

const ticketColumns = `id, restaurant_id, state, previous_state, line_items,
	ready_by, accept_time, preparing_time, ready_for_pickup_time, picked_up_time,
	created_at, updated_at, version`

// Save inserts a new ticket
func (r *PostgresTicketRepository) Save(ctx context.Context, ticket *domain.Ticket) error {
	query := `
		INSERT INTO tickets (` + ticketColumns + `) VALUES (
			:id, :restaurant_id, :state, :previous_state, :line_items,
			:ready_by, :accept_time, :preparing_time, :ready_for_pickup_time, :picked_up_time,
			:created_at, :updated_at, :version
		)`

	pgTicket, err := r.toPostgres(ticket)
	if err != nil {
		return err
	}
	if _, err := sharedinfra.Conn(ctx, r.db).NamedExecContext(ctx, query, pgTicket); err != nil {
		return errors.Wrap(err, "failed to insert ticket")
	}
	return nil
}

// Update stores a transition, guarded by the ticket version
func (r *PostgresTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	query := `
		UPDATE tickets
		SET state = :state, previous_state = :previous_state, line_items = :line_items,
			ready_by = :ready_by, accept_time = :accept_time, preparing_time = :preparing_time,
			ready_for_pickup_time = :ready_for_pickup_time, picked_up_time = :picked_up_time,
			updated_at = :updated_at, version = :version
		WHERE id = :id AND version = :old_version`

	pgTicket, err := r.toPostgres(ticket)
	if err != nil {
		return err
	}

	result, err := sharedinfra.Conn(ctx, r.db).NamedExecContext(ctx, query, map[string]interface{}{
		"id":                    pgTicket.ID,
		"state":                 pgTicket.State,
		"previous_state":        pgTicket.PreviousState,
		"line_items":            pgTicket.LineItems,
		"ready_by":              pgTicket.ReadyBy,
		"accept_time":           pgTicket.AcceptTime,
		"preparing_time":        pgTicket.PreparingTime,
		"ready_for_pickup_time": pgTicket.ReadyForPickupTime,
		"picked_up_time":        pgTicket.PickedUpTime,
		"updated_at":            pgTicket.UpdatedAt,
		"version":               pgTicket.Version,
		"old_version":           ticket.Version.Previous(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to update ticket")
	}

	return sharedinfra.CheckAffected(result, "ticket", ticket.ID)
}

// FindByID finds a ticket by ID
func (r *PostgresTicketRepository) FindByID(ctx context.Context, id models.ID) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

	var pgTicket postgresTicket
	if err := sharedinfra.Conn(ctx, r.db).GetContext(ctx, &pgTicket, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("ticket", id.String())
		}
		return nil, errors.Wrap(err, "failed to find ticket")
	}

	return r.toDomain(&pgTicket)
}

func (r *PostgresTicketRepository) toPostgres(ticket *domain.Ticket) (*postgresTicket, error) {
	lineItems, err := json.Marshal(ticket.LineItems)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode line items")
	}

	return &postgresTicket{
		ID:                 ticket.ID.String(),
		RestaurantID:       ticket.RestaurantID.String(),
		State:              string(ticket.State),
		PreviousState:      string(ticket.PreviousState),
		LineItems:          lineItems,
		ReadyBy:            ticket.ReadyBy,
		AcceptTime:         ticket.AcceptTime,
		PreparingTime:      ticket.PreparingTime,
		ReadyForPickupTime: ticket.ReadyForPickupTime,
		PickedUpTime:       ticket.PickedUpTime,
		CreatedAt:          ticket.Timestamps.CreatedAt,
		UpdatedAt:          ticket.Timestamps.UpdatedAt,
		Version:            ticket.Version.Value,
	}, nil
}

func (r *PostgresTicketRepository) toDomain(pgTicket *postgresTicket) (*domain.Ticket, error) {
	var lineItems []domain.TicketLineItem
	if err := json.Unmarshal(pgTicket.LineItems, &lineItems); err != nil {
		return nil, errors.Wrap(err, "invalid line items")
	}

	return &domain.Ticket{
		ID:                 models.ID(pgTicket.ID),
		RestaurantID:       models.ID(pgTicket.RestaurantID),
		LineItems:          lineItems,
		State:              domain.TicketState(pgTicket.State),
		PreviousState:      domain.TicketState(pgTicket.PreviousState),
		ReadyBy:            pgTicket.ReadyBy,
		AcceptTime:         pgTicket.AcceptTime,
		PreparingTime:      pgTicket.PreparingTime,
		ReadyForPickupTime: pgTicket.ReadyForPickupTime,
		PickedUpTime:       pgTicket.PickedUpTime,
		Timestamps: models.Timestamps{
			CreatedAt: pgTicket.CreatedAt,
			UpdatedAt: pgTicket.UpdatedAt,
		},
		Version: models.Version{Value: pgTicket.Version},
	}, nil
}
