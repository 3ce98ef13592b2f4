package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ftgo/order-system/kitchen-service/domain"
	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ticketRows = []string{"id", "restaurant_id", "state", "previous_state", "line_items",
	"ready_by", "accept_time", "preparing_time", "ready_for_pickup_time", "picked_up_time",
	"created_at", "updated_at", "version"}

func newTicket(t *testing.T) *domain.Ticket {
	t.Helper()
	ticket, err := domain.CreateTicket(models.GenerateUUID(), models.GenerateUUID(), api.TicketDetails{
		LineItems: []api.TicketLineItem{{MenuItemID: "samosa", Name: "Samosa", Quantity: 2}},
	})
	require.NoError(t, err)
	return ticket
}

func TestPostgresTicketRepository(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	repo := NewPostgresTicketRepository(sqlx.NewDb(sqlDB, "postgres"))
	ctx := context.Background()

	id := models.GenerateUUID()
	now := time.Now()

	t.Run("find by id", func(t *testing.T) {
		mock.ExpectQuery("FROM tickets WHERE id = ").
			WithArgs(id.String()).
			WillReturnRows(sqlmock.NewRows(ticketRows).AddRow(
				id.String(), "restaurant-1", "CANCEL_PENDING", "ACCEPTED",
				[]byte(`[{"menu_item_id":"samosa","name":"Samosa","quantity":2}]`),
				now, now, nil, nil, nil, now, now, 4))

		ticket, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStateCancelPending, ticket.State)
		assert.Equal(t, domain.TicketStateAccepted, ticket.PreviousState)
		require.NotNil(t, ticket.ReadyBy)
		assert.Nil(t, ticket.PreparingTime)
		assert.Equal(t, 4, ticket.Version.Value)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("FROM tickets WHERE id = ").WillReturnRows(sqlmock.NewRows(ticketRows))

		_, err := repo.FindByID(ctx, models.GenerateUUID())
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("save and update", func(t *testing.T) {
		ticket := newTicket(t)
		mock.ExpectExec("INSERT INTO tickets").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE tickets").WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Save(ctx, ticket))
		_, err := ticket.ConfirmCreate()
		require.NoError(t, err)
		assert.NoError(t, repo.Update(ctx, ticket))
	})

	t.Run("update with stale version", func(t *testing.T) {
		mock.ExpectExec("UPDATE tickets").WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(ctx, newTicket(t))
		assert.True(t, apperrors.IsOptimisticLock(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryTicketRepository(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()
	ticket := newTicket(t)

	require.NoError(t, repo.Save(ctx, ticket))

	loaded, err := repo.FindByID(ctx, ticket.ID)
	require.NoError(t, err)
	loaded.LineItems[0].Quantity = 9

	stored, err := repo.FindByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.LineItems[0].Quantity)

	_, err = stored.ConfirmCreate()
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, stored))
	assert.True(t, apperrors.IsOptimisticLock(repo.Update(ctx, stored)))
}
