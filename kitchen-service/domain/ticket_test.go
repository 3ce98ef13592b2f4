package domain

import (
	"testing"
	"time"

	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testTicketID     = models.ID("550e8400-e29b-41d4-a716-446655440100")
	testRestaurantID = models.ID("550e8400-e29b-41d4-a716-446655440200")
)

func newTestTicket(t *testing.T) *Ticket {
	t.Helper()
	ticket, err := CreateTicket(testRestaurantID, testTicketID, api.TicketDetails{
		LineItems: []api.TicketLineItem{
			{MenuItemID: "chicken-vindaloo", Name: "Chicken Vindaloo", Quantity: 2},
			{MenuItemID: "naan", Name: "Naan", Quantity: 1},
		},
	})
	require.NoError(t, err)
	return ticket
}

func awaitingTicket(t *testing.T) *Ticket {
	t.Helper()
	ticket := newTestTicket(t)
	_, err := ticket.ConfirmCreate()
	require.NoError(t, err)
	return ticket
}

func TestCreateTicket(t *testing.T) {
	ticket := newTestTicket(t)

	assert.Equal(t, TicketStateCreatePending, ticket.State)
	assert.Equal(t, 1, ticket.Version.Value)
	require.Len(t, ticket.Events(), 1)
	assert.Equal(t, events.TicketCreatedEvent, ticket.Events()[0].EventType)

	_, err := CreateTicket(testRestaurantID, testTicketID, api.TicketDetails{})
	assert.True(t, apperrors.IsValidation(err))

	_, err = CreateTicket(testRestaurantID, testTicketID, api.TicketDetails{
		LineItems: []api.TicketLineItem{{MenuItemID: "naan", Quantity: 0}},
	})
	assert.True(t, apperrors.IsValidation(err))
}

func TestTicket_HappyPath(t *testing.T) {
	ticket := awaitingTicket(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	evts, err := ticket.Accept(now.Add(30*time.Minute), now)
	require.NoError(t, err)
	require.Len(t, evts, 1)
	assert.Equal(t, events.TicketAcceptedEvent, evts[0].EventType)
	assert.Equal(t, TicketStateAccepted, ticket.State)
	assert.Equal(t, now, *ticket.AcceptTime)

	_, err = ticket.Preparing(now.Add(time.Minute))
	require.NoError(t, err)
	_, err = ticket.ReadyForPickup(now.Add(20 * time.Minute))
	require.NoError(t, err)
	_, err = ticket.PickedUp(now.Add(25 * time.Minute))
	require.NoError(t, err)

	assert.Equal(t, TicketStatePickedUp, ticket.State)
	assert.NotNil(t, ticket.PreparingTime)
	assert.NotNil(t, ticket.ReadyForPickupTime)
	assert.NotNil(t, ticket.PickedUpTime)
	assert.Equal(t, 6, ticket.Version.Value)
}

func TestTicket_AcceptRejectsReadyByNotInFuture(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		readyBy time.Time
	}{
		{name: "same instant", readyBy: now},
		{name: "in the past", readyBy: now.Add(-time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := awaitingTicket(t)
			version := ticket.Version

			_, err := ticket.Accept(tt.readyBy, now)

			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.False(t, apperrors.IsStateTransition(err))
			assert.Equal(t, TicketStateAwaitingAcceptance, ticket.State)
			assert.Equal(t, TicketState(""), ticket.PreviousState)
			assert.Equal(t, version, ticket.Version)
			assert.Nil(t, ticket.AcceptTime)
		})
	}
}

func TestTicket_CancelCreate(t *testing.T) {
	ticket := newTestTicket(t)

	evts, err := ticket.CancelCreate()

	require.NoError(t, err)
	require.Len(t, evts, 1)
	assert.Equal(t, events.TicketCancelledEvent, evts[0].EventType)
	assert.Equal(t, TicketStateCancelled, ticket.State)

	_, err = ticket.ConfirmCreate()
	assert.True(t, apperrors.IsStateTransition(err))
}

func TestTicket_UndoRestoresPreviousState(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		prepare func(*Ticket)
		begin   func(*Ticket) ([]*events.Event, error)
		pending TicketState
		undo    func(*Ticket) ([]*events.Event, error)
	}{
		{
			name:    "cancel while awaiting acceptance",
			prepare: func(*Ticket) {},
			begin:   (*Ticket).Cancel,
			pending: TicketStateCancelPending,
			undo:    (*Ticket).UndoCancel,
		},
		{
			name: "cancel once accepted",
			prepare: func(ticket *Ticket) {
				_, _ = ticket.Accept(now.Add(time.Hour), now)
			},
			begin:   (*Ticket).Cancel,
			pending: TicketStateCancelPending,
			undo:    (*Ticket).UndoCancel,
		},
		{
			name: "revise once accepted",
			prepare: func(ticket *Ticket) {
				_, _ = ticket.Accept(now.Add(time.Hour), now)
			},
			begin: func(ticket *Ticket) ([]*events.Event, error) {
				return ticket.BeginRevise(api.RevisedQuantities{"naan": 3})
			},
			pending: TicketStateRevisionPending,
			undo:    (*Ticket).UndoBeginRevise,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := awaitingTicket(t)
			tt.prepare(ticket)
			before := ticket.State

			_, err := tt.begin(ticket)
			require.NoError(t, err)
			assert.Equal(t, tt.pending, ticket.State)
			assert.Equal(t, before, ticket.PreviousState)

			_, err = tt.undo(ticket)
			require.NoError(t, err)
			assert.Equal(t, before, ticket.State)
			assert.Equal(t, TicketState(""), ticket.PreviousState)
		})
	}
}

func TestTicket_ConfirmCancel(t *testing.T) {
	ticket := awaitingTicket(t)
	_, err := ticket.Cancel()
	require.NoError(t, err)

	evts, err := ticket.ConfirmCancel()

	require.NoError(t, err)
	require.Len(t, evts, 1)
	assert.Equal(t, TicketStateCancelled, ticket.State)
}

func TestTicket_ConfirmRevise(t *testing.T) {
	ticket := awaitingTicket(t)
	revised := api.RevisedQuantities{"chicken-vindaloo": 1}
	_, err := ticket.BeginRevise(revised)
	require.NoError(t, err)

	evts, err := ticket.ConfirmRevise(revised)

	require.NoError(t, err)
	require.Len(t, evts, 1)
	assert.Equal(t, events.TicketRevisedEvent, evts[0].EventType)
	assert.Equal(t, TicketStateAwaitingAcceptance, ticket.State)
	assert.Equal(t, 1, ticket.LineItems[0].Quantity)
	assert.Equal(t, 1, ticket.LineItems[1].Quantity)
}

func TestTicket_IllegalTransitionsLeaveTicketUnchanged(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name       string
		transition func(*Ticket) ([]*events.Event, error)
	}{
		{name: "accept while create pending", transition: func(t *Ticket) ([]*events.Event, error) { return t.Accept(now.Add(time.Hour), now) }},
		{name: "preparing while create pending", transition: func(t *Ticket) ([]*events.Event, error) { return t.Preparing(now) }},
		{name: "cancel while create pending", transition: (*Ticket).Cancel},
		{name: "undo cancel without cancel", transition: (*Ticket).UndoCancel},
		{name: "confirm cancel without cancel", transition: (*Ticket).ConfirmCancel},
		{name: "revise while create pending", transition: func(t *Ticket) ([]*events.Event, error) {
			return t.BeginRevise(api.RevisedQuantities{"naan": 2})
		}},
		{name: "undo revise without revise", transition: (*Ticket).UndoBeginRevise},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := newTestTicket(t)
			state, version := ticket.State, ticket.Version

			evts, err := tt.transition(ticket)

			require.Error(t, err)
			assert.True(t, apperrors.IsStateTransition(err))
			assert.Nil(t, evts)
			assert.Equal(t, state, ticket.State)
			assert.Equal(t, version, ticket.Version)
		})
	}
}

func TestTicket_CancelWhilePreparingFails(t *testing.T) {
	now := time.Now()
	ticket := awaitingTicket(t)
	_, err := ticket.Accept(now.Add(time.Hour), now)
	require.NoError(t, err)
	_, err = ticket.Preparing(now)
	require.NoError(t, err)

	_, err = ticket.Cancel()

	assert.True(t, apperrors.IsStateTransition(err))
	assert.Equal(t, TicketStatePreparing, ticket.State)
}

func TestTicket_BeginReviseUnknownItem(t *testing.T) {
	ticket := awaitingTicket(t)

	_, err := ticket.BeginRevise(api.RevisedQuantities{"samosa": 2})

	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, TicketStateAwaitingAcceptance, ticket.State)
}
