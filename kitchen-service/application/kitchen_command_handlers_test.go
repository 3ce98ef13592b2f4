package application

import (
	"context"
	"testing"
	"time"

	"github.com/ftgo/order-system/kitchen-service/domain"
	"github.com/ftgo/order-system/kitchen-service/mocks"
	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/messaging"
	"github.com/ftgo/order-system/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	validTicketID     = models.ID("550e8400-e29b-41d4-a716-446655440020")
	validRestaurantID = models.ID("550e8400-e29b-41d4-a716-446655440200")
)

func ticketInState(state, previous domain.TicketState) *domain.Ticket {
	return &domain.Ticket{
		ID:            validTicketID,
		RestaurantID:  validRestaurantID,
		LineItems:     []domain.TicketLineItem{{MenuItemID: "chicken-vindaloo", Name: "Chicken Vindaloo", Quantity: 3}},
		State:         state,
		PreviousState: previous,
		Timestamps:    models.NewTimestamps(),
		Version:       models.Version{Value: 2},
	}
}

func TestKitchenCommandHandlers_CreateTicket(t *testing.T) {
	tickets := mocks.NewMockTicketRepository(t)
	publisher := mocks.NewMockAggregatePublisher(t)

	tickets.EXPECT().FindByID(mock.Anything, validTicketID).
		Return(nil, apperrors.NotFound("ticket", validTicketID.String())).Once()
	tickets.EXPECT().Save(mock.Anything, mock.MatchedBy(func(ticket *domain.Ticket) bool {
		return ticket.ID == validTicketID && ticket.State == domain.TicketStateCreatePending
	})).Return(nil).Once()
	publisher.EXPECT().Publish(mock.Anything, events.AggregateTypeTicket, validTicketID, mock.MatchedBy(func(evts []*events.Event) bool {
		return len(evts) == 1 && evts[0].EventType == events.TicketCreatedEvent
	})).Return(nil).Once()

	handlers := NewKitchenCommandHandlers(tickets, publisher).Handlers()
	result, err := handlers[api.CreateTicketCommand](context.Background(),
		messaging.NewCommand(api.KitchenServiceChannel, api.CreateTicketCommand, api.CreateTicket{
			OrderID:      validTicketID,
			RestaurantID: validRestaurantID,
			TicketDetails: api.TicketDetails{LineItems: []api.TicketLineItem{
				{MenuItemID: "chicken-vindaloo", Name: "Chicken Vindaloo", Quantity: 5},
			}},
		}))

	require.NoError(t, err)
	assert.Equal(t, api.CreateTicketReply{TicketID: validTicketID}, result)
}

func TestKitchenCommandHandlers_CreateTicketRedelivered(t *testing.T) {
	createTicket := messaging.NewCommand(api.KitchenServiceChannel, api.CreateTicketCommand, api.CreateTicket{
		OrderID:      validTicketID,
		RestaurantID: validRestaurantID,
		TicketDetails: api.TicketDetails{LineItems: []api.TicketLineItem{
			{MenuItemID: "chicken-vindaloo", Name: "Chicken Vindaloo", Quantity: 3},
		}},
	})

	t.Run("same restaurant answers with the existing ticket", func(t *testing.T) {
		tickets := mocks.NewMockTicketRepository(t)
		tickets.EXPECT().FindByID(mock.Anything, validTicketID).
			Return(ticketInState(domain.TicketStateAwaitingAcceptance, ""), nil).Once()

		handlers := NewKitchenCommandHandlers(tickets, mocks.NewMockAggregatePublisher(t)).Handlers()
		result, err := handlers[api.CreateTicketCommand](context.Background(), createTicket)

		require.NoError(t, err)
		assert.Equal(t, api.CreateTicketReply{TicketID: validTicketID}, result)
	})

	t.Run("other restaurant is refused", func(t *testing.T) {
		existing := ticketInState(domain.TicketStateCreatePending, "")
		existing.RestaurantID = models.ID("550e8400-e29b-41d4-a716-446655440201")
		tickets := mocks.NewMockTicketRepository(t)
		tickets.EXPECT().FindByID(mock.Anything, validTicketID).Return(existing, nil).Once()

		handlers := NewKitchenCommandHandlers(tickets, mocks.NewMockAggregatePublisher(t)).Handlers()
		_, err := handlers[api.CreateTicketCommand](context.Background(), createTicket)

		assert.True(t, apperrors.IsBusinessRule(err))
	})

	t.Run("lookup failure", func(t *testing.T) {
		tickets := mocks.NewMockTicketRepository(t)
		tickets.EXPECT().FindByID(mock.Anything, validTicketID).Return(nil, errors.New("connection reset")).Once()

		handlers := NewKitchenCommandHandlers(tickets, mocks.NewMockAggregatePublisher(t)).Handlers()
		_, err := handlers[api.CreateTicketCommand](context.Background(), createTicket)

		assert.Error(t, err)
		assert.False(t, apperrors.IsBusinessRule(err))
	})
}

func TestKitchenCommandHandlers_CreateTicketWithoutItems(t *testing.T) {
	tickets := mocks.NewMockTicketRepository(t)
	tickets.EXPECT().FindByID(mock.Anything, validTicketID).
		Return(nil, apperrors.NotFound("ticket", validTicketID.String())).Once()
	handlers := NewKitchenCommandHandlers(tickets, mocks.NewMockAggregatePublisher(t)).Handlers()

	_, err := handlers[api.CreateTicketCommand](context.Background(),
		messaging.NewCommand(api.KitchenServiceChannel, api.CreateTicketCommand, api.CreateTicket{
			OrderID:      validTicketID,
			RestaurantID: validRestaurantID,
		}))

	assert.True(t, apperrors.IsValidation(err))
}

func TestKitchenCommandHandlers_Transitions(t *testing.T) {
	revised := api.ReviseTicket{TicketID: validTicketID, RestaurantID: validRestaurantID, RevisedQuantities: api.RevisedQuantities{"chicken-vindaloo": 2}}

	tests := []struct {
		name          string
		commandType   string
		payload       interface{}
		from          domain.TicketState
		previous      domain.TicketState
		to            domain.TicketState
		expectedEvent string
	}{
		{name: "confirm create", commandType: api.ConfirmCreateTicketCommand, from: domain.TicketStateCreatePending, to: domain.TicketStateAwaitingAcceptance},
		{name: "cancel create", commandType: api.CancelCreateTicketCommand, from: domain.TicketStateCreatePending, to: domain.TicketStateCancelled, expectedEvent: events.TicketCancelledEvent},
		{name: "begin cancel", commandType: api.BeginCancelTicketCommand, from: domain.TicketStateAccepted, to: domain.TicketStateCancelPending},
		{name: "undo begin cancel", commandType: api.UndoBeginCancelTicketCommand, from: domain.TicketStateCancelPending, previous: domain.TicketStateAccepted, to: domain.TicketStateAccepted},
		{name: "confirm cancel", commandType: api.ConfirmCancelTicketCommand, from: domain.TicketStateCancelPending, previous: domain.TicketStateAwaitingAcceptance, to: domain.TicketStateCancelled, expectedEvent: events.TicketCancelledEvent},
		{name: "begin revise", commandType: api.BeginReviseTicketCommand, payload: revised, from: domain.TicketStateAwaitingAcceptance, to: domain.TicketStateRevisionPending},
		{name: "undo begin revise", commandType: api.UndoBeginReviseTicketCommand, from: domain.TicketStateRevisionPending, previous: domain.TicketStateAwaitingAcceptance, to: domain.TicketStateAwaitingAcceptance},
		{name: "confirm revise", commandType: api.ConfirmReviseTicketCommand, payload: revised, from: domain.TicketStateRevisionPending, previous: domain.TicketStateAccepted, to: domain.TicketStateAccepted, expectedEvent: events.TicketRevisedEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tickets := mocks.NewMockTicketRepository(t)
			publisher := mocks.NewMockAggregatePublisher(t)
			ticket := ticketInState(tt.from, tt.previous)

			tickets.EXPECT().FindByID(mock.Anything, validTicketID).Return(ticket, nil).Once()
			tickets.EXPECT().Update(mock.Anything, mock.MatchedBy(func(tk *domain.Ticket) bool {
				return tk.State == tt.to && tk.Version.Value == 3
			})).Return(nil).Once()
			publisher.EXPECT().Publish(mock.Anything, events.AggregateTypeTicket, validTicketID, mock.MatchedBy(func(evts []*events.Event) bool {
				if tt.expectedEvent == "" {
					return len(evts) == 0
				}
				return len(evts) == 1 && evts[0].EventType == tt.expectedEvent
			})).Return(nil).Once()

			payload := tt.payload
			if payload == nil {
				payload = api.TicketCommand{TicketID: validTicketID, RestaurantID: validRestaurantID}
			}
			handlers := NewKitchenCommandHandlers(tickets, publisher).Handlers()

			result, err := handlers[tt.commandType](context.Background(), messaging.NewCommand(api.KitchenServiceChannel, tt.commandType, payload))

			require.NoError(t, err)
			assert.Nil(t, result)
			assert.Equal(t, tt.to, ticket.State)
		})
	}
}

func TestKitchenCommandHandlers_Failures(t *testing.T) {
	tests := []struct {
		name          string
		commandType   string
		payload       interface{}
		ticket        *domain.Ticket
		findErr       error
		validateError func(error) bool
	}{
		{
			name:          "cancel while preparing",
			commandType:   api.BeginCancelTicketCommand,
			ticket:        ticketInState(domain.TicketStatePreparing, ""),
			validateError: apperrors.IsStateTransition,
		},
		{
			name:          "revise unknown line item",
			commandType:   api.BeginReviseTicketCommand,
			payload:       api.ReviseTicket{TicketID: validTicketID, RevisedQuantities: api.RevisedQuantities{"naan": 1}},
			ticket:        ticketInState(domain.TicketStateAccepted, ""),
			validateError: apperrors.IsValidation,
		},
		{
			name:          "unknown ticket",
			commandType:   api.ConfirmCreateTicketCommand,
			findErr:       apperrors.NotFound("ticket", validTicketID.String()),
			validateError: apperrors.IsNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tickets := mocks.NewMockTicketRepository(t)
			tickets.EXPECT().FindByID(mock.Anything, validTicketID).Return(tt.ticket, tt.findErr).Once()

			payload := tt.payload
			if payload == nil {
				payload = api.TicketCommand{TicketID: validTicketID}
			}
			handlers := NewKitchenCommandHandlers(tickets, mocks.NewMockAggregatePublisher(t)).Handlers()

			_, err := handlers[tt.commandType](context.Background(), messaging.NewCommand(api.KitchenServiceChannel, tt.commandType, payload))

			require.Error(t, err)
			assert.True(t, tt.validateError(err))
		})
	}
}

func TestTicketActions_Execute(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		command       TicketActionCommand
		from          domain.TicketState
		to            domain.TicketState
		expectedEvent string
		validateError func(error) bool
	}{
		{
			name:          "accept",
			command:       TicketActionCommand{Action: ActionAccept, ReadyBy: now.Add(30 * time.Minute)},
			from:          domain.TicketStateAwaitingAcceptance,
			to:            domain.TicketStateAccepted,
			expectedEvent: events.TicketAcceptedEvent,
		},
		{
			name:          "accept with readyBy in the past",
			command:       TicketActionCommand{Action: ActionAccept, ReadyBy: now},
			from:          domain.TicketStateAwaitingAcceptance,
			validateError: apperrors.IsValidation,
		},
		{
			name:          "start preparing",
			command:       TicketActionCommand{Action: ActionPreparing},
			from:          domain.TicketStateAccepted,
			to:            domain.TicketStatePreparing,
			expectedEvent: events.TicketPreparationStartedEvent,
		},
		{
			name:          "ready for pickup",
			command:       TicketActionCommand{Action: ActionReadyForPickup},
			from:          domain.TicketStatePreparing,
			to:            domain.TicketStateReadyForPickup,
			expectedEvent: events.TicketPreparationCompletedEvent,
		},
		{
			name:          "picked up",
			command:       TicketActionCommand{Action: ActionPickedUp},
			from:          domain.TicketStateReadyForPickup,
			to:            domain.TicketStatePickedUp,
			expectedEvent: events.TicketPickedUpEvent,
		},
		{
			name:          "picked up before cooking",
			command:       TicketActionCommand{Action: ActionPickedUp},
			from:          domain.TicketStateAccepted,
			validateError: apperrors.IsStateTransition,
		},
		{
			name:          "unknown action",
			command:       TicketActionCommand{Action: "burn"},
			from:          domain.TicketStateAccepted,
			validateError: apperrors.IsValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tickets := mocks.NewMockTicketRepository(t)
			publisher := mocks.NewMockAggregatePublisher(t)
			tickets.EXPECT().FindByID(mock.Anything, validTicketID).Return(ticketInState(tt.from, ""), nil).Once()

			if tt.validateError == nil {
				tickets.EXPECT().Update(mock.Anything, mock.Anything).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, events.AggregateTypeTicket, validTicketID, mock.MatchedBy(func(evts []*events.Event) bool {
					return len(evts) == 1 && evts[0].EventType == tt.expectedEvent
				})).Return(nil).Once()
			}

			uc := NewTicketActions(tickets, publisher)
			uc.now = func() time.Time { return now }

			cmd := tt.command
			cmd.TicketID = validTicketID.String()
			result, err := uc.Execute(context.Background(), &cmd)

			if tt.validateError != nil {
				require.Error(t, err)
				assert.True(t, tt.validateError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, result.State)
		})
	}
}

func TestGetTicket_Execute(t *testing.T) {
	tickets := mocks.NewMockTicketRepository(t)
	tickets.EXPECT().FindByID(mock.Anything, validTicketID).Return(ticketInState(domain.TicketStateAccepted, ""), nil).Once()

	result, err := NewGetTicket(tickets).Execute(context.Background(), validTicketID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStateAccepted, result.State)

	_, err = NewGetTicket(tickets).Execute(context.Background(), "nope")
	assert.True(t, apperrors.IsValidation(err))
}
