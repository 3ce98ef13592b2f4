package domain

import (
	"math"
	"testing"
	"time"

	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const noOrderMinimum = int64(math.MaxInt64)

var (
	testConsumerID   = models.ID("550e8400-e29b-41d4-a716-446655440010")
	testRestaurantID = models.ID("550e8400-e29b-41d4-a716-446655440200")
)

func testRestaurant(t *testing.T) *Restaurant {
	t.Helper()
	r, err := NewRestaurant(testRestaurantID, "Ajanta", []api.MenuItem{
		{ID: "chicken-vindaloo", Name: "Chicken Vindaloo", Price: models.NewMoney(1234, "USD")},
		{ID: "naan", Name: "Naan", Price: models.NewMoney(250, "USD")},
	})
	require.NoError(t, err)
	return r
}

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	order, err := CreateOrder(testConsumerID, testRestaurant(t), DeliveryInformation{
		DeliveryTime:    time.Date(2024, 5, 1, 19, 0, 0, 0, time.UTC),
		DeliveryAddress: "1 Main Street",
	}, []api.LineItemQuantity{
		{MenuItemID: "chicken-vindaloo", Quantity: 5},
		{MenuItemID: "naan", Quantity: 2},
	})
	require.NoError(t, err)
	return order
}

func approvedOrder(t *testing.T) *Order {
	t.Helper()
	order := newTestOrder(t)
	_, err := order.NoteApproved()
	require.NoError(t, err)
	return order
}

func TestCreateOrder(t *testing.T) {
	order := newTestOrder(t)

	assert.Equal(t, OrderStateApprovalPending, order.State)
	assert.Equal(t, models.NewMoney(5*1234+2*250, "USD"), order.OrderTotal())
	assert.Equal(t, "Chicken Vindaloo", order.LineItems[0].Name)
	require.Len(t, order.Events(), 1)
	assert.Equal(t, events.OrderCreatedEvent, order.Events()[0].EventType)

	details := order.TicketDetails()
	require.Len(t, details.LineItems, 2)
	assert.Equal(t, 5, details.LineItems[0].Quantity)
}

func TestCreateOrder_Validation(t *testing.T) {
	restaurant := testRestaurant(t)

	tests := []struct {
		name       string
		consumerID models.ID
		items      []api.LineItemQuantity
	}{
		{name: "missing consumer", consumerID: "", items: []api.LineItemQuantity{{MenuItemID: "naan", Quantity: 1}}},
		{name: "no line items", consumerID: testConsumerID},
		{name: "unknown menu item", consumerID: testConsumerID, items: []api.LineItemQuantity{{MenuItemID: "samosa", Quantity: 1}}},
		{name: "zero quantity", consumerID: testConsumerID, items: []api.LineItemQuantity{{MenuItemID: "naan", Quantity: 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := CreateOrder(tt.consumerID, restaurant, DeliveryInformation{}, tt.items)

			assert.Nil(t, order)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
}

func TestOrder_StateTable(t *testing.T) {
	revision := OrderRevision{RevisedQuantities: api.RevisedQuantities{"naan": 3}}

	transitions := map[string]func(*Order) error{
		"approve": func(o *Order) error { _, err := o.NoteApproved(); return err },
		"reject":  func(o *Order) error { _, err := o.NoteRejected(); return err },
		"cancel":  func(o *Order) error { _, err := o.Cancel(); return err },
		"undo cancel": func(o *Order) error {
			_, err := o.UndoPendingCancel()
			return err
		},
		"confirm cancel": func(o *Order) error { _, err := o.NoteCancelled(); return err },
		"revise": func(o *Order) error {
			_, _, err := o.Revise(revision, noOrderMinimum)
			return err
		},
		"reject revision": func(o *Order) error { _, err := o.RejectRevision(); return err },
		"confirm revision": func(o *Order) error {
			_, err := o.ConfirmRevision(revision)
			return err
		},
	}

	legal := map[OrderState]map[string]OrderState{
		OrderStateApprovalPending: {"approve": OrderStateApproved, "reject": OrderStateRejected},
		OrderStateApproved:        {"cancel": OrderStateCancelPending, "revise": OrderStateRevisionPending},
		OrderStateCancelPending:   {"undo cancel": OrderStateApproved, "confirm cancel": OrderStateCancelled},
		OrderStateRevisionPending: {"reject revision": OrderStateApproved, "confirm revision": OrderStateApproved},
		OrderStateRejected:        {},
		OrderStateCancelled:       {},
	}

	for from, allowed := range legal {
		for name, transition := range transitions {
			t.Run(string(from)+"/"+name, func(t *testing.T) {
				order := newTestOrder(t)
				order.State = from
				version := order.Version

				err := transition(order)

				if to, ok := allowed[name]; ok {
					require.NoError(t, err)
					assert.Equal(t, to, order.State)
					assert.Equal(t, version.Value+1, order.Version.Value)
					return
				}
				require.Error(t, err)
				assert.True(t, apperrors.IsStateTransition(err))
				assert.Equal(t, from, order.State)
				assert.Equal(t, version, order.Version)
			})
		}
	}
}

func TestOrder_ApproveEmitsOrderAuthorized(t *testing.T) {
	order := newTestOrder(t)

	evts, err := order.NoteApproved()

	require.NoError(t, err)
	require.Len(t, evts, 1)
	assert.Equal(t, events.OrderAuthorizedEvent, evts[0].EventType)
	require.Len(t, order.Events(), 2)
	assert.Equal(t, events.OrderCreatedEvent, order.Events()[0].EventType)
}

func TestOrder_ReviseReducesTotalByUnitPrice(t *testing.T) {
	order := approvedOrder(t)
	before := order.OrderTotal()
	revision := OrderRevision{RevisedQuantities: api.RevisedQuantities{"chicken-vindaloo": 4}}

	change, evts, err := order.Revise(revision, noOrderMinimum)

	require.NoError(t, err)
	require.Len(t, evts, 1)
	assert.Equal(t, events.OrderRevisionProposedEvent, evts[0].EventType)
	assert.Equal(t, int64(-1234), change.Delta.Amount)
	assert.Equal(t, before, change.CurrentOrderTotal)
	assert.Equal(t, before.Amount-1234, change.NewOrderTotal.Amount)
	assert.Equal(t, OrderStateRevisionPending, order.State)
	assert.Equal(t, before, order.OrderTotal(), "quantities change only on confirmation")

	_, err = order.ConfirmRevision(revision)

	require.NoError(t, err)
	assert.Equal(t, OrderStateApproved, order.State)
	assert.Equal(t, before.Amount-1234, order.OrderTotal().Amount)
}

func TestOrder_RevisionRoundTrip(t *testing.T) {
	order := approvedOrder(t)
	before := order.OrderTotal()

	apply := func(revision OrderRevision) {
		_, _, err := order.Revise(revision, noOrderMinimum)
		require.NoError(t, err)
		_, err = order.ConfirmRevision(revision)
		require.NoError(t, err)
	}

	apply(OrderRevision{RevisedQuantities: api.RevisedQuantities{"chicken-vindaloo": 2, "naan": 7}})
	assert.NotEqual(t, before, order.OrderTotal())
	apply(OrderRevision{RevisedQuantities: api.RevisedQuantities{"chicken-vindaloo": 5, "naan": 2}})

	assert.Equal(t, before, order.OrderTotal())
}

func TestOrder_ReviseThreshold(t *testing.T) {
	tests := []struct {
		name         string
		orderMinimum func(newTotal int64) int64
		expectErr    bool
	}{
		{name: "new total equal to threshold is refused", orderMinimum: func(n int64) int64 { return n }, expectErr: true},
		{name: "new total above threshold is refused", orderMinimum: func(n int64) int64 { return n - 1 }, expectErr: true},
		{name: "new total below threshold is accepted", orderMinimum: func(n int64) int64 { return n + 1 }, expectErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := approvedOrder(t)
			version := order.Version
			revision := OrderRevision{RevisedQuantities: api.RevisedQuantities{"naan": 3}}
			newTotal := order.OrderTotal().Amount + 250

			_, _, err := order.Revise(revision, tt.orderMinimum(newTotal))

			if !tt.expectErr {
				require.NoError(t, err)
				assert.Equal(t, OrderStateRevisionPending, order.State)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsBusinessRule(err))
			assert.False(t, apperrors.IsStateTransition(err))
			assert.Equal(t, OrderStateApproved, order.State)
			assert.Equal(t, version, order.Version)
		})
	}
}

func TestOrder_ReviseUnknownLineItem(t *testing.T) {
	order := approvedOrder(t)

	_, _, err := order.Revise(OrderRevision{RevisedQuantities: api.RevisedQuantities{"samosa": 1}}, noOrderMinimum)

	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, OrderStateApproved, order.State)
}

func TestOrder_CancelWhileRevisionPending(t *testing.T) {
	order := approvedOrder(t)
	_, _, err := order.Revise(OrderRevision{RevisedQuantities: api.RevisedQuantities{"naan": 1}}, noOrderMinimum)
	require.NoError(t, err)
	version := order.Version

	evts, err := order.Cancel()

	assert.Nil(t, evts)
	assert.True(t, apperrors.IsStateTransition(err))
	assert.Equal(t, OrderStateRevisionPending, order.State)
	assert.Equal(t, version, order.Version)
}

func TestRestaurant_ReviseMenu(t *testing.T) {
	r := testRestaurant(t)

	err := r.ReviseMenu([]api.MenuItem{{ID: "naan", Name: "Garlic Naan", Price: models.Money{Amount: 300}}})

	require.NoError(t, err)
	item, ok := r.FindMenuItem("naan")
	require.True(t, ok)
	assert.Equal(t, models.NewMoney(300, models.DefaultCurrency), item.Price)
	_, ok = r.FindMenuItem("chicken-vindaloo")
	assert.False(t, ok)

	err = r.ReviseMenu([]api.MenuItem{{ID: "naan"}, {ID: "naan"}})
	assert.True(t, apperrors.IsValidation(err))
}
