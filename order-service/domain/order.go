package domain

import (
	"context"
	"time"

	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/models"
)

// OrderState represents the state of an order
type OrderState string

const (
	OrderStateApprovalPending OrderState = "APPROVAL_PENDING"
	OrderStateApproved        OrderState = "APPROVED"
	OrderStateRejected        OrderState = "REJECTED"
	OrderStateCancelPending   OrderState = "CANCEL_PENDING"
	OrderStateCancelled       OrderState = "CANCELLED"
	OrderStateRevisionPending OrderState = "REVISION_PENDING"
)

// OrderLineItem is one priced line of an order
type OrderLineItem struct {
	MenuItemID string       `json:"menu_item_id"`
	Name       string       `json:"name"`
	Price      models.Money `json:"price"`
	Quantity   int          `json:"quantity"`
}

// Total returns price times quantity
func (li OrderLineItem) Total() models.Money {
	return li.Price.Multiply(li.Quantity)
}

// DeliveryInformation tells where and when the order is delivered
type DeliveryInformation struct {
	DeliveryTime    time.Time `json:"delivery_time"`
	DeliveryAddress string    `json:"delivery_address"`
}

// OrderRevision carries the new quantity of each revised menu item
type OrderRevision struct {
	RevisedQuantities api.RevisedQuantities `json:"revised_quantities"`
}

// LineItemQuantityChange is the price impact of a revision
type LineItemQuantityChange struct {
	CurrentOrderTotal models.Money `json:"current_order_total"`
	NewOrderTotal     models.Money `json:"new_order_total"`
	Delta             models.Money `json:"delta"`
}

// Order aggregate root
type Order struct {
	ID                  models.ID           `json:"id"`
	ConsumerID          models.ID           `json:"consumer_id"`
	RestaurantID        models.ID           `json:"restaurant_id"`
	LineItems           []OrderLineItem     `json:"line_items"`
	DeliveryInformation DeliveryInformation `json:"delivery_information"`
	State               OrderState          `json:"state"`
	Timestamps          models.Timestamps
	Version             models.Version

	events []*events.Event
}

// CreateOrder factory method. Line items are priced from the restaurant menu.
func CreateOrder(consumerID models.ID, restaurant *Restaurant, delivery DeliveryInformation, items []api.LineItemQuantity) (*Order, error) {
	if consumerID.IsEmpty() {
		return nil, apperrors.Validation("consumer ID is required")
	}
	if restaurant == nil {
		return nil, apperrors.Validation("restaurant is required")
	}
	if len(items) == 0 {
		return nil, apperrors.Validation("order must contain at least one line item")
	}

	lineItems := make([]OrderLineItem, 0, len(items))
	currency := ""
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, apperrors.Validation("quantity of %s must be positive", item.MenuItemID)
		}
		menuItem, ok := restaurant.FindMenuItem(item.MenuItemID)
		if !ok {
			return nil, apperrors.Validation("menu item %s not offered by restaurant %s", item.MenuItemID, restaurant.ID)
		}
		if currency == "" {
			currency = menuItem.Price.Currency
		} else if menuItem.Price.Currency != currency {
			return nil, apperrors.Validation("menu item %s is priced in %s, order is in %s", item.MenuItemID, menuItem.Price.Currency, currency)
		}
		lineItems = append(lineItems, OrderLineItem{
			MenuItemID: menuItem.ID,
			Name:       menuItem.Name,
			Price:      menuItem.Price,
			Quantity:   item.Quantity,
		})
	}

	order := &Order{
		ID:                  models.GenerateUUID(),
		ConsumerID:          consumerID,
		RestaurantID:        restaurant.ID,
		LineItems:           lineItems,
		DeliveryInformation: delivery,
		State:               OrderStateApprovalPending,
		Timestamps:          models.NewTimestamps(),
		Version:             models.NewVersion(),
	}

	order.recordEvent(events.NewEvent(order.ID, events.OrderCreatedEvent, OrderCreatedData{
		OrderID:             order.ID,
		ConsumerID:          order.ConsumerID,
		RestaurantID:        order.RestaurantID,
		RestaurantName:      restaurant.Name,
		LineItems:           order.LineItems,
		OrderTotal:          order.OrderTotal(),
		DeliveryInformation: order.DeliveryInformation,
	}))
	return order, nil
}

// Currency is the currency every line item is priced in
func (o *Order) Currency() string {
	if len(o.LineItems) == 0 {
		return models.DefaultCurrency
	}
	return o.LineItems[0].Price.Currency
}

// OrderTotal sums the line items
func (o *Order) OrderTotal() models.Money {
	total := models.Zero(o.Currency())
	for _, li := range o.LineItems {
		total.Amount += li.Total().Amount
	}
	return total
}

// TicketDetails describes the order to the kitchen
func (o *Order) TicketDetails() api.TicketDetails {
	items := make([]api.TicketLineItem, len(o.LineItems))
	for i, li := range o.LineItems {
		items[i] = api.TicketLineItem{MenuItemID: li.MenuItemID, Name: li.Name, Quantity: li.Quantity}
	}
	return api.TicketDetails{LineItems: items}
}

// NoteApproved marks the order as authorized by every participant
func (o *Order) NoteApproved() ([]*events.Event, error) {
	if o.State != OrderStateApprovalPending {
		return nil, o.illegal("approve")
	}
	o.transitionTo(OrderStateApproved)
	return o.recordEvent(events.NewEvent(o.ID, events.OrderAuthorizedEvent, OrderStateData{
		OrderID: o.ID,
		State:   o.State,
	})), nil
}

// NoteRejected marks the order as refused by a participant
func (o *Order) NoteRejected() ([]*events.Event, error) {
	if o.State != OrderStateApprovalPending {
		return nil, o.illegal("reject")
	}
	o.transitionTo(OrderStateRejected)
	return o.recordEvent(events.NewEvent(o.ID, events.OrderRejectedEvent, OrderStateData{
		OrderID: o.ID,
		State:   o.State,
	})), nil
}

// Cancel begins a cancellation
func (o *Order) Cancel() ([]*events.Event, error) {
	if o.State != OrderStateApproved {
		return nil, o.illegal("cancel")
	}
	o.transitionTo(OrderStateCancelPending)
	return nil, nil
}

// UndoPendingCancel returns a cancel-pending order to APPROVED
func (o *Order) UndoPendingCancel() ([]*events.Event, error) {
	if o.State != OrderStateCancelPending {
		return nil, o.illegal("undo cancel")
	}
	o.transitionTo(OrderStateApproved)
	return nil, nil
}

// NoteCancelled completes a cancellation
func (o *Order) NoteCancelled() ([]*events.Event, error) {
	if o.State != OrderStateCancelPending {
		return nil, o.illegal("confirm cancel")
	}
	o.transitionTo(OrderStateCancelled)
	return o.recordEvent(events.NewEvent(o.ID, events.OrderCancelledEvent, OrderStateData{
		OrderID: o.ID,
		State:   o.State,
	})), nil
}

// Revise proposes new quantities. A revision whose new total reaches
// orderMinimum is refused.
func (o *Order) Revise(revision OrderRevision, orderMinimum int64) (*LineItemQuantityChange, []*events.Event, error) {
	if o.State != OrderStateApproved {
		return nil, nil, o.illegal("revise")
	}

	change, err := o.quantityChange(revision)
	if err != nil {
		return nil, nil, err
	}
	if change.NewOrderTotal.Amount >= orderMinimum {
		return nil, nil, apperrors.BusinessRule("revised order total %s reaches the order minimum %d", change.NewOrderTotal, orderMinimum)
	}

	o.transitionTo(OrderStateRevisionPending)
	evts := o.recordEvent(events.NewEvent(o.ID, events.OrderRevisionProposedEvent, OrderRevisionProposedData{
		OrderID:           o.ID,
		RevisedQuantities: revision.RevisedQuantities,
		CurrentOrderTotal: change.CurrentOrderTotal,
		NewOrderTotal:     change.NewOrderTotal,
	}))
	return change, evts, nil
}

// RejectRevision drops a pending revision
func (o *Order) RejectRevision() ([]*events.Event, error) {
	if o.State != OrderStateRevisionPending {
		return nil, o.illegal("reject revision")
	}
	o.transitionTo(OrderStateApproved)
	return o.recordEvent(events.NewEvent(o.ID, events.OrderRevisionRejectedEvent, OrderStateData{
		OrderID: o.ID,
		State:   o.State,
	})), nil
}

// ConfirmRevision applies the revised quantities
func (o *Order) ConfirmRevision(revision OrderRevision) ([]*events.Event, error) {
	if o.State != OrderStateRevisionPending {
		return nil, o.illegal("confirm revision")
	}

	change, err := o.quantityChange(revision)
	if err != nil {
		return nil, err
	}

	for i := range o.LineItems {
		if qty, ok := revision.RevisedQuantities[o.LineItems[i].MenuItemID]; ok {
			o.LineItems[i].Quantity = qty
		}
	}
	o.transitionTo(OrderStateApproved)
	return o.recordEvent(events.NewEvent(o.ID, events.OrderRevisedEvent, OrderRevisedData{
		OrderID:           o.ID,
		RevisedQuantities: revision.RevisedQuantities,
		CurrentOrderTotal: change.CurrentOrderTotal,
		NewOrderTotal:     change.NewOrderTotal,
	})), nil
}

func (o *Order) quantityChange(revision OrderRevision) (*LineItemQuantityChange, error) {
	if len(revision.RevisedQuantities) == 0 {
		return nil, apperrors.Validation("revision must change at least one line item")
	}

	current := o.OrderTotal()
	delta := models.Zero(current.Currency)
	for menuItemID, qty := range revision.RevisedQuantities {
		if qty <= 0 {
			return nil, apperrors.Validation("revised quantity of %s must be positive", menuItemID)
		}
		li, ok := o.lineItem(menuItemID)
		if !ok {
			return nil, apperrors.Validation("order %s has no line item %s", o.ID, menuItemID)
		}
		delta.Amount += li.Price.Multiply(qty - li.Quantity).Amount
	}

	newTotal, err := current.Add(delta)
	if err != nil {
		return nil, err
	}
	return &LineItemQuantityChange{
		CurrentOrderTotal: current,
		NewOrderTotal:     newTotal,
		Delta:             delta,
	}, nil
}

func (o *Order) lineItem(menuItemID string) (OrderLineItem, bool) {
	for _, li := range o.LineItems {
		if li.MenuItemID == menuItemID {
			return li, true
		}
	}
	return OrderLineItem{}, false
}

func (o *Order) transitionTo(state OrderState) {
	o.State = state
	o.Timestamps = o.Timestamps.Update()
	o.Version = o.Version.Update()
}

func (o *Order) illegal(transition string) error {
	return apperrors.UnsupportedTransition("order", transition, string(o.State))
}

// Events returns domain events
func (o *Order) Events() []*events.Event {
	return o.events
}

// ClearEvents clears domain events
func (o *Order) ClearEvents() {
	o.events = make([]*events.Event, 0)
}

// recordEvent records domain events and returns them
func (o *Order) recordEvent(evts ...*events.Event) []*events.Event {
	o.events = append(o.events, evts...)
	return evts
}

// Event Data Structures
type OrderCreatedData struct {
	OrderID             models.ID           `json:"order_id"`
	ConsumerID          models.ID           `json:"consumer_id"`
	RestaurantID        models.ID           `json:"restaurant_id"`
	RestaurantName      string              `json:"restaurant_name"`
	LineItems           []OrderLineItem     `json:"line_items"`
	OrderTotal          models.Money        `json:"order_total"`
	DeliveryInformation DeliveryInformation `json:"delivery_information"`
}

type OrderStateData struct {
	OrderID models.ID  `json:"order_id"`
	State   OrderState `json:"state"`
}

type OrderRevisionProposedData struct {
	OrderID           models.ID             `json:"order_id"`
	RevisedQuantities api.RevisedQuantities `json:"revised_quantities"`
	CurrentOrderTotal models.Money          `json:"current_order_total"`
	NewOrderTotal     models.Money          `json:"new_order_total"`
}

type OrderRevisedData struct {
	OrderID           models.ID             `json:"order_id"`
	RevisedQuantities api.RevisedQuantities `json:"revised_quantities"`
	CurrentOrderTotal models.Money          `json:"current_order_total"`
	NewOrderTotal     models.Money          `json:"new_order_total"`
}

// Repository interfaces
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	Update(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id models.ID) (*Order, error)
}
