package domain

import (
	"context"

	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/models"
)

// AccountStatus represents the status of an account
type AccountStatus string

const (
	AccountStatusEnabled  AccountStatus = "enabled"
	AccountStatusDisabled AccountStatus = "disabled"
)

// Account aggregate root. There is one account per consumer and it shares
// the consumer's ID.
type Account struct {
	ID     models.ID     `json:"id"`
	Status AccountStatus `json:"status"`
	// AuthorizationLimit caps a single authorization; zero means unlimited
	AuthorizationLimit models.Money `json:"authorization_limit"`
	// Authorizations holds the amount currently authorized per order
	Authorizations map[models.ID]models.Money `json:"authorizations"`
	Timestamps     models.Timestamps
	Version        models.Version

	events []*events.Event
}

// OpenAccount factory method
func OpenAccount(consumerID models.ID) (*Account, error) {
	if consumerID.IsEmpty() {
		return nil, apperrors.Validation("consumer ID is required")
	}

	account := &Account{
		ID:                 consumerID,
		Status:             AccountStatusEnabled,
		AuthorizationLimit: models.Zero(models.DefaultCurrency),
		Authorizations:     make(map[models.ID]models.Money),
		Timestamps:         models.NewTimestamps(),
		Version:            models.NewVersion(),
	}

	account.recordEvent(events.NewEvent(account.ID, events.AccountCreatedEvent, AccountData{
		AccountID: account.ID,
		Status:    account.Status,
	}))
	return account, nil
}

// Authorize reserves amount for orderID. Authorizing the same amount again
// for the same order changes nothing and records no event.
func (a *Account) Authorize(orderID models.ID, amount models.Money) error {
	if existing, ok := a.Authorizations[orderID]; ok {
		if existing == amount {
			return nil
		}
		return apperrors.BusinessRule("order %s is already authorized on account %s for %s", orderID, a.ID, existing)
	}
	if err := a.checkAmount(amount); err != nil {
		return err
	}

	a.setAuthorization(orderID, amount)
	a.recordEvent(events.NewEvent(a.ID, events.AccountAuthorizedEvent, AuthorizationData{
		AccountID: a.ID,
		OrderID:   orderID,
		Amount:    amount,
	}))
	return nil
}

// ReverseAuthorization releases the amount reserved for orderID
func (a *Account) ReverseAuthorization(orderID models.ID) error {
	amount, ok := a.Authorizations[orderID]
	if !ok {
		return apperrors.BusinessRule("order %s is not authorized on account %s", orderID, a.ID)
	}

	delete(a.Authorizations, orderID)
	a.touch()
	a.recordEvent(events.NewEvent(a.ID, events.AuthorizationReversedEvent, AuthorizationData{
		AccountID: a.ID,
		OrderID:   orderID,
		Amount:    amount,
	}))
	return nil
}

// ReviseAuthorization replaces the amount reserved for orderID
func (a *Account) ReviseAuthorization(orderID models.ID, amount models.Money) error {
	if _, ok := a.Authorizations[orderID]; !ok {
		return apperrors.BusinessRule("order %s is not authorized on account %s", orderID, a.ID)
	}
	if err := a.checkAmount(amount); err != nil {
		return err
	}

	a.setAuthorization(orderID, amount)
	a.recordEvent(events.NewEvent(a.ID, events.AuthorizationRevisedEvent, AuthorizationData{
		AccountID: a.ID,
		OrderID:   orderID,
		Amount:    amount,
	}))
	return nil
}

// Configure changes the status and the authorization limit
func (a *Account) Configure(status AccountStatus, limit models.Money) error {
	if status != AccountStatusEnabled && status != AccountStatusDisabled {
		return apperrors.Validation("unknown account status %q", status)
	}
	if limit.Amount < 0 {
		return apperrors.Validation("authorization limit must not be negative")
	}
	if limit.Currency == "" {
		limit.Currency = models.DefaultCurrency
	}

	a.Status = status
	a.AuthorizationLimit = limit
	a.touch()
	a.recordEvent(events.NewEvent(a.ID, events.AccountUpdatedEvent, AccountData{
		AccountID:          a.ID,
		Status:             a.Status,
		AuthorizationLimit: a.AuthorizationLimit,
	}))
	return nil
}

func (a *Account) checkAmount(amount models.Money) error {
	if a.Status != AccountStatusEnabled {
		return apperrors.BusinessRule("account %s is %s", a.ID, a.Status)
	}
	if !amount.IsPositive() {
		return apperrors.Validation("authorized amount must be positive")
	}
	if !a.AuthorizationLimit.IsZero() {
		if amount.Currency != a.AuthorizationLimit.Currency {
			return apperrors.BusinessRule("amount in %s cannot be authorized on a %s account", amount.Currency, a.AuthorizationLimit.Currency)
		}
		if amount.Amount > a.AuthorizationLimit.Amount {
			return apperrors.BusinessRule("amount %s exceeds the authorization limit %s", amount, a.AuthorizationLimit)
		}
	}
	return nil
}

func (a *Account) setAuthorization(orderID models.ID, amount models.Money) {
	if a.Authorizations == nil {
		a.Authorizations = make(map[models.ID]models.Money)
	}
	a.Authorizations[orderID] = amount
	a.touch()
}

func (a *Account) touch() {
	a.Timestamps = a.Timestamps.Update()
	a.Version = a.Version.Update()
}

// Events returns domain events
func (a *Account) Events() []*events.Event {
	return a.events
}

// ClearEvents clears domain events
func (a *Account) ClearEvents() {
	a.events = make([]*events.Event, 0)
}

func (a *Account) recordEvent(event *events.Event) {
	a.events = append(a.events, event)
}

// Event Data Structures
type AccountData struct {
	AccountID          models.ID     `json:"account_id"`
	Status             AccountStatus `json:"status"`
	AuthorizationLimit models.Money  `json:"authorization_limit"`
}

type AuthorizationData struct {
	AccountID models.ID    `json:"account_id"`
	OrderID   models.ID    `json:"order_id"`
	Amount    models.Money `json:"amount"`
}

type AccountRepository interface {
	Save(ctx context.Context, account *Account) error
	Update(ctx context.Context, account *Account) error
	FindByID(ctx context.Context, id models.ID) (*Account, error)
}
