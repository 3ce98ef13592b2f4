package application

import (
	"context"
	"time"

	"github.com/ftgo/order-system/accounting-service/domain"
	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/models"
	"github.com/pkg/errors"
)

// OpenAccount use case creates the account of a newly registered consumer
type OpenAccount struct {
	accountRepository domain.AccountRepository
	eventPublisher    events.AggregatePublisher
}

// NewOpenAccount creates a new OpenAccount use case
func NewOpenAccount(accountRepository domain.AccountRepository, eventPublisher events.AggregatePublisher) *OpenAccount {
	return &OpenAccount{
		accountRepository: accountRepository,
		eventPublisher:    eventPublisher,
	}
}

// Execute opens the account. A redelivered consumer.created is a no-op.
func (uc *OpenAccount) Execute(ctx context.Context, payload *api.ConsumerCreated) error {
	_, err := uc.accountRepository.FindByID(ctx, payload.ConsumerID)
	if err == nil {
		return nil
	}
	if !apperrors.IsNotFound(err) {
		return errors.Wrap(err, "failed to find account")
	}

	account, err := domain.OpenAccount(payload.ConsumerID)
	if err != nil {
		return err
	}
	if err := uc.accountRepository.Save(ctx, account); err != nil {
		return errors.Wrap(err, "failed to save account")
	}
	if err := uc.eventPublisher.Publish(ctx, events.AggregateTypeAccount, account.ID, account.Events()); err != nil {
		return errors.Wrap(err, "failed to publish account events")
	}
	account.ClearEvents()
	return nil
}

// AccountResponse represents an account as seen by API clients
type AccountResponse struct {
	AccountID          models.ID                  `json:"account_id"`
	Status             domain.AccountStatus       `json:"status"`
	AuthorizationLimit models.Money               `json:"authorization_limit"`
	Authorizations     map[models.ID]models.Money `json:"authorizations"`
	Version            int                        `json:"version"`
	UpdatedAt          time.Time                  `json:"updated_at"`
}

// GetAccount use case
type GetAccount struct {
	accountRepository domain.AccountRepository
}

// NewGetAccount creates a new GetAccount use case
func NewGetAccount(accountRepository domain.AccountRepository) *GetAccount {
	return &GetAccount{accountRepository: accountRepository}
}

// Execute gets an account
func (uc *GetAccount) Execute(ctx context.Context, accountID string) (*AccountResponse, error) {
	id, err := models.NewID(accountID)
	if err != nil {
		return nil, apperrors.Validation("invalid account ID %q", accountID)
	}

	account, err := uc.accountRepository.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find account")
	}
	return toAccountResponse(account), nil
}

// ConfigureAccountCommand changes the status and limit of an account
type ConfigureAccountCommand struct {
	AccountID          string               `json:"account_id"`
	Status             domain.AccountStatus `json:"status"`
	AuthorizationLimit models.Money         `json:"authorization_limit"`
}

// ConfigureAccount use case
type ConfigureAccount struct {
	accountRepository domain.AccountRepository
	eventPublisher    events.AggregatePublisher
}

// NewConfigureAccount creates a new ConfigureAccount use case
func NewConfigureAccount(accountRepository domain.AccountRepository, eventPublisher events.AggregatePublisher) *ConfigureAccount {
	return &ConfigureAccount{
		accountRepository: accountRepository,
		eventPublisher:    eventPublisher,
	}
}

// Execute applies the configuration
func (uc *ConfigureAccount) Execute(ctx context.Context, cmd *ConfigureAccountCommand) (*AccountResponse, error) {
	id, err := models.NewID(cmd.AccountID)
	if err != nil {
		return nil, apperrors.Validation("invalid account ID %q", cmd.AccountID)
	}

	account, err := uc.accountRepository.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find account")
	}
	if err := account.Configure(cmd.Status, cmd.AuthorizationLimit); err != nil {
		return nil, err
	}
	if err := saveAccount(ctx, uc.accountRepository, uc.eventPublisher, account); err != nil {
		return nil, err
	}
	return toAccountResponse(account), nil
}

func toAccountResponse(account *domain.Account) *AccountResponse {
	return &AccountResponse{
		AccountID:          account.ID,
		Status:             account.Status,
		AuthorizationLimit: account.AuthorizationLimit,
		Authorizations:     account.Authorizations,
		Version:            account.Version.Value,
		UpdatedAt:          account.Timestamps.UpdatedAt,
	}
}
