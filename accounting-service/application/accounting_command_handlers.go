package application

import (
	"context"

	"github.com/ftgo/order-system/accounting-service/domain"
	"github.com/ftgo/order-system/shared/api"
	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/messaging"
	"github.com/ftgo/order-system/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// AccountingCommandHandlers authorizes order totals against consumer accounts
type AccountingCommandHandlers struct {
	accountRepository domain.AccountRepository
	eventPublisher    events.AggregatePublisher
}

// NewAccountingCommandHandlers creates the handlers
func NewAccountingCommandHandlers(accountRepository domain.AccountRepository, eventPublisher events.AggregatePublisher) *AccountingCommandHandlers {
	return &AccountingCommandHandlers{
		accountRepository: accountRepository,
		eventPublisher:    eventPublisher,
	}
}

// Handlers returns the dispatch table of the accounting service channel
func (h *AccountingCommandHandlers) Handlers() messaging.CommandHandlers {
	return messaging.CommandHandlers{
		api.AuthorizeCommand: h.handle(func(a *domain.Account, p api.Authorization) error {
			return a.Authorize(p.OrderID, p.OrderTotal)
		}),
		api.ReverseAuthorizationCommand: h.handle(func(a *domain.Account, p api.Authorization) error {
			return a.ReverseAuthorization(p.OrderID)
		}),
		api.ReviseAuthorizationCommand: h.handle(func(a *domain.Account, p api.Authorization) error {
			return a.ReviseAuthorization(p.OrderID, p.OrderTotal)
		}),
	}
}

func (h *AccountingCommandHandlers) handle(apply func(*domain.Account, api.Authorization) error) messaging.CommandHandlerFunc {
	return func(ctx context.Context, cmd *messaging.Command) (interface{}, error) {
		var payload api.Authorization
		if err := cmd.UnmarshalPayload(&payload); err != nil {
			return nil, apperrors.Validation("invalid %s payload: %v", cmd.Type, err)
		}

		status := "rejected"
		defer func() {
			telemetry.RecordCounter(ctx, "authorizations_total", "Total authorization commands", 1,
				attribute.String("command", cmd.Type),
				attribute.String("status", status),
			)
		}()

		account, err := h.accountRepository.FindByID(ctx, payload.ConsumerID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to find account")
		}
		if err := apply(account, payload); err != nil {
			return nil, err
		}
		if len(account.Events()) == 0 {
			// already applied by an earlier delivery
			status = "accepted"
			return nil, nil
		}
		if err := saveAccount(ctx, h.accountRepository, h.eventPublisher, account); err != nil {
			return nil, err
		}

		status = "accepted"
		return nil, nil
	}
}

// saveAccount stores a changed account and publishes its pending events
func saveAccount(ctx context.Context, repo domain.AccountRepository, publisher events.AggregatePublisher, account *domain.Account) error {
	if err := repo.Update(ctx, account); err != nil {
		return errors.Wrap(err, "failed to update account")
	}
	if err := publisher.Publish(ctx, events.AggregateTypeAccount, account.ID, account.Events()); err != nil {
		return errors.Wrap(err, "failed to publish account events")
	}
	account.ClearEvents()
	return nil
}
