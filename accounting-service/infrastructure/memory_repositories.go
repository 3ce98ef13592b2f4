package infrastructure

import (
	"context"

	"github.com/ftgo/order-system/accounting-service/domain"
	sharedinfra "github.com/ftgo/order-system/shared/infrastructure"
	"github.com/ftgo/order-system/shared/models"
)

var _ domain.AccountRepository = (*MemoryAccountRepository)(nil)

// MemoryAccountRepository keeps accounts in process
type MemoryAccountRepository struct {
	store *sharedinfra.MemoryStore[*domain.Account]
}

// NewMemoryAccountRepository creates a new MemoryAccountRepository
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		store: sharedinfra.NewMemoryStore("account", cloneAccount,
			func(a *domain.Account) models.Version { return a.Version }),
	}
}

func (r *MemoryAccountRepository) Save(_ context.Context, account *domain.Account) error {
	return r.store.Insert(account.ID, account)
}

func (r *MemoryAccountRepository) Update(_ context.Context, account *domain.Account) error {
	return r.store.Update(account.ID, account)
}

func (r *MemoryAccountRepository) FindByID(_ context.Context, id models.ID) (*domain.Account, error) {
	return r.store.Get(id)
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	c.Authorizations = make(map[models.ID]models.Money, len(a.Authorizations))
	for orderID, amount := range a.Authorizations {
		c.Authorizations[orderID] = amount
	}
	c.ClearEvents()
	return &c
}
