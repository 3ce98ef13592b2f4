package infrastructure

import (
	"context"

	"github.com/ftgo/order-system/kitchen-service/domain"
	sharedinfra "github.com/ftgo/order-system/shared/infrastructure"
	"github.com/ftgo/order-system/shared/models"
)

var _ domain.TicketRepository = (*MemoryTicketRepository)(nil)

// MemoryTicketRepository keeps tickets in process
type MemoryTicketRepository struct {
	store *sharedinfra.MemoryStore[*domain.Ticket]
}

// NewMemoryTicketRepository creates a new MemoryTicketRepository
func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{
		store: sharedinfra.NewMemoryStore("ticket", cloneTicket,
			func(t *domain.Ticket) models.Version { return t.Version }),
	}
}

func (r *MemoryTicketRepository) Save(_ context.Context, ticket *domain.Ticket) error {
	return r.store.Insert(ticket.ID, ticket)
}

func (r *MemoryTicketRepository) Update(_ context.Context, ticket *domain.Ticket) error {
	return r.store.Update(ticket.ID, ticket)
}

func (r *MemoryTicketRepository) FindByID(_ context.Context, id models.ID) (*domain.Ticket, error) {
	return r.store.Get(id)
}

func cloneTicket(t *domain.Ticket) *domain.Ticket {
	c := *t
	c.LineItems = append([]domain.TicketLineItem(nil), t.LineItems...)
	c.ClearEvents()
	return &c
}
