package handlers

import (
	"net/http"

	"github.com/ftgo/order-system/kitchen-service/application"
	"github.com/ftgo/order-system/shared/httpapi"
	"github.com/go-chi/chi/v5"
)

// TicketHandlers contains the restaurant-facing ticket endpoints
type TicketHandlers struct {
	ticketActions *application.TicketActions
	getTicket     *application.GetTicket
}

// NewTicketHandlers creates new ticket handlers
func NewTicketHandlers(ticketActions *application.TicketActions, getTicket *application.GetTicket) *TicketHandlers {
	return &TicketHandlers{
		ticketActions: ticketActions,
		getTicket:     getTicket,
	}
}

// GetTicket handles ticket retrieval requests
func (h *TicketHandlers) GetTicket(w http.ResponseWriter, r *http.Request) {
	response, err := h.getTicket.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, response)
}

// AcceptTicket commits the restaurant to a ready-by time
func (h *TicketHandlers) AcceptTicket(w http.ResponseWriter, r *http.Request) {
	var cmd application.TicketActionCommand
	if err := httpapi.Decode(r, &cmd); err != nil {
		httpapi.WriteError(w, err)
		return
	}
	cmd.TicketID = chi.URLParam(r, "id")
	cmd.Action = application.ActionAccept

	h.execute(w, r, &cmd)
}

// TicketAction handles preparing, ready and pickedup
func (h *TicketHandlers) TicketAction(w http.ResponseWriter, r *http.Request) {
	h.execute(w, r, &application.TicketActionCommand{
		TicketID: chi.URLParam(r, "id"),
		Action:   chi.URLParam(r, "action"),
	})
}

func (h *TicketHandlers) execute(w http.ResponseWriter, r *http.Request, cmd *application.TicketActionCommand) {
	response, err := h.ticketActions.Execute(r.Context(), cmd)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, response)
}

// RegisterRoutes registers ticket routes
func (h *TicketHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/tickets", func(r chi.Router) {
		r.Get("/{id}", h.GetTicket)
		r.Post("/{id}/accept", h.AcceptTicket)
		r.Post("/{id}/{action}", h.TicketAction)
	})
}
