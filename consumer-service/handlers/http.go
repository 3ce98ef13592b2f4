package handlers

import (
	"net/http"

	"github.com/ftgo/order-system/consumer-service/application"
	"github.com/ftgo/order-system/shared/httpapi"
	"github.com/go-chi/chi/v5"
)

// ConsumerHandlers contains consumer HTTP handlers
type ConsumerHandlers struct {
	registerConsumer *application.RegisterConsumer
	getConsumer      *application.GetConsumer
	suspendConsumer  *application.SuspendConsumer
}

// NewConsumerHandlers creates new consumer handlers
func NewConsumerHandlers(
	registerConsumer *application.RegisterConsumer,
	getConsumer *application.GetConsumer,
	suspendConsumer *application.SuspendConsumer,
) *ConsumerHandlers {
	return &ConsumerHandlers{
		registerConsumer: registerConsumer,
		getConsumer:      getConsumer,
		suspendConsumer:  suspendConsumer,
	}
}

// RegisterConsumer handles consumer registration requests
func (h *ConsumerHandlers) RegisterConsumer(w http.ResponseWriter, r *http.Request) {
	var cmd application.RegisterConsumerCommand
	if err := httpapi.Decode(r, &cmd); err != nil {
		httpapi.WriteError(w, err)
		return
	}

	response, err := h.registerConsumer.Execute(r.Context(), &cmd)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusCreated, response)
}

// GetConsumer handles consumer retrieval requests
func (h *ConsumerHandlers) GetConsumer(w http.ResponseWriter, r *http.Request) {
	response, err := h.getConsumer.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, response)
}

// SuspendConsumer handles consumer suspension requests
func (h *ConsumerHandlers) SuspendConsumer(w http.ResponseWriter, r *http.Request) {
	response, err := h.suspendConsumer.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, response)
}

// RegisterRoutes registers consumer routes
func (h *ConsumerHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/consumers", func(r chi.Router) {
		r.Post("/", h.RegisterConsumer)
		r.Get("/{id}", h.GetConsumer)
		r.Post("/{id}/suspend", h.SuspendConsumer)
	})
}
