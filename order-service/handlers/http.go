package handlers

import (
	"net/http"

	"github.com/ftgo/order-system/order-service/application"
	"github.com/ftgo/order-system/shared/httpapi"
	"github.com/go-chi/chi/v5"
)

// OrderHandlers contains order HTTP handlers
type OrderHandlers struct {
	createOrder *application.CreateOrder
	cancelOrder *application.CancelOrder
	reviseOrder *application.ReviseOrder
	getOrder    *application.GetOrder
	getSaga     *application.GetSaga
}

// NewOrderHandlers creates new order handlers
func NewOrderHandlers(
	createOrder *application.CreateOrder,
	cancelOrder *application.CancelOrder,
	reviseOrder *application.ReviseOrder,
	getOrder *application.GetOrder,
	getSaga *application.GetSaga,
) *OrderHandlers {
	return &OrderHandlers{
		createOrder: createOrder,
		cancelOrder: cancelOrder,
		reviseOrder: reviseOrder,
		getOrder:    getOrder,
		getSaga:     getSaga,
	}
}

// CreateOrder handles order creation requests
func (h *OrderHandlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var cmd application.CreateOrderCommand
	if err := httpapi.Decode(r, &cmd); err != nil {
		httpapi.WriteError(w, err)
		return
	}

	response, err := h.createOrder.Execute(r.Context(), &cmd)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusAccepted, response)
}

// GetOrder handles order retrieval requests
func (h *OrderHandlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	response, err := h.getOrder.Execute(r.Context(), &application.GetOrderQuery{
		OrderID: chi.URLParam(r, "id"),
	})
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, response)
}

// CancelOrder starts the cancellation of an approved order
func (h *OrderHandlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	response, err := h.cancelOrder.Execute(r.Context(), &application.CancelOrderCommand{
		OrderID: chi.URLParam(r, "id"),
	})
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusAccepted, response)
}

// ReviseOrder starts a revision of the line item quantities
func (h *OrderHandlers) ReviseOrder(w http.ResponseWriter, r *http.Request) {
	var cmd application.ReviseOrderCommand
	if err := httpapi.Decode(r, &cmd); err != nil {
		httpapi.WriteError(w, err)
		return
	}
	cmd.OrderID = chi.URLParam(r, "id")

	response, err := h.reviseOrder.Execute(r.Context(), &cmd)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusAccepted, response)
}

// GetSaga returns one saga instance
func (h *OrderHandlers) GetSaga(w http.ResponseWriter, r *http.Request) {
	response, err := h.getSaga.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, response)
}

// StuckSagas lists the instances awaiting manual intervention
func (h *OrderHandlers) StuckSagas(w http.ResponseWriter, r *http.Request) {
	response, err := h.getSaga.Stuck(r.Context())
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, response)
}

// RegisterRoutes registers order routes
func (h *OrderHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/{id}", h.GetOrder)
		r.Post("/{id}/cancel", h.CancelOrder)
		r.Post("/{id}/revise", h.ReviseOrder)
	})
	r.Route("/sagas", func(r chi.Router) {
		r.Get("/stuck", h.StuckSagas)
		r.Get("/{id}", h.GetSaga)
	})
}
