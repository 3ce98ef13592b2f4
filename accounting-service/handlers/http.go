package handlers

import (
	"net/http"

	"github.com/ftgo/order-system/accounting-service/application"
	"github.com/ftgo/order-system/shared/httpapi"
	"github.com/go-chi/chi/v5"
)

// AccountHandlers contains account HTTP handlers
type AccountHandlers struct {
	getAccount       *application.GetAccount
	configureAccount *application.ConfigureAccount
}

// NewAccountHandlers creates new account handlers
func NewAccountHandlers(getAccount *application.GetAccount, configureAccount *application.ConfigureAccount) *AccountHandlers {
	return &AccountHandlers{
		getAccount:       getAccount,
		configureAccount: configureAccount,
	}
}

// GetAccount handles account retrieval requests
func (h *AccountHandlers) GetAccount(w http.ResponseWriter, r *http.Request) {
	response, err := h.getAccount.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, response)
}

// ConfigureAccount changes the status and authorization limit
func (h *AccountHandlers) ConfigureAccount(w http.ResponseWriter, r *http.Request) {
	var cmd application.ConfigureAccountCommand
	if err := httpapi.Decode(r, &cmd); err != nil {
		httpapi.WriteError(w, err)
		return
	}
	cmd.AccountID = chi.URLParam(r, "id")

	response, err := h.configureAccount.Execute(r.Context(), &cmd)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, response)
}

// RegisterRoutes registers account routes
func (h *AccountHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Get("/{id}", h.GetAccount)
		r.Put("/{id}", h.ConfigureAccount)
	})
}
