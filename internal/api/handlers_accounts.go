/**
 * @description
 * HTTP handlers for fiat account management. Registration bodies carry a
 * `fiatAccountSchema` discriminator plus a schema-shaped `data` object; the
 * discriminator is resolved to a typed payload before the service sees it.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/duniapay/ramp-service/internal/domain"
	"github.com/duniapay/ramp-service/internal/store"
)

type registerFiatAccountRequest struct {
	FiatAccountSchema domain.FiatAccountSchema `json:"fiatAccountSchema"`
	Data              json.RawMessage          `json:"data"`
}

// RegisterFiatAccountHandler handles POST /accounts.
func (h *RampHandlers) RegisterFiatAccountHandler(w http.ResponseWriter, r *http.Request) {
	owner, ok := GetOwnerAddress(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, ErrorUnauthorized)
		return
	}

	var req registerFiatAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, ErrorInvalidParameters)
		return
	}

	data, err := domain.DecodeFiatAccountData(req.FiatAccountSchema, req.Data)
	if err != nil {
		log.Printf("level=warn component=api endpoint=accounts outcome=reject reason=bad_schema err=%v", err)
		writeError(w, http.StatusUnprocessableEntity, ErrorInvalidParameters)
		return
	}

	account, err := h.service.RegisterFiatAccount(r.Context(), owner, data)
	if err != nil {
		if errors.Is(err, store.ErrFiatAccountExists) {
			writeError(w, http.StatusConflict, ErrorResourceExists)
			return
		}
		log.Printf("level=error component=api endpoint=accounts outcome=failed err=%v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// ListFiatAccountsHandler handles GET /accounts.
func (h *RampHandlers) ListFiatAccountsHandler(w http.ResponseWriter, r *http.Request) {
	owner, ok := GetOwnerAddress(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, ErrorUnauthorized)
		return
	}

	accounts, err := h.service.ListFiatAccounts(r.Context(), owner)
	if err != nil {
		log.Printf("level=error component=api endpoint=accounts outcome=failed err=%v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if accounts == nil {
		accounts = []domain.FiatAccount{}
	}

	writeJSON(w, http.StatusOK, accounts)
}

// DeleteFiatAccountHandler handles DELETE /accounts/{fiatAccountId}.
func (h *RampHandlers) DeleteFiatAccountHandler(w http.ResponseWriter, r *http.Request) {
	owner, ok := GetOwnerAddress(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, ErrorUnauthorized)
		return
	}

	accountID := chi.URLParam(r, "fiatAccountId")
	if accountID == "" {
		writeError(w, http.StatusUnprocessableEntity, ErrorInvalidParameters)
		return
	}

	if err := h.service.RemoveFiatAccount(r.Context(), accountID, owner); err != nil {
		if errors.Is(err, store.ErrFiatAccountNotFound) {
			writeError(w, http.StatusNotFound, ErrorResourceNotFound)
			return
		}
		log.Printf("level=error component=api endpoint=accounts outcome=failed fiat_account_id=%s err=%v", accountID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
