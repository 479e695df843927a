/**
 * @description
 * This file contains the HTTP handlers for the transfer endpoints. Handlers are
 * responsible for parsing incoming requests, calling the appropriate methods on
 * the application service, and writing the HTTP response. They act as the bridge
 * between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/duniapay/ramp-service/internal/app"
	"github.com/duniapay/ramp-service/internal/domain"
	"github.com/duniapay/ramp-service/internal/store"
)

// idempotencyKeyHeader is the header transfer initiation is gated on. The key
// is supplied by the caller, never generated server-side.
const idempotencyKeyHeader = "idempotency-key"

// RampHandlers holds the application service that handlers will use.
type RampHandlers struct {
	service *app.Service
}

// NewRampHandlers creates a new instance of RampHandlers.
func NewRampHandlers(service *app.Service) *RampHandlers {
	return &RampHandlers{service: service}
}

// TransferInHandler handles fiat-to-crypto transfer initiation.
func (h *RampHandlers) TransferInHandler(w http.ResponseWriter, r *http.Request) {
	h.initiateTransfer(w, r, domain.TransferTypeIn)
}

// TransferOutHandler handles crypto-to-fiat transfer initiation.
func (h *RampHandlers) TransferOutHandler(w http.ResponseWriter, r *http.Request) {
	h.initiateTransfer(w, r, domain.TransferTypeOut)
}

func (h *RampHandlers) initiateTransfer(w http.ResponseWriter, r *http.Request, direction domain.TransferType) {
	idempotencyKey := r.Header.Get(idempotencyKeyHeader)
	if idempotencyKey == "" {
		log.Printf("level=warn component=api endpoint=transfer outcome=reject reason=missing_idempotency_key direction=%s", direction)
		writeError(w, http.StatusUnprocessableEntity, ErrorInvalidParameters)
		return
	}

	var req domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=transfer outcome=reject reason=invalid_json direction=%s err=%v", direction, err)
		writeError(w, http.StatusUnprocessableEntity, ErrorInvalidParameters)
		return
	}
	if req.QuoteID == "" || req.FiatAccountID == "" {
		writeError(w, http.StatusUnprocessableEntity, ErrorInvalidParameters)
		return
	}

	result, err := h.service.InitiateTransfer(r.Context(), direction, idempotencyKey, req)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMissingIdempotencyKey):
			writeError(w, http.StatusUnprocessableEntity, ErrorInvalidParameters)
		case errors.Is(err, store.ErrTransferExists):
			writeError(w, http.StatusConflict, ErrorResourceExists)
		case errors.Is(err, store.ErrQuoteNotFound), errors.Is(err, store.ErrFiatAccountNotFound):
			writeError(w, http.StatusNotFound, ErrorResourceNotFound)
		case errors.Is(err, app.ErrQuoteExpired):
			writeError(w, http.StatusBadRequest, ErrorQuoteExpired)
		case errors.Is(err, app.ErrFeeEntryMissing):
			writeError(w, http.StatusUnprocessableEntity, ErrorInvalidParameters)
		default:
			log.Printf("level=error component=api endpoint=transfer outcome=failed direction=%s err=%v", direction, err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// TransferStatusHandler returns the full status read-model for a transfer.
func (h *RampHandlers) TransferStatusHandler(w http.ResponseWriter, r *http.Request) {
	transferID := chi.URLParam(r, "transferId")
	if transferID == "" {
		writeError(w, http.StatusUnprocessableEntity, ErrorInvalidParameters)
		return
	}

	status, err := h.service.GetTransferStatus(r.Context(), transferID)
	if err != nil {
		if errors.Is(err, store.ErrTransferNotFound) {
			writeError(w, http.StatusNotFound, ErrorResourceNotFound)
			return
		}
		log.Printf("level=error component=api endpoint=transfer_status outcome=failed transfer_id=%s err=%v", transferID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, status)
}
