/**
 * @description
 * HTTP handlers for KYC submissions. The schema name arrives as a path
 * parameter; only PersonalDataAndDocuments is supported today, so anything
 * else is rejected before the body is read.
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

func kycSchemaParam(r *http.Request) (domain.KycSchema, bool) {
	schema := domain.KycSchema(chi.URLParam(r, "kycSchema"))
	return schema, schema == domain.KycSchemaPersonalDataAndDocuments
}

// SubmitKycHandler handles POST /kyc/{kycSchema}.
func (h *RampHandlers) SubmitKycHandler(w http.ResponseWriter, r *http.Request) {
	owner, ok := GetOwnerAddress(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, ErrorUnauthorized)
		return
	}

	schema, ok := kycSchemaParam(r)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, ErrorInvalidParameters)
		return
	}

	var submission domain.KycSubmission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		writeError(w, http.StatusUnprocessableEntity, ErrorInvalidParameters)
		return
	}
	if submission.FirstName == "" || submission.LastName == "" || submission.PhoneNumber == "" {
		writeError(w, http.StatusUnprocessableEntity, ErrorInvalidParameters)
		return
	}

	record, err := h.service.SubmitKyc(r.Context(), owner, schema, submission)
	if err != nil {
		if errors.Is(err, store.ErrKycRecordExists) {
			writeError(w, http.StatusConflict, ErrorResourceExists)
			return
		}
		log.Printf("level=error component=api endpoint=kyc outcome=failed schema=%s err=%v", schema, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"kycStatus": record.Status})
}

// KycStatusHandler handles GET /kyc/{kycSchema}/status.
func (h *RampHandlers) KycStatusHandler(w http.ResponseWriter, r *http.Request) {
	owner, ok := GetOwnerAddress(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, ErrorUnauthorized)
		return
	}

	schema, ok := kycSchemaParam(r)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, ErrorInvalidParameters)
		return
	}

	status, err := h.service.GetKycStatus(r.Context(), owner, schema)
	if err != nil {
		if errors.Is(err, store.ErrKycRecordNotFound) {
			writeError(w, http.StatusNotFound, ErrorResourceNotFound)
			return
		}
		log.Printf("level=error component=api endpoint=kyc outcome=failed schema=%s err=%v", schema, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"kycStatus": status})
}

// DeleteKycHandler handles DELETE /kyc/{kycSchema}.
func (h *RampHandlers) DeleteKycHandler(w http.ResponseWriter, r *http.Request) {
	owner, ok := GetOwnerAddress(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, ErrorUnauthorized)
		return
	}

	schema, ok := kycSchemaParam(r)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, ErrorInvalidParameters)
		return
	}

	if err := h.service.RemoveKyc(r.Context(), owner, schema); err != nil {
		if errors.Is(err, store.ErrKycRecordNotFound) {
			writeError(w, http.StatusNotFound, ErrorResourceNotFound)
			return
		}
		log.Printf("level=error component=api endpoint=kyc outcome=failed schema=%s err=%v", schema, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
