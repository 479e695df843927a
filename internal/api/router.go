/**
 * @description
 * This file sets up the HTTP router for the ramp-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RampRoutes creates and returns the router for the ramp service.
func RampRoutes(h *RampHandlers, sessionSecret string, clientStrategy ClientAuthStrategy, clientAPIKey string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		r.Use(SessionAuthMiddleware(sessionSecret))
		r.Use(ClientAuthMiddleware(clientStrategy, clientAPIKey))

		// Transfer initiation and status endpoints
		r.Post("/transfer/in", h.TransferInHandler)
		r.Post("/transfer/out", h.TransferOutHandler)
		r.Get("/transfer/{transferId}/status", h.TransferStatusHandler)

		// Fiat account management endpoints
		r.Post("/accounts", h.RegisterFiatAccountHandler)
		r.Get("/accounts", h.ListFiatAccountsHandler)
		r.Delete("/accounts/{fiatAccountId}", h.DeleteFiatAccountHandler)

		// KYC endpoints
		r.Post("/kyc/{kycSchema}", h.SubmitKycHandler)
		r.Get("/kyc/{kycSchema}/status", h.KycStatusHandler)
		r.Delete("/kyc/{kycSchema}", h.DeleteKycHandler)
	})

	return r
}
