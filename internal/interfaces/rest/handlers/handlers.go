// Package handlers exposes the payment-initiation API. Every product family
// shares the same handler code; the route table decides which resources a
// family gets.
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kemiadeola/openbanking-pisp/internal/application/services"
)

type Handlers struct {
	consentService    *services.ConsentService
	submissionService *services.SubmissionService
	fundsService      *services.FundsConfirmationService
	basePath          string
	logger            *slog.Logger
}

func NewHandlers(
	consentService *services.ConsentService,
	submissionService *services.SubmissionService,
	fundsService *services.FundsConfirmationService,
	basePath string,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		consentService:    consentService,
		submissionService: submissionService,
		fundsService:      fundsService,
		basePath:          basePath,
		logger:            logger,
	}
}

// RegisterRoutes wires one set of consent and payment endpoints per product
// family onto the mux. The mount point must match the base path the
// services build their Links from.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	for _, route := range services.Routes() {
		consents := fmt.Sprintf("%s/%s", h.basePath, route.ConsentResource)
		payments := fmt.Sprintf("%s/%s", h.basePath, route.PaymentResource)

		mux.HandleFunc("POST "+consents, h.HandleCreateConsent(route.Family))
		mux.HandleFunc("GET "+consents+"/{consentId}", h.HandleGetConsent)

		if route.FundsConfirmation {
			mux.HandleFunc("GET "+consents+"/{consentId}/funds-confirmation", h.HandleFundsConfirmation)
		}

		mux.HandleFunc("POST "+payments, h.HandleCreatePayment)
		mux.HandleFunc("GET "+payments+"/{paymentId}", h.HandleGetPayment)
		mux.HandleFunc("GET "+payments+"/{paymentId}/payment-details", h.HandleGetPaymentDetails)
	}

	mux.HandleFunc("GET /health", h.HandleHealth)
}

func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
