package handlers

import (
	"net/http"

	"github.com/kemiadeola/openbanking-pisp/internal/application/services"
	"github.com/kemiadeola/openbanking-pisp/internal/domain"
	"github.com/kemiadeola/openbanking-pisp/internal/interfaces/rest"
)

// ConsentRequest is the write shape for consent creation, shared by all
// product families. Family-specific rules live in the validators, not here.
type ConsentRequest struct {
	Data struct {
		Initiation        domain.Initiation `json:"Initiation"`
		ReadRefundAccount string            `json:"ReadRefundAccount,omitempty"`
	} `json:"Data"`
	Risk domain.Risk `json:"Risk"`
}

func (h *Handlers) HandleCreateConsent(family domain.ProductFamily) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apiClientID, err := rest.ClientID(r)
		if err != nil {
			rest.WriteError(w, err, h.logger)
			return
		}

		var req ConsentRequest
		if err := rest.DecodeJSON(r, &req, h.logger); err != nil {
			rest.WriteError(w, err, h.logger)
			return
		}

		resp, err := h.consentService.CreateConsent(r.Context(), services.CreateConsentCommand{
			ProductFamily:     family,
			APIClientID:       apiClientID,
			Initiation:        req.Data.Initiation,
			Risk:              req.Risk,
			ReadRefundAccount: req.Data.ReadRefundAccount,
		})
		if err != nil {
			rest.WriteError(w, err, h.logger)
			return
		}

		rest.RespondWithJSON(w, http.StatusCreated, resp)
	}
}

func (h *Handlers) HandleGetConsent(w http.ResponseWriter, r *http.Request) {
	apiClientID, err := rest.ClientID(r)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	resp, err := h.consentService.GetConsent(r.Context(), r.PathValue("consentId"), apiClientID)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *Handlers) HandleFundsConfirmation(w http.ResponseWriter, r *http.Request) {
	apiClientID, err := rest.ClientID(r)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	resp, err := h.fundsService.ConfirmFunds(r.Context(), r.PathValue("consentId"), apiClientID)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.RespondWithJSON(w, http.StatusOK, resp)
}
