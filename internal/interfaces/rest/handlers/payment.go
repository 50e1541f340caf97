package handlers

import (
	"net/http"

	"github.com/kemiadeola/openbanking-pisp/internal/application/services"
	"github.com/kemiadeola/openbanking-pisp/internal/domain"
	"github.com/kemiadeola/openbanking-pisp/internal/interfaces/rest"
)

// PaymentRequest is the write shape for payment submission. The consent id
// inside Data decides the product family; the URL only has to agree on the
// resource.
type PaymentRequest struct {
	Data struct {
		ConsentID  string            `json:"ConsentId"`
		Initiation domain.Initiation `json:"Initiation"`
	} `json:"Data"`
	Risk domain.Risk `json:"Risk"`
}

func (h *Handlers) HandleCreatePayment(w http.ResponseWriter, r *http.Request) {
	apiClientID, err := rest.ClientID(r)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	idemKey, err := rest.IdempotencyKey(r)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	var req PaymentRequest
	if err := rest.DecodeJSON(r, &req, h.logger); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	result, err := h.submissionService.Submit(r.Context(), services.SubmitCommand{
		ConsentID:      req.Data.ConsentID,
		APIClientID:    apiClientID,
		IdempotencyKey: idemKey,
		Initiation:     req.Data.Initiation,
		Risk:           req.Risk,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.RespondRaw(w, result.StatusCode, result.Body)
}

func (h *Handlers) HandleGetPayment(w http.ResponseWriter, r *http.Request) {
	apiClientID, err := rest.ClientID(r)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	resp, err := h.submissionService.GetSubmission(r.Context(), r.PathValue("paymentId"), apiClientID)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *Handlers) HandleGetPaymentDetails(w http.ResponseWriter, r *http.Request) {
	apiClientID, err := rest.ClientID(r)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	resp, err := h.submissionService.GetSubmissionDetails(r.Context(), r.PathValue("paymentId"), apiClientID)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.RespondWithJSON(w, http.StatusOK, resp)
}
