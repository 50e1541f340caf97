package consentstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kemiadeola/openbanking-pisp/internal/application"
	"github.com/kemiadeola/openbanking-pisp/internal/config"
	"github.com/kemiadeola/openbanking-pisp/internal/domain"
)

const clientIDHeader = "x-api-client-id"

// HTTPClient talks to the consent store service, the system of record for
// consent state. Status transitions happen at the store; this client only
// requests them and translates the store's answers into domain errors.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.ConsentStoreConfig) application.ConsentStoreClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout * time.Second,
		},
	}
}

func (c *HTTPClient) CreateConsent(ctx context.Context, req application.ConsentRequest) (*domain.Consent, error) {
	url := fmt.Sprintf("%s/internal/consents", c.baseURL)
	dto, err := sendRequest[createConsentRequest, consentDTO](c, ctx, http.MethodPost, url, toCreateRequest(req), req.APIClientID)
	if err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}

func (c *HTTPClient) GetConsent(ctx context.Context, id, apiClientID string) (*domain.Consent, error) {
	url := fmt.Sprintf("%s/internal/consents/%s", c.baseURL, id)
	dto, err := sendRequest[any, consentDTO](c, ctx, http.MethodGet, url, nil, apiClientID)
	if err != nil {
		return nil, translateError(err)
	}
	return dto.toDomain(), nil
}

func (c *HTTPClient) ConsumeConsent(ctx context.Context, id, apiClientID string) error {
	url := fmt.Sprintf("%s/internal/consents/%s/consume", c.baseURL, id)
	_, err := sendRequest[any, consentDTO](c, ctx, http.MethodPost, url, nil, apiClientID)
	if err != nil {
		return translateError(err)
	}
	return nil
}

// translateError maps store responses onto domain sentinels so callers never
// see HTTP status codes. A consume conflict carries the consent's current
// status and becomes a not-authorised error naming it.
func translateError(err error) error {
	storeErr, ok := IsStoreError(err)
	if !ok {
		return err
	}
	switch storeErr.StatusCode {
	case http.StatusNotFound:
		return domain.ErrConsentNotFound
	case http.StatusForbidden:
		return domain.ErrPermissionDenied
	case http.StatusConflict:
		return domain.NewNotAuthorisedError(domain.ConsentStatus(storeErr.CurrentStatus))
	default:
		return err
	}
}

func sendRequest[Req any, Resp any](c *HTTPClient, ctx context.Context, method, url string, reqBody *Req, apiClientID string) (*Resp, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("error marshalling json: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if apiClientID != "" {
		httpReq.Header.Set(clientIDHeader, apiClientID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		var storeErrResp storeErrorResponse
		if err := json.Unmarshal(body, &storeErrResp); err != nil {
			return nil, fmt.Errorf("consent store returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, &StoreError{
			Code:          storeErrResp.Err,
			Message:       storeErrResp.Message,
			CurrentStatus: storeErrResp.CurrentStatus,
			StatusCode:    resp.StatusCode,
		}
	}

	var storeResp Resp
	if err := json.NewDecoder(resp.Body).Decode(&storeResp); err != nil {
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}

	return &storeResp, nil
}
