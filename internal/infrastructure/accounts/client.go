// Package accounts is the client for the accounts service, which owns
// debtor account records and balance checks.
package accounts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kemiadeola/openbanking-pisp/internal/config"
	"github.com/kemiadeola/openbanking-pisp/internal/domain"
)

// HTTPClient implements both account lookup and funds-availability checks;
// the accounts service serves both from the same account records.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.AccountsConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout * time.Second,
		},
	}
}

type accountDTO struct {
	AccountID               string  `json:"accountId"`
	SchemeName              string  `json:"schemeName"`
	Identification          string  `json:"identification"`
	Name                    string  `json:"name"`
	SecondaryIdentification *string `json:"secondaryIdentification,omitempty"`
}

type fundsRequest struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type fundsResponse struct {
	FundsAvailable bool `json:"fundsAvailable"`
}

func (c *HTTPClient) ByAccountID(ctx context.Context, id string) (*domain.Account, error) {
	url := fmt.Sprintf("%s/internal/accounts/%s", c.baseURL, id)
	var dto accountDTO
	if err := c.do(ctx, http.MethodGet, url, nil, &dto); err != nil {
		return nil, err
	}
	return &domain.Account{
		ID:                      dto.AccountID,
		SchemeName:              dto.SchemeName,
		Identification:          dto.Identification,
		Name:                    dto.Name,
		SecondaryIdentification: dto.SecondaryIdentification,
	}, nil
}

func (c *HTTPClient) IsFundsAvailable(ctx context.Context, accountID string, amount domain.Amount) (bool, error) {
	url := fmt.Sprintf("%s/internal/accounts/%s/funds-availability", c.baseURL, accountID)
	req := fundsRequest{Amount: amount.Amount, Currency: amount.Currency}
	var resp fundsResponse
	if err := c.do(ctx, http.MethodPost, url, &req, &resp); err != nil {
		return false, err
	}
	return resp.FundsAvailable, nil
}

func (c *HTTPClient) do(ctx context.Context, method, url string, reqBody, respBody any) error {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("error marshalling json: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("accounts service returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("error decoding json response: %w", err)
	}
	return nil
}
