package consentstore

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/kemiadeola/openbanking-pisp/internal/application"
	"github.com/kemiadeola/openbanking-pisp/internal/config"
	"github.com/kemiadeola/openbanking-pisp/internal/domain"
)

// RetryClient wraps the store client with exponential backoff. Only
// transport failures and 5xx answers are retried; domain outcomes such as
// not-found or a consume conflict pass straight through.
type RetryClient struct {
	inner      application.ConsentStoreClient
	baseDelay  time.Duration
	maxRetries int
}

func NewRetryClient(inner application.ConsentStoreClient, cfg config.RetryConfig) application.ConsentStoreClient {
	return &RetryClient{
		inner:      inner,
		baseDelay:  time.Duration(cfg.BaseDelay) * time.Second,
		maxRetries: int(cfg.MaxRetries),
	}
}

func (r *RetryClient) CreateConsent(ctx context.Context, req application.ConsentRequest) (*domain.Consent, error) {
	return retry(r, ctx, func(ctx context.Context) (*domain.Consent, error) {
		return r.inner.CreateConsent(ctx, req)
	})
}

func (r *RetryClient) GetConsent(ctx context.Context, id, apiClientID string) (*domain.Consent, error) {
	return retry(r, ctx, func(ctx context.Context) (*domain.Consent, error) {
		return r.inner.GetConsent(ctx, id, apiClientID)
	})
}

func (r *RetryClient) ConsumeConsent(ctx context.Context, id, apiClientID string) error {
	_, err := retry(r, ctx, func(ctx context.Context) (*struct{}, error) {
		return &struct{}{}, r.inner.ConsumeConsent(ctx, id, apiClientID)
	})
	return err
}

func retry[T any](r *RetryClient, ctx context.Context, operation func(ctx context.Context) (*T, error)) (*T, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := operation(ctx)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}

		if attempt < r.maxRetries-1 {
			time.Sleep(r.backoff(attempt))
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	if storeErr, ok := IsStoreError(err); ok {
		return storeErr.IsRetryable()
	}

	switch {
	case errors.Is(err, domain.ErrConsentNotFound),
		errors.Is(err, domain.ErrPermissionDenied),
		errors.Is(err, domain.ErrConsentNotAuthorised):
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	return true
}

func (r *RetryClient) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)

	jitter := time.Duration(rand.Intn(1000)) * time.Millisecond

	return base + jitter
}
