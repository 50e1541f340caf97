// Package idempotency deduplicates payment-creation requests. A key is
// scoped to (endpoint, api client, key); the first request under an unseen
// scope computes the result, every later request with the same payload
// replays the stored response byte for byte, and reuse of the key with a
// different payload is a client error.
package idempotency

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrKeyConflict signals the same key arriving with a different payload.
	ErrKeyConflict = errors.New("idempotency key reused with a different request payload")
	// ErrDuplicateKey is returned by a Store when a conditional insert loses
	// to an existing unexpired record.
	ErrDuplicateKey = errors.New("idempotency key already recorded")
	// ErrNotFound is returned by a Store when no unexpired record exists.
	ErrNotFound = errors.New("idempotency record not found")
	// ErrInFlightTimeout signals that another request holds the key but
	// never completed within the wait window.
	ErrInFlightTimeout = errors.New("timed out waiting for in-flight request with the same idempotency key")
)

// Scope identifies one idempotency key table entry.
type Scope struct {
	Endpoint    string
	APIClientID string
	Key         string
}

func (s Scope) String() string {
	return s.Endpoint + "|" + s.APIClientID + "|" + s.Key
}

// Record is the stored correlation between a key and a prior response.
// Response is nil while the first request is still in flight.
type Record struct {
	Endpoint    string
	APIClientID string
	Key         string
	RequestHash string
	Response    []byte
	StatusCode  int
	LockedAt    time.Time
	CompletedAt *time.Time
}

func (r *Record) IsComplete() bool {
	return r.Response != nil
}

// Store is the durable key table. Insert must be conditional: it fails with
// ErrDuplicateKey when a record locked at or after expiredBefore already
// holds the scope, and reclaims the scope when the existing record is older.
type Store interface {
	Insert(ctx context.Context, rec *Record, expiredBefore time.Time) error
	Find(ctx context.Context, scope Scope, since time.Time) (*Record, error)
	Complete(ctx context.Context, scope Scope, response []byte, statusCode int) error
	Delete(ctx context.Context, scope Scope) error
	DeleteExpired(ctx context.Context, before time.Time, limit int) (int, error)
}

// ComputeFn produces the response for a first-time request. It runs at most
// once per distinct (scope, payload).
type ComputeFn func(ctx context.Context) ([]byte, int, error)

// Outcome is what the coordinator hands back: either a freshly computed
// response or a verbatim replay of a prior one.
type Outcome struct {
	Response   []byte
	StatusCode int
	Replayed   bool
}

// Coordinator serializes requests racing on the same unseen key. In-process
// racers queue on a per-scope lock; cross-process racers are resolved by
// the store's conditional insert plus polling for the winner's result.
type Coordinator struct {
	store        Store
	retention    time.Duration
	pollInterval time.Duration
	waitTimeout  time.Duration

	mu    sync.Mutex
	locks map[string]*scopeLock
}

type scopeLock struct {
	sync.Mutex
	refs int
}

// Option tunes a Coordinator.
type Option func(*Coordinator)

func WithRetention(d time.Duration) Option {
	return func(c *Coordinator) { c.retention = d }
}

func WithWait(pollInterval, timeout time.Duration) Option {
	return func(c *Coordinator) {
		c.pollInterval = pollInterval
		c.waitTimeout = timeout
	}
}

func NewCoordinator(store Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:        store,
		retention:    24 * time.Hour,
		pollInterval: 100 * time.Millisecond,
		waitTimeout:  30 * time.Second,
		locks:        make(map[string]*scopeLock),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Retention returns the window after which a key behaves as unseen again.
func (c *Coordinator) Retention() time.Duration {
	return c.retention
}

// HashPayload fingerprints a request payload for key-reuse detection.
func HashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("%x", sum)
}

// Coordinate runs fn at most once per distinct (scope, payload). Replays
// return the stored response unchanged. A failed fn releases the key so a
// retry starts over from unseen.
func (c *Coordinator) Coordinate(ctx context.Context, scope Scope, payload []byte, fn ComputeFn) (*Outcome, error) {
	hash := HashPayload(payload)

	lock := c.acquire(scope)
	defer c.release(scope, lock)

	since := time.Now().Add(-c.retention)

	rec, err := c.store.Find(ctx, scope, since)
	switch {
	case err == nil:
		return c.resolveExisting(ctx, scope, rec, hash)
	case errors.Is(err, ErrNotFound):
		// First request under this scope.
	default:
		return nil, fmt.Errorf("idempotency lookup failed: %w", err)
	}

	insertErr := c.store.Insert(ctx, &Record{
		Endpoint:    scope.Endpoint,
		APIClientID: scope.APIClientID,
		Key:         scope.Key,
		RequestHash: hash,
		LockedAt:    time.Now(),
	}, since)
	if insertErr != nil {
		if errors.Is(insertErr, ErrDuplicateKey) {
			// Lost a cross-process race; defer to the winner's result.
			return c.waitForCompletion(ctx, scope, hash)
		}
		return nil, fmt.Errorf("idempotency insert failed: %w", insertErr)
	}

	response, statusCode, err := fn(ctx)
	if err != nil {
		// The request produced no response to replay; release the key so
		// the client can retry from scratch.
		if delErr := c.store.Delete(ctx, scope); delErr != nil {
			return nil, errors.Join(err, fmt.Errorf("idempotency release failed: %w", delErr))
		}
		return nil, err
	}

	if err := c.store.Complete(ctx, scope, response, statusCode); err != nil {
		return nil, fmt.Errorf("idempotency completion failed: %w", err)
	}

	return &Outcome{Response: response, StatusCode: statusCode}, nil
}

func (c *Coordinator) resolveExisting(ctx context.Context, scope Scope, rec *Record, hash string) (*Outcome, error) {
	if rec.RequestHash != hash {
		return nil, ErrKeyConflict
	}
	if rec.IsComplete() {
		return &Outcome{Response: rec.Response, StatusCode: rec.StatusCode, Replayed: true}, nil
	}
	return c.waitForCompletion(ctx, scope, hash)
}

// waitForCompletion polls until the request holding the key stores its
// response, then replays it.
func (c *Coordinator) waitForCompletion(ctx context.Context, scope Scope, hash string) (*Outcome, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	timeout := time.After(c.waitTimeout)
	since := time.Now().Add(-c.retention)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout:
			return nil, ErrInFlightTimeout
		case <-ticker.C:
			rec, err := c.store.Find(ctx, scope, since)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					// The holder failed and released the key; the caller
					// should retry rather than inherit the failure.
					return nil, ErrInFlightTimeout
				}
				return nil, fmt.Errorf("idempotency lookup failed: %w", err)
			}
			if rec.RequestHash != hash {
				return nil, ErrKeyConflict
			}
			if rec.IsComplete() {
				return &Outcome{Response: rec.Response, StatusCode: rec.StatusCode, Replayed: true}, nil
			}
		}
	}
}

func (c *Coordinator) acquire(scope Scope) *scopeLock {
	key := scope.String()
	c.mu.Lock()
	lock, ok := c.locks[key]
	if !ok {
		lock = &scopeLock{}
		c.locks[key] = lock
	}
	lock.refs++
	c.mu.Unlock()

	lock.Lock()
	return lock
}

func (c *Coordinator) release(scope Scope, lock *scopeLock) {
	lock.Unlock()

	c.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(c.locks, scope.String())
	}
	c.mu.Unlock()
}
