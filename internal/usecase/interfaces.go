package usecase

import (
	"context"
	"time"

	"github.com/iho/duebook/internal/domain"
)

// ObligationRepository defines data access for obligation rows.
type ObligationRepository interface {
	// List returns every stored row regardless of month.
	List(ctx context.Context) ([]*domain.ObligationRow, error)
	GetByID(ctx context.Context, id string) (*domain.ObligationRow, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.ObligationRow, error)
	// FindMaterialized returns the concrete row materialized from templateID
	// in month, or domain.ErrObligationNotFound.
	FindMaterialized(ctx context.Context, tx Transaction, templateID string, month domain.YearMonth) (*domain.ObligationRow, error)
	// Create inserts row. A second row for the same template month fails with
	// domain.ErrAlreadyMaterialized.
	Create(ctx context.Context, tx Transaction, row *domain.ObligationRow) error
	Update(ctx context.Context, tx Transaction, row *domain.ObligationRow) error
	Delete(ctx context.Context, tx Transaction, id string) error
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	// Get returns nil, nil when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release removes the key after a failed request.
	Release(ctx context.Context, key string) error
}
