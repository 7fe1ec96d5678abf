package postgres

import (
	"context"
	"time"

	"github.com/iho/duebook/internal/domain"
	"github.com/iho/duebook/internal/usecase"
)

// NullOutboxRepository discards events. It backs stores without an outbox
// table and deployments that run without a broker.
type NullOutboxRepository struct{}

// NewNullOutboxRepository creates a new NullOutboxRepository.
func NewNullOutboxRepository() *NullOutboxRepository {
	return &NullOutboxRepository{}
}

func (r *NullOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	return nil
}

func (r *NullOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	return nil, nil
}

func (r *NullOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	return nil
}

func (r *NullOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return nil
}

var (
	_ usecase.OutboxRepository     = (*NullOutboxRepository)(nil)
	_ usecase.OutboxRepository     = (*OutboxRepository)(nil)
	_ usecase.ObligationRepository = (*ObligationRepository)(nil)
	_ usecase.TransactionManager   = (*TxManager)(nil)
	_ usecase.Retrier              = (*Retrier)(nil)
	_ usecase.IDGenerator          = (*ULIDGenerator)(nil)
)
