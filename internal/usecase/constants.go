package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// SnapshotCacheKey holds the serialized row set served to projections.
	SnapshotCacheKey = "obligations:snapshot"

	// DefaultSnapshotTTL bounds how long a cached snapshot may be served.
	DefaultSnapshotTTL = 5 * time.Minute

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour
)
