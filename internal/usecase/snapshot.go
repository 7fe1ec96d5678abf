package usecase

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/duebook/internal/domain"
	"github.com/iho/duebook/internal/infrastructure/metrics"
)

// Snapshots serves the full row set, cached under SnapshotCacheKey.
// A nil cache reads straight from the store.
type Snapshots struct {
	repo    ObligationRepository
	cache   Cache
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  zerolog.Logger

	// generation advances on every Invalidate; a Load only caches what it
	// read within a single generation.
	generation atomic.Uint64
}

// NewSnapshots creates a new Snapshots.
func NewSnapshots(repo ObligationRepository, cache Cache, ttl time.Duration, metrics *metrics.Metrics, logger zerolog.Logger) *Snapshots {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &Snapshots{
		repo:    repo,
		cache:   cache,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

// Load returns every stored row. Cache failures fall back to the store.
func (s *Snapshots) Load(ctx context.Context) ([]*domain.ObligationRow, error) {
	if s.cache != nil {
		data, err := s.cache.Get(ctx, SnapshotCacheKey)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Msg("snapshot cache read failed")
		case data != nil:
			var rows []*domain.ObligationRow
			if err := json.Unmarshal(data, &rows); err == nil {
				s.count("hit")
				return rows, nil
			}
			s.logger.Warn().Msg("discarding undecodable snapshot")
		}
		s.count("miss")
	}

	generation := s.generation.Load()

	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.fill(ctx, rows, generation)
	}

	return rows, nil
}

// fill caches rows read during generation. Rows read across an Invalidate
// are never left in the cache.
func (s *Snapshots) fill(ctx context.Context, rows []*domain.ObligationRow, generation uint64) {
	if s.generation.Load() != generation {
		s.count("stale")
		return
	}

	data, err := json.Marshal(rows)
	if err == nil {
		err = s.cache.Set(ctx, SnapshotCacheKey, data, s.ttl)
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("snapshot cache write failed")
		return
	}

	if s.generation.Load() != generation {
		s.count("stale")
		if err := s.cache.Delete(ctx, SnapshotCacheKey); err != nil {
			s.logger.Error().Err(err).Msg("stale snapshot removal failed")
		}
	}
}

// Invalidate drops the cached snapshot. Called after every committed mutation.
// Other processes sharing the cache may still write a snapshot they read
// before the mutation; the snapshot TTL bounds how long it lives.
func (s *Snapshots) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.generation.Add(1)
	if err := s.cache.Delete(ctx, SnapshotCacheKey); err != nil {
		s.logger.Error().Err(err).Msg("snapshot cache invalidation failed")
	}
}

func (s *Snapshots) count(result string) {
	if s.metrics != nil {
		s.metrics.SnapshotCache.WithLabelValues(result).Inc()
	}
}
