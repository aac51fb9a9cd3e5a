package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/answer-key-service/internal/matrix"
	"github.com/SAP-F-2025/answer-key-service/internal/repositories"
)

// CachedOutcomeSource caches the mapping list of a course until one of its cells
// is written.
type CachedOutcomeSource struct {
	next   repositories.OutcomeBackend
	cache  CacheService
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedOutcomeSource(next repositories.OutcomeBackend, cache CacheService, ttl time.Duration, logger *slog.Logger) *CachedOutcomeSource {
	if ttl <= 0 {
		ttl = MatrixCacheConfig.TTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedOutcomeSource{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With("component", "cached_outcome_source"),
	}
}

func courseKey(courseID string) string {
	return fmt.Sprintf("outcome_mapping:course:%s", courseID)
}

func (c *CachedOutcomeSource) FetchOutcomeMappings(ctx context.Context, courseID string) ([]matrix.Cell, error) {
	var cells []matrix.Cell
	err := c.cache.CacheOrExecute(ctx, courseKey(courseID), &cells, c.ttl, func() (interface{}, error) {
		return c.next.FetchOutcomeMappings(ctx, courseID)
	})
	return cells, err
}

func (c *CachedOutcomeSource) SaveOutcomeMapping(ctx context.Context, courseID string, cell matrix.Cell) error {
	if err := c.next.SaveOutcomeMapping(ctx, courseID, cell); err != nil {
		return err
	}
	if err := c.cache.Delete(ctx, courseKey(courseID)); err != nil {
		c.logger.WarnContext(ctx, "failed to invalidate outcome mapping cache", "course_id", courseID, "error", err)
	}
	return nil
}
