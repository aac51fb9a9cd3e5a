package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/answer-key-service/internal/models"
	"github.com/SAP-F-2025/answer-key-service/internal/repositories"
)

// CachedAnswerKeySource serves answer-key reads from redis and drops the cached
// entries of a question when it is saved.
type CachedAnswerKeySource struct {
	next   repositories.AnswerKeyBackend
	cache  CacheService
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedAnswerKeySource(next repositories.AnswerKeyBackend, cache CacheService, ttl time.Duration, logger *slog.Logger) *CachedAnswerKeySource {
	if ttl <= 0 {
		ttl = FastCacheConfig.TTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedAnswerKeySource{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With("component", "cached_answer_key_source"),
	}
}

func paperKey(paperID string) string {
	return fmt.Sprintf("answer_key:paper:%s", paperID)
}

func studentKey(studentID, questionID string) string {
	return fmt.Sprintf("answer_key:student:%s:question:%s", studentID, questionID)
}

func (c *CachedAnswerKeySource) FetchByPaper(ctx context.Context, paperID string) ([]models.RawRecord, error) {
	var recs []models.RawRecord
	err := c.cache.CacheOrExecute(ctx, paperKey(paperID), &recs, c.ttl, func() (interface{}, error) {
		return c.next.FetchByPaper(ctx, paperID)
	})
	return recs, err
}

func (c *CachedAnswerKeySource) FetchStudentView(ctx context.Context, studentID, questionID string) ([]models.RawRecord, error) {
	var recs []models.RawRecord
	err := c.cache.CacheOrExecute(ctx, studentKey(studentID, questionID), &recs, c.ttl, func() (interface{}, error) {
		return c.next.FetchStudentView(ctx, studentID, questionID)
	})
	return recs, err
}

// SaveQuestion saves through the wrapped backend. The save request does not say
// which paper it belongs to, so every cached paper is dropped.
func (c *CachedAnswerKeySource) SaveQuestion(ctx context.Context, req *models.SaveQuestionRequest) error {
	if err := c.next.SaveQuestion(ctx, req); err != nil {
		return err
	}
	for _, pattern := range []string{
		"answer_key:paper:*",
		fmt.Sprintf("answer_key:student:*:question:%s", req.QuestionID),
	} {
		if err := c.cache.DeletePattern(ctx, pattern); err != nil {
			c.logger.WarnContext(ctx, "failed to invalidate answer key cache", "pattern", pattern, "error", err)
		}
	}
	return nil
}

// ReplacePaper forwards to the wrapped backend when it supports imports and
// drops the cached copy of the paper.
func (c *CachedAnswerKeySource) ReplacePaper(ctx context.Context, paperID string, nodes []*models.QuestionNode) error {
	importer, ok := c.next.(repositories.AnswerKeyImporter)
	if !ok {
		return repositories.ErrImportUnsupported
	}
	if err := importer.ReplacePaper(ctx, paperID, nodes); err != nil {
		return err
	}
	if err := c.cache.Delete(ctx, paperKey(paperID)); err != nil {
		c.logger.WarnContext(ctx, "failed to invalidate paper cache", "paper_id", paperID, "error", err)
	}
	return nil
}
