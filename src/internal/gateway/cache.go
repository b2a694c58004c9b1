package gateway

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/lexhub/caseflow/src/internal/model"
)

// Cached decorates a Gateway with a read-through cache over
// GetCaseDetails. Any write touching a case evicts its entry; list and
// subtask reads pass through untouched since their results change out
// from under us too often to be worth caching.
type Cached struct {
	inner Gateway
	cache *gocache.Cache
	log   *zap.Logger
}

func NewCached(inner Gateway, ttl time.Duration, logger *zap.Logger) *Cached {
	return &Cached{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
		log:   logger,
	}
}

func (c *Cached) GetCaseDetails(ctx context.Context, caseID string) (model.Case, *Failure) {
	if v, ok := c.cache.Get(caseID); ok {
		c.log.Debug("GetCaseDetails: cache hit", zap.String("case_id", caseID))
		return v.(model.Case).Clone(), nil
	}
	out, fail := c.inner.GetCaseDetails(ctx, caseID)
	if fail != nil {
		return model.Case{}, fail
	}
	c.cache.Set(caseID, out.Clone(), gocache.DefaultExpiration)
	return out, nil
}

func (c *Cached) CreateCase(ctx context.Context, draft model.Case) (model.Case, *Failure) {
	return c.inner.CreateCase(ctx, draft)
}

func (c *Cached) GetUserCases(ctx context.Context, userID, role string, limit, offset int) ([]model.Case, *Failure) {
	return c.inner.GetUserCases(ctx, userID, role, limit, offset)
}

func (c *Cached) UpdateCase(ctx context.Context, caseID string, patch model.CasePatch) (model.Case, *Failure) {
	c.cache.Delete(caseID)
	return c.inner.UpdateCase(ctx, caseID, patch)
}

func (c *Cached) UpdateCaseStatus(ctx context.Context, caseID string, status model.CaseStatus, note string) (model.TimelineEvent, *Failure) {
	c.cache.Delete(caseID)
	return c.inner.UpdateCaseStatus(ctx, caseID, status, note)
}

func (c *Cached) AddCaseDocument(ctx context.Context, caseID string, doc model.Document) (model.Document, *Failure) {
	c.cache.Delete(caseID)
	return c.inner.AddCaseDocument(ctx, caseID, doc)
}

func (c *Cached) DeleteCase(ctx context.Context, caseID string) *Failure {
	c.cache.Delete(caseID)
	return c.inner.DeleteCase(ctx, caseID)
}

func (c *Cached) GetSubtasks(ctx context.Context, caseID string) ([]model.Subtask, *Failure) {
	return c.inner.GetSubtasks(ctx, caseID)
}

func (c *Cached) CreateSubtask(ctx context.Context, caseID string, draft model.Subtask) (model.Subtask, *Failure) {
	c.cache.Delete(caseID)
	return c.inner.CreateSubtask(ctx, caseID, draft)
}

func (c *Cached) UpdateSubtask(ctx context.Context, caseID, subtaskID string, patch model.SubtaskPatch) (model.Subtask, *Failure) {
	c.cache.Delete(caseID)
	return c.inner.UpdateSubtask(ctx, caseID, subtaskID, patch)
}

func (c *Cached) ToggleSubtaskStatus(ctx context.Context, caseID, subtaskID string, next model.SubtaskStatus) (model.Subtask, *Failure) {
	c.cache.Delete(caseID)
	return c.inner.ToggleSubtaskStatus(ctx, caseID, subtaskID, next)
}

func (c *Cached) DeleteSubtask(ctx context.Context, caseID, subtaskID string) *Failure {
	c.cache.Delete(caseID)
	return c.inner.DeleteSubtask(ctx, caseID, subtaskID)
}
