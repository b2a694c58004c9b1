package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lexhub/caseflow/src/internal/model"
)

// countingGateway wraps Memory and counts detail reads that reach it.
type countingGateway struct {
	*Memory
	detailReads int
}

func (c *countingGateway) GetCaseDetails(ctx context.Context, caseID string) (model.Case, *Failure) {
	c.detailReads++
	return c.Memory.GetCaseDetails(ctx, caseID)
}

func TestCachedServesRepeatReadsFromCache(t *testing.T) {
	inner := &countingGateway{Memory: NewMemory()}
	cached := NewCached(inner, time.Minute, zap.NewNop())
	ctx := context.Background()

	c, fail := cached.CreateCase(ctx, model.Case{Title: "Case", LawyerID: "l1"})
	require.Nil(t, fail)

	for i := 0; i < 3; i++ {
		got, fail := cached.GetCaseDetails(ctx, c.ID)
		require.Nil(t, fail)
		assert.Equal(t, c.ID, got.ID)
	}
	assert.Equal(t, 1, inner.detailReads, "repeat reads served from cache")
}

func TestCachedInvalidatesOnWrite(t *testing.T) {
	inner := &countingGateway{Memory: NewMemory()}
	cached := NewCached(inner, time.Minute, zap.NewNop())
	ctx := context.Background()

	c, fail := cached.CreateCase(ctx, model.Case{Title: "Case", LawyerID: "l1"})
	require.Nil(t, fail)

	_, fail = cached.GetCaseDetails(ctx, c.ID)
	require.Nil(t, fail)
	require.Equal(t, 1, inner.detailReads)

	_, fail = cached.UpdateCaseStatus(ctx, c.ID, model.CaseStatusReview, "in review")
	require.Nil(t, fail)

	got, fail := cached.GetCaseDetails(ctx, c.ID)
	require.Nil(t, fail)
	assert.Equal(t, 2, inner.detailReads, "write evicted the cached entry")
	assert.Equal(t, model.CaseStatusReview, got.Status)
	require.Len(t, got.Timeline, 1)
}

func TestCachedMissesDoNotCacheFailures(t *testing.T) {
	inner := &countingGateway{Memory: NewMemory()}
	cached := NewCached(inner, time.Minute, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, fail := cached.GetCaseDetails(ctx, "missing")
		require.NotNil(t, fail)
		assert.Equal(t, KindNotFound, fail.Kind)
	}
	assert.Equal(t, 2, inner.detailReads)
}

func TestCachedReturnsIsolatedCopies(t *testing.T) {
	inner := &countingGateway{Memory: NewMemory()}
	cached := NewCached(inner, time.Minute, zap.NewNop())
	ctx := context.Background()

	c, fail := cached.CreateCase(ctx, model.Case{Title: "Case", LawyerID: "l1"})
	require.Nil(t, fail)

	first, fail := cached.GetCaseDetails(ctx, c.ID)
	require.Nil(t, fail)
	first.Title = "mutated"

	second, fail := cached.GetCaseDetails(ctx, c.ID)
	require.Nil(t, fail)
	assert.Equal(t, "Case", second.Title)
}
