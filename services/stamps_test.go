package services

import (
	"context"
	"testing"
	"time"

	"github.com/Returnacy/chepizzadasalva-sub000/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(store *memStore, syncer CounterSyncer) *StampEngine {
	return NewStampEngine(store, store, store, store, syncer)
}

func TestApplyBelowThresholdIssuesNoCoupon(t *testing.T) {
	store := newMemStore()
	biz := uuid.New()
	store.addPrize(biz, "Bibita", 5, false)
	engine := newTestEngine(store, &recordingSyncer{})

	result, err := engine.Apply(context.Background(), "user-1", biz.String(), 4)

	require.NoError(t, err)
	assert.Equal(t, 4, result.ValidStamps)
	assert.Nil(t, result.CreatedCoupon)
}

func TestApplyIssuesCouponAtThreshold(t *testing.T) {
	store := newMemStore()
	biz := uuid.New()
	bibita := store.addPrize(biz, "Bibita", 5, false)
	engine := newTestEngine(store, &recordingSyncer{})

	result, err := engine.Apply(context.Background(), "user-1", biz.String(), 5)

	require.NoError(t, err)
	assert.Equal(t, 5, result.ValidStamps)
	require.NotNil(t, result.CreatedCoupon)
	assert.Equal(t, bibita.ID, result.CreatedCoupon.PrizeID)
	assert.NotEmpty(t, result.CreatedCoupon.Code)
	require.NotNil(t, result.CreatedCoupon.ExpiredAt)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), *result.CreatedCoupon.ExpiredAt, time.Minute)
}

func TestApplyAtMostOneCouponPerCall(t *testing.T) {
	store := newMemStore()
	biz := uuid.New()
	bibita := store.addPrize(biz, "Bibita", 5, false)
	store.addPrize(biz, "Margherita", 10, false)
	store.addPrize(biz, "Pizza grande", 20, false)
	engine := newTestEngine(store, &recordingSyncer{})

	// 200 stamps crosses every configured threshold, but a single call
	// advances progression by one stage only
	result, err := engine.Apply(context.Background(), "user-1", biz.String(), 200)

	require.NoError(t, err)
	assert.Equal(t, 200, result.ValidStamps)
	require.NotNil(t, result.CreatedCoupon)
	assert.Equal(t, bibita.ID, result.CreatedCoupon.PrizeID)

	coupons, err := store.ListCouponsForUser(context.Background(), "user-1", biz.String())
	require.NoError(t, err)
	assert.Len(t, coupons, 1)
}

func TestApplyAdvancesStagesAcrossCalls(t *testing.T) {
	store := newMemStore()
	biz := uuid.New()
	bibita := store.addPrize(biz, "Bibita", 5, false)
	margherita := store.addPrize(biz, "Margherita", 10, false)
	engine := newTestEngine(store, &recordingSyncer{})
	ctx := context.Background()

	first, err := engine.Apply(ctx, "user-1", biz.String(), 5)
	require.NoError(t, err)
	require.NotNil(t, first.CreatedCoupon)
	assert.Equal(t, bibita.ID, first.CreatedCoupon.PrizeID)

	second, err := engine.Apply(ctx, "user-1", biz.String(), 5)
	require.NoError(t, err)
	require.NotNil(t, second.CreatedCoupon)
	assert.Equal(t, margherita.ID, second.CreatedCoupon.PrizeID)

	// 10 stamps consumed, nothing left toward the next stage
	third, err := engine.Apply(ctx, "user-1", biz.String(), 1)
	require.NoError(t, err)
	assert.Nil(t, third.CreatedCoupon)
}

func TestApplyCycleRestartAfterMax(t *testing.T) {
	store := newMemStore()
	biz := uuid.New()
	bibita := store.addPrize(biz, "Bibita", 5, false)
	store.addPrize(biz, "Margherita", 10, false)
	store.addPrize(biz, "Pizza grande", 20, false)
	engine := newTestEngine(store, &recordingSyncer{})
	ctx := context.Background()

	// Walk a full cycle: thresholds 5, 10, 20
	for i := 0; i < 3; i++ {
		result, err := engine.Apply(ctx, "user-1", biz.String(), 10)
		require.NoError(t, err)
		require.NotNil(t, result.CreatedCoupon, "stage %d", i)
	}

	// 30 valid stamps, 20 consumed in cycle 0. Next target is stage 0 of
	// cycle 1 at absolute threshold 25, already crossed.
	result, err := engine.Apply(ctx, "user-1", biz.String(), 1)
	require.NoError(t, err)
	require.NotNil(t, result.CreatedCoupon)
	assert.Equal(t, bibita.ID, result.CreatedCoupon.PrizeID)
}

func TestApplyIgnoresPromotionalCoupons(t *testing.T) {
	store := newMemStore()
	biz := uuid.New()
	bibita := store.addPrize(biz, "Bibita", 5, false)
	promo := store.addPrize(biz, "Promo", 3, true)
	engine := newTestEngine(store, &recordingSyncer{})
	ctx := context.Background()

	// A promotional coupon issued out-of-band must not advance progression
	promoCoupon := &models.Coupon{
		ID:         uuid.New(),
		UserID:     "user-1",
		BusinessID: biz,
		PrizeID:    promo.ID,
		Code:       "promo-code",
	}
	require.NoError(t, store.InsertCoupon(ctx, promoCoupon))

	result, err := engine.Apply(ctx, "user-1", biz.String(), 5)
	require.NoError(t, err)
	require.NotNil(t, result.CreatedCoupon)
	assert.Equal(t, bibita.ID, result.CreatedCoupon.PrizeID)
}

func TestApplySentinelUserIDsRejected(t *testing.T) {
	store := newMemStore()
	biz := uuid.New()
	store.addPrize(biz, "Bibita", 5, false)
	engine := newTestEngine(store, &recordingSyncer{})

	for _, userID := range []string{"NaN", "undefined", "null", "", "  NaN  "} {
		_, err := engine.Apply(context.Background(), userID, biz.String(), 5)
		assert.ErrorIs(t, err, ErrInvalidUserID, "userID=%q", userID)
	}

	// nothing was written to the ledger
	count, err := store.CountValidStamps(context.Background(), "NaN", biz.String())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestApplyStampCountOutOfRange(t *testing.T) {
	store := newMemStore()
	biz := uuid.New()
	engine := newTestEngine(store, &recordingSyncer{})

	for _, n := range []int{0, -1, 201} {
		_, err := engine.Apply(context.Background(), "user-1", biz.String(), n)
		assert.ErrorIs(t, err, ErrStampCountOutOfRange, "n=%d", n)
	}
}

func TestApplySurvivesSyncFailure(t *testing.T) {
	store := newMemStore()
	biz := uuid.New()
	store.addPrize(biz, "Bibita", 5, false)
	syncer := &failingSyncer{}
	engine := newTestEngine(store, syncer)

	result, err := engine.Apply(context.Background(), "user-1", biz.String(), 7)

	require.NoError(t, err)
	assert.Equal(t, 7, result.ValidStamps)
	require.NotNil(t, result.CreatedCoupon)
	assert.Equal(t, 1, syncer.calls)

	// ledger rows were not rolled back
	count, err := store.CountValidStamps(context.Background(), "user-1", biz.String())
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestApplyReportsAdjustedCounters(t *testing.T) {
	store := newMemStore()
	biz := uuid.New()
	store.addPrize(biz, "Bibita", 5, false)
	store.addPrize(biz, "Margherita", 10, false)
	store.addPrize(biz, "Pizza grande", 20, false)
	syncer := &recordingSyncer{}
	engine := newTestEngine(store, syncer)

	_, err := engine.Apply(context.Background(), "user-1", biz.String(), 7)
	require.NoError(t, err)

	require.Len(t, syncer.calls, 1)
	call := syncer.calls[0]
	assert.Equal(t, "user-1", call.userID)
	assert.Equal(t, biz.String(), call.businessID)

	// 7 valid stamps, 5 consumed by the issued coupon
	require.NotNil(t, call.update.ValidStamps)
	assert.Equal(t, 2, *call.update.ValidStamps)
	require.NotNil(t, call.update.ValidCoupons)
	assert.Equal(t, 1, *call.update.ValidCoupons)
	require.NotNil(t, call.update.TotalStampsDelta)
	assert.Equal(t, 7, *call.update.TotalStampsDelta)
	require.NotNil(t, call.update.TotalCouponsDelta)
	assert.Equal(t, 1, *call.update.TotalCouponsDelta)
}

func TestApplyNoPrizesConfigured(t *testing.T) {
	store := newMemStore()
	biz := uuid.New()
	syncer := &recordingSyncer{}
	engine := newTestEngine(store, syncer)

	result, err := engine.Apply(context.Background(), "user-1", biz.String(), 50)

	require.NoError(t, err)
	assert.Equal(t, 50, result.ValidStamps)
	assert.Nil(t, result.CreatedCoupon)

	require.Len(t, syncer.calls, 1)
	require.NotNil(t, syncer.calls[0].update.ValidStamps)
	assert.Equal(t, 50, *syncer.calls[0].update.ValidStamps)
}

func TestApplyInvalidBusinessID(t *testing.T) {
	store := newMemStore()
	engine := newTestEngine(store, &recordingSyncer{})

	_, err := engine.Apply(context.Background(), "user-1", "not-a-uuid", 5)

	assert.ErrorIs(t, err, ErrBusinessNotFound)
}

func TestNextTargetIsDeterministic(t *testing.T) {
	biz := uuid.New()
	seq := []models.Prize{
		{ID: uuid.New(), BusinessID: &biz, Name: "A", PointsRequired: 5},
		{ID: uuid.New(), BusinessID: &biz, Name: "B", PointsRequired: 10},
		{ID: uuid.New(), BusinessID: &biz, Name: "C", PointsRequired: 20},
	}
	coupons := []models.Coupon{
		{ID: uuid.New(), PrizeID: seq[0].ID},
		{ID: uuid.New(), PrizeID: seq[1].ID},
	}

	stateA := replayCoupons(seq, coupons)
	targetA, absA, okA := nextTarget(seq, stateA)

	stateB := replayCoupons(seq, coupons)
	targetB, absB, okB := nextTarget(seq, stateB)

	assert.Equal(t, stateA, stateB)
	assert.Equal(t, targetA, targetB)
	assert.Equal(t, absA, absB)
	assert.Equal(t, okA, okB)

	assert.True(t, okA)
	assert.Equal(t, "C", targetA.Name)
	assert.Equal(t, 20, absA)
}

func TestReplayCouponsCountsCycles(t *testing.T) {
	biz := uuid.New()
	seq := []models.Prize{
		{ID: uuid.New(), BusinessID: &biz, Name: "A", PointsRequired: 5},
		{ID: uuid.New(), BusinessID: &biz, Name: "B", PointsRequired: 10},
	}

	// A, B, A: the second A wraps into cycle 1
	coupons := []models.Coupon{
		{ID: uuid.New(), PrizeID: seq[0].ID},
		{ID: uuid.New(), PrizeID: seq[1].ID},
		{ID: uuid.New(), PrizeID: seq[0].ID},
	}

	state := replayCoupons(seq, coupons)

	assert.Equal(t, 0, state.lastIndex)
	assert.Equal(t, 1, state.cycles)
	assert.Equal(t, 10, state.span)
	assert.Equal(t, 15, state.consumed) // one full cycle (10) + stage A (5)

	target, absolute, ok := nextTarget(seq, state)
	require.True(t, ok)
	assert.Equal(t, "B", target.Name)
	assert.Equal(t, 20, absolute) // cycle 1 * span 10 + threshold 10
}

func TestRedeemOneStampLegacyPath(t *testing.T) {
	store := newMemStore()
	biz := uuid.New()
	engine := newTestEngine(store, &recordingSyncer{})
	ctx := context.Background()

	_, err := engine.Apply(ctx, "user-1", biz.String(), 3)
	require.NoError(t, err)

	remaining, err := engine.RedeemOneStamp(ctx, "user-1", biz.String())
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)

	_, err = engine.RedeemOneStamp(ctx, "user-2", biz.String())
	assert.ErrorIs(t, err, ErrStampNotFound)
}
