package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Returnacy/chepizzadasalva-sub000/models"

	"github.com/google/uuid"
)

const (
	maxStampsPerApply  = 200
	couponValidityDays = 30
)

// StampStore is the append-only stamp ledger.
type StampStore interface {
	AppendStamps(ctx context.Context, userID, businessID string, count int) error
	CountValidStamps(ctx context.Context, userID, businessID string) (int, error)
	RedeemOldestStamp(ctx context.Context, userID, businessID string) (bool, error)
}

// PrizeStore reads the prize configuration; the engine never writes prizes.
type PrizeStore interface {
	ListPrizesForBusiness(ctx context.Context, businessID string) ([]models.Prize, error)
	GetPrize(ctx context.Context, id string) (*models.Prize, error)
}

// CouponStore is the coupon side of the ledger.
type CouponStore interface {
	InsertCoupon(ctx context.Context, c *models.Coupon) error
	ListCouponsForUser(ctx context.Context, userID, businessID string) ([]models.Coupon, error)
	GetCouponByID(ctx context.Context, id string) (*models.Coupon, error)
	GetCouponByCode(ctx context.Context, code, businessID string) (*models.Coupon, error)
	MarkCouponRedeemed(ctx context.Context, id string, at time.Time) (bool, error)
	ListActiveCoupons(ctx context.Context, userID, businessID string, asOf time.Time) ([]models.Coupon, error)
	CountActiveCoupons(ctx context.Context, userID, businessID string, asOf time.Time) (int, error)
}

// UserLocker serializes work per (userID, businessID). The SQL implementation
// backs it with a transaction plus an advisory lock, which also makes the
// stamp append and coupon insert atomic.
type UserLocker interface {
	WithUserLock(ctx context.Context, userID, businessID string, fn func(ctx context.Context) error) error
}

// CounterSyncer mirrors derived counters to the external user-service.
type CounterSyncer interface {
	SyncCounters(ctx context.Context, userID, businessID string, update CounterUpdate) error
}

// ApplyResult is what a stamp application reports back to the caller.
type ApplyResult struct {
	ValidStamps   int
	CreatedCoupon *models.Coupon
}

// StampEngine grants stamps and issues at most one coupon per call when a
// prize threshold is newly crossed.
type StampEngine struct {
	stamps  StampStore
	prizes  PrizeStore
	coupons CouponStore
	locker  UserLocker
	syncer  CounterSyncer
}

func NewStampEngine(stamps StampStore, prizes PrizeStore, coupons CouponStore, locker UserLocker, syncer CounterSyncer) *StampEngine {
	return &StampEngine{
		stamps:  stamps,
		prizes:  prizes,
		coupons: coupons,
		locker:  locker,
		syncer:  syncer,
	}
}

// invalidUserIDs are literals produced by broken upstream serializers. A
// request carrying one must be rejected before any ledger write.
var invalidUserIDs = map[string]bool{
	"":          true,
	"NaN":       true,
	"undefined": true,
	"null":      true,
}

// Apply grants stampsToAdd stamps to (userID, businessID), recomputes the
// valid stamp count from the ledger, and issues a coupon for the next prize
// stage if its absolute threshold has been crossed. A single call advances
// progression by at most one stage, no matter how many stamps are granted.
//
// Steps up to coupon issuance run inside the per-user lock and commit
// together. The counter push to the user-service runs afterwards and is
// best-effort: its failure is logged and swallowed, never propagated.
func (e *StampEngine) Apply(ctx context.Context, userID, businessID string, stampsToAdd int) (*ApplyResult, error) {
	userID = strings.TrimSpace(userID)
	if invalidUserIDs[userID] {
		return nil, ErrInvalidUserID
	}
	if stampsToAdd < 1 || stampsToAdd > maxStampsPerApply {
		return nil, ErrStampCountOutOfRange
	}

	businessUUID, err := uuid.Parse(businessID)
	if err != nil {
		return nil, ErrBusinessNotFound
	}

	var (
		result         ApplyResult
		adjustedStamps int
	)
	err = e.locker.WithUserLock(ctx, userID, businessID, func(ctx context.Context) error {
		if err := e.stamps.AppendStamps(ctx, userID, businessID, stampsToAdd); err != nil {
			return fmt.Errorf("append stamps: %w", err)
		}

		validStamps, err := e.stamps.CountValidStamps(ctx, userID, businessID)
		if err != nil {
			return fmt.Errorf("count stamps: %w", err)
		}

		prizes, err := e.prizes.ListPrizesForBusiness(ctx, businessID)
		if err != nil {
			return fmt.Errorf("list prizes: %w", err)
		}
		seq := ProgressionSequence(prizes)

		coupons, err := e.coupons.ListCouponsForUser(ctx, userID, businessID)
		if err != nil {
			return fmt.Errorf("list coupons: %w", err)
		}

		state := replayCoupons(seq, coupons)
		target, absoluteNext, ok := nextTarget(seq, state)

		consumedAfter := state.consumed
		if ok && absoluteNext > 0 && absoluteNext > state.consumed && validStamps >= absoluteNext {
			coupon := &models.Coupon{
				ID:         uuid.New(),
				UserID:     userID,
				BusinessID: businessUUID,
				PrizeID:    target.ID,
				Code:       newCouponCode(),
			}
			expiry := time.Now().AddDate(0, 0, couponValidityDays)
			coupon.ExpiredAt = &expiry

			if err := e.coupons.InsertCoupon(ctx, coupon); err != nil {
				return fmt.Errorf("issue coupon: %w", err)
			}
			result.CreatedCoupon = coupon
			consumedAfter = absoluteNext
		}

		result.ValidStamps = validStamps
		adjustedStamps = validStamps - min(consumedAfter, validStamps)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.pushCounters(ctx, userID, businessID, adjustedStamps, stampsToAdd, result.CreatedCoupon != nil)

	return &result, nil
}

// pushCounters mirrors the post-application counters to the user-service.
// The local ledger is already committed; a failed push only loses the mirror,
// so it is logged with enough context to replay by hand.
func (e *StampEngine) pushCounters(ctx context.Context, userID, businessID string, adjustedStamps, stampsAdded int, couponIssued bool) {
	validCoupons, err := e.coupons.CountActiveCoupons(ctx, userID, businessID, time.Now())
	if err != nil {
		log.Printf("counter sync skipped for user=%s business=%s: counting coupons: %v", userID, businessID, err)
		return
	}

	couponsDelta := 0
	if couponIssued {
		couponsDelta = 1
	}
	update := CounterUpdate{
		ValidStamps:       &adjustedStamps,
		ValidCoupons:      &validCoupons,
		TotalStampsDelta:  &stampsAdded,
		TotalCouponsDelta: &couponsDelta,
	}
	if err := e.syncer.SyncCounters(ctx, userID, businessID, update); err != nil {
		log.Printf("counter sync failed for user=%s business=%s payload={validStamps:%d validCoupons:%d totalStampsDelta:%d totalCouponsDelta:%d}: %v",
			userID, businessID, adjustedStamps, validCoupons, stampsAdded, couponsDelta, err)
	}
}

// RedeemOneStamp is the legacy single-stamp redemption path. It marks the
// oldest valid stamp redeemed and does not interact with coupon progression.
func (e *StampEngine) RedeemOneStamp(ctx context.Context, userID, businessID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if invalidUserIDs[userID] {
		return 0, ErrInvalidUserID
	}

	var remaining int
	err := e.locker.WithUserLock(ctx, userID, businessID, func(ctx context.Context) error {
		redeemed, err := e.stamps.RedeemOldestStamp(ctx, userID, businessID)
		if err != nil {
			return fmt.Errorf("redeem stamp: %w", err)
		}
		if !redeemed {
			return ErrStampNotFound
		}
		remaining, err = e.stamps.CountValidStamps(ctx, userID, businessID)
		if err != nil {
			return fmt.Errorf("count stamps: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

// replayState is the position in the reward cycle implied by the coupons
// already issued.
type replayState struct {
	lastIndex int // stage index of the newest eligible coupon, -1 if none
	cycles    int // completed wraparounds observed in the history
	span      int // cycle span = largest threshold in the sequence
	consumed  int // absolute stamps already converted into earned prizes
}

// replayCoupons walks the coupon history (oldest first) against the
// progression sequence. A coupon whose stage index does not advance past the
// previous one means the sequence wrapped and a new cycle began. Coupons for
// prizes outside the sequence (promotional ones, usually) are skipped.
func replayCoupons(seq []models.Prize, coupons []models.Coupon) replayState {
	state := replayState{lastIndex: -1}
	if len(seq) == 0 {
		return state
	}
	state.span = seq[len(seq)-1].PointsRequired

	indexByPrize := make(map[uuid.UUID]int, len(seq))
	for i, p := range seq {
		indexByPrize[p.ID] = i
	}

	for _, c := range coupons {
		idx, ok := indexByPrize[c.PrizeID]
		if !ok {
			continue
		}
		if idx <= state.lastIndex {
			state.cycles++
		}
		state.lastIndex = idx
	}

	if state.lastIndex >= 0 {
		state.consumed = state.cycles*state.span + seq[state.lastIndex].PointsRequired
	}
	return state
}

// nextTarget determines the prize the next coupon would be issued for and its
// absolute threshold across cycles. Pure: identical inputs always yield the
// same target.
func nextTarget(seq []models.Prize, state replayState) (models.Prize, int, bool) {
	if len(seq) == 0 {
		return models.Prize{}, 0, false
	}

	nextIndex := 0
	cycle := 0
	if state.lastIndex >= 0 {
		nextIndex = (state.lastIndex + 1) % len(seq)
		cycle = state.cycles
		if nextIndex == 0 {
			cycle++
		}
	}

	absolute := cycle*state.span + seq[nextIndex].PointsRequired
	return seq[nextIndex], absolute, true
}

// newCouponCode generates a fresh random code. The 128-bit space makes
// collisions negligible; the unique constraint still backstops them.
func newCouponCode() string {
	return uuid.New().String()
}
