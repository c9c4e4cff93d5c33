package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Returnacy/chepizzadasalva-sub000/models"

	"github.com/google/uuid"
)

// CouponService manages the coupon lifecycle: creation, lookup and the
// one-way redemption transition.
type CouponService struct {
	store CouponStore
}

func NewCouponService(store CouponStore) *CouponService {
	return &CouponService{store: store}
}

// Create issues a coupon with the given code. expiredAt defaults to creation
// plus 30 days. A code colliding with an existing coupon of the same business
// fails with ErrCouponCodeExists via the unique constraint, not an advance
// check.
func (s *CouponService) Create(ctx context.Context, userID string, businessID, prizeID uuid.UUID, code string, expiredAt *time.Time) (*models.Coupon, error) {
	if expiredAt == nil {
		expiry := time.Now().AddDate(0, 0, couponValidityDays)
		expiredAt = &expiry
	}
	coupon := &models.Coupon{
		ID:         uuid.New(),
		UserID:     userID,
		BusinessID: businessID,
		PrizeID:    prizeID,
		Code:       code,
		ExpiredAt:  expiredAt,
	}
	if err := s.store.InsertCoupon(ctx, coupon); err != nil {
		if errors.Is(err, ErrCouponCodeExists) {
			return nil, ErrCouponCodeExists
		}
		return nil, fmt.Errorf("create coupon: %w", err)
	}
	return coupon, nil
}

// FindByCode looks a coupon up by exact code within a business.
func (s *CouponService) FindByCode(ctx context.Context, code, businessID string) (*models.Coupon, error) {
	coupon, err := s.store.GetCouponByCode(ctx, code, businessID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("find coupon: %w", err)
	}
	return coupon, nil
}

// Redeem marks a coupon redeemed. The transition is terminal: redeeming an
// already-redeemed coupon fails with ErrCouponAlreadyRedeemed and never
// touches redeemed_at again.
func (s *CouponService) Redeem(ctx context.Context, couponID string) (*models.Coupon, error) {
	coupon, err := s.store.GetCouponByID(ctx, couponID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("load coupon: %w", err)
	}
	if coupon.IsRedeemed {
		return nil, ErrCouponAlreadyRedeemed
	}

	redeemed, err := s.store.MarkCouponRedeemed(ctx, couponID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("redeem coupon: %w", err)
	}
	if !redeemed {
		// lost a race against another redemption
		return nil, ErrCouponAlreadyRedeemed
	}

	coupon, err = s.store.GetCouponByID(ctx, couponID)
	if err != nil {
		return nil, fmt.Errorf("reload coupon: %w", err)
	}
	return coupon, nil
}

// ListActive returns the user's coupons that are not redeemed and not expired
// as of the given time.
func (s *CouponService) ListActive(ctx context.Context, userID, businessID string, asOf time.Time) ([]models.Coupon, error) {
	coupons, err := s.store.ListActiveCoupons(ctx, userID, businessID, asOf)
	if err != nil {
		return nil, fmt.Errorf("list active coupons: %w", err)
	}
	return coupons, nil
}

// List returns every coupon of the user at the business, oldest first.
func (s *CouponService) List(ctx context.Context, userID, businessID string) ([]models.Coupon, error) {
	coupons, err := s.store.ListCouponsForUser(ctx, userID, businessID)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	return coupons, nil
}
