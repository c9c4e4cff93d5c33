package models

import (
	"time"

	"github.com/google/uuid"
)

// Coupon is an issued, redeemable instance of a prize. Redemption is a
// one-way transition: is_redeemed never goes back to false and redeemed_at
// is written exactly once. Codes are unique per business, not globally.
type Coupon struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     string     `json:"user_id" db:"user_id"`
	BusinessID uuid.UUID  `json:"business_id" db:"business_id"`
	PrizeID    uuid.UUID  `json:"prize_id" db:"prize_id"`
	Code       string     `json:"code" db:"code"`
	IsRedeemed bool       `json:"is_redeemed" db:"is_redeemed"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ExpiredAt  *time.Time `json:"expired_at" db:"expired_at"`
	RedeemedAt *time.Time `json:"redeemed_at" db:"redeemed_at"`
}

// Active reports whether the coupon is still usable at the given time.
func (c *Coupon) Active(asOf time.Time) bool {
	if c.IsRedeemed {
		return false
	}
	return c.ExpiredAt == nil || c.ExpiredAt.After(asOf)
}

func (Coupon) TableName() string {
	return "coupons"
}

func (Coupon) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS coupons (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id TEXT NOT NULL,
		business_id UUID NOT NULL REFERENCES businesses(id) ON DELETE CASCADE,
		prize_id UUID NOT NULL REFERENCES prizes(id) ON DELETE CASCADE,
		code TEXT NOT NULL,
		is_redeemed BOOLEAN DEFAULT false,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		expired_at TIMESTAMP WITH TIME ZONE,
		redeemed_at TIMESTAMP WITH TIME ZONE,
		UNIQUE (business_id, code)
	);
	CREATE INDEX IF NOT EXISTS idx_coupons_user_business ON coupons (user_id, business_id);`
}
