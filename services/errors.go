package services

import "errors"

var (
	// ErrInvalidUserID rejects the sentinel literals that upstream
	// serialization bugs produce ("NaN", "undefined", "null") and empty ids.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrStampCountOutOfRange rejects apply calls outside [1, 200].
	ErrStampCountOutOfRange = errors.New("stamps must be between 1 and 200")

	ErrCouponNotFound        = errors.New("coupon not found")
	ErrCouponAlreadyRedeemed = errors.New("coupon already redeemed")
	ErrCouponCodeExists      = errors.New("coupon code already exists")
	ErrBusinessNotFound      = errors.New("business not found")
	ErrStampNotFound         = errors.New("no valid stamp to redeem")
)
