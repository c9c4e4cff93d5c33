package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Returnacy/chepizzadasalva-sub000/services"

	"github.com/gin-gonic/gin"
)

// RedeemCoupon performs the one-way redemption transition. Redeeming an
// already-redeemed coupon is a conflict, not a silent success.
func RedeemCoupon(c *gin.Context) {
	couponID := c.Param("id")
	if couponID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Coupon ID is required"})
		return
	}

	coupon, err := couponSvc.Redeem(c.Request.Context(), couponID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCouponNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Coupon not found"})
		case errors.Is(err, services.ErrCouponAlreadyRedeemed):
			c.JSON(http.StatusConflict, gin.H{"error": "Coupon already redeemed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to redeem coupon"})
		}
		return
	}

	prize, err := prizes.GetPrize(c.Request.Context(), coupon.PrizeID.String())
	if err != nil {
		// coupon is redeemed either way; return it without the prize summary
		prize = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    couponJSON(coupon, prize),
	})
}

// LookupCoupon finds a coupon by exact code within a business (staff lookup
// and scan-to-redeem flows).
func LookupCoupon(c *gin.Context) {
	businessID := c.Param("businessId")
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code is required"})
		return
	}

	coupon, err := couponSvc.FindByCode(c.Request.Context(), code, businessID)
	if err != nil {
		if errors.Is(err, services.ErrCouponNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Coupon not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up coupon"})
		return
	}

	prize, err := prizes.GetPrize(c.Request.Context(), coupon.PrizeID.String())
	if err != nil {
		prize = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    couponJSON(coupon, prize),
	})
}

// GetUserCoupons lists every coupon of a user at a business, oldest first.
func GetUserCoupons(c *gin.Context) {
	businessID := c.Param("businessId")
	userID := c.Param("userId")

	coupons, err := couponSvc.List(c.Request.Context(), userID, businessID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list coupons"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    coupons,
	})
}

// GetActiveCoupons lists coupons that are not redeemed and not expired.
func GetActiveCoupons(c *gin.Context) {
	businessID := c.Param("businessId")
	userID := c.Param("userId")

	coupons, err := couponSvc.ListActive(c.Request.Context(), userID, businessID, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list active coupons"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    coupons,
	})
}
