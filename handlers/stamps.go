package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Returnacy/chepizzadasalva-sub000/services"

	"github.com/gin-gonic/gin"
)

// ApplyStamps grants stamps to a user at a business and reports the valid
// stamp count plus the coupon issued by the crossing, if any.
func ApplyStamps(c *gin.Context) {
	businessID := c.Param("businessId")
	userID := c.Param("userId")

	var req struct {
		Stamps int `json:"stamps" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result, err := engine.Apply(c.Request.Context(), userID, businessID, req.Stamps)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidUserID), errors.Is(err, services.ErrStampCountOutOfRange):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrBusinessNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Business not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply stamps"})
		}
		return
	}

	var createdCoupon gin.H
	if result.CreatedCoupon != nil {
		createdCoupon = gin.H{
			"id":   result.CreatedCoupon.ID,
			"code": result.CreatedCoupon.Code,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"validStamps":   result.ValidStamps,
		"createdCoupon": createdCoupon,
	})
}

// GetProgression computes the progression tuple for a stamp count against the
// business's prize sequence. Same calculator as the CRM listing.
func GetProgression(c *gin.Context) {
	businessID := c.Param("businessId")

	stamps, err := strconv.Atoi(c.DefaultQuery("stamps", "0"))
	if err != nil || stamps < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid stamps value"})
		return
	}

	prizeList, err := prizes.ListPrizesForBusiness(c.Request.Context(), businessID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load prizes"})
		return
	}

	seq := services.ProgressionSequence(prizeList)
	progression := services.ComputeProgression(stamps, seq)

	c.JSON(http.StatusOK, progression)
}

// RedeemSingleStamp marks the oldest valid stamp redeemed (legacy flow).
func RedeemSingleStamp(c *gin.Context) {
	businessID := c.Param("businessId")
	userID := c.Param("userId")

	remaining, err := engine.RedeemOneStamp(c.Request.Context(), userID, businessID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidUserID):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrStampNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "No valid stamp to redeem"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to redeem stamp"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"validStamps": remaining,
	})
}
