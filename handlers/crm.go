package handlers

import (
	"net/http"
	"time"

	"github.com/Returnacy/chepizzadasalva-sub000/services"

	"github.com/gin-gonic/gin"
)

// GetLoyaltyCustomers lists every user with stamps at a business, with their
// valid stamp count and progression. This is the bulk call site of the
// progression calculator and must agree with the per-transaction path.
func GetLoyaltyCustomers(c *gin.Context) {
	businessID := c.Query("business_id")
	if businessID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "business_id is required"})
		return
	}

	prizeList, err := prizes.ListPrizesForBusiness(c.Request.Context(), businessID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load prizes"})
		return
	}
	seq := services.ProgressionSequence(prizeList)

	rows, err := db.Query(`
		SELECT user_id,
		       COUNT(*) FILTER (WHERE is_redeemed = false) AS valid_stamps,
		       MIN(created_at) AS first_stamp_at,
		       MAX(created_at) AS last_stamp_at
		FROM stamps
		WHERE business_id = $1
		GROUP BY user_id
		ORDER BY MAX(created_at) DESC
	`, businessID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch customers"})
		return
	}
	defer rows.Close()

	type customer struct {
		UserID       string               `json:"user_id"`
		ValidStamps  int                  `json:"valid_stamps"`
		FirstStampAt time.Time            `json:"first_stamp_at"`
		LastStampAt  time.Time            `json:"last_stamp_at"`
		Progression  services.Progression `json:"progression"`
	}

	var customers []customer
	for rows.Next() {
		var cust customer
		if err := rows.Scan(&cust.UserID, &cust.ValidStamps, &cust.FirstStampAt, &cust.LastStampAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan customer"})
			return
		}
		cust.Progression = services.ComputeProgression(cust.ValidStamps, seq)
		customers = append(customers, cust)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch customers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    customers,
	})
}

// GetCRMStats reports headline loyalty numbers for a business.
func GetCRMStats(c *gin.Context) {
	businessID := c.Query("business_id")
	if businessID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "business_id is required"})
		return
	}

	var totalStamps, validStamps, totalCustomers int
	err := db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_redeemed = false),
		       COUNT(DISTINCT user_id)
		FROM stamps WHERE business_id = $1
	`, businessID).Scan(&totalStamps, &validStamps, &totalCustomers)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stamp stats"})
		return
	}

	var totalCoupons, redeemedCoupons, activeCoupons int
	err = db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_redeemed = true),
		       COUNT(*) FILTER (WHERE is_redeemed = false AND (expired_at IS NULL OR expired_at > now()))
		FROM coupons WHERE business_id = $1
	`, businessID).Scan(&totalCoupons, &redeemedCoupons, &activeCoupons)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch coupon stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"total_customers":  totalCustomers,
			"total_stamps":     totalStamps,
			"valid_stamps":     validStamps,
			"total_coupons":    totalCoupons,
			"redeemed_coupons": redeemedCoupons,
			"active_coupons":   activeCoupons,
		},
	})
}
