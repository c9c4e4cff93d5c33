package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetPrizes lists the prizes of a business (including brand-scoped ones),
// ascending by threshold.
func GetPrizes(c *gin.Context) {
	businessID := c.Param("businessId")

	prizeList, err := prizes.ListPrizesForBusiness(c.Request.Context(), businessID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch prizes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    prizeList,
	})
}

// CreatePrize adds a prize to a business. Staff tooling; the progression
// engine only ever reads prizes.
func CreatePrize(c *gin.Context) {
	businessID := c.Param("businessId")

	var req struct {
		Name           string `json:"name" binding:"required"`
		PointsRequired int    `json:"points_required" binding:"required,gt=0"`
		IsPromotional  bool   `json:"is_promotional"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Make sure the tenant exists; prizes must not provision implicitly
	var exists bool
	err := db.QueryRow(`SELECT EXISTS(SELECT 1 FROM businesses WHERE id = $1)`, businessID).Scan(&exists)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Business not found"})
		return
	}

	prizeID := generateUUID()
	var createdAt sql.NullTime
	err = db.QueryRow(`
		INSERT INTO prizes (id, business_id, name, points_required, is_promotional)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, prizeID, businessID, req.Name, req.PointsRequired, req.IsPromotional).Scan(&createdAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create prize"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"id":              prizeID,
			"business_id":     businessID,
			"name":            req.Name,
			"points_required": req.PointsRequired,
			"is_promotional":  req.IsPromotional,
			"created_at":      createdAt.Time,
		},
	})
}

// UpdatePrize changes a prize's name, threshold or promotional flag.
func UpdatePrize(c *gin.Context) {
	prizeID := c.Param("id")

	var req struct {
		Name           *string `json:"name"`
		PointsRequired *int    `json:"points_required"`
		IsPromotional  *bool   `json:"is_promotional"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.PointsRequired != nil && *req.PointsRequired <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "points_required must be positive"})
		return
	}

	result, err := db.Exec(`
		UPDATE prizes SET
			name = COALESCE($2, name),
			points_required = COALESCE($3, points_required),
			is_promotional = COALESCE($4, is_promotional)
		WHERE id = $1
	`, prizeID, req.Name, req.PointsRequired, req.IsPromotional)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update prize"})
		return
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check update result"})
		return
	}
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Prize not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Prize updated successfully",
	})
}

// DeletePrize removes a prize that has never been earned.
func DeletePrize(c *gin.Context) {
	prizeID := c.Param("id")

	// Coupons keep their prize reference for replay; refuse to delete a prize
	// that has issued coupons
	var couponCount int
	err := db.QueryRow(`SELECT COUNT(*) FROM coupons WHERE prize_id = $1`, prizeID).Scan(&couponCount)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if couponCount > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete a prize with issued coupons"})
		return
	}

	result, err := db.Exec(`DELETE FROM prizes WHERE id = $1`, prizeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete prize"})
		return
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Prize not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Prize deleted successfully",
	})
}
