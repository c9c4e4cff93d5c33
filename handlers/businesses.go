package handlers

import (
	"database/sql"
	"net/http"

	"github.com/Returnacy/chepizzadasalva-sub000/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProvisionBusiness explicitly creates a tenant (and its brand when no
// brand_id is given). Lookups never create businesses as a side effect.
func ProvisionBusiness(c *gin.Context) {
	var req struct {
		ID        string  `json:"id"`
		BrandID   string  `json:"brand_id"`
		BrandName string  `json:"brand_name"`
		Name      string  `json:"name" binding:"required"`
		Email     *string `json:"email"`
		Phone     *string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	business := &models.Business{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	}

	// Businesses provisioned from the user-service carry their own id
	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid business id"})
			return
		}
		business.ID = id
	} else {
		business.ID = uuid.New()
	}

	if req.BrandID != "" {
		brandID, err := uuid.Parse(req.BrandID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid brand id"})
			return
		}
		business.BrandID = brandID
	}

	brandName := req.BrandName
	if brandName == "" {
		brandName = req.Name
	}

	if err := repo.ProvisionBusiness(c.Request.Context(), brandName, business); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to provision business"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    business,
	})
}

// GetBusiness fetches a tenant by id.
func GetBusiness(c *gin.Context) {
	businessID := c.Param("businessId")

	business, err := repo.GetBusiness(c.Request.Context(), businessID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Business not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch business"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    business,
	})
}
