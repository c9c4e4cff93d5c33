package handlers

import (
	"time"

	"github.com/Returnacy/chepizzadasalva-sub000/config"
	"github.com/Returnacy/chepizzadasalva-sub000/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims represents the JWT claims for staff and service tokens
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// generateUUID generates a new UUID
func generateUUID() string {
	return uuid.New().String()
}

// generateStaffJWT generates a staff token with 15 days expiration
func generateStaffJWT(userID, email, role string) (string, error) {
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * 24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// couponJSON serializes a coupon for API responses, optionally with its prize.
func couponJSON(c *models.Coupon, prize *models.Prize) gin.H {
	out := gin.H{
		"id":          c.ID,
		"user_id":     c.UserID,
		"business_id": c.BusinessID,
		"prize_id":    c.PrizeID,
		"code":        c.Code,
		"is_redeemed": c.IsRedeemed,
		"created_at":  c.CreatedAt,
		"expired_at":  c.ExpiredAt,
		"redeemed_at": c.RedeemedAt,
	}
	if prize != nil {
		out["prize"] = gin.H{
			"id":              prize.ID,
			"name":            prize.Name,
			"points_required": prize.PointsRequired,
			"is_promotional":  prize.IsPromotional,
		}
	}
	return out
}
