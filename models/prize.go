package models

import (
	"time"

	"github.com/google/uuid"
)

// Prize is a reward earnable at points_required stamps. Scoped to a business
// or to a brand (one of the two in practice). Promotional prizes are excluded
// from the default progression sequence unless no non-promotional prize exists.
type Prize struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	BusinessID     *uuid.UUID `json:"business_id" db:"business_id"`
	BrandID        *uuid.UUID `json:"brand_id" db:"brand_id"`
	Name           string     `json:"name" db:"name"`
	PointsRequired int        `json:"points_required" db:"points_required"`
	IsPromotional  bool       `json:"is_promotional" db:"is_promotional"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

func (Prize) TableName() string {
	return "prizes"
}

func (Prize) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS prizes (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		business_id UUID REFERENCES businesses(id) ON DELETE CASCADE,
		brand_id UUID REFERENCES brands(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		points_required INTEGER NOT NULL CHECK (points_required > 0),
		is_promotional BOOLEAN DEFAULT false,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);`
}
