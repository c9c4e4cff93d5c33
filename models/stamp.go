package models

import (
	"time"

	"github.com/google/uuid"
)

// Stamp is one unit of loyalty credit. Rows are append-only: the apply path
// never mutates them. is_redeemed exists for the legacy single-stamp
// redemption flow and is ignored by progression logic except when counting
// valid stamps.
type Stamp struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	BusinessID uuid.UUID `json:"business_id" db:"business_id"`
	IsRedeemed bool      `json:"is_redeemed" db:"is_redeemed"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

func (Stamp) TableName() string {
	return "stamps"
}

func (Stamp) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS stamps (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id TEXT NOT NULL,
		business_id UUID NOT NULL REFERENCES businesses(id) ON DELETE CASCADE,
		is_redeemed BOOLEAN DEFAULT false,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_stamps_user_business ON stamps (user_id, business_id);`
}
