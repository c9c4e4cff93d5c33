package models

import (
	"time"

	"github.com/google/uuid"
)

// Business is the tenant boundary: every stamp, coupon and prize hangs off one.
type Business struct {
	ID        uuid.UUID `json:"id" db:"id"`
	BrandID   uuid.UUID `json:"brand_id" db:"brand_id"`
	Name      string    `json:"name" db:"name"`
	Email     *string   `json:"email" db:"email"`
	Phone     *string   `json:"phone" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (Business) TableName() string {
	return "businesses"
}

func (Business) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS businesses (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		brand_id UUID NOT NULL REFERENCES brands(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);`
}
