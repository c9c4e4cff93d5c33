package models

import (
	"time"

	"github.com/google/uuid"
)

// StaffUser is a CRM operator account. End users are not stored here; they
// live in the external user-service and are referenced by id only.
type StaffUser struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	FullName     *string   `json:"full_name" db:"full_name"`
	PasswordHash *string   `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

func (StaffUser) TableName() string {
	return "staff_users"
}

func (StaffUser) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS staff_users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email TEXT UNIQUE NOT NULL,
		full_name TEXT,
		password_hash TEXT,
		role TEXT DEFAULT 'staff' CHECK (role IN ('staff', 'admin')),
		is_active BOOLEAN DEFAULT true,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);`
}
