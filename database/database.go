package database

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/Returnacy/chepizzadasalva-sub000/models"

	_ "github.com/lib/pq"
)

type DB struct {
	*sql.DB
}

var Database *DB

// Connect establishes a connection to the PostgreSQL database
func Connect(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	Database = &DB{db}
	return Database, nil
}

// InitializeTables creates all tables if they don't exist
func (db *DB) InitializeTables() error {
	// Enable pgcrypto extension for gen_random_uuid
	if _, err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`); err != nil {
		return fmt.Errorf("failed to enable pgcrypto extension: %w", err)
	}

	// Order matters: foreign keys reference earlier tables
	tables := []interface{}{
		models.Brand{},
		models.Business{},
		models.Prize{},
		models.Stamp{},
		models.Coupon{},
		models.StaffUser{},
	}

	for _, model := range tables {
		if tableModel, ok := model.(interface {
			TableName() string
			CreateTableSQL() string
		}); ok {
			tableName := tableModel.TableName()
			createSQL := tableModel.CreateTableSQL()

			log.Printf("Creating table: %s", tableName)
			if _, err := db.Exec(createSQL); err != nil {
				return fmt.Errorf("failed to create table %s: %w", tableName, err)
			}
		}
	}

	// Run schema migrations
	if err := db.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("All tables created successfully!")
	return nil
}

// runMigrations handles schema updates for existing tables
func (db *DB) runMigrations() error {
	migrations := []string{
		// Earlier deployments created coupons without an expiry column
		`ALTER TABLE coupons ADD COLUMN IF NOT EXISTS expired_at TIMESTAMP WITH TIME ZONE;`,

		// Promotional flag was added after the first prize rollout
		`ALTER TABLE prizes ADD COLUMN IF NOT EXISTS is_promotional BOOLEAN DEFAULT false;`,

		// Staff roles were introduced with the CRM
		`ALTER TABLE staff_users ADD COLUMN IF NOT EXISTS role TEXT DEFAULT 'staff';`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
