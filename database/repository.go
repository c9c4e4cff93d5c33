package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Returnacy/chepizzadasalva-sub000/models"
	"github.com/Returnacy/chepizzadasalva-sub000/services"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Repository implements the store interfaces consumed by the services
// package with plain SQL against PostgreSQL.
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type txKey struct{}

// q returns the transaction carried by the context when running inside
// WithUserLock, otherwise the shared pool.
func (r *Repository) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return r.db.DB
}

// WithUserLock runs fn inside a transaction that holds an advisory lock on
// (userID, businessID). Concurrent applies for the same pair serialize here,
// across all instances sharing the database; the lock is transaction-scoped
// so it releases on commit and rollback alike.
func (r *Repository) WithUserLock(ctx context.Context, userID, businessID string, fn func(ctx context.Context) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
		userID+"/"+businessID,
	); err != nil {
		return fmt.Errorf("failed to acquire user lock: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// AppendStamps inserts count discrete stamp rows for (userID, businessID).
// One row per stamp keeps per-stamp auditing and the legacy single-stamp
// redemption possible.
func (r *Repository) AppendStamps(ctx context.Context, userID, businessID string, count int) error {
	_, err := r.q(ctx).ExecContext(ctx, `
		INSERT INTO stamps (user_id, business_id)
		SELECT $1, $2 FROM generate_series(1, $3)
	`, userID, businessID, count)
	if err != nil {
		return fmt.Errorf("failed to append stamps: %w", err)
	}
	return nil
}

// CountValidStamps counts non-redeemed stamp rows, always reading back from
// the ledger rather than accumulating in memory.
func (r *Repository) CountValidStamps(ctx context.Context, userID, businessID string) (int, error) {
	var count int
	err := r.q(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM stamps
		WHERE user_id = $1 AND business_id = $2 AND is_redeemed = false
	`, userID, businessID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count stamps: %w", err)
	}
	return count, nil
}

// RedeemOldestStamp marks the oldest valid stamp redeemed. Legacy flow,
// untouched by the progression engine. Returns false when no valid stamp
// exists.
func (r *Repository) RedeemOldestStamp(ctx context.Context, userID, businessID string) (bool, error) {
	result, err := r.q(ctx).ExecContext(ctx, `
		UPDATE stamps SET is_redeemed = true
		WHERE id = (
			SELECT id FROM stamps
			WHERE user_id = $1 AND business_id = $2 AND is_redeemed = false
			ORDER BY created_at ASC, id ASC
			LIMIT 1
		)
	`, userID, businessID)
	if err != nil {
		return false, fmt.Errorf("failed to redeem stamp: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check redeem result: %w", err)
	}
	return affected > 0, nil
}

// ListPrizesForBusiness returns every prize scoped to the business or to its
// brand, ascending by threshold.
func (r *Repository) ListPrizesForBusiness(ctx context.Context, businessID string) ([]models.Prize, error) {
	rows, err := r.q(ctx).QueryContext(ctx, `
		SELECT p.id, p.business_id, p.brand_id, p.name, p.points_required, p.is_promotional, p.created_at
		FROM prizes p
		LEFT JOIN businesses b ON b.id = $1
		WHERE p.business_id = $1 OR p.brand_id = b.brand_id
		ORDER BY p.points_required ASC
	`, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prizes: %w", err)
	}
	defer rows.Close()

	var prizes []models.Prize
	for rows.Next() {
		var p models.Prize
		if err := rows.Scan(&p.ID, &p.BusinessID, &p.BrandID, &p.Name, &p.PointsRequired, &p.IsPromotional, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prize: %w", err)
		}
		prizes = append(prizes, p)
	}
	return prizes, rows.Err()
}

// GetPrize fetches one prize. Returns sql.ErrNoRows when absent.
func (r *Repository) GetPrize(ctx context.Context, id string) (*models.Prize, error) {
	var p models.Prize
	err := r.q(ctx).QueryRowContext(ctx, `
		SELECT id, business_id, brand_id, name, points_required, is_promotional, created_at
		FROM prizes WHERE id = $1
	`, id).Scan(&p.ID, &p.BusinessID, &p.BrandID, &p.Name, &p.PointsRequired, &p.IsPromotional, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const couponColumns = `id, user_id, business_id, prize_id, code, is_redeemed, created_at, expired_at, redeemed_at`

func scanCoupon(row interface{ Scan(...interface{}) error }) (*models.Coupon, error) {
	var c models.Coupon
	err := row.Scan(&c.ID, &c.UserID, &c.BusinessID, &c.PrizeID, &c.Code,
		&c.IsRedeemed, &c.CreatedAt, &c.ExpiredAt, &c.RedeemedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// InsertCoupon writes a new coupon row. A duplicate (business, code) pair
// surfaces as a unique violation, not a pre-check.
func (r *Repository) InsertCoupon(ctx context.Context, c *models.Coupon) error {
	err := r.q(ctx).QueryRowContext(ctx, `
		INSERT INTO coupons (id, user_id, business_id, prize_id, code, expired_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, c.ID, c.UserID, c.BusinessID, c.PrizeID, c.Code, c.ExpiredAt).Scan(&c.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return services.ErrCouponCodeExists
		}
		return fmt.Errorf("failed to insert coupon: %w", err)
	}
	return nil
}

// ListCouponsForUser returns every coupon for (userID, businessID), oldest
// first. Ties on created_at break on id so replay stays deterministic.
func (r *Repository) ListCouponsForUser(ctx context.Context, userID, businessID string) ([]models.Coupon, error) {
	rows, err := r.q(ctx).QueryContext(ctx, `
		SELECT `+couponColumns+` FROM coupons
		WHERE user_id = $1 AND business_id = $2
		ORDER BY created_at ASC, id ASC
	`, userID, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	defer rows.Close()

	var coupons []models.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, *c)
	}
	return coupons, rows.Err()
}

// GetCouponByID fetches one coupon. Returns sql.ErrNoRows when absent.
func (r *Repository) GetCouponByID(ctx context.Context, id string) (*models.Coupon, error) {
	return scanCoupon(r.q(ctx).QueryRowContext(ctx, `
		SELECT `+couponColumns+` FROM coupons WHERE id = $1
	`, id))
}

// GetCouponByCode fetches a coupon by exact code within a business.
func (r *Repository) GetCouponByCode(ctx context.Context, code, businessID string) (*models.Coupon, error) {
	return scanCoupon(r.q(ctx).QueryRowContext(ctx, `
		SELECT `+couponColumns+` FROM coupons WHERE code = $1 AND business_id = $2
	`, code, businessID))
}

// MarkCouponRedeemed flips is_redeemed exactly once. Returns false when the
// coupon was already redeemed (the guard keeps redeemed_at from being
// overwritten under races).
func (r *Repository) MarkCouponRedeemed(ctx context.Context, id string, at time.Time) (bool, error) {
	result, err := r.q(ctx).ExecContext(ctx, `
		UPDATE coupons SET is_redeemed = true, redeemed_at = $2
		WHERE id = $1 AND is_redeemed = false
	`, id, at)
	if err != nil {
		return false, fmt.Errorf("failed to redeem coupon: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check redeem result: %w", err)
	}
	return affected > 0, nil
}

// ListActiveCoupons returns coupons that are not redeemed and not expired as
// of the given time.
func (r *Repository) ListActiveCoupons(ctx context.Context, userID, businessID string, asOf time.Time) ([]models.Coupon, error) {
	rows, err := r.q(ctx).QueryContext(ctx, `
		SELECT `+couponColumns+` FROM coupons
		WHERE user_id = $1 AND business_id = $2
		  AND is_redeemed = false
		  AND (expired_at IS NULL OR expired_at > $3)
		ORDER BY created_at ASC, id ASC
	`, userID, businessID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list active coupons: %w", err)
	}
	defer rows.Close()

	var coupons []models.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, *c)
	}
	return coupons, rows.Err()
}

// CountActiveCoupons counts unredeemed, unexpired coupons for the counter sync.
func (r *Repository) CountActiveCoupons(ctx context.Context, userID, businessID string, asOf time.Time) (int, error) {
	var count int
	err := r.q(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM coupons
		WHERE user_id = $1 AND business_id = $2
		  AND is_redeemed = false
		  AND (expired_at IS NULL OR expired_at > $3)
	`, userID, businessID, asOf).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active coupons: %w", err)
	}
	return count, nil
}

// GetBusiness fetches a tenant. Returns sql.ErrNoRows when absent; lookups
// never provision implicitly.
func (r *Repository) GetBusiness(ctx context.Context, id string) (*models.Business, error) {
	var b models.Business
	err := r.q(ctx).QueryRowContext(ctx, `
		SELECT id, brand_id, name, email, phone, created_at
		FROM businesses WHERE id = $1
	`, id).Scan(&b.ID, &b.BrandID, &b.Name, &b.Email, &b.Phone, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ProvisionBusiness creates a brand and a business under it in one
// transaction. This is the explicit replacement for the old create-on-first-
// reference behavior.
func (r *Repository) ProvisionBusiness(ctx context.Context, brandName string, b *models.Business) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if b.BrandID == uuid.Nil {
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO brands (name) VALUES ($1) RETURNING id
		`, brandName).Scan(&b.BrandID); err != nil {
			return fmt.Errorf("failed to create brand: %w", err)
		}
	}

	if err := tx.QueryRowContext(ctx, `
		INSERT INTO businesses (id, brand_id, name, email, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, b.ID, b.BrandID, b.Name, b.Email, b.Phone).Scan(&b.CreatedAt); err != nil {
		return fmt.Errorf("failed to create business: %w", err)
	}

	return tx.Commit()
}
