package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/Returnacy/chepizzadasalva-sub000/models"

	"github.com/google/uuid"
)

// memStore is an in-memory stand-in for the SQL repository, good enough for
// engine and lifecycle tests. Coupon created_at timestamps are strictly
// increasing so replay order matches the repository's ORDER BY.
type memStore struct {
	mu      sync.Mutex
	lock    sync.Mutex
	base    time.Time
	seq     int
	stamps  []models.Stamp
	prizes  []models.Prize
	coupons []models.Coupon
}

func newMemStore() *memStore {
	return &memStore{base: time.Now().Add(-time.Hour)}
}

func (m *memStore) nextTime() time.Time {
	m.seq++
	return m.base.Add(time.Duration(m.seq) * time.Millisecond)
}

func (m *memStore) WithUserLock(ctx context.Context, userID, businessID string, fn func(ctx context.Context) error) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	return fn(ctx)
}

func (m *memStore) AppendStamps(ctx context.Context, userID, businessID string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bizID, err := uuid.Parse(businessID)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		m.stamps = append(m.stamps, models.Stamp{
			ID:         uuid.New(),
			UserID:     userID,
			BusinessID: bizID,
			CreatedAt:  m.nextTime(),
		})
	}
	return nil
}

func (m *memStore) CountValidStamps(ctx context.Context, userID, businessID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, s := range m.stamps {
		if s.UserID == userID && s.BusinessID.String() == businessID && !s.IsRedeemed {
			count++
		}
	}
	return count, nil
}

func (m *memStore) RedeemOldestStamp(ctx context.Context, userID, businessID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.stamps {
		s := &m.stamps[i]
		if s.UserID == userID && s.BusinessID.String() == businessID && !s.IsRedeemed {
			s.IsRedeemed = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListPrizesForBusiness(ctx context.Context, businessID string) ([]models.Prize, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Prize
	for _, p := range m.prizes {
		if p.BusinessID != nil && p.BusinessID.String() == businessID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) GetPrize(ctx context.Context, id string) (*models.Prize, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.prizes {
		if p.ID.String() == id {
			prize := p
			return &prize, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) InsertCoupon(ctx context.Context, c *models.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.coupons {
		if existing.BusinessID == c.BusinessID && existing.Code == c.Code {
			return ErrCouponCodeExists
		}
	}
	c.CreatedAt = m.nextTime()
	m.coupons = append(m.coupons, *c)
	return nil
}

func (m *memStore) ListCouponsForUser(ctx context.Context, userID, businessID string) ([]models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Coupon
	for _, c := range m.coupons {
		if c.UserID == userID && c.BusinessID.String() == businessID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) GetCouponByID(ctx context.Context, id string) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.coupons {
		if c.ID.String() == id {
			coupon := c
			return &coupon, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) GetCouponByCode(ctx context.Context, code, businessID string) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.coupons {
		if c.Code == code && c.BusinessID.String() == businessID {
			coupon := c
			return &coupon, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) MarkCouponRedeemed(ctx context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.coupons {
		c := &m.coupons[i]
		if c.ID.String() == id {
			if c.IsRedeemed {
				return false, nil
			}
			c.IsRedeemed = true
			redeemedAt := at
			c.RedeemedAt = &redeemedAt
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListActiveCoupons(ctx context.Context, userID, businessID string, asOf time.Time) ([]models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Coupon
	for _, c := range m.coupons {
		if c.UserID == userID && c.BusinessID.String() == businessID && c.Active(asOf) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) CountActiveCoupons(ctx context.Context, userID, businessID string, asOf time.Time) (int, error) {
	coupons, err := m.ListActiveCoupons(ctx, userID, businessID, asOf)
	if err != nil {
		return 0, err
	}
	return len(coupons), nil
}

// addPrize registers a prize scoped to the business.
func (m *memStore) addPrize(businessID uuid.UUID, name string, points int, promotional bool) models.Prize {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := models.Prize{
		ID:             uuid.New(),
		BusinessID:     &businessID,
		Name:           name,
		PointsRequired: points,
		IsPromotional:  promotional,
		CreatedAt:      m.nextTime(),
	}
	m.prizes = append(m.prizes, p)
	return p
}

type syncCall struct {
	userID     string
	businessID string
	update     CounterUpdate
}

// recordingSyncer captures every counter push.
type recordingSyncer struct {
	mu    sync.Mutex
	calls []syncCall
}

func (r *recordingSyncer) SyncCounters(ctx context.Context, userID, businessID string, update CounterUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, syncCall{userID: userID, businessID: businessID, update: update})
	return nil
}

// failingSyncer always fails, simulating an unreachable user-service.
type failingSyncer struct {
	mu    sync.Mutex
	calls int
}

func (f *failingSyncer) SyncCounters(ctx context.Context, userID, businessID string, update CounterUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return context.DeadlineExceeded
}
