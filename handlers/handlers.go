package handlers

import (
	"github.com/Returnacy/chepizzadasalva-sub000/database"
	"github.com/Returnacy/chepizzadasalva-sub000/services"
)

var (
	db        *database.DB
	repo      *database.Repository
	engine    *services.StampEngine
	couponSvc *services.CouponService
	prizes    services.PrizeStore
)

// InitializeHandlers wires the shared dependencies into the handler package.
// Called once from main after the database and services are constructed.
func InitializeHandlers(d *database.DB, r *database.Repository, e *services.StampEngine, cs *services.CouponService, ps services.PrizeStore) {
	db = d
	repo = r
	engine = e
	couponSvc = cs
	prizes = ps
}
