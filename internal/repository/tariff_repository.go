package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rflras87/estacionamento/internal/model"
)

// tariffCacheKey is where the serialized singleton row lives in Redis.
const tariffCacheKey = "tariff:current"

// tariffCacheTTL bounds staleness if an update ever fails to invalidate.
const tariffCacheTTL = 5 * time.Minute

// TariffRepo reads and updates the singleton tariff row. Every fee
// computation reads the tariff, so reads go through a small Redis cache
// when a client is available; updates write through and invalidate. A nil
// Redis client disables caching entirely.
type TariffRepo struct {
	db  *sql.DB
	rdb *redis.Client
}

// NewTariffRepo returns a TariffRepo. rdb may be nil.
func NewTariffRepo(db *sql.DB, rdb *redis.Client) *TariffRepo {
	return &TariffRepo{db: db, rdb: rdb}
}

// Get returns the active tariff. The table holds exactly one row (seeded at
// bootstrap); a missing row is a deployment fault and surfaces as
// sql.ErrNoRows.
func (r *TariffRepo) Get(ctx context.Context) (model.Tariff, error) {
	if r.rdb != nil {
		if raw, err := r.rdb.Get(ctx, tariffCacheKey).Bytes(); err == nil {
			var t model.Tariff
			if err := json.Unmarshal(raw, &t); err == nil {
				return t, nil
			}
			// Corrupt cache entry: fall through to the database and rewrite.
		}
	}

	const q = `SELECT id, car_rate_cents, moto_rate_cents, daily_cap_cents,
	                  grace_minutes, monthly_car_cents, monthly_moto_cents
	           FROM tariffs ORDER BY id LIMIT 1`
	var t model.Tariff
	err := r.db.QueryRowContext(ctx, q).Scan(&t.ID, &t.CarRateCents, &t.MotoRateCents,
		&t.DailyCapCents, &t.GraceMinutes, &t.MonthlyCarCents, &t.MonthlyMotoCents)
	if err != nil {
		return model.Tariff{}, err
	}

	if r.rdb != nil {
		if raw, err := json.Marshal(t); err == nil {
			if err := r.rdb.Set(ctx, tariffCacheKey, raw, tariffCacheTTL).Err(); err != nil {
				log.Printf("tariff cache: set failed: %v", err)
			}
		}
	}
	return t, nil
}

// Update replaces the pricing fields of the singleton row and invalidates
// the cache. The id is preserved.
func (r *TariffRepo) Update(ctx context.Context, t model.Tariff) error {
	const q = `UPDATE tariffs SET car_rate_cents = ?, moto_rate_cents = ?,
	           daily_cap_cents = ?, grace_minutes = ?, monthly_car_cents = ?,
	           monthly_moto_cents = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, t.CarRateCents, t.MotoRateCents,
		t.DailyCapCents, t.GraceMinutes, t.MonthlyCarCents, t.MonthlyMotoCents, t.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	if r.rdb != nil {
		if err := r.rdb.Del(ctx, tariffCacheKey).Err(); err != nil {
			log.Printf("tariff cache: invalidate failed: %v", err)
		}
	}
	return nil
}
