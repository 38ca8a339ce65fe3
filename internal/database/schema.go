package database

import (
	"context"
	"database/sql"
)

// schema lists every table the service owns. Statements are idempotent so
// the bootstrap can run on every start. Business timestamps are CHAR text
// ("YYYY-MM-DD HH:MM:SS", dates "YYYY-MM-DD") in the lot's local time.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS operators (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(190) NOT NULL UNIQUE,
		password_hash VARCHAR(100) NOT NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'OPERATOR',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		operator_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		revoked_at TIMESTAMP NULL DEFAULT NULL,
		KEY idx_refresh_hash (token_hash),
		KEY idx_refresh_operator (operator_id)
	)`,
	`CREATE TABLE IF NOT EXISTS tariffs (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		car_rate_cents BIGINT NOT NULL,
		moto_rate_cents BIGINT NOT NULL,
		daily_cap_cents BIGINT NOT NULL,
		grace_minutes INT NOT NULL,
		monthly_car_cents BIGINT NOT NULL,
		monthly_moto_cents BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		plate CHAR(7) NOT NULL,
		vehicle_type VARCHAR(16) NOT NULL,
		spot_label VARCHAR(16) NOT NULL DEFAULT '',
		client_type VARCHAR(16) NOT NULL DEFAULT 'WALK_IN',
		entered_at CHAR(19) NOT NULL,
		exited_at CHAR(19) NULL DEFAULT NULL,
		amount_cents BIGINT NULL DEFAULT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'PARKED',
		cash_session_id BIGINT UNSIGNED NULL DEFAULT NULL,
		payment_method VARCHAR(16) NULL DEFAULT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_tickets_plate_status (plate, status),
		KEY idx_tickets_session (cash_session_id)
	)`,
	`CREATE TABLE IF NOT EXISTS subscribers (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		plate CHAR(7) NOT NULL UNIQUE,
		vehicle_type VARCHAR(16) NOT NULL,
		plan VARCHAR(16) NOT NULL DEFAULT 'MONTHLY',
		activation VARCHAR(16) NOT NULL DEFAULT 'IMMEDIATE',
		cycle_start CHAR(10) NULL DEFAULT NULL,
		cycle_end CHAR(10) NULL DEFAULT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS cash_sessions (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		operator_id BIGINT UNSIGNED NOT NULL,
		opening_float_cents BIGINT NOT NULL,
		opened_at CHAR(19) NOT NULL,
		closed_at CHAR(19) NULL DEFAULT NULL,
		closing_balance_cents BIGINT NULL DEFAULT NULL,
		counted_cents BIGINT NULL DEFAULT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'OPEN',
		KEY idx_cash_sessions_status (status)
	)`,
	`CREATE TABLE IF NOT EXISTS finance_entries (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		kind VARCHAR(16) NOT NULL,
		source VARCHAR(16) NOT NULL,
		description VARCHAR(255) NOT NULL,
		amount_cents BIGINT NOT NULL,
		method VARCHAR(16) NULL DEFAULT NULL,
		entry_date CHAR(10) NOT NULL,
		cash_session_id BIGINT UNSIGNED NULL DEFAULT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_finance_date (entry_date)
	)`,
}

// Default tariff values seeded when the table is empty, in cents: R$10/h for
// cars, R$5/h for motorcycles, R$50 daily cap, 15 minutes of grace and the
// monthly plan prices.
const seedTariff = `INSERT INTO tariffs
	(car_rate_cents, moto_rate_cents, daily_cap_cents, grace_minutes, monthly_car_cents, monthly_moto_cents)
	VALUES (1000, 500, 5000, 15, 15000, 8000)`

// InitSchema creates all tables if they do not exist and seeds the singleton
// tariff row. It is safe to call on every startup.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tariffs`).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		if _, err := db.ExecContext(ctx, seedTariff); err != nil {
			return err
		}
	}
	return nil
}
