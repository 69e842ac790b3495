package db

import (
	"context"
	"fmt"
)

var schema = []struct {
	table string
	ddl   string
}{
	{"trips", `
CREATE TABLE IF NOT EXISTS trips (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	trip_type VARCHAR(20) NOT NULL,
	trip_date DATE NOT NULL,
	passengers TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	KEY idx_type_date (trip_type, trip_date)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`},
	{"bookings", `
CREATE TABLE IF NOT EXISTS bookings (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	user_id BIGINT NOT NULL,
	trip_id BIGINT NOT NULL,
	address TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	KEY idx_user (user_id),
	KEY idx_trip (trip_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`},
	{"users", `
CREATE TABLE IF NOT EXISTS users (
	user_id BIGINT PRIMARY KEY,
	loyalty_points INT NOT NULL DEFAULT 0,
	banned TINYINT(1) NOT NULL DEFAULT 0,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`},
	{"financial_records", `
CREATE TABLE IF NOT EXISTS financial_records (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	date DATE NOT NULL,
	amount DECIMAL(12,2) NOT NULL DEFAULT 0,
	trip_type VARCHAR(20) NOT NULL,
	discount_applied DECIMAL(12,2) NOT NULL DEFAULT 0,
	bonus_points_used INT NOT NULL DEFAULT 0,
	KEY idx_date (date)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`},
}

// Columns added after the first deployment. Tables created by an older bot
// lack them.
var columns = []struct {
	table, column, ddl string
}{
	{"users", "loyalty_points", `ALTER TABLE users ADD COLUMN loyalty_points INT NOT NULL DEFAULT 0`},
	{"users", "banned", `ALTER TABLE users ADD COLUMN banned TINYINT(1) NOT NULL DEFAULT 0`},
}

// EnsureSchema creates missing tables and adds missing columns to tables
// that already existed. Existing data is left untouched.
func EnsureSchema(ctx context.Context, q DBTX) error {
	created := map[string]bool{}
	for _, t := range schema {
		if HasTable(ctx, q, t.table) {
			continue
		}
		if _, err := q.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("create table %s: %w", t.table, err)
		}
		created[t.table] = true
	}
	for _, c := range columns {
		if created[c.table] || HasColumn(ctx, q, c.table, c.column) {
			continue
		}
		if _, err := q.ExecContext(ctx, c.ddl); err != nil {
			return fmt.Errorf("add column %s.%s: %w", c.table, c.column, err)
		}
	}
	return nil
}
