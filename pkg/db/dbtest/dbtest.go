// Package dbtest opens throwaway sqlite databases carrying the storefront schema.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var seq atomic.Int64

// schema mirrors the goose migrations with sqlite column types.
var schema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT,
		role TEXT NOT NULL DEFAULT 'CUSTOMER',
		created_at DATETIME
	)`,
	`CREATE TABLE products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		price NUMERIC NOT NULL,
		stock INTEGER NOT NULL DEFAULT 0,
		image_url TEXT,
		weight_kg NUMERIC,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE coupons (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		description TEXT,
		discount_type TEXT NOT NULL,
		discount_value NUMERIC NOT NULL,
		min_purchase NUMERIC,
		max_discount NUMERIC,
		usage_limit INTEGER,
		usage_count INTEGER NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		starts_at DATETIME NOT NULL,
		expires_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE shipping_zones (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		zip_code_start TEXT NOT NULL,
		zip_code_end TEXT NOT NULL,
		base_price NUMERIC NOT NULL,
		price_per_kg NUMERIC NOT NULL DEFAULT 0,
		free_shipping_min NUMERIC,
		estimated_days INTEGER NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		order_number TEXT NOT NULL UNIQUE,
		user_id TEXT NOT NULL,
		coupon_id TEXT,
		status TEXT NOT NULL DEFAULT 'PENDING',
		subtotal NUMERIC NOT NULL,
		discount NUMERIC NOT NULL DEFAULT 0,
		shipping_cost NUMERIC NOT NULL DEFAULT 0,
		total NUMERIC NOT NULL,
		notes TEXT,
		tracking_number TEXT,
		tracking_url TEXT,
		shipping_name TEXT NOT NULL DEFAULT '',
		shipping_street TEXT NOT NULL DEFAULT '',
		shipping_number TEXT NOT NULL DEFAULT '',
		shipping_complement TEXT,
		shipping_district TEXT NOT NULL DEFAULT '',
		shipping_city TEXT NOT NULL DEFAULT '',
		shipping_state TEXT NOT NULL DEFAULT '',
		shipping_zip_code TEXT NOT NULL DEFAULT '',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE order_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		product_image TEXT,
		unit_price NUMERIC NOT NULL,
		quantity INTEGER NOT NULL,
		total_price NUMERIC NOT NULL
	)`,
	`CREATE TABLE payments (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL UNIQUE,
		method TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		amount NUMERIC NOT NULL,
		external_id TEXT UNIQUE,
		card_last_four TEXT,
		card_brand TEXT,
		installments INTEGER,
		pix_code TEXT,
		pix_qr_code TEXT,
		pix_expires_at DATETIME,
		boleto_url TEXT,
		boleto_barcode TEXT,
		boleto_due_date DATETIME,
		paid_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload BLOB NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
}

// Open returns a fresh in-memory database with every storefront table created.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_loc=UTC", name, seq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return conn
}
