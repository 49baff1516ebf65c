// Package dbtest opens throwaway SQLite databases that mirror the Postgres
// schema closely enough for repository and service tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var schema = []string{
	`CREATE TABLE accounts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'USER',
		provider_id TEXT,
		last_login_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE providers (
		id TEXT PRIMARY KEY,
		account_id TEXT,
		name TEXT NOT NULL,
		rating TEXT NOT NULL DEFAULT '5.00',
		jobs INTEGER NOT NULL DEFAULT 0,
		bio TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		website TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		availability TEXT NOT NULL DEFAULT '',
		specialties TEXT NOT NULL DEFAULT '',
		hourly_rate TEXT NOT NULL DEFAULT '0',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_providers_account ON providers(account_id) WHERE account_id IS NOT NULL`,
	`CREATE TABLE listings (
		id TEXT PRIMARY KEY,
		provider_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'LISTED',
		tags TEXT NOT NULL DEFAULT '',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		account_id TEXT,
		user_name TEXT NOT NULL,
		service TEXT NOT NULL DEFAULT 'Service request',
		provider_id TEXT NOT NULL,
		listing_id TEXT,
		conversation_id TEXT,
		status TEXT NOT NULL,
		amount TEXT NOT NULL DEFAULT '0',
		req_details TEXT NOT NULL DEFAULT '',
		req_date TEXT NOT NULL DEFAULT '',
		req_time TEXT NOT NULL DEFAULT '',
		req_ack BOOLEAN NOT NULL DEFAULT 0,
		jobs_counted_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE provider_reviews (
		id TEXT PRIMARY KEY,
		provider_id TEXT NOT NULL,
		order_id TEXT,
		account_id TEXT,
		author TEXT NOT NULL,
		rating INTEGER NOT NULL,
		text TEXT NOT NULL DEFAULT '',
		created_at DATETIME
	)`,
	`CREATE TABLE conversations (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL DEFAULT 'CHAT',
		title TEXT NOT NULL,
		provider_id TEXT,
		created_by TEXT NOT NULL,
		last_message TEXT NOT NULL DEFAULT '',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE conversation_members (
		conversation_id TEXT NOT NULL,
		account_id TEXT NOT NULL,
		joined_at DATETIME,
		PRIMARY KEY (conversation_id, account_id)
	)`,
	`CREATE TABLE messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		sender_name TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE favorites (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		provider_id TEXT NOT NULL,
		created_at DATETIME,
		UNIQUE (account_id, provider_id)
	)`,
	`CREATE TABLE interactions (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		provider_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
	`CREATE TABLE outbox_dlq (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		error_reason TEXT NOT NULL,
		error_message TEXT,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		failed_at DATETIME,
		created_at DATETIME
	)`,
}

// Open returns an isolated in-memory database with the marketplace schema.
// Callers must assign primary keys before inserting because the SQLite
// tables carry no uuid defaults.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// TxRunner satisfies the services' transaction dependency over a test database.
type TxRunner struct {
	DB *gorm.DB
}

func (r TxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.DB.WithContext(ctx).Transaction(fn)
}
