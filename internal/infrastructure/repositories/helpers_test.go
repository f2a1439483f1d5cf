package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection keeps the shared in-memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func countRows(t *testing.T, db *gorm.DB, table string, accountID uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Table(table).Where("user_id = ?", accountID).Count(&count).Error)
	return count
}

func createAccountTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		address TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		status TEXT NOT NULL,
		farm_name TEXT UNIQUE,
		nid_photo TEXT,
		specialization TEXT,
		certificate_photo TEXT,
		is_email_verified BOOLEAN NOT NULL,
		is_phone_verified BOOLEAN NOT NULL,
		is_active BOOLEAN NOT NULL,
		last_login_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createTokenTables(t *testing.T, db *gorm.DB) {
	for _, table := range []string{"email_verification_tokens", "phone_otps", "password_reset_tokens"} {
		mustExec(t, db, `CREATE TABLE `+table+` (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			code TEXT NOT NULL,
			used BOOLEAN NOT NULL,
			created_at DATETIME NOT NULL
		);`)
	}
	mustExec(t, db, `CREATE TABLE login_otps (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		email_code TEXT NOT NULL,
		phone_code TEXT,
		is_email_verified BOOLEAN NOT NULL,
		is_phone_verified BOOLEAN NOT NULL,
		used BOOLEAN NOT NULL,
		created_at DATETIME NOT NULL
	);`)
}
