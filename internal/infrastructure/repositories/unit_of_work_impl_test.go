package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"farmvet-auth.backend/internal/domain/entities"
)

func TestUnitOfWork_DoCommitAndRollback(t *testing.T) {
	db := newTestDB(t)
	createAccountTable(t, db)
	createTokenTables(t, db)
	u := &UnitOfWorkImpl{db: db}
	accounts := NewAccountRepository(db)
	tokens := NewTokenRepository(db)

	// commit path
	err := u.Do(context.Background(), func(ctx context.Context) error {
		a := newFarmer("u1", "u1@x.com", "+1")
		if err := accounts.Create(ctx, a); err != nil {
			return err
		}
		return tokens.Create(ctx, &entities.VerificationToken{AccountID: a.ID, Purpose: entities.PurposeEmailVerification, Code: "123456"})
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Table("users").Count(&count).Error)
	require.Equal(t, int64(1), count)

	// rollback path
	err = u.Do(context.Background(), func(ctx context.Context) error {
		a := newFarmer("u2", "u2@x.com", "+2")
		if err := accounts.Create(ctx, a); err != nil {
			return err
		}
		if err := tokens.Create(ctx, &entities.VerificationToken{AccountID: a.ID, Purpose: entities.PurposeEmailVerification, Code: "654321"}); err != nil {
			return err
		}
		return errors.New("force rollback")
	})
	require.Error(t, err)

	require.NoError(t, db.Table("users").Count(&count).Error)
	require.Equal(t, int64(1), count, "second account must be rolled back")
	require.NoError(t, db.Table("email_verification_tokens").Count(&count).Error)
	require.Equal(t, int64(1), count, "second token must be rolled back")
}

func TestUnitOfWork_NestedJoinsOuter(t *testing.T) {
	db := newTestDB(t)
	createAccountTable(t, db)
	u := &UnitOfWorkImpl{db: db}
	accounts := NewAccountRepository(db)

	err := u.Do(context.Background(), func(ctx context.Context) error {
		outer := GetDB(ctx, db)
		return u.Do(ctx, func(inner context.Context) error {
			require.Equal(t, outer, GetDB(inner, db))
			return accounts.Create(inner, newFarmer("n1", "n1@x.com", "+3"))
		})
	})
	require.NoError(t, err)
}

func TestUnitOfWork_GetDB(t *testing.T) {
	db := newTestDB(t)
	u := &UnitOfWorkImpl{db: db}

	plainDB := u.GetDB(context.Background())
	require.Equal(t, db, plainDB)

	tx := db.Begin()
	txCtx := context.WithValue(context.Background(), txKey, tx)
	require.Equal(t, tx, u.GetDB(txCtx))
	tx.Rollback()
}

func TestUnitOfWork_DoBeginFailure(t *testing.T) {
	db := newTestDB(t)
	u := &UnitOfWorkImpl{db: db}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	err = u.Do(context.Background(), func(ctx context.Context) error {
		return nil
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to begin transaction")
}

func TestUnitOfWork_DoCommitFailure_WithHook(t *testing.T) {
	db := newTestDB(t)
	createAccountTable(t, db)
	u := &UnitOfWorkImpl{db: db}

	origCommit := commitTx
	t.Cleanup(func() { commitTx = origCommit })
	commitTx = func(tx *gorm.DB) error {
		return errors.New("forced commit fail")
	}

	err := u.Do(context.Background(), func(ctx context.Context) error {
		return NewAccountRepository(db).Create(ctx, newFarmer("c1", "c1@x.com", "+4"))
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to commit transaction")
}
