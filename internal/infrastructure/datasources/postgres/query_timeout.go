package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
)

const queryCancelKey = "farmvet:query_cancel"

// RegisterQueryTimeout gives every statement run through the gorm callbacks
// its own deadline. A caller deadline that is already shorter wins.
func RegisterQueryTimeout(db *gorm.DB, timeout time.Duration) error {
	if timeout <= 0 {
		return nil
	}

	start := func(tx *gorm.DB) {
		ctx := tx.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		tx.Statement.Context = ctx
		tx.InstanceSet(queryCancelKey, cancel)
	}
	finish := func(tx *gorm.DB) {
		if v, ok := tx.InstanceGet(queryCancelKey); ok {
			if cancel, ok := v.(context.CancelFunc); ok {
				cancel()
			}
		}
	}

	// bound the statement only; the implicit transaction keeps the caller context
	cb := db.Callback()
	steps := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("timeout:start_create", start) },
		func() error { return cb.Create().After("gorm:create").Register("timeout:finish_create", finish) },
		func() error { return cb.Query().Before("gorm:query").Register("timeout:start_query", start) },
		func() error { return cb.Query().After("gorm:query").Register("timeout:finish_query", finish) },
		func() error { return cb.Update().Before("gorm:update").Register("timeout:start_update", start) },
		func() error { return cb.Update().After("gorm:update").Register("timeout:finish_update", finish) },
		func() error { return cb.Delete().Before("gorm:delete").Register("timeout:start_delete", start) },
		func() error { return cb.Delete().After("gorm:delete").Register("timeout:finish_delete", finish) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
