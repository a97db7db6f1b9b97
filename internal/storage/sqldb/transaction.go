package sqldb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"joconde_watcher/internal/domain"
)

type ctxKey string

const txKey ctxKey = "tx"

const savepointName = "notice_record"

type TransactionManager struct {
	db *sqlx.DB
}

func NewTransactionManager(db *sqlx.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

// WithTransaction runs fn inside one transaction. Errors from fn roll back;
// a failing commit is returned wrapped in domain.ErrCommit.
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := tm.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey, tx)

	if err := fn(txCtx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCommit, err)
	}
	return nil
}

// WithSavepoint runs fn behind a savepoint of the transaction carried by
// ctx. When fn fails the savepoint is rolled back and fn's error is
// returned as is, leaving the transaction usable. Savepoint statements that
// fail themselves are reported wrapped in domain.ErrSavepoint.
func (tm *TransactionManager) WithSavepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	tx := GetTxFromContext(ctx)
	if tx == nil {
		return fmt.Errorf("%w: no transaction in context", domain.ErrSavepoint)
	}

	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+savepointName); err != nil {
		return fmt.Errorf("%w: create: %w", domain.ErrSavepoint, err)
	}

	if fnErr := fn(ctx); fnErr != nil {
		if _, err := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+savepointName); err != nil {
			return errors.Join(fnErr, fmt.Errorf("%w: rollback: %w", domain.ErrSavepoint, err))
		}
		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+savepointName); err != nil {
			return errors.Join(fnErr, fmt.Errorf("%w: release: %w", domain.ErrSavepoint, err))
		}
		return fnErr
	}

	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+savepointName); err != nil {
		return fmt.Errorf("%w: release: %w", domain.ErrSavepoint, err)
	}
	return nil
}

func GetTxFromContext(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey).(*sqlx.Tx)
	return tx
}

func GetExecutor(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx := GetTxFromContext(ctx); tx != nil {
		return tx
	}
	return db
}
