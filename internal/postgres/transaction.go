package postgres

import (
	"context"
	"database/sql"
	"fmt"

	ierr "github.com/flexprice/recurring/internal/errors"
	"github.com/flexprice/recurring/internal/types"
	"github.com/jmoiron/sqlx"
)

// Tx is one database transaction shared by every nesting level that runs
// inside it. Inner levels are savepoints.
type Tx struct {
	*sqlx.Tx
	ID    string // Unique ID for tracing
	depth int
}

// txScope is what a context carries: the shared Tx plus the savepoint owned
// by the level that created the context, empty at the top level
type txScope struct {
	tx        *Tx
	savepoint string
}

func scopeFrom(ctx context.Context) (*txScope, bool) {
	scope, ok := ctx.Value(types.CtxDBTransaction).(*txScope)
	return scope, ok
}

// GetTx retrieves a transaction from the context if it exists
func GetTx(ctx context.Context) (*Tx, bool) {
	scope, ok := scopeFrom(ctx)
	if !ok {
		return nil, false
	}
	return scope.tx, true
}

// BeginTx starts a transaction, or a savepoint when ctx already carries one.
// The returned context must be passed to CommitTx or RollbackTx.
func (db *DB) BeginTx(ctx context.Context) (context.Context, *Tx, error) {
	if tx, ok := GetTx(ctx); ok {
		tx.depth++
		savepoint := fmt.Sprintf("sp_%d", tx.depth)

		db.logger.Debugw("creating savepoint", "tx_id", tx.ID, "savepoint", savepoint)

		if _, err := tx.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
			tx.depth--
			return ctx, nil, ierr.WithError(err).
				WithHint("Failed to create savepoint").
				Mark(ierr.ErrDatabase)
		}
		return context.WithValue(ctx, types.CtxDBTransaction, &txScope{tx: tx, savepoint: savepoint}), tx, nil
	}

	sqlxTx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return ctx, nil, ierr.WithError(err).
			WithHint("Failed to begin transaction").
			Mark(ierr.ErrDatabase)
	}

	tx := &Tx{Tx: sqlxTx, ID: types.GenerateUUID()}
	db.logger.Debugw("starting new transaction", "tx_id", tx.ID)

	return context.WithValue(ctx, types.CtxDBTransaction, &txScope{tx: tx}), tx, nil
}

// CommitTx commits the level that created ctx
func (db *DB) CommitTx(ctx context.Context) error {
	scope, ok := scopeFrom(ctx)
	if !ok {
		return ierr.NewError("no transaction in context").Mark(ierr.ErrDatabase)
	}

	if scope.savepoint != "" {
		db.logger.Debugw("releasing savepoint", "tx_id", scope.tx.ID, "savepoint", scope.savepoint)
		scope.tx.depth--
		if _, err := scope.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+scope.savepoint); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to release savepoint").
				Mark(ierr.ErrDatabase)
		}
		return nil
	}

	db.logger.Debugw("committing transaction", "tx_id", scope.tx.ID)
	if err := scope.tx.Commit(); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to commit transaction").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// RollbackTx rolls back the level that created ctx
func (db *DB) RollbackTx(ctx context.Context) error {
	scope, ok := scopeFrom(ctx)
	if !ok {
		return ierr.NewError("no transaction in context").Mark(ierr.ErrDatabase)
	}

	if scope.savepoint != "" {
		db.logger.Debugw("rolling back to savepoint", "tx_id", scope.tx.ID, "savepoint", scope.savepoint)
		scope.tx.depth--
		if _, err := scope.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+scope.savepoint); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to roll back savepoint").
				Mark(ierr.ErrDatabase)
		}
		return nil
	}

	db.logger.Debugw("rolling back transaction", "tx_id", scope.tx.ID)
	if err := scope.tx.Rollback(); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to roll back transaction").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// WithTx runs fn in a transaction, or in a savepoint when ctx already
// carries one. fn's error is returned unchanged after the rollback.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	txCtx, tx, err := db.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			db.logger.Errorw("panic in transaction", "tx_id", tx.ID, "panic", r)
			_ = db.RollbackTx(txCtx)
			panic(r)
		}
	}()

	if err := fn(txCtx); err != nil {
		db.logger.Debugw("transaction failed", "tx_id", tx.ID, "error", err)
		if rbErr := db.RollbackTx(txCtx); rbErr != nil {
			db.logger.Errorw("rollback failed", "tx_id", tx.ID, "error", rbErr, "cause", err)
		}
		return err
	}

	return db.CommitTx(txCtx)
}
