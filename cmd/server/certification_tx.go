package main

import (
	"context"
	"database/sql"
	"time"

	"certo/internal/certification/service"
	"certo/internal/certification/store"
	dErrors "certo/pkg/domain-errors"
)

const defaultCertificationTxTimeout = 5 * time.Second

// certificationPostgresTx runs every engine operation in a serializable
// transaction. Serializable isolation is what makes the allocator's capacity
// re-check and the one-active-process conditional insert safe under
// concurrent requests across instances.
type certificationPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newCertificationPostgresTx(db *sql.DB) *certificationPostgresTx {
	return &certificationPostgresTx{db: db}
}

func (t *certificationPostgresTx) RunInTx(ctx context.Context, fn func(store service.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultCertificationTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(store.NewPostgresTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}
