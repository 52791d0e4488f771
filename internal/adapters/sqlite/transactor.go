package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/lotledger/internal/models"
	"github.com/example/lotledger/internal/ports/secondary"
)

// Transactor implements secondary.Transactor over a SQLite database opened
// with db.SQLiteDSN, so every transaction starts with BEGIN IMMEDIATE.
type Transactor struct {
	db      *sql.DB
	timeout time.Duration
}

// NewTransactor creates a Transactor. A positive timeout bounds every transaction.
func NewTransactor(db *sql.DB, timeout time.Duration) *Transactor {
	return &Transactor{db: db, timeout: timeout}
}

// WithinTx runs fn in a transaction and commits when it returns nil.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, uow secondary.UnitOfWork) error) (err error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return translate("failed to begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, &unitOfWork{tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return translate("failed to commit transaction", err)
	}
	return nil
}

type unitOfWork struct {
	tx *sql.Tx
}

func (u *unitOfWork) Items(kind models.ItemKind) (secondary.ItemStore, error) {
	repo, err := NewItemRepository(u.tx, kind)
	if err != nil {
		return nil, fmt.Errorf("no store for kind: %w", err)
	}
	return repo, nil
}

func (u *unitOfWork) Sequences() secondary.SequenceRepository {
	return NewSequenceRepository(u.tx)
}

// Ensure Transactor implements the interface
var _ secondary.Transactor = (*Transactor)(nil)
