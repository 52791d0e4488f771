// Package postgres contains Postgres implementations of the ledger storage
// ports. Connections go through database/sql with the pgx driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/example/lotledger/internal/db"
	"github.com/example/lotledger/internal/models"
	"github.com/example/lotledger/internal/ports/secondary"
)

// Open connects to dsn, verifies the connection and applies the schema.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	database, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	if err := ApplySchema(ctx, database); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// ApplySchema creates the ledger tables when they are missing.
func ApplySchema(ctx context.Context, database *sql.DB) error {
	for _, stmt := range db.SplitStatements(db.PostgresSchemaSQL) {
		if _, err := database.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Transactor implements secondary.Transactor on Postgres. Transactions run at
// READ COMMITTED; rows read for update are locked with SELECT ... FOR UPDATE.
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
	return NewItemRepository(u.tx, kind)
}

func (u *unitOfWork) Sequences() secondary.SequenceRepository {
	return NewSequenceRepository(u.tx)
}

// Ensure Transactor implements the interface
var _ secondary.Transactor = (*Transactor)(nil)
