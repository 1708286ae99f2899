package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"atelier/internal/service/production"
)

// Tx is the transactional view of the storage handed to the production
// workflow.
type Tx struct {
	tx *sql.Tx
}

var _ production.Tx = (*Tx)(nil)

// InTx runs fn in a READ COMMITTED transaction so that every read after a
// row lock sees the latest committed state.
func (s *Storage) InTx(ctx context.Context, fn func(ctx context.Context, tx production.Tx) error) error {
	const op = "storage.mysql.InTx"

	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("%s: begin transaction: %w", op, err)
	}
	defer sqlTx.Rollback()

	if err := fn(ctx, &Tx{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("%s: commit transaction: %w", op, err)
	}

	return nil
}
