package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deudbot/backend/internal/models"
	"github.com/shopspring/decimal"
)

// AppendLedgerEntry writes one immutable entry and applies its signed delta
// to the denormalized balance in the same transaction. The balance update is
// a single relative UPDATE, so two concurrent appends against the same
// debtor serialize at the database and neither increment is lost. Returns
// the debtor post-state.
func (s *Store) AppendLedgerEntry(ctx context.Context, debtorID int64, amount decimal.Decimal, memo string, kind models.EntryKind) (models.Debtor, error) {
	if !amount.IsPositive() {
		return models.Debtor{}, fmt.Errorf("append entry: amount must be positive")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Debtor{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (debtor_id, amount, kind, memo)
		VALUES ($1, $2, $3, $4)
	`, debtorID, amount, kind, memo)
	if err != nil {
		return models.Debtor{}, fmt.Errorf("insert entry: %w", err)
	}

	delta := amount
	if kind == models.EntryPayment {
		delta = amount.Neg()
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE debtors
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2 AND active = TRUE
		RETURNING `+debtorColumns+`
	`, delta, debtorID)
	debtor, err := scanDebtor(row)
	if err == sql.ErrNoRows {
		return models.Debtor{}, fmt.Errorf("update balance for debtor %d: %w", debtorID, ErrNotFound)
	}
	if err != nil {
		return models.Debtor{}, fmt.Errorf("update balance for debtor %d: %w", debtorID, err)
	}

	if err := tx.Commit(); err != nil {
		return models.Debtor{}, err
	}
	return debtor, nil
}

// ListEntries returns the most recent entries first.
func (s *Store) ListEntries(ctx context.Context, debtorID int64, limit int) ([]models.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, debtor_id, amount, kind, memo, created_at
		FROM ledger_entries
		WHERE debtor_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, debtorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.DebtorID, &e.Amount, &e.Kind, &e.Memo, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
