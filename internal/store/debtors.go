package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deudbot/backend/internal/models"
	"github.com/deudbot/backend/internal/phone"
	"github.com/shopspring/decimal"
)

const debtorColumns = "id, name, phone, balance, notes, active, created_at, updated_at"

func scanDebtor(row interface{ Scan(...any) error }) (models.Debtor, error) {
	var d models.Debtor
	err := row.Scan(&d.ID, &d.Name, &d.Phone, &d.Balance, &d.Notes, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

// ListActiveDebtors returns active debtors ordered by name then id, which is
// also the tie-break order the name resolver relies on.
func (s *Store) ListActiveDebtors(ctx context.Context) ([]models.Debtor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+debtorColumns+`
		FROM debtors
		WHERE active = TRUE
		ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list debtors: %w", err)
	}
	defer rows.Close()

	var debtors []models.Debtor
	for rows.Next() {
		d, err := scanDebtor(rows)
		if err != nil {
			return nil, err
		}
		debtors = append(debtors, d)
	}
	return debtors, rows.Err()
}

func (s *Store) GetDebtor(ctx context.Context, id int64) (models.Debtor, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+debtorColumns+`
		FROM debtors
		WHERE id = $1 AND active = TRUE
	`, id)
	d, err := scanDebtor(row)
	if err == sql.ErrNoRows {
		return models.Debtor{}, ErrNotFound
	}
	if err != nil {
		return models.Debtor{}, fmt.Errorf("get debtor %d: %w", id, err)
	}
	return d, nil
}

// FindByChannelAddress locates a debtor by the digits of an inbound chat
// address. The stored phone may carry formatting punctuation, and the sender
// address may carry a country prefix the stored number lacks, so the match
// also accepts a trailing-10-digit suffix.
func (s *Store) FindByChannelAddress(ctx context.Context, address string) (models.Debtor, error) {
	digits := phone.Normalize(address)
	if digits == "" {
		return models.Debtor{}, ErrNotFound
	}
	suffix := digits
	if len(suffix) > 10 {
		suffix = suffix[len(suffix)-10:]
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+debtorColumns+`
		FROM debtors
		WHERE active = TRUE AND (
			regexp_replace(phone, '\D', '', 'g') = $1
			OR regexp_replace(phone, '\D', '', 'g') LIKE '%' || $2
		)
		ORDER BY id ASC
		LIMIT 1
	`, digits, suffix)
	d, err := scanDebtor(row)
	if err == sql.ErrNoRows {
		return models.Debtor{}, ErrNotFound
	}
	if err != nil {
		return models.Debtor{}, fmt.Errorf("find by address: %w", err)
	}
	return d, nil
}

// CreateDebtor inserts a debtor and, when starting is positive, the seed
// charge entry that backs the starting balance. A duplicate phone among
// active debtors yields ErrAlreadyExists.
func (s *Store) CreateDebtor(ctx context.Context, name, phoneNumber string, starting decimal.Decimal, notes string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO debtors (name, phone, balance, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, name, phoneNumber, starting, notes).Scan(&id)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("phone %s: %w", phoneNumber, ErrAlreadyExists)
	}
	if err != nil {
		return 0, fmt.Errorf("create debtor: %w", err)
	}

	if starting.IsPositive() {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ledger_entries (debtor_id, amount, kind, memo)
			VALUES ($1, $2, $3, $4)
		`, id, starting, models.EntryCharge, "Deuda inicial")
		if err != nil {
			return 0, fmt.Errorf("seed entry: %w", err)
		}
	}

	return id, tx.Commit()
}

// UpdateDebtor changes the editable fields. Balance is deliberately not one
// of them: balance moves only through AppendLedgerEntry.
func (s *Store) UpdateDebtor(ctx context.Context, id int64, name, phoneNumber, notes string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE debtors
		SET name = $1, phone = $2, notes = $3, updated_at = NOW()
		WHERE id = $4 AND active = TRUE
	`, name, phoneNumber, notes, id)
	if isUniqueViolation(err) {
		return fmt.Errorf("phone %s: %w", phoneNumber, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("update debtor %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SoftDeleteDebtor(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE debtors
		SET active = FALSE, updated_at = NOW()
		WHERE id = $1 AND active = TRUE
	`, id)
	if err != nil {
		return fmt.Errorf("delete debtor %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
