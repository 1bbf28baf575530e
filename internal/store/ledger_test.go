package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/deudbot/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendLedgerEntry(t *testing.T) {
	t.Run("payment applies a negative delta", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		amount := decimal.NewFromInt(20)
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO ledger_entries").
			WithArgs(int64(1), amount, models.EntryPayment, "Pago registrado").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectQuery("UPDATE debtors").
			WithArgs(amount.Neg(), int64(1)).
			WillReturnRows(debtorRows(t).
				AddRow(1, "Juan", "5512345678", "56.00", "", true, now, now))
		mock.ExpectCommit()

		s := New(db)
		updated, err := s.AppendLedgerEntry(context.Background(), 1, amount, "Pago registrado", models.EntryPayment)

		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(decimal.NewFromInt(56)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("charge applies a positive delta", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		amount := decimal.NewFromInt(15)
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO ledger_entries").
			WithArgs(int64(1), amount, models.EntryCharge, "Compras desde chat").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectQuery("UPDATE debtors").
			WithArgs(amount, int64(1)).
			WillReturnRows(debtorRows(t).
				AddRow(1, "Juan", "5512345678", "25.00", "", true, now, now))
		mock.ExpectCommit()

		s := New(db)
		updated, err := s.AppendLedgerEntry(context.Background(), 1, amount, "Compras desde chat", models.EntryCharge)

		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(decimal.NewFromInt(25)))
	})

	t.Run("missing debtor rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		amount := decimal.NewFromInt(5)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO ledger_entries").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectQuery("UPDATE debtors").
			WillReturnRows(debtorRows(t))
		mock.ExpectRollback()

		s := New(db)
		_, err = s.AppendLedgerEntry(context.Background(), 99, amount, "", models.EntryCharge)

		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update failure keeps the underlying error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO ledger_entries").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectQuery("UPDATE debtors").
			WillReturnError(errors.New("pq: deadlock detected"))
		mock.ExpectRollback()

		s := New(db)
		_, err = s.AppendLedgerEntry(context.Background(), 1, decimal.NewFromInt(5), "", models.EntryCharge)

		// A live debtor hit by a transient failure is not a 404.
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.ErrorContains(t, err, "deadlock detected")
	})

	t.Run("non positive amount is rejected before any write", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		s := New(db)
		_, err = s.AppendLedgerEntry(context.Background(), 1, decimal.Zero, "", models.EntryCharge)

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListEntries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM ledger_entries").
		WithArgs(int64(1), 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "debtor_id", "amount", "kind", "memo", "created_at"}).
			AddRow(2, 1, "20.00", "payment", "Pago registrado", now).
			AddRow(1, 1, "76.00", "charge", "Deuda inicial", now.Add(-time.Hour)))

	s := New(db)
	entries, err := s.ListEntries(context.Background(), 1, 10)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.EntryPayment, entries[0].Kind)
	assert.True(t, entries[0].Delta().Equal(decimal.NewFromInt(-20)))
	assert.True(t, entries[1].Delta().Equal(decimal.NewFromInt(76)))
}
