package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deudbot/backend/internal/models"
)

// AppendMessageLog records one delivery attempt. debtorID is nil for
// messages tied to no registered debtor. The log is write-only.
func (s *Store) AppendMessageLog(ctx context.Context, debtorID *int64, kind models.MessageKind, body string, state models.MessageState) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO message_log (debtor_id, kind, body, state)
		VALUES ($1, $2, $3, $4)
	`, debtorID, kind, body, state)
	if err != nil {
		return fmt.Errorf("append message log: %w", err)
	}
	return nil
}

func (s *Store) RecentMessages(ctx context.Context, limit int) ([]models.MessageLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ml.id, ml.debtor_id, COALESCE(d.name, ''), ml.kind, ml.body, ml.state, ml.created_at
		FROM message_log ml
		LEFT JOIN debtors d ON ml.debtor_id = d.id
		ORDER BY ml.created_at DESC, ml.id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	defer rows.Close()

	var entries []models.MessageLogEntry
	for rows.Next() {
		var e models.MessageLogEntry
		var debtorID sql.NullInt64
		if err := rows.Scan(&e.ID, &debtorID, &e.DebtorName, &e.Kind, &e.Body, &e.State, &e.CreatedAt); err != nil {
			return nil, err
		}
		if debtorID.Valid {
			e.DebtorID = &debtorID.Int64
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
