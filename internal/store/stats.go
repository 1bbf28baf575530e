package store

import (
	"context"
	"fmt"

	"github.com/deudbot/backend/internal/models"
)

// Stats computes the dashboard aggregates in one round trip.
func (s *Store) Stats(ctx context.Context) (models.Stats, error) {
	var stats models.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM debtors WHERE active = TRUE),
			(SELECT COUNT(*) FROM debtors WHERE active = TRUE AND balance > 0),
			(SELECT COALESCE(SUM(balance), 0) FROM debtors WHERE active = TRUE),
			(SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE kind = 'payment'),
			(SELECT COUNT(*) FROM message_log WHERE created_at >= CURRENT_DATE)
	`).Scan(&stats.Debtors, &stats.WithDebt, &stats.TotalBalance, &stats.TotalPaid, &stats.MessagesToday)
	if err != nil {
		return models.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return stats, nil
}
