package notify

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"

	"github.com/deudbot/backend/internal/models"
)

// ErrBulkInProgress guards against overlapping bulk runs: a scheduler tick
// that fires while a previous run is still pacing itself is refused instead
// of doubling up on the gateway.
var ErrBulkInProgress = errors.New("notify: bulk reminder run already in progress")

// SendBulkReminders notifies every active debtor with a strictly positive
// balance. One failure never aborts the batch: every eligible debtor is
// attempted and gets a message-log entry either way. Successful sends are
// spaced by a randomized delay to avoid bursting the gateway.
func (n *Notifier) SendBulkReminders(ctx context.Context) (sent, failed int, err error) {
	select {
	case <-n.bulkRunning:
		defer func() { n.bulkRunning <- struct{}{} }()
	default:
		return 0, 0, ErrBulkInProgress
	}

	debtors, err := n.store.ListActiveDebtors(ctx)
	if err != nil {
		return 0, 0, err
	}

	var eligible []models.Debtor
	for _, d := range debtors {
		if d.Balance.IsPositive() {
			eligible = append(eligible, d)
		}
	}

	for i, d := range eligible {
		if err := n.SendReminder(ctx, d, models.MessageReminder); err != nil {
			log.Printf("[NOTIFY] reminder to %s failed: %v", d.Name, err)
			failed++
			continue
		}
		sent++

		if i == len(eligible)-1 {
			break
		}
		delay := n.cfg.BulkBaseDelay
		if n.cfg.BulkMaxJitter > 0 {
			delay += time.Duration(rand.Int63n(int64(n.cfg.BulkMaxJitter)))
		}
		select {
		case <-ctx.Done():
			return sent, failed, ctx.Err()
		case <-time.After(delay):
		}
	}

	log.Printf("[NOTIFY] reminders: %d sent, %d failed", sent, failed)
	return sent, failed, nil
}
