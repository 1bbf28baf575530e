package chat

import (
	"strings"

	"github.com/deudbot/backend/internal/models"
)

// Resolve maps a free-text query to a single debtor. Matching is tiered and
// case-insensitive: exact name, then name starts-with, then name contains.
// The first non-empty tier wins. Within a tier the first debtor in the given
// slice wins; callers pass the store's name-ascending order, which makes the
// tie-break deterministic.
func Resolve(query string, debtors []models.Debtor) (models.Debtor, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return models.Debtor{}, false
	}

	for _, d := range debtors {
		if strings.ToLower(strings.TrimSpace(d.Name)) == q {
			return d, true
		}
	}
	for _, d := range debtors {
		if strings.HasPrefix(strings.ToLower(d.Name), q) {
			return d, true
		}
	}
	for _, d := range debtors {
		if strings.Contains(strings.ToLower(d.Name), q) {
			return d, true
		}
	}
	return models.Debtor{}, false
}
