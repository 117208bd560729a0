package parsers

import (
	"sort"

	"github.com/username/wealthfolio/src/models"
)

// MergeByID reconciles two transaction lists. Entries from primary win for
// duplicate ids; the merged result is resorted descending by date so the
// newest activity leads. Date ties keep primary-then-secondary order.
func MergeByID(primary, secondary []models.Transaction) []models.Transaction {
	seen := make(map[string]bool, len(primary))
	merged := make([]models.Transaction, 0, len(primary)+len(secondary))
	for _, t := range primary {
		seen[t.ID] = true
		merged = append(merged, t)
	}
	for _, t := range secondary {
		if !seen[t.ID] {
			merged = append(merged, t)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date > merged[j].Date
	})
	return merged
}
