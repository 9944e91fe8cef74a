package heuristics

import (
	"sort"

	"github.com/rawblock/ringwatch-engine/pkg/models"
)

// recordTable keeps one detection record per account.
//
// Writes are last-write-wins: a later put replaces the whole record (score,
// patterns and ring id), nothing is merged. An account keeps the position of
// its first write, so the table enumerates accounts in first-flagged order.
type recordTable struct {
	pos     map[string]int
	records []models.SuspiciousAccount
}

func newRecordTable() *recordTable {
	return &recordTable{pos: make(map[string]int)}
}

func (t *recordTable) put(rec models.SuspiciousAccount) {
	if i, ok := t.pos[rec.AccountID]; ok {
		t.records[i] = rec
		return
	}
	t.pos[rec.AccountID] = len(t.records)
	t.records = append(t.records, rec)
}

func (t *recordTable) apply(candidates []models.SuspiciousAccount) {
	for _, c := range candidates {
		t.put(c)
	}
}

func (t *recordTable) len() int { return len(t.records) }

// ranked returns the records sorted by suspicion score, highest first.
// Equal scores keep table order; callers must not depend on it.
func (t *recordTable) ranked() []models.SuspiciousAccount {
	out := make([]models.SuspiciousAccount, len(t.records))
	copy(out, t.records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SuspicionScore > out[j].SuspicionScore
	})
	return out
}
