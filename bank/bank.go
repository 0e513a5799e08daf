package bank

import (
	"sort"
	"time"

	"simulacro-server/models"
)

// QuestionBank is the ordered set of question records loaded from the
// external source. It is immutable after load and safe for concurrent reads;
// sessions take their own snapshots and never mutate the bank.
type QuestionBank struct {
	records   []models.QuestionRecord
	fetchedAt time.Time
}

// FromRecords wraps an already-parsed record slice into a bank.
func FromRecords(records []models.QuestionRecord, fetchedAt time.Time) *QuestionBank {
	return &QuestionBank{records: records, fetchedAt: fetchedAt}
}

// Len returns the number of records in the bank.
func (b *QuestionBank) Len() int {
	return len(b.records)
}

// Records returns the records in source row order. Callers must treat the
// returned slice as read-only.
func (b *QuestionBank) Records() []models.QuestionRecord {
	return b.records
}

// FetchedAt reports when this bank was fetched from the source.
func (b *QuestionBank) FetchedAt() time.Time {
	return b.fetchedAt
}

// Areas returns the sorted distinct area values, for the config selector.
func (b *QuestionBank) Areas() []string {
	return b.distinct(func(q models.QuestionRecord) string { return q.Area })
}

// Types returns the sorted distinct question-type values.
func (b *QuestionBank) Types() []string {
	return b.distinct(func(q models.QuestionRecord) string { return q.Type })
}

func (b *QuestionBank) distinct(field func(models.QuestionRecord) string) []string {
	seen := make(map[string]bool)
	var values []string
	for _, q := range b.records {
		v := field(q)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
