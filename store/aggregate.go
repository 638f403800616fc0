package store

import (
	"github.com/shopspring/decimal"

	"github.com/crmkit/backend/domain"
)

// Aggregates are stateless reductions over a record sequence. They are
// recomputed on demand from List output and never cached, so they always
// reflect the sequence at call time.

// Count returns the number of records.
func Count(items []domain.Record) int {
	return len(items)
}

// CountWhere returns the number of records matching the predicate.
func CountWhere(items []domain.Record, pred func(domain.Record) bool) int {
	var n int
	for _, r := range items {
		if pred(r) {
			n++
		}
	}
	return n
}

// CountByStatus returns the number of records carrying the given status.
func CountByStatus(items []domain.Record, status string) int {
	return CountWhere(items, func(r domain.Record) bool { return r.Status == status })
}

// SumMoney totals the named money fields across all records, rounding to
// cents after each record so the total matches what per-record arithmetic
// would produce.
func SumMoney(items []domain.Record, fields ...string) decimal.Decimal {
	total := decimal.Zero
	for _, r := range items {
		rowTotal := decimal.Zero
		for _, f := range fields {
			rowTotal = rowTotal.Add(r.MoneyField(f))
		}
		total = total.Add(rowTotal.Round(2))
	}
	return total.Round(2)
}
