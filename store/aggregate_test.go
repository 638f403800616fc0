package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmkit/backend/domain"
	"github.com/crmkit/backend/substrate/memory"
)

func TestSumMoneyTotalsInvoiceRevenue(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t, memory.New(), Config{MoneyFields: []string{"cost", "agencyFee"}})

	for _, cost := range []float64{100, 200, 50} {
		_, err := c.Create(ctx, domain.Patch{"cost": cost})
		require.NoError(t, err)
	}

	items, err := c.List(ctx, nil)
	require.NoError(t, err)

	total := SumMoney(items, "cost", "agencyFee")
	assert.Equal(t, "350.00", total.StringFixed(2))

	// Idempotent: recomputation without intervening mutation is identical.
	assert.True(t, total.Equal(SumMoney(items, "cost", "agencyFee")))
}

func TestSumMoneyIncludesFees(t *testing.T) {
	items := []domain.Record{
		{ID: 1, Fields: map[string]any{"cost": 100.0, "agencyFee": 10.5}},
		{ID: 2, Fields: map[string]any{"cost": 19.99}},
	}
	assert.Equal(t, "130.49", SumMoney(items, "cost", "agencyFee").StringFixed(2))
}

func TestCountByStatus(t *testing.T) {
	items := []domain.Record{
		{ID: 1, Status: domain.StatusPending},
		{ID: 2, Status: domain.StatusPaid},
		{ID: 3, Status: domain.StatusPending},
	}
	assert.Equal(t, 3, Count(items))
	assert.Equal(t, 2, CountByStatus(items, domain.StatusPending))
	assert.Equal(t, 0, CountByStatus(items, domain.StatusOverdue))
	assert.Equal(t, 1, CountWhere(items, func(r domain.Record) bool { return r.ID > 2 }))
}
