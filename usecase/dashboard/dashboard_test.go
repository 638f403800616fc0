package dashboard

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmkit/backend/crm"
	"github.com/crmkit/backend/domain"
	"github.com/crmkit/backend/substrate/memory"
)

func seedRegistry(t *testing.T) *crm.Registry {
	t.Helper()
	ctx := context.Background()
	r := crm.NewRegistry(memory.New(), nil, nil)

	invoices, _ := r.Get(crm.KeyInvoices)
	for _, inv := range []domain.Patch{
		{"name": "Acme", "phone": "+923001110001", "email": "a@acme.com", "cost": 100.0, "agencyFee": 20.0, "date": "2026-08-01", "status": domain.StatusPaid},
		{"name": "Beta", "phone": "+923001110002", "email": "b@beta.com", "cost": 200.0, "agencyFee": 30.0, "date": "2026-08-02", "status": domain.StatusPending},
	} {
		_, err := invoices.Create(ctx, inv)
		require.NoError(t, err)
	}

	contacts, _ := r.Get(crm.KeyContacts)
	for i, status := range []string{domain.StatusPending, domain.StatusApproved, domain.StatusPending} {
		_, err := contacts.Create(ctx, domain.Patch{
			"name":   fmt.Sprintf("contact-%d", i),
			"mobile": "+923001112222",
			"email":  fmt.Sprintf("c%d@example.com", i),
			"status": status,
		})
		require.NoError(t, err)
	}

	team, _ := r.Get(crm.KeyTeam)
	_, err := team.Create(ctx, domain.Patch{
		"name":    "Omar",
		"email":   "omar@example.com",
		"contact": "+923001112222",
		"access":  "admin",
	})
	require.NoError(t, err)

	return r
}

func TestStats(t *testing.T) {
	r := seedRegistry(t)
	uc := New(r, nil)

	stats, err := uc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "350.00", stats.TotalRevenue, "sum of cost+agencyFee across invoices")
	assert.Equal(t, 2, stats.InvoiceCount)
	assert.Equal(t, 1, stats.PendingInvoices)
	assert.Equal(t, 3, stats.ContactCount)
	assert.Equal(t, 2, stats.PendingContacts)
	assert.Equal(t, 1, stats.TeamSize)
	assert.Empty(t, stats.RecentPayments)
}

func TestStatsOnEmptyCollections(t *testing.T) {
	r := crm.NewRegistry(memory.New(), nil, nil)
	uc := New(r, nil)

	stats, err := uc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "0.00", stats.TotalRevenue)
	assert.Zero(t, stats.InvoiceCount)
	assert.Zero(t, stats.ContactCount)
	assert.Zero(t, stats.TeamSize)
}

func TestRecentPaymentsNewestFirstCappedAtFive(t *testing.T) {
	ctx := context.Background()
	r := seedRegistry(t)

	payments, _ := r.Get(crm.KeyPayments)
	for i := 1; i <= 7; i++ {
		_, err := payments.Create(ctx, domain.Patch{
			"txId":     fmt.Sprintf("tx-%d", i),
			"sender":   "a@example.com",
			"receiver": "b@example.com",
			"method":   "bank",
			"amount":   float64(i),
			"status":   domain.StatusSuccess,
		})
		require.NoError(t, err)
	}

	stats, err := New(r, nil).Stats(ctx)
	require.NoError(t, err)

	require.Len(t, stats.RecentPayments, 5)
	assert.Equal(t, "tx-7", stats.RecentPayments[0].StringField("txId"))
	assert.Equal(t, "tx-3", stats.RecentPayments[4].StringField("txId"))
}
