package crm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmkit/backend/domain"
	"github.com/crmkit/backend/substrate/memory"
)

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(memory.New(), nil, nil)
}

func TestRegistryNames(t *testing.T) {
	r := newRegistry(t)
	assert.Equal(t, []string{KeyContacts, KeyInvoices, KeyPayments, KeyTeam, KeyWallets}, r.Names())
}

func TestContactsValidation(t *testing.T) {
	r := newRegistry(t)
	contacts, ok := r.Get(KeyContacts)
	require.True(t, ok)

	ctx := context.Background()

	_, err := contacts.Create(ctx, domain.Patch{
		"name":   "Sara",
		"mobile": "+923001112222",
		"email":  "sara@example.com",
		"status": domain.StatusPending,
	})
	require.NoError(t, err)

	cases := map[string]domain.Patch{
		"missing name":   {"mobile": "+923001112222", "email": "a@b.com"},
		"bad phone":      {"name": "x", "mobile": "not-a-phone", "email": "a@b.com"},
		"bad email":      {"name": "x", "mobile": "+923001112222", "email": "nope"},
		"unknown status": {"name": "x", "mobile": "+923001112222", "email": "a@b.com", "status": "limbo"},
	}
	for label, payload := range cases {
		_, err := contacts.Create(ctx, payload)
		require.Error(t, err, label)
		var derr *domain.Error
		require.ErrorAs(t, err, &derr, label)
		assert.Equal(t, domain.ErrCodeInvalid, derr.Code, label)
	}
}

func TestInvoicesRoundMoneyFields(t *testing.T) {
	r := newRegistry(t)
	invoices, ok := r.Get(KeyInvoices)
	require.True(t, ok)

	rec, err := invoices.Create(context.Background(), domain.Patch{
		"name":      "Acme",
		"phone":     "+923001112222",
		"email":     "billing@acme.com",
		"cost":      100.005,
		"agencyFee": 9.999,
		"date":      "2026-08-01",
		"status":    domain.StatusPending,
	})
	require.NoError(t, err)
	assert.Equal(t, "100.01", rec.MoneyField("cost").StringFixed(2))
	assert.Equal(t, "10.00", rec.MoneyField("agencyFee").StringFixed(2))
}

func TestTeamAccessLevels(t *testing.T) {
	r := newRegistry(t)
	team, ok := r.Get(KeyTeam)
	require.True(t, ok)

	ctx := context.Background()
	member := domain.Patch{
		"name":    "Omar",
		"email":   "omar@example.com",
		"contact": "+923001112222",
	}

	for _, access := range []string{"admin", "manager", "user"} {
		member["access"] = access
		_, err := team.Create(ctx, member)
		require.NoError(t, err, access)
	}

	member["access"] = "root"
	_, err := team.Create(ctx, member)
	assert.Error(t, err)
}

func TestWalletsSeed(t *testing.T) {
	r := newRegistry(t)
	wallets, ok := r.Get(KeyWallets)
	require.True(t, ok)

	ctx := context.Background()
	items, err := wallets.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, "You", items[0].StringField("name"))
	assert.Equal(t, "10000.00", items[0].MoneyField("balance").StringFixed(2))
	assert.Equal(t, "Ali", items[2].StringField("name"))
	assert.Equal(t, "300.00", items[2].MoneyField("balance").StringFixed(2))

	// A wallet created after the seed continues the id sequence.
	rec, err := wallets.Create(ctx, domain.Patch{
		"name":    "Savings",
		"email":   "savings@example.com",
		"balance": 50.0,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), rec.ID)
}

func TestSizesTolerateCorruptCollection(t *testing.T) {
	sub := memory.New()
	require.NoError(t, sub.Set(context.Background(), KeyContacts, "not json"))

	r := NewRegistry(sub, nil, nil)
	sizes := r.Sizes(context.Background())
	assert.Equal(t, -1, sizes[KeyContacts])
	assert.Equal(t, 4, sizes[KeyWallets])
	assert.Equal(t, 0, sizes[KeyInvoices])
}
