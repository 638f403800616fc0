package payments

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmkit/backend/crm"
	"github.com/crmkit/backend/domain"
	"github.com/crmkit/backend/store"
	"github.com/crmkit/backend/substrate/memory"
)

func newUseCase(t *testing.T) (*UseCase, *store.Collection, *store.Collection) {
	t.Helper()
	sub := memory.New()
	wallets := store.New(sub, nil, nil, crm.Wallets())
	log := store.New(sub, nil, nil, crm.Payments())
	return New(wallets, log, nil), wallets, log
}

func money(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestFeePerMethod(t *testing.T) {
	cases := []struct {
		method string
		amount string
		want   string
	}{
		{"visa", "100", "2.50"},
		{"wallet", "100", "1.00"},
		{"bank", "100", "0.00"},
		{"visa", "33.33", "0.83"},
	}
	for _, tc := range cases {
		fee, err := Fee(money(tc.amount), tc.method)
		require.NoError(t, err, tc.method)
		assert.Equal(t, tc.want, fee.StringFixed(2), "%s %s", tc.method, tc.amount)
	}

	_, err := Fee(money("10"), "cheque")
	require.Error(t, err)
	var derr *domain.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeInvalid, derr.Code)
}

func TestTransferMovesBalancesAndLogs(t *testing.T) {
	ctx := context.Background()
	uc, wallets, log := newUseCase(t)

	// Seeded: You=10000 (id 1), Coffee Shop=2500 (id 2).
	payment, err := uc.Transfer(ctx, 1, 2, money("100"), "visa")
	require.NoError(t, err)

	assert.Equal(t, "100.00", payment.Amount.StringFixed(2))
	assert.Equal(t, "2.50", payment.Fee.StringFixed(2))
	assert.Equal(t, "102.50", payment.Total.StringFixed(2))
	assert.Equal(t, domain.StatusSuccess, payment.Status)
	assert.NotEmpty(t, payment.TxID)

	from, err := wallets.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "9897.50", from.MoneyField("balance").StringFixed(2))

	to, err := wallets.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "2600.00", to.MoneyField("balance").StringFixed(2))

	entries, err := log.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "visa", entries[0].StringField("method"))
	assert.Equal(t, payment.TxID, entries[0].StringField("txId"))
	assert.Equal(t, domain.StatusSuccess, entries[0].Status)
}

func TestTransferRejectsInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	uc, wallets, log := newUseCase(t)

	// Ali (id 3) holds 300; amount+fee exceeds it.
	_, err := uc.Transfer(ctx, 3, 1, money("299"), "visa")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	ali, err := wallets.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "300.00", ali.MoneyField("balance").StringFixed(2))

	entries, err := log.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected transfers are not logged")
}

func TestTransferExactBalanceWithBankFee(t *testing.T) {
	ctx := context.Background()
	uc, wallets, _ := newUseCase(t)

	// bank carries no fee, so the full 300 can move.
	_, err := uc.Transfer(ctx, 3, 1, money("300"), "bank")
	require.NoError(t, err)

	ali, err := wallets.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "0.00", ali.MoneyField("balance").StringFixed(2))
}

func TestTransferValidation(t *testing.T) {
	ctx := context.Background()
	uc, _, _ := newUseCase(t)

	_, err := uc.Transfer(ctx, 1, 1, money("10"), "bank")
	assert.Error(t, err, "sender and receiver must differ")

	_, err = uc.Transfer(ctx, 1, 2, money("0"), "bank")
	assert.Error(t, err, "amount must be positive")

	_, err = uc.Transfer(ctx, 1, 2, money("-5"), "bank")
	assert.Error(t, err)

	_, err = uc.Transfer(ctx, 1, 99, money("10"), "bank")
	require.Error(t, err)
	var derr *domain.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeNotFound, derr.Code)
}
