// Package payments implements the payment demo: wallet-to-wallet transfers
// with per-method fees and a transaction log.
package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/crmkit/backend/crm"
	"github.com/crmkit/backend/domain"
	"github.com/crmkit/backend/store"
)

// Fee percentages per payment method.
var methodFees = map[string]decimal.Decimal{
	"visa":   decimal.NewFromFloat(2.5),
	"wallet": decimal.NewFromFloat(1.0),
	"bank":   decimal.Zero,
}

// ErrInsufficientFunds rejects a transfer whose total debit exceeds the
// sender's balance.
var ErrInsufficientFunds = domain.NewError(domain.ErrCodeConflict, "insufficient balance")

// UseCase moves money between wallet records. Debit and credit land in one
// batch update on the wallets collection, so the substrate is written once
// and a crash can never leave the pair half-applied. The log entry in the
// payments collection is a second, separate write; a failure between the two
// loses the log line, never the money.
type UseCase struct {
	wallets  *store.Collection
	payments *store.Collection
	logger   *zap.Logger
}

// New builds the transfer use case over the wallets and payments collections.
func New(wallets, payments *store.Collection, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		wallets:  wallets,
		payments: payments,
		logger:   logger,
	}
}

// Fee returns the cent-rounded fee for the amount under the given method.
func Fee(amount decimal.Decimal, method string) (decimal.Decimal, error) {
	pct, ok := methodFees[method]
	if !ok {
		return decimal.Zero, domain.Invalid("method", "is not a supported payment method")
	}
	return amount.Mul(pct).Div(decimal.NewFromInt(100)).Round(2), nil
}

// Transfer debits amount+fee from the sender wallet and credits amount to the
// receiver wallet, then appends the transaction to the payment log.
func (uc *UseCase) Transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal, method string) (crm.Payment, error) {
	if !amount.IsPositive() {
		return crm.Payment{}, domain.Invalid("amount", "must be positive")
	}
	if fromID == toID {
		return crm.Payment{}, domain.Invalid("receiver", "must differ from sender")
	}

	amount = amount.Round(2)
	fee, err := Fee(amount, method)
	if err != nil {
		return crm.Payment{}, err
	}
	total := amount.Add(fee).Round(2)

	fromRec, err := uc.wallets.Get(ctx, fromID)
	if err != nil {
		return crm.Payment{}, err
	}
	toRec, err := uc.wallets.Get(ctx, toID)
	if err != nil {
		return crm.Payment{}, err
	}

	from := crm.WalletFromRecord(fromRec)
	to := crm.WalletFromRecord(toRec)

	if from.Balance.LessThan(total) {
		return crm.Payment{}, ErrInsufficientFunds
	}

	newFrom, _ := from.Balance.Sub(total).Round(2).Float64()
	newTo, _ := to.Balance.Add(amount).Round(2).Float64()

	if _, err := uc.wallets.UpdateMany(ctx, map[int64]domain.Patch{
		fromID: {"balance": newFrom},
		toID:   {"balance": newTo},
	}); err != nil {
		return crm.Payment{}, err
	}

	payment := crm.Payment{
		TxID:     uuid.NewString(),
		Sender:   from.Email,
		Receiver: to.Email,
		Method:   method,
		Amount:   amount,
		Fee:      fee,
		Total:    total,
		Status:   domain.StatusSuccess,
	}

	if _, err := uc.payments.Create(ctx, payment.Payload()); err != nil {
		// Balances already moved; only the log line is missing.
		uc.logger.Error("transfer applied but log write failed",
			zap.String("tx_id", payment.TxID),
			zap.Error(err))
		return payment, err
	}

	uc.logger.Info("transfer completed",
		zap.String("tx_id", payment.TxID),
		zap.Int64("from", fromID),
		zap.Int64("to", toID),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("fee", fee.StringFixed(2)))
	return payment, nil
}
