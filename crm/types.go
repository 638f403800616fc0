package crm

import (
	"github.com/shopspring/decimal"

	"github.com/crmkit/backend/domain"
)

// Typed views over the opaque record payloads, for use cases that work with
// specific collections. The store itself never sees these.

// Invoice is the billing payload.
type Invoice struct {
	ID        int64
	Name      string
	Phone     string
	Email     string
	Cost      decimal.Decimal
	AgencyFee decimal.Decimal
	Date      string
	Status    string
}

// TotalCost is the derived invoice total.
func (i Invoice) TotalCost() decimal.Decimal {
	return i.Cost.Add(i.AgencyFee).Round(2)
}

// InvoiceFromRecord reads an invoice out of a record.
func InvoiceFromRecord(rec domain.Record) Invoice {
	return Invoice{
		ID:        rec.ID,
		Name:      rec.StringField("name"),
		Phone:     rec.StringField("phone"),
		Email:     rec.StringField("email"),
		Cost:      rec.MoneyField("cost"),
		AgencyFee: rec.MoneyField("agencyFee"),
		Date:      rec.StringField("date"),
		Status:    rec.Status,
	}
}

// Wallet is a payment demo balance account.
type Wallet struct {
	ID      int64
	Name    string
	Email   string
	Phone   string
	Balance decimal.Decimal
}

// WalletFromRecord reads a wallet out of a record.
func WalletFromRecord(rec domain.Record) Wallet {
	return Wallet{
		ID:      rec.ID,
		Name:    rec.StringField("name"),
		Email:   rec.StringField("email"),
		Phone:   rec.StringField("phone"),
		Balance: rec.MoneyField("balance"),
	}
}

// Payment is one entry in the transaction log.
type Payment struct {
	TxID     string
	Sender   string
	Receiver string
	Method   string
	Amount   decimal.Decimal
	Fee      decimal.Decimal
	Total    decimal.Decimal
	Status   string
}

// Payload converts the payment into a create payload.
func (p Payment) Payload() domain.Patch {
	amount, _ := p.Amount.Float64()
	fee, _ := p.Fee.Float64()
	total, _ := p.Total.Float64()
	return domain.Patch{
		"txId":     p.TxID,
		"sender":   p.Sender,
		"receiver": p.Receiver,
		"method":   p.Method,
		"amount":   amount,
		"fee":      fee,
		"total":    total,
		"status":   p.Status,
	}
}
