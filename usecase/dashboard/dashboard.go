// Package dashboard derives the overview numbers the admin landing page
// shows. Everything is recomputed from the collections on each call.
package dashboard

import (
	"context"

	"go.uber.org/zap"

	"github.com/crmkit/backend/crm"
	"github.com/crmkit/backend/domain"
	"github.com/crmkit/backend/store"
)

// Stats is the dashboard summary.
type Stats struct {
	TotalRevenue    string          `json:"totalRevenue"`
	InvoiceCount    int             `json:"invoiceCount"`
	PendingInvoices int             `json:"pendingInvoices"`
	ContactCount    int             `json:"contactCount"`
	PendingContacts int             `json:"pendingContacts"`
	TeamSize        int             `json:"teamSize"`
	RecentPayments  []domain.Record `json:"recentPayments"`
}

// recentPaymentLimit caps how many log entries the summary carries.
const recentPaymentLimit = 5

// UseCase reads the collections behind the dashboard.
type UseCase struct {
	registry *crm.Registry
	logger   *zap.Logger
}

// New builds the dashboard use case.
func New(registry *crm.Registry, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{registry: registry, logger: logger}
}

// Stats computes the full summary. Total revenue is the cent-rounded sum of
// cost plus agency fee across all invoices.
func (uc *UseCase) Stats(ctx context.Context) (Stats, error) {
	invoices, err := uc.list(ctx, crm.KeyInvoices)
	if err != nil {
		return Stats{}, err
	}
	contacts, err := uc.list(ctx, crm.KeyContacts)
	if err != nil {
		return Stats{}, err
	}
	team, err := uc.list(ctx, crm.KeyTeam)
	if err != nil {
		return Stats{}, err
	}
	paymentLog, err := uc.list(ctx, crm.KeyPayments)
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		TotalRevenue:    store.SumMoney(invoices, "cost", "agencyFee").StringFixed(2),
		InvoiceCount:    store.Count(invoices),
		PendingInvoices: store.CountByStatus(invoices, domain.StatusPending),
		ContactCount:    store.Count(contacts),
		PendingContacts: store.CountByStatus(contacts, domain.StatusPending),
		TeamSize:        store.Count(team),
		RecentPayments:  lastN(paymentLog, recentPaymentLimit),
	}, nil
}

func (uc *UseCase) list(ctx context.Context, name string) ([]domain.Record, error) {
	c, ok := uc.registry.Get(name)
	if !ok {
		return nil, domain.NewError(domain.ErrCodeInternal, "collection missing: "+name)
	}
	return c.List(ctx, nil)
}

// lastN returns the newest n records, newest first.
func lastN(items []domain.Record, n int) []domain.Record {
	if len(items) < n {
		n = len(items)
	}
	out := make([]domain.Record, 0, n)
	for i := len(items) - 1; i >= len(items)-n; i-- {
		out = append(out, items[i])
	}
	return out
}
