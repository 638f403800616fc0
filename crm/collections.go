// Package crm defines the dashboard's collections: contacts, invoices, team
// members, payments and demo wallets. Each is a store.Config — key, seed,
// validation policy and money fields — composed into a registry the API and
// workflows share.
package crm

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/crmkit/backend/domain"
	"github.com/crmkit/backend/notify"
	"github.com/crmkit/backend/store"
	"github.com/crmkit/backend/substrate"
)

// Collection names double as substrate keys.
const (
	KeyContacts = "contacts"
	KeyInvoices = "invoices"
	KeyTeam     = "team"
	KeyPayments = "payments"
	KeyWallets  = "wallets"
)

// Contacts holds CRM contacts with a Pending/Approved/Rejected workflow.
// Email and phone validation applies uniformly to every collection that
// carries those fields.
func Contacts() store.Config {
	return store.Config{
		Name: KeyContacts,
		Validate: store.All(
			store.Rules(
				store.Field("name", "required"),
				store.Field("mobile", "required,e164"),
				store.Field("email", "required,email"),
			),
			store.Statuses(domain.StatusPending, domain.StatusApproved, domain.StatusRejected),
		),
	}
}

// Invoices holds billing records. totalCost is derived (cost + agencyFee) by
// readers, never stored.
func Invoices() store.Config {
	return store.Config{
		Name:        KeyInvoices,
		MoneyFields: []string{"cost", "agencyFee"},
		Validate: store.All(
			store.Rules(
				store.Field("name", "required"),
				store.Field("phone", "required,e164"),
				store.Field("email", "required,email"),
				store.Field("cost", "required,gte=0"),
				store.Field("date", "required"),
			),
			store.Statuses(domain.StatusPending, domain.StatusPaid, domain.StatusOverdue),
		),
	}
}

// Team holds team members and their access level.
func Team() store.Config {
	return store.Config{
		Name: KeyTeam,
		Validate: store.Rules(
			store.Field("name", "required"),
			store.Field("email", "required,email"),
			store.Field("contact", "required,e164"),
			store.Field("access", "required,oneof=admin manager user"),
		),
	}
}

// Payments is the transaction log written by the transfer use case.
func Payments() store.Config {
	return store.Config{
		Name:        KeyPayments,
		MoneyFields: []string{"amount", "fee", "total"},
		Validate: store.Rules(
			store.Field("sender", "required"),
			store.Field("receiver", "required"),
			store.Field("method", "required,oneof=visa wallet bank"),
			store.Field("amount", "required,gt=0"),
		),
	}
}

// Wallets holds the payment demo balances, seeded like the original demo
// accounts.
func Wallets() store.Config {
	return store.Config{
		Name:        KeyWallets,
		MoneyFields: []string{"balance"},
		Seed: []domain.Record{
			walletSeed(1, "You", "user_me@example.com", "+923001111111", 10000),
			walletSeed(2, "Coffee Shop", "merchant_1@example.com", "+923004445555", 2500),
			walletSeed(3, "Ali", "friend_1@example.com", "+923006667777", 300),
			walletSeed(4, "Mobile Wallet", "mobile_1@example.com", "+923001234567", 1500),
		},
		Validate: store.Rules(
			store.Field("name", "required"),
			store.Field("email", "required,email"),
			store.Field("balance", "gte=0"),
		),
	}
}

func walletSeed(id int64, name, email, phone string, balance float64) domain.Record {
	return domain.Record{
		ID: id,
		Fields: map[string]any{
			"name":    name,
			"email":   email,
			"phone":   phone,
			"balance": balance,
		},
	}
}

// Registry holds the opened collections keyed by name.
type Registry struct {
	collections map[string]*store.Collection
}

// NewRegistry builds every CRM collection on the given substrate.
func NewRegistry(sub substrate.Substrate, notifier *notify.Notifier, logger *zap.Logger) *Registry {
	configs := []store.Config{Contacts(), Invoices(), Team(), Payments(), Wallets()}
	r := &Registry{collections: make(map[string]*store.Collection, len(configs))}
	for _, cfg := range configs {
		r.collections[cfg.Name] = store.New(sub, notifier, logger, cfg)
	}
	return r
}

// Get returns the named collection.
func (r *Registry) Get(name string) (*store.Collection, bool) {
	c, ok := r.collections[name]
	return c, ok
}

// Names returns the collection names in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.collections))
	for name := range r.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sizes reports record counts per collection, for the health endpoint.
// Collections that fail to load are reported as -1 rather than failing the
// whole probe.
func (r *Registry) Sizes(ctx context.Context) map[string]int {
	sizes := make(map[string]int, len(r.collections))
	for name, c := range r.collections {
		n, err := c.Len(ctx)
		if err != nil {
			sizes[name] = -1
			continue
		}
		sizes[name] = n
	}
	return sizes
}
