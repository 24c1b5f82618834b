// Package extension holds the closed set of market behaviors an extension can be bound to.
// A market keeps its implementation name; the behavior is resolved on every call.
package extension

import (
	"context"
	"fmt"

	"github.com/cimillas/agora-market/internal/domain"
)

// Ledger is the per-market counter storage behaviors read and update.
// Calls happen inside the purchase transaction.
type Ledger interface {
	GetBalance(ctx context.Context, marketID, holder string) (int64, error)
	AddBalance(ctx context.Context, marketID, holder string, delta int64) error
	AddTotalSupply(ctx context.Context, marketID string, delta int64) error
	AddHolding(ctx context.Context, marketID, holder, symbol string, delta int64) error
}

// Purchase is the state a behavior sees around a catalog purchase.
type Purchase struct {
	Market   domain.Market
	Product  domain.Product
	Buyer    string
	Quantity int64
}

// Behavior customizes purchase semantics for one market variant.
type Behavior interface {
	Implementation() domain.Implementation
	// Initialize decodes the opaque init payload forwarded by the factory.
	Initialize(args []byte) (domain.MarketParams, error)
	BeforePurchase(ctx context.Context, ledger Ledger, p Purchase) error
	AfterPurchase(ctx context.Context, ledger Ledger, p Purchase) error
	// Counted reports whether the variant tracks balanceOf/totalSupply.
	Counted() bool
	// Resale reports whether the variant keeps holdings and listings.
	Resale() bool
}

var behaviors = map[domain.Implementation]Behavior{
	domain.ImplementationDefault:        defaultBehavior{},
	domain.ImplementationCappedItem:     cappedBehavior{impl: domain.ImplementationCappedItem},
	domain.ImplementationCappedFungible: cappedBehavior{impl: domain.ImplementationCappedFungible, supplyCapped: true},
	domain.ImplementationSecondary:      secondaryBehavior{},
}

// Lookup returns the behavior registered for impl.
func Lookup(impl domain.Implementation) (Behavior, error) {
	b, ok := behaviors[impl]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownImplementation, impl)
	}
	return b, nil
}

// Implementations lists the built-in implementation names.
func Implementations() []domain.Implementation {
	return []domain.Implementation{
		domain.ImplementationDefault,
		domain.ImplementationCappedItem,
		domain.ImplementationCappedFungible,
		domain.ImplementationSecondary,
	}
}
