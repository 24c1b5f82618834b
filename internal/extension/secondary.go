package extension

import (
	"context"
	"fmt"

	"github.com/cimillas/agora-market/internal/domain"
)

// secondaryBehavior credits shelf purchases to the buyer's holdings so they can be relisted.
type secondaryBehavior struct{}

func (secondaryBehavior) Implementation() domain.Implementation {
	return domain.ImplementationSecondary
}

func (secondaryBehavior) Initialize(args []byte) (domain.MarketParams, error) {
	var in baseArgs
	if err := decodeArgs(args, &in); err != nil {
		return domain.MarketParams{}, err
	}
	return domain.MarketParams{Symbol: in.Symbol, Name: in.Name}, nil
}

func (secondaryBehavior) BeforePurchase(context.Context, Ledger, Purchase) error { return nil }

func (secondaryBehavior) AfterPurchase(ctx context.Context, ledger Ledger, p Purchase) error {
	if err := ledger.AddHolding(ctx, p.Market.ID, p.Buyer, p.Product.Symbol, p.Quantity); err != nil {
		return fmt.Errorf("credit holdings: %w", err)
	}
	return nil
}

func (secondaryBehavior) Counted() bool { return false }

func (secondaryBehavior) Resale() bool { return true }
