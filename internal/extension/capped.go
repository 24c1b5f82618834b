package extension

import (
	"context"
	"fmt"

	"github.com/cimillas/agora-market/internal/domain"
)

// cappedBehavior limits how many units each holder may buy and keeps running
// balance and supply counters. The fungible variant also caps total supply.
type cappedBehavior struct {
	impl         domain.Implementation
	supplyCapped bool
}

func (b cappedBehavior) Implementation() domain.Implementation {
	return b.impl
}

func (b cappedBehavior) Initialize(args []byte) (domain.MarketParams, error) {
	if b.supplyCapped {
		var in cappedFungibleArgs
		if err := decodeArgs(args, &in); err != nil {
			return domain.MarketParams{}, err
		}
		return domain.MarketParams{
			Symbol:      in.Symbol,
			Name:        in.Name,
			MaxPerOwner: in.MaxPerOwner,
			MaxSupply:   in.MaxSupply,
		}, nil
	}

	var in cappedItemArgs
	if err := decodeArgs(args, &in); err != nil {
		return domain.MarketParams{}, err
	}
	return domain.MarketParams{
		Symbol:      in.Symbol,
		Name:        in.Name,
		MaxPerOwner: in.MaxPerOwner,
	}, nil
}

func (b cappedBehavior) BeforePurchase(ctx context.Context, ledger Ledger, p Purchase) error {
	balance, err := ledger.GetBalance(ctx, p.Market.ID, p.Buyer)
	if err != nil {
		return fmt.Errorf("get balance: %w", err)
	}
	if p.Quantity > p.Market.Params.MaxPerOwner-balance {
		return domain.ErrExceedsMaxPerOwner
	}
	if b.supplyCapped && p.Quantity > p.Market.Params.MaxSupply-p.Market.TotalSupply {
		return domain.ErrExceedsMaxSupply
	}
	return nil
}

func (b cappedBehavior) AfterPurchase(ctx context.Context, ledger Ledger, p Purchase) error {
	if err := ledger.AddBalance(ctx, p.Market.ID, p.Buyer, p.Quantity); err != nil {
		return fmt.Errorf("add balance: %w", err)
	}
	if err := ledger.AddTotalSupply(ctx, p.Market.ID, p.Quantity); err != nil {
		return fmt.Errorf("add total supply: %w", err)
	}
	return nil
}

func (cappedBehavior) Counted() bool { return true }

func (cappedBehavior) Resale() bool { return false }
