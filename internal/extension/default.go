package extension

import (
	"context"

	"github.com/cimillas/agora-market/internal/domain"
)

type defaultBehavior struct{}

func (defaultBehavior) Implementation() domain.Implementation {
	return domain.ImplementationDefault
}

func (defaultBehavior) Initialize(args []byte) (domain.MarketParams, error) {
	var in baseArgs
	if err := decodeArgs(args, &in); err != nil {
		return domain.MarketParams{}, err
	}
	return domain.MarketParams{Symbol: in.Symbol, Name: in.Name}, nil
}

func (defaultBehavior) BeforePurchase(context.Context, Ledger, Purchase) error { return nil }

func (defaultBehavior) AfterPurchase(context.Context, Ledger, Purchase) error { return nil }

func (defaultBehavior) Counted() bool { return false }

func (defaultBehavior) Resale() bool { return false }
