package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry of a market, keyed by its symbol.
type Product struct {
	MarketID  string
	Symbol    string
	Name      string
	Price     decimal.Decimal
	Quantity  int64
	Owner     string
	Locked    bool
	CreatedAt time.Time
}

// Receipt describes the outcome of a successful purchase.
type Receipt struct {
	MarketID string
	Symbol   string
	Buyer    string
	Payee    string
	Quantity int64
	Cost     decimal.Decimal
	Change   decimal.Decimal
}
