package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ListingState string

const (
	ListingStateActive ListingState = "active"
	ListingStateSold   ListingState = "sold"
)

// Listing is a holder's offer to resell units taken out of their holdings.
type Listing struct {
	MarketID  string
	ID        int64
	Seller    string
	Symbol    string
	Name      string
	Price     decimal.Decimal
	Quantity  int64
	Active    bool
	Sold      bool
	Buyer     string
	CreatedAt time.Time
	SoldAt    *time.Time
}

// State collapses the active/sold flags into a single marker.
func (l Listing) State() ListingState {
	if l.Sold {
		return ListingStateSold
	}
	return ListingStateActive
}

// Holding is the free (not escrowed) quantity of a symbol owned by a holder.
type Holding struct {
	MarketID string
	Holder   string
	Symbol   string
	Quantity int64
}
