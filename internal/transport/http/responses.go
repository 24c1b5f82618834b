package http

import (
	"time"

	"github.com/cimillas/agora-market/internal/domain"
	"github.com/shopspring/decimal"
)

// decimal.Decimal fields marshal as quoted JSON strings.

type extensionResponse struct {
	Index          int64     `json:"index"`
	Name           string    `json:"name"`
	Implementation string    `json:"implementation"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}

func toExtensionResponse(e domain.Extension) extensionResponse {
	return extensionResponse{
		Index:          e.Index,
		Name:           e.Name,
		Implementation: string(e.Implementation),
		CreatedBy:      e.CreatedBy,
		CreatedAt:      e.CreatedAt,
	}
}

type marketResponse struct {
	ID             string    `json:"id"`
	Index          int64     `json:"index"`
	Extension      string    `json:"extension"`
	Implementation string    `json:"implementation"`
	Owner          string    `json:"owner"`
	Symbol         string    `json:"symbol"`
	Name           string    `json:"name"`
	MaxPerOwner    int64     `json:"max_per_owner,omitempty"`
	MaxSupply      int64     `json:"max_supply,omitempty"`
	Initialized    bool      `json:"initialized"`
	CreatedAt      time.Time `json:"created_at"`
}

func toMarketResponse(m domain.Market) marketResponse {
	return marketResponse{
		ID:             m.ID,
		Index:          m.Index,
		Extension:      m.ExtensionName,
		Implementation: string(m.Implementation),
		Owner:          m.Owner,
		Symbol:         m.Params.Symbol,
		Name:           m.Params.Name,
		MaxPerOwner:    m.Params.MaxPerOwner,
		MaxSupply:      m.Params.MaxSupply,
		Initialized:    m.Initialized,
		CreatedAt:      m.CreatedAt,
	}
}

type productResponse struct {
	Exists    bool            `json:"exists"`
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Owner     string          `json:"owner"`
	Locked    bool            `json:"locked"`
	CreatedAt time.Time       `json:"created_at"`
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		Exists:    true,
		Symbol:    p.Symbol,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  p.Quantity,
		Owner:     p.Owner,
		Locked:    p.Locked,
		CreatedAt: p.CreatedAt,
	}
}

type receiptResponse struct {
	Symbol   string          `json:"symbol"`
	Buyer    string          `json:"buyer"`
	Payee    string          `json:"payee"`
	Quantity int64           `json:"quantity"`
	Cost     decimal.Decimal `json:"cost"`
	Change   decimal.Decimal `json:"change"`
}

func toReceiptResponse(r domain.Receipt) receiptResponse {
	return receiptResponse{
		Symbol:   r.Symbol,
		Buyer:    r.Buyer,
		Payee:    r.Payee,
		Quantity: r.Quantity,
		Cost:     r.Cost,
		Change:   r.Change,
	}
}

type listingResponse struct {
	ID        int64           `json:"id"`
	Seller    string          `json:"seller"`
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Active    bool            `json:"active"`
	Sold      bool            `json:"sold"`
	State     string          `json:"state"`
	Buyer     string          `json:"buyer,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	SoldAt    *time.Time      `json:"sold_at,omitempty"`
}

func toListingResponse(l domain.Listing) listingResponse {
	return listingResponse{
		ID:        l.ID,
		Seller:    l.Seller,
		Symbol:    l.Symbol,
		Name:      l.Name,
		Price:     l.Price,
		Quantity:  l.Quantity,
		Active:    l.Active,
		Sold:      l.Sold,
		State:     string(l.State()),
		Buyer:     l.Buyer,
		CreatedAt: l.CreatedAt,
		SoldAt:    l.SoldAt,
	}
}

type holdingResponse struct {
	Holder   string `json:"holder"`
	Symbol   string `json:"symbol"`
	Quantity int64  `json:"quantity"`
}

func toHoldingResponse(h domain.Holding) holdingResponse {
	return holdingResponse{Holder: h.Holder, Symbol: h.Symbol, Quantity: h.Quantity}
}

type countResponse struct {
	Value int64 `json:"value"`
}

type amountResponse struct {
	Identity string          `json:"identity"`
	Amount   decimal.Decimal `json:"amount"`
}

// mapSlice converts a slice, returning an empty JSON array rather than null.
func mapSlice[T, R any](in []T, fn func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}
