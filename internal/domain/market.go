package domain

import "time"

// Implementation names one of the built-in behavior variants an extension can point at.
type Implementation string

const (
	ImplementationDefault        Implementation = "default"
	ImplementationCappedItem     Implementation = "capped-item"
	ImplementationCappedFungible Implementation = "capped-fungible"
	ImplementationSecondary      Implementation = "secondary"
)

// Extension is a named registration of a behavior implementation held by the factory.
type Extension struct {
	Index          int64
	Name           string
	Implementation Implementation
	CreatedBy      string
	CreatedAt      time.Time
}

// MarketParams are the variant-specific values supplied when a market is initialized.
// Only the capped variants set MaxPerOwner and MaxSupply.
type MarketParams struct {
	Symbol      string
	Name        string
	MaxPerOwner int64
	MaxSupply   int64
}

// Market is a deployed marketplace instance bound to one extension.
type Market struct {
	ID             string
	Index          int64
	ExtensionName  string
	Implementation Implementation
	Owner          string
	Params         MarketParams
	Initialized    bool
	TotalSupply    int64
	CreatedAt      time.Time
}
