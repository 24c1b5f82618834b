// Package events publishes committed market activity to downstream consumers.
package events

import (
	"context"
	"time"
)

const (
	TypeMarketDeployed   = "market.deployed"
	TypeProductCreated   = "product.created"
	TypeProductRestocked = "product.restocked"
	TypeProductPurchased = "product.purchased"
	TypeListingCreated   = "listing.created"
	TypeListingSold      = "listing.sold"
)

// Event is a single committed state change of a market.
type Event struct {
	Type       string            `json:"type"`
	MarketID   string            `json:"market_id"`
	Actor      string            `json:"actor"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
