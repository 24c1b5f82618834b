package app

import (
	"context"
	"strconv"

	"github.com/cimillas/agora-market/internal/clock"
	"github.com/cimillas/agora-market/internal/domain"
	"github.com/cimillas/agora-market/internal/events"
	"github.com/cimillas/agora-market/internal/extension"
	"github.com/shopspring/decimal"
)

type ResaleRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetMarket(ctx context.Context, marketID string) (domain.Market, error)
	GetMarketForUpdate(ctx context.Context, marketID string) (domain.Market, error)
	GetProduct(ctx context.Context, marketID, symbol string) (domain.Product, error)
	GetHolding(ctx context.Context, marketID, holder, symbol string) (int64, error)
	AddHolding(ctx context.Context, marketID, holder, symbol string, delta int64) error
	CreateListing(ctx context.Context, listing domain.Listing) (domain.Listing, error)
	GetListing(ctx context.Context, marketID string, listingID int64) (domain.Listing, error)
	MarkListingSold(ctx context.Context, listing domain.Listing) error
	ListListings(ctx context.Context, marketID string) ([]domain.Listing, error)
	CreditProceeds(ctx context.Context, marketID, identity string, amount decimal.Decimal) error
}

// ResaleService runs the peer-to-peer listing flow on markets bound to a resale variant.
type ResaleService struct {
	repo  ResaleRepository
	clock clock.Clock
	opts  serviceOptions
}

func NewResaleService(repo ResaleRepository, clk clock.Clock, opts ...Option) *ResaleService {
	return &ResaleService{
		repo:  repo,
		clock: clk,
		opts:  applyOptions(opts),
	}
}

type CreateListingInput struct {
	MarketID string
	Seller   string
	Symbol   string
	Price    decimal.Decimal
	Quantity int64
}

// CreateListing moves Quantity units of the seller's free holdings into a new active listing.
func (s *ResaleService) CreateListing(ctx context.Context, in CreateListingInput) (domain.Listing, error) {
	if in.Seller == "" {
		return domain.Listing{}, domain.ErrIdentityRequired
	}
	if in.Quantity <= 0 {
		return domain.Listing{}, domain.ErrInvalidQuantity
	}
	if !domain.ValidAmount(in.Price) {
		return domain.Listing{}, domain.ErrInvalidAmount
	}

	now := s.clock.Now()
	var result domain.Listing

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		market, err := s.lockResaleMarket(txCtx, in.MarketID)
		if err != nil {
			return err
		}
		product, err := s.repo.GetProduct(txCtx, market.ID, in.Symbol)
		if err != nil {
			return err
		}
		held, err := s.repo.GetHolding(txCtx, market.ID, in.Seller, in.Symbol)
		if err != nil {
			return err
		}
		if in.Quantity > held {
			return domain.ErrSellingMoreThanOwned
		}
		if err := s.repo.AddHolding(txCtx, market.ID, in.Seller, in.Symbol, -in.Quantity); err != nil {
			return err
		}

		listing, err := s.repo.CreateListing(txCtx, domain.Listing{
			MarketID:  market.ID,
			Seller:    in.Seller,
			Symbol:    product.Symbol,
			Name:      product.Name,
			Price:     in.Price,
			Quantity:  in.Quantity,
			Active:    true,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
		result = listing
		return nil
	})
	if err != nil {
		return domain.Listing{}, err
	}

	s.opts.publish(ctx, events.Event{
		Type:       events.TypeListingCreated,
		MarketID:   result.MarketID,
		Actor:      result.Seller,
		OccurredAt: now,
		Attributes: map[string]string{
			"listing_id": strconv.FormatInt(result.ID, 10),
			"symbol":     result.Symbol,
			"price":      result.Price.String(),
			"quantity":   strconv.FormatInt(result.Quantity, 10),
		},
	})
	return result, nil
}

// Consign is the holder-facing catalog entry point: it surfaces held units for resale
// and follows the same holdings rules as CreateListing.
func (s *ResaleService) Consign(ctx context.Context, in CreateListingInput) (domain.Listing, error) {
	return s.CreateListing(ctx, in)
}

type PurchaseListingInput struct {
	MarketID  string
	Buyer     string
	ListingID int64
	Quantity  int64
	Payment   decimal.Decimal
}

// PurchaseListing fills an active listing in full. The seller is credited exactly
// price*quantity; excess payment is returned as change.
func (s *ResaleService) PurchaseListing(ctx context.Context, in PurchaseListingInput) (domain.Receipt, error) {
	if in.Buyer == "" {
		return domain.Receipt{}, domain.ErrIdentityRequired
	}
	if in.Quantity <= 0 {
		return domain.Receipt{}, domain.ErrInvalidQuantity
	}
	if !domain.ValidAmount(in.Payment) {
		return domain.Receipt{}, domain.ErrInvalidAmount
	}

	now := s.clock.Now()
	var receipt domain.Receipt

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		market, err := s.lockResaleMarket(txCtx, in.MarketID)
		if err != nil {
			return err
		}
		listing, err := s.repo.GetListing(txCtx, market.ID, in.ListingID)
		if err != nil {
			return err
		}
		if listing.Sold {
			return domain.ErrListingAlreadySold
		}
		cost := domain.Cost(listing.Price, in.Quantity)
		if in.Payment.LessThan(cost) {
			return domain.ErrInsufficientFunds
		}
		if in.Quantity > listing.Quantity {
			return domain.ErrExceedsListingQuantity
		}
		if in.Quantity < listing.Quantity {
			return domain.ErrPartialFill
		}

		listing.Sold = true
		listing.Active = false
		listing.Buyer = in.Buyer
		listing.SoldAt = &now
		if err := s.repo.MarkListingSold(txCtx, listing); err != nil {
			return err
		}
		if err := s.repo.CreditProceeds(txCtx, market.ID, listing.Seller, cost); err != nil {
			return err
		}
		if err := s.repo.AddHolding(txCtx, market.ID, in.Buyer, listing.Symbol, in.Quantity); err != nil {
			return err
		}

		receipt = domain.Receipt{
			MarketID: market.ID,
			Symbol:   listing.Symbol,
			Buyer:    in.Buyer,
			Payee:    listing.Seller,
			Quantity: in.Quantity,
			Cost:     cost,
			Change:   in.Payment.Sub(cost),
		}
		return nil
	})
	if err != nil {
		return domain.Receipt{}, err
	}

	s.opts.publish(ctx, events.Event{
		Type:       events.TypeListingSold,
		MarketID:   receipt.MarketID,
		Actor:      receipt.Buyer,
		OccurredAt: now,
		Attributes: map[string]string{
			"listing_id": strconv.FormatInt(in.ListingID, 10),
			"symbol":     receipt.Symbol,
			"seller":     receipt.Payee,
			"cost":       receipt.Cost.String(),
		},
	})
	return receipt, nil
}

func (s *ResaleService) InspectListing(ctx context.Context, marketID string, listingID int64) (domain.Listing, error) {
	market, err := s.loadResaleMarket(ctx, marketID)
	if err != nil {
		return domain.Listing{}, err
	}
	return s.repo.GetListing(ctx, market.ID, listingID)
}

func (s *ResaleService) ListListings(ctx context.Context, marketID string) ([]domain.Listing, error) {
	market, err := s.loadResaleMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListListings(ctx, market.ID)
}

// InspectHoldingCount returns the free units of symbol held by holder.
func (s *ResaleService) InspectHoldingCount(ctx context.Context, marketID, holder, symbol string) (int64, error) {
	market, err := s.loadResaleMarket(ctx, marketID)
	if err != nil {
		return 0, err
	}
	return s.repo.GetHolding(ctx, market.ID, holder, symbol)
}

func (s *ResaleService) loadResaleMarket(ctx context.Context, marketID string) (domain.Market, error) {
	if marketID == "" {
		return domain.Market{}, domain.ErrInvalidID
	}
	market, err := s.repo.GetMarket(ctx, marketID)
	if err != nil {
		return domain.Market{}, err
	}
	return market, checkResale(market)
}

func (s *ResaleService) lockResaleMarket(ctx context.Context, marketID string) (domain.Market, error) {
	if marketID == "" {
		return domain.Market{}, domain.ErrInvalidID
	}
	market, err := s.repo.GetMarketForUpdate(ctx, marketID)
	if err != nil {
		return domain.Market{}, err
	}
	return market, checkResale(market)
}

func checkResale(market domain.Market) error {
	if !market.Initialized {
		return domain.ErrNotInitialized
	}
	behavior, err := extension.Lookup(market.Implementation)
	if err != nil {
		return err
	}
	if !behavior.Resale() {
		return domain.ErrUnsupportedOperation
	}
	return nil
}
