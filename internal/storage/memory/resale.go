package memory

import (
	"context"

	"github.com/cimillas/agora-market/internal/domain"
)

func (s *Store) GetHolding(ctx context.Context, marketID, holder, symbol string) (int64, error) {
	var out int64
	err := s.read(ctx, func(st *state) error {
		out = st.holdings[holdingKey{marketID, holder, symbol}]
		return nil
	})
	return out, err
}

// AddHolding adjusts a holdings entry. A debit below zero fails with ErrSellingMoreThanOwned.
func (s *Store) AddHolding(ctx context.Context, marketID, holder, symbol string, delta int64) error {
	return s.write(ctx, func(st *state) error {
		key := holdingKey{marketID, holder, symbol}
		next, err := domain.AddQuantity(st.holdings[key], delta)
		if err != nil {
			return err
		}
		if next < 0 {
			return domain.ErrSellingMoreThanOwned
		}
		st.holdings[key] = next
		return nil
	})
}

// CreateListing assigns the next sequential id of the market, starting at 1.
func (s *Store) CreateListing(ctx context.Context, listing domain.Listing) (domain.Listing, error) {
	err := s.write(ctx, func(st *state) error {
		listing.ID = int64(len(st.listings[listing.MarketID])) + 1
		st.listings[listing.MarketID] = append(st.listings[listing.MarketID], listing)
		return nil
	})
	if err != nil {
		return domain.Listing{}, err
	}
	return listing, nil
}

func (s *Store) GetListing(ctx context.Context, marketID string, listingID int64) (domain.Listing, error) {
	var out domain.Listing
	err := s.read(ctx, func(st *state) error {
		listings := st.listings[marketID]
		if listingID < 1 || listingID > int64(len(listings)) {
			return domain.ErrUnknownListing
		}
		out = listings[listingID-1]
		return nil
	})
	return out, err
}

func (s *Store) MarkListingSold(ctx context.Context, listing domain.Listing) error {
	return s.write(ctx, func(st *state) error {
		listings := st.listings[listing.MarketID]
		if listing.ID < 1 || listing.ID > int64(len(listings)) {
			return domain.ErrUnknownListing
		}
		current := listings[listing.ID-1]
		if current.Sold {
			return domain.ErrListingAlreadySold
		}
		current.Sold = true
		current.Active = false
		current.Buyer = listing.Buyer
		current.SoldAt = listing.SoldAt
		listings[listing.ID-1] = current
		return nil
	})
}

func (s *Store) ListListings(ctx context.Context, marketID string) ([]domain.Listing, error) {
	var out []domain.Listing
	err := s.read(ctx, func(st *state) error {
		out = append(out, st.listings[marketID]...)
		return nil
	})
	return out, err
}
