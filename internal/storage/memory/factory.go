package memory

import (
	"context"
	"sort"

	"github.com/cimillas/agora-market/internal/domain"
)

func (s *Store) CreateExtension(ctx context.Context, ext domain.Extension) (domain.Extension, error) {
	err := s.write(ctx, func(st *state) error {
		for _, existing := range st.extensions {
			if existing.Name == ext.Name {
				return domain.ErrDuplicateExtension
			}
		}
		ext.Index = int64(len(st.extensions))
		st.extensions = append(st.extensions, ext)
		return nil
	})
	if err != nil {
		return domain.Extension{}, err
	}
	return ext, nil
}

func (s *Store) GetExtensionByName(ctx context.Context, name string) (domain.Extension, error) {
	var out domain.Extension
	err := s.read(ctx, func(st *state) error {
		for _, ext := range st.extensions {
			if ext.Name == name {
				out = ext
				return nil
			}
		}
		return domain.ErrUnknownExtension
	})
	return out, err
}

func (s *Store) GetExtensionByIndex(ctx context.Context, index int64) (domain.Extension, error) {
	var out domain.Extension
	err := s.read(ctx, func(st *state) error {
		if index < 0 || index >= int64(len(st.extensions)) {
			return domain.ErrUnknownExtension
		}
		out = st.extensions[index]
		return nil
	})
	return out, err
}

func (s *Store) ListExtensions(ctx context.Context) ([]domain.Extension, error) {
	var out []domain.Extension
	err := s.read(ctx, func(st *state) error {
		out = append(out, st.extensions...)
		return nil
	})
	return out, err
}

func (s *Store) CreateMarket(ctx context.Context, market domain.Market) (domain.Market, error) {
	err := s.write(ctx, func(st *state) error {
		if _, exists := st.markets[market.ID]; exists {
			return domain.ErrInvalidID
		}
		market.Index = int64(len(st.marketOrder))
		st.markets[market.ID] = market
		st.marketOrder = append(st.marketOrder, market.ID)
		return nil
	})
	if err != nil {
		return domain.Market{}, err
	}
	return market, nil
}

func (s *Store) GetMarket(ctx context.Context, marketID string) (domain.Market, error) {
	var out domain.Market
	err := s.read(ctx, func(st *state) error {
		m, ok := st.markets[marketID]
		if !ok {
			return domain.ErrUnknownMarket
		}
		out = m
		return nil
	})
	return out, err
}

// GetMarketForUpdate is GetMarket; the transaction already holds the store lock.
func (s *Store) GetMarketForUpdate(ctx context.Context, marketID string) (domain.Market, error) {
	return s.GetMarket(ctx, marketID)
}

func (s *Store) GetMarketByIndex(ctx context.Context, index int64) (domain.Market, error) {
	var out domain.Market
	err := s.read(ctx, func(st *state) error {
		if index < 0 || index >= int64(len(st.marketOrder)) {
			return domain.ErrUnknownMarket
		}
		out = st.markets[st.marketOrder[index]]
		return nil
	})
	return out, err
}

func (s *Store) ListMarketsByOwner(ctx context.Context, owner string) ([]domain.Market, error) {
	var out []domain.Market
	err := s.read(ctx, func(st *state) error {
		for _, id := range st.marketOrder {
			if m := st.markets[id]; m.Owner == owner {
				out = append(out, m)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, err
}

func (s *Store) InitializeMarket(ctx context.Context, marketID string, params domain.MarketParams) error {
	return s.write(ctx, func(st *state) error {
		m, ok := st.markets[marketID]
		if !ok {
			return domain.ErrUnknownMarket
		}
		if m.Initialized {
			return domain.ErrAlreadyInitialized
		}
		m.Params = params
		m.Initialized = true
		st.markets[marketID] = m
		return nil
	})
}
