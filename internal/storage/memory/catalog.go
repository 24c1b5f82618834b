package memory

import (
	"context"
	"sort"

	"github.com/cimillas/agora-market/internal/domain"
	"github.com/shopspring/decimal"
)

func (s *Store) IsAdmin(ctx context.Context, marketID, identity string) (bool, error) {
	var ok bool
	err := s.read(ctx, func(st *state) error {
		_, ok = st.admins[marketID][identity]
		return nil
	})
	return ok, err
}

func (s *Store) SetAdmin(ctx context.Context, marketID, identity string, granted bool) error {
	return s.write(ctx, func(st *state) error {
		set := st.admins[marketID]
		if granted {
			if set == nil {
				set = make(map[string]struct{})
				st.admins[marketID] = set
			}
			set[identity] = struct{}{}
			return nil
		}
		delete(set, identity)
		return nil
	})
}

func (s *Store) ListAdmins(ctx context.Context, marketID string) ([]string, error) {
	var out []string
	err := s.read(ctx, func(st *state) error {
		for id := range st.admins[marketID] {
			out = append(out, id)
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) error {
	return s.write(ctx, func(st *state) error {
		key := productKey{product.MarketID, product.Symbol}
		if _, exists := st.products[key]; exists {
			return domain.ErrDuplicateProduct
		}
		st.products[key] = product
		return nil
	})
}

func (s *Store) GetProduct(ctx context.Context, marketID, symbol string) (domain.Product, error) {
	var out domain.Product
	err := s.read(ctx, func(st *state) error {
		p, ok := st.products[productKey{marketID, symbol}]
		if !ok {
			return domain.ErrUnknownProduct
		}
		out = p
		return nil
	})
	return out, err
}

// UpdateProduct persists the mutable fields of a product: quantity and locked.
func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) error {
	return s.write(ctx, func(st *state) error {
		key := productKey{product.MarketID, product.Symbol}
		existing, ok := st.products[key]
		if !ok {
			return domain.ErrUnknownProduct
		}
		if product.Quantity < 0 {
			return domain.ErrInvalidQuantity
		}
		existing.Quantity = product.Quantity
		existing.Locked = product.Locked
		st.products[key] = existing
		return nil
	})
}

func (s *Store) ListProducts(ctx context.Context, marketID string) ([]domain.Product, error) {
	var out []domain.Product
	err := s.read(ctx, func(st *state) error {
		for key, p := range st.products {
			if key.marketID == marketID {
				out = append(out, p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out, err
}

func (s *Store) CreditProceeds(ctx context.Context, marketID, identity string, amount decimal.Decimal) error {
	return s.write(ctx, func(st *state) error {
		key := holderKey{marketID, identity}
		st.proceeds[key] = st.proceeds[key].Add(amount)
		return nil
	})
}

func (s *Store) GetProceeds(ctx context.Context, marketID, identity string) (decimal.Decimal, error) {
	var out decimal.Decimal
	err := s.read(ctx, func(st *state) error {
		out = st.proceeds[holderKey{marketID, identity}]
		return nil
	})
	return out, err
}

func (s *Store) GetBalance(ctx context.Context, marketID, holder string) (int64, error) {
	var out int64
	err := s.read(ctx, func(st *state) error {
		out = st.balances[holderKey{marketID, holder}]
		return nil
	})
	return out, err
}

func (s *Store) AddBalance(ctx context.Context, marketID, holder string, delta int64) error {
	return s.write(ctx, func(st *state) error {
		key := holderKey{marketID, holder}
		next, err := domain.AddQuantity(st.balances[key], delta)
		if err != nil {
			return err
		}
		st.balances[key] = next
		return nil
	})
}

func (s *Store) AddTotalSupply(ctx context.Context, marketID string, delta int64) error {
	return s.write(ctx, func(st *state) error {
		m, ok := st.markets[marketID]
		if !ok {
			return domain.ErrUnknownMarket
		}
		next, err := domain.AddQuantity(m.TotalSupply, delta)
		if err != nil {
			return err
		}
		m.TotalSupply = next
		st.markets[marketID] = m
		return nil
	})
}
