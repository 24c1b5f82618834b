// Package memory is a transactional in-memory store. Transactions hold the store lock
// for their whole duration and roll back by restoring a snapshot taken at begin.
package memory

import (
	"context"
	"sync"

	"github.com/cimillas/agora-market/internal/domain"
	"github.com/shopspring/decimal"
)

type txKey struct{}

type productKey struct {
	marketID string
	symbol   string
}

type holderKey struct {
	marketID string
	holder   string
}

type holdingKey struct {
	marketID string
	holder   string
	symbol   string
}

type state struct {
	extensions  []domain.Extension
	markets     map[string]domain.Market
	marketOrder []string
	admins      map[string]map[string]struct{}
	products    map[productKey]domain.Product
	balances    map[holderKey]int64
	proceeds    map[holderKey]decimal.Decimal
	holdings    map[holdingKey]int64
	listings    map[string][]domain.Listing
}

func newState() *state {
	return &state{
		markets:  make(map[string]domain.Market),
		admins:   make(map[string]map[string]struct{}),
		products: make(map[productKey]domain.Product),
		balances: make(map[holderKey]int64),
		proceeds: make(map[holderKey]decimal.Decimal),
		holdings: make(map[holdingKey]int64),
		listings: make(map[string][]domain.Listing),
	}
}

func (s *state) clone() *state {
	c := newState()
	c.extensions = append([]domain.Extension(nil), s.extensions...)
	c.marketOrder = append([]string(nil), s.marketOrder...)
	for k, v := range s.markets {
		c.markets[k] = v
	}
	for k, set := range s.admins {
		cp := make(map[string]struct{}, len(set))
		for id := range set {
			cp[id] = struct{}{}
		}
		c.admins[k] = cp
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for k, v := range s.proceeds {
		c.proceeds[k] = v
	}
	for k, v := range s.holdings {
		c.holdings[k] = v
	}
	for k, v := range s.listings {
		c.listings[k] = append([]domain.Listing(nil), v...)
	}
	return c
}

// Store implements the app repositories over process memory.
type Store struct {
	mu    sync.RWMutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

// WithTx runs fn with exclusive access to the store. The state is snapshotted before
// the first write; an error or a panic in fn restores it.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txState{}
	defer func() {
		if r := recover(); r != nil {
			tx.rollback(s)
			panic(r)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		tx.rollback(s)
		return err
	}
	return nil
}

// txState tracks the snapshot of a running transaction.
type txState struct {
	snapshot *state
}

func (tx *txState) rollback(s *Store) {
	if tx.snapshot != nil {
		s.state = tx.snapshot
	}
}

func txFrom(ctx context.Context) *txState {
	tx, _ := ctx.Value(txKey{}).(*txState)
	return tx
}

func inTx(ctx context.Context) bool {
	return txFrom(ctx) != nil
}

// read runs fn under the read lock unless the caller already owns the store.
func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if !inTx(ctx) {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return fn(s.state)
}

// write runs fn under the write lock unless the caller already owns the store.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	tx := txFrom(ctx)
	if tx == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	} else if tx.snapshot == nil {
		tx.snapshot = s.state.clone()
	}
	return fn(s.state)
}
