package memory

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/cimillas/agora-market/internal/app"
	"github.com/cimillas/agora-market/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ app.FactoryRepository = (*Store)(nil)
	_ app.CatalogRepository = (*Store)(nil)
	_ app.ResaleRepository  = (*Store)(nil)
)

func TestStore_WithTxRollsBack(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	market, err := store.CreateMarket(ctx, domain.Market{ID: "m1", Owner: "alice"})
	require.NoError(t, err)
	require.NoError(t, store.CreateProduct(ctx, domain.Product{MarketID: market.ID, Symbol: "MS", Quantity: 1}))

	boom := errors.New("boom")
	err = store.WithTx(ctx, func(txCtx context.Context) error {
		require.NoError(t, store.UpdateProduct(txCtx, domain.Product{MarketID: market.ID, Symbol: "MS", Quantity: 0}))
		require.NoError(t, store.CreditProceeds(txCtx, market.ID, "alice", decimal.NewFromInt(10)))
		require.NoError(t, store.AddHolding(txCtx, market.ID, "bob", "MS", 1))
		_, err := store.CreateListing(txCtx, domain.Listing{MarketID: market.ID, Seller: "bob", Quantity: 1})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := store.GetProduct(ctx, market.ID, "MS")
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.Quantity)

	proceeds, err := store.GetProceeds(ctx, market.ID, "alice")
	require.NoError(t, err)
	assert.True(t, proceeds.IsZero())

	held, err := store.GetHolding(ctx, market.ID, "bob", "MS")
	require.NoError(t, err)
	assert.Zero(t, held)

	_, err = store.GetListing(ctx, market.ID, 1)
	assert.ErrorIs(t, err, domain.ErrUnknownListing)
}

func TestStore_WithTxRollsBackOnPanic(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	require.NoError(t, store.AddHolding(ctx, "m", "bob", "MS", 2))

	assert.PanicsWithValue(t, "boom", func() {
		_ = store.WithTx(ctx, func(txCtx context.Context) error {
			require.NoError(t, store.AddHolding(txCtx, "m", "bob", "MS", -2))
			panic("boom")
		})
	})

	held, err := store.GetHolding(ctx, "m", "bob", "MS")
	require.NoError(t, err)
	assert.Equal(t, int64(2), held)

	require.NoError(t, store.AddHolding(ctx, "m", "bob", "MS", 1))
}

func TestStore_QuantityBounds(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	market, err := store.CreateMarket(ctx, domain.Market{ID: "m1", Owner: "alice"})
	require.NoError(t, err)
	require.NoError(t, store.CreateProduct(ctx, domain.Product{MarketID: market.ID, Symbol: "MS", Quantity: 1}))

	require.NoError(t, store.AddHolding(ctx, market.ID, "bob", "MS", math.MaxInt64))
	assert.ErrorIs(t, store.AddHolding(ctx, market.ID, "bob", "MS", 1), domain.ErrInvalidQuantity)
	require.NoError(t, store.AddBalance(ctx, market.ID, "bob", math.MaxInt64))
	assert.ErrorIs(t, store.AddBalance(ctx, market.ID, "bob", 1), domain.ErrInvalidQuantity)
	require.NoError(t, store.AddTotalSupply(ctx, market.ID, math.MaxInt64))
	assert.ErrorIs(t, store.AddTotalSupply(ctx, market.ID, 1), domain.ErrInvalidQuantity)
	assert.ErrorIs(t, store.UpdateProduct(ctx, domain.Product{MarketID: market.ID, Symbol: "MS", Quantity: -1}), domain.ErrInvalidQuantity)

	held, err := store.GetHolding(ctx, market.ID, "bob", "MS")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), held)
}

func TestStore_NestedTxJoinsOuter(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	err := store.WithTx(ctx, func(txCtx context.Context) error {
		return store.WithTx(txCtx, func(inner context.Context) error {
			_, err := store.CreateExtension(inner, domain.Extension{Name: "Default", Implementation: domain.ImplementationDefault})
			return err
		})
	})
	require.NoError(t, err)

	ext, err := store.GetExtensionByIndex(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "Default", ext.Name)
}

func TestStore_Extensions(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	first, err := store.CreateExtension(ctx, domain.Extension{Name: "Default", Implementation: domain.ImplementationDefault})
	require.NoError(t, err)
	second, err := store.CreateExtension(ctx, domain.Extension{Name: "NFT Launch", Implementation: domain.ImplementationCappedItem})
	require.NoError(t, err)
	assert.Equal(t, int64(0), first.Index)
	assert.Equal(t, int64(1), second.Index)

	_, err = store.CreateExtension(ctx, domain.Extension{Name: "Default", Implementation: domain.ImplementationSecondary})
	assert.ErrorIs(t, err, domain.ErrDuplicateExtension)

	got, err := store.GetExtensionByName(ctx, "NFT Launch")
	require.NoError(t, err)
	assert.Equal(t, domain.ImplementationCappedItem, got.Implementation)

	_, err = store.GetExtensionByName(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrUnknownExtension)
	_, err = store.GetExtensionByIndex(ctx, 2)
	assert.ErrorIs(t, err, domain.ErrUnknownExtension)
}

func TestStore_MarketsAndInitialization(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	a, err := store.CreateMarket(ctx, domain.Market{ID: "a", Owner: "alice"})
	require.NoError(t, err)
	b, err := store.CreateMarket(ctx, domain.Market{ID: "b", Owner: "bob"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), a.Index)
	assert.Equal(t, int64(1), b.Index)

	got, err := store.GetMarketByIndex(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)

	owned, err := store.ListMarketsByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "a", owned[0].ID)

	params := domain.MarketParams{Symbol: "FAM", Name: "First Agora Market"}
	require.NoError(t, store.InitializeMarket(ctx, "a", params))
	assert.ErrorIs(t, store.InitializeMarket(ctx, "a", params), domain.ErrAlreadyInitialized)
	assert.ErrorIs(t, store.InitializeMarket(ctx, "zzz", params), domain.ErrUnknownMarket)

	got, err = store.GetMarket(ctx, "a")
	require.NoError(t, err)
	assert.True(t, got.Initialized)
	assert.Equal(t, params, got.Params)
}

func TestStore_ListingsAndHoldings(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.ErrorIs(t, store.AddHolding(ctx, "m", "bob", "MS", -1), domain.ErrSellingMoreThanOwned)
	require.NoError(t, store.AddHolding(ctx, "m", "bob", "MS", 2))

	l1, err := store.CreateListing(ctx, domain.Listing{MarketID: "m", Seller: "bob", Quantity: 1, Active: true})
	require.NoError(t, err)
	l2, err := store.CreateListing(ctx, domain.Listing{MarketID: "m", Seller: "bob", Quantity: 1, Active: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), l1.ID)
	assert.Equal(t, int64(2), l2.ID)

	l1.Buyer = "carol"
	l1.SoldAt = &now
	require.NoError(t, store.MarkListingSold(ctx, l1))
	assert.ErrorIs(t, store.MarkListingSold(ctx, l1), domain.ErrListingAlreadySold)

	got, err := store.GetListing(ctx, "m", 1)
	require.NoError(t, err)
	assert.True(t, got.Sold)
	assert.False(t, got.Active)
	assert.Equal(t, "carol", got.Buyer)

	all, err := store.ListListings(ctx, "m")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
