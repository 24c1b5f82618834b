package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/cimillas/agora-market/internal/app"
	"github.com/cimillas/agora-market/internal/clock"
	"github.com/cimillas/agora-market/internal/domain"
	"github.com/cimillas/agora-market/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ app.FactoryRepository = (*FactoryRepository)(nil)
	_ app.CatalogRepository = (*CatalogRepository)(nil)
	_ app.ResaleRepository  = (*ResaleRepository)(nil)
)

const (
	owner  = "0xa11ce"
	buyer  = "0xb0b"
	buyer2 = "0xca401"
)

func TestFactoryRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)
	repo := NewFactoryRepository(pool)

	t.Run("extensions get sequential indexes and unique names", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		now := time.Now().UTC().Truncate(time.Microsecond)
		first, err := repo.CreateExtension(ctx, domain.Extension{Name: "Default", Implementation: domain.ImplementationDefault, CreatedBy: owner, CreatedAt: now})
		require.NoError(t, err)
		second, err := repo.CreateExtension(ctx, domain.Extension{Name: "Secondary", Implementation: domain.ImplementationSecondary, CreatedBy: owner, CreatedAt: now})
		require.NoError(t, err)
		assert.Equal(t, int64(0), first.Index)
		assert.Equal(t, int64(1), second.Index)

		_, err = repo.CreateExtension(ctx, domain.Extension{Name: "Default", Implementation: domain.ImplementationSecondary, CreatedBy: owner, CreatedAt: now})
		assert.ErrorIs(t, err, domain.ErrDuplicateExtension)

		got, err := repo.GetExtensionByIndex(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Secondary", got.Name)

		_, err = repo.GetExtensionByName(ctx, "Missing")
		assert.ErrorIs(t, err, domain.ErrUnknownExtension)

		all, err := repo.ListExtensions(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("markets initialize once", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertExtension(t, ctx, pool, "Default", domain.ImplementationDefault)

		market, err := repo.CreateMarket(ctx, domain.Market{
			ID:             "7b0c6d1e-3f2a-4c55-9a51-1d2f0b6b8e01",
			ExtensionName:  "Default",
			Implementation: domain.ImplementationDefault,
			Owner:          owner,
			CreatedAt:      time.Now().UTC(),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), market.Index)

		params := domain.MarketParams{Symbol: "FAM", Name: "First Agora Market"}
		require.NoError(t, repo.InitializeMarket(ctx, market.ID, params))
		assert.ErrorIs(t, repo.InitializeMarket(ctx, market.ID, params), domain.ErrAlreadyInitialized)

		got, err := repo.GetMarketByIndex(ctx, 0)
		require.NoError(t, err)
		assert.True(t, got.Initialized)
		assert.Equal(t, params, got.Params)

		owned, err := repo.ListMarketsByOwner(ctx, owner)
		require.NoError(t, err)
		assert.Len(t, owned, 1)

		_, err = repo.GetMarket(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, domain.ErrUnknownMarket)
		_, err = repo.GetMarketByIndex(ctx, 5)
		assert.ErrorIs(t, err, domain.ErrUnknownMarket)
	})
}

func TestServicesOverPostgres(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)

	clk := clock.NewFixed(time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC))
	factory := app.NewFactoryService(NewFactoryRepository(pool), clk, owner)
	catalog := app.NewCatalogService(NewCatalogRepository(pool), clk)
	resale := app.NewResaleService(NewResaleRepository(pool), clk)
	price := decimal.RequireFromString("100000000000000000")

	setup := func(t *testing.T, extName string, impl domain.Implementation, args string) domain.Market {
		t.Helper()
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		_, err := factory.AddExtension(ctx, app.AddExtensionInput{Caller: owner, Name: extName, Implementation: impl})
		require.NoError(t, err)
		market, err := factory.DeployMarket(ctx, app.DeployMarketInput{Caller: owner, Extension: extName, InitArgs: []byte(args)})
		require.NoError(t, err)
		return market
	}

	t.Run("catalog purchase credits proceeds and rolls back failures", func(t *testing.T) {
		ctx := context.Background()
		market := setup(t, "Default", domain.ImplementationDefault, `{"symbol":"FAM","name":"First Agora Market"}`)

		_, err := catalog.CreateProduct(ctx, app.CreateProductInput{MarketID: market.ID, Caller: owner, Symbol: "MS", Name: "Milkshake", Price: price, Quantity: 1})
		require.NoError(t, err)
		_, err = catalog.CreateProduct(ctx, app.CreateProductInput{MarketID: market.ID, Caller: buyer, Symbol: "FD", Name: "Fries", Price: price, Quantity: 1})
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)

		_, err = catalog.Purchase(ctx, app.PurchaseInput{MarketID: market.ID, Buyer: buyer, Symbol: "MS", Quantity: 10, Payment: price})
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		_, err = catalog.Purchase(ctx, app.PurchaseInput{MarketID: market.ID, Buyer: buyer, Symbol: "MS", Quantity: 1, Payment: decimal.Zero})
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

		receipt, err := catalog.Purchase(ctx, app.PurchaseInput{MarketID: market.ID, Buyer: buyer, Symbol: "MS", Quantity: 1, Payment: price})
		require.NoError(t, err)
		assert.Equal(t, owner, receipt.Payee)

		product, err := catalog.Inspect(ctx, market.ID, "MS")
		require.NoError(t, err)
		assert.Equal(t, int64(0), product.Quantity)
		assert.True(t, price.Equal(product.Price))

		proceeds, err := catalog.ProceedsOf(ctx, market.ID, owner)
		require.NoError(t, err)
		assert.True(t, price.Equal(proceeds))

		_, err = catalog.Purchase(ctx, app.PurchaseInput{MarketID: market.ID, Buyer: buyer, Symbol: "MS", Quantity: 1, Payment: price})
		assert.ErrorIs(t, err, domain.ErrOutOfStock)
	})

	t.Run("capped item counters", func(t *testing.T) {
		ctx := context.Background()
		market := setup(t, "NFT Launch", domain.ImplementationCappedItem, `{"symbol":"GFM","name":"GweiFace Market","max_per_owner":2}`)

		_, err := catalog.CreateProduct(ctx, app.CreateProductInput{MarketID: market.ID, Caller: owner, Symbol: "GFC", Name: "GweiFace", Price: decimal.NewFromInt(5), Quantity: 10})
		require.NoError(t, err)

		_, err = catalog.Purchase(ctx, app.PurchaseInput{MarketID: market.ID, Buyer: buyer, Symbol: "GFC", Quantity: 3, Payment: decimal.NewFromInt(15)})
		assert.ErrorIs(t, err, domain.ErrExceedsMaxPerOwner)
		_, err = catalog.Purchase(ctx, app.PurchaseInput{MarketID: market.ID, Buyer: buyer, Symbol: "GFC", Quantity: 2, Payment: decimal.NewFromInt(10)})
		require.NoError(t, err)
		_, err = catalog.Purchase(ctx, app.PurchaseInput{MarketID: market.ID, Buyer: buyer2, Symbol: "GFC", Quantity: 1, Payment: decimal.NewFromInt(5)})
		require.NoError(t, err)

		balance, err := catalog.BalanceOf(ctx, market.ID, buyer)
		require.NoError(t, err)
		assert.Equal(t, int64(2), balance)
		supply, err := catalog.TotalSupply(ctx, market.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), supply)
	})

	t.Run("roles", func(t *testing.T) {
		ctx := context.Background()
		market := setup(t, "Default", domain.ImplementationDefault, `{"symbol":"FAM","name":"First Agora Market"}`)

		require.NoError(t, catalog.GrantAdmin(ctx, market.ID, owner, buyer))
		require.NoError(t, catalog.GrantAdmin(ctx, market.ID, owner, buyer))
		admins, err := catalog.ListAdmins(ctx, market.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{owner, buyer}, admins)

		require.NoError(t, catalog.RevokeAdmin(ctx, market.ID, owner, buyer))
		assert.ErrorIs(t, catalog.RevokeAdmin(ctx, market.ID, owner, owner), domain.ErrOwnerRoleImmutable)
	})

	t.Run("resale lifecycle", func(t *testing.T) {
		ctx := context.Background()
		market := setup(t, "Secondary Market", domain.ImplementationSecondary, `{"symbol":"SAM","name":"Secondary Agora Market"}`)

		_, err := catalog.CreateProduct(ctx, app.CreateProductInput{MarketID: market.ID, Caller: owner, Symbol: "MS", Name: "Milkshake", Price: price, Quantity: 5})
		require.NoError(t, err)
		_, err = catalog.Purchase(ctx, app.PurchaseInput{MarketID: market.ID, Buyer: buyer, Symbol: "MS", Quantity: 1, Payment: price})
		require.NoError(t, err)

		listing, err := resale.CreateListing(ctx, app.CreateListingInput{MarketID: market.ID, Seller: buyer, Symbol: "MS", Price: price, Quantity: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(1), listing.ID)

		_, err = resale.CreateListing(ctx, app.CreateListingInput{MarketID: market.ID, Seller: buyer, Symbol: "MS", Price: price, Quantity: 1})
		assert.ErrorIs(t, err, domain.ErrSellingMoreThanOwned)

		_, err = resale.PurchaseListing(ctx, app.PurchaseListingInput{MarketID: market.ID, Buyer: buyer2, ListingID: listing.ID, Quantity: 1, Payment: price})
		require.NoError(t, err)

		got, err := resale.InspectListing(ctx, market.ID, listing.ID)
		require.NoError(t, err)
		assert.True(t, got.Sold)
		assert.False(t, got.Active)
		assert.Equal(t, buyer2, got.Buyer)
		require.NotNil(t, got.SoldAt)

		held, err := resale.InspectHoldingCount(ctx, market.ID, buyer2, "MS")
		require.NoError(t, err)
		assert.Equal(t, int64(1), held)

		sellerProceeds, err := catalog.ProceedsOf(ctx, market.ID, buyer)
		require.NoError(t, err)
		assert.True(t, price.Equal(sellerProceeds))

		_, err = resale.PurchaseListing(ctx, app.PurchaseListingInput{MarketID: market.ID, Buyer: owner, ListingID: listing.ID, Quantity: 1, Payment: price})
		assert.ErrorIs(t, err, domain.ErrListingAlreadySold)
		_, err = resale.InspectListing(ctx, market.ID, 42)
		assert.ErrorIs(t, err, domain.ErrUnknownListing)
	})
}
