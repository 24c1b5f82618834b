package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/cimillas/agora-market/internal/app"
	"github.com/cimillas/agora-market/internal/clock"
	"github.com/cimillas/agora-market/internal/domain"
	"github.com/cimillas/agora-market/internal/storage/postgres"
	"github.com/cimillas/agora-market/internal/testutil"
)

func TestSecondaryMarket_HTTPIntegration(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	clk := clock.NewFixed(time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC))
	api := &apiClient{t: t, handler: NewRouter(RouterConfig{
		Factory: app.NewFactoryService(postgres.NewFactoryRepository(pool), clk, admin),
		Catalog: app.NewCatalogService(postgres.NewCatalogRepository(pool), clk),
		Resale:  app.NewResaleService(postgres.NewResaleRepository(pool), clk),
		Ping:    pool.Ping,
	})}

	testutil.InsertExtension(t, ctx, pool, "Secondary Market", domain.ImplementationSecondary)
	marketID := testutil.InsertMarket(t, ctx, pool, "Secondary Market", admin, domain.MarketParams{Symbol: "SAM", Name: "Secondary Agora Market"})
	base := "/markets/" + marketID

	if rec := api.do(http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected health 200, got %d", rec.Code)
	}

	rec := api.do(http.MethodPost, base+"/products", admin, `{"symbol":"MS","name":"Milkshake","price":"100000000000000000","quantity":2}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = api.do(http.MethodPost, base+"/products/MS/purchase", holder, `{"quantity":2,"payment":"250000000000000000"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	receipt := decode[receiptResponse](t, rec)
	if receipt.Change.String() != "50000000000000000" {
		t.Fatalf("expected change 5e16, got %s", receipt.Change)
	}

	rec = api.do(http.MethodPost, base+"/listings", holder, `{"symbol":"MS","price":"300000000000000000","quantity":2}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	listing := decode[listingResponse](t, rec)

	rec = api.do(http.MethodPost, base+"/listings/1/purchase", buyer, `{"quantity":1,"payment":"600000000000000000"}`)
	if got := errorCode(t, rec); got != codePartialFill {
		t.Fatalf("expected %s, got %s", codePartialFill, got)
	}

	rec = api.do(http.MethodPost, base+"/listings/1/purchase", buyer, `{"quantity":2,"payment":"600000000000000000"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var sold bool
	var holding int64
	if err := pool.QueryRow(ctx, `SELECT sold FROM listings WHERE market_id = $1 AND id = $2`, marketID, listing.ID).Scan(&sold); err != nil {
		t.Fatalf("query listing: %v", err)
	}
	if err := pool.QueryRow(ctx, `SELECT quantity FROM holdings WHERE market_id = $1 AND holder = $2 AND symbol = 'MS'`, marketID, buyer).Scan(&holding); err != nil {
		t.Fatalf("query holding: %v", err)
	}
	if !sold || holding != 2 {
		t.Fatalf("expected sold listing and 2 held units, got sold=%v holding=%d", sold, holding)
	}
}
