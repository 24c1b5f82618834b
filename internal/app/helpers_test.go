package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cimillas/agora-market/internal/clock"
	"github.com/cimillas/agora-market/internal/domain"
	"github.com/cimillas/agora-market/internal/events"
	"github.com/cimillas/agora-market/internal/storage/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	alice = "0xa11ce"
	bob   = "0xb0b"
	carol = "0xca401"
)

var testNow = time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

// milkshakePrice is 1e17 in the smallest unit (0.1 of a whole coin).
var milkshakePrice = decimal.RequireFromString("100000000000000000")

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, evt := range p.events {
		out = append(out, evt.Type)
	}
	return out
}

type testEnv struct {
	store     *memory.Store
	factory   *FactoryService
	catalog   *CatalogService
	resale    *ResaleService
	publisher *recordingPublisher
	clock     *clock.Manual
}

// newTestEnv returns services over a fresh store with the standard extensions
// registered by alice, the factory admin.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	pub := &recordingPublisher{}
	clk := clock.NewManual(testNow)
	env := &testEnv{
		store:     store,
		factory:   NewFactoryService(store, clk, alice, WithPublisher(pub)),
		catalog:   NewCatalogService(store, clk, WithPublisher(pub)),
		resale:    NewResaleService(store, clk, WithPublisher(pub)),
		publisher: pub,
		clock:     clk,
	}

	for _, ext := range []struct {
		name string
		impl domain.Implementation
	}{
		{"Default", domain.ImplementationDefault},
		{"NFT Launch", domain.ImplementationCappedItem},
		{"Token Sale", domain.ImplementationCappedFungible},
		{"Secondary Market", domain.ImplementationSecondary},
	} {
		_, err := env.factory.AddExtension(context.Background(), AddExtensionInput{
			Caller:         alice,
			Name:           ext.name,
			Implementation: ext.impl,
		})
		require.NoError(t, err)
	}
	return env
}

func (e *testEnv) deploy(t *testing.T, owner, extension, args string) domain.Market {
	t.Helper()
	market, err := e.factory.DeployMarket(context.Background(), DeployMarketInput{
		Caller:    owner,
		Extension: extension,
		InitArgs:  []byte(args),
	})
	require.NoError(t, err)
	return market
}

func (e *testEnv) createMilkshake(t *testing.T, marketID string, quantity int64) domain.Product {
	t.Helper()
	product, err := e.catalog.CreateProduct(context.Background(), CreateProductInput{
		MarketID: marketID,
		Caller:   alice,
		Symbol:   "MS",
		Name:     "Milkshake",
		Price:    milkshakePrice,
		Quantity: quantity,
	})
	require.NoError(t, err)
	return product
}
