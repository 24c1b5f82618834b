package app

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/cimillas/agora-market/internal/clock"
	"github.com/cimillas/agora-market/internal/domain"
	"github.com/cimillas/agora-market/internal/events"
	"github.com/cimillas/agora-market/internal/extension"
	"github.com/google/uuid"
)

type FactoryRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateExtension(ctx context.Context, ext domain.Extension) (domain.Extension, error)
	GetExtensionByName(ctx context.Context, name string) (domain.Extension, error)
	GetExtensionByIndex(ctx context.Context, index int64) (domain.Extension, error)
	ListExtensions(ctx context.Context) ([]domain.Extension, error)
	CreateMarket(ctx context.Context, market domain.Market) (domain.Market, error)
	GetMarket(ctx context.Context, marketID string) (domain.Market, error)
	GetMarketForUpdate(ctx context.Context, marketID string) (domain.Market, error)
	GetMarketByIndex(ctx context.Context, index int64) (domain.Market, error)
	ListMarketsByOwner(ctx context.Context, owner string) ([]domain.Market, error)
	InitializeMarket(ctx context.Context, marketID string, params domain.MarketParams) error
}

// FactoryService registers extensions and deploys market instances bound to them.
type FactoryService struct {
	repo  FactoryRepository
	clock clock.Clock
	admin string
	opts  serviceOptions
}

// NewFactoryService returns a factory administered by admin.
func NewFactoryService(repo FactoryRepository, clk clock.Clock, admin string, opts ...Option) *FactoryService {
	return &FactoryService{
		repo:  repo,
		clock: clk,
		admin: admin,
		opts:  applyOptions(opts),
	}
}

type AddExtensionInput struct {
	Caller         string
	Name           string
	Implementation domain.Implementation
}

func (s *FactoryService) AddExtension(ctx context.Context, in AddExtensionInput) (domain.Extension, error) {
	if in.Caller == "" {
		return domain.Extension{}, domain.ErrIdentityRequired
	}
	if in.Caller != s.admin {
		return domain.Extension{}, domain.ErrNotAuthorized
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Extension{}, domain.ErrNameRequired
	}
	if _, err := extension.Lookup(in.Implementation); err != nil {
		return domain.Extension{}, err
	}

	ext, err := s.repo.CreateExtension(ctx, domain.Extension{
		Name:           name,
		Implementation: in.Implementation,
		CreatedBy:      in.Caller,
		CreatedAt:      s.clock.Now(),
	})
	if err != nil {
		return domain.Extension{}, err
	}
	s.opts.logger.Infow("extension registered",
		"name", ext.Name,
		"index", ext.Index,
		"implementation", ext.Implementation,
	)
	return ext, nil
}

func (s *FactoryService) ListExtensions(ctx context.Context) ([]domain.Extension, error) {
	return s.repo.ListExtensions(ctx)
}

type DeployMarketInput struct {
	Caller string
	// Extension is a registered name or its decimal index.
	Extension string
	InitArgs  []byte
}

// DeployMarket creates a market bound to the referenced extension and initializes it
// with InitArgs in the same transaction.
func (s *FactoryService) DeployMarket(ctx context.Context, in DeployMarketInput) (domain.Market, error) {
	if in.Caller == "" {
		return domain.Market{}, domain.ErrIdentityRequired
	}

	now := s.clock.Now()
	var result domain.Market

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		ext, err := s.resolveExtension(txCtx, in.Extension)
		if err != nil {
			return err
		}

		market, err := s.repo.CreateMarket(txCtx, domain.Market{
			ID:             uuid.NewString(),
			ExtensionName:  ext.Name,
			Implementation: ext.Implementation,
			Owner:          in.Caller,
			CreatedAt:      now,
		})
		if err != nil {
			return err
		}

		market, err = s.initialize(txCtx, market.ID, in.InitArgs)
		if err != nil {
			return err
		}
		result = market
		return nil
	})
	if err != nil {
		return domain.Market{}, err
	}

	s.opts.logger.Infow("market deployed",
		"market_id", result.ID,
		"index", result.Index,
		"extension", result.ExtensionName,
		"owner", result.Owner,
	)
	s.opts.publish(ctx, events.Event{
		Type:       events.TypeMarketDeployed,
		MarketID:   result.ID,
		Actor:      result.Owner,
		OccurredAt: now,
		Attributes: map[string]string{
			"extension":      result.ExtensionName,
			"implementation": string(result.Implementation),
			"symbol":         result.Params.Symbol,
		},
	})
	return result, nil
}

type InitializeMarketInput struct {
	Caller   string
	MarketID string
	InitArgs []byte
}

// InitializeMarket runs the one-shot initializer of a market. Markets deployed through
// the factory are already initialized, so this only ever succeeds once.
func (s *FactoryService) InitializeMarket(ctx context.Context, in InitializeMarketInput) (domain.Market, error) {
	if in.Caller == "" {
		return domain.Market{}, domain.ErrIdentityRequired
	}
	var result domain.Market
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		market, err := s.initialize(txCtx, in.MarketID, in.InitArgs)
		if err != nil {
			return err
		}
		result = market
		return nil
	})
	if err != nil {
		return domain.Market{}, err
	}
	return result, nil
}

func (s *FactoryService) initialize(ctx context.Context, marketID string, args []byte) (domain.Market, error) {
	market, err := s.repo.GetMarketForUpdate(ctx, marketID)
	if err != nil {
		return domain.Market{}, err
	}
	if market.Initialized {
		return domain.Market{}, domain.ErrAlreadyInitialized
	}

	behavior, err := extension.Lookup(market.Implementation)
	if err != nil {
		return domain.Market{}, err
	}
	params, err := behavior.Initialize(args)
	if err != nil {
		return domain.Market{}, err
	}
	if err := s.repo.InitializeMarket(ctx, marketID, params); err != nil {
		return domain.Market{}, err
	}

	market.Params = params
	market.Initialized = true
	return market, nil
}

func (s *FactoryService) resolveExtension(ctx context.Context, ref string) (domain.Extension, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.Extension{}, domain.ErrUnknownExtension
	}
	ext, err := s.repo.GetExtensionByName(ctx, ref)
	if err == nil {
		return ext, nil
	}
	if !errors.Is(err, domain.ErrUnknownExtension) {
		return domain.Extension{}, err
	}
	index, convErr := strconv.ParseInt(ref, 10, 64)
	if convErr != nil || index < 0 {
		return domain.Extension{}, domain.ErrUnknownExtension
	}
	return s.repo.GetExtensionByIndex(ctx, index)
}

// Market returns the index-th market deployed by the factory.
func (s *FactoryService) Market(ctx context.Context, index int64) (domain.Market, error) {
	if index < 0 {
		return domain.Market{}, domain.ErrUnknownMarket
	}
	return s.repo.GetMarketByIndex(ctx, index)
}

// MarketRegistry is an alias of Market kept for callers using the registry name.
func (s *FactoryService) MarketRegistry(ctx context.Context, index int64) (domain.Market, error) {
	return s.Market(ctx, index)
}

func (s *FactoryService) GetMarket(ctx context.Context, marketID string) (domain.Market, error) {
	if marketID == "" {
		return domain.Market{}, domain.ErrInvalidID
	}
	return s.repo.GetMarket(ctx, marketID)
}

func (s *FactoryService) MarketsOf(ctx context.Context, owner string) ([]domain.Market, error) {
	if owner == "" {
		return nil, domain.ErrIdentityRequired
	}
	return s.repo.ListMarketsByOwner(ctx, owner)
}
