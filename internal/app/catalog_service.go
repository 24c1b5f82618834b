package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cimillas/agora-market/internal/clock"
	"github.com/cimillas/agora-market/internal/domain"
	"github.com/cimillas/agora-market/internal/events"
	"github.com/cimillas/agora-market/internal/extension"
	"github.com/shopspring/decimal"
)

const maxSymbolLength = 16

type CatalogRepository interface {
	extension.Ledger
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetMarket(ctx context.Context, marketID string) (domain.Market, error)
	GetMarketForUpdate(ctx context.Context, marketID string) (domain.Market, error)
	IsAdmin(ctx context.Context, marketID, identity string) (bool, error)
	SetAdmin(ctx context.Context, marketID, identity string, granted bool) error
	ListAdmins(ctx context.Context, marketID string) ([]string, error)
	CreateProduct(ctx context.Context, product domain.Product) error
	GetProduct(ctx context.Context, marketID, symbol string) (domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) error
	ListProducts(ctx context.Context, marketID string) ([]domain.Product, error)
	CreditProceeds(ctx context.Context, marketID, identity string, amount decimal.Decimal) error
	GetProceeds(ctx context.Context, marketID, identity string) (decimal.Decimal, error)
}

// CatalogService manages roles and the product catalog of deployed markets.
type CatalogService struct {
	repo  CatalogRepository
	clock clock.Clock
	opts  serviceOptions
}

func NewCatalogService(repo CatalogRepository, clk clock.Clock, opts ...Option) *CatalogService {
	return &CatalogService{
		repo:  repo,
		clock: clk,
		opts:  applyOptions(opts),
	}
}

// IsAdmin reports whether identity is the market owner or a granted administrator.
func (s *CatalogService) IsAdmin(ctx context.Context, marketID, identity string) (bool, error) {
	market, err := s.loadMarket(ctx, marketID)
	if err != nil {
		return false, err
	}
	return s.isAdmin(ctx, market, identity)
}

func (s *CatalogService) isAdmin(ctx context.Context, market domain.Market, identity string) (bool, error) {
	if identity == "" {
		return false, nil
	}
	if identity == market.Owner {
		return true, nil
	}
	return s.repo.IsAdmin(ctx, market.ID, identity)
}

type ManageRoleInput struct {
	MarketID string
	Caller   string
	Identity string
	Granted  bool
}

// ManageRole grants or revokes administrator status. Only the owner may call it and
// repeating a grant or revoke is a no-op.
func (s *CatalogService) ManageRole(ctx context.Context, in ManageRoleInput) error {
	if in.Caller == "" || in.Identity == "" {
		return domain.ErrIdentityRequired
	}
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		market, err := s.lockMarket(txCtx, in.MarketID)
		if err != nil {
			return err
		}
		if in.Caller != market.Owner {
			return domain.ErrNotAuthorized
		}
		if in.Identity == market.Owner {
			if in.Granted {
				return nil
			}
			return domain.ErrOwnerRoleImmutable
		}
		return s.repo.SetAdmin(txCtx, market.ID, in.Identity, in.Granted)
	})
}

func (s *CatalogService) GrantAdmin(ctx context.Context, marketID, caller, identity string) error {
	return s.ManageRole(ctx, ManageRoleInput{MarketID: marketID, Caller: caller, Identity: identity, Granted: true})
}

func (s *CatalogService) RevokeAdmin(ctx context.Context, marketID, caller, identity string) error {
	return s.ManageRole(ctx, ManageRoleInput{MarketID: marketID, Caller: caller, Identity: identity, Granted: false})
}

// ListAdmins returns the owner followed by every granted administrator.
func (s *CatalogService) ListAdmins(ctx context.Context, marketID string) ([]string, error) {
	market, err := s.loadMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}
	granted, err := s.repo.ListAdmins(ctx, market.ID)
	if err != nil {
		return nil, err
	}
	return append([]string{market.Owner}, granted...), nil
}

type CreateProductInput struct {
	MarketID string
	Caller   string
	Symbol   string
	Name     string
	Price    decimal.Decimal
	Quantity int64
	Locked   bool
}

// CreateProduct adds a product owned by the caller. Authorization is checked before
// the input, so non-admins always get ErrNotAuthorized.
func (s *CatalogService) CreateProduct(ctx context.Context, in CreateProductInput) (domain.Product, error) {
	product := domain.Product{
		MarketID:  in.MarketID,
		Symbol:    in.Symbol,
		Name:      in.Name,
		Price:     in.Price,
		Quantity:  in.Quantity,
		Owner:     in.Caller,
		Locked:    in.Locked,
		CreatedAt: s.clock.Now(),
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.lockMarketAsAdmin(txCtx, in.MarketID, in.Caller); err != nil {
			return err
		}
		if err := validateProduct(in); err != nil {
			return err
		}
		return s.repo.CreateProduct(txCtx, product)
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.opts.publish(ctx, events.Event{
		Type:       events.TypeProductCreated,
		MarketID:   product.MarketID,
		Actor:      product.Owner,
		OccurredAt: product.CreatedAt,
		Attributes: map[string]string{
			"symbol":   product.Symbol,
			"price":    product.Price.String(),
			"quantity": strconv.FormatInt(product.Quantity, 10),
		},
	})
	return product, nil
}

type RestockInput struct {
	MarketID string
	Caller   string
	Symbol   string
	Amount   int64
	// Lock freezes the supply after this restock. Locking is one-way.
	Lock bool
}

func (s *CatalogService) Restock(ctx context.Context, in RestockInput) (domain.Product, error) {
	var result domain.Product
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.lockMarketAsAdmin(txCtx, in.MarketID, in.Caller); err != nil {
			return err
		}
		if in.Amount < 0 {
			return domain.ErrInvalidQuantity
		}
		product, err := s.repo.GetProduct(txCtx, in.MarketID, in.Symbol)
		if err != nil {
			return err
		}
		if product.Locked {
			return domain.ErrProductLocked
		}

		quantity, err := domain.AddQuantity(product.Quantity, in.Amount)
		if err != nil {
			return err
		}
		product.Quantity = quantity
		if in.Lock {
			product.Locked = true
		}
		if err := s.repo.UpdateProduct(txCtx, product); err != nil {
			return err
		}
		result = product
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.opts.publish(ctx, events.Event{
		Type:       events.TypeProductRestocked,
		MarketID:   result.MarketID,
		Actor:      in.Caller,
		OccurredAt: s.clock.Now(),
		Attributes: map[string]string{
			"symbol":   result.Symbol,
			"amount":   strconv.FormatInt(in.Amount, 10),
			"quantity": strconv.FormatInt(result.Quantity, 10),
			"locked":   strconv.FormatBool(result.Locked),
		},
	})
	return result, nil
}

type PurchaseInput struct {
	MarketID string
	Buyer    string
	Symbol   string
	Quantity int64
	Payment  decimal.Decimal
}

// Purchase buys units off the catalog shelf. It is also the purchaseProduct entry
// point of secondary markets, where the buyer's holdings are credited. The product
// owner is credited exactly price*quantity and any excess payment is returned as
// change in the receipt. Variant limits are checked before stock and payment.
func (s *CatalogService) Purchase(ctx context.Context, in PurchaseInput) (domain.Receipt, error) {
	if in.Buyer == "" {
		return domain.Receipt{}, domain.ErrIdentityRequired
	}
	if in.Quantity <= 0 {
		return domain.Receipt{}, domain.ErrInvalidQuantity
	}
	if !domain.ValidAmount(in.Payment) {
		return domain.Receipt{}, domain.ErrInvalidAmount
	}

	var receipt domain.Receipt
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		market, err := s.lockMarket(txCtx, in.MarketID)
		if err != nil {
			return err
		}
		behavior, err := extension.Lookup(market.Implementation)
		if err != nil {
			return err
		}
		product, err := s.repo.GetProduct(txCtx, market.ID, in.Symbol)
		if err != nil {
			return err
		}

		purchase := extension.Purchase{
			Market:   market,
			Product:  product,
			Buyer:    in.Buyer,
			Quantity: in.Quantity,
		}
		if err := behavior.BeforePurchase(txCtx, s.repo, purchase); err != nil {
			return err
		}

		if product.Quantity == 0 {
			return domain.ErrOutOfStock
		}
		if in.Quantity > product.Quantity {
			return domain.ErrInsufficientStock
		}
		cost := domain.Cost(product.Price, in.Quantity)
		if in.Payment.LessThan(cost) {
			return domain.ErrInsufficientFunds
		}

		product.Quantity -= in.Quantity
		if err := s.repo.UpdateProduct(txCtx, product); err != nil {
			return err
		}
		if err := s.repo.CreditProceeds(txCtx, market.ID, product.Owner, cost); err != nil {
			return err
		}
		if err := behavior.AfterPurchase(txCtx, s.repo, purchase); err != nil {
			return err
		}

		receipt = domain.Receipt{
			MarketID: market.ID,
			Symbol:   product.Symbol,
			Buyer:    in.Buyer,
			Payee:    product.Owner,
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
		Type:       events.TypeProductPurchased,
		MarketID:   receipt.MarketID,
		Actor:      receipt.Buyer,
		OccurredAt: s.clock.Now(),
		Attributes: map[string]string{
			"symbol":   receipt.Symbol,
			"quantity": strconv.FormatInt(receipt.Quantity, 10),
			"cost":     receipt.Cost.String(),
			"payee":    receipt.Payee,
		},
	})
	return receipt, nil
}

// Inspect returns the full state of a product.
func (s *CatalogService) Inspect(ctx context.Context, marketID, symbol string) (domain.Product, error) {
	market, err := s.loadMarket(ctx, marketID)
	if err != nil {
		return domain.Product{}, err
	}
	return s.repo.GetProduct(ctx, market.ID, symbol)
}

func (s *CatalogService) ListProducts(ctx context.Context, marketID string) ([]domain.Product, error) {
	market, err := s.loadMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListProducts(ctx, market.ID)
}

// BalanceOf returns the units bought by holder on a counted market.
func (s *CatalogService) BalanceOf(ctx context.Context, marketID, holder string) (int64, error) {
	market, err := s.loadCountedMarket(ctx, marketID)
	if err != nil {
		return 0, err
	}
	return s.repo.GetBalance(ctx, market.ID, holder)
}

// TotalSupply returns the units sold so far on a counted market.
func (s *CatalogService) TotalSupply(ctx context.Context, marketID string) (int64, error) {
	market, err := s.loadCountedMarket(ctx, marketID)
	if err != nil {
		return 0, err
	}
	return market.TotalSupply, nil
}

// ProceedsOf returns the funds credited to identity by purchases in the market.
func (s *CatalogService) ProceedsOf(ctx context.Context, marketID, identity string) (decimal.Decimal, error) {
	market, err := s.loadMarket(ctx, marketID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.repo.GetProceeds(ctx, market.ID, identity)
}

func (s *CatalogService) loadCountedMarket(ctx context.Context, marketID string) (domain.Market, error) {
	market, err := s.loadMarket(ctx, marketID)
	if err != nil {
		return domain.Market{}, err
	}
	behavior, err := extension.Lookup(market.Implementation)
	if err != nil {
		return domain.Market{}, err
	}
	if !behavior.Counted() {
		return domain.Market{}, domain.ErrUnsupportedOperation
	}
	return market, nil
}

func (s *CatalogService) loadMarket(ctx context.Context, marketID string) (domain.Market, error) {
	if marketID == "" {
		return domain.Market{}, domain.ErrInvalidID
	}
	market, err := s.repo.GetMarket(ctx, marketID)
	if err != nil {
		return domain.Market{}, err
	}
	if !market.Initialized {
		return domain.Market{}, domain.ErrNotInitialized
	}
	return market, nil
}

// lockMarket serializes writers of one market for the rest of the transaction.
func (s *CatalogService) lockMarket(ctx context.Context, marketID string) (domain.Market, error) {
	if marketID == "" {
		return domain.Market{}, domain.ErrInvalidID
	}
	market, err := s.repo.GetMarketForUpdate(ctx, marketID)
	if err != nil {
		return domain.Market{}, err
	}
	if !market.Initialized {
		return domain.Market{}, domain.ErrNotInitialized
	}
	return market, nil
}

func (s *CatalogService) lockMarketAsAdmin(ctx context.Context, marketID, caller string) (domain.Market, error) {
	if caller == "" {
		return domain.Market{}, domain.ErrIdentityRequired
	}
	market, err := s.lockMarket(ctx, marketID)
	if err != nil {
		return domain.Market{}, err
	}
	ok, err := s.isAdmin(ctx, market, caller)
	if err != nil {
		return domain.Market{}, fmt.Errorf("check admin: %w", err)
	}
	if !ok {
		return domain.Market{}, domain.ErrNotAuthorized
	}
	return market, nil
}

func validateProduct(in CreateProductInput) error {
	if err := validateSymbol(in.Symbol); err != nil {
		return err
	}
	if strings.TrimSpace(in.Name) == "" {
		return domain.ErrNameRequired
	}
	if !domain.ValidAmount(in.Price) {
		return domain.ErrInvalidAmount
	}
	if in.Quantity < 0 {
		return domain.ErrInvalidQuantity
	}
	return nil
}

func validateSymbol(symbol string) error {
	if symbol == "" || len(symbol) > maxSymbolLength || strings.ContainsAny(symbol, " /\t\n") {
		return domain.ErrInvalidSymbol
	}
	return nil
}
