package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cimillas/agora-market/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Reads and ledger writes shared by the factory, catalog and resale repositories.

const marketColumns = `id, idx, extension_name, implementation, owner, symbol, name,
max_per_owner, max_supply, initialized, total_supply, created_at`

func scanMarket(row pgx.Row) (domain.Market, error) {
	var m domain.Market
	err := row.Scan(
		&m.ID,
		&m.Index,
		&m.ExtensionName,
		&m.Implementation,
		&m.Owner,
		&m.Params.Symbol,
		&m.Params.Name,
		&m.Params.MaxPerOwner,
		&m.Params.MaxSupply,
		&m.Initialized,
		&m.TotalSupply,
		&m.CreatedAt,
	)
	return m, err
}

func (d db) GetMarket(ctx context.Context, marketID string) (domain.Market, error) {
	return d.getMarket(ctx, marketID, false)
}

// GetMarketForUpdate locks the market row until the surrounding transaction ends.
func (d db) GetMarketForUpdate(ctx context.Context, marketID string) (domain.Market, error) {
	return d.getMarket(ctx, marketID, true)
}

func (d db) getMarket(ctx context.Context, marketID string, forUpdate bool) (domain.Market, error) {
	query := `SELECT ` + marketColumns + ` FROM markets WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	m, err := scanMarket(d.queryRow(ctx, query, marketID))
	if err != nil {
		if isInvalidUUID(err) || errors.Is(err, pgx.ErrNoRows) {
			return domain.Market{}, domain.ErrUnknownMarket
		}
		return domain.Market{}, fmt.Errorf("get market: %w", err)
	}
	return m, nil
}

const productColumns = `market_id, symbol, name, price::text, quantity, owner, locked, created_at`

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	if err := row.Scan(&p.MarketID, &p.Symbol, &p.Name, &price, &p.Quantity, &p.Owner, &p.Locked, &p.CreatedAt); err != nil {
		return domain.Product{}, err
	}
	amount, err := parseAmount(price)
	if err != nil {
		return domain.Product{}, err
	}
	p.Price = amount
	return p, nil
}

func (d db) GetProduct(ctx context.Context, marketID, symbol string) (domain.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE market_id = $1 AND symbol = $2`
	p, err := scanProduct(d.queryRow(ctx, query, marketID, symbol))
	if err != nil {
		if isInvalidUUID(err) || errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, domain.ErrUnknownProduct
		}
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (d db) GetHolding(ctx context.Context, marketID, holder, symbol string) (int64, error) {
	const query = `
SELECT COALESCE((SELECT quantity FROM holdings WHERE market_id = $1 AND holder = $2 AND symbol = $3), 0)`
	var quantity int64
	if err := d.queryRow(ctx, query, marketID, holder, symbol).Scan(&quantity); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrUnknownMarket
		}
		return 0, fmt.Errorf("get holding: %w", err)
	}
	return quantity, nil
}

// AddHolding adjusts a holdings entry. A debit below zero trips the column check
// and fails with ErrSellingMoreThanOwned.
func (d db) AddHolding(ctx context.Context, marketID, holder, symbol string, delta int64) error {
	const stmt = `
INSERT INTO holdings (market_id, holder, symbol, quantity)
VALUES ($1, $2, $3, $4)
ON CONFLICT (market_id, holder, symbol)
DO UPDATE SET quantity = holdings.quantity + EXCLUDED.quantity`
	if _, err := d.exec(ctx, stmt, marketID, holder, symbol, delta); err != nil {
		if isCheckViolation(err) {
			return domain.ErrSellingMoreThanOwned
		}
		if isForeignKeyViolation(err) {
			return domain.ErrUnknownProduct
		}
		if isOutOfRange(err) {
			return domain.ErrInvalidQuantity
		}
		return fmt.Errorf("add holding: %w", err)
	}
	return nil
}

func (d db) CreditProceeds(ctx context.Context, marketID, identity string, amount decimal.Decimal) error {
	const stmt = `
INSERT INTO proceeds (market_id, identity, amount)
VALUES ($1, $2, $3::numeric)
ON CONFLICT (market_id, identity)
DO UPDATE SET amount = proceeds.amount + EXCLUDED.amount`
	if _, err := d.exec(ctx, stmt, marketID, identity, amount.String()); err != nil {
		if isCheckViolation(err) {
			return domain.ErrInvalidAmount
		}
		return fmt.Errorf("credit proceeds: %w", err)
	}
	return nil
}

func (d db) GetProceeds(ctx context.Context, marketID, identity string) (decimal.Decimal, error) {
	const query = `
SELECT COALESCE((SELECT amount FROM proceeds WHERE market_id = $1 AND identity = $2), 0)::text`
	var text string
	if err := d.queryRow(ctx, query, marketID, identity).Scan(&text); err != nil {
		if isInvalidUUID(err) {
			return decimal.Zero, domain.ErrUnknownMarket
		}
		return decimal.Zero, fmt.Errorf("get proceeds: %w", err)
	}
	return parseAmount(text)
}
