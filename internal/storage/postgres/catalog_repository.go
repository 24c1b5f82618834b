package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cimillas/agora-market/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CatalogRepository struct {
	db
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{db: db{pool: pool}}
}

func (r *CatalogRepository) IsAdmin(ctx context.Context, marketID, identity string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM market_admins WHERE market_id = $1 AND identity = $2)`
	var ok bool
	if err := r.queryRow(ctx, query, marketID, identity).Scan(&ok); err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrUnknownMarket
		}
		return false, fmt.Errorf("is admin: %w", err)
	}
	return ok, nil
}

// SetAdmin grants or revokes a role row. Both directions are idempotent.
func (r *CatalogRepository) SetAdmin(ctx context.Context, marketID, identity string, granted bool) error {
	stmt := `DELETE FROM market_admins WHERE market_id = $1 AND identity = $2`
	if granted {
		stmt = `
INSERT INTO market_admins (market_id, identity)
VALUES ($1, $2)
ON CONFLICT (market_id, identity) DO NOTHING`
	}
	if _, err := r.exec(ctx, stmt, marketID, identity); err != nil {
		if isInvalidUUID(err) || isForeignKeyViolation(err) {
			return domain.ErrUnknownMarket
		}
		return fmt.Errorf("set admin: %w", err)
	}
	return nil
}

func (r *CatalogRepository) ListAdmins(ctx context.Context, marketID string) ([]string, error) {
	rows, err := r.query(ctx, `SELECT identity FROM market_admins WHERE market_id = $1 ORDER BY identity ASC`, marketID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrUnknownMarket
		}
		return nil, fmt.Errorf("list admins: %w", err)
	}
	admins, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan admins: %w", err)
	}
	return admins, nil
}

func (r *CatalogRepository) CreateProduct(ctx context.Context, product domain.Product) error {
	const stmt = `
INSERT INTO products (market_id, symbol, name, price, quantity, owner, locked, created_at)
VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)`
	_, err := r.exec(ctx, stmt,
		product.MarketID,
		product.Symbol,
		product.Name,
		product.Price.String(),
		product.Quantity,
		product.Owner,
		product.Locked,
		product.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateProduct
		}
		if isInvalidUUID(err) || isForeignKeyViolation(err) {
			return domain.ErrUnknownMarket
		}
		if isCheckViolation(err) {
			return domain.ErrInvalidQuantity
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// UpdateProduct persists the mutable fields of a product: quantity and locked.
func (r *CatalogRepository) UpdateProduct(ctx context.Context, product domain.Product) error {
	const stmt = `UPDATE products SET quantity = $3, locked = $4 WHERE market_id = $1 AND symbol = $2`
	tag, err := r.exec(ctx, stmt, product.MarketID, product.Symbol, product.Quantity, product.Locked)
	if err != nil {
		if isCheckViolation(err) || isOutOfRange(err) {
			return domain.ErrInvalidQuantity
		}
		if isInvalidUUID(err) {
			return domain.ErrUnknownProduct
		}
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUnknownProduct
	}
	return nil
}

func (r *CatalogRepository) ListProducts(ctx context.Context, marketID string) ([]domain.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE market_id = $1 ORDER BY created_at ASC, symbol ASC`
	rows, err := r.query(ctx, query, marketID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrUnknownMarket
		}
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate products: %w", rows.Err())
	}
	return out, nil
}

func (r *CatalogRepository) GetBalance(ctx context.Context, marketID, holder string) (int64, error) {
	const query = `SELECT amount FROM balances WHERE market_id = $1 AND holder = $2`
	var amount int64
	err := r.queryRow(ctx, query, marketID, holder).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrUnknownMarket
		}
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return amount, nil
}

func (r *CatalogRepository) AddBalance(ctx context.Context, marketID, holder string, delta int64) error {
	const stmt = `
INSERT INTO balances (market_id, holder, amount)
VALUES ($1, $2, $3)
ON CONFLICT (market_id, holder)
DO UPDATE SET amount = balances.amount + EXCLUDED.amount`
	if _, err := r.exec(ctx, stmt, marketID, holder, delta); err != nil {
		if isOutOfRange(err) {
			return domain.ErrInvalidQuantity
		}
		return fmt.Errorf("add balance: %w", err)
	}
	return nil
}

func (r *CatalogRepository) AddTotalSupply(ctx context.Context, marketID string, delta int64) error {
	tag, err := r.exec(ctx, `UPDATE markets SET total_supply = total_supply + $2 WHERE id = $1`, marketID, delta)
	if err != nil {
		if isOutOfRange(err) {
			return domain.ErrInvalidQuantity
		}
		return fmt.Errorf("add total supply: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUnknownMarket
	}
	return nil
}
