package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cimillas/agora-market/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FactoryRepository struct {
	db
}

func NewFactoryRepository(pool *pgxpool.Pool) *FactoryRepository {
	return &FactoryRepository{db: db{pool: pool}}
}

// CreateExtension appends ext to the registry, assigning the next index.
func (r *FactoryRepository) CreateExtension(ctx context.Context, ext domain.Extension) (domain.Extension, error) {
	const stmt = `
INSERT INTO extensions (idx, name, implementation, created_by, created_at)
SELECT COALESCE(MAX(idx) + 1, 0), $1::text, $2::text, $3::text, $4::timestamptz FROM extensions
RETURNING idx`

	err := r.WithTx(ctx, func(txCtx context.Context) error {
		if err := r.lockKey(txCtx, "extensions"); err != nil {
			return err
		}
		return r.queryRow(txCtx, stmt, ext.Name, ext.Implementation, ext.CreatedBy, ext.CreatedAt).Scan(&ext.Index)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Extension{}, domain.ErrDuplicateExtension
		}
		return domain.Extension{}, fmt.Errorf("create extension: %w", err)
	}
	return ext, nil
}

const extensionColumns = `idx, name, implementation, created_by, created_at`

func scanExtension(row pgx.Row) (domain.Extension, error) {
	var e domain.Extension
	err := row.Scan(&e.Index, &e.Name, &e.Implementation, &e.CreatedBy, &e.CreatedAt)
	return e, err
}

func (r *FactoryRepository) GetExtensionByName(ctx context.Context, name string) (domain.Extension, error) {
	const query = `SELECT ` + extensionColumns + ` FROM extensions WHERE name = $1`
	return r.getExtension(ctx, query, name)
}

func (r *FactoryRepository) GetExtensionByIndex(ctx context.Context, index int64) (domain.Extension, error) {
	const query = `SELECT ` + extensionColumns + ` FROM extensions WHERE idx = $1`
	return r.getExtension(ctx, query, index)
}

func (r *FactoryRepository) getExtension(ctx context.Context, query string, arg any) (domain.Extension, error) {
	ext, err := scanExtension(r.queryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Extension{}, domain.ErrUnknownExtension
		}
		return domain.Extension{}, fmt.Errorf("get extension: %w", err)
	}
	return ext, nil
}

func (r *FactoryRepository) ListExtensions(ctx context.Context) ([]domain.Extension, error) {
	rows, err := r.query(ctx, `SELECT `+extensionColumns+` FROM extensions ORDER BY idx ASC`)
	if err != nil {
		return nil, fmt.Errorf("list extensions: %w", err)
	}
	defer rows.Close()

	var out []domain.Extension
	for rows.Next() {
		ext, err := scanExtension(rows)
		if err != nil {
			return nil, fmt.Errorf("scan extension: %w", err)
		}
		out = append(out, ext)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate extensions: %w", rows.Err())
	}
	return out, nil
}

// CreateMarket inserts an uninitialized market at the next global index.
func (r *FactoryRepository) CreateMarket(ctx context.Context, market domain.Market) (domain.Market, error) {
	const stmt = `
INSERT INTO markets (id, idx, extension_name, implementation, owner, created_at)
SELECT $1::uuid, COALESCE(MAX(idx) + 1, 0), $2::text, $3::text, $4::text, $5::timestamptz FROM markets
RETURNING idx`

	err := r.WithTx(ctx, func(txCtx context.Context) error {
		if err := r.lockKey(txCtx, "markets"); err != nil {
			return err
		}
		return r.queryRow(txCtx, stmt,
			market.ID,
			market.ExtensionName,
			market.Implementation,
			market.Owner,
			market.CreatedAt,
		).Scan(&market.Index)
	})
	if err != nil {
		if isInvalidUUID(err) || isUniqueViolation(err) {
			return domain.Market{}, domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.Market{}, domain.ErrUnknownExtension
		}
		return domain.Market{}, fmt.Errorf("create market: %w", err)
	}
	return market, nil
}

func (r *FactoryRepository) GetMarketByIndex(ctx context.Context, index int64) (domain.Market, error) {
	m, err := scanMarket(r.queryRow(ctx, `SELECT `+marketColumns+` FROM markets WHERE idx = $1`, index))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Market{}, domain.ErrUnknownMarket
		}
		return domain.Market{}, fmt.Errorf("get market by index: %w", err)
	}
	return m, nil
}

func (r *FactoryRepository) ListMarketsByOwner(ctx context.Context, owner string) ([]domain.Market, error) {
	rows, err := r.query(ctx, `SELECT `+marketColumns+` FROM markets WHERE owner = $1 ORDER BY idx ASC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}
	defer rows.Close()

	var out []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan market: %w", err)
		}
		out = append(out, m)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate markets: %w", rows.Err())
	}
	return out, nil
}

// InitializeMarket stores params and flips the initialized flag exactly once.
func (r *FactoryRepository) InitializeMarket(ctx context.Context, marketID string, params domain.MarketParams) error {
	const stmt = `
UPDATE markets
SET symbol = $2, name = $3, max_per_owner = $4, max_supply = $5, initialized = TRUE
WHERE id = $1 AND NOT initialized`

	tag, err := r.exec(ctx, stmt, marketID, params.Symbol, params.Name, params.MaxPerOwner, params.MaxSupply)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrUnknownMarket
		}
		return fmt.Errorf("initialize market: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetMarket(ctx, marketID); err != nil {
			return err
		}
		return domain.ErrAlreadyInitialized
	}
	return nil
}
