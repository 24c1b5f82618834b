package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cimillas/agora-market/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ResaleRepository struct {
	db
}

func NewResaleRepository(pool *pgxpool.Pool) *ResaleRepository {
	return &ResaleRepository{db: db{pool: pool}}
}

const listingColumns = `market_id, id, seller, symbol, name, price::text, quantity, active, sold,
COALESCE(buyer, ''), created_at, sold_at`

func scanListing(row pgx.Row) (domain.Listing, error) {
	var (
		l     domain.Listing
		price string
	)
	err := row.Scan(
		&l.MarketID,
		&l.ID,
		&l.Seller,
		&l.Symbol,
		&l.Name,
		&price,
		&l.Quantity,
		&l.Active,
		&l.Sold,
		&l.Buyer,
		&l.CreatedAt,
		&l.SoldAt,
	)
	if err != nil {
		return domain.Listing{}, err
	}
	amount, err := parseAmount(price)
	if err != nil {
		return domain.Listing{}, err
	}
	l.Price = amount
	return l, nil
}

// CreateListing assigns the next sequential id of the market, starting at 1. Callers
// hold the market row lock, which serializes id allocation.
func (r *ResaleRepository) CreateListing(ctx context.Context, listing domain.Listing) (domain.Listing, error) {
	const stmt = `
INSERT INTO listings (market_id, id, seller, symbol, name, price, quantity, active, sold, created_at)
SELECT $1::uuid, COALESCE(MAX(id) + 1, 1), $2::text, $3::text, $4::text, $5::numeric, $6::bigint, $7::boolean, FALSE, $8::timestamptz
FROM listings WHERE market_id = $1::uuid
RETURNING id`

	err := r.queryRow(ctx, stmt,
		listing.MarketID,
		listing.Seller,
		listing.Symbol,
		listing.Name,
		listing.Price.String(),
		listing.Quantity,
		listing.Active,
		listing.CreatedAt,
	).Scan(&listing.ID)
	if err != nil {
		if isInvalidUUID(err) || isForeignKeyViolation(err) {
			return domain.Listing{}, domain.ErrUnknownMarket
		}
		if isCheckViolation(err) {
			return domain.Listing{}, domain.ErrInvalidQuantity
		}
		return domain.Listing{}, fmt.Errorf("create listing: %w", err)
	}
	return listing, nil
}

func (r *ResaleRepository) GetListing(ctx context.Context, marketID string, listingID int64) (domain.Listing, error) {
	const query = `SELECT ` + listingColumns + ` FROM listings WHERE market_id = $1 AND id = $2`
	l, err := scanListing(r.queryRow(ctx, query, marketID, listingID))
	if err != nil {
		if isInvalidUUID(err) || errors.Is(err, pgx.ErrNoRows) {
			return domain.Listing{}, domain.ErrUnknownListing
		}
		return domain.Listing{}, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

// MarkListingSold settles an active listing. A listing already sold is left untouched.
func (r *ResaleRepository) MarkListingSold(ctx context.Context, listing domain.Listing) error {
	const stmt = `
UPDATE listings
SET active = FALSE, sold = TRUE, buyer = $3, sold_at = $4
WHERE market_id = $1 AND id = $2 AND NOT sold`

	tag, err := r.exec(ctx, stmt, listing.MarketID, listing.ID, listing.Buyer, listing.SoldAt)
	if err != nil {
		return fmt.Errorf("mark listing sold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetListing(ctx, listing.MarketID, listing.ID); err != nil {
			return err
		}
		return domain.ErrListingAlreadySold
	}
	return nil
}

func (r *ResaleRepository) ListListings(ctx context.Context, marketID string) ([]domain.Listing, error) {
	rows, err := r.query(ctx, `SELECT `+listingColumns+` FROM listings WHERE market_id = $1 ORDER BY id ASC`, marketID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrUnknownMarket
		}
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	var out []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, l)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate listings: %w", rows.Err())
	}
	return out, nil
}
