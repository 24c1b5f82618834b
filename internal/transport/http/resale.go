package http

import (
	"context"
	"net/http"

	"github.com/cimillas/agora-market/internal/app"
	"github.com/cimillas/agora-market/internal/domain"
	"github.com/shopspring/decimal"
)

// Resale is the subset of the resale service the HTTP layer needs.
type Resale interface {
	CreateListing(ctx context.Context, in app.CreateListingInput) (domain.Listing, error)
	Consign(ctx context.Context, in app.CreateListingInput) (domain.Listing, error)
	PurchaseListing(ctx context.Context, in app.PurchaseListingInput) (domain.Receipt, error)
	InspectListing(ctx context.Context, marketID string, listingID int64) (domain.Listing, error)
	ListListings(ctx context.Context, marketID string) ([]domain.Listing, error)
	InspectHoldingCount(ctx context.Context, marketID, holder, symbol string) (int64, error)
}

type createListingRequest struct {
	Symbol   string          `json:"symbol" validate:"required"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity" validate:"gt=0"`
}

// HandleCreateListing serves both the listing and consignment routes; consign picks
// the holder-facing entry point.
func HandleCreateListing(svc Resale, consign bool) http.HandlerFunc {
	create := svc.CreateListing
	if consign {
		create = svc.Consign
	}
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireCaller(w, r)
		if !ok {
			return
		}
		var req createListingRequest
		if !decodeBody(w, r, &req) {
			return
		}

		listing, err := create(r.Context(), app.CreateListingInput{
			MarketID: r.PathValue("id"),
			Seller:   caller,
			Symbol:   req.Symbol,
			Price:    req.Price,
			Quantity: req.Quantity,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toListingResponse(listing))
	}
}

func HandleListListings(svc Resale) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listings, err := svc.ListListings(r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, mapSlice(listings, toListingResponse))
	}
}

func HandleInspectListing(svc Resale) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID, ok := pathInt64(w, r, "listingID")
		if !ok {
			return
		}
		listing, err := svc.InspectListing(r.Context(), r.PathValue("id"), listingID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toListingResponse(listing))
	}
}

type purchaseListingRequest struct {
	Quantity int64           `json:"quantity" validate:"gt=0"`
	Payment  decimal.Decimal `json:"payment"`
}

func HandlePurchaseListing(svc Resale) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireCaller(w, r)
		if !ok {
			return
		}
		listingID, ok := pathInt64(w, r, "listingID")
		if !ok {
			return
		}
		var req purchaseListingRequest
		if !decodeBody(w, r, &req) {
			return
		}

		receipt, err := svc.PurchaseListing(r.Context(), app.PurchaseListingInput{
			MarketID:  r.PathValue("id"),
			Buyer:     caller,
			ListingID: listingID,
			Quantity:  req.Quantity,
			Payment:   req.Payment,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toReceiptResponse(receipt))
	}
}

func HandleHoldingCount(svc Resale) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		marketID, holder, symbol := r.PathValue("id"), r.PathValue("identity"), r.PathValue("symbol")
		count, err := svc.InspectHoldingCount(r.Context(), marketID, holder, symbol)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toHoldingResponse(domain.Holding{
			MarketID: marketID,
			Holder:   holder,
			Symbol:   symbol,
			Quantity: count,
		}))
	}
}
