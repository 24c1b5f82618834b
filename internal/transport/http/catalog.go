package http

import (
	"context"
	"net/http"

	"github.com/cimillas/agora-market/internal/app"
	"github.com/cimillas/agora-market/internal/domain"
	"github.com/shopspring/decimal"
)

// Catalog is the subset of the catalog service the HTTP layer needs.
type Catalog interface {
	GrantAdmin(ctx context.Context, marketID, caller, identity string) error
	RevokeAdmin(ctx context.Context, marketID, caller, identity string) error
	ListAdmins(ctx context.Context, marketID string) ([]string, error)
	CreateProduct(ctx context.Context, in app.CreateProductInput) (domain.Product, error)
	Restock(ctx context.Context, in app.RestockInput) (domain.Product, error)
	Purchase(ctx context.Context, in app.PurchaseInput) (domain.Receipt, error)
	Inspect(ctx context.Context, marketID, symbol string) (domain.Product, error)
	ListProducts(ctx context.Context, marketID string) ([]domain.Product, error)
	BalanceOf(ctx context.Context, marketID, holder string) (int64, error)
	TotalSupply(ctx context.Context, marketID string) (int64, error)
	ProceedsOf(ctx context.Context, marketID, identity string) (decimal.Decimal, error)
}

// HandleSetAdmin grants the path identity on PUT and revokes it otherwise.
func HandleSetAdmin(svc Catalog, granted bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireCaller(w, r)
		if !ok {
			return
		}
		marketID, identity := r.PathValue("id"), r.PathValue("identity")

		var err error
		if granted {
			err = svc.GrantAdmin(r.Context(), marketID, caller, identity)
		} else {
			err = svc.RevokeAdmin(r.Context(), marketID, caller, identity)
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleListAdmins(svc Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admins, err := svc.ListAdmins(r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, admins)
	}
}

type createProductRequest struct {
	Symbol   string          `json:"symbol" validate:"required"`
	Name     string          `json:"name" validate:"required"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity" validate:"gte=0"`
	Locked   bool            `json:"locked"`
}

func HandleCreateProduct(svc Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireCaller(w, r)
		if !ok {
			return
		}
		var req createProductRequest
		if !decodeBody(w, r, &req) {
			return
		}

		product, err := svc.CreateProduct(r.Context(), app.CreateProductInput{
			MarketID: r.PathValue("id"),
			Caller:   caller,
			Symbol:   req.Symbol,
			Name:     req.Name,
			Price:    req.Price,
			Quantity: req.Quantity,
			Locked:   req.Locked,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toProductResponse(product))
	}
}

func HandleListProducts(svc Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.ListProducts(r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, mapSlice(products, toProductResponse))
	}
}

func HandleInspectProduct(svc Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := svc.Inspect(r.Context(), r.PathValue("id"), r.PathValue("symbol"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProductResponse(product))
	}
}

type restockRequest struct {
	Amount int64 `json:"amount" validate:"gte=0"`
	Lock   bool  `json:"lock"`
}

func HandleRestock(svc Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireCaller(w, r)
		if !ok {
			return
		}
		var req restockRequest
		if !decodeBody(w, r, &req) {
			return
		}

		product, err := svc.Restock(r.Context(), app.RestockInput{
			MarketID: r.PathValue("id"),
			Caller:   caller,
			Symbol:   r.PathValue("symbol"),
			Amount:   req.Amount,
			Lock:     req.Lock,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProductResponse(product))
	}
}

type purchaseRequest struct {
	Quantity int64           `json:"quantity" validate:"gt=0"`
	Payment  decimal.Decimal `json:"payment"`
}

func HandlePurchase(svc Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireCaller(w, r)
		if !ok {
			return
		}
		var req purchaseRequest
		if !decodeBody(w, r, &req) {
			return
		}

		receipt, err := svc.Purchase(r.Context(), app.PurchaseInput{
			MarketID: r.PathValue("id"),
			Buyer:    caller,
			Symbol:   r.PathValue("symbol"),
			Quantity: req.Quantity,
			Payment:  req.Payment,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toReceiptResponse(receipt))
	}
}

func HandleBalanceOf(svc Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		balance, err := svc.BalanceOf(r.Context(), r.PathValue("id"), r.PathValue("identity"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, countResponse{Value: balance})
	}
}

func HandleTotalSupply(svc Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supply, err := svc.TotalSupply(r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, countResponse{Value: supply})
	}
}

func HandleProceeds(svc Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := r.PathValue("identity")
		amount, err := svc.ProceedsOf(r.Context(), r.PathValue("id"), identity)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, amountResponse{Identity: identity, Amount: amount})
	}
}
