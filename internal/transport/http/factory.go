package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/cimillas/agora-market/internal/app"
	"github.com/cimillas/agora-market/internal/domain"
)

// Factory is the subset of the factory service the HTTP layer needs.
type Factory interface {
	AddExtension(ctx context.Context, in app.AddExtensionInput) (domain.Extension, error)
	ListExtensions(ctx context.Context) ([]domain.Extension, error)
	DeployMarket(ctx context.Context, in app.DeployMarketInput) (domain.Market, error)
	InitializeMarket(ctx context.Context, in app.InitializeMarketInput) (domain.Market, error)
	Market(ctx context.Context, index int64) (domain.Market, error)
	GetMarket(ctx context.Context, marketID string) (domain.Market, error)
	MarketsOf(ctx context.Context, owner string) ([]domain.Market, error)
}

type addExtensionRequest struct {
	Name           string `json:"name" validate:"required,max=64"`
	Implementation string `json:"implementation" validate:"required"`
}

// HandleListExtensions lists the registry in index order.
func HandleListExtensions(svc Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exts, err := svc.ListExtensions(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, mapSlice(exts, toExtensionResponse))
	}
}

func HandleAddExtension(svc Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireCaller(w, r)
		if !ok {
			return
		}
		var req addExtensionRequest
		if !decodeBody(w, r, &req) {
			return
		}

		ext, err := svc.AddExtension(r.Context(), app.AddExtensionInput{
			Caller:         caller,
			Name:           req.Name,
			Implementation: domain.Implementation(req.Implementation),
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toExtensionResponse(ext))
	}
}

type deployMarketRequest struct {
	// Extension is a registered name or its index.
	Extension string          `json:"extension" validate:"required"`
	InitArgs  json.RawMessage `json:"init_args" validate:"required"`
}

func HandleDeployMarket(svc Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireCaller(w, r)
		if !ok {
			return
		}
		var req deployMarketRequest
		if !decodeBody(w, r, &req) {
			return
		}

		market, err := svc.DeployMarket(r.Context(), app.DeployMarketInput{
			Caller:    caller,
			Extension: req.Extension,
			InitArgs:  req.InitArgs,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toMarketResponse(market))
	}
}

type initializeMarketRequest struct {
	InitArgs json.RawMessage `json:"init_args" validate:"required"`
}

func HandleInitializeMarket(svc Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireCaller(w, r)
		if !ok {
			return
		}
		var req initializeMarketRequest
		if !decodeBody(w, r, &req) {
			return
		}

		market, err := svc.InitializeMarket(r.Context(), app.InitializeMarketInput{
			Caller:   caller,
			MarketID: r.PathValue("id"),
			InitArgs: req.InitArgs,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMarketResponse(market))
	}
}

// HandleGetMarket resolves a decimal reference against the global market list and
// anything else as a market id.
func HandleGetMarket(svc Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := r.PathValue("ref")

		var (
			market domain.Market
			err    error
		)
		if index, convErr := strconv.ParseInt(ref, 10, 64); convErr == nil {
			market, err = svc.Market(r.Context(), index)
		} else {
			market, err = svc.GetMarket(r.Context(), ref)
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMarketResponse(market))
	}
}

// HandleListMarkets lists the markets deployed by the owner query parameter.
func HandleListMarkets(svc Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := strings.TrimSpace(r.URL.Query().Get("owner"))
		if owner == "" {
			writeError(w, http.StatusBadRequest, codeMissingRequiredField, "owner query parameter required")
			return
		}
		markets, err := svc.MarketsOf(r.Context(), owner)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, mapSlice(markets, toMarketResponse))
	}
}
