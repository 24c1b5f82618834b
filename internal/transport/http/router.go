package http

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterConfig wires services and ambient collaborators into the HTTP surface.
type RouterConfig struct {
	Factory Factory
	Catalog Catalog
	Resale  Resale

	Logger         *zap.SugaredLogger
	Registry       *prometheus.Registry
	AllowedOrigins []string
	// Ping backs the health check; nil reports healthy unconditionally.
	Ping func(ctx context.Context) error
}

// NewRouter builds the route table and wraps it with CORS, metrics and request logging.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", HealthHandler(cfg.Ping))
	if cfg.Registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	}

	mux.HandleFunc("GET /extensions", HandleListExtensions(cfg.Factory))
	mux.HandleFunc("POST /extensions", HandleAddExtension(cfg.Factory))

	mux.HandleFunc("POST /markets", HandleDeployMarket(cfg.Factory))
	mux.HandleFunc("GET /markets", HandleListMarkets(cfg.Factory))
	mux.HandleFunc("GET /markets/{ref}", HandleGetMarket(cfg.Factory))
	mux.HandleFunc("POST /markets/{id}/initialize", HandleInitializeMarket(cfg.Factory))

	mux.HandleFunc("GET /markets/{id}/admins", HandleListAdmins(cfg.Catalog))
	mux.HandleFunc("PUT /markets/{id}/admins/{identity}", HandleSetAdmin(cfg.Catalog, true))
	mux.HandleFunc("DELETE /markets/{id}/admins/{identity}", HandleSetAdmin(cfg.Catalog, false))

	mux.HandleFunc("GET /markets/{id}/products", HandleListProducts(cfg.Catalog))
	mux.HandleFunc("POST /markets/{id}/products", HandleCreateProduct(cfg.Catalog))
	mux.HandleFunc("GET /markets/{id}/products/{symbol}", HandleInspectProduct(cfg.Catalog))
	mux.HandleFunc("POST /markets/{id}/products/{symbol}/restock", HandleRestock(cfg.Catalog))
	mux.HandleFunc("POST /markets/{id}/products/{symbol}/purchase", HandlePurchase(cfg.Catalog))

	mux.HandleFunc("GET /markets/{id}/balances/{identity}", HandleBalanceOf(cfg.Catalog))
	mux.HandleFunc("GET /markets/{id}/supply", HandleTotalSupply(cfg.Catalog))
	mux.HandleFunc("GET /markets/{id}/proceeds/{identity}", HandleProceeds(cfg.Catalog))

	mux.HandleFunc("GET /markets/{id}/holdings/{identity}/{symbol}", HandleHoldingCount(cfg.Resale))
	mux.HandleFunc("GET /markets/{id}/listings", HandleListListings(cfg.Resale))
	mux.HandleFunc("POST /markets/{id}/listings", HandleCreateListing(cfg.Resale, false))
	mux.HandleFunc("POST /markets/{id}/consignments", HandleCreateListing(cfg.Resale, true))
	mux.HandleFunc("GET /markets/{id}/listings/{listingID}", HandleInspectListing(cfg.Resale))
	mux.HandleFunc("POST /markets/{id}/listings/{listingID}/purchase", HandlePurchaseListing(cfg.Resale))

	mux.Handle("/", NotFoundHandler())

	var handler http.Handler = mux
	handler = CORS(cfg.AllowedOrigins, handler)
	if cfg.Registry != nil {
		handler = Metrics(handler, cfg.Registry, "agora")
	}
	return RequestLogger(handler, cfg.Logger)
}

// NotFoundHandler returns a JSON 404 response for unknown routes.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
}
