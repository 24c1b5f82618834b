package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cimillas/agora-market/internal/domain"
)

const (
	codeMethodNotAllowed      = "method_not_allowed"
	codeNotFound              = "not_found"
	codeInvalidRequestBody    = "invalid_request_body"
	codeMissingRequiredField  = "missing_required_field"
	codeInvalidID             = "invalid_id"
	codeIdentityRequired      = "identity_required"
	codeNotAuthorized         = "not_authorized"
	codeOwnerRoleImmutable    = "owner_role_immutable"
	codeUnknownProduct        = "unknown_product"
	codeDuplicateProduct      = "duplicate_product"
	codeProductLocked         = "product_locked"
	codeInsufficientStock     = "insufficient_stock"
	codeOutOfStock            = "out_of_stock"
	codeInsufficientFunds     = "insufficient_funds"
	codeExceedsMaxPerOwner    = "exceeds_max_per_owner"
	codeExceedsMaxSupply      = "exceeds_max_supply"
	codeSellingMoreThanOwned  = "selling_more_than_owned"
	codeUnknownExtension      = "unknown_extension"
	codeDuplicateExtension    = "duplicate_extension"
	codeUnknownImplementation = "unknown_implementation"
	codeUnknownMarket         = "unknown_market"
	codeAlreadyInitialized    = "already_initialized"
	codeNotInitialized        = "not_initialized"
	codeInvalidInitArgs       = "invalid_init_args"
	codeUnknownListing        = "unknown_listing"
	codeListingAlreadySold    = "listing_already_sold"
	codeExceedsListingQty     = "exceeds_listing_quantity"
	codePartialFill           = "partial_fill"
	codeUnsupportedOperation  = "unsupported_operation"
	codeInvalidQuantity       = "invalid_quantity"
	codeInvalidAmount         = "invalid_amount"
	codeInvalidSymbol         = "invalid_symbol"
	codeNameRequired          = "name_required"
	codeForbidden             = "forbidden"
	codeUnavailable           = "unavailable"
	codeInternalError         = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

type errorMapping struct {
	err    error
	status int
	code   string
}

var serviceErrors = []errorMapping{
	{domain.ErrIdentityRequired, http.StatusBadRequest, codeIdentityRequired},
	{domain.ErrNotAuthorized, http.StatusForbidden, codeNotAuthorized},
	{domain.ErrOwnerRoleImmutable, http.StatusConflict, codeOwnerRoleImmutable},

	{domain.ErrUnknownProduct, http.StatusNotFound, codeUnknownProduct},
	{domain.ErrUnknownExtension, http.StatusNotFound, codeUnknownExtension},
	{domain.ErrUnknownMarket, http.StatusNotFound, codeUnknownMarket},
	{domain.ErrUnknownListing, http.StatusNotFound, codeUnknownListing},

	{domain.ErrDuplicateProduct, http.StatusConflict, codeDuplicateProduct},
	{domain.ErrDuplicateExtension, http.StatusConflict, codeDuplicateExtension},
	{domain.ErrProductLocked, http.StatusConflict, codeProductLocked},
	{domain.ErrAlreadyInitialized, http.StatusConflict, codeAlreadyInitialized},
	{domain.ErrNotInitialized, http.StatusConflict, codeNotInitialized},
	{domain.ErrListingAlreadySold, http.StatusConflict, codeListingAlreadySold},

	{domain.ErrInsufficientStock, http.StatusUnprocessableEntity, codeInsufficientStock},
	{domain.ErrOutOfStock, http.StatusUnprocessableEntity, codeOutOfStock},
	{domain.ErrInsufficientFunds, http.StatusUnprocessableEntity, codeInsufficientFunds},
	{domain.ErrExceedsMaxPerOwner, http.StatusUnprocessableEntity, codeExceedsMaxPerOwner},
	{domain.ErrExceedsMaxSupply, http.StatusUnprocessableEntity, codeExceedsMaxSupply},
	{domain.ErrSellingMoreThanOwned, http.StatusUnprocessableEntity, codeSellingMoreThanOwned},
	{domain.ErrExceedsListingQuantity, http.StatusUnprocessableEntity, codeExceedsListingQty},
	{domain.ErrPartialFill, http.StatusUnprocessableEntity, codePartialFill},

	{domain.ErrUnsupportedOperation, http.StatusBadRequest, codeUnsupportedOperation},
	{domain.ErrUnknownImplementation, http.StatusBadRequest, codeUnknownImplementation},
	{domain.ErrInvalidInitArgs, http.StatusBadRequest, codeInvalidInitArgs},
	{domain.ErrInvalidQuantity, http.StatusBadRequest, codeInvalidQuantity},
	{domain.ErrInvalidAmount, http.StatusBadRequest, codeInvalidAmount},
	{domain.ErrInvalidSymbol, http.StatusBadRequest, codeInvalidSymbol},
	{domain.ErrNameRequired, http.StatusBadRequest, codeNameRequired},
	{domain.ErrInvalidID, http.StatusBadRequest, codeInvalidID},
}

// writeServiceError maps a domain error onto its status and code. Anything unknown
// is reported as an internal error without leaking its message.
func writeServiceError(w http.ResponseWriter, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.code, err.Error())
			return
		}
	}
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
