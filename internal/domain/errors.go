package domain

import "errors"

var (
	ErrNotAuthorized          = errors.New("not authorized")
	ErrOwnerRoleImmutable     = errors.New("owner role cannot be revoked")
	ErrIdentityRequired       = errors.New("caller identity required")
	ErrUnknownProduct         = errors.New("product does not exist")
	ErrDuplicateProduct       = errors.New("product already exists")
	ErrProductLocked          = errors.New("product is locked")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrOutOfStock             = errors.New("product out of stock")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrExceedsMaxPerOwner     = errors.New("exceeds max per owner")
	ErrExceedsMaxSupply       = errors.New("exceeds max supply")
	ErrSellingMoreThanOwned   = errors.New("selling more than owned")
	ErrUnknownExtension       = errors.New("extension does not exist")
	ErrDuplicateExtension     = errors.New("extension already registered")
	ErrUnknownImplementation  = errors.New("unknown implementation")
	ErrUnknownMarket          = errors.New("market does not exist")
	ErrAlreadyInitialized     = errors.New("market already initialized")
	ErrNotInitialized         = errors.New("market not initialized")
	ErrInvalidInitArgs        = errors.New("invalid init args")
	ErrUnknownListing         = errors.New("listing does not exist")
	ErrListingAlreadySold     = errors.New("listing already sold")
	ErrExceedsListingQuantity = errors.New("exceeds listing quantity")
	ErrPartialFill            = errors.New("partial fill not supported")
	ErrUnsupportedOperation   = errors.New("operation not supported by market extension")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidSymbol          = errors.New("invalid symbol")
	ErrNameRequired           = errors.New("name required")
	ErrInvalidID              = errors.New("invalid id")
)
