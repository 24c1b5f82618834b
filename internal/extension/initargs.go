package extension

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cimillas/agora-market/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type baseArgs struct {
	Symbol string `json:"symbol" validate:"required,max=16"`
	Name   string `json:"name" validate:"required,max=128"`
}

type cappedItemArgs struct {
	baseArgs
	MaxPerOwner int64 `json:"max_per_owner" validate:"gt=0"`
}

type cappedFungibleArgs struct {
	baseArgs
	MaxPerOwner int64 `json:"max_per_owner" validate:"gt=0"`
	MaxSupply   int64 `json:"max_supply" validate:"gt=0,gtefield=MaxPerOwner"`
}

// decodeArgs decodes a JSON init payload into dst and validates it.
func decodeArgs(args []byte, dst any) error {
	if len(bytes.TrimSpace(args)) == 0 {
		return fmt.Errorf("%w: empty payload", domain.ErrInvalidInitArgs)
	}
	dec := json.NewDecoder(bytes.NewReader(args))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInitArgs, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInitArgs, err)
	}
	return nil
}
