// Package stock is the inventory validation boundary. Validation is a pure
// read against an external inventory collaborator: it never mutates cart
// state, and callers decide what to do with the result.
package stock

import (
	"context"
	"fmt"
	"time"
)

// Request identifies one quantity check.
type Request struct {
	ProductID   string `json:"productId"`
	Quantity    int    `json:"quantity"`
	WarehouseID string `json:"warehouseId,omitempty"`
}

// Result is the outcome of a single stock check. IsValid is strictly
// requested <= available.
type Result struct {
	ProductID         string `json:"productId"`
	IsValid           bool   `json:"isValid"`
	RequestedQuantity int    `json:"requestedQuantity"`
	AvailableQuantity int    `json:"availableQuantity"`
	Message           string `json:"message,omitempty"`
}

// Validator checks requested quantities against available inventory.
type Validator interface {
	// ValidateItem checks a single product quantity.
	ValidateItem(ctx context.Context, req Request) (Result, error)

	// ValidateItems checks a batch of requests, one result per request.
	ValidateItems(ctx context.Context, reqs []Request) ([]Result, error)
}

// DefaultTimeout bounds a validation round trip.
const DefaultTimeout = 10 * time.Second

// StaticValidator validates against a fixed in-memory availability table.
// Unknown products are treated as amply stocked.
type StaticValidator struct {
	available map[string]int
}

// NewStaticValidator creates a validator over the given availability table.
func NewStaticValidator(available map[string]int) *StaticValidator {
	return &StaticValidator{available: available}
}

func (v *StaticValidator) ValidateItem(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	available, known := v.available[req.ProductID]
	if !known {
		available = 1 << 20
	}

	res := Result{
		ProductID:         req.ProductID,
		RequestedQuantity: req.Quantity,
		AvailableQuantity: available,
		IsValid:           req.Quantity <= available,
	}
	if !res.IsValid {
		res.Message = fmt.Sprintf("only %d unit(s) available", available)
	}
	return res, nil
}

func (v *StaticValidator) ValidateItems(ctx context.Context, reqs []Request) ([]Result, error) {
	results := make([]Result, 0, len(reqs))
	for _, req := range reqs {
		res, err := v.ValidateItem(ctx, req)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}
