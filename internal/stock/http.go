package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/veloria/storefront/internal/httpx"
)

// HTTPValidator calls the external inventory service over HTTP.
// Round trips are bounded by DefaultTimeout.
type HTTPValidator struct {
	client *httpx.Client
}

// NewHTTPValidator creates a validator backed by POST /api/stock/validate.
func NewHTTPValidator(client *httpx.Client) *HTTPValidator {
	return &HTTPValidator{client: client}
}

type validateResponse struct {
	Available int `json:"available"`
}

func (v *HTTPValidator) ValidateItem(ctx context.Context, req Request) (Result, error) {
	var resp validateResponse
	opts := &httpx.RequestOptions{Timeout: DefaultTimeout}
	if err := v.client.PostJSON(ctx, "/api/stock/validate", req, opts, &resp); err != nil {
		var apiErr *httpx.APIError
		if errors.As(err, &apiErr) && apiErr.IsNotFound() {
			// Unknown product reads as zero stock, not a transport failure.
			return Result{
				ProductID:         req.ProductID,
				RequestedQuantity: req.Quantity,
				Message:           "product not found in inventory",
			}, nil
		}
		return Result{}, fmt.Errorf("stock validation failed: %w", err)
	}

	res := Result{
		ProductID:         req.ProductID,
		RequestedQuantity: req.Quantity,
		AvailableQuantity: resp.Available,
		IsValid:           req.Quantity <= resp.Available,
	}
	if !res.IsValid {
		res.Message = fmt.Sprintf("only %d unit(s) available", resp.Available)
	}
	return res, nil
}

func (v *HTTPValidator) ValidateItems(ctx context.Context, reqs []Request) ([]Result, error) {
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
