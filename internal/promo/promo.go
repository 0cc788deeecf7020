// Package promo validates promotion codes. Outcomes are result values, never
// errors: an unknown code is a normal negative result.
package promo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/veloria/storefront/internal/httpx"
)

// Result is the outcome of a code validation.
type Result struct {
	Valid           bool    `json:"valid"`
	Code            string  `json:"code"`
	DiscountPercent float64 `json:"discountPercent,omitempty"`
}

// Validator checks promo codes against the promotions source.
type Validator interface {
	Validate(ctx context.Context, code string) (Result, error)
}

// StaticValidator validates against a fixed code table, case-insensitively.
type StaticValidator struct {
	codes map[string]float64
}

// DefaultCodes is the built-in promotion table used when no external
// promotions service is configured.
func DefaultCodes() map[string]float64 {
	return map[string]float64{
		"WELCOME10": 10,
		"PRO20":     20,
		"VIP30":     30,
	}
}

// NewStaticValidator creates a validator over the given code table.
func NewStaticValidator(codes map[string]float64) *StaticValidator {
	normalized := make(map[string]float64, len(codes))
	for code, percent := range codes {
		normalized[strings.ToUpper(code)] = percent
	}
	return &StaticValidator{codes: normalized}
}

func (v *StaticValidator) Validate(ctx context.Context, code string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	normalized := strings.ToUpper(strings.TrimSpace(code))
	percent, ok := v.codes[normalized]
	if !ok {
		return Result{Code: normalized}, nil
	}
	return Result{Valid: true, Code: normalized, DiscountPercent: percent}, nil
}

// HTTPValidator calls the external promotions service. A 404 means the code
// does not exist and is a negative result, not an error.
type HTTPValidator struct {
	client *httpx.Client
}

// NewHTTPValidator creates a validator backed by POST /api/promo/validate.
func NewHTTPValidator(client *httpx.Client) *HTTPValidator {
	return &HTTPValidator{client: client}
}

func (v *HTTPValidator) Validate(ctx context.Context, code string) (Result, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))

	var resp struct {
		DiscountPercent float64 `json:"discountPercent"`
	}
	body := map[string]string{"code": normalized}
	if err := v.client.PostJSON(ctx, "/api/promo/validate", body, nil, &resp); err != nil {
		var apiErr *httpx.APIError
		if errors.As(err, &apiErr) && apiErr.IsNotFound() {
			return Result{Code: normalized}, nil
		}
		return Result{}, fmt.Errorf("promo validation failed: %w", err)
	}

	return Result{Valid: true, Code: normalized, DiscountPercent: resp.DiscountPercent}, nil
}
