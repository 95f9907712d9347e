package cart

import (
	"context"
	"errors"

	"github.com/suteetoe/vitrin/internal/apperr"
	"github.com/suteetoe/vitrin/metrics"
)

// Outcome of a checkout attempt.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeRedirect  Outcome = "redirect"
	OutcomeFailed    Outcome = "failed"
)

// Order is what the cart hands to the checkout collaborator.
type Order struct {
	Tenant string `json:"site"`
	Items  []Item `json:"items"`
	Total  int64  `json:"total"`
}

// Result is the checkout collaborator's answer.
type Result struct {
	Outcome     Outcome `json:"outcome"`
	RedirectURL string  `json:"redirect_url,omitempty"`
	Reason      string  `json:"reason,omitempty"`
}

// Gateway submits orders. Payment mechanics live behind it.
type Gateway interface {
	Submit(ctx context.Context, order Order) (Result, error)
}

// Checkout submits the cart. It is cleared on success or redirect and kept
// intact when the gateway fails or reports a failure.
func (c *Cart) Checkout(ctx context.Context, scope string, gw Gateway) (Result, error) {
	const op = "cart.Checkout"

	if err := c.guard(scope); err != nil {
		return Result{}, err
	}
	if len(c.items) == 0 {
		return Result{}, apperr.Validation(op, "your cart is empty")
	}
	if !c.Enabled() {
		metrics.RecordCartRejection("capability_disabled")
		return Result{}, ErrDisabled
	}

	order := Order{Tenant: c.tenant, Items: c.Items(), Total: c.Total()}
	res, err := gw.Submit(ctx, order)
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return Result{}, err
		}
		return Result{}, apperr.Unavailable(op, err)
	}

	switch res.Outcome {
	case OutcomeSucceeded, OutcomeRedirect:
		c.Clear()
	default:
		res.Outcome = OutcomeFailed
	}
	return res, nil
}
