// Package shipping prices the fixed delivery options.
package shipping

import (
	"fmt"

	"bhesbhusa/internal/model"

	"github.com/shopspring/decimal"
)

// Quoter prices a shipping method.
type Quoter interface {
	// Quote returns the server-side cost of method.
	Quote(method model.ShippingMethod) (decimal.Decimal, error)
}

// Rates is an immutable rate table covering every shipping method.
type Rates struct {
	rates map[model.ShippingMethod]decimal.Decimal
}

// DefaultRates returns the storefront's published rates.
func DefaultRates() *Rates {
	return &Rates{rates: map[model.ShippingMethod]decimal.Decimal{
		model.ShippingInStorePickup:    decimal.Zero,
		model.ShippingInsideTheValley:  decimal.NewFromInt(100),
		model.ShippingOutsideTheValley: decimal.NewFromInt(300),
	}}
}

// NewRates validates a rate table. Every known method must be priced
// with a non-negative amount of at most two decimal places and no
// unknown methods may appear.
func NewRates(rates map[model.ShippingMethod]decimal.Decimal) (*Rates, error) {
	copied := make(map[model.ShippingMethod]decimal.Decimal, len(rates))
	for method, cost := range rates {
		if !method.Valid() {
			return nil, fmt.Errorf("unknown shipping method %q", method)
		}
		if cost.IsNegative() {
			return nil, fmt.Errorf("negative rate %s for %s", cost, method)
		}
		if !cost.Equal(cost.Round(2)) {
			return nil, fmt.Errorf("rate %s for %s has more than two decimal places", cost, method)
		}
		copied[method] = cost
	}
	for _, method := range model.ShippingMethods {
		if _, ok := copied[method]; !ok {
			return nil, fmt.Errorf("missing rate for %s", method)
		}
	}
	return &Rates{rates: copied}, nil
}

func (r *Rates) Quote(method model.ShippingMethod) (decimal.Decimal, error) {
	cost, ok := r.rates[method]
	if !ok {
		return decimal.Zero, model.ErrInvalidShippingMethod
	}
	return cost, nil
}

// Size returns the number of priced methods.
func (r *Rates) Size() int {
	return len(r.rates)
}
