package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrNegativeAmount is returned when a monetary input is below zero.
	ErrNegativeAmount = errors.New("pricing: amount must not be negative")
	// ErrNegativeRate is returned when a tax rate below zero is supplied.
	ErrNegativeRate = errors.New("pricing: tax rate must not be negative")
	// ErrInvalidQuantity is returned for line quantities below one.
	ErrInvalidQuantity = errors.New("pricing: quantity must be at least 1")
)

// DiscountMode selects where a percentage discount is applied.
type DiscountMode string

const (
	// DiscountCash applies the discount to the tax-inclusive price. The
	// taxable base shrinks proportionally but the tax rate math is untouched.
	DiscountCash DiscountMode = "CASH"
	// DiscountTrade applies the discount to the taxable base and recomputes
	// tax on the reduced base.
	DiscountTrade DiscountMode = "TRADE"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Split is a tax-inclusive price broken into its taxable base and tax amount.
// Base + Tax always reproduces the inclusive price exactly.
type Split struct {
	Base decimal.Decimal
	Tax  decimal.Decimal
}

// Inclusive returns the tax-inclusive price the split was derived from.
func (s Split) Inclusive() decimal.Decimal {
	return s.Base.Add(s.Tax)
}

// Decompose splits a tax-inclusive price into base and tax for the given
// percentage rate. A zero rate is the identity. The base is rounded to two
// decimal places and the tax is the exact remainder, so Base+Tax == inclusive.
func Decompose(inclusive, taxPct decimal.Decimal) (Split, error) {
	if inclusive.IsNegative() {
		return Split{}, ErrNegativeAmount
	}
	if taxPct.IsNegative() {
		return Split{}, ErrNegativeRate
	}
	if taxPct.IsZero() {
		return Split{Base: inclusive, Tax: decimal.Zero}, nil
	}
	divisor := one.Add(taxPct.Div(hundred))
	base := inclusive.Div(divisor).Round(2)
	return Split{Base: base, Tax: inclusive.Sub(base)}, nil
}

// Recompose is the inverse of Decompose: it derives the tax-inclusive price
// from a base price and rate. Used when the base price is edited directly.
func Recompose(base, taxPct decimal.Decimal) (Split, error) {
	if base.IsNegative() {
		return Split{}, ErrNegativeAmount
	}
	if taxPct.IsNegative() {
		return Split{}, ErrNegativeRate
	}
	inclusive := base.Mul(one.Add(taxPct.Div(hundred))).Round(2)
	return Split{Base: base, Tax: inclusive.Sub(base)}, nil
}

// Discount is the outcome of applying a percentage discount to an MRP.
type Discount struct {
	// Inclusive is the discounted tax-inclusive price.
	Inclusive decimal.Decimal
	// Amount is the reported discount value. For trade discounts this is the
	// quick mrp*pct/100 preview figure; Inclusive carries the recomposed
	// authoritative price.
	Amount decimal.Decimal
}

// ClampPercent bounds a percentage into [0, 100]. Callers validate at the
// edge, but engine entry points clamp again so malformed input never
// produces a negative price.
func ClampPercent(pct decimal.Decimal) decimal.Decimal {
	if pct.IsNegative() {
		return decimal.Zero
	}
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}

// ApplyDiscount reduces a tax-inclusive MRP by a percentage. Cash discounts
// act on the inclusive price; trade discounts act on the taxable base with
// tax recomputed on the reduced base.
func ApplyDiscount(mrp, pct decimal.Decimal, mode DiscountMode, taxPct decimal.Decimal) (Discount, error) {
	if mrp.IsNegative() {
		return Discount{}, ErrNegativeAmount
	}
	if taxPct.IsNegative() {
		return Discount{}, ErrNegativeRate
	}
	pct = ClampPercent(pct)
	factor := one.Sub(pct.Div(hundred))

	if mode == DiscountTrade {
		split, err := Decompose(mrp, taxPct)
		if err != nil {
			return Discount{}, err
		}
		reduced, err := Recompose(split.Base.Mul(factor).Round(2), taxPct)
		if err != nil {
			return Discount{}, err
		}
		return Discount{
			Inclusive: reduced.Inclusive(),
			Amount:    mrp.Mul(pct).Div(hundred).Round(2),
		}, nil
	}

	discounted := mrp.Mul(factor).Round(2)
	return Discount{Inclusive: discounted, Amount: mrp.Sub(discounted)}, nil
}
