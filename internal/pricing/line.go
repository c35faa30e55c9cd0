package pricing

import "github.com/shopspring/decimal"

// LineInput describes one bill line before calculation. Price is the
// tax-inclusive unit price; DiscountPct is the per-line cash discount.
type LineInput struct {
	Price       decimal.Decimal
	Qty         int
	DiscountPct decimal.Decimal
	TaxPct      decimal.Decimal
}

// Line is the calculated result for a single bill line.
type Line struct {
	// UnitPrice is the discounted tax-inclusive unit price.
	UnitPrice decimal.Decimal
	// UnitTax is the tax contained in UnitPrice. Tax is extracted from the
	// inclusive price, never added on top of it.
	UnitTax decimal.Decimal
	// Subtotal is UnitPrice multiplied by quantity.
	Subtotal decimal.Decimal
}

// Totals aggregates a bill: the sum of line subtotals, the overall discount
// taken once on that sum, and the resulting grand total.
type Totals struct {
	Lines          []Line
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	GrandTotal     decimal.Decimal
}

// LineTotal computes a single line. Line-level discounts are always cash
// mode: they reduce the already tax-inclusive unit price. Trade mode is
// reserved for the bill-level overall discount.
func LineTotal(price decimal.Decimal, qty int, discountPct, taxPct decimal.Decimal) (Line, error) {
	if qty < 1 {
		return Line{}, ErrInvalidQuantity
	}
	disc, err := ApplyDiscount(price, discountPct, DiscountCash, taxPct)
	if err != nil {
		return Line{}, err
	}
	split, err := Decompose(disc.Inclusive, taxPct)
	if err != nil {
		return Line{}, err
	}
	return Line{
		UnitPrice: disc.Inclusive,
		UnitTax:   split.Tax,
		Subtotal:  disc.Inclusive.Mul(decimal.NewFromInt(int64(qty))),
	}, nil
}

// BillTotals calculates every line and applies the overall discount once to
// the aggregate. taxPct only matters for trade-mode overall discounts, where
// tax is recomputed on the reduced aggregate base.
func BillTotals(items []LineInput, overallPct decimal.Decimal, mode DiscountMode, taxPct decimal.Decimal) (Totals, error) {
	totals := Totals{Lines: make([]Line, 0, len(items))}
	for _, it := range items {
		line, err := LineTotal(it.Price, it.Qty, it.DiscountPct, it.TaxPct)
		if err != nil {
			return Totals{}, err
		}
		totals.Lines = append(totals.Lines, line)
		totals.Subtotal = totals.Subtotal.Add(line.Subtotal)
	}
	disc, err := ApplyDiscount(totals.Subtotal, overallPct, mode, taxPct)
	if err != nil {
		return Totals{}, err
	}
	totals.GrandTotal = disc.Inclusive
	totals.DiscountAmount = totals.Subtotal.Sub(disc.Inclusive)
	return totals, nil
}
