package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrMissingBase indicates a scale operation on a product lacking the
	// field being scaled. Callers exclude such products from the batch.
	ErrMissingBase = errors.New("pricing: no base value to scale")
)

// Field identifies the edited attribute in a bulk recalculation.
type Field string

const (
	FieldMRP            Field = "mrp"
	FieldMargin         Field = "marginPercentage"
	FieldPurchaseMargin Field = "purchaseMarginPercentage"
	FieldTax            Field = "taxPercentage"
)

// Op is the bulk change operation.
type Op string

const (
	OpIncrease Op = "increase"
	OpDecrease Op = "decrease"
	OpSet      Op = "set"
)

// Record carries the pricing attributes of a product. MRP may be absent;
// every derived field is recomputable from MRP, the margins, and the rate.
type Record struct {
	MRP               *decimal.Decimal
	TaxPct            decimal.Decimal
	MarginPct         decimal.Decimal
	PurchaseMarginPct decimal.Decimal

	CostPrice     decimal.Decimal
	CostPriceBase decimal.Decimal
	CostGST       decimal.Decimal

	SellingPrice     decimal.Decimal
	SellingPriceBase decimal.Decimal
	SellingGST       decimal.Decimal
}

// Recalculate applies a bulk change to one field and re-derives every
// dependent priced field, returning a fully populated record. The output is
// used verbatim for both the preview table and the update payload, so a
// previewed change and the committed change are always identical.
func Recalculate(rec Record, field Field, op Op, value decimal.Decimal) (Record, error) {
	switch field {
	case FieldMRP:
		current := decimal.Zero
		if rec.MRP != nil {
			current = *rec.MRP
		}
		newMRP, err := applyOp(current, rec.MRP != nil, op, value)
		if err != nil {
			return Record{}, err
		}
		if newMRP.IsNegative() {
			return Record{}, ErrNegativeAmount
		}
		rec.MRP = &newMRP
		return deriveBothSides(rec)

	case FieldMargin:
		newPct, err := applyOp(rec.MarginPct, true, op, value)
		if err != nil {
			return Record{}, err
		}
		rec.MarginPct = ClampPercent(newPct)
		return deriveSellingSide(rec)

	case FieldPurchaseMargin:
		newPct, err := applyOp(rec.PurchaseMarginPct, true, op, value)
		if err != nil {
			return Record{}, err
		}
		rec.PurchaseMarginPct = ClampPercent(newPct)
		return deriveCostSide(rec)

	case FieldTax:
		newPct, err := applyOp(rec.TaxPct, true, op, value)
		if err != nil {
			return Record{}, err
		}
		if newPct.IsNegative() {
			return Record{}, ErrNegativeRate
		}
		rec.TaxPct = newPct
		// Inclusive prices are held constant and re-decomposed at the new
		// rate. MRP and both margins do not move.
		cost, err := Decompose(rec.CostPrice, rec.TaxPct)
		if err != nil {
			return Record{}, err
		}
		selling, err := Decompose(rec.SellingPrice, rec.TaxPct)
		if err != nil {
			return Record{}, err
		}
		rec.CostPriceBase, rec.CostGST = cost.Base, cost.Tax
		rec.SellingPriceBase, rec.SellingGST = selling.Base, selling.Tax
		return rec, nil

	default:
		return Record{}, fmt.Errorf("pricing: unknown bulk field %q", field)
	}
}

func applyOp(current decimal.Decimal, present bool, op Op, value decimal.Decimal) (decimal.Decimal, error) {
	switch op {
	case OpSet:
		return value.Round(2), nil
	case OpIncrease:
		if !present {
			return decimal.Decimal{}, ErrMissingBase
		}
		return current.Mul(one.Add(value.Div(hundred))).Round(2), nil
	case OpDecrease:
		if !present {
			return decimal.Decimal{}, ErrMissingBase
		}
		return current.Mul(one.Sub(value.Div(hundred))).Round(2), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("pricing: unknown bulk operation %q", op)
	}
}

func deriveBothSides(rec Record) (Record, error) {
	rec, err := deriveCostSide(rec)
	if err != nil {
		return Record{}, err
	}
	return deriveSellingSide(rec)
}

func deriveCostSide(rec Record) (Record, error) {
	if rec.MRP == nil {
		return Record{}, ErrMissingBase
	}
	rec.CostPrice = rec.MRP.Mul(one.Sub(rec.PurchaseMarginPct.Div(hundred))).Round(2)
	split, err := Decompose(rec.CostPrice, rec.TaxPct)
	if err != nil {
		return Record{}, err
	}
	rec.CostPriceBase, rec.CostGST = split.Base, split.Tax
	return rec, nil
}

func deriveSellingSide(rec Record) (Record, error) {
	if rec.MRP == nil {
		return Record{}, ErrMissingBase
	}
	rec.SellingPrice = rec.MRP.Mul(one.Sub(rec.MarginPct.Div(hundred))).Round(2)
	split, err := Decompose(rec.SellingPrice, rec.TaxPct)
	if err != nil {
		return Record{}, err
	}
	rec.SellingPriceBase, rec.SellingGST = split.Base, split.Tax
	return rec, nil
}
