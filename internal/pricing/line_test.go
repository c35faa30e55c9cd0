package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLineTotalScenario(t *testing.T) {
	// price=1000, qty=2, discount=10%, tax=18%.
	line, err := LineTotal(dec("1000"), 2, dec("10"), dec("18"))
	if err != nil {
		t.Fatalf("line total: %v", err)
	}
	if !line.UnitPrice.Equal(dec("900")) {
		t.Fatalf("expected unit price 900, got %s", line.UnitPrice)
	}
	// 900 - 900/1.18 = 137.29 once the base is rounded to two decimals.
	if !line.UnitTax.Equal(dec("137.29")) {
		t.Fatalf("expected unit tax 137.29, got %s", line.UnitTax)
	}
	if !line.Subtotal.Equal(dec("1800")) {
		t.Fatalf("expected subtotal 1800, got %s", line.Subtotal)
	}
}

func TestLineTotalZeroTax(t *testing.T) {
	line, err := LineTotal(dec("250"), 3, decimal.Zero, decimal.Zero)
	if err != nil {
		t.Fatalf("line total: %v", err)
	}
	if !line.UnitTax.IsZero() {
		t.Fatalf("expected zero tax, got %s", line.UnitTax)
	}
	if !line.Subtotal.Equal(dec("750")) {
		t.Fatalf("expected subtotal 750, got %s", line.Subtotal)
	}
}

func TestLineTotalRejectsZeroQuantity(t *testing.T) {
	if _, err := LineTotal(dec("100"), 0, decimal.Zero, decimal.Zero); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestBillTotalsWithOverallCashDiscount(t *testing.T) {
	items := []LineInput{
		{Price: dec("1000"), Qty: 2, DiscountPct: dec("10"), TaxPct: dec("18")},
		{Price: dec("500"), Qty: 1, DiscountPct: decimal.Zero, TaxPct: dec("12")},
	}
	totals, err := BillTotals(items, dec("5"), DiscountCash, decimal.Zero)
	if err != nil {
		t.Fatalf("bill totals: %v", err)
	}
	if !totals.Subtotal.Equal(dec("2300")) {
		t.Fatalf("expected subtotal 2300, got %s", totals.Subtotal)
	}
	if !totals.GrandTotal.Equal(dec("2185")) {
		t.Fatalf("expected grand total 2185, got %s", totals.GrandTotal)
	}
	if !totals.DiscountAmount.Equal(dec("115")) {
		t.Fatalf("expected discount 115, got %s", totals.DiscountAmount)
	}
}

func TestBillTotalsZeroDiscountKeepsSubtotal(t *testing.T) {
	items := []LineInput{{Price: dec("199.99"), Qty: 1, TaxPct: dec("18")}}
	totals, err := BillTotals(items, decimal.Zero, DiscountCash, dec("18"))
	if err != nil {
		t.Fatalf("bill totals: %v", err)
	}
	if !totals.GrandTotal.Equal(totals.Subtotal) {
		t.Fatalf("expected grand total == subtotal, got %s vs %s", totals.GrandTotal, totals.Subtotal)
	}
	if !totals.DiscountAmount.IsZero() {
		t.Fatalf("expected zero discount amount, got %s", totals.DiscountAmount)
	}
}

func TestBillTotalsFullDiscountNeverNegative(t *testing.T) {
	items := []LineInput{{Price: dec("100"), Qty: 4, TaxPct: dec("5")}}
	totals, err := BillTotals(items, dec("100"), DiscountCash, dec("5"))
	if err != nil {
		t.Fatalf("bill totals: %v", err)
	}
	if totals.GrandTotal.IsNegative() {
		t.Fatalf("grand total went negative: %s", totals.GrandTotal)
	}
	if !totals.GrandTotal.IsZero() {
		t.Fatalf("expected zero grand total, got %s", totals.GrandTotal)
	}
}
