package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestDecomposeRoundTrip(t *testing.T) {
	prices := []string{"0", "0.01", "99.99", "1000", "1234.56", "999999.99"}
	rates := []string{"0", "5", "12", "18", "28", "100"}
	for _, p := range prices {
		for _, r := range rates {
			split, err := Decompose(dec(p), dec(r))
			if err != nil {
				t.Fatalf("decompose %s @ %s: %v", p, r, err)
			}
			if !split.Base.Add(split.Tax).Equal(dec(p)) {
				t.Fatalf("base+tax != inclusive for %s @ %s: %s + %s", p, r, split.Base, split.Tax)
			}
		}
	}
}

func TestDecomposeZeroRateIsIdentity(t *testing.T) {
	split, err := Decompose(dec("523.45"), decimal.Zero)
	if err != nil {
		t.Fatalf("decompose: %v", err)
	}
	if !split.Base.Equal(dec("523.45")) || !split.Tax.IsZero() {
		t.Fatalf("expected identity split, got base=%s tax=%s", split.Base, split.Tax)
	}
}

func TestRecomposeInvertsDecompose(t *testing.T) {
	tolerance := dec("0.01")
	for _, p := range []string{"100", "900", "1000", "749.50"} {
		for _, r := range []string{"5", "12", "18"} {
			split, err := Decompose(dec(p), dec(r))
			if err != nil {
				t.Fatalf("decompose: %v", err)
			}
			back, err := Recompose(split.Base, dec(r))
			if err != nil {
				t.Fatalf("recompose: %v", err)
			}
			diff := back.Inclusive().Sub(dec(p)).Abs()
			if diff.GreaterThan(tolerance) {
				t.Fatalf("round trip %s @ %s drifted by %s", p, r, diff)
			}
		}
	}
}

func TestDecomposeRejectsNegativeInputs(t *testing.T) {
	if _, err := Decompose(dec("-1"), dec("18")); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	if _, err := Decompose(dec("100"), dec("-5")); !errors.Is(err, ErrNegativeRate) {
		t.Fatalf("expected ErrNegativeRate, got %v", err)
	}
	if _, err := Recompose(dec("-1"), decimal.Zero); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestCashDiscountOnInclusivePrice(t *testing.T) {
	disc, err := ApplyDiscount(dec("1000"), dec("10"), DiscountCash, dec("18"))
	if err != nil {
		t.Fatalf("apply discount: %v", err)
	}
	if !disc.Inclusive.Equal(dec("900")) {
		t.Fatalf("expected 900, got %s", disc.Inclusive)
	}
	if !disc.Amount.Equal(dec("100")) {
		t.Fatalf("expected amount 100, got %s", disc.Amount)
	}
}

func TestTradeDiscountRecomputesTax(t *testing.T) {
	// 1180 inclusive @ 18% -> base 1000; 10% off base -> 900 -> 1062 inclusive.
	disc, err := ApplyDiscount(dec("1180"), dec("10"), DiscountTrade, dec("18"))
	if err != nil {
		t.Fatalf("apply discount: %v", err)
	}
	if !disc.Inclusive.Equal(dec("1062")) {
		t.Fatalf("expected 1062, got %s", disc.Inclusive)
	}
	// Reported amount is the approximate mrp*pct/100 preview figure.
	if !disc.Amount.Equal(dec("118")) {
		t.Fatalf("expected amount 118, got %s", disc.Amount)
	}
}

func TestZeroDiscountIsIdentity(t *testing.T) {
	for _, mode := range []DiscountMode{DiscountCash, DiscountTrade} {
		disc, err := ApplyDiscount(dec("742.13"), decimal.Zero, mode, dec("12"))
		if err != nil {
			t.Fatalf("apply discount: %v", err)
		}
		if !disc.Inclusive.Equal(dec("742.13")) {
			t.Fatalf("%s: expected identity, got %s", mode, disc.Inclusive)
		}
	}
}

func TestDiscountMonotonicity(t *testing.T) {
	mrp := dec("1500")
	prev := mrp
	for _, pct := range []string{"0", "5", "10", "25", "50", "99", "100"} {
		disc, err := ApplyDiscount(mrp, dec(pct), DiscountCash, dec("18"))
		if err != nil {
			t.Fatalf("apply discount %s: %v", pct, err)
		}
		if disc.Inclusive.GreaterThan(prev) {
			t.Fatalf("discounted price increased at %s%%: %s > %s", pct, disc.Inclusive, prev)
		}
		prev = disc.Inclusive
	}
}

func TestDiscountClampsOutOfRangePercent(t *testing.T) {
	over, err := ApplyDiscount(dec("100"), dec("150"), DiscountCash, decimal.Zero)
	if err != nil {
		t.Fatalf("apply discount: %v", err)
	}
	if !over.Inclusive.IsZero() {
		t.Fatalf("expected clamp to 100%%, got %s", over.Inclusive)
	}
	under, err := ApplyDiscount(dec("100"), dec("-10"), DiscountCash, decimal.Zero)
	if err != nil {
		t.Fatalf("apply discount: %v", err)
	}
	if !under.Inclusive.Equal(dec("100")) {
		t.Fatalf("expected clamp to 0%%, got %s", under.Inclusive)
	}
}
