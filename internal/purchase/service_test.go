package purchase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/product"
)

type stubStore struct {
	created  *Bill
	repriced []product.Product
}

func (s *stubStore) Create(_ context.Context, b Bill, repriced []product.Product) (Bill, error) {
	b.ID = uuid.New()
	s.created = &b
	s.repriced = repriced
	return b, nil
}

func (s *stubStore) GetByID(_ context.Context, _ uuid.UUID) (Bill, error) {
	return Bill{}, ErrNotFound
}

type stubCatalog struct {
	byCode map[string]product.Product
}

func (s *stubCatalog) GetByCode(_ context.Context, code string) (product.Product, error) {
	p, ok := s.byCode[code]
	if !ok {
		return product.Product{}, product.ErrNotFound
	}
	return p, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreateMatchesLinesAndTotals(t *testing.T) {
	mrp := dec("500")
	oil := product.Product{ID: uuid.New(), SKU: "OIL-1", Name: "Oil", MRP: &mrp, TaxPct: dec("12")}
	st := &stubStore{}
	svc, err := NewService(ServiceConfig{
		Store:   st,
		Catalog: &stubCatalog{byCode: map[string]product.Product{"OIL-1": oil}},
	})
	require.NoError(t, err)

	b, err := svc.Create(context.Background(), CreateInput{
		Supplier:  "Acme Distributors",
		InvoiceNo: "AD-991",
		Items: []ItemInput{
			{Code: "OIL-1", Name: "Oil", Qty: 10, UnitCost: dec("400"), TaxPct: dec("12")},
			{Code: "NOPE-9", Name: "Unknown part", Qty: 2, UnitCost: dec("50"), TaxPct: dec("12")},
		},
	})
	require.NoError(t, err)

	require.Len(t, b.Items, 2)
	require.True(t, b.Items[0].Matched)
	require.False(t, b.Items[1].Matched)
	require.Nil(t, b.Items[1].ProductID)

	// 400 inclusive at 12%: base 357.14, tax 42.86 per unit.
	require.True(t, b.Items[0].TaxAmount.Equal(dec("428.6")), "tax %s", b.Items[0].TaxAmount)
	require.True(t, b.Items[0].LineTotal.Equal(dec("4000")))
	require.True(t, b.Subtotal.Equal(dec("4100")))
	require.True(t, b.GrandTotal.Equal(dec("4100")))
}

func TestCreateRefreshesCostSideFromActualCost(t *testing.T) {
	mrp := dec("500")
	oil := product.Product{ID: uuid.New(), SKU: "OIL-1", Name: "Oil", MRP: &mrp, TaxPct: dec("12")}
	st := &stubStore{}
	svc, _ := NewService(ServiceConfig{
		Store:   st,
		Catalog: &stubCatalog{byCode: map[string]product.Product{"OIL-1": oil}},
	})

	_, err := svc.Create(context.Background(), CreateInput{
		Supplier:  "Acme Distributors",
		InvoiceNo: "AD-992",
		Items: []ItemInput{
			{Code: "OIL-1", Name: "Oil", Qty: 1, UnitCost: dec("400"), TaxPct: dec("12")},
		},
	})
	require.NoError(t, err)
	require.Len(t, st.repriced, 1)

	got := st.repriced[0]
	require.True(t, got.PurchaseMarginPct.Equal(dec("20")))
	require.True(t, got.CostPrice.Equal(dec("400")))
	require.True(t, got.CostPriceBase.Equal(dec("357.14")))
	require.True(t, got.CostGST.Equal(dec("42.86")))
}

func TestCreateSkipsRepriceWhenCostExceedsMRP(t *testing.T) {
	mrp := dec("300")
	p := product.Product{ID: uuid.New(), SKU: "FILT-1", MRP: &mrp, TaxPct: dec("12")}
	st := &stubStore{}
	svc, _ := NewService(ServiceConfig{
		Store:   st,
		Catalog: &stubCatalog{byCode: map[string]product.Product{"FILT-1": p}},
	})

	b, err := svc.Create(context.Background(), CreateInput{
		Supplier:  "Acme Distributors",
		InvoiceNo: "AD-993",
		Items: []ItemInput{
			{Code: "FILT-1", Name: "Filter", Qty: 5, UnitCost: dec("350"), TaxPct: dec("12")},
		},
	})
	require.NoError(t, err)
	require.True(t, b.Items[0].Matched)
	require.Empty(t, st.repriced)
}

func TestCreateRejectsNegativeCost(t *testing.T) {
	svc, _ := NewService(ServiceConfig{Store: &stubStore{}, Catalog: &stubCatalog{}})

	_, err := svc.Create(context.Background(), CreateInput{
		Supplier:  "Acme Distributors",
		InvoiceNo: "AD-994",
		Items: []ItemInput{
			{Code: "X", Name: "X", Qty: 1, UnitCost: dec("-10"), TaxPct: dec("12")},
		},
	})
	require.Error(t, err)
}
