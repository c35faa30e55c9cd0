package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/product"
)

type stubStore struct {
	created   *Bill
	createErr error
	bills     []Bill
}

func (s *stubStore) Create(_ context.Context, b Bill, _ bool) (Bill, error) {
	if s.createErr != nil {
		return Bill{}, s.createErr
	}
	b.ID = uuid.New()
	b.Number = 1001
	s.created = &b
	return b, nil
}

func (s *stubStore) GetByID(_ context.Context, id uuid.UUID) (Bill, error) {
	for _, b := range s.bills {
		if b.ID == id {
			return b, nil
		}
	}
	return Bill{}, ErrNotFound
}

func (s *stubStore) List(_ context.Context, f ListFilter) ([]Bill, error) {
	limit := f.Limit + 1
	if limit > len(s.bills) {
		limit = len(s.bills)
	}
	return s.bills[:limit], nil
}

type stubCatalog struct {
	products map[uuid.UUID]product.Product
}

func (s *stubCatalog) GetByID(_ context.Context, id uuid.UUID) (product.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return product.Product{}, product.ErrNotFound
	}
	return p, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testProduct(sku string, mrp, taxPct string) product.Product {
	m := dec(mrp)
	return product.Product{ID: uuid.New(), SKU: sku, Name: sku, MRP: &m, TaxPct: dec(taxPct)}
}

func TestCreatePricesLinesAndTotals(t *testing.T) {
	oil := testProduct("OIL-1", "1000", "18")
	filt := testProduct("FILT-1", "300", "12")
	st := &stubStore{}
	svc, err := NewService(ServiceConfig{
		Store:   st,
		Catalog: &stubCatalog{products: map[uuid.UUID]product.Product{oil.ID: oil, filt.ID: filt}},
	})
	require.NoError(t, err)

	b, err := svc.Create(context.Background(), CreateInput{
		Kind: KindB2C,
		Items: []ItemInput{
			{ProductID: oil.ID.String(), Qty: 2, DiscountPct: dec("10")},
			{ProductID: filt.ID.String(), Qty: 1},
		},
		OverallDiscountPct: dec("5"),
		DiscountMode:       "CASH",
	})
	require.NoError(t, err)

	require.Len(t, b.Items, 2)
	require.True(t, b.Items[0].UnitPrice.Equal(dec("900")), "unit price %s", b.Items[0].UnitPrice)
	require.True(t, b.Items[0].UnitTax.Equal(dec("137.29")), "unit tax %s", b.Items[0].UnitTax)
	require.True(t, b.Items[0].LineTotal.Equal(dec("1800")))
	require.True(t, b.Items[1].UnitTax.Equal(dec("32.14")), "unit tax %s", b.Items[1].UnitTax)

	require.True(t, b.Subtotal.Equal(dec("2100")))
	require.True(t, b.DiscountAmount.Equal(dec("105")))
	require.True(t, b.GrandTotal.Equal(dec("1995")))
	require.True(t, b.TaxAmount.Equal(dec("306.72")), "tax total %s", b.TaxAmount)
}

func TestCreateLineTaxOverridesProductRate(t *testing.T) {
	p := testProduct("SVC-1", "500", "18")
	st := &stubStore{}
	svc, _ := NewService(ServiceConfig{
		Store:   st,
		Catalog: &stubCatalog{products: map[uuid.UUID]product.Product{p.ID: p}},
	})

	zero := decimal.Zero
	b, err := svc.Create(context.Background(), CreateInput{
		Kind:  KindB2C,
		Items: []ItemInput{{ProductID: p.ID.String(), Qty: 1, TaxPct: &zero}},
	})
	require.NoError(t, err)
	require.True(t, b.Items[0].UnitTax.IsZero())
	require.True(t, b.TaxAmount.IsZero())
}

func TestCreateB2BRequiresGSTIN(t *testing.T) {
	p := testProduct("OIL-1", "1000", "18")
	svc, _ := NewService(ServiceConfig{
		Store:   &stubStore{},
		Catalog: &stubCatalog{products: map[uuid.UUID]product.Product{p.ID: p}},
	})

	_, err := svc.Create(context.Background(), CreateInput{
		Kind:  KindB2B,
		Items: []ItemInput{{ProductID: p.ID.String(), Qty: 1}},
	})
	require.Error(t, err)
	require.True(t, common.IsAppError(err))
}

func TestCreateMapsInsufficientStock(t *testing.T) {
	p := testProduct("OIL-1", "1000", "18")
	svc, _ := NewService(ServiceConfig{
		Store:   &stubStore{createErr: ErrInsufficientStock},
		Catalog: &stubCatalog{products: map[uuid.UUID]product.Product{p.ID: p}},
	})

	_, err := svc.Create(context.Background(), CreateInput{
		Kind:  KindB2C,
		Items: []ItemInput{{ProductID: p.ID.String(), Qty: 1}},
	})
	require.Error(t, err)
	require.True(t, common.IsAppError(err))
}

func TestCreateRejectsUnknownProduct(t *testing.T) {
	svc, _ := NewService(ServiceConfig{
		Store:   &stubStore{},
		Catalog: &stubCatalog{products: map[uuid.UUID]product.Product{}},
	})

	_, err := svc.Create(context.Background(), CreateInput{
		Kind:  KindB2C,
		Items: []ItemInput{{ProductID: uuid.NewString(), Qty: 1}},
	})
	require.Error(t, err)
}

func TestListPaginatesOnBillNumber(t *testing.T) {
	st := &stubStore{}
	for i := 0; i < 25; i++ {
		st.bills = append(st.bills, Bill{ID: uuid.New(), Number: int64(2000 - i)})
	}
	svc, _ := NewService(ServiceConfig{Store: st, Catalog: &stubCatalog{}})

	result, err := svc.List(context.Background(), ListParams{Cursor: common.Cursor{Limit: 20}})
	require.NoError(t, err)
	require.Len(t, result.Items, 20)
	require.True(t, result.Meta.HasMore)
	require.Equal(t, "1981", result.Meta.LastKey)
}
