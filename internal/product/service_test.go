package product

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/common"
)

type stubStore struct {
	products  []Product
	listCalls int
	inserted  *Product
	stock     int
	stockErr  error
}

func (s *stubStore) Insert(_ context.Context, p Product) (Product, error) {
	p.ID = uuid.New()
	s.inserted = &p
	return p, nil
}

func (s *stubStore) Update(_ context.Context, p Product) (Product, error) { return p, nil }

func (s *stubStore) GetByID(_ context.Context, id uuid.UUID) (Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (s *stubStore) GetByCode(_ context.Context, code string) (Product, error) {
	for _, p := range s.products {
		if p.SKU == code {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (s *stubStore) List(_ context.Context, f ListFilter) ([]Product, error) {
	s.listCalls++
	limit := f.Limit + 1
	if limit > len(s.products) {
		limit = len(s.products)
	}
	return s.products[:limit], nil
}

func (s *stubStore) AdjustStock(_ context.Context, _ uuid.UUID, delta int, _ bool) (int, error) {
	if s.stockErr != nil {
		return 0, s.stockErr
	}
	s.stock += delta
	return s.stock, nil
}

func newTestService(t *testing.T, st *stubStore) *Service {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc, err := NewService(ServiceConfig{Store: st, Cache: NewCache(rdb, time.Minute)})
	require.NoError(t, err)
	return svc
}

func TestQuickAddDerivesPricingBlock(t *testing.T) {
	st := &stubStore{}
	svc := newTestService(t, st)

	mrp := decimal.NewFromInt(500)
	created, err := svc.QuickAdd(context.Background(), CreateInput{
		SKU:       "OIL-10W40",
		Name:      "Engine oil 10W40",
		Category:  "lubricants",
		MRP:       &mrp,
		TaxPct:    decimal.NewFromInt(12),
		MarginPct: decimal.NewFromInt(20),
	})
	require.NoError(t, err)
	require.True(t, created.SellingPrice.Equal(decimal.NewFromInt(400)))
	require.True(t, created.SellingPriceBase.Equal(decimal.RequireFromString("357.14")))
	require.True(t, created.SellingGST.Equal(decimal.RequireFromString("42.86")))
	// Purchase margin omitted: cost price falls back to the full MRP.
	require.True(t, created.CostPrice.Equal(decimal.NewFromInt(500)))
}

func TestQuickAddWithoutMRPLeavesPricingZero(t *testing.T) {
	st := &stubStore{}
	svc := newTestService(t, st)

	created, err := svc.QuickAdd(context.Background(), CreateInput{
		SKU:      "MISC-1",
		Name:     "Loose item",
		Category: "misc",
	})
	require.NoError(t, err)
	require.Nil(t, created.MRP)
	require.True(t, created.SellingPrice.IsZero())
}

func TestListPaginatesWithLastKey(t *testing.T) {
	st := &stubStore{}
	for i := 0; i < 25; i++ {
		st.products = append(st.products, Product{ID: uuid.New(), SKU: sku(i)})
	}
	svc := newTestService(t, st)

	result, err := svc.List(context.Background(), ListParams{Cursor: common.Cursor{Limit: 20}})
	require.NoError(t, err)
	require.Len(t, result.Items, 20)
	require.True(t, result.Meta.HasMore)
	require.Equal(t, result.Items[19].SKU, result.Meta.LastKey)
}

func TestListFirstPageServedFromCache(t *testing.T) {
	st := &stubStore{products: []Product{{ID: uuid.New(), SKU: "A-1"}}}
	svc := newTestService(t, st)

	params := ListParams{Cursor: common.Cursor{Limit: common.DefaultPageSize}}
	_, err := svc.List(context.Background(), params)
	require.NoError(t, err)
	_, err = svc.List(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, 1, st.listCalls)
}

func TestAdjustStockMapsInsufficient(t *testing.T) {
	st := &stubStore{stockErr: ErrInsufficientStock}
	svc := newTestService(t, st)
	id := uuid.New().String()

	_, err := svc.AdjustStock(context.Background(), id, -5)
	require.Error(t, err)
	require.True(t, common.IsAppError(err))
}

func sku(i int) string {
	return string(rune('A'+i/10)) + "-" + string(rune('0'+i%10))
}
