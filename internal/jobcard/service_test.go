package jobcard

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/common"
)

type stubStore struct {
	cards map[uuid.UUID]Card
	seq   int64
}

func newStubStore() *stubStore { return &stubStore{cards: map[uuid.UUID]Card{}} }

func (s *stubStore) Insert(_ context.Context, c Card) (Card, error) {
	c.ID = uuid.New()
	s.seq++
	c.Number = s.seq
	c.Status = StatusOpen
	s.cards[c.ID] = c
	return c, nil
}

func (s *stubStore) Update(_ context.Context, c Card) (Card, error) {
	if _, ok := s.cards[c.ID]; !ok {
		return Card{}, ErrNotFound
	}
	s.cards[c.ID] = c
	return c, nil
}

func (s *stubStore) GetByID(_ context.Context, id uuid.UUID) (Card, error) {
	c, ok := s.cards[id]
	if !ok {
		return Card{}, ErrNotFound
	}
	return c, nil
}

func (s *stubStore) List(_ context.Context, f ListFilter) ([]Card, error) {
	var out []Card
	for _, c := range s.cards {
		if f.Status == "" || c.Status == f.Status {
			out = append(out, c)
		}
	}
	return out, nil
}

func strp(s string) *string { return &s }

func openCard(t *testing.T, svc *Service) Card {
	t.Helper()
	c, err := svc.Open(context.Background(), CreateInput{
		CustomerName: "R. Kumar",
		VehicleNo:    "KA-01-AB-1234",
		Complaint:    "engine noise at idle",
	})
	require.NoError(t, err)
	require.Equal(t, StatusOpen, c.Status)
	return c
}

func TestStatusMovesForwardOnly(t *testing.T) {
	svc, err := NewService(newStubStore())
	require.NoError(t, err)
	c := openCard(t, svc)

	c2, err := svc.Update(context.Background(), c.ID.String(), UpdateInput{Status: strp(StatusInProgress)})
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, c2.Status)

	_, err = svc.Update(context.Background(), c.ID.String(), UpdateInput{Status: strp(StatusOpen)})
	require.Error(t, err)
	require.True(t, common.IsAppError(err))
}

func TestSkippingAStepIsAllowed(t *testing.T) {
	svc, _ := NewService(newStubStore())
	c := openCard(t, svc)

	c2, err := svc.Update(context.Background(), c.ID.String(), UpdateInput{Status: strp(StatusDone)})
	require.NoError(t, err)
	require.Equal(t, StatusDone, c2.Status)
}

func TestInvoicingRequiresBillLink(t *testing.T) {
	svc, _ := NewService(newStubStore())
	c := openCard(t, svc)

	_, err := svc.Update(context.Background(), c.ID.String(), UpdateInput{Status: strp(StatusInvoiced)})
	require.Error(t, err)

	billID := uuid.NewString()
	c2, err := svc.Update(context.Background(), c.ID.String(), UpdateInput{
		Status: strp(StatusInvoiced),
		BillID: &billID,
	})
	require.NoError(t, err)
	require.Equal(t, StatusInvoiced, c2.Status)
	require.NotNil(t, c2.BillID)
}

func TestUpdateUnknownCard(t *testing.T) {
	svc, _ := NewService(newStubStore())

	_, err := svc.Update(context.Background(), uuid.NewString(), UpdateInput{Notes: strp("x")})
	require.Error(t, err)
	require.True(t, common.IsAppError(err))
}
