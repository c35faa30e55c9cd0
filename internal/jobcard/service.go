package jobcard

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-kasir/internal/common"
)

type store interface {
	Insert(ctx context.Context, c Card) (Card, error)
	Update(ctx context.Context, c Card) (Card, error)
	GetByID(ctx context.Context, id uuid.UUID) (Card, error)
	List(ctx context.Context, f ListFilter) ([]Card, error)
}

// Service manages the job card lifecycle.
type Service struct {
	store store
}

// NewService constructs a Service instance.
func NewService(st store) (*Service, error) {
	if st == nil {
		return nil, errors.New("jobcard: store is required")
	}
	return &Service{store: st}, nil
}

// CreateInput opens a new card.
type CreateInput struct {
	CustomerName  string `json:"customerName" validate:"required,max=200"`
	CustomerPhone string `json:"customerPhone" validate:"max=20"`
	VehicleNo     string `json:"vehicleNo" validate:"required,max=20"`
	VehicleModel  string `json:"vehicleModel" validate:"max=100"`
	Complaint     string `json:"complaint" validate:"required,max=2000"`
	Notes         string `json:"notes" validate:"max=2000"`
}

// UpdateInput moves a card forward. Nil fields are left untouched.
type UpdateInput struct {
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=OPEN IN_PROGRESS DONE INVOICED"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
	BillID *string `json:"billId,omitempty" validate:"omitempty,uuid"`
}

// Open creates a card in OPEN state.
func (s *Service) Open(ctx context.Context, in CreateInput) (Card, error) {
	return s.store.Insert(ctx, Card{
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		VehicleNo:     in.VehicleNo,
		VehicleModel:  in.VehicleModel,
		Complaint:     in.Complaint,
		Notes:         in.Notes,
	})
}

// Update applies notes, a status move, or a bill link. Status can only move
// forward; linking a bill is required to reach INVOICED.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Card, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Card{}, common.BadRequest("id", "invalid job card id", err)
	}
	current, err := s.store.GetByID(ctx, uid)
	if errors.Is(err, ErrNotFound) {
		return Card{}, common.NotFound("job card not found", err)
	}
	if err != nil {
		return Card{}, err
	}

	if in.Notes != nil {
		current.Notes = *in.Notes
	}
	if in.BillID != nil {
		bid, err := uuid.Parse(*in.BillID)
		if err != nil {
			return Card{}, common.BadRequest("billId", "invalid bill id", err)
		}
		current.BillID = &bid
	}
	if in.Status != nil && *in.Status != current.Status {
		if !CanTransition(current.Status, *in.Status) {
			return Card{}, common.Conflict(
				fmt.Sprintf("cannot move job card from %s to %s", current.Status, *in.Status), nil)
		}
		if *in.Status == StatusInvoiced && current.BillID == nil {
			return Card{}, common.BadRequest("billId", "a bill link is required to invoice a job card", nil)
		}
		current.Status = *in.Status
	}

	updated, err := s.store.Update(ctx, current)
	if errors.Is(err, ErrNotFound) {
		return Card{}, common.NotFound("job card not found", err)
	}
	return updated, err
}

// ListParams captures filters for the cursor-paginated card listing.
type ListParams struct {
	Status string
	Cursor common.Cursor
}

// ListResult pairs the page with its pagination metadata.
type ListResult struct {
	Items []Card
	Meta  common.PageMeta
}

// List returns one keyset page of cards, newest first.
func (s *Service) List(ctx context.Context, params ListParams) (ListResult, error) {
	limit := params.Cursor.Limit
	if limit <= 0 {
		limit = common.DefaultPageSize
	}
	var lastNo int64
	if params.Cursor.LastKey != "" {
		n, err := strconv.ParseInt(params.Cursor.LastKey, 10, 64)
		if err != nil {
			return ListResult{}, common.BadRequest("lastKey", "invalid cursor", err)
		}
		lastNo = n
	}

	rows, err := s.store.List(ctx, ListFilter{Status: params.Status, LastNo: lastNo, Limit: limit})
	if err != nil {
		return ListResult{}, fmt.Errorf("list job cards: %w", err)
	}
	result := ListResult{Items: rows, Meta: common.PageMeta{Limit: limit}}
	if len(rows) > limit {
		result.Items = rows[:limit]
		result.Meta.HasMore = true
	}
	if n := len(result.Items); n > 0 {
		result.Meta.LastKey = strconv.FormatInt(result.Items[n-1].Number, 10)
	}
	return result, nil
}
