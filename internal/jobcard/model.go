package jobcard

import (
	"time"

	"github.com/google/uuid"
)

// Job card statuses, in lifecycle order.
const (
	StatusOpen       = "OPEN"
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
	StatusInvoiced   = "INVOICED"
)

var statusRank = map[string]int{
	StatusOpen:       0,
	StatusInProgress: 1,
	StatusDone:       2,
	StatusInvoiced:   3,
}

// CanTransition reports whether a card may move from one status to the
// next. Only forward moves are allowed, one or more steps at a time.
func CanTransition(from, to string) bool {
	a, okA := statusRank[from]
	b, okB := statusRank[to]
	return okA && okB && b > a
}

// Card is a vehicle-service job card. BillID is set when the finished work
// is invoiced through billing.
type Card struct {
	ID            uuid.UUID  `json:"id"`
	Number        int64      `json:"jobNo"`
	CustomerName  string     `json:"customerName"`
	CustomerPhone string     `json:"customerPhone,omitempty"`
	VehicleNo     string     `json:"vehicleNo"`
	VehicleModel  string     `json:"vehicleModel,omitempty"`
	Complaint     string     `json:"complaint"`
	Notes         string     `json:"notes,omitempty"`
	Status        string     `json:"status"`
	BillID        *uuid.UUID `json:"billId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}
