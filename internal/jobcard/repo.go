package jobcard

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested job card does not exist.
var ErrNotFound = errors.New("jobcard: not found")

// Repo persists job cards against PostgreSQL.
type Repo struct {
	Pool *pgxpool.Pool
}

const cardColumns = `id, job_no, customer_name, customer_phone, vehicle_no,
	vehicle_model, complaint, notes, status, bill_id, created_at, updated_at`

func scanCard(row pgx.Row) (Card, error) {
	var c Card
	err := row.Scan(&c.ID, &c.Number, &c.CustomerName, &c.CustomerPhone,
		&c.VehicleNo, &c.VehicleModel, &c.Complaint, &c.Notes, &c.Status,
		&c.BillID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Insert creates a new card in OPEN state.
func (r Repo) Insert(ctx context.Context, c Card) (Card, error) {
	row := r.Pool.QueryRow(ctx, `
		INSERT INTO job_cards (id, customer_name, customer_phone, vehicle_no,
			vehicle_model, complaint, notes, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING `+cardColumns,
		uuid.New(), c.CustomerName, c.CustomerPhone, c.VehicleNo,
		c.VehicleModel, c.Complaint, c.Notes, StatusOpen)
	created, err := scanCard(row)
	if err != nil {
		return Card{}, fmt.Errorf("insert job card: %w", err)
	}
	return created, nil
}

// Update writes the mutable fields of a card.
func (r Repo) Update(ctx context.Context, c Card) (Card, error) {
	row := r.Pool.QueryRow(ctx, `
		UPDATE job_cards SET
			notes = $2, status = $3, bill_id = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+cardColumns,
		c.ID, c.Notes, c.Status, c.BillID)
	updated, err := scanCard(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Card{}, ErrNotFound
	}
	if err != nil {
		return Card{}, fmt.Errorf("update job card: %w", err)
	}
	return updated, nil
}

// GetByID fetches one card.
func (r Repo) GetByID(ctx context.Context, id uuid.UUID) (Card, error) {
	c, err := scanCard(r.Pool.QueryRow(ctx,
		`SELECT `+cardColumns+` FROM job_cards WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Card{}, ErrNotFound
	}
	if err != nil {
		return Card{}, fmt.Errorf("get job card: %w", err)
	}
	return c, nil
}

// ListFilter narrows the card listing. LastNo is the keyset cursor over the
// descending job number.
type ListFilter struct {
	Status string
	LastNo int64
	Limit  int
}

// List returns up to Limit+1 cards, newest first.
func (r Repo) List(ctx context.Context, f ListFilter) ([]Card, error) {
	q := `SELECT ` + cardColumns + ` FROM job_cards WHERE 1=1`
	args := []any{}
	n := 0
	if f.LastNo > 0 {
		n++
		q += fmt.Sprintf(" AND job_no < $%d", n)
		args = append(args, f.LastNo)
	}
	if f.Status != "" {
		n++
		q += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, f.Status)
	}
	n++
	q += fmt.Sprintf(" ORDER BY job_no DESC LIMIT $%d", n)
	args = append(args, f.Limit+1)

	rows, err := r.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list job cards: %w", err)
	}
	defer rows.Close()

	var out []Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job card: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
