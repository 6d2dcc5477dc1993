package emr

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ward-assistant/internal/patient"
)

// Orders is the order-creation collaborator backed by Postgres. Only
// drafts are accepted; anything else is rejected before it reaches the
// database.
type Orders struct {
	db *sql.DB
}

func NewOrders(db *sql.DB) *Orders {
	return &Orders{db: db}
}

func (o *Orders) AddOrder(ctx context.Context, patientID string, draft patient.Order) (patient.Order, error) {
	if draft.Status != patient.OrderDraft {
		return patient.Order{}, fmt.Errorf("refusing non-draft order %q", draft.Status)
	}
	if draft.ID == "" {
		draft.ID = uuid.New().String()
	}
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = time.Now()
	}
	_, err := o.db.ExecContext(ctx, `
		INSERT INTO orders (id, patient_id, label, subtype, category, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, draft.ID, patientID, draft.Label, draft.Subtype, draft.Category, draft.Status, draft.CreatedAt)
	if err != nil {
		return patient.Order{}, fmt.Errorf("insert draft order: %w", err)
	}
	return draft, nil
}
