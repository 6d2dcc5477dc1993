package emr

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"ward-assistant/internal/patient"
)

// PostgresRoster provides read-only patient snapshots from the
// patients table. The assistant core never writes through this path.
type PostgresRoster struct {
	db *sql.DB
}

func NewPostgresRoster(db *sql.DB) *PostgresRoster {
	return &PostgresRoster{db: db}
}

func (r *PostgresRoster) Snapshot(ctx context.Context) ([]patient.Patient, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, age, status, registered_at, vitals, file, discharge_summary
		FROM patients
		ORDER BY registered_at
	`)
	if err != nil {
		return nil, fmt.Errorf("roster snapshot: %w", err)
	}
	defer rows.Close()

	var out []patient.Patient
	for rows.Next() {
		var (
			p          patient.Patient
			vitalsJSON []byte
			fileJSON   []byte
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Age, &p.Status, &p.RegisteredAt,
			&vitalsJSON, &fileJSON, &p.DischargeSummary); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		if len(vitalsJSON) > 0 {
			var v patient.Vitals
			if err := json.Unmarshal(vitalsJSON, &v); err != nil {
				return nil, fmt.Errorf("unmarshal vitals for %s: %w", p.ID, err)
			}
			p.Vitals = &v
		}
		if len(fileJSON) > 0 {
			if err := json.Unmarshal(fileJSON, &p.File); err != nil {
				return nil, fmt.Errorf("unmarshal file for %s: %w", p.ID, err)
			}
		}
		orders, err := r.ordersFor(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.Orders = orders
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRoster) ordersFor(ctx context.Context, patientID string) ([]patient.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, label, subtype, category, status, created_at, completed_at
		FROM orders WHERE patient_id = $1
		ORDER BY created_at
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("orders for %s: %w", patientID, err)
	}
	defer rows.Close()

	var out []patient.Order
	for rows.Next() {
		var o patient.Order
		if err := rows.Scan(&o.ID, &o.Label, &o.Subtype, &o.Category, &o.Status,
			&o.CreatedAt, &o.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
