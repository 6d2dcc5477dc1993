package emr

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EscalationReporter forwards escalation notes to the duty doctor.
// Implemented by the report service; nil disables forwarding.
type EscalationReporter interface {
	SendEscalation(ctx context.Context, patientID, text string) error
}

// Notes is the note-append collaborator backed by Postgres. Escalation
// notes additionally fan out to the reporter; reporter failure is
// logged and does not fail the note.
type Notes struct {
	db       *sql.DB
	reporter EscalationReporter
	log      zerolog.Logger
}

func NewNotes(db *sql.DB, reporter EscalationReporter, log zerolog.Logger) *Notes {
	return &Notes{
		db:       db,
		reporter: reporter,
		log:      log.With().Str("component", "notes").Logger(),
	}
}

func (n *Notes) AddNote(ctx context.Context, patientID, text string, isEscalation bool) error {
	_, err := n.db.ExecContext(ctx, `
		INSERT INTO notes (id, patient_id, text, is_escalation, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New().String(), patientID, text, isEscalation, time.Now())
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	if isEscalation && n.reporter != nil {
		if err := n.reporter.SendEscalation(ctx, patientID, text); err != nil {
			n.log.Error().Err(err).Str("patient", patientID).Msg("escalation report failed")
		}
	}
	return nil
}
