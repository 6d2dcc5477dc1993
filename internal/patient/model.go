package patient

import (
	"strings"
	"time"
)

// Status tracks where a patient is in the encounter lifecycle.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusInConsult Status = "in_consult"
	StatusFinished  Status = "finished"
)

// Vitals is the most recent vital-sign set recorded for a patient.
// A zero value for a metric means "not recorded".
type Vitals struct {
	SpO2        int       `json:"spo2"`
	SystolicBP  int       `json:"systolic_bp"`
	DiastolicBP int       `json:"diastolic_bp"`
	Pulse       int       `json:"pulse"`
	TempC       float64   `json:"temp_c"`
	RespRate    int       `json:"resp_rate"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// OrderStatus of a clinical order. The assistant core only ever creates
// drafts; every other transition belongs to the ordering system.
type OrderStatus string

const (
	OrderDraft     OrderStatus = "draft"
	OrderActive    OrderStatus = "active"
	OrderCompleted OrderStatus = "completed"
)

// Order is a clinical order attached to a patient.
type Order struct {
	ID          string      `json:"id"`
	Label       string      `json:"label"`
	Subtype     string      `json:"subtype"`
	Category    string      `json:"category"` // investigation, treatment
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// File holds the documented sections of the clinical file that the
// assistant inspects. Sections left blank by the clinician stay empty
// strings here; the insight engine treats blank and missing alike.
type File struct {
	ChiefComplaint string `json:"chief_complaint"`
	Allergies      string `json:"allergies"`
	Medications    string `json:"medications"`
	HistoryNotes   string `json:"history_notes"`
}

// Patient is a read-only snapshot from the roster provider. The core
// never mutates a snapshot; changes go through the order/note APIs.
type Patient struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Age              int       `json:"age"`
	Status           Status    `json:"status"`
	RegisteredAt     time.Time `json:"registered_at"`
	Vitals           *Vitals   `json:"vitals,omitempty"`
	File             File      `json:"file"`
	Orders           []Order   `json:"orders"`
	DischargeSummary string    `json:"discharge_summary"`
}

// FirstName returns the leading name token, used for roster matching.
func (p Patient) FirstName() string {
	fields := strings.Fields(p.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// HasCompletedLab reports whether any investigation order has finished.
func (p Patient) HasCompletedLab() bool {
	for _, o := range p.Orders {
		if o.Category == "investigation" && o.Status == OrderCompleted {
			return true
		}
	}
	return false
}

// MatchesName reports whether the query matches the patient by id or by
// a case-insensitive substring of the full name.
func (p Patient) MatchesName(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	if strings.EqualFold(p.ID, q) {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), q)
}
