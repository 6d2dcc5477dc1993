package insight

import "time"

// Severity orders suggestions high → medium → low.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

var severityRank = map[Severity]int{
	SeverityHigh:   0,
	SeverityMedium: 1,
	SeverityLow:    2,
}

// Rank returns the sort position of the severity; unknown values sort last.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// Category groups suggestions for the UI feed.
type Category string

const (
	CategoryVitals        Category = "vitals"
	CategoryDocumentation Category = "documentation"
	CategoryWaitTime      Category = "wait_time"
	CategoryWorkflow      Category = "workflow"
	CategoryPattern       Category = "pattern"
)

// SuggestedAction is the optional shortcut carried by a suggestion.
// The UI turns it into an executable action when the clinician accepts.
type SuggestedAction struct {
	Kind        string   `json:"kind"` // "order", "note", "navigate"
	Label       string   `json:"label"`
	OrderLabels []string `json:"order_labels,omitempty"`
	NoteText    string   `json:"note_text,omitempty"`
	Route       string   `json:"route,omitempty"`
}

// Suggestion is one candidate insight. Ids are deterministic per
// {patient, rule} so a full recomputation over unchanged input yields
// the same list.
type Suggestion struct {
	ID               string           `json:"id"`
	SubjectPatientID string           `json:"subject_patient_id"`
	Category         Category         `json:"category"`
	Severity         Severity         `json:"severity"`
	Message          string           `json:"message"`
	SuggestedAction  *SuggestedAction `json:"suggested_action,omitempty"`
	Personalized     bool             `json:"personalized"`
	CreatedAt        time.Time        `json:"created_at"`
}
