package operator

import "time"

// OrderPattern is a learned association between a condition keyword and
// the orders an operator habitually places for it. Patterns only drive
// suggestions once FrequencyCount reaches 2.
type OrderPattern struct {
	ConditionKeyword string    `json:"condition_keyword"`
	UsualOrderLabels []string  `json:"usual_order_labels"`
	FrequencyCount   int       `json:"frequency_count"`
	LastUsedAt       time.Time `json:"last_used_at"`
}

// Preferences holds learned habits and UI settings.
type Preferences struct {
	OrderPatterns []OrderPattern    `json:"order_patterns"`
	UIPrefs       map[string]string `json:"ui_prefs,omitempty"`
}

// History accumulates interaction statistics over the profile lifetime.
type History struct {
	AcceptedCount     int      `json:"accepted_count"`
	RejectedCount     int      `json:"rejected_count"`
	DismissalReasons  []string `json:"dismissal_reasons,omitempty"`
	TotalInteractions int      `json:"total_interactions"`
}

// SessionStats tracks the current working session.
type SessionStats struct {
	StartedAt    time.Time           `json:"started_at"`
	PatientsSeen map[string]struct{} `json:"-"`
	// SeenIDs is the serialized form of PatientsSeen.
	SeenIDs []string `json:"patients_seen"`
}

// Profile is the per-operator memory record. One per operator, created
// lazily, persisted on every mutation.
type Profile struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Contact     string       `json:"contact"`
	Preferences Preferences  `json:"preferences"`
	History     History      `json:"history"`
	Session     SessionStats `json:"session"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// AcceptanceRate is the share of surfaced suggestions the operator
// accepted. Zero interactions yields 0.
func (p *Profile) AcceptanceRate() float64 {
	total := p.History.AcceptedCount + p.History.RejectedCount
	if total == 0 {
		return 0
	}
	return float64(p.History.AcceptedCount) / float64(total)
}

func (p *Profile) syncSeenIDs() {
	p.Session.SeenIDs = p.Session.SeenIDs[:0]
	for id := range p.Session.PatientsSeen {
		p.Session.SeenIDs = append(p.Session.SeenIDs, id)
	}
}

func (p *Profile) restoreSeenSet() {
	p.Session.PatientsSeen = make(map[string]struct{}, len(p.Session.SeenIDs))
	for _, id := range p.Session.SeenIDs {
		p.Session.PatientsSeen[id] = struct{}{}
	}
}
