package insight

import (
	"fmt"
	"strings"
	"time"

	"ward-assistant/internal/patient"
)

// Clinical thresholds. Fixed; breaches yield exactly one suggestion per
// {patient, metric}.
const (
	spo2Critical  = 88
	spo2Low       = 92
	sbpHigh       = 180
	sbpLow        = 90
	pulseHigh     = 120
	pulseLow      = 50
	tempHigh      = 38.5
	respRateHigh  = 24
	waitThreshold = 45 * time.Minute
)

// Evaluate scores one patient snapshot against the static rules. Pure
// and idempotent: the same snapshot and clock always produce the same
// suggestions in the same order.
func Evaluate(p patient.Patient, now time.Time) []Suggestion {
	var out []Suggestion
	out = append(out, vitalsSuggestions(p, now)...)
	out = append(out, missingFieldSuggestions(p, now)...)
	out = append(out, timeSuggestions(p, now)...)
	return out
}

func vitalsSuggestions(p patient.Patient, now time.Time) []Suggestion {
	v := p.Vitals
	if v == nil {
		return nil
	}
	var out []Suggestion
	add := func(metric string, sev Severity, msg string) {
		out = append(out, Suggestion{
			ID:               suggestionID(p.ID, "vitals", metric),
			SubjectPatientID: p.ID,
			Category:         CategoryVitals,
			Severity:         sev,
			Message:          msg,
			CreatedAt:        now,
		})
	}

	if v.SpO2 > 0 {
		switch {
		case v.SpO2 < spo2Critical:
			add("spo2", SeverityHigh, fmt.Sprintf("%s: SpO2 critically low at %d%%", p.Name, v.SpO2))
		case v.SpO2 < spo2Low:
			add("spo2", SeverityMedium, fmt.Sprintf("%s: SpO2 low at %d%%", p.Name, v.SpO2))
		}
	}
	if v.SystolicBP > 0 {
		if v.SystolicBP > sbpHigh {
			add("sbp", SeverityHigh, fmt.Sprintf("%s: systolic BP high at %d mmHg", p.Name, v.SystolicBP))
		} else if v.SystolicBP < sbpLow {
			add("sbp", SeverityHigh, fmt.Sprintf("%s: systolic BP low at %d mmHg", p.Name, v.SystolicBP))
		}
	}
	if v.Pulse > 0 && (v.Pulse > pulseHigh || v.Pulse < pulseLow) {
		add("pulse", SeverityMedium, fmt.Sprintf("%s: pulse out of range at %d bpm", p.Name, v.Pulse))
	}
	if v.TempC > tempHigh {
		add("temp", SeverityMedium, fmt.Sprintf("%s: temperature elevated at %.1f°C", p.Name, v.TempC))
	}
	if v.RespRate > respRateHigh {
		add("resp", SeverityMedium, fmt.Sprintf("%s: respiratory rate elevated at %d/min", p.Name, v.RespRate))
	}
	return out
}

func missingFieldSuggestions(p patient.Patient, now time.Time) []Suggestion {
	var out []Suggestion

	if isBlank(p.File.Allergies) {
		out = append(out, Suggestion{
			ID:               suggestionID(p.ID, "documentation", "allergies"),
			SubjectPatientID: p.ID,
			Category:         CategoryDocumentation,
			Severity:         SeverityHigh,
			Message:          fmt.Sprintf("%s: allergy history not documented", p.Name),
			SuggestedAction: &SuggestedAction{
				Kind:     "note",
				Label:    "Mark no known drug allergies",
				NoteText: "No known drug allergies (NKDA).",
			},
			CreatedAt: now,
		})
	}
	if isBlank(p.File.Medications) {
		out = append(out, Suggestion{
			ID:               suggestionID(p.ID, "documentation", "medications"),
			SubjectPatientID: p.ID,
			Category:         CategoryDocumentation,
			Severity:         SeverityMedium,
			Message:          fmt.Sprintf("%s: current medications not documented", p.Name),
			CreatedAt:        now,
		})
	}
	if isBlank(p.File.ChiefComplaint) {
		out = append(out, Suggestion{
			ID:               suggestionID(p.ID, "documentation", "complaint"),
			SubjectPatientID: p.ID,
			Category:         CategoryDocumentation,
			Severity:         SeverityMedium,
			Message:          fmt.Sprintf("%s: chief complaint not documented", p.Name),
			CreatedAt:        now,
		})
	}
	return out
}

func timeSuggestions(p patient.Patient, now time.Time) []Suggestion {
	var out []Suggestion

	if p.Status == patient.StatusWaiting && !p.RegisteredAt.IsZero() &&
		now.Sub(p.RegisteredAt) > waitThreshold && !p.HasCompletedLab() {
		out = append(out, Suggestion{
			ID:               suggestionID(p.ID, "wait", "registration"),
			SubjectPatientID: p.ID,
			Category:         CategoryWaitTime,
			Severity:         SeverityMedium,
			Message: fmt.Sprintf("%s waiting %d min with no completed investigations",
				p.Name, int(now.Sub(p.RegisteredAt).Minutes())),
			CreatedAt: now,
		})
	}
	if p.Status == patient.StatusFinished && isBlank(p.DischargeSummary) {
		out = append(out, Suggestion{
			ID:               suggestionID(p.ID, "workflow", "discharge"),
			SubjectPatientID: p.ID,
			Category:         CategoryWorkflow,
			Severity:         SeverityMedium,
			Message:          fmt.Sprintf("%s: encounter finished without a discharge summary", p.Name),
			CreatedAt:        now,
		})
	}
	return out
}

func suggestionID(patientID, group, metric string) string {
	return fmt.Sprintf("%s-%s-%s", patientID, group, metric)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
