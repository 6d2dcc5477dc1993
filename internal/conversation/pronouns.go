package conversation

import (
	"fmt"
	"regexp"

	"ward-assistant/internal/patient"
)

type referenceKind int

const (
	refPatient referenceKind = iota
	refLab
)

type pronounPattern struct {
	re   *regexp.Regexp
	kind referenceKind
}

// Fixed reference patterns, checked in order. This is textual
// augmentation for the model prompt, not semantic parsing.
var pronounPatterns = []pronounPattern{
	{regexp.MustCompile(`(?i)\b(this|that|the)\s+patient\b`), refPatient},
	{regexp.MustCompile(`(?i)\b(he|she|they)\b`), refPatient},
	{regexp.MustCompile(`(?i)\b(him|her|them)\b`), refPatient},
	{regexp.MustCompile(`(?i)\bhis\b|\bhers\b|\btheir\b`), refPatient},
	{regexp.MustCompile(`(?i)\b(this|that|the)\s+(result|report|test|lab)s?\b`), refLab},
	{regexp.MustCompile(`(?i)\bit\b`), refLab},
}

// ResolvePronouns appends a bracketed disambiguation when the text
// contains a recognized reference. Patient references resolve to the
// focused patient, falling back to the last-mentioned one; lab
// references resolve to the most recent lab entity. Text without a
// match (or without an anchor to resolve against) passes through
// unchanged.
func (t *Tracker) ResolvePronouns(text string, roster []patient.Patient) string {
	for _, pp := range pronounPatterns {
		if !pp.re.MatchString(text) {
			continue
		}
		switch pp.kind {
		case refPatient:
			if name, id := t.patientAnchor(); name != "" {
				return fmt.Sprintf("%s [patient reference: %s, id %s]", text, name, id)
			}
		case refLab:
			if labs := t.ctx.RecentEntities[EntityLabTest]; len(labs) > 0 {
				return fmt.Sprintf("%s [lab reference: %s]", text, labs[0])
			}
		}
	}
	return text
}

func (t *Tracker) patientAnchor() (name, id string) {
	if t.ctx.FocusedPatientID != "" {
		return t.ctx.FocusedPatientName, t.ctx.FocusedPatientID
	}
	if t.ctx.LastMentionedPatientID != "" {
		return t.ctx.LastMentionedName, t.ctx.LastMentionedPatientID
	}
	return "", ""
}
