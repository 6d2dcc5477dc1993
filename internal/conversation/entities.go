package conversation

import (
	"strings"

	"ward-assistant/internal/patient"
)

// Static keyword lists scanned during entity extraction. Matching is
// deterministic substring containment; real understanding is left to
// the model downstream.
var (
	labKeywords = []string{
		"cbc", "complete blood count", "lft", "liver function",
		"rft", "renal function", "electrolytes", "blood culture",
		"urine culture", "troponin", "d-dimer", "crp", "esr",
		"blood sugar", "hba1c", "abg", "urinalysis", "coagulation",
	}
	conditionKeywords = []string{
		"fever", "chest pain", "shortness of breath", "breathlessness",
		"headache", "abdominal pain", "vomiting", "diarrhea", "seizure",
		"stroke", "sepsis", "pneumonia", "asthma", "copd", "diabetes",
		"hypertension", "fracture", "trauma", "allergy", "rash",
	}
	medicationKeywords = []string{
		"paracetamol", "ibuprofen", "aspirin", "metformin", "insulin",
		"amoxicillin", "azithromycin", "ceftriaxone", "salbutamol",
		"atorvastatin", "omeprazole", "pantoprazole", "morphine",
		"adrenaline", "heparin", "warfarin", "furosemide",
	}
)

// ConditionKeyword returns the first known condition keyword contained
// in the text, falling back to the first word. Used to key learned
// order patterns off a documented complaint.
func ConditionKeyword(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return ""
	}
	for _, kw := range conditionKeywords {
		if strings.Contains(lower, kw) {
			return kw
		}
	}
	return strings.Fields(lower)[0]
}

// ExtractEntities scans free text against the roster and the static
// keyword lists. Every hit registers the entity in its bucket and
// pushes a lowercase topic. Patient-name hits also update the
// last-mentioned anchor.
func (t *Tracker) ExtractEntities(text string, roster []patient.Patient) {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return
	}

	for i := range roster {
		p := &roster[i]
		full := strings.ToLower(p.Name)
		first := strings.ToLower(p.FirstName())
		if (full != "" && strings.Contains(lower, full)) ||
			(first != "" && strings.Contains(lower, first)) {
			t.ctx.LastMentionedPatientID = p.ID
			t.ctx.LastMentionedName = p.Name
			t.registerEntity(EntityName, p.Name)
			t.pushTopic(p.Name)
		}
	}

	scan := func(cat EntityCategory, keywords []string) {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				t.registerEntity(cat, kw)
				t.pushTopic(kw)
			}
		}
	}
	scan(EntityLabTest, labKeywords)
	scan(EntityCondition, conditionKeywords)
	scan(EntityMedication, medicationKeywords)
}
