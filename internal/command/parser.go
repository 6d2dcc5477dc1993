package command

import (
	"regexp"
	"strings"

	"ward-assistant/internal/patient"
)

// orderPattern maps a clinical-order phrase to its typed order fields.
type orderPattern struct {
	re       *regexp.Regexp
	subtype  string
	category string
	label    string
}

// Ordered pattern table; first match wins, so more specific phrases sit
// above the generic ones.
var orderPatterns = []orderPattern{
	{regexp.MustCompile(`(?i)\b(order\s+(a\s+)?)?cbc\b`), "cbc", "investigation", "CBC"},
	{regexp.MustCompile(`(?i)\bcomplete blood count\b`), "cbc", "investigation", "CBC"},
	{regexp.MustCompile(`(?i)\blft\b|\bliver function\b`), "lft", "investigation", "LFT"},
	{regexp.MustCompile(`(?i)\brft\b|\brenal function\b`), "rft", "investigation", "RFT"},
	{regexp.MustCompile(`(?i)\btroponin\b`), "troponin", "investigation", "Troponin"},
	{regexp.MustCompile(`(?i)\bblood culture\b`), "blood-culture", "investigation", "Blood culture"},
	{regexp.MustCompile(`(?i)\b(chest\s+)?x-?ray\b`), "chest-xray", "investigation", "Chest X-ray"},
	{regexp.MustCompile(`(?i)\becg\b|\belectrocardiogram\b`), "ecg", "investigation", "ECG"},
	{regexp.MustCompile(`(?i)\babg\b`), "abg", "investigation", "ABG"},
	{regexp.MustCompile(`(?i)\bbipap\b`), "bipap", "treatment", "BiPAP"},
	{regexp.MustCompile(`(?i)\bstart\s+o2\b|\boxygen\b`), "oxygen", "treatment", "Oxygen"},
	{regexp.MustCompile(`(?i)\biv\s+fluids?\b`), "iv-fluids", "treatment", "IV fluids"},
	{regexp.MustCompile(`(?i)\bnebuliz(e|ation|er)\b`), "nebulization", "treatment", "Nebulization"},
}

type workflowPattern struct {
	re   *regexp.Regexp
	name string
}

var workflowPatterns = []workflowPattern{
	{regexp.MustCompile(`(?i)\bsepsis\s+(workup|bundle|protocol)\b`), "sepsis-workup"},
	{regexp.MustCompile(`(?i)\bchest\s+pain\s+(workup|protocol)\b`), "chest-pain-workup"},
	{regexp.MustCompile(`(?i)\bstroke\s+(workup|protocol|code)\b`), "stroke-workup"},
}

type navPattern struct {
	re    *regexp.Regexp
	route string
	label string
}

var navPatterns = []navPattern{
	{regexp.MustCompile(`(?i)\b(open|show|go to)\s+(the\s+)?dashboard\b`), "/dashboard", "Dashboard"},
	{regexp.MustCompile(`(?i)\b(open|show|go to)\s+(the\s+)?(bed\s+board|beds)\b`), "/beds", "Bed board"},
	{regexp.MustCompile(`(?i)\b(open|show|go to)\s+(the\s+)?(orders|order list)\b`), "/orders", "Orders"},
	{regexp.MustCompile(`(?i)\b(open|show|go to)\s+(the\s+)?insights?\b`), "/insights", "Insights"},
}

var (
	noteRe        = regexp.MustCompile(`(?i)^\s*(add\s+)?note[:\s]\s*(.+)$`)
	escalateRe    = regexp.MustCompile(`(?i)^\s*escalate[:\s]\s*(.+)$`)
	openPatientRe = regexp.MustCompile(`(?i)^\s*(open|pull up|show)\s+(.+?)\s*$`)
)

// Parse maps free text to a typed action. nil means "no matching
// action" and the caller falls back to free-form chat. Matching is
// deterministic: the tables are scanned in declaration order and the
// first hit wins.
func Parse(text string, focused *patient.Patient, roster []patient.Patient) *Action {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	if m := escalateRe.FindStringSubmatch(trimmed); m != nil {
		if focused == nil {
			return nil
		}
		return &Action{Kind: KindNote, Note: &NoteAction{
			PatientID:    focused.ID,
			Text:         m[1],
			IsEscalation: true,
		}}
	}
	if m := noteRe.FindStringSubmatch(trimmed); m != nil {
		if focused == nil {
			return nil
		}
		return &Action{Kind: KindNote, Note: &NoteAction{
			PatientID: focused.ID,
			Text:      m[2],
		}}
	}

	for _, wp := range workflowPatterns {
		if wp.re.MatchString(trimmed) {
			wf := &WorkflowAction{Name: wp.name}
			if focused != nil {
				wf.PatientID = focused.ID
			}
			return &Action{Kind: KindWorkflow, Workflow: wf}
		}
	}

	for _, op := range orderPatterns {
		if !op.re.MatchString(trimmed) {
			continue
		}
		subject := orderSubject(trimmed, focused, roster)
		if subject == nil {
			return nil
		}
		return &Action{Kind: KindOrder, Order: &OrderAction{
			PatientID:   subject.ID,
			PatientName: subject.Name,
			Subtype:     op.subtype,
			Category:    op.category,
			Label:       op.label,
		}}
	}

	for _, np := range navPatterns {
		if np.re.MatchString(trimmed) {
			return &Action{Kind: KindNavigate, Navigate: &NavigateAction{
				Route: np.route,
				Label: np.label,
			}}
		}
	}

	// "open <name or id>" against the roster, after the fixed routes so
	// "open dashboard" never reaches the name lookup.
	if m := openPatientRe.FindStringSubmatch(trimmed); m != nil {
		if p := patient.FindByText(roster, m[2]); p != nil {
			return &Action{Kind: KindNavigate, Navigate: &NavigateAction{
				Route: "/patients/" + p.ID,
				Label: p.Name,
			}}
		}
	}

	return nil
}

// orderSubject picks the target of an order: the focused patient, else
// a patient named in the text.
func orderSubject(text string, focused *patient.Patient, roster []patient.Patient) *patient.Patient {
	if focused != nil {
		return focused
	}
	lower := strings.ToLower(text)
	for i := range roster {
		p := &roster[i]
		full := strings.ToLower(p.Name)
		first := strings.ToLower(p.FirstName())
		if (full != "" && strings.Contains(lower, full)) ||
			(first != "" && strings.Contains(lower, first)) {
			return p
		}
	}
	return nil
}
