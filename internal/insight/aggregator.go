package insight

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"ward-assistant/internal/operator"
	"ward-assistant/internal/patient"
)

// PatternMatcher is the slice of the operator memory store the
// aggregator needs. Satisfied by *operator.Store.
type PatternMatcher interface {
	MatchPattern(p *operator.Profile, complaintText string) *operator.OrderPattern
}

// Aggregator merges per-patient engine output with learned operator
// patterns and ranks the result.
type Aggregator struct {
	matcher PatternMatcher
}

func NewAggregator(matcher PatternMatcher) *Aggregator {
	return &Aggregator{matcher: matcher}
}

// Aggregate recomputes the full suggestion feed. With a profile, each
// patient whose chief complaint matches a learned pattern (frequency
// ≥ 2) gains one personalized low-severity suggestion pre-filled with
// the operator's usual orders. Output is sorted high → medium → low,
// stable within a severity. Dismissal state is not consulted here.
func (a *Aggregator) Aggregate(patients []patient.Patient, profile *operator.Profile, now time.Time) []Suggestion {
	var out []Suggestion
	for _, p := range patients {
		out = append(out, Evaluate(p, now)...)
		if profile == nil || a.matcher == nil {
			continue
		}
		pat := a.matcher.MatchPattern(profile, p.File.ChiefComplaint)
		if pat == nil {
			continue
		}
		out = append(out, Suggestion{
			ID:               suggestionID(p.ID, "pattern", pat.ConditionKeyword),
			SubjectPatientID: p.ID,
			Category:         CategoryPattern,
			Severity:         SeverityLow,
			Message: fmt.Sprintf("For %q you usually order %s",
				pat.ConditionKeyword, strings.Join(pat.UsualOrderLabels, ", ")),
			SuggestedAction: &SuggestedAction{
				Kind:        "order",
				Label:       "Place usual orders",
				OrderLabels: append([]string(nil), pat.UsualOrderLabels...),
			},
			Personalized: true,
			CreatedAt:    now,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Rank() < out[j].Severity.Rank()
	})
	return out
}
