package session

import (
	"context"
	"sort"
	"strings"
)

// PaletteMatch is one ranked command-palette entry.
type PaletteMatch struct {
	Kind  string `json:"kind"`  // "command" or "patient"
	Label string `json:"label"` // display text
	Value string `json:"value"` // text to execute / patient id
	Score int    `json:"score"`
}

// paletteCommands are the static verbs offered by the palette; patient
// entries come from the roster.
var paletteCommands = []struct{ label, value string }{
	{"Order CBC", "order cbc"},
	{"Order LFT", "order lft"},
	{"Order troponin", "order troponin"},
	{"Chest X-ray", "chest x-ray"},
	{"ECG", "order ecg"},
	{"Start oxygen", "start o2"},
	{"IV fluids", "iv fluids"},
	{"Sepsis workup", "sepsis workup"},
	{"Chest pain workup", "chest pain workup"},
	{"Add note", "note: "},
	{"Escalate", "escalate: "},
	{"Open dashboard", "open dashboard"},
	{"Open bed board", "open beds"},
	{"Open insights", "open insights"},
}

// PaletteQuery returns ranked matches for a palette query: prefix hits
// above word-boundary hits above plain substrings, commands and roster
// names interleaved by score.
func (s *Session) PaletteQuery(ctx context.Context, query string) []PaletteMatch {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var out []PaletteMatch
	for _, c := range paletteCommands {
		if score := matchScore(strings.ToLower(c.label), q); score > 0 {
			out = append(out, PaletteMatch{Kind: "command", Label: c.label, Value: c.value, Score: score})
		}
	}
	for _, p := range s.snapshot(ctx) {
		if score := matchScore(strings.ToLower(p.Name), q); score > 0 {
			out = append(out, PaletteMatch{Kind: "patient", Label: p.Name, Value: p.ID, Score: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func matchScore(candidate, query string) int {
	switch {
	case strings.HasPrefix(candidate, query):
		return 3
	case strings.Contains(candidate, " "+query):
		return 2
	case strings.Contains(candidate, query):
		return 1
	default:
		return 0
	}
}
