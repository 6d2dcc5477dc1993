package patient

import "context"

// Roster provides read-only patient snapshots. Implementations live in
// the EMR layer; tests use in-memory fakes.
type Roster interface {
	Snapshot(ctx context.Context) ([]Patient, error)
}

// FindByText resolves a free-text reference (name fragment or id)
// against a roster snapshot. First match wins.
func FindByText(roster []Patient, query string) *Patient {
	for i := range roster {
		if roster[i].MatchesName(query) {
			return &roster[i]
		}
	}
	return nil
}
