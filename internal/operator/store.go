package operator

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Repository persists operator profiles. Implementations must upsert.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
}

// notFoundError is returned by repositories when no profile exists yet;
// construct it with NotFound and detect it with IsNotFound.
type notFoundError struct{ id string }

func (e notFoundError) Error() string { return "operator profile not found: " + e.id }

// NotFound builds the sentinel used by repository implementations.
func NotFound(id string) error { return notFoundError{id: id} }

// IsNotFound reports whether err means "no profile yet".
func IsNotFound(err error) bool {
	_, ok := err.(notFoundError)
	return ok
}

// Store is the operator memory store. Every mutation is write-through:
// the in-memory profile is updated synchronously and then persisted.
// Persistence failures are logged and otherwise ignored; the session
// keeps working on the in-memory copy.
type Store struct {
	repo     Repository
	log      zerolog.Logger
	profiles map[string]*Profile
}

func NewStore(repo Repository, log zerolog.Logger) *Store {
	return &Store{
		repo:     repo,
		log:      log.With().Str("component", "operator-store").Logger(),
		profiles: make(map[string]*Profile),
	}
}

// GetOrCreate loads the profile for an operator, creating it lazily on
// first use.
func (s *Store) GetOrCreate(ctx context.Context, id, name, contact string) *Profile {
	if p, ok := s.profiles[id]; ok {
		return p
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil && !IsNotFound(err) {
		s.log.Error().Err(err).Str("operator", id).Msg("profile load failed, starting in-memory")
	}
	if p == nil {
		p = &Profile{
			ID:      id,
			Name:    name,
			Contact: contact,
			Session: SessionStats{StartedAt: time.Now()},
		}
		s.persist(ctx, p)
	}
	if p.Session.PatientsSeen == nil {
		p.restoreSeenSet()
	}
	if p.Session.StartedAt.IsZero() {
		p.Session.StartedAt = time.Now()
	}
	s.profiles[id] = p
	return p
}

// LearnOrderPattern records that an order followed a documented
// condition. A keyword already known (case-insensitively) gets its
// frequency bumped and the label appended if novel; otherwise a new
// pattern starts at frequency 1.
func (s *Store) LearnOrderPattern(ctx context.Context, p *Profile, keyword, orderLabel string) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" || orderLabel == "" {
		return
	}
	now := time.Now()
	for i := range p.Preferences.OrderPatterns {
		pat := &p.Preferences.OrderPatterns[i]
		if !strings.EqualFold(pat.ConditionKeyword, keyword) {
			continue
		}
		pat.FrequencyCount++
		pat.LastUsedAt = now
		if !containsLabel(pat.UsualOrderLabels, orderLabel) {
			pat.UsualOrderLabels = append(pat.UsualOrderLabels, orderLabel)
		}
		s.persist(ctx, p)
		return
	}
	p.Preferences.OrderPatterns = append(p.Preferences.OrderPatterns, OrderPattern{
		ConditionKeyword: strings.ToLower(keyword),
		UsualOrderLabels: []string{orderLabel},
		FrequencyCount:   1,
		LastUsedAt:       now,
	})
	s.persist(ctx, p)
}

// MatchPattern returns the first stored pattern whose keyword is a
// substring of the complaint and whose frequency is at least 2.
func (s *Store) MatchPattern(p *Profile, complaintText string) *OrderPattern {
	complaint := strings.ToLower(complaintText)
	if strings.TrimSpace(complaint) == "" {
		return nil
	}
	for i := range p.Preferences.OrderPatterns {
		pat := &p.Preferences.OrderPatterns[i]
		if pat.FrequencyCount < 2 {
			continue
		}
		if strings.Contains(complaint, strings.ToLower(pat.ConditionKeyword)) {
			return pat
		}
	}
	return nil
}

// RecordAccepted notes that a surfaced suggestion was taken up.
func (s *Store) RecordAccepted(ctx context.Context, p *Profile) {
	p.History.AcceptedCount++
	p.History.TotalInteractions++
	s.persist(ctx, p)
}

// RecordRejected notes a dismissal, with an optional reason.
func (s *Store) RecordRejected(ctx context.Context, p *Profile, reason string) {
	p.History.RejectedCount++
	p.History.TotalInteractions++
	if reason != "" {
		p.History.DismissalReasons = append(p.History.DismissalReasons, reason)
	}
	s.persist(ctx, p)
}

// RecordPatientSeen adds a patient to the session's seen set.
func (s *Store) RecordPatientSeen(ctx context.Context, p *Profile, patientID string) {
	if p.Session.PatientsSeen == nil {
		p.Session.PatientsSeen = make(map[string]struct{})
	}
	if _, ok := p.Session.PatientsSeen[patientID]; ok {
		return
	}
	p.Session.PatientsSeen[patientID] = struct{}{}
	s.persist(ctx, p)
}

func (s *Store) persist(ctx context.Context, p *Profile) {
	p.UpdatedAt = time.Now()
	p.syncSeenIDs()
	if err := s.repo.Save(ctx, p); err != nil {
		s.log.Error().Err(err).Str("operator", p.ID).Msg("profile persist failed, continuing in-memory")
	}
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if strings.EqualFold(l, label) {
			return true
		}
	}
	return false
}
