package operator

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ward-assistant/internal/kv"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(NewKVRepository(kv.NewMemory()), zerolog.Nop())
}

func TestGetOrCreateIsLazyAndStable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := s.GetOrCreate(ctx, "op-1", "Dr. Rao", "rao@ward.example")
	require.NotNil(t, p)
	assert.Equal(t, "op-1", p.ID)
	assert.False(t, p.Session.StartedAt.IsZero())

	again := s.GetOrCreate(ctx, "op-1", "", "")
	assert.Same(t, p, again)
}

func TestLearnOrderPatternDeduplicatesLabels(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := s.GetOrCreate(ctx, "op-1", "Dr. Rao", "")

	s.LearnOrderPattern(ctx, p, "fever", "CBC")
	s.LearnOrderPattern(ctx, p, "Fever", "LFT")
	s.LearnOrderPattern(ctx, p, "FEVER", "CBC")

	require.Len(t, p.Preferences.OrderPatterns, 1)
	pat := p.Preferences.OrderPatterns[0]
	assert.Equal(t, 3, pat.FrequencyCount)
	assert.Equal(t, []string{"CBC", "LFT"}, pat.UsualOrderLabels)
}

func TestMatchPatternRequiresFrequencyTwo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := s.GetOrCreate(ctx, "op-1", "Dr. Rao", "")

	s.LearnOrderPattern(ctx, p, "chest pain", "ECG")
	assert.Nil(t, s.MatchPattern(p, "patient has chest pain"), "frequency 1 must not match")

	s.LearnOrderPattern(ctx, p, "chest pain", "Troponin")
	got := s.MatchPattern(p, "acute Chest Pain since morning")
	require.NotNil(t, got)
	assert.Equal(t, 2, got.FrequencyCount)
}

func TestMatchPatternIsFirstMatchNotBestMatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := s.GetOrCreate(ctx, "op-1", "Dr. Rao", "")

	s.LearnOrderPattern(ctx, p, "pain", "Paracetamol")
	s.LearnOrderPattern(ctx, p, "pain", "Paracetamol")
	s.LearnOrderPattern(ctx, p, "chest pain", "ECG")
	s.LearnOrderPattern(ctx, p, "chest pain", "ECG")

	got := s.MatchPattern(p, "chest pain on exertion")
	require.NotNil(t, got)
	assert.Equal(t, "pain", got.ConditionKeyword)
}

func TestMatchPatternLearnedViaStoreMatchesFreeText(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := s.GetOrCreate(ctx, "op-1", "Dr. Rao", "")

	for i := 0; i < 3; i++ {
		s.LearnOrderPattern(ctx, p, "fever", "CBC")
	}
	s.LearnOrderPattern(ctx, p, "fever", "LFT")

	got := s.MatchPattern(p, "patient has fever")
	require.NotNil(t, got)
	assert.Equal(t, 4, got.FrequencyCount)
	assert.Equal(t, []string{"CBC", "LFT"}, got.UsualOrderLabels)
}

func TestAcceptanceRate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := s.GetOrCreate(ctx, "op-1", "Dr. Rao", "")

	assert.Zero(t, p.AcceptanceRate())

	s.RecordAccepted(ctx, p)
	s.RecordAccepted(ctx, p)
	s.RecordAccepted(ctx, p)
	s.RecordRejected(ctx, p, "not relevant")

	assert.InDelta(t, 0.75, p.AcceptanceRate(), 1e-9)
	assert.Equal(t, 4, p.History.TotalInteractions)
	assert.Equal(t, []string{"not relevant"}, p.History.DismissalReasons)
}

func TestRecordPatientSeenDeduplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := s.GetOrCreate(ctx, "op-1", "Dr. Rao", "")

	s.RecordPatientSeen(ctx, p, "pt-1")
	s.RecordPatientSeen(ctx, p, "pt-1")
	s.RecordPatientSeen(ctx, p, "pt-2")

	assert.Len(t, p.Session.PatientsSeen, 2)
}

func TestProfileRoundTripsThroughRepository(t *testing.T) {
	mem := kv.NewMemory()
	repo := NewKVRepository(mem)
	s := NewStore(repo, zerolog.Nop())
	ctx := context.Background()

	p := s.GetOrCreate(ctx, "op-1", "Dr. Rao", "rao@ward.example")
	s.LearnOrderPattern(ctx, p, "fever", "CBC")
	s.RecordPatientSeen(ctx, p, "pt-9")

	// A fresh store backed by the same kv must see the persisted state.
	s2 := NewStore(repo, zerolog.Nop())
	p2 := s2.GetOrCreate(ctx, "op-1", "", "")
	assert.Equal(t, "Dr. Rao", p2.Name)
	require.Len(t, p2.Preferences.OrderPatterns, 1)
	assert.Contains(t, p2.Session.PatientsSeen, "pt-9")
}

type failingRepo struct{}

func (failingRepo) GetByID(context.Context, string) (*Profile, error) {
	return nil, errors.New("db down")
}
func (failingRepo) Save(context.Context, *Profile) error { return errors.New("db down") }

func TestMutationsSurvivePersistenceFailure(t *testing.T) {
	s := NewStore(failingRepo{}, zerolog.Nop())
	ctx := context.Background()

	p := s.GetOrCreate(ctx, "op-1", "Dr. Rao", "")
	s.LearnOrderPattern(ctx, p, "fever", "CBC")
	s.LearnOrderPattern(ctx, p, "fever", "CBC")

	require.NotNil(t, s.MatchPattern(p, "fever again"))
}
