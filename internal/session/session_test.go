package session

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ward-assistant/internal/agent"
	"ward-assistant/internal/conversation"
	"ward-assistant/internal/gateway"
	"ward-assistant/internal/insight"
	"ward-assistant/internal/kv"
	"ward-assistant/internal/operator"
	"ward-assistant/internal/patient"
)

type stubModel struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (s *stubModel) Generate(context.Context, []agent.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func (s *stubModel) Model() string { return "stub" }

type stubRoster struct {
	patients []patient.Patient
	err      error
}

func (s *stubRoster) Snapshot(context.Context) ([]patient.Patient, error) {
	return s.patients, s.err
}

type stubOrders struct{ created []patient.Order }

func (s *stubOrders) AddOrder(_ context.Context, _ string, draft patient.Order) (patient.Order, error) {
	draft.ID = "ord-1"
	s.created = append(s.created, draft)
	return draft, nil
}

type stubNotes struct{ notes []string }

func (s *stubNotes) AddNote(_ context.Context, _, text string, _ bool) error {
	s.notes = append(s.notes, text)
	return nil
}

type fixture struct {
	sess   *Session
	model  *stubModel
	orders *stubOrders
	notes  *stubNotes
	memory *operator.Store
}

func newFixture(t *testing.T, patients []patient.Patient) *fixture {
	t.Helper()
	model := &stubModel{reply: "assistant reply"}
	orders := &stubOrders{}
	notes := &stubNotes{}
	memory := operator.NewStore(operator.NewKVRepository(kv.NewMemory()), zerolog.Nop())
	deps := Deps{
		Memory:  memory,
		Gateway: gateway.New(model, gateway.NewResponseCache(kv.NewMemory()), zerolog.Nop()),
		Roster:  &stubRoster{patients: patients},
		Orders:  orders,
		Notes:   notes,
		Log:     zerolog.Nop(),
	}
	sess := Open(context.Background(), deps, "op-1", "Dr. Rao", "rao@ward.example")
	t.Cleanup(sess.Close)
	return &fixture{sess: sess, model: model, orders: orders, notes: notes, memory: memory}
}

func wardRoster() []patient.Patient {
	return []patient.Patient{
		{
			ID: "pt-1", Name: "Asha Verma", Status: patient.StatusInConsult,
			File: patient.File{ChiefComplaint: "fever since yesterday", Allergies: "NKDA", Medications: "none"},
		},
		{
			ID: "pt-2", Name: "Rahul Iyer", Status: patient.StatusWaiting,
			File: patient.File{ChiefComplaint: "chest pain", Allergies: "NKDA", Medications: "none"},
		},
	}
}

func TestSendMessageRecordsBothTurns(t *testing.T) {
	f := newFixture(t, wardRoster())
	ctx := context.Background()

	reply, err := f.sess.SendMessage(ctx, "how is Asha doing")
	require.NoError(t, err)
	assert.Equal(t, "assistant reply", reply.Text)
	assert.False(t, reply.FromCache)
	assert.False(t, f.sess.InFlight())
}

func TestSendMessageResolvesPronounsAgainstFocus(t *testing.T) {
	f := newFixture(t, wardRoster())
	ctx := context.Background()

	f.sess.SetFocusedPatient(ctx, "pt-1")
	_, err := f.sess.SendMessage(ctx, "should we discharge her")
	require.NoError(t, err)

	// The recorded user turn carries the bracketed disambiguation.
	history := f.sess.tracker.History()
	require.NotEmpty(t, history)
	assert.Contains(t, history[0].Text, "Asha Verma")
}

func TestSendMessageRateLimitedSurfacesWait(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for i := 0; i < gateway.DefaultMaxCalls; i++ {
		// Distinct prompts defeat the cache so each send hits the model.
		_, err := f.sess.SendMessage(ctx, "question "+strconv.Itoa(i))
		require.NoError(t, err)
	}

	_, err := f.sess.SendMessage(ctx, "one more question")
	var rl *gateway.RateLimitedError
	require.ErrorAs(t, err, &rl)
	assert.Greater(t, rl.Wait, time.Duration(0))
}

func TestSendMessageModelFailureFallsBack(t *testing.T) {
	f := newFixture(t, nil)
	f.model.err = errors.New("backend down")

	reply, err := f.sess.SendMessage(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, chatFallback, reply.Text)
}

func TestSetFocusedPatientRecordsSeen(t *testing.T) {
	f := newFixture(t, wardRoster())
	ctx := context.Background()

	f.sess.SetFocusedPatient(ctx, "pt-1")
	profile := f.memory.GetOrCreate(ctx, "op-1", "", "")
	assert.Contains(t, profile.Session.PatientsSeen, "pt-1")

	f.sess.SetFocusedPatient(ctx, "")
	assert.Empty(t, f.sess.tracker.Context().FocusedPatientID)
}

func TestExecuteCommandOrderLearnsPattern(t *testing.T) {
	f := newFixture(t, wardRoster())
	ctx := context.Background()
	f.sess.SetFocusedPatient(ctx, "pt-1")

	res, matched := f.sess.ExecuteCommand(ctx, "order cbc")
	require.True(t, matched)
	require.True(t, res.Success)
	require.Len(t, f.orders.created, 1)
	assert.Equal(t, patient.OrderDraft, f.orders.created[0].Status)

	// Second placement pushes the fever pattern to frequency 2, which
	// makes it eligible for personalized insights.
	_, _ = f.sess.ExecuteCommand(ctx, "order cbc")

	suggestions := f.sess.RefreshInsights(ctx)
	var personalized *insight.Suggestion
	for i := range suggestions {
		if suggestions[i].Personalized {
			personalized = &suggestions[i]
		}
	}
	require.NotNil(t, personalized)
	assert.Equal(t, "pt-1", personalized.SubjectPatientID)
	assert.Equal(t, insight.CategoryPattern, personalized.Category)
}

func TestExecuteCommandNoMatchFallsBackToChat(t *testing.T) {
	f := newFixture(t, wardRoster())

	_, matched := f.sess.ExecuteCommand(context.Background(), "summarize the shift so far")
	assert.False(t, matched)
}

func TestExecuteCommandNavigationRecordsRoute(t *testing.T) {
	f := newFixture(t, wardRoster())

	res, matched := f.sess.ExecuteCommand(context.Background(), "open dashboard")
	require.True(t, matched)
	require.True(t, res.Success)
	assert.Equal(t, "/dashboard", f.sess.LastRoute())
}

func TestStaleContextResetsOnNextOperation(t *testing.T) {
	f := newFixture(t, wardRoster())
	ctx := context.Background()

	f.sess.SetFocusedPatient(ctx, "pt-1")
	require.Equal(t, "pt-1", f.sess.tracker.Context().FocusedPatientID)

	// Age the context past the staleness window; focus carries over so
	// the reset is observable.
	roster := wardRoster()
	aged := conversation.NewTracker(time.Now().Add(-2 * time.Hour))
	aged.SetFocusedPatient(&roster[0])
	f.sess.mu.Lock()
	f.sess.tracker = aged
	f.sess.mu.Unlock()

	_, err := f.sess.SendMessage(ctx, "good morning")
	require.NoError(t, err)

	got := f.sess.tracker.Context()
	assert.Empty(t, got.FocusedPatientID, "stale context is rebuilt, not reused")
	assert.False(t, f.sess.tracker.Stale(time.Now()))
	assert.Len(t, f.sess.tracker.History(), 2, "only the fresh turn survives")
}

func TestTranscriptFlushExtractsEntities(t *testing.T) {
	f := newFixture(t, wardRoster())

	f.sess.IngestTranscript("patient reports fever and we sent a cbc")
	f.sess.flushTranscript()

	ctx := f.sess.tracker.Context()
	assert.Contains(t, ctx.RecentTopics, "fever")
	assert.Contains(t, ctx.RecentTopics, "cbc")
}

func TestTranscriptClassificationSharesLimiter(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.sess.IngestTranscript("long dictation about chest pain")
	f.sess.flushTranscript()

	// The classification call consumed a slot from the same window the
	// chat path uses.
	require.Equal(t, 1, f.model.calls)
	_, err := f.sess.SendMessage(ctx, "and a chat message")
	require.NoError(t, err)
	assert.Equal(t, 2, f.model.calls)
}

func TestPaletteQueryRanking(t *testing.T) {
	f := newFixture(t, wardRoster())

	got := f.sess.PaletteQuery(context.Background(), "order")
	require.NotEmpty(t, got)
	assert.Equal(t, "command", got[0].Kind)
	assert.Equal(t, 3, got[0].Score, "prefix matches rank first")

	patients := f.sess.PaletteQuery(context.Background(), "rahul")
	require.NotEmpty(t, patients)
	assert.Equal(t, "patient", patients[0].Kind)
	assert.Equal(t, "pt-2", patients[0].Value)
}

func TestCloseStopsTranscriptTimer(t *testing.T) {
	f := newFixture(t, nil)

	f.sess.IngestTranscript("dangling chunk")
	f.sess.Close()
	f.sess.flushTranscript()

	assert.Zero(t, f.model.calls, "no classification after close")
}
