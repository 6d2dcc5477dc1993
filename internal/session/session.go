package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ward-assistant/internal/agent"
	"ward-assistant/internal/command"
	"ward-assistant/internal/conversation"
	"ward-assistant/internal/gateway"
	"ward-assistant/internal/insight"
	"ward-assistant/internal/operator"
	"ward-assistant/internal/patient"
)

const transcriptDebounce = 750 * time.Millisecond

// Deps are the collaborators one session composes. All of them outlive
// the session except the executor, which the session builds itself.
type Deps struct {
	Memory  *operator.Store
	Gateway *gateway.Gateway
	Roster  patient.Roster
	Orders  command.OrderAPI
	Notes   command.NoteAPI
	Log     zerolog.Logger
}

// Reply is the outcome of a free-text message.
type Reply struct {
	Text      string `json:"text"`
	FromCache bool   `json:"from_cache"`
}

// Session is the stateful assistant handle for one operator login.
// Constructed at open, torn down at close; there are no package-level
// singletons. A mutex serializes operations so reads always observe
// the last completed write.
type Session struct {
	ID         uuid.UUID
	OperatorID string

	mu       sync.Mutex
	tracker  *conversation.Tracker
	profile  *operator.Profile
	memory   *operator.Store
	gw       *gateway.Gateway
	roster   patient.Roster
	exec     *command.Executor
	agg      *insight.Aggregator
	log      zerolog.Logger
	inFlight int

	transcript *strings.Builder
	extract    *debouncer
	lastRoute  string
	closed     bool
}

// routeRecorder satisfies the navigation collaborator; the chosen route
// travels back to the UI in the action result.
type routeRecorder struct{ s *Session }

func (r routeRecorder) GoTo(route string) error {
	r.s.mu.Lock()
	r.s.lastRoute = route
	r.s.mu.Unlock()
	return nil
}

// Open builds a session for an operator, loading (or lazily creating)
// the operator profile.
func Open(ctx context.Context, deps Deps, operatorID, name, contact string) *Session {
	s := &Session{
		ID:         uuid.New(),
		OperatorID: operatorID,
		tracker:    conversation.NewTracker(time.Now()),
		memory:     deps.Memory,
		gw:         deps.Gateway,
		roster:     deps.Roster,
		agg:        insight.NewAggregator(deps.Memory),
		log:        deps.Log.With().Str("component", "session").Str("operator", operatorID).Logger(),
		transcript: &strings.Builder{},
	}
	s.profile = deps.Memory.GetOrCreate(ctx, operatorID, name, contact)
	s.exec = command.NewExecutor(deps.Orders, deps.Notes, routeRecorder{s}, deps.Log)
	s.extract = newDebouncer(transcriptDebounce, s.flushTranscript)
	return s
}

// Close tears the session down, clearing any pending transcript timer.
// An in-flight model call is not cancelled; its result is discarded.
func (s *Session) Close() {
	s.extract.Stop()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.log.Info().Str("session", s.ID.String()).Msg("session closed")
}

// ensureFresh replaces a context tracker that outlived the staleness
// window. Focus, topics, and history all reset; the operator profile is
// durable and survives.
func (s *Session) ensureFresh(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracker.Stale(now) {
		s.tracker = conversation.NewTracker(now)
		s.log.Info().Str("session", s.ID.String()).Msg("stale conversation context reset")
	}
}

// InFlight reports whether a model send is outstanding; the UI disables
// its send control while true to keep reply ordering deterministic.
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

// RateLimit exposes the shared gateway limiter state.
func (s *Session) RateLimit() gateway.RateLimitStatus {
	return s.gw.CheckRateLimit()
}

// Usage exposes the rolling gateway usage totals.
func (s *Session) Usage() gateway.UsageTotals {
	return s.gw.Usage()
}

// LastRoute returns the most recent navigation target.
func (s *Session) LastRoute() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRoute
}

// SendMessage runs one chat turn: pronouns are resolved against the
// current context, the user turn is recorded, the gateway is called,
// and the assistant reply is appended only once the call resolves.
// A rate-limit error is returned for the UI to surface as a wait.
func (s *Session) SendMessage(ctx context.Context, text string) (Reply, error) {
	s.ensureFresh(time.Now())
	roster := s.snapshot(ctx)

	s.mu.Lock()
	resolved := s.tracker.ResolvePronouns(text, roster)
	s.tracker.RecordMessage(conversation.Message{Role: "user", Text: resolved}, roster)
	summary := s.tracker.ContextSummary()
	history := s.tracker.History()
	s.inFlight++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	msgs := make([]agent.Message, 0, len(history)+1)
	system := systemPrompt
	if summary != "" {
		system += "\n\nCurrent context:\n" + summary
	}
	msgs = append(msgs, agent.Message{Role: "system", Content: system})
	for _, m := range history {
		msgs = append(msgs, agent.Message{Role: m.Role, Content: m.Text})
	}

	resp, err := s.gw.Generate(ctx, "chat", summary+"\n"+resolved, msgs, chatFallback)
	if err != nil {
		return Reply{}, err
	}

	s.mu.Lock()
	s.tracker.RecordMessage(conversation.Message{Role: "assistant", Text: resp.Text}, roster)
	s.mu.Unlock()

	return Reply{Text: resp.Text, FromCache: resp.FromCache}, nil
}

// SetFocusedPatient updates the pronoun anchor. An empty id clears
// focus; a known id also records the patient as seen this session.
func (s *Session) SetFocusedPatient(ctx context.Context, patientID string) {
	s.ensureFresh(time.Now())
	if patientID == "" {
		s.mu.Lock()
		s.tracker.SetFocusedPatient(nil)
		s.mu.Unlock()
		return
	}
	roster := s.snapshot(ctx)
	var focused *patient.Patient
	for i := range roster {
		if roster[i].ID == patientID {
			focused = &roster[i]
			break
		}
	}
	if focused == nil {
		s.log.Warn().Str("patient", patientID).Msg("focus requested for unknown patient")
		return
	}
	s.mu.Lock()
	s.tracker.SetFocusedPatient(focused)
	s.mu.Unlock()
	s.memory.RecordPatientSeen(ctx, s.profile, focused.ID)
}

// RefreshInsights recomputes the full suggestion feed.
func (s *Session) RefreshInsights(ctx context.Context) []insight.Suggestion {
	roster := s.snapshot(ctx)
	return s.agg.Aggregate(roster, s.profile, time.Now())
}

// AcceptSuggestion and DismissSuggestion feed the operator's habit
// statistics; dismissal state itself lives in the UI layer.
func (s *Session) AcceptSuggestion(ctx context.Context) {
	s.memory.RecordAccepted(ctx, s.profile)
}

func (s *Session) DismissSuggestion(ctx context.Context, reason string) {
	s.memory.RecordRejected(ctx, s.profile, reason)
}

// ExecuteCommand interprets free text as a typed action and performs
// it. The second return is false when nothing matched and the caller
// should fall back to free-form chat.
func (s *Session) ExecuteCommand(ctx context.Context, text string) (command.Result, bool) {
	s.ensureFresh(time.Now())
	roster := s.snapshot(ctx)
	focused := s.focusedFrom(roster)

	action := command.Parse(text, focused, roster)
	if action == nil {
		return command.Result{}, false
	}

	res := s.exec.Execute(ctx, action)

	// A successful order after a documented complaint teaches the
	// operator's pattern memory.
	if res.Success && action.Kind == command.KindOrder && focused != nil {
		if kw := conversation.ConditionKeyword(focused.File.ChiefComplaint); kw != "" {
			s.memory.LearnOrderPattern(ctx, s.profile, kw, action.Order.Label)
		}
	}
	return res, true
}

// IngestTranscript buffers a live-dictation chunk and (re)schedules the
// debounced extraction task.
func (s *Session) IngestTranscript(chunk string) {
	s.mu.Lock()
	s.transcript.WriteString(chunk)
	s.transcript.WriteString(" ")
	s.mu.Unlock()
	s.extract.Trigger()
}

// flushTranscript is the debounced task: deterministic entity
// re-extraction over the buffered text, plus a single-turn topic
// classification through the shared gateway. Classification failure is
// handled here, at the caller level, by logging and moving on.
func (s *Session) flushTranscript() {
	s.ensureFresh(time.Now())
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	text := strings.TrimSpace(s.transcript.String())
	s.transcript.Reset()
	s.mu.Unlock()
	if text == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	roster := s.snapshot(ctx)
	s.mu.Lock()
	s.tracker.ExtractEntities(text, roster)
	s.mu.Unlock()

	resp, err := s.gw.Classify(ctx, classifyPromptPrefix+text)
	if err != nil {
		s.log.Warn().Err(err).Msg("transcript classification failed")
		return
	}
	s.mu.Lock()
	s.tracker.ExtractEntities(resp.Text, roster)
	s.mu.Unlock()
}

func (s *Session) snapshot(ctx context.Context) []patient.Patient {
	roster, err := s.roster.Snapshot(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("roster snapshot failed")
		return nil
	}
	return roster
}

func (s *Session) focusedFrom(roster []patient.Patient) *patient.Patient {
	s.mu.Lock()
	focusedID := s.tracker.Context().FocusedPatientID
	s.mu.Unlock()
	if focusedID == "" {
		return nil
	}
	for i := range roster {
		if roster[i].ID == focusedID {
			return &roster[i]
		}
	}
	return nil
}
