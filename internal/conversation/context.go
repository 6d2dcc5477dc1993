package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ward-assistant/internal/patient"
)

const (
	maxTopics            = 10
	maxEntitiesPerBucket = 5
	maxHistory           = 20

	// A tracker older than this is stale and should be rebuilt by the
	// session owner rather than reused.
	staleAfter = time.Hour
)

// EntityCategory buckets recently mentioned entities.
type EntityCategory string

const (
	EntityName       EntityCategory = "names"
	EntityLabTest    EntityCategory = "labTests"
	EntityMedication EntityCategory = "medications"
	EntityCondition  EntityCategory = "conditions"
)

// Message is one turn of the conversation, kept for prompt assembly.
type Message struct {
	ID             uuid.UUID `json:"id"`
	Role           string    `json:"role"` // "user" or "assistant"
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
	FocusPatientID string    `json:"focus_patient_id,omitempty"`
}

// Context is the working memory of one session. Patient references are
// ids only; the roster snapshot stays the source of truth.
type Context struct {
	FocusedPatientID       string
	FocusedPatientName     string
	LastMentionedPatientID string
	LastMentionedName      string
	RecentTopics           []string
	RecentEntities         map[EntityCategory][]string
	SessionStartedAt       time.Time
}

// Tracker owns the conversation context and bounded message history for
// one session.
type Tracker struct {
	ctx     Context
	history []Message
}

func NewTracker(now time.Time) *Tracker {
	return &Tracker{
		ctx: Context{
			RecentEntities:   make(map[EntityCategory][]string),
			SessionStartedAt: now,
		},
	}
}

// Stale reports whether the tracker outlived the session window.
func (t *Tracker) Stale(now time.Time) bool {
	return now.Sub(t.ctx.SessionStartedAt) > staleAfter
}

// Context returns a copy of the current context.
func (t *Tracker) Context() Context {
	c := t.ctx
	c.RecentTopics = append([]string(nil), t.ctx.RecentTopics...)
	c.RecentEntities = make(map[EntityCategory][]string, len(t.ctx.RecentEntities))
	for k, v := range t.ctx.RecentEntities {
		c.RecentEntities[k] = append([]string(nil), v...)
	}
	return c
}

// History returns the bounded message history, oldest first.
func (t *Tracker) History() []Message {
	return append([]Message(nil), t.history...)
}

// SetFocusedPatient updates the focus anchor. A non-nil patient also
// becomes the last-mentioned patient and registers as a name entity.
func (t *Tracker) SetFocusedPatient(p *patient.Patient) {
	if p == nil {
		t.ctx.FocusedPatientID = ""
		t.ctx.FocusedPatientName = ""
		return
	}
	t.ctx.FocusedPatientID = p.ID
	t.ctx.FocusedPatientName = p.Name
	t.ctx.LastMentionedPatientID = p.ID
	t.ctx.LastMentionedName = p.Name
	t.registerEntity(EntityName, p.Name)
}

// RecordMessage appends a message, extracting entities from user turns.
func (t *Tracker) RecordMessage(msg Message, roster []patient.Patient) {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if msg.FocusPatientID == "" {
		msg.FocusPatientID = t.ctx.FocusedPatientID
	}
	if msg.Role == "user" {
		t.ExtractEntities(msg.Text, roster)
	}
	t.history = append(t.history, msg)
	if len(t.history) > maxHistory {
		t.history = t.history[len(t.history)-maxHistory:]
	}
}

// ContextSummary renders the context as a short plain-text block fed to
// the model as grounding.
func (t *Tracker) ContextSummary() string {
	var b strings.Builder
	if t.ctx.FocusedPatientName != "" {
		fmt.Fprintf(&b, "Focused patient: %s (%s)\n", t.ctx.FocusedPatientName, t.ctx.FocusedPatientID)
	} else if t.ctx.LastMentionedName != "" {
		fmt.Fprintf(&b, "Last mentioned patient: %s (%s)\n", t.ctx.LastMentionedName, t.ctx.LastMentionedPatientID)
	}
	if len(t.ctx.RecentTopics) > 0 {
		fmt.Fprintf(&b, "Recent topics: %s\n", strings.Join(t.ctx.RecentTopics, ", "))
	}
	for _, cat := range []EntityCategory{EntityLabTest, EntityMedication, EntityCondition} {
		if ents := t.ctx.RecentEntities[cat]; len(ents) > 0 {
			fmt.Fprintf(&b, "Recent %s: %s\n", cat, strings.Join(ents, ", "))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// registerEntity pushes an entity to the front of its bucket,
// de-duplicating case-insensitively and trimming to the cap.
func (t *Tracker) registerEntity(cat EntityCategory, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	t.ctx.RecentEntities[cat] = pushFront(t.ctx.RecentEntities[cat], value, maxEntitiesPerBucket)
}

func (t *Tracker) pushTopic(topic string) {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		return
	}
	t.ctx.RecentTopics = pushFront(t.ctx.RecentTopics, topic, maxTopics)
}

func pushFront(list []string, value string, cap int) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, value)
	for _, v := range list {
		if strings.EqualFold(v, value) {
			continue
		}
		out = append(out, v)
	}
	if len(out) > cap {
		out = out[:cap]
	}
	return out
}
