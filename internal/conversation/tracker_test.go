package conversation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ward-assistant/internal/patient"
)

func testRoster() []patient.Patient {
	return []patient.Patient{
		{ID: "pt-1", Name: "Asha Verma"},
		{ID: "pt-2", Name: "Rahul Iyer"},
	}
}

func TestSetFocusedPatientUpdatesAnchors(t *testing.T) {
	tr := NewTracker(time.Now())
	p := &patient.Patient{ID: "pt-1", Name: "Asha Verma"}

	tr.SetFocusedPatient(p)
	ctx := tr.Context()
	assert.Equal(t, "pt-1", ctx.FocusedPatientID)
	assert.Equal(t, "pt-1", ctx.LastMentionedPatientID)
	assert.Equal(t, []string{"Asha Verma"}, ctx.RecentEntities[EntityName])

	tr.SetFocusedPatient(nil)
	ctx = tr.Context()
	assert.Empty(t, ctx.FocusedPatientID)
	// Last-mentioned survives clearing focus.
	assert.Equal(t, "pt-1", ctx.LastMentionedPatientID)
}

func TestExtractEntitiesMatchesRosterAndKeywords(t *testing.T) {
	tr := NewTracker(time.Now())

	tr.ExtractEntities("Asha complained of fever, ordered a CBC and paracetamol", testRoster())

	ctx := tr.Context()
	assert.Equal(t, "pt-1", ctx.LastMentionedPatientID)
	assert.Contains(t, ctx.RecentEntities[EntityName], "Asha Verma")
	assert.Contains(t, ctx.RecentEntities[EntityLabTest], "cbc")
	assert.Contains(t, ctx.RecentEntities[EntityCondition], "fever")
	assert.Contains(t, ctx.RecentEntities[EntityMedication], "paracetamol")
	assert.Contains(t, ctx.RecentTopics, "fever")
}

func TestEntityBucketsBoundedMostRecentFirst(t *testing.T) {
	tr := NewTracker(time.Now())

	// 20 distinct lab mentions through distinct fake keywords is not
	// possible against the static list, so register directly the way
	// extraction does.
	for i := 0; i < 20; i++ {
		tr.registerEntity(EntityLabTest, fmt.Sprintf("lab-%02d", i))
	}

	labs := tr.Context().RecentEntities[EntityLabTest]
	require.Len(t, labs, 5)
	assert.Equal(t, []string{"lab-19", "lab-18", "lab-17", "lab-16", "lab-15"}, labs)
}

func TestTopicsDedupeCaseInsensitively(t *testing.T) {
	tr := NewTracker(time.Now())

	tr.pushTopic("Fever")
	tr.pushTopic("cbc")
	tr.pushTopic("FEVER")

	assert.Equal(t, []string{"fever", "cbc"}, tr.Context().RecentTopics)
}

func TestResolvePronounsPrefersFocusedPatient(t *testing.T) {
	tr := NewTracker(time.Now())
	roster := testRoster()
	tr.ExtractEntities("talked to Rahul", roster)
	tr.SetFocusedPatient(&roster[0])

	got := tr.ResolvePronouns("what about his bloodwork", roster)
	assert.Contains(t, got, "[patient reference: Asha Verma, id pt-1]")
}

func TestResolvePronounsFallsBackToLastMentioned(t *testing.T) {
	tr := NewTracker(time.Now())
	roster := testRoster()
	tr.ExtractEntities("reviewed Rahul earlier", roster)

	got := tr.ResolvePronouns("is he still waiting", roster)
	assert.Contains(t, got, "[patient reference: Rahul Iyer, id pt-2]")
}

func TestResolvePronounsLabReference(t *testing.T) {
	tr := NewTracker(time.Now())
	tr.ExtractEntities("ordered troponin for bed 4", nil)

	got := tr.ResolvePronouns("has that result come back", nil)
	assert.Contains(t, got, "[lab reference: troponin]")
}

func TestResolvePronounsPassthroughWithoutMatchOrAnchor(t *testing.T) {
	tr := NewTracker(time.Now())

	assert.Equal(t, "show ward census", tr.ResolvePronouns("show ward census", nil))
	// Pronoun present but no anchor to resolve against.
	assert.Equal(t, "is she okay", tr.ResolvePronouns("is she okay", nil))
}

func TestHistoryBounded(t *testing.T) {
	tr := NewTracker(time.Now())
	for i := 0; i < 30; i++ {
		tr.RecordMessage(Message{Role: "user", Text: fmt.Sprintf("msg %d", i)}, nil)
	}
	h := tr.History()
	require.Len(t, h, 20)
	assert.Equal(t, "msg 10", h[0].Text)
	assert.Equal(t, "msg 29", h[19].Text)
}

func TestStaleness(t *testing.T) {
	start := time.Now().Add(-2 * time.Hour)
	tr := NewTracker(start)
	assert.True(t, tr.Stale(time.Now()))
	assert.False(t, NewTracker(time.Now()).Stale(time.Now()))
}

func TestContextSummaryMentionsFocusAndEntities(t *testing.T) {
	tr := NewTracker(time.Now())
	roster := testRoster()
	tr.SetFocusedPatient(&roster[0])
	tr.ExtractEntities("fever workup with cbc", roster)

	summary := tr.ContextSummary()
	assert.Contains(t, summary, "Asha Verma")
	assert.Contains(t, summary, "cbc")
	assert.Contains(t, summary, "fever")
}
