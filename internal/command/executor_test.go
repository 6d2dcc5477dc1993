package command

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ward-assistant/internal/patient"
)

type fakeOrders struct {
	created []patient.Order
	fail    bool
}

func (f *fakeOrders) AddOrder(_ context.Context, patientID string, draft patient.Order) (patient.Order, error) {
	if f.fail {
		return patient.Order{}, errors.New("order service unavailable")
	}
	draft.ID = "ord-1"
	f.created = append(f.created, draft)
	return draft, nil
}

type fakeNotes struct {
	notes       []string
	escalations int
	fail        bool
}

func (f *fakeNotes) AddNote(_ context.Context, _, text string, isEscalation bool) error {
	if f.fail {
		return errors.New("notes service unavailable")
	}
	f.notes = append(f.notes, text)
	if isEscalation {
		f.escalations++
	}
	return nil
}

type fakeNav struct{ routes []string }

func (f *fakeNav) GoTo(route string) error {
	f.routes = append(f.routes, route)
	return nil
}

func newTestExecutor() (*Executor, *fakeOrders, *fakeNotes, *fakeNav) {
	orders := &fakeOrders{}
	notes := &fakeNotes{}
	nav := &fakeNav{}
	return NewExecutor(orders, notes, nav, zerolog.Nop()), orders, notes, nav
}

func TestExecuteOrderCreatesDraft(t *testing.T) {
	exec, orders, _, _ := newTestExecutor()

	res := exec.Execute(context.Background(), &Action{Kind: KindOrder, Order: &OrderAction{
		PatientID: "pt-1", PatientName: "Asha Verma",
		Subtype: "cbc", Category: "investigation", Label: "CBC",
	}})

	require.True(t, res.Success)
	require.Len(t, orders.created, 1)
	assert.Equal(t, patient.OrderDraft, orders.created[0].Status, "executor only ever creates drafts")
}

func TestExecuteOrderFailureIsStructured(t *testing.T) {
	exec, orders, _, _ := newTestExecutor()
	orders.fail = true

	res := exec.Execute(context.Background(), &Action{Kind: KindOrder, Order: &OrderAction{
		PatientID: "pt-1", Subtype: "cbc", Category: "investigation", Label: "CBC",
	}})

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "could not create draft order")
	assert.Empty(t, orders.created, "failed order leaves no partial state")
}

func TestExecuteNoteForwardsEscalation(t *testing.T) {
	exec, _, notes, _ := newTestExecutor()

	res := exec.Execute(context.Background(), &Action{Kind: KindNote, Note: &NoteAction{
		PatientID: "pt-1", Text: "BP unresponsive", IsEscalation: true,
	}})

	require.True(t, res.Success)
	assert.Equal(t, 1, notes.escalations)
}

func TestExecuteNavigate(t *testing.T) {
	exec, _, _, nav := newTestExecutor()

	res := exec.Execute(context.Background(), &Action{Kind: KindNavigate, Navigate: &NavigateAction{
		Route: "/dashboard", Label: "Dashboard",
	}})

	require.True(t, res.Success)
	assert.Equal(t, []string{"/dashboard"}, nav.routes)
}

func TestExecuteWorkflowIsAdvisory(t *testing.T) {
	exec, orders, _, _ := newTestExecutor()

	res := exec.Execute(context.Background(), &Action{Kind: KindWorkflow, Workflow: &WorkflowAction{
		Name: "sepsis-workup", PatientID: "pt-1",
	}})

	require.True(t, res.Success)
	bundle, ok := res.Data.(WorkflowBundle)
	require.True(t, ok)
	assert.Contains(t, bundle.OrderLabels, "Blood culture")
	assert.Empty(t, orders.created, "workflow execution never places orders")
}

func TestExecuteMalformedActions(t *testing.T) {
	exec, _, _, _ := newTestExecutor()
	ctx := context.Background()

	assert.False(t, exec.Execute(ctx, nil).Success)
	assert.False(t, exec.Execute(ctx, &Action{Kind: KindOrder}).Success)
	assert.False(t, exec.Execute(ctx, &Action{Kind: KindNote, Note: &NoteAction{PatientID: "pt-1"}}).Success)
	assert.False(t, exec.Execute(ctx, &Action{Kind: KindWorkflow, Workflow: &WorkflowAction{Name: "nope"}}).Success)
	assert.False(t, exec.Execute(ctx, &Action{Kind: Kind("other")}).Success)
}
