package command

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"ward-assistant/internal/patient"
)

// OrderAPI is the order-creation collaborator. Drafts are the only
// state this core may create.
type OrderAPI interface {
	AddOrder(ctx context.Context, patientID string, draft patient.Order) (patient.Order, error)
}

// NoteAPI is the note-append collaborator.
type NoteAPI interface {
	AddNote(ctx context.Context, patientID, text string, isEscalation bool) error
}

// Navigator moves the UI.
type Navigator interface {
	GoTo(route string) error
}

// Executor validates and performs typed actions against the external
// collaborators. Collaborator failures are caught here and reported as
// Result{Success:false}; nothing is thrown past this boundary.
type Executor struct {
	orders OrderAPI
	notes  NoteAPI
	nav    Navigator
	log    zerolog.Logger
}

func NewExecutor(orders OrderAPI, notes NoteAPI, nav Navigator, log zerolog.Logger) *Executor {
	return &Executor{
		orders: orders,
		notes:  notes,
		nav:    nav,
		log:    log.With().Str("component", "executor").Logger(),
	}
}

// Execute dispatches by action kind. The union is matched exhaustively;
// a malformed action (kind without payload) fails closed.
func (e *Executor) Execute(ctx context.Context, action *Action) Result {
	if action == nil {
		return Result{Success: false, Message: "no action to execute"}
	}
	switch action.Kind {
	case KindOrder:
		return e.executeOrder(ctx, action.Order)
	case KindNote:
		return e.executeNote(ctx, action.Note)
	case KindNavigate:
		return e.executeNavigate(action.Navigate)
	case KindWorkflow:
		return e.executeWorkflow(action.Workflow)
	default:
		return Result{Success: false, Message: fmt.Sprintf("unknown action kind %q", action.Kind)}
	}
}

func (e *Executor) executeOrder(ctx context.Context, o *OrderAction) Result {
	if o == nil || o.PatientID == "" {
		return Result{Success: false, Message: "order action missing patient"}
	}
	draft := patient.Order{
		Label:    o.Label,
		Subtype:  o.Subtype,
		Category: o.Category,
		Status:   patient.OrderDraft,
	}
	created, err := e.orders.AddOrder(ctx, o.PatientID, draft)
	if err != nil {
		e.log.Error().Err(err).Str("patient", o.PatientID).Str("subtype", o.Subtype).Msg("order creation failed")
		return Result{Success: false, Message: "could not create draft order: " + err.Error()}
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("Draft order %s created for %s", created.Label, o.PatientName),
		Data:    created,
	}
}

func (e *Executor) executeNote(ctx context.Context, n *NoteAction) Result {
	if n == nil || n.PatientID == "" || n.Text == "" {
		return Result{Success: false, Message: "note action missing patient or text"}
	}
	if err := e.notes.AddNote(ctx, n.PatientID, n.Text, n.IsEscalation); err != nil {
		e.log.Error().Err(err).Str("patient", n.PatientID).Msg("note append failed")
		return Result{Success: false, Message: "could not append note: " + err.Error()}
	}
	msg := "Note added"
	if n.IsEscalation {
		msg = "Escalation note added"
	}
	return Result{Success: true, Message: msg}
}

func (e *Executor) executeNavigate(n *NavigateAction) Result {
	if n == nil || n.Route == "" {
		return Result{Success: false, Message: "navigate action missing route"}
	}
	if err := e.nav.GoTo(n.Route); err != nil {
		e.log.Error().Err(err).Str("route", n.Route).Msg("navigation failed")
		return Result{Success: false, Message: "navigation failed: " + err.Error()}
	}
	return Result{Success: true, Message: "Opening " + n.Label}
}

func (e *Executor) executeWorkflow(w *WorkflowAction) Result {
	if w == nil {
		return Result{Success: false, Message: "workflow action missing payload"}
	}
	bundle, ok := LookupWorkflow(w.Name)
	if !ok {
		return Result{Success: false, Message: fmt.Sprintf("unknown workflow %q", w.Name)}
	}
	// Advisory only: the bundle is returned for confirmation, not placed.
	return Result{
		Success: true,
		Message: fmt.Sprintf("%s: review and confirm %d orders", bundle.Description, len(bundle.OrderLabels)),
		Data:    bundle,
	}
}
