package command

// Kind discriminates the action union. Every action carries exactly one
// non-nil payload matching its kind; the executor dispatches
// exhaustively over it.
type Kind string

const (
	KindOrder    Kind = "order"
	KindNote     Kind = "note"
	KindNavigate Kind = "navigate"
	KindWorkflow Kind = "workflow"
)

// OrderAction creates one draft clinical order.
type OrderAction struct {
	PatientID   string `json:"patient_id"`
	PatientName string `json:"patient_name"`
	Subtype     string `json:"subtype"`  // e.g. "cbc", "oxygen"
	Category    string `json:"category"` // "investigation" or "treatment"
	Label       string `json:"label"`
}

// NoteAction appends free text to a patient's notes.
type NoteAction struct {
	PatientID    string `json:"patient_id"`
	Text         string `json:"text"`
	IsEscalation bool   `json:"is_escalation"`
}

// NavigateAction moves the UI to a route.
type NavigateAction struct {
	Route string `json:"route"`
	Label string `json:"label"`
}

// WorkflowAction names a multi-order bundle. Execution returns the
// bundle as advisory metadata; it never places the orders itself.
type WorkflowAction struct {
	Name      string `json:"name"`
	PatientID string `json:"patient_id"`
}

// Action is the typed result of interpreting free text. Built once by
// Parse, consumed once by the executor, never persisted.
type Action struct {
	Kind     Kind            `json:"kind"`
	Order    *OrderAction    `json:"order,omitempty"`
	Note     *NoteAction     `json:"note,omitempty"`
	Navigate *NavigateAction `json:"navigate,omitempty"`
	Workflow *WorkflowAction `json:"workflow,omitempty"`
}

// Result is the structured outcome of executing an action. Collaborator
// failures surface here as Success=false, never as an error.
type Result struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
