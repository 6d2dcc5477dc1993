package command

// WorkflowBundle is a named set of orders surfaced together. Bundles
// are advisory: execution returns them as metadata for the clinician to
// confirm, and never creates the orders directly.
type WorkflowBundle struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	OrderLabels []string `json:"order_labels"`
}

var workflowBundles = map[string]WorkflowBundle{
	"sepsis-workup": {
		Name:        "sepsis-workup",
		Description: "Initial sepsis workup bundle",
		OrderLabels: []string{"Blood culture", "CBC", "Lactate", "IV fluids", "Broad-spectrum antibiotics"},
	},
	"chest-pain-workup": {
		Name:        "chest-pain-workup",
		Description: "Acute chest pain workup",
		OrderLabels: []string{"ECG", "Troponin", "Chest X-ray", "Aspirin"},
	},
	"stroke-workup": {
		Name:        "stroke-workup",
		Description: "Acute stroke workup",
		OrderLabels: []string{"CT head", "Blood sugar", "Coagulation profile", "ECG"},
	},
}

// LookupWorkflow returns the bundle for a name, if defined.
func LookupWorkflow(name string) (WorkflowBundle, bool) {
	b, ok := workflowBundles[name]
	return b, ok
}
