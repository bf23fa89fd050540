// Package patient generates the clinical context attached to every synthetic
// patient. Records carry no names, contact details or locations.
package patient

// SchemaVersion tags every Context produced by this package.
const SchemaVersion = "0.0.0"

// Demographics holds the coarse, non-identifying demographics of a patient.
type Demographics struct {
	AgeYears int    `json:"age_years"`
	Sex      string `json:"sex"`
}

// Allergy is a known allergy with its typical reaction.
type Allergy struct {
	Substance string `json:"substance"`
	Reaction  string `json:"reaction"`
	Severity  string `json:"severity"`
}

// Condition is a chronic or recurring condition label.
type Condition struct {
	Label string `json:"label"`
}

// Medication is a current treatment.
type Medication struct {
	Name           string `json:"name"`
	IsPrescription bool   `json:"is_prescription"`
}

// Context is the llm_context record embedded in each patient line.
type Context struct {
	SchemaVersion      string       `json:"schema_version"`
	Demographics       Demographics `json:"demographics"`
	Allergies          []Allergy    `json:"allergies"`
	Conditions         []Condition  `json:"conditions"`
	CurrentMedications []Medication `json:"current_medications"`
}
