// Package intake holds the clinical domain vocabulary, the seasonal domain
// selector and the structured intake stubs attached to visits and cases.
package intake

// SchemaVersion tags every Extracted stub.
const SchemaVersion = "0.0.0"

// Domain is a primary clinical domain tag.
type Domain string

const (
	DomainRespiratory Domain = "respiratory"
	DomainAllergyENT  Domain = "allergy_ent"
	DomainDigestive   Domain = "digestive"
	DomainSkin        Domain = "skin"
	DomainPain        Domain = "pain"
	DomainEye         Domain = "eye"
	DomainUrology     Domain = "urology"
	DomainOther       Domain = "other"
)

// Severity values used by symptoms.
const (
	SeverityMild     = "mild"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
	SeverityUnknown  = "unknown"
)

// Symptom is one line of a structured intake.
type Symptom struct {
	Label        string `json:"label"`
	Severity     string `json:"severity"`
	DurationDays *int   `json:"duration_days,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// Extracted is the schema-shaped intake_extracted stub.
type Extracted struct {
	SchemaVersion     string    `json:"schema_version"`
	PresentingProblem string    `json:"presenting_problem"`
	Symptoms          []Symptom `json:"symptoms"`
	RedFlags          []string  `json:"red_flags"`
}

// HasRedFlag reports whether flag is listed in the stub's red flags.
func (e Extracted) HasRedFlag(flag string) bool {
	for _, f := range e.RedFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// Rand is the subset of a random source the intake package draws from.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

func days(n int) *int { return &n }
