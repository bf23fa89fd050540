package simulation

import (
	"fmt"

	"github.com/pharmassist/synthdata/internal/domain/intake"
	"github.com/pharmassist/synthdata/internal/domain/patient"
)

// Stream names, one per produced entity type.
const (
	StreamPatients  = "patients"
	StreamVisits    = "visits"
	StreamEvents    = "events"
	StreamInventory = "inventory"
)

// Streams lists every stream in the order they are opened.
var Streams = []string{StreamPatients, StreamVisits, StreamEvents, StreamInventory}

// Intent tags what a visit is about.
type Intent string

const (
	IntentSymptomAdvice     Intent = "symptom_advice"
	IntentOTCPurchase       Intent = "otc_purchase"
	IntentPrescriptionAdded Intent = "prescription_added"
)

// EventType tags an event record.
type EventType string

const (
	EventSymptomIntake     EventType = "symptom_intake"
	EventOTCPurchase       EventType = "otc_purchase"
	EventPrescriptionAdded EventType = "prescription_added"
)

// Patient is one line of the patients stream.
type Patient struct {
	PatientRef string          `json:"patient_ref"`
	LLMContext patient.Context `json:"llm_context"`
}

// Visit is one line of the visits stream.
type Visit struct {
	VisitRef        string           `json:"visit_ref"`
	PatientRef      string           `json:"patient_ref"`
	OccurredAt      string           `json:"occurred_at"`
	PrimaryDomain   intake.Domain    `json:"primary_domain"`
	Intents         []Intent         `json:"intents"`
	IntakeExtracted intake.Extracted `json:"intake_extracted"`
}

// HasIntent reports whether the visit carries intent.
func (v Visit) HasIntent(intent Intent) bool {
	for _, i := range v.Intents {
		if i == intent {
			return true
		}
	}
	return false
}

// Event is one line of the events stream. Payload is one of the *Payload
// types below, chosen by EventType.
type Event struct {
	EventRef   string    `json:"event_ref"`
	VisitRef   string    `json:"visit_ref"`
	PatientRef string    `json:"patient_ref"`
	OccurredAt string    `json:"occurred_at"`
	EventType  EventType `json:"event_type"`
	Payload    any       `json:"payload"`
}

// SymptomIntakePayload carries the visit's intake stub.
type SymptomIntakePayload struct {
	IntakeExtracted intake.Extracted `json:"intake_extracted"`
}

// PurchaseLine is one purchased product.
type PurchaseLine struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

// OTCPurchasePayload lists purchased products.
type OTCPurchasePayload struct {
	Items []PurchaseLine `json:"items"`
}

// PrescriptionPayload lists prescription drugs added to the patient record.
type PrescriptionPayload struct {
	RxMedications []string `json:"rx_medications"`
}

// VisitRef formats a visit ordinal.
func VisitRef(ordinal int64) string { return fmt.Sprintf("visit_%09d", ordinal) }

// EventRef formats an event ordinal.
func EventRef(ordinal int64) string { return fmt.Sprintf("ev_%09d", ordinal) }
