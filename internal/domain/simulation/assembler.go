package simulation

import (
	"fmt"

	"github.com/pharmassist/synthdata/internal/domain/catalog"
	"github.com/pharmassist/synthdata/internal/domain/intake"
)

// Writer appends one record to a named stream. Implementations must not
// retain the record after returning.
type Writer interface {
	Append(stream string, record any) error
}

// prescriptionPool is the fixed set of prescription drugs a visit may add.
var prescriptionPool = []string{"metformin", "levothyroxine", "amlodipine", "atorvastatin"}

// State holds the monotonic reference counters of a run. It is threaded
// through the assembler explicitly; nothing is kept at package level.
type State struct {
	NextVisit int64
	NextEvent int64
	Events    map[EventType]int64
}

func newState() *State {
	return &State{Events: make(map[EventType]int64, 3)}
}

// Assembler turns a resolved visit into its visit record and dependent
// events, writing each record as soon as it is built.
type Assembler struct {
	params    Parameters
	mode      Mode
	inventory []catalog.Item
	out       Writer
	obs       Observer
}

// NewAssembler builds an assembler writing to out.
func NewAssembler(params Parameters, mode Mode, inventory []catalog.Item, out Writer, obs Observer) *Assembler {
	if obs == nil {
		obs = NopObserver{}
	}
	return &Assembler{params: params, mode: mode, inventory: inventory, out: out, obs: obs}
}

// maxQty is the upper bound of a purchased quantity.
func (a *Assembler) maxQty() int {
	if a.mode == ModeCompact {
		return 2
	}
	return 3
}

// Intents draws the intent set of a visit: symptom advice always, OTC
// purchase with the multi-intent probability, and in full mode a
// prescription with PrescriptionProbability.
func (a *Assembler) Intents(r *Rand) []Intent {
	intents := []Intent{IntentSymptomAdvice}
	if r.Float64() < a.params.PMultiIntent {
		intents = append(intents, IntentOTCPurchase)
	}
	if a.mode == ModeFull && r.Float64() < PrescriptionProbability {
		intents = append(intents, IntentPrescriptionAdded)
	}
	return intents
}

// Assemble emits one visit and its events for patientRef on date.
func (a *Assembler) Assemble(r *Rand, st *State, patientRef, date string, domain intake.Domain, stub intake.Extracted) (Visit, error) {
	intents := a.Intents(r)

	v := Visit{
		VisitRef:        VisitRef(st.NextVisit),
		PatientRef:      patientRef,
		OccurredAt:      date,
		PrimaryDomain:   domain,
		Intents:         intents,
		IntakeExtracted: stub,
	}
	st.NextVisit++
	if err := a.write(StreamVisits, v); err != nil {
		return Visit{}, err
	}

	if err := a.emit(st, v, EventSymptomIntake, SymptomIntakePayload{IntakeExtracted: stub}); err != nil {
		return Visit{}, err
	}

	if v.HasIntent(IntentOTCPurchase) {
		if len(a.inventory) == 0 {
			return Visit{}, fmt.Errorf("otc purchase for %s: %w", v.VisitRef, ErrEmptyInventory)
		}
		sku := a.inventory[r.IntN(len(a.inventory))].SKU
		qty := r.IntRange(1, a.maxQty())
		payload := OTCPurchasePayload{Items: []PurchaseLine{{SKU: sku, Qty: qty}}}
		if err := a.emit(st, v, EventOTCPurchase, payload); err != nil {
			return Visit{}, err
		}
	}

	if v.HasIntent(IntentPrescriptionAdded) {
		rx := prescriptionPool[r.IntN(len(prescriptionPool))]
		payload := PrescriptionPayload{RxMedications: []string{rx}}
		if err := a.emit(st, v, EventPrescriptionAdded, payload); err != nil {
			return Visit{}, err
		}
	}

	return v, nil
}

func (a *Assembler) emit(st *State, v Visit, typ EventType, payload any) error {
	ev := Event{
		EventRef:   EventRef(st.NextEvent),
		VisitRef:   v.VisitRef,
		PatientRef: v.PatientRef,
		OccurredAt: v.OccurredAt,
		EventType:  typ,
		Payload:    payload,
	}
	st.NextEvent++
	st.Events[typ]++
	return a.write(StreamEvents, ev)
}

func (a *Assembler) write(stream string, record any) error {
	if err := a.out.Append(stream, record); err != nil {
		return fmt.Errorf("write %s: %w", stream, err)
	}
	a.obs.OnRecord(stream)
	return nil
}
