package patient

import (
	"math/rand/v2"
)

// Seeds reserved for hand-authored fixtures consumed by downstream suites.
const (
	SeedRedFlagFixture = 101
	SeedLowInfoFixture = 102
)

var medicationPool = []Medication{
	{Name: "paracetamol", IsPrescription: false},
	{Name: "ibuprofen", IsPrescription: false},
	{Name: "metformin", IsPrescription: true},
	{Name: "levothyroxine", IsPrescription: true},
}

// Generate returns the clinical context for seed. It is a pure function of
// seed: the same seed always yields the same Context.
func Generate(seed int64) Context {
	switch seed {
	case SeedRedFlagFixture:
		return Context{
			SchemaVersion:      SchemaVersion,
			Demographics:       Demographics{AgeYears: 62, Sex: "M"},
			Allergies:          []Allergy{},
			Conditions:         []Condition{{Label: "hypertension"}},
			CurrentMedications: []Medication{{Name: "metformin", IsPrescription: true}},
		}
	case SeedLowInfoFixture:
		return Context{
			SchemaVersion:      SchemaVersion,
			Demographics:       Demographics{AgeYears: 34, Sex: "F"},
			Allergies:          []Allergy{},
			Conditions:         []Condition{},
			CurrentMedications: []Medication{},
		}
	}

	r := rand.New(rand.NewPCG(uint64(seed), 0))

	sex := "F"
	if r.IntN(2) == 1 {
		sex = "M"
	}
	age := 18 + r.IntN(85-18+1)

	allergies := []Allergy{}
	var conditions []Condition
	switch mod3(seed) {
	case 0:
		allergies = append(allergies, Allergy{Substance: "pollen", Reaction: "rhinitis", Severity: "mild"})
		conditions = []Condition{{Label: "seasonal allergic rhinitis"}}
	case 1:
		conditions = []Condition{{Label: "dry skin"}}
	default:
		conditions = []Condition{{Label: "mild digestive discomfort"}}
	}

	return Context{
		SchemaVersion:      SchemaVersion,
		Demographics:       Demographics{AgeYears: age, Sex: sex},
		Allergies:          allergies,
		Conditions:         conditions,
		CurrentMedications: []Medication{medicationPool[r.IntN(len(medicationPool))]},
	}
}

// mod3 is a non-negative remainder so negative seeds map onto the same
// three templates.
func mod3(seed int64) int64 {
	m := seed % 3
	if m < 0 {
		m += 3
	}
	return m
}
